// Package postgres is the PostgreSQL-backed record source. Records are
// mirrored from the upstream care-management system as JSONB payloads, one
// table per collection, and decoded into the raw record types on read.
package postgres

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/careops/substitute-planner/pkg/core/features"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Store provides record reads over a PostgreSQL connection pool
type Store struct {
	pool *pgxpool.Pool
}

// NewStore connects to the database and verifies the connection
func NewStore(ctx context.Context, connString string) (*Store, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Store{pool: pool}, nil
}

// Close closes the connection pool
func (s *Store) Close() {
	s.pool.Close()
}

// RunMigrations executes all pending SQL migration files in order, tracking
// applied migrations in a schema_migrations table
func (s *Store) RunMigrations(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			filename TEXT PRIMARY KEY,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create schema_migrations table: %w", err)
	}

	rows, err := s.pool.Query(ctx, `SELECT filename FROM schema_migrations`)
	if err != nil {
		return fmt.Errorf("failed to query applied migrations: %w", err)
	}
	applied := make(map[string]bool)
	for rows.Next() {
		var filename string
		if err := rows.Scan(&filename); err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan migration filename: %w", err)
		}
		applied[filename] = true
	}
	rows.Close()

	entries, err := fs.ReadDir(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to read migrations directory: %w", err)
	}

	var sqlFiles []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".sql") {
			sqlFiles = append(sqlFiles, entry.Name())
		}
	}
	sort.Strings(sqlFiles)

	for _, filename := range sqlFiles {
		if applied[filename] {
			continue
		}

		content, err := migrationsFS.ReadFile("migrations/" + filename)
		if err != nil {
			return fmt.Errorf("failed to read migration %s: %w", filename, err)
		}
		if _, err := s.pool.Exec(ctx, string(content)); err != nil {
			return fmt.Errorf("failed to apply migration %s: %w", filename, err)
		}
		if _, err := s.pool.Exec(ctx, `INSERT INTO schema_migrations (filename) VALUES ($1)`, filename); err != nil {
			return fmt.Errorf("failed to record migration %s: %w", filename, err)
		}
	}
	return nil
}

// Employees returns all caregiver records
func (s *Store) Employees(ctx context.Context) ([]features.RawEmployee, error) {
	return query[features.RawEmployee](ctx, s, `SELECT payload FROM employees ORDER BY id`)
}

// Clients returns all client records
func (s *Store) Clients(ctx context.Context) ([]features.RawClient, error) {
	return query[features.RawClient](ctx, s, `SELECT payload FROM clients ORDER BY id`)
}

// Distances returns the commute distance table
func (s *Store) Distances(ctx context.Context) ([]features.RawDistance, error) {
	return query[features.RawDistance](ctx, s, `SELECT payload FROM distances ORDER BY id`)
}

// Substitutions returns all substitution events
func (s *Store) Substitutions(ctx context.Context) ([]features.RawSubstitution, error) {
	return query[features.RawSubstitution](ctx, s, `SELECT payload FROM substitutions ORDER BY id`)
}

// ExperienceLog returns the historical session log
func (s *Store) ExperienceLog(ctx context.Context) ([]features.RawExperience, error) {
	return query[features.RawExperience](ctx, s, `SELECT payload FROM experience_log ORDER BY employee_id`)
}

func query[T any](ctx context.Context, s *Store, sql string) ([]T, error) {
	rows, err := s.pool.Query(ctx, sql)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	var records []T
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("failed to scan payload: %w", err)
		}
		var record T
		if err := json.Unmarshal(payload, &record); err != nil {
			return nil, fmt.Errorf("failed to decode payload: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration failed: %w", err)
	}
	return records, nil
}
