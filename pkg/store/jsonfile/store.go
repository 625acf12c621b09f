// Package jsonfile reads the four record collections and the experience log
// from JSON exports in a data directory, one file per collection. This is
// the source used for local runs against snapshot data.
package jsonfile

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/careops/substitute-planner/pkg/core/features"
)

// Collection file names inside the data directory
const (
	employeesFile     = "ma.json"
	clientsFile       = "klient.json"
	distancesFile     = "dist_ma_sch.json"
	substitutionsFile = "vertretungsfall_all.json"
	experienceFile    = "experience_log.json"
)

// Store is a read-only record source over a directory of JSON exports
type Store struct {
	dataDir string
}

// NewStore creates a store over the given data directory
func NewStore(dataDir string) *Store {
	return &Store{dataDir: dataDir}
}

// Employees returns all caregiver records
func (s *Store) Employees(ctx context.Context) ([]features.RawEmployee, error) {
	var records []features.RawEmployee
	if err := s.read(employeesFile, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// Clients returns all client records
func (s *Store) Clients(ctx context.Context) ([]features.RawClient, error) {
	var records []features.RawClient
	if err := s.read(clientsFile, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// Distances returns the commute distance table
func (s *Store) Distances(ctx context.Context) ([]features.RawDistance, error) {
	var records []features.RawDistance
	if err := s.read(distancesFile, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// Substitutions returns all substitution events
func (s *Store) Substitutions(ctx context.Context) ([]features.RawSubstitution, error) {
	var records []features.RawSubstitution
	if err := s.read(substitutionsFile, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// ExperienceLog returns the historical session log
func (s *Store) ExperienceLog(ctx context.Context) ([]features.RawExperience, error) {
	var records []features.RawExperience
	if err := s.read(experienceFile, &records); err != nil {
		return nil, err
	}
	return records, nil
}

func (s *Store) read(name string, v any) error {
	path := filepath.Join(s.dataDir, name)
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}
