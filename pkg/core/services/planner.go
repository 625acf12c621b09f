// Package services orchestrates the optimizer for the two user-facing
// operations: producing the daily substitute recommendation and evaluating a
// manual deviation from it. It wires record sources, the feature builder,
// the memoization cache and the anonymization layer around the core packages.
package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/careops/substitute-planner/pkg/core/features"
	"github.com/careops/substitute-planner/pkg/core/model"
	"github.com/careops/substitute-planner/pkg/core/optimizer"
)

// RecordSource delivers the raw record collections for one planning run
type RecordSource interface {
	Employees(ctx context.Context) ([]features.RawEmployee, error)
	Clients(ctx context.Context) ([]features.RawClient, error)
	Distances(ctx context.Context) ([]features.RawDistance, error)
	Substitutions(ctx context.Context) ([]features.RawSubstitution, error)
	ExperienceLog(ctx context.Context) ([]features.RawExperience, error)
}

// SolutionCache memoizes full recommendation results by scenario key
type SolutionCache interface {
	Get(key string, v any) (bool, error)
	Put(key string, v any) error
}

// NameService maps record ids to stable anonymized display names
type NameService interface {
	EnsureNames(ids []string) (map[string]string, error)
}

// Planner runs the end-to-end recommendation pipeline: record retrieval,
// feature construction, optimization and frontend shaping
type Planner struct {
	source      RecordSource
	cache       SolutionCache
	personNames NameService
	schoolNames NameService
	weights     optimizer.Weights
	logger      *zap.Logger
}

// NewPlanner wires a planner from its collaborators. cache may be nil to
// disable memoization.
func NewPlanner(
	source RecordSource,
	cache SolutionCache,
	personNames NameService,
	schoolNames NameService,
	weights optimizer.Weights,
	logger *zap.Logger,
) *Planner {
	return &Planner{
		source:      source,
		cache:       cache,
		personNames: personNames,
		schoolNames: schoolNames,
		weights:     weights,
		logger:      logger,
	}
}

// RecommendResult is the full output of one recommendation run: the raw
// solution plus the anonymized views the frontend renders
type RecommendResult struct {
	Solution        *model.Solution  `json:"assignment_info"`
	Employees       []EmployeeView   `json:"mas"`
	Clients         []ClientView     `json:"clients"`
	Recommendations []Recommendation `json:"empfehlungen"`
}

// Recommend produces the optimal substitute plan for the scenario. Results
// are memoized by scenario key; an infeasible model is a valid, cacheable
// outcome with a nil objective.
func (p *Planner) Recommend(ctx context.Context, scenario model.Scenario) (*RecommendResult, error) {
	key := scenario.Key()
	if p.cache != nil {
		var cached RecommendResult
		hit, err := p.cache.Get(key, &cached)
		if err != nil {
			return nil, fmt.Errorf("cache lookup failed: %w", err)
		}
		if hit {
			p.logger.Info("Cached result found",
				zap.Int("clients", len(cached.Clients)),
				zap.Int("mas", len(cached.Employees)))
			return &cached, nil
		}
	}

	employees, clients, err := p.buildDay(ctx, scenario)
	if err != nil {
		return nil, err
	}

	opts := []optimizer.Option{}
	if scenario.ForcedEmployee != "" && scenario.ForcedClient != "" {
		opts = append(opts, optimizer.WithForcedPair(scenario.ForcedEmployee, scenario.ForcedClient))
	}

	solution, err := optimizer.New(employees, clients, p.weights, p.logger, opts...).Run(ctx)
	if err != nil {
		return nil, fmt.Errorf("optimization failed: %w", err)
	}

	result, err := p.shapeResult(solution, employees, clients)
	if err != nil {
		return nil, err
	}

	if p.cache != nil {
		if err := p.cache.Put(key, result); err != nil {
			// A failed cache write costs a recomputation later, nothing more
			p.logger.Warn("Failed to cache result", zap.Error(err))
		}
	}
	return result, nil
}

// buildDay loads all record collections and turns them into the day's
// candidate pools, already reduced to the scenario's available entities
func (p *Planner) buildDay(ctx context.Context, scenario model.Scenario) ([]model.Employee, []model.Client, error) {
	rawEmployees, err := p.source.Employees(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load employees: %w", err)
	}
	rawClients, err := p.source.Clients(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load clients: %w", err)
	}
	distances, err := p.source.Distances(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load distances: %w", err)
	}
	substitutions, err := p.source.Substitutions(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load substitutions: %w", err)
	}
	experienceLog, err := p.source.ExperienceLog(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load experience log: %w", err)
	}

	p.logger.Info("Records loaded",
		zap.Int("clients", len(rawClients)),
		zap.Int("mas", len(rawEmployees)))

	active, err := features.ActiveOn(substitutions, scenario.Date)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to filter substitutions: %w", err)
	}
	openClientIDs, openEmployeeIDs := features.OpenRecords(active)

	builder := features.NewBuilder(distances, experienceLog, p.logger)
	employees, clients, err := builder.BuildDay(
		selectByID(rawEmployees, func(r features.RawEmployee) string { return r.ID }, openEmployeeIDs),
		selectByID(rawClients, func(r features.RawClient) string { return r.ID }, openClientIDs),
		active,
		scenario.Date,
	)
	if err != nil {
		return nil, nil, fmt.Errorf("feature construction failed: %w", err)
	}

	employees = dropByID(employees, func(e model.Employee) string { return e.ID }, scenario.UnavailableEmployees)
	clients = dropByID(clients, func(c model.Client) string { return c.ID }, scenario.UnavailableClients)

	p.logger.Info("After filtering",
		zap.Int("mas", len(employees)),
		zap.Int("clients", len(clients)))
	return employees, clients, nil
}

// selectByID keeps the records whose id is in ids, preserving source order
func selectByID[T any](records []T, id func(T) string, ids []string) []T {
	wanted := make(map[string]bool, len(ids))
	for _, v := range ids {
		wanted[v] = true
	}
	selected := make([]T, 0, len(ids))
	for _, r := range records {
		if wanted[id(r)] {
			selected = append(selected, r)
		}
	}
	return selected
}

// dropByID removes the records whose id is in ids, preserving order
func dropByID[T any](records []T, id func(T) string, ids []string) []T {
	if len(ids) == 0 {
		return records
	}
	excluded := make(map[string]bool, len(ids))
	for _, v := range ids {
		excluded[v] = true
	}
	kept := make([]T, 0, len(records))
	for _, r := range records {
		if !excluded[id(r)] {
			kept = append(kept, r)
		}
	}
	return kept
}
