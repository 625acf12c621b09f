// Package diff compares the optimal solutions of two scenarios: the baseline
// and the same scenario with one additional unavailable employee and client.
// The added/removed assignment sets and their per-feature statistics support
// a human reviewer deciding whether to accept a deviation from the
// recommended plan.
package diff

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/careops/substitute-planner/pkg/core/model"
)

// Recommender produces the optimal solution for one scenario. The engine
// borrows the returned solutions and never mutates them.
type Recommender interface {
	Recommend(ctx context.Context, scenario model.Scenario) (*model.Solution, error)
}

// Request describes one diff evaluation: the baseline unavailability lists
// plus the employee and client to additionally mark unavailable
type Request struct {
	Scenario    model.Scenario
	AddEmployee string
	AddClient   string
}

// Engine wraps two optimizer runs and produces a structured comparison
type Engine struct {
	recommender Recommender
	logger      *zap.Logger
}

// NewEngine creates a diff engine on top of a recommender
func NewEngine(recommender Recommender, logger *zap.Logger) *Engine {
	return &Engine{recommender: recommender, logger: logger}
}

// Calculate runs the baseline and the perturbed scenario and diffs their
// solutions. The two runs share only read-only inputs, so they execute
// concurrently.
func (e *Engine) Calculate(ctx context.Context, req Request) (*model.DiffResult, error) {
	oldScenario := req.Scenario
	newScenario := req.Scenario.WithUnavailable(req.AddEmployee, req.AddClient)

	var (
		wg     sync.WaitGroup
		oldSol *model.Solution
		newSol *model.Solution
		oldErr error
		newErr error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		oldSol, oldErr = e.recommender.Recommend(ctx, oldScenario)
	}()
	go func() {
		defer wg.Done()
		newSol, newErr = e.recommender.Recommend(ctx, newScenario)
	}()
	wg.Wait()

	if oldErr != nil {
		return nil, fmt.Errorf("baseline scenario failed: %w", oldErr)
	}
	if newErr != nil {
		return nil, fmt.Errorf("perturbed scenario failed: %w", newErr)
	}
	if !oldSol.Feasible() || !newSol.Feasible() {
		return nil, fmt.Errorf("cannot diff: at least one scenario has no usable plan")
	}

	// An assignment the added employee held in the baseline is being
	// manually overridden, so it is dropped before comparing rather than
	// reported as a removal.
	oldPairs := oldSol.AssignedPairs
	if overridden, ok := oldSol.AssignmentFor(req.AddEmployee); ok {
		e.logger.Debug("Dropping overridden assignment from baseline",
			zap.String("employee_id", overridden.EmployeeID),
			zap.String("client_id", overridden.ClientID))
		filtered := make([]model.Assignment, 0, len(oldPairs)-1)
		for _, a := range oldPairs {
			if a.Key() != overridden.Key() {
				filtered = append(filtered, a)
			}
		}
		oldPairs = filtered
	}

	return Compare(oldPairs, newSol.AssignedPairs), nil
}

// Compare computes the symmetric difference of two assignment sets by pair
// identity and the per-feature statistics over the added and removed sides
func Compare(oldPairs, newPairs []model.Assignment) *model.DiffResult {
	oldByKey := make(map[model.PairKey]model.Assignment, len(oldPairs))
	for _, a := range oldPairs {
		oldByKey[a.Key()] = a
	}
	newByKey := make(map[model.PairKey]model.Assignment, len(newPairs))
	for _, a := range newPairs {
		newByKey[a.Key()] = a
	}

	var removed []model.Assignment
	for _, a := range oldPairs {
		if _, ok := newByKey[a.Key()]; !ok {
			removed = append(removed, a)
		}
	}
	var added []model.Assignment
	for _, a := range newPairs {
		if _, ok := oldByKey[a.Key()]; !ok {
			added = append(added, a)
		}
	}

	return &model.DiffResult{
		Added:   added,
		Removed: removed,
		Counts: model.DiffCounts{
			Old:     len(oldPairs),
			New:     len(newPairs),
			Added:   len(added),
			Removed: len(removed),
		},
		Stats: computeStats(added, removed),
	}
}
