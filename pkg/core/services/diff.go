package services

import (
	"context"
	"fmt"

	"github.com/careops/substitute-planner/pkg/core/diff"
	"github.com/careops/substitute-planner/pkg/core/model"
)

// Summarizer turns a structured diff into a short narrative judgment for the
// reviewer. Implementations live outside this module; a nil summarizer skips
// the narrative.
type Summarizer interface {
	Summarize(ctx context.Context, result *model.DiffResult) (string, error)
}

// DiffRequest describes one deviation evaluation: the baseline scenario plus
// the employee and client to additionally take out of the pool
type DiffRequest struct {
	Scenario    model.Scenario
	AddEmployee string
	AddClient   string
}

// Judgment is the reviewer-facing outcome of a diff evaluation: the
// structured result plus rendered tables and the optional narrative
type Judgment struct {
	Result       *model.DiffResult `json:"result"`
	AddedTable   string            `json:"added_table"`
	RemovedTable string            `json:"removed_table"`
	Summary      string            `json:"summary,omitempty"`
}

// recommenderFunc adapts a closure to the diff engine's Recommender
type recommenderFunc func(ctx context.Context, scenario model.Scenario) (*model.Solution, error)

func (f recommenderFunc) Recommend(ctx context.Context, scenario model.Scenario) (*model.Solution, error) {
	return f(ctx, scenario)
}

// CalculateDiff evaluates how the plan changes when one more employee and
// client become unavailable. maxTravelMinutes controls the travel indicator
// in the rendered tables; summarizer may be nil.
func (p *Planner) CalculateDiff(ctx context.Context, req DiffRequest, maxTravelMinutes int, summarizer Summarizer) (*Judgment, error) {
	engine := diff.NewEngine(recommenderFunc(func(ctx context.Context, scenario model.Scenario) (*model.Solution, error) {
		result, err := p.Recommend(ctx, scenario)
		if err != nil {
			return nil, err
		}
		return result.Solution, nil
	}), p.logger)

	result, err := engine.Calculate(ctx, diff.Request{
		Scenario:    req.Scenario,
		AddEmployee: req.AddEmployee,
		AddClient:   req.AddClient,
	})
	if err != nil {
		return nil, err
	}

	names, err := p.diffNames(result)
	if err != nil {
		return nil, err
	}

	judgment := &Judgment{
		Result:       result,
		AddedTable:   diff.RenderTable(result.Added, names, maxTravelMinutes),
		RemovedTable: diff.RenderTable(result.Removed, names, maxTravelMinutes),
	}

	if summarizer != nil {
		summary, err := summarizer.Summarize(ctx, result)
		if err != nil {
			return nil, fmt.Errorf("failed to summarize diff: %w", err)
		}
		judgment.Summary = summary
	}
	return judgment, nil
}

// diffNames resolves display names for every entity appearing in the diff.
// Unknown ids render as themselves.
func (p *Planner) diffNames(result *model.DiffResult) (diff.NameLookup, error) {
	ids := make([]string, 0, 2*(len(result.Added)+len(result.Removed)))
	for _, a := range result.Added {
		ids = append(ids, a.EmployeeID, a.ClientID)
	}
	for _, a := range result.Removed {
		ids = append(ids, a.EmployeeID, a.ClientID)
	}

	mappings, err := p.personNames.EnsureNames(ids)
	if err != nil {
		return nil, fmt.Errorf("failed to ensure names: %w", err)
	}
	return func(id string) string {
		if name, ok := mappings[id]; ok {
			return name
		}
		return id
	}, nil
}
