// Package optimizer builds and solves the daily assignment model: it filters
// (employee, client) pairs down to the eligible ones, scores each eligible
// pair on seven weighted standardized criteria, hands the resulting model to
// the exact solver and extracts a Solution with per-pair feature snapshots.
package optimizer

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/stat"

	"github.com/careops/substitute-planner/pkg/core/model"
	"github.com/careops/substitute-planner/pkg/core/solver"
)

// Option customizes one optimizer run
type Option func(*Optimizer)

// WithForcedPair forces the given pair into the solution, provided it is
// eligible. It evaluates "what if this employee covered this client".
func WithForcedPair(employeeID, clientID string) Option {
	return func(o *Optimizer) {
		o.forcedEmployee = employeeID
		o.forcedClient = clientID
	}
}

// Optimizer runs one exact assignment optimization over fixed feature
// collections. It only reads the collections; it never mutates them.
type Optimizer struct {
	employees []model.Employee
	clients   []model.Client
	weights   Weights
	logger    *zap.Logger

	forcedEmployee string
	forcedClient   string
}

// New creates an optimizer over the day's feature collections
func New(employees []model.Employee, clients []model.Client, weights Weights, logger *zap.Logger, opts ...Option) *Optimizer {
	o := &Optimizer{
		employees: employees,
		clients:   clients,
		weights:   weights,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Run builds the model, solves it and extracts the Solution. An infeasible
// model yields a Solution with a nil objective, not an error; an empty
// candidate pool short-circuits before the solver is invoked.
func (o *Optimizer) Run(ctx context.Context) (*model.Solution, error) {
	if len(o.employees) == 0 || len(o.clients) == 0 {
		o.logger.Info("Empty candidate pool, skipping solver",
			zap.Int("employees", len(o.employees)),
			zap.Int("clients", len(o.clients)))
		return o.emptySolution(), nil
	}

	sc := newScorer(o.employees, o.clients, o.weights)

	m := solver.NewModel(len(o.employees), len(o.clients))
	pairs := make(map[int]pairRef)

	// Variable creation order is employee-then-client and therefore
	// deterministic, which pins down the solver's tie-breaking.
	forcedVar := -1
	for i := range o.employees {
		for j := range o.clients {
			if !o.clients[j].EligibleFor(&o.employees[i]) {
				continue
			}
			varIdx := m.AddPair(i, j, sc.pairCost(&o.employees[i], &o.clients[j]))
			pairs[varIdx] = pairRef{employee: i, client: j}
			if o.employees[i].ID == o.forcedEmployee && o.clients[j].ID == o.forcedClient {
				forcedVar = varIdx
			}
		}
	}
	for j := range o.clients {
		m.SetUnassignedCost(j, sc.unassignedCost())
	}

	if o.forcedEmployee != "" && o.forcedClient != "" {
		if forcedVar == -1 {
			o.logger.Warn("Forced pair is not eligible, ignoring",
				zap.String("employee_id", o.forcedEmployee),
				zap.String("client_id", o.forcedClient))
		} else if err := m.Require(forcedVar); err != nil {
			return nil, fmt.Errorf("failed to force pair: %w", err)
		}
	}

	o.logger.Debug("Assignment model built",
		zap.Int("employees", len(o.employees)),
		zap.Int("clients", len(o.clients)),
		zap.Int("eligible_pairs", m.NumVars()))

	result, found, err := m.Solve(ctx)
	if err != nil {
		return nil, fmt.Errorf("solver aborted: %w", err)
	}
	if !found {
		o.logger.Info("No feasible solution found")
		return &model.Solution{}, nil
	}

	solution := o.extract(result, pairs)
	o.logger.Info("Optimal solution found",
		zap.Int64("objective", *solution.ObjectiveValue),
		zap.Int("assigned", len(solution.AssignedPairs)),
		zap.Int("unassigned_clients", len(solution.UnassignedClients)))
	return solution, nil
}

// emptySolution is the short-circuit result when no candidate pool exists:
// everything supplied is unassigned and the objective carries only the
// unassignment penalty, zero in the zero-client case.
func (o *Optimizer) emptySolution() *model.Solution {
	objective := int64(len(o.clients)) * o.weights.Unassigned * ScalingFactor
	s := &model.Solution{
		AssignedPairs:       []model.Assignment{},
		UnassignedEmployees: make([]string, 0, len(o.employees)),
		UnassignedClients:   make([]string, 0, len(o.clients)),
		ObjectiveValue:      &objective,
	}
	for i := range o.employees {
		s.UnassignedEmployees = append(s.UnassignedEmployees, o.employees[i].ID)
	}
	for j := range o.clients {
		s.UnassignedClients = append(s.UnassignedClients, o.clients[j].ID)
	}
	return s
}

// pairRef ties a solver variable index back to the entity indices it covers
type pairRef struct {
	employee int
	client   int
}

func (o *Optimizer) extract(result *solver.Result, pairs map[int]pairRef) *model.Solution {
	assignedEmployees := make(map[string]bool)
	assignedClients := make(map[string]bool)

	assignments := make([]model.Assignment, 0, len(result.Selected))
	for _, varIdx := range result.Selected {
		ref := pairs[varIdx]
		a := newAssignment(&o.employees[ref.employee], &o.clients[ref.client])
		assignments = append(assignments, a)
		assignedEmployees[a.EmployeeID] = true
		assignedClients[a.ClientID] = true
	}

	solution := &model.Solution{
		AssignedPairs:       assignments,
		UnassignedEmployees: make([]string, 0),
		UnassignedClients:   make([]string, 0),
		ObjectiveValue:      &result.Objective,
	}
	for i := range o.employees {
		if !assignedEmployees[o.employees[i].ID] {
			solution.UnassignedEmployees = append(solution.UnassignedEmployees, o.employees[i].ID)
		}
	}
	for j := range o.clients {
		if !assignedClients[o.clients[j].ID] {
			solution.UnassignedClients = append(solution.UnassignedClients, o.clients[j].ID)
		}
	}

	solution.Context = contextStats(assignments)
	return solution
}

// newAssignment snapshots the feature values of a selected pair, including
// the redundant qualification re-check used by downstream reporting
func newAssignment(e *model.Employee, c *model.Client) model.Assignment {
	a := model.Assignment{
		EmployeeID:          e.ID,
		ClientID:            c.ID,
		TravelMinutes:       e.TimeToSchool[c.School],
		ClientExperience:    e.ClientExperience[c.ID],
		SchoolExperience:    e.SchoolExperience[c.School],
		Priority:            c.Priority,
		FullDayAvailability: e.Availability == model.FullDay,
		QualificationsMet:   e.HasQualifications(c.NeededQualifications),
	}
	if days, ok := availabilityGapDays(e, c); ok {
		gap := days
		a.AvailabilityGap = &gap
	}
	return a
}

// contextStats aggregates the numeric feature means over all assigned pairs;
// nil when nothing was assigned
func contextStats(assignments []model.Assignment) *model.ContextStats {
	if len(assignments) == 0 {
		return nil
	}

	travel := make([]float64, len(assignments))
	clExp := make([]float64, len(assignments))
	schExp := make([]float64, len(assignments))
	priority := make([]float64, len(assignments))
	var gaps []float64
	for i, a := range assignments {
		travel[i] = float64(a.TravelMinutes)
		clExp[i] = float64(a.ClientExperience)
		schExp[i] = float64(a.SchoolExperience)
		priority[i] = float64(a.Priority)
		if a.AvailabilityGap != nil {
			gaps = append(gaps, float64(*a.AvailabilityGap))
		}
	}

	stats := &model.ContextStats{
		TravelMinutes:    stat.Mean(travel, nil),
		ClientExperience: stat.Mean(clExp, nil),
		SchoolExperience: stat.Mean(schExp, nil),
		Priority:         stat.Mean(priority, nil),
	}
	if len(gaps) > 0 {
		stats.AvailabilityGap = stat.Mean(gaps, nil)
	}
	return stats
}
