package diff

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/careops/substitute-planner/pkg/core/model"
)

type mockRecommender struct {
	solutions map[string]*model.Solution
	errs      map[string]error
	calls     int
}

func (m *mockRecommender) Recommend(_ context.Context, scenario model.Scenario) (*model.Solution, error) {
	m.calls++
	key := scenario.Key()
	if err, ok := m.errs[key]; ok {
		return nil, err
	}
	sol, ok := m.solutions[key]
	if !ok {
		return nil, errors.New("unexpected scenario")
	}
	return sol, nil
}

func solutionOf(pairs ...model.Assignment) *model.Solution {
	objective := int64(0)
	return &model.Solution{AssignedPairs: pairs, ObjectiveValue: &objective}
}

func pair(employeeID, clientID string) model.Assignment {
	return model.Assignment{EmployeeID: employeeID, ClientID: clientID}
}

func TestCalculate_SymmetricDifference(t *testing.T) {
	req := Request{AddEmployee: "E9", AddClient: "C9"}
	oldScenario := req.Scenario
	newScenario := req.Scenario.WithUnavailable("E9", "C9")

	recommender := &mockRecommender{solutions: map[string]*model.Solution{
		oldScenario.Key(): solutionOf(pair("E1", "C1"), pair("E2", "C2")),
		newScenario.Key(): solutionOf(pair("E1", "C1"), pair("E3", "C2")),
	}}

	result, err := NewEngine(recommender, zap.NewNop()).Calculate(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 2, recommender.calls)

	assert.Equal(t, []model.Assignment{pair("E3", "C2")}, result.Added)
	assert.Equal(t, []model.Assignment{pair("E2", "C2")}, result.Removed)
	assert.Equal(t, model.DiffCounts{Old: 2, New: 2, Added: 1, Removed: 1}, result.Counts)
}

func TestCalculate_DropsOverriddenBaselineAssignment(t *testing.T) {
	// E9 held C3 in the baseline. Marking E9 unavailable expresses a manual
	// override of that pair, so its disappearance is not a removal.
	req := Request{AddEmployee: "E9", AddClient: "C9"}
	oldScenario := req.Scenario
	newScenario := req.Scenario.WithUnavailable("E9", "C9")

	recommender := &mockRecommender{solutions: map[string]*model.Solution{
		oldScenario.Key(): solutionOf(pair("E1", "C1"), pair("E9", "C3")),
		newScenario.Key(): solutionOf(pair("E1", "C1"), pair("E2", "C3")),
	}}

	result, err := NewEngine(recommender, zap.NewNop()).Calculate(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, []model.Assignment{pair("E2", "C3")}, result.Added)
	assert.Empty(t, result.Removed)
	assert.Equal(t, 1, result.Counts.Old)
}

func TestCalculate_BaselineErrorPropagates(t *testing.T) {
	req := Request{AddEmployee: "E9", AddClient: "C9"}
	newScenario := req.Scenario.WithUnavailable("E9", "C9")

	recommender := &mockRecommender{
		solutions: map[string]*model.Solution{newScenario.Key(): solutionOf()},
		errs:      map[string]error{req.Scenario.Key(): errors.New("source down")},
	}

	_, err := NewEngine(recommender, zap.NewNop()).Calculate(context.Background(), req)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "baseline scenario failed")
}

func TestCalculate_InfeasibleSideFails(t *testing.T) {
	req := Request{AddEmployee: "E9", AddClient: "C9"}
	oldScenario := req.Scenario
	newScenario := req.Scenario.WithUnavailable("E9", "C9")

	recommender := &mockRecommender{solutions: map[string]*model.Solution{
		oldScenario.Key(): solutionOf(pair("E1", "C1")),
		newScenario.Key(): {}, // nil objective, no usable plan
	}}

	_, err := NewEngine(recommender, zap.NewNop()).Calculate(context.Background(), req)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no usable plan")
}

func TestCompare_IdenticalSolutionsAreEmptyDiff(t *testing.T) {
	pairs := []model.Assignment{pair("E1", "C1"), pair("E2", "C2")}

	result := Compare(pairs, pairs)

	assert.Empty(t, result.Added)
	assert.Empty(t, result.Removed)
	assert.Equal(t, model.DiffCounts{Old: 2, New: 2}, result.Counts)
}

func TestCompare_SidesSwapUnderReversal(t *testing.T) {
	oldPairs := []model.Assignment{pair("E1", "C1"), pair("E2", "C2")}
	newPairs := []model.Assignment{pair("E1", "C1"), pair("E3", "C2")}

	forward := Compare(oldPairs, newPairs)
	backward := Compare(newPairs, oldPairs)

	assert.Equal(t, forward.Added, backward.Removed)
	assert.Equal(t, forward.Removed, backward.Added)
}

func TestCompare_ChangedFeatureSamePairIsNoDiff(t *testing.T) {
	// Pair identity is the employee and client ids, not the feature snapshot.
	oldPairs := []model.Assignment{{EmployeeID: "E1", ClientID: "C1", TravelMinutes: 10}}
	newPairs := []model.Assignment{{EmployeeID: "E1", ClientID: "C1", TravelMinutes: 25}}

	result := Compare(oldPairs, newPairs)

	assert.Empty(t, result.Added)
	assert.Empty(t, result.Removed)
}
