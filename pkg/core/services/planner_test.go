package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/careops/substitute-planner/pkg/core/features"
	"github.com/careops/substitute-planner/pkg/core/model"
	"github.com/careops/substitute-planner/pkg/core/optimizer"
)

var testDate = time.Date(2026, 9, 4, 0, 0, 0, 0, time.UTC) // a Friday

type mockSource struct {
	employees     []features.RawEmployee
	clients       []features.RawClient
	distances     []features.RawDistance
	substitutions []features.RawSubstitution
	experience    []features.RawExperience
	err           error
	calls         int
}

func (m *mockSource) Employees(context.Context) ([]features.RawEmployee, error) {
	m.calls++
	return m.employees, m.err
}

func (m *mockSource) Clients(context.Context) ([]features.RawClient, error) {
	return m.clients, nil
}

func (m *mockSource) Distances(context.Context) ([]features.RawDistance, error) {
	return m.distances, nil
}

func (m *mockSource) Substitutions(context.Context) ([]features.RawSubstitution, error) {
	return m.substitutions, nil
}

func (m *mockSource) ExperienceLog(context.Context) ([]features.RawExperience, error) {
	return m.experience, nil
}

type mockCache struct {
	entries map[string][]byte
	putErr  error
	puts    int
}

func newMockCache() *mockCache {
	return &mockCache{entries: make(map[string][]byte)}
}

func (m *mockCache) Get(key string, v any) (bool, error) {
	data, ok := m.entries[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(data, v)
}

func (m *mockCache) Put(key string, v any) error {
	m.puts++
	if m.putErr != nil {
		return m.putErr
	}
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	m.entries[key] = data
	return nil
}

type mockNames struct{ prefix string }

func (m *mockNames) EnsureNames(ids []string) (map[string]string, error) {
	result := make(map[string]string, len(ids))
	for _, id := range ids {
		result[id] = m.prefix + " " + id
	}
	return result, nil
}

func ref(id string) *features.Ref { return &features.Ref{ID: id} }

func strPtr(s string) *string { return &s }

func floatPtr(f float64) *float64 { return &f }

// testSource builds a feasible single-day dataset: every listed employee can
// reach school S1, every listed client attends S1 on Fridays, and one open
// substitution record frees each employee and flags each client.
func testSource(employeeIDs, clientIDs []string) *mockSource {
	source := &mockSource{}
	for _, id := range employeeIDs {
		source.employees = append(source.employees, features.RawEmployee{ID: id})
		source.distances = append(source.distances, features.RawDistance{
			Employee:           features.Ref{ID: id},
			School:             features.Ref{ID: "S1"},
			StraightLineMeters: floatPtr(4000),
		})
		source.substitutions = append(source.substitutions, features.RawSubstitution{
			ID:               "V-" + id,
			Type:             "mabw",
			StartDate:        "2026-09-01",
			EndDate:          "2026-09-30",
			CoveringEmployee: ref(id),
		})
	}
	for _, id := range clientIDs {
		source.clients = append(source.clients, features.RawClient{
			ID:     id,
			School: ref("S1"),
			Timetable: map[string]*string{
				"freitagvon": strPtr("08:00:00"),
				"freitagbis": strPtr("13:00:00"),
			},
		})
		source.substitutions = append(source.substitutions, features.RawSubstitution{
			ID:            "V-" + id,
			Type:          "mabw",
			StartDate:     "2026-09-01",
			EndDate:       "2026-09-30",
			ClientToCover: ref(id),
		})
	}
	return source
}

func testPlanner(source *mockSource, cache SolutionCache) *Planner {
	return NewPlanner(
		source,
		cache,
		&mockNames{prefix: "Person"},
		&mockNames{prefix: "Schule"},
		optimizer.DefaultWeights(),
		zap.NewNop(),
	)
}

func TestRecommend_EndToEnd(t *testing.T) {
	p := testPlanner(testSource([]string{"E1"}, []string{"C1"}), nil)

	result, err := p.Recommend(context.Background(), model.Scenario{Date: testDate})
	require.NoError(t, err)

	require.True(t, result.Solution.Feasible())
	require.Len(t, result.Solution.AssignedPairs, 1)
	assert.Equal(t, "E1", result.Solution.AssignedPairs[0].EmployeeID)
	assert.Equal(t, "C1", result.Solution.AssignedPairs[0].ClientID)

	require.Len(t, result.Recommendations, 1)
	assert.Equal(t, "Person E1", result.Recommendations[0].Employee.Name)
	assert.Equal(t, "Person C1", result.Recommendations[0].Client.Name)
	assert.Equal(t, "Schule S1", result.Recommendations[0].Client.School)
}

func TestRecommend_CacheHitSkipsSource(t *testing.T) {
	scenario := model.Scenario{Date: testDate}
	cache := newMockCache()
	source := testSource([]string{"E1"}, []string{"C1"})
	p := testPlanner(source, cache)

	first, err := p.Recommend(context.Background(), scenario)
	require.NoError(t, err)
	require.Equal(t, 1, source.calls)

	second, err := p.Recommend(context.Background(), scenario)
	require.NoError(t, err)
	assert.Equal(t, 1, source.calls, "cached call must not reload records")
	assert.Equal(t, first.Solution.AssignedPairs, second.Solution.AssignedPairs)
	assert.Equal(t, first.Recommendations, second.Recommendations)
}

func TestRecommend_DistinctScenariosMissCache(t *testing.T) {
	cache := newMockCache()
	source := testSource([]string{"E1", "E2"}, []string{"C1"})
	p := testPlanner(source, cache)

	_, err := p.Recommend(context.Background(), model.Scenario{Date: testDate})
	require.NoError(t, err)
	_, err = p.Recommend(context.Background(), model.Scenario{Date: testDate, UnavailableEmployees: []string{"E1"}})
	require.NoError(t, err)

	assert.Equal(t, 2, source.calls)
	assert.Equal(t, 2, cache.puts)
}

func TestRecommend_CacheWriteFailureIsNotFatal(t *testing.T) {
	cache := newMockCache()
	cache.putErr = errors.New("disk full")
	p := testPlanner(testSource([]string{"E1"}, []string{"C1"}), cache)

	result, err := p.Recommend(context.Background(), model.Scenario{Date: testDate})
	require.NoError(t, err)
	assert.True(t, result.Solution.Feasible())
}

func TestRecommend_UnavailableEmployeeLeavesClientUncovered(t *testing.T) {
	p := testPlanner(testSource([]string{"E1"}, []string{"C1"}), nil)

	result, err := p.Recommend(context.Background(), model.Scenario{
		Date:                 testDate,
		UnavailableEmployees: []string{"E1"},
	})
	require.NoError(t, err)

	require.True(t, result.Solution.Feasible())
	assert.Empty(t, result.Solution.AssignedPairs)
	assert.Equal(t, []string{"C1"}, result.Solution.UnassignedClients)
	assert.Empty(t, result.Recommendations)
}

func TestRecommend_UnavailableClientDropsFromViews(t *testing.T) {
	p := testPlanner(testSource([]string{"E1"}, []string{"C1", "C2"}), nil)

	result, err := p.Recommend(context.Background(), model.Scenario{
		Date:               testDate,
		UnavailableClients: []string{"C2"},
	})
	require.NoError(t, err)

	require.Len(t, result.Clients, 1)
	assert.Equal(t, "C1", result.Clients[0].ID)
}

func TestRecommend_ForcedPairApplied(t *testing.T) {
	source := testSource([]string{"E1", "E2"}, []string{"C1"})
	// E1 has prior contact with C1, so the free optimum would pick E1.
	source.experience = []features.RawExperience{{
		Employee:       "E1",
		ClientSessions: map[string][]string{"C1": {"2026-08-01", "2026-08-02"}},
	}}
	p := testPlanner(source, nil)

	result, err := p.Recommend(context.Background(), model.Scenario{
		Date:           testDate,
		ForcedEmployee: "E2",
		ForcedClient:   "C1",
	})
	require.NoError(t, err)

	require.Len(t, result.Solution.AssignedPairs, 1)
	assert.Equal(t, "E2", result.Solution.AssignedPairs[0].EmployeeID)
}

func TestRecommend_SourceErrorPropagates(t *testing.T) {
	source := testSource([]string{"E1"}, []string{"C1"})
	source.err = errors.New("sheet unavailable")
	p := testPlanner(source, nil)

	_, err := p.Recommend(context.Background(), model.Scenario{Date: testDate})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load employees")
}

func TestRecommend_OnlyOpenRecordsEnterThePool(t *testing.T) {
	source := testSource([]string{"E1"}, []string{"C1"})
	// E2 exists but has no open substitution record, so it never enters.
	source.employees = append(source.employees, features.RawEmployee{ID: "E2"})
	source.distances = append(source.distances, features.RawDistance{
		Employee:           features.Ref{ID: "E2"},
		School:             features.Ref{ID: "S1"},
		StraightLineMeters: floatPtr(1000),
	})
	p := testPlanner(source, nil)

	result, err := p.Recommend(context.Background(), model.Scenario{Date: testDate})
	require.NoError(t, err)

	require.Len(t, result.Employees, 1)
	assert.Equal(t, "E1", result.Employees[0].ID)
}

func TestRecommend_ExpiredSubstitutionIgnored(t *testing.T) {
	source := testSource([]string{"E1"}, []string{"C1"})
	for i := range source.substitutions {
		if source.substitutions[i].ID == "V-E1" {
			source.substitutions[i].EndDate = "2026-09-03"
		}
	}
	p := testPlanner(source, nil)

	result, err := p.Recommend(context.Background(), model.Scenario{Date: testDate})
	require.NoError(t, err)

	assert.Empty(t, result.Employees)
	assert.Equal(t, []string{"C1"}, result.Solution.UnassignedClients)
}
