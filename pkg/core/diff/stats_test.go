package diff

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/careops/substitute-planner/pkg/core/model"
)

func intPtr(i int) *int { return &i }

func TestComputeStats_TravelMeanChange(t *testing.T) {
	added := []model.Assignment{
		{EmployeeID: "E1", ClientID: "C1", TravelMinutes: 10},
		{EmployeeID: "E2", ClientID: "C2", TravelMinutes: 30},
	}
	removed := []model.Assignment{
		{EmployeeID: "E3", ClientID: "C1", TravelMinutes: 5},
	}

	stats := computeStats(added, removed)

	assert.Equal(t, model.NumericStats{Count: 2, Mean: 20, Min: 10, Max: 30}, stats.TravelMinutes.Added)
	assert.Equal(t, model.NumericStats{Count: 1, Mean: 5, Min: 5, Max: 5}, stats.TravelMinutes.Removed)
	require.NotNil(t, stats.TravelMinutes.MeanChange)
	assert.InDelta(t, 15, *stats.TravelMinutes.MeanChange, 1e-9)
}

func TestComputeStats_MeanChangeNilWhenSideEmpty(t *testing.T) {
	added := []model.Assignment{{EmployeeID: "E1", ClientID: "C1", TravelMinutes: 10}}

	stats := computeStats(added, nil)

	assert.Nil(t, stats.TravelMinutes.MeanChange)
	assert.Equal(t, model.NumericStats{}, stats.TravelMinutes.Removed)
}

func TestComputeStats_PriorityBuckets(t *testing.T) {
	added := []model.Assignment{
		{Priority: model.PriorityHigh},
		{Priority: model.PriorityHigh},
		{Priority: model.PriorityMedium},
		{Priority: model.PriorityLow},
	}

	stats := computeStats(added, nil)

	assert.Equal(t, model.PriorityBuckets{High: 2, Medium: 1, Low: 1}, stats.Priority.Added)
	assert.Equal(t, model.PriorityBuckets{}, stats.Priority.Removed)
}

func TestComputeStats_FullDayCounts(t *testing.T) {
	added := []model.Assignment{
		{FullDayAvailability: true},
		{FullDayAvailability: false},
		{FullDayAvailability: true},
	}

	stats := computeStats(added, nil)

	assert.Equal(t, model.FlagCounts{True: 2, False: 1}, stats.FullDayAvailability.Added)
}

func TestComputeStats_ExperienceSplitsByPriorContact(t *testing.T) {
	added := []model.Assignment{
		{ClientExperience: 4, SchoolExperience: 0},
		{ClientExperience: 8, SchoolExperience: 2},
		{ClientExperience: 0, SchoolExperience: 0},
	}

	stats := computeStats(added, nil)

	assert.Equal(t, 2, stats.ClientExperience.Added.WithExperience)
	assert.Equal(t, 1, stats.ClientExperience.Added.WithoutExperience)
	assert.InDelta(t, 6, stats.ClientExperience.Added.MeanDays, 1e-9)

	assert.Equal(t, 1, stats.SchoolExperience.Added.WithExperience)
	assert.Equal(t, 2, stats.SchoolExperience.Added.WithoutExperience)
	assert.InDelta(t, 2, stats.SchoolExperience.Added.MeanDays, 1e-9)
}

func TestComputeStats_GapShortfallOverNegativeSubset(t *testing.T) {
	added := []model.Assignment{
		{AvailabilityGap: intPtr(12)},
		{AvailabilityGap: intPtr(-3)},
		{AvailabilityGap: intPtr(-7)},
		{AvailabilityGap: nil}, // open-ended counts as full overlap
	}

	stats := computeStats(added, nil)

	assert.Equal(t, 2, stats.AvailabilityGap.Added.FullOverlap)
	assert.Equal(t, 2, stats.AvailabilityGap.Added.PartialOverlap)
	assert.InDelta(t, -5, stats.AvailabilityGap.Added.MeanShortfallDays, 1e-9)
}

func TestComputeStats_EmptySides(t *testing.T) {
	stats := computeStats(nil, nil)

	assert.Equal(t, model.NumericStats{}, stats.TravelMinutes.Added)
	assert.Zero(t, stats.ClientExperience.Added.MeanDays)
	assert.Zero(t, stats.AvailabilityGap.Added.MeanShortfallDays)
}
