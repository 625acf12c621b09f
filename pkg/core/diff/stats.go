package diff

import (
	"gonum.org/v1/gonum/stat"

	"github.com/careops/substitute-planner/pkg/core/model"
)

// computeStats builds the per-feature comparison between the added and
// removed assignment sets. Each feature gets the statistic shape that fits
// its semantics rather than a uniform mean/min/max.
func computeStats(added, removed []model.Assignment) model.DiffStats {
	return model.DiffStats{
		TravelMinutes:       travelDiff(added, removed),
		Priority:            model.PriorityDiff{Added: priorityBuckets(added), Removed: priorityBuckets(removed)},
		FullDayAvailability: model.AvailabilityDiff{Added: flagCounts(added), Removed: flagCounts(removed)},
		ClientExperience: model.ExperienceDiff{
			Added:   experienceStats(added, clientDays),
			Removed: experienceStats(removed, clientDays),
		},
		SchoolExperience: model.ExperienceDiff{
			Added:   experienceStats(added, schoolDays),
			Removed: experienceStats(removed, schoolDays),
		},
		AvailabilityGap: model.GapDiff{Added: gapStats(added), Removed: gapStats(removed)},
	}
}

func travelDiff(added, removed []model.Assignment) model.TravelDiff {
	addedStats := numericStats(travelValues(added))
	removedStats := numericStats(travelValues(removed))

	d := model.TravelDiff{Added: addedStats, Removed: removedStats}
	if addedStats.Count > 0 && removedStats.Count > 0 {
		change := addedStats.Mean - removedStats.Mean
		d.MeanChange = &change
	}
	return d
}

func travelValues(assignments []model.Assignment) []float64 {
	values := make([]float64, len(assignments))
	for i, a := range assignments {
		values[i] = float64(a.TravelMinutes)
	}
	return values
}

func numericStats(values []float64) model.NumericStats {
	if len(values) == 0 {
		return model.NumericStats{}
	}
	s := model.NumericStats{
		Count: len(values),
		Mean:  stat.Mean(values, nil),
		Min:   values[0],
		Max:   values[0],
	}
	for _, v := range values[1:] {
		if v < s.Min {
			s.Min = v
		}
		if v > s.Max {
			s.Max = v
		}
	}
	return s
}

func priorityBuckets(assignments []model.Assignment) model.PriorityBuckets {
	var b model.PriorityBuckets
	for _, a := range assignments {
		switch a.Priority {
		case model.PriorityHigh:
			b.High++
		case model.PriorityMedium:
			b.Medium++
		default:
			b.Low++
		}
	}
	return b
}

func flagCounts(assignments []model.Assignment) model.FlagCounts {
	var c model.FlagCounts
	for _, a := range assignments {
		if a.FullDayAvailability {
			c.True++
		} else {
			c.False++
		}
	}
	return c
}

func clientDays(a model.Assignment) int { return a.ClientExperience }
func schoolDays(a model.Assignment) int { return a.SchoolExperience }

func experienceStats(assignments []model.Assignment, days func(model.Assignment) int) model.ExperienceStats {
	var s model.ExperienceStats
	var withExp []float64
	for _, a := range assignments {
		if d := days(a); d > 0 {
			s.WithExperience++
			withExp = append(withExp, float64(d))
		} else {
			s.WithoutExperience++
		}
	}
	if len(withExp) > 0 {
		s.MeanDays = stat.Mean(withExp, nil)
	}
	return s
}

// gapStats counts full vs partial remaining overlap. A negative gap means
// the employee leaves before the client's need ends; its mean is reported
// over the negative subset only. Pairs with an unknown gap count as full
// overlap, matching their zero contribution in the objective.
func gapStats(assignments []model.Assignment) model.GapStats {
	var s model.GapStats
	var shortfalls []float64
	for _, a := range assignments {
		if a.AvailabilityGap != nil && *a.AvailabilityGap < 0 {
			s.PartialOverlap++
			shortfalls = append(shortfalls, float64(*a.AvailabilityGap))
		} else {
			s.FullOverlap++
		}
	}
	if len(shortfalls) > 0 {
		s.MeanShortfallDays = stat.Mean(shortfalls, nil)
	}
	return s
}
