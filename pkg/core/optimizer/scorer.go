package optimizer

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/careops/substitute-planner/pkg/core/model"
)

// ScalingFactor blows the standardized per-pair contributions up to integers
// so the objective stays exactly representable inside the solver
const ScalingFactor = 1_000_000

// Weights controls the relative influence of the soft criteria. The
// unassigned weight only prices uncovered clients into the reported
// objective; coverage itself is enforced ahead of all soft criteria by the
// solver's lexicographic minimization.
type Weights struct {
	Unassigned       int64 `yaml:"unassigned" json:"unassigned"`
	TravelTime       int64 `yaml:"travelTime" json:"travel_time"`
	TimeWindow       int64 `yaml:"timeWindow" json:"time_window"`
	Priority         int64 `yaml:"priority" json:"priority"`
	ClientExperience int64 `yaml:"clientExperience" json:"client_experience"`
	SchoolExperience int64 `yaml:"schoolExperience" json:"school_experience"`
	AvailabilityGap  int64 `yaml:"availabilityGap" json:"availability_gap"`
}

// DefaultWeights returns the tuned production weights
func DefaultWeights() Weights {
	return Weights{
		Unassigned:       10,
		TravelTime:       30,
		TimeWindow:       10,
		Priority:         16,
		ClientExperience: 100,
		SchoolExperience: 100,
		AvailabilityGap:  100,
	}
}

// featureStats carries the population mean and standard deviation used for
// z-score standardization of one criterion
type featureStats struct {
	mean float64
	std  float64
}

// newFeatureStats computes population statistics. An empty population gets
// std 1, which makes every later contribution zero instead of dividing by
// zero.
func newFeatureStats(values []float64) featureStats {
	if len(values) == 0 {
		return featureStats{mean: 0, std: 1}
	}
	return featureStats{
		mean: stat.Mean(values, nil),
		std:  stat.PopStdDev(values, nil),
	}
}

// normalize z-scores a value; a degenerate population (std 0) contributes 0
func (s featureStats) normalize(value float64) float64 {
	if s.std > 0 {
		return (value - s.mean) / s.std
	}
	return 0
}

// scaled converts a standardized value into the integer objective domain
func (s featureStats) scaled(value float64) int64 {
	return int64(math.Round(s.normalize(value) * ScalingFactor))
}

// scorer holds the standardization statistics of all seven criteria for one
// optimizer run. Populations follow the upstream definitions: travel, time
// window and availability gap range over the full employee × client cross
// product, priority over clients, experience over every recorded map entry.
type scorer struct {
	weights  Weights
	travel   featureStats
	window   featureStats
	priority featureStats
	gap      featureStats
	clExp    featureStats
	schExp   featureStats
}

func newScorer(employees []model.Employee, clients []model.Client, weights Weights) *scorer {
	var travel, window, gaps []float64
	for i := range employees {
		for j := range clients {
			travel = append(travel, float64(employees[i].TimeToSchool[clients[j].School]))
			if clients[j].TimeWindow != nil {
				window = append(window, employees[i].Availability.End-clients[j].TimeWindow.End)
			}
			if days, ok := availabilityGapDays(&employees[i], &clients[j]); ok {
				gaps = append(gaps, float64(days))
			}
		}
	}

	priorities := make([]float64, len(clients))
	for j := range clients {
		priorities[j] = float64(clients[j].Priority)
	}

	var clExp, schExp []float64
	for i := range employees {
		for _, days := range employees[i].ClientExperience {
			clExp = append(clExp, float64(days))
		}
		for _, days := range employees[i].SchoolExperience {
			schExp = append(schExp, float64(days))
		}
	}

	return &scorer{
		weights:  weights,
		travel:   newFeatureStats(travel),
		window:   newFeatureStats(window),
		priority: newFeatureStats(priorities),
		gap:      newFeatureStats(gaps),
		clExp:    newFeatureStats(clExp),
		schExp:   newFeatureStats(schExp),
	}
}

// pairCost combines the six per-pair soft criteria into the integer cost of
// selecting the pair. Travel, time-window slack, priority and availability
// gap are minimized directly; the two experience terms enter negated so that
// more prior contact lowers the objective.
func (s *scorer) pairCost(e *model.Employee, c *model.Client) int64 {
	cost := s.weights.TravelTime * s.travel.scaled(float64(e.TimeToSchool[c.School]))

	if c.TimeWindow != nil {
		cost += s.weights.TimeWindow * s.window.scaled(e.Availability.End-c.TimeWindow.End)
	}

	cost += s.weights.Priority * s.priority.scaled(float64(c.Priority))

	cost -= s.weights.ClientExperience * s.clExp.scaled(float64(e.ClientExperience[c.ID]))
	cost -= s.weights.SchoolExperience * s.schExp.scaled(float64(e.SchoolExperience[c.School]))

	if days, ok := availabilityGapDays(e, c); ok {
		cost += s.weights.AvailabilityGap * s.gap.scaled(float64(days))
	}

	return cost
}

// unassignedCost is the flat penalty for leaving one client without an
// employee. It is not standardized, so it scales linearly with the number of
// unassigned clients.
func (s *scorer) unassignedCost() int64 {
	return s.weights.Unassigned * ScalingFactor
}

// availabilityGapDays returns employee remaining days minus client remaining
// days, defined only when both ends are known
func availabilityGapDays(e *model.Employee, c *model.Client) (int, bool) {
	if e.AvailableUntil == nil || c.AvailableUntil == nil {
		return 0, false
	}
	return int(e.AvailableUntil.Sub(*c.AvailableUntil).Hours() / 24), true
}
