package model

import "time"

// Qualification is a care-related skill an employee can hold and a client can require
type Qualification string

const (
	QualificationDiabetes Qualification = "diabetes"
	QualificationNursing  Qualification = "pflege"
)

// Priority ranks how urgently a client needs a substitute
type Priority int

const (
	PriorityHigh   Priority = 1
	PriorityMedium Priority = 2
	PriorityLow    Priority = 3
)

// Display returns the German display label used in frontend views
func (p Priority) Display() string {
	switch p {
	case PriorityHigh:
		return "hoch"
	case PriorityMedium:
		return "mittel"
	default:
		return "niedrig"
	}
}

// TimeInterval is a same-day window expressed in fractional hours (e.g. 8.5 = 08:30)
type TimeInterval struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// FullDay is the default availability window for employees without a time restriction
var FullDay = TimeInterval{Start: 0, End: 23 + 59.0/60}

// Employee holds the per-day feature set of one caregiver ("MA").
// Rebuilt from raw records for every optimizer run, never persisted.
type Employee struct {
	ID             string          `json:"id"`
	Qualifications []Qualification `json:"qualifications"`
	Availability   TimeInterval    `json:"availability"`
	// TimeToSchool maps school id to commute minutes. Schools beyond the
	// distance cutoff are absent, so an empty map means the employee cannot
	// be a candidate for any client.
	TimeToSchool     map[string]int `json:"timeToSchool"`
	ClientExperience map[string]int `json:"cl_experience"`
	SchoolExperience map[string]int `json:"school_experience"`
	AvailableUntil   *time.Time     `json:"available_until,omitempty"`
}

// HasQualifications reports whether the employee covers every needed qualification
func (e *Employee) HasQualifications(needed []Qualification) bool {
	for _, q := range needed {
		found := false
		for _, have := range e.Qualifications {
			if have == q {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// CanReach reports whether the school is within the employee's commute cutoff
func (e *Employee) CanReach(schoolID string) bool {
	_, ok := e.TimeToSchool[schoolID]
	return ok
}

// Client holds the per-day feature set of one person needing a substitute caregiver
type Client struct {
	ID                   string          `json:"id"`
	NeededQualifications []Qualification `json:"neededQualifications"`
	// TimeWindow is nil when the client has no scheduled session on the
	// planning weekday. Such clients stay assignable; pairs with them just
	// skip the time-window criterion.
	TimeWindow     *TimeInterval `json:"timeWindow,omitempty"`
	Priority       Priority      `json:"priority"`
	School         string        `json:"school,omitempty"`
	AvailableUntil *time.Time    `json:"available_until,omitempty"`
}

// EligibleFor reports whether the employee may be assigned to the client:
// the client's school must be reachable and every needed qualification held.
// This is the single hard filter of the optimizer.
func (c *Client) EligibleFor(e *Employee) bool {
	return e.CanReach(c.School) && e.HasQualifications(c.NeededQualifications)
}

// PairKey identifies an assignment by its two sides
type PairKey struct {
	EmployeeID string `json:"ma"`
	ClientID   string `json:"klient"`
}

// Assignment is one selected (employee, client) pair together with a snapshot
// of the feature values the pair was scored on. Immutable once produced.
type Assignment struct {
	EmployeeID       string   `json:"ma"`
	ClientID         string   `json:"klient"`
	TravelMinutes    int      `json:"timeToSchool"`
	ClientExperience int      `json:"cl_experience"`
	SchoolExperience int      `json:"school_experience"`
	Priority         Priority `json:"priority"`
	// AvailabilityGap is employee remaining days minus client remaining days,
	// nil when either side is open-ended.
	AvailabilityGap *int `json:"availability_gap"`
	// FullDayAvailability is true when the employee has no time restriction
	FullDayAvailability bool `json:"ma_availability"`
	QualificationsMet   bool `json:"qualifications_met"`
}

// Key returns the pair identity used for diffing
func (a Assignment) Key() PairKey {
	return PairKey{EmployeeID: a.EmployeeID, ClientID: a.ClientID}
}

// ContextStats aggregates the numeric features over all assigned pairs
type ContextStats struct {
	TravelMinutes    float64 `json:"timeToSchool"`
	ClientExperience float64 `json:"cl_experience"`
	SchoolExperience float64 `json:"school_experience"`
	Priority         float64 `json:"priority"`
	AvailabilityGap  float64 `json:"availability_gap"`
}

// Solution is the output of one optimizer run. A nil ObjectiveValue signals
// that the solver found no feasible solution; an empty solution with a zero
// objective is a legitimate business outcome and must not be confused with it.
type Solution struct {
	AssignedPairs       []Assignment  `json:"assigned_pairs"`
	UnassignedEmployees []string      `json:"unassigned_employees"`
	UnassignedClients   []string      `json:"unassigned_clients"`
	ObjectiveValue      *int64        `json:"objective_value"`
	Context             *ContextStats `json:"context,omitempty"`
}

// Feasible reports whether the solver produced a usable plan
func (s *Solution) Feasible() bool {
	return s != nil && s.ObjectiveValue != nil
}

// AssignmentFor returns the assignment involving the given employee, if any
func (s *Solution) AssignmentFor(employeeID string) (Assignment, bool) {
	for _, a := range s.AssignedPairs {
		if a.EmployeeID == employeeID {
			return a, true
		}
	}
	return Assignment{}, false
}
