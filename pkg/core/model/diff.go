package model

// NumericStats summarizes a continuous feature over one side of a diff
type NumericStats struct {
	Count int     `json:"count"`
	Mean  float64 `json:"mean"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
}

// PriorityBuckets counts assignments per client priority level
type PriorityBuckets struct {
	High   int `json:"hoch"`
	Medium int `json:"mittel"`
	Low    int `json:"niedrig"`
}

// FlagCounts counts assignments by a boolean feature
type FlagCounts struct {
	True  int `json:"true"`
	False int `json:"false"`
}

// ExperienceStats summarizes an experience feature: how many assignments have
// prior contact at all, and the mean days among those that do.
type ExperienceStats struct {
	WithExperience    int     `json:"with_experience"`
	WithoutExperience int     `json:"without_experience"`
	MeanDays          float64 `json:"mean_days_with_experience"`
}

// GapStats summarizes the availability gap: full overlap (employee stays at
// least as long as the client needs) vs. partial, and the mean shortfall in
// days over the partial subset.
type GapStats struct {
	FullOverlap       int     `json:"full_overlap"`
	PartialOverlap    int     `json:"partial_overlap"`
	MeanShortfallDays float64 `json:"mean_shortfall_days"`
}

// TravelDiff compares travel-time statistics between added and removed pairs.
// MeanChange is nil when either side is empty.
type TravelDiff struct {
	Added      NumericStats `json:"added"`
	Removed    NumericStats `json:"removed"`
	MeanChange *float64     `json:"mean_change_added_minus_removed,omitempty"`
}

// PriorityDiff compares priority bucket counts between added and removed pairs
type PriorityDiff struct {
	Added   PriorityBuckets `json:"added"`
	Removed PriorityBuckets `json:"removed"`
}

// AvailabilityDiff compares full-day-coverage counts between added and removed pairs
type AvailabilityDiff struct {
	Added   FlagCounts `json:"added"`
	Removed FlagCounts `json:"removed"`
}

// ExperienceDiff compares experience statistics between added and removed pairs
type ExperienceDiff struct {
	Added   ExperienceStats `json:"added"`
	Removed ExperienceStats `json:"removed"`
}

// GapDiff compares availability-gap statistics between added and removed pairs
type GapDiff struct {
	Added   GapStats `json:"added"`
	Removed GapStats `json:"removed"`
}

// DiffCounts records the sizes of both solutions and of the symmetric difference
type DiffCounts struct {
	Old     int `json:"alt"`
	New     int `json:"neu"`
	Added   int `json:"hinzugefuegt"`
	Removed int `json:"entfernt"`
}

// DiffStats holds the per-feature aggregate statistics of a diff, each with
// the statistic shape that fits the feature's semantics.
type DiffStats struct {
	TravelMinutes       TravelDiff       `json:"timeToSchool"`
	Priority            PriorityDiff     `json:"priority"`
	FullDayAvailability AvailabilityDiff `json:"ma_availability"`
	ClientExperience    ExperienceDiff   `json:"cl_experience"`
	SchoolExperience    ExperienceDiff   `json:"school_experience"`
	AvailabilityGap     GapDiff          `json:"availability_gap"`
}

// DiffResult is the structural and statistical comparison of two solutions.
// Computed on demand, never persisted beyond the memoization cache.
type DiffResult struct {
	Added   []Assignment `json:"hinzugefuegt"`
	Removed []Assignment `json:"entfernt"`
	Counts  DiffCounts   `json:"anzahl"`
	Stats   DiffStats    `json:"stats"`
}
