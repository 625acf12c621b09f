package features

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/careops/substitute-planner/pkg/core/model"
)

// DistanceCutoffMeters is the straight-line distance beyond which a school is
// not considered reachable. Entries at or above the cutoff are dropped from
// the employee's commute map entirely, which is what makes "no reachable
// school" possible.
const DistanceCutoffMeters = 60000

const dateLayout = "2006-01-02"

var weekdayNames = map[time.Weekday]string{
	time.Monday:    "montag",
	time.Tuesday:   "dienstag",
	time.Wednesday: "mittwoch",
	time.Thursday:  "donnerstag",
	time.Friday:    "freitag",
	time.Saturday:  "samstag",
	time.Sunday:    "sonntag",
}

// Builder turns raw records into the typed Employee/Client feature
// collections for one planning day
type Builder struct {
	distances  []RawDistance
	experience []RawExperience
	logger     *zap.Logger
}

// NewBuilder creates a feature builder over the given distance table and
// experience log
func NewBuilder(distances []RawDistance, experience []RawExperience, logger *zap.Logger) *Builder {
	return &Builder{
		distances:  distances,
		experience: experience,
		logger:     logger,
	}
}

// BuildDay produces the Employee and Client collections for the planning
// date. subs must already be filtered to events active on that date (see
// ActiveOn). Employees with no reachable school are removed entirely; clients
// without a session that weekday are kept with a nil time window.
func (b *Builder) BuildDay(
	employees []RawEmployee,
	clients []RawClient,
	subs []RawSubstitution,
	date time.Time,
) ([]model.Employee, []model.Client, error) {

	clientFeatures, err := b.buildClients(clients, subs, date)
	if err != nil {
		return nil, nil, err
	}

	employeeFeatures, err := b.buildEmployees(employees, clientFeatures, subs)
	if err != nil {
		return nil, nil, err
	}

	return employeeFeatures, clientFeatures, nil
}

func (b *Builder) buildClients(raws []RawClient, subs []RawSubstitution, date time.Time) ([]model.Client, error) {
	weekday := weekdayNames[date.Weekday()]

	clients := make([]model.Client, 0, len(raws))
	for _, raw := range raws {
		window, err := clientTimeWindow(raw, weekday)
		if err != nil {
			return nil, fmt.Errorf("client %s: %w", raw.ID, err)
		}

		until, err := availableUntil(subs, func(s RawSubstitution) bool {
			return s.ClientToCover != nil && s.ClientToCover.ID == raw.ID
		})
		if err != nil {
			return nil, fmt.Errorf("client %s: %w", raw.ID, err)
		}

		school := ""
		if raw.School != nil {
			school = raw.School.ID
		}

		clients = append(clients, model.Client{
			ID:                   raw.ID,
			NeededQualifications: clientQualifications(raw),
			TimeWindow:           window,
			Priority:             convertPriority(raw.SubstitutionTag),
			School:               school,
			AvailableUntil:       until,
		})
	}
	return clients, nil
}

func (b *Builder) buildEmployees(raws []RawEmployee, clients []model.Client, subs []RawSubstitution) ([]model.Employee, error) {
	schools := clientSchoolSet(clients)

	employees := make([]model.Employee, 0, len(raws))
	for _, raw := range raws {
		availability, err := employeeAvailability(raw)
		if err != nil {
			return nil, fmt.Errorf("employee %s: %w", raw.ID, err)
		}

		commute := b.commuteMinutes(raw.ID, schools)
		if len(commute) == 0 {
			// No reachable school means the employee cannot serve any
			// candidate pair, so it is removed from the day's collection.
			if b.logger != nil {
				b.logger.Debug("Dropping employee without reachable schools", zap.String("employee_id", raw.ID))
			}
			continue
		}

		until, err := availableUntil(subs, func(s RawSubstitution) bool {
			return s.CoveringEmployee != nil && s.CoveringEmployee.ID == raw.ID
		})
		if err != nil {
			return nil, fmt.Errorf("employee %s: %w", raw.ID, err)
		}

		clientExp, schoolExp := b.experienceFor(raw.ID, clients, schools)

		employees = append(employees, model.Employee{
			ID:               raw.ID,
			Qualifications:   employeeQualifications(raw),
			Availability:     availability,
			TimeToSchool:     commute,
			ClientExperience: clientExp,
			SchoolExperience: schoolExp,
			AvailableUntil:   until,
		})
	}
	return employees, nil
}

// commuteMinutes builds the reachable-school map for one employee. The first
// distance record per (employee, school) pair wins; meters are converted to
// minutes by truncating division by 1000, floored to 1 so a computed zero is
// not mistaken for missing data.
func (b *Builder) commuteMinutes(employeeID string, schools map[string]bool) map[string]int {
	perSchool := make(map[string]RawDistance)
	for _, d := range b.distances {
		if d.Employee.ID != employeeID {
			continue
		}
		if _, seen := perSchool[d.School.ID]; !seen {
			perSchool[d.School.ID] = d
		}
	}

	result := make(map[string]int)
	for school := range schools {
		record, ok := perSchool[school]
		if !ok || record.StraightLineMeters == nil {
			continue
		}
		meters := *record.StraightLineMeters
		if meters >= DistanceCutoffMeters {
			continue
		}
		minutes := int(meters / 1000)
		if minutes < 1 {
			minutes = 1
		}
		result[school] = minutes
	}
	return result
}

// experienceFor counts distinct recorded sessions per client and per school.
// Employees without a log entry get empty maps; entries with zero sessions
// are omitted so "no experience" stays distinguishable from "present but
// zero".
func (b *Builder) experienceFor(employeeID string, clients []model.Client, schools map[string]bool) (map[string]int, map[string]int) {
	clientExp := make(map[string]int)
	schoolExp := make(map[string]int)

	var entry *RawExperience
	for i := range b.experience {
		if b.experience[i].Employee == employeeID {
			entry = &b.experience[i]
			break
		}
	}
	if entry == nil {
		return clientExp, schoolExp
	}

	for _, c := range clients {
		if sessions := entry.ClientSessions[c.ID]; len(sessions) > 0 {
			clientExp[c.ID] = len(sessions)
		}
	}
	for school := range schools {
		if sessions := entry.SchoolSessions[school]; len(sessions) > 0 {
			schoolExp[school] = len(sessions)
		}
	}
	return clientExp, schoolExp
}

// ActiveOn filters substitution events to those whose date range includes the
// target date (inclusive on both ends)
func ActiveOn(subs []RawSubstitution, date time.Time) ([]RawSubstitution, error) {
	var active []RawSubstitution
	for _, sub := range subs {
		start, err := time.Parse(dateLayout, sub.StartDate)
		if err != nil {
			return nil, fmt.Errorf("substitution %s: invalid start date %q: %w", sub.ID, sub.StartDate, err)
		}
		end, err := time.Parse(dateLayout, sub.EndDate)
		if err != nil {
			return nil, fmt.Errorf("substitution %s: invalid end date %q: %w", sub.ID, sub.EndDate, err)
		}
		if !start.After(date) && !end.Before(date) {
			active = append(active, sub)
		}
	}
	return active, nil
}

func availableUntil(subs []RawSubstitution, match func(RawSubstitution) bool) (*time.Time, error) {
	for _, sub := range subs {
		if !match(sub) {
			continue
		}
		end, err := time.Parse(dateLayout, sub.EndDate)
		if err != nil {
			return nil, fmt.Errorf("substitution %s: invalid end date %q: %w", sub.ID, sub.EndDate, err)
		}
		return &end, nil
	}
	return nil, nil
}

func employeeQualifications(raw RawEmployee) []model.Qualification {
	var quals []model.Qualification
	if raw.CanDiabetes == 1 {
		quals = append(quals, model.QualificationDiabetes)
	}
	if raw.CanNursing == 1 {
		quals = append(quals, model.QualificationNursing)
	}
	return quals
}

func clientQualifications(raw RawClient) []model.Qualification {
	var quals []model.Qualification
	if raw.HasDiabetes == 1 {
		quals = append(quals, model.QualificationDiabetes)
	}
	if raw.NeedsNursing == 1 {
		quals = append(quals, model.QualificationNursing)
	}
	return quals
}

// employeeAvailability returns the employee's working window: the full day by
// default, or ending at the recorded time restriction
func employeeAvailability(raw RawEmployee) (model.TimeInterval, error) {
	if raw.TimeRestriction == nil {
		return model.FullDay, nil
	}
	end, err := ParseClock(*raw.TimeRestriction)
	if err != nil {
		return model.TimeInterval{}, fmt.Errorf("invalid time restriction: %w", err)
	}
	return model.TimeInterval{Start: 0, End: end}, nil
}

// clientTimeWindow reads the weekday's session window from the timetable.
// Missing timetable or missing weekday start yields a nil window.
func clientTimeWindow(raw RawClient, weekday string) (*model.TimeInterval, error) {
	if raw.Timetable == nil {
		return nil, nil
	}
	startRaw := raw.Timetable[weekday+"von"]
	if startRaw == nil {
		return nil, nil
	}
	endRaw := raw.Timetable[weekday+"bis"]
	if endRaw == nil {
		return nil, fmt.Errorf("timetable has %svon but no %sbis", weekday, weekday)
	}

	start, err := ParseClock(*startRaw)
	if err != nil {
		return nil, fmt.Errorf("invalid %svon: %w", weekday, err)
	}
	end, err := ParseClock(*endRaw)
	if err != nil {
		return nil, fmt.Errorf("invalid %sbis: %w", weekday, err)
	}
	return &model.TimeInterval{Start: start, End: end}, nil
}

// convertPriority maps the substitution-priority tag onto the three priority
// levels; unmapped or missing tags default to low
func convertPriority(tag *Ref) model.Priority {
	if tag == nil {
		return model.PriorityLow
	}
	switch tag.ID {
	case "tag1hoheprio":
		return model.PriorityHigh
	case "tag1":
		return model.PriorityMedium
	default:
		return model.PriorityLow
	}
}

// ParseClock converts an HH:MM:SS string into fractional hours. Seconds are
// accepted but do not contribute, matching the upstream conversion.
func ParseClock(value string) (float64, error) {
	t, err := time.Parse("15:04:05", value)
	if err != nil {
		return 0, fmt.Errorf("malformed time %q: %w", value, err)
	}
	return float64(t.Hour()) + float64(t.Minute())/60, nil
}

func clientSchoolSet(clients []model.Client) map[string]bool {
	schools := make(map[string]bool)
	for _, c := range clients {
		if c.School != "" {
			schools[c.School] = true
		}
	}
	return schools
}
