package sheetsclient

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/careops/substitute-planner/pkg/core/features"
)

// Expected column names per tab. Headers mirror the raw export field names so
// the spreadsheet can be filled straight from the care-management system.
var (
	employeeFields = []string{
		"id",
		"kanndiabetes",
		"kannpflege",
		"zeitlicheeinschraenkung-uhrzeit",
	}
	clientFields = []string{
		"id",
		"hatdiabetes",
		"brauchtpflege",
		"vertretungab",
		"schule",
	}
	distanceFields = []string{
		"mitarbeiterin",
		"schule",
		"einfachdistanzluft",
	}
	substitutionFields = []string{
		"id",
		"typ",
		"startdatum",
		"enddatum",
		"mavertretend",
		"klientzubegleiten",
	}
	experienceFields = []string{
		"ma",
		"client_experience",
		"school_experience",
	}
)

// Weekday column prefixes for the client timetable, one "<day>von" and one
// "<day>bis" column per weekday
var timetableDays = []string{
	"montag", "dienstag", "mittwoch", "donnerstag", "freitag", "samstag", "sonntag",
}

// Employees retrieves and parses the caregiver tab
func (c *Client) Employees(ctx context.Context) ([]features.RawEmployee, error) {
	rows, err := c.getValues(ctx, c.cfg.EmployeesTab)
	if err != nil {
		return nil, fmt.Errorf("failed to get employee data: %w", err)
	}

	index, err := newRowIndex(rows, employeeFields)
	if err != nil {
		return nil, fmt.Errorf("failed to parse employee header: %w", err)
	}

	employees := make([]features.RawEmployee, 0, len(rows)-1)
	for i := 1; i < len(rows); i++ {
		row := rows[i]

		id := index.get("id", row)
		if id == "" {
			continue
		}

		employees = append(employees, features.RawEmployee{
			ID:              id,
			CanDiabetes:     index.getFlag("kanndiabetes", row),
			CanNursing:      index.getFlag("kannpflege", row),
			TimeRestriction: index.getOptional("zeitlicheeinschraenkung-uhrzeit", row),
		})
	}

	return employees, nil
}

// Clients retrieves and parses the client tab. The timetable columns follow
// the "<weekday>von"/"<weekday>bis" naming of the raw export and are optional
// per day.
func (c *Client) Clients(ctx context.Context) ([]features.RawClient, error) {
	rows, err := c.getValues(ctx, c.cfg.ClientsTab)
	if err != nil {
		return nil, fmt.Errorf("failed to get client data: %w", err)
	}

	index, err := newRowIndex(rows, clientFields)
	if err != nil {
		return nil, fmt.Errorf("failed to parse client header: %w", err)
	}

	clients := make([]features.RawClient, 0, len(rows)-1)
	for i := 1; i < len(rows); i++ {
		row := rows[i]

		id := index.get("id", row)
		if id == "" {
			continue
		}

		timetable := make(map[string]*string)
		for _, day := range timetableDays {
			timetable[day+"von"] = index.getOptional(day+"von", row)
			timetable[day+"bis"] = index.getOptional(day+"bis", row)
		}

		clients = append(clients, features.RawClient{
			ID:              id,
			HasDiabetes:     index.getFlag("hatdiabetes", row),
			NeedsNursing:    index.getFlag("brauchtpflege", row),
			Timetable:       timetable,
			SubstitutionTag: index.getRef("vertretungab", row),
			School:          index.getRef("schule", row),
		})
	}

	return clients, nil
}

// Distances retrieves and parses the commute distance tab
func (c *Client) Distances(ctx context.Context) ([]features.RawDistance, error) {
	rows, err := c.getValues(ctx, c.cfg.DistancesTab)
	if err != nil {
		return nil, fmt.Errorf("failed to get distance data: %w", err)
	}

	index, err := newRowIndex(rows, distanceFields)
	if err != nil {
		return nil, fmt.Errorf("failed to parse distance header: %w", err)
	}

	distances := make([]features.RawDistance, 0, len(rows)-1)
	for i := 1; i < len(rows); i++ {
		row := rows[i]

		employee := index.get("mitarbeiterin", row)
		school := index.get("schule", row)
		if employee == "" || school == "" {
			continue
		}

		meters, err := index.getFloat("einfachdistanzluft", row)
		if err != nil {
			return nil, fmt.Errorf("invalid distance in row %d: %w", i, err)
		}

		distances = append(distances, features.RawDistance{
			Employee:           features.Ref{ID: employee},
			School:             features.Ref{ID: school},
			StraightLineMeters: meters,
		})
	}

	return distances, nil
}

// Substitutions retrieves and parses the substitution event tab
func (c *Client) Substitutions(ctx context.Context) ([]features.RawSubstitution, error) {
	rows, err := c.getValues(ctx, c.cfg.SubstitutionsTab)
	if err != nil {
		return nil, fmt.Errorf("failed to get substitution data: %w", err)
	}

	index, err := newRowIndex(rows, substitutionFields)
	if err != nil {
		return nil, fmt.Errorf("failed to parse substitution header: %w", err)
	}

	subs := make([]features.RawSubstitution, 0, len(rows)-1)
	for i := 1; i < len(rows); i++ {
		row := rows[i]

		id := index.get("id", row)
		if id == "" {
			continue
		}

		subs = append(subs, features.RawSubstitution{
			ID:               id,
			Type:             index.get("typ", row),
			StartDate:        index.get("startdatum", row),
			EndDate:          index.get("enddatum", row),
			CoveringEmployee: index.getRef("mavertretend", row),
			ClientToCover:    index.getRef("klientzubegleiten", row),
		})
	}

	return subs, nil
}

// ExperienceLog retrieves and parses the session log tab. The per-client and
// per-school session maps are stored as JSON documents in their cells.
func (c *Client) ExperienceLog(ctx context.Context) ([]features.RawExperience, error) {
	rows, err := c.getValues(ctx, c.cfg.ExperienceTab)
	if err != nil {
		return nil, fmt.Errorf("failed to get experience data: %w", err)
	}

	index, err := newRowIndex(rows, experienceFields)
	if err != nil {
		return nil, fmt.Errorf("failed to parse experience header: %w", err)
	}

	log := make([]features.RawExperience, 0, len(rows)-1)
	for i := 1; i < len(rows); i++ {
		row := rows[i]

		employee := index.get("ma", row)
		if employee == "" {
			continue
		}

		clientSessions, err := parseSessionMap(index.get("client_experience", row))
		if err != nil {
			return nil, fmt.Errorf("invalid client sessions in row %d: %w", i, err)
		}
		schoolSessions, err := parseSessionMap(index.get("school_experience", row))
		if err != nil {
			return nil, fmt.Errorf("invalid school sessions in row %d: %w", i, err)
		}

		log = append(log, features.RawExperience{
			Employee:       employee,
			ClientSessions: clientSessions,
			SchoolSessions: schoolSessions,
		})
	}

	return log, nil
}

// parseSessionMap decodes a per-id session date map from a JSON cell. An
// empty cell means no recorded sessions.
func parseSessionMap(cell string) (map[string][]string, error) {
	if cell == "" {
		return map[string][]string{}, nil
	}
	sessions := make(map[string][]string)
	if err := json.Unmarshal([]byte(cell), &sessions); err != nil {
		return nil, err
	}
	return sessions, nil
}

// rowIndex maps column names from a header row to their positions
type rowIndex struct {
	fields map[string]int
}

// newRowIndex builds a column index from the header row, requiring every
// field in required to be present. Columns beyond the required set, such as
// the timetable columns, are indexed too.
func newRowIndex(rows [][]interface{}, required []string) (*rowIndex, error) {
	if len(rows) < 1 {
		return nil, fmt.Errorf("no header row found")
	}

	fields := make(map[string]int)
	for i, cell := range rows[0] {
		if name, ok := cell.(string); ok {
			fields[strings.TrimSpace(name)] = i
		}
	}

	for _, field := range required {
		if _, ok := fields[field]; !ok {
			return nil, fmt.Errorf("missing required field in header: %s", field)
		}
	}

	return &rowIndex{fields: fields}, nil
}

// get returns the trimmed string value of a field, or "" when the column is
// absent or the row is short
func (r *rowIndex) get(field string, row []interface{}) string {
	index, ok := r.fields[field]
	if !ok || index >= len(row) {
		return ""
	}
	if str, ok := row[index].(string); ok {
		return strings.TrimSpace(str)
	}
	return ""
}

// getOptional returns the field value as a pointer, or nil for an empty cell
func (r *rowIndex) getOptional(field string, row []interface{}) *string {
	value := r.get(field, row)
	if value == "" {
		return nil
	}
	return &value
}

// getRef returns the field value as a record reference, or nil for an empty
// cell
func (r *rowIndex) getRef(field string, row []interface{}) *features.Ref {
	value := r.get(field, row)
	if value == "" {
		return nil
	}
	return &features.Ref{ID: value}
}

// getFlag parses a 0/1 capability flag. Anything other than "1" counts as
// unset, matching how the export encodes booleans.
func (r *rowIndex) getFlag(field string, row []interface{}) int {
	if r.get(field, row) == "1" {
		return 1
	}
	return 0
}

// getFloat parses a numeric cell, returning nil for an empty one
func (r *rowIndex) getFloat(field string, row []interface{}) (*float64, error) {
	value := r.get(field, row)
	if value == "" {
		return nil, nil
	}
	parsed, err := strconv.ParseFloat(strings.ReplaceAll(value, ",", "."), 64)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s value %q: %w", field, value, err)
	}
	return &parsed, nil
}
