package services

import (
	"fmt"
	"sort"
	"time"

	"github.com/careops/substitute-planner/pkg/core/model"
)

// maxAlternatives bounds the alternative client suggestions per assignment
const maxAlternatives = 3

// ExperienceEntry is one prior-contact record in an employee view
type ExperienceEntry struct {
	Name string `json:"name"`
	Days int    `json:"tage"`
}

// EmployeeView is the anonymized frontend shape of one caregiver
type EmployeeView struct {
	Name             string                `json:"name"`
	ID               string                `json:"id"`
	AvailableUntil   *string               `json:"verfuegbar_bis"`
	TimeWindow       model.TimeInterval    `json:"zeitfenster"`
	Qualifications   []model.Qualification `json:"qualifikationen"`
	ClientExperience []ExperienceEntry     `json:"klient_erfahrung"`
	SchoolExperience []ExperienceEntry     `json:"schule_erfahrung"`
	// Schools maps anonymized school name to commute minutes
	Schools map[string]int `json:"schulen"`
}

// ClientView is the anonymized frontend shape of one client
type ClientView struct {
	Name           string                `json:"name"`
	ID             string                `json:"id"`
	CoveredUntil   *string               `json:"nicht_vertreten_bis"`
	TimeWindow     *model.TimeInterval   `json:"anwesenheit"`
	Qualifications []model.Qualification `json:"qualifikationen"`
	School         string                `json:"schule"`
	Priority       string                `json:"prioritaet"`
}

// Recommendation pairs one assignment's two views with up to three
// alternative clients the employee could plausibly cover instead
type Recommendation struct {
	Employee     EmployeeView `json:"mitarbeiter"`
	Client       ClientView   `json:"klient"`
	Alternatives []ClientView `json:"alternativeKlienten"`
}

// shapeResult anonymizes the day's entities and builds the frontend views
// over the solution
func (p *Planner) shapeResult(solution *model.Solution, employees []model.Employee, clients []model.Client) (*RecommendResult, error) {
	personIDs := make([]string, 0, len(employees)+len(clients))
	for _, e := range employees {
		personIDs = append(personIDs, e.ID)
	}
	for _, c := range clients {
		personIDs = append(personIDs, c.ID)
	}
	personNames, err := p.personNames.EnsureNames(personIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to ensure person names: %w", err)
	}

	schoolNames, err := p.schoolNames.EnsureNames(schoolIDs(employees, clients))
	if err != nil {
		return nil, fmt.Errorf("failed to ensure school names: %w", err)
	}

	result := &RecommendResult{
		Solution:        solution,
		Employees:       make([]EmployeeView, 0, len(employees)),
		Clients:         make([]ClientView, 0, len(clients)),
		Recommendations: []Recommendation{},
	}

	employeeViews := make(map[string]EmployeeView, len(employees))
	for i := range employees {
		view := employeeView(&employees[i], personNames, schoolNames)
		employeeViews[employees[i].ID] = view
		result.Employees = append(result.Employees, view)
	}
	clientViews := make(map[string]ClientView, len(clients))
	for i := range clients {
		view := clientView(&clients[i], personNames, schoolNames)
		clientViews[clients[i].ID] = view
		result.Clients = append(result.Clients, view)
	}

	if !solution.Feasible() {
		return result, nil
	}
	for _, a := range solution.AssignedPairs {
		employee := employeeByID(employees, a.EmployeeID)
		result.Recommendations = append(result.Recommendations, Recommendation{
			Employee:     employeeViews[a.EmployeeID],
			Client:       clientViews[a.ClientID],
			Alternatives: findAlternatives(employee, clients, a.ClientID, clientViews),
		})
	}
	return result, nil
}

func employeeView(e *model.Employee, personNames, schoolNames map[string]string) EmployeeView {
	schools := make(map[string]int, len(e.TimeToSchool))
	for school, minutes := range e.TimeToSchool {
		schools[schoolNames[school]] = minutes
	}
	return EmployeeView{
		Name:             personNames[e.ID],
		ID:               e.ID,
		AvailableUntil:   formatDate(e.AvailableUntil),
		TimeWindow:       e.Availability,
		Qualifications:   e.Qualifications,
		ClientExperience: experienceEntries(e.ClientExperience, personNames),
		SchoolExperience: experienceEntries(e.SchoolExperience, schoolNames),
		Schools:          schools,
	}
}

func clientView(c *model.Client, personNames, schoolNames map[string]string) ClientView {
	return ClientView{
		Name:           personNames[c.ID],
		ID:             c.ID,
		CoveredUntil:   formatDate(c.AvailableUntil),
		TimeWindow:     c.TimeWindow,
		Qualifications: c.NeededQualifications,
		School:         schoolNames[c.School],
		Priority:       c.Priority.Display(),
	}
}

// experienceEntries flattens an experience map into named entries, most
// experienced first so the ordering is stable
func experienceEntries(experience map[string]int, names map[string]string) []ExperienceEntry {
	entries := make([]ExperienceEntry, 0, len(experience))
	for id, days := range experience {
		entries = append(entries, ExperienceEntry{Name: names[id], Days: days})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Days != entries[j].Days {
			return entries[i].Days > entries[j].Days
		}
		return entries[i].Name < entries[j].Name
	})
	return entries
}

// findAlternatives suggests up to three clients the employee could cover
// instead of the assigned one, preferring prior client contact, then prior
// school contact, then schools by commute time
func findAlternatives(e *model.Employee, clients []model.Client, assignedClientID string, views map[string]ClientView) []ClientView {
	alternatives := make([]ClientView, 0, maxAlternatives)
	if e == nil {
		return alternatives
	}
	tried := map[string]bool{assignedClientID: true}

	add := func(clientID string) bool {
		if tried[clientID] {
			return len(alternatives) >= maxAlternatives
		}
		tried[clientID] = true
		if view, ok := views[clientID]; ok {
			alternatives = append(alternatives, view)
		}
		return len(alternatives) >= maxAlternatives
	}

	for _, clientID := range keysByValueDesc(e.ClientExperience) {
		if add(clientID) {
			return alternatives
		}
	}

	clientsBySchool := make(map[string][]string)
	for _, c := range clients {
		clientsBySchool[c.School] = append(clientsBySchool[c.School], c.ID)
	}
	for _, school := range keysByValueDesc(e.SchoolExperience) {
		for _, clientID := range clientsBySchool[school] {
			if add(clientID) {
				return alternatives
			}
		}
	}

	for _, school := range keysByValueAsc(e.TimeToSchool) {
		for _, clientID := range clientsBySchool[school] {
			if add(clientID) {
				return alternatives
			}
		}
	}
	return alternatives
}

// keysByValueDesc orders map keys by descending value, ties by key
func keysByValueDesc(m map[string]int) []string {
	keys := sortedKeys(m)
	sort.SliceStable(keys, func(i, j int) bool { return m[keys[i]] > m[keys[j]] })
	return keys
}

// keysByValueAsc orders map keys by ascending value, ties by key
func keysByValueAsc(m map[string]int) []string {
	keys := sortedKeys(m)
	sort.SliceStable(keys, func(i, j int) bool { return m[keys[i]] < m[keys[j]] })
	return keys
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func schoolIDs(employees []model.Employee, clients []model.Client) []string {
	seen := make(map[string]bool)
	var ids []string
	for _, c := range clients {
		if c.School != "" && !seen[c.School] {
			seen[c.School] = true
			ids = append(ids, c.School)
		}
	}
	for _, e := range employees {
		for school := range e.TimeToSchool {
			if !seen[school] {
				seen[school] = true
				ids = append(ids, school)
			}
		}
	}
	sort.Strings(ids)
	return ids
}

func employeeByID(employees []model.Employee, id string) *model.Employee {
	for i := range employees {
		if employees[i].ID == id {
			return &employees[i]
		}
	}
	return nil
}

func formatDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	formatted := t.Format("2006-01-02")
	return &formatted
}
