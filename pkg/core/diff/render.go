package diff

import (
	"fmt"
	"strings"

	"github.com/careops/substitute-planner/pkg/core/model"
)

// NameLookup resolves an entity id to its display name. Unknown ids should
// be returned unchanged.
type NameLookup func(id string) string

var tableColumns = []string{
	"Mitarbeiter",
	"Klient",
	"Priorität",
	"Qualifikation",
	"Fahrtzeit",
	"Erfahrung mit dem Klienten",
	"Erfahrung mit der Schule",
	"Verfügbarkeitsdifferenz",
}

// RenderTable formats assignment feature snapshots as a markdown table for
// the narrative summarizer, one row per assignment. Pure formatting: the
// qualification icon reflects the snapshot's re-check and the travel icon
// the configured threshold in minutes.
func RenderTable(assignments []model.Assignment, names NameLookup, maxTravelMinutes int) string {
	var b strings.Builder

	b.WriteString("| " + strings.Join(tableColumns, " | ") + " |\n")
	separators := make([]string, len(tableColumns))
	for i, col := range tableColumns {
		separators[i] = strings.Repeat("-", len([]rune(col)))
	}
	b.WriteString("| " + strings.Join(separators, " | ") + " |\n")

	for _, a := range assignments {
		qualiIcon := "✅"
		if !a.QualificationsMet {
			qualiIcon = "❌"
		}
		travelIcon := "✅"
		if a.TravelMinutes > maxTravelMinutes {
			travelIcon = "❌"
		}

		gap := "unbekannt"
		if a.AvailabilityGap != nil {
			gap = fmt.Sprintf("%d Tage", *a.AvailabilityGap)
		}

		fmt.Fprintf(&b, "| %s | %s | %s | %s | %d min %s | %s | %s | %s |\n",
			names(a.EmployeeID),
			names(a.ClientID),
			a.Priority.Display(),
			qualiIcon,
			a.TravelMinutes,
			travelIcon,
			experienceLabel(a.ClientExperience),
			experienceLabel(a.SchoolExperience),
			gap,
		)
	}

	return b.String()
}

func experienceLabel(days int) string {
	if days <= 0 {
		return "Keine"
	}
	return fmt.Sprintf("%d Tage", days)
}
