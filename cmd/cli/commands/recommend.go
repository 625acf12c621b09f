package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/careops/substitute-planner/pkg/core/model"
	"github.com/careops/substitute-planner/pkg/core/services"
)

// RecommendCmd creates the recommend command
func RecommendCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "recommend",
		Short: "Compute the optimal substitute plan for a planning date",
		Long:  "Run the assignment optimization over the open substitution cases and print the recommended employee-client pairs",
		RunE: func(cmd *cobra.Command, args []string) error {
			dateStr, _ := cmd.Flags().GetString("date")
			unavailableClients, _ := cmd.Flags().GetStringSlice("unavailable-client")
			unavailableMAs, _ := cmd.Flags().GetStringSlice("unavailable-ma")
			forcedMA, _ := cmd.Flags().GetString("forced-ma")
			forcedClient, _ := cmd.Flags().GetString("forced-client")

			date, err := parseDate(dateStr)
			if err != nil {
				return err
			}

			app.Logger.Debug("recommend command",
				zap.Time("date", date),
				zap.Strings("unavailable_clients", unavailableClients),
				zap.Strings("unavailable_mas", unavailableMAs))

			scenario := model.Scenario{
				Date:                 date,
				UnavailableEmployees: unavailableMAs,
				UnavailableClients:   unavailableClients,
				ForcedEmployee:       forcedMA,
				ForcedClient:         forcedClient,
			}

			result, err := app.Planner.Recommend(app.Ctx, scenario)
			if err != nil {
				return fmt.Errorf("recommendation failed: %w", err)
			}

			fmt.Printf("\n🗓  Substitute Plan for %s\n\n", date.Format("2006-01-02"))

			if !result.Solution.Feasible() {
				fmt.Println("❌ No feasible plan exists for this scenario.")
				return nil
			}

			fmt.Printf("Objective:  %d\n", *result.Solution.ObjectiveValue)
			fmt.Printf("Assigned:   %d\n", len(result.Solution.AssignedPairs))
			fmt.Printf("Unassigned: %d clients, %d employees\n\n",
				len(result.Solution.UnassignedClients),
				len(result.Solution.UnassignedEmployees))

			printRecommendations(result.Recommendations, result.Solution.AssignedPairs)
			printUnassignedClients(result)

			return nil
		},
	}

	cmd.Flags().String("date", "", "Planning date (YYYY-MM-DD, default today)")
	cmd.Flags().StringSlice("unavailable-client", nil, "Client id to exclude (repeatable)")
	cmd.Flags().StringSlice("unavailable-ma", nil, "Employee id to exclude (repeatable)")
	cmd.Flags().String("forced-ma", "", "Employee id of a pair to force into the plan")
	cmd.Flags().String("forced-client", "", "Client id of a pair to force into the plan")

	return cmd
}

const (
	colorReset = "\033[0m"
	colorGreen = "\033[32m"
	colorBold  = "\033[1m"
)

// printRecommendations renders the assignment table with the feature
// snapshot each pair was chosen on. Recommendations and pairs run in the
// same order.
func printRecommendations(recommendations []services.Recommendation, pairs []model.Assignment) {
	fmt.Printf("📋 Recommended Assignments:\n\n")

	maColWidth := len("Mitarbeiter")
	clientColWidth := len("Klient")
	schoolColWidth := len("Schule")
	for _, r := range recommendations {
		if len(r.Employee.Name) > maColWidth {
			maColWidth = len(r.Employee.Name)
		}
		if len(r.Client.Name) > clientColWidth {
			clientColWidth = len(r.Client.Name)
		}
		if len(r.Client.School) > schoolColWidth {
			schoolColWidth = len(r.Client.School)
		}
	}
	maColWidth += 2
	clientColWidth += 2
	schoolColWidth += 2

	fmt.Printf("%s%-*s  %-*s  %-*s  %-10s  %-9s  %s%s\n",
		colorBold,
		maColWidth, "Mitarbeiter",
		clientColWidth, "Klient",
		schoolColWidth, "Schule",
		"Priorität", "Fahrtzeit", "Erfahrung (Klient/Schule)",
		colorReset)
	fmt.Printf("%s  %s  %s  %s  %s  %s\n",
		strings.Repeat("-", maColWidth),
		strings.Repeat("-", clientColWidth),
		strings.Repeat("-", schoolColWidth),
		strings.Repeat("-", 10),
		strings.Repeat("-", 9),
		strings.Repeat("-", 25))

	for i, r := range recommendations {
		experience := "-"
		travel := "-"
		if i < len(pairs) {
			experience = fmt.Sprintf("%d / %d Tage", pairs[i].ClientExperience, pairs[i].SchoolExperience)
			travel = fmt.Sprintf("%d min", pairs[i].TravelMinutes)
		}
		fmt.Printf("%s%-*s%s  %-*s  %-*s  %-10s  %-9s  %s\n",
			colorGreen, maColWidth, r.Employee.Name, colorReset,
			clientColWidth, r.Client.Name,
			schoolColWidth, r.Client.School,
			r.Client.Priority,
			travel,
			experience)
	}
	fmt.Println()
}

func printUnassignedClients(result *services.RecommendResult) {
	if len(result.Solution.UnassignedClients) == 0 {
		return
	}
	fmt.Printf("⚠️  Unassigned clients (%d):\n", len(result.Solution.UnassignedClients))
	for _, view := range result.Clients {
		for _, id := range result.Solution.UnassignedClients {
			if view.ID == id {
				fmt.Printf("  • %s (%s, Priorität %s)\n", view.Name, view.School, view.Priority)
			}
		}
	}
	fmt.Println()
}

func parseDate(value string) (time.Time, error) {
	if value == "" {
		now := time.Now()
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC), nil
	}
	date, err := time.Parse("2006-01-02", value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD: %w", value, err)
	}
	return date, nil
}
