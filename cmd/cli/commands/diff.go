package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/careops/substitute-planner/pkg/core/model"
	"github.com/careops/substitute-planner/pkg/core/services"
)

// DiffCmd creates the diff command
func DiffCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "diff <ma_id> <client_id>",
		Short: "Evaluate a manual deviation from the recommended plan",
		Long:  "Re-run the optimization with one more unavailable employee and client and show how the plan changes",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			dateStr, _ := cmd.Flags().GetString("date")
			unavailableClients, _ := cmd.Flags().GetStringSlice("unavailable-client")
			unavailableMAs, _ := cmd.Flags().GetStringSlice("unavailable-ma")

			date, err := parseDate(dateStr)
			if err != nil {
				return err
			}

			app.Logger.Debug("diff command",
				zap.String("add_ma", args[0]),
				zap.String("add_client", args[1]),
				zap.Time("date", date))

			req := services.DiffRequest{
				Scenario: model.Scenario{
					Date:                 date,
					UnavailableEmployees: unavailableMAs,
					UnavailableClients:   unavailableClients,
				},
				AddEmployee: args[0],
				AddClient:   args[1],
			}

			judgment, err := app.Planner.CalculateDiff(app.Ctx, req, app.Cfg.MaxTravelMinutes, nil)
			if err != nil {
				return fmt.Errorf("diff calculation failed: %w", err)
			}

			counts := judgment.Result.Counts
			fmt.Printf("\n🔀 Plan Changes\n\n")
			fmt.Printf("Pairs before: %d\n", counts.Old)
			fmt.Printf("Pairs after:  %d\n", counts.New)
			fmt.Printf("Added:        %d\n", counts.Added)
			fmt.Printf("Removed:      %d\n\n", counts.Removed)

			if counts.Added == 0 && counts.Removed == 0 {
				fmt.Println("✅ The plan is unchanged.")
				return nil
			}

			if counts.Added > 0 {
				fmt.Printf("➕ Added assignments:\n\n%s\n", judgment.AddedTable)
			}
			if counts.Removed > 0 {
				fmt.Printf("➖ Removed assignments:\n\n%s\n", judgment.RemovedTable)
			}
			if judgment.Summary != "" {
				fmt.Printf("📝 %s\n", judgment.Summary)
			}

			return nil
		},
	}

	cmd.Flags().String("date", "", "Planning date (YYYY-MM-DD, default today)")
	cmd.Flags().StringSlice("unavailable-client", nil, "Client id already excluded in the baseline (repeatable)")
	cmd.Flags().StringSlice("unavailable-ma", nil, "Employee id already excluded in the baseline (repeatable)")

	return cmd
}
