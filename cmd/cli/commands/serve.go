package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/careops/substitute-planner/pkg/handlers"
)

// ServeCmd creates the serve command
func ServeCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Long:  "Serve the recommendation and diff endpoints for the frontend",
		RunE: func(cmd *cobra.Command, args []string) error {
			h := &handlers.Handler{
				Planner:          app.Planner,
				MaxTravelMinutes: app.Cfg.MaxTravelMinutes,
				PlanningDate:     today,
				Logger:           app.Logger,
			}

			app.Logger.Info("Starting HTTP server", zap.String("addr", app.Cfg.HTTP.Addr))
			if err := h.Routes().Run(app.Cfg.HTTP.Addr); err != nil {
				return fmt.Errorf("server stopped: %w", err)
			}
			return nil
		},
	}
}

// today is the planning date for API requests, which always plan the current day
func today() time.Time {
	now := time.Now()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}
