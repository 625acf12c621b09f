package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/careops/substitute-planner/cmd/cli/commands"
	"github.com/careops/substitute-planner/internal/config"
	"github.com/careops/substitute-planner/pkg/cache"
	"github.com/careops/substitute-planner/pkg/clients/sheetsclient"
	"github.com/careops/substitute-planner/pkg/core/services"
	"github.com/careops/substitute-planner/pkg/names"
	"github.com/careops/substitute-planner/pkg/store/jsonfile"
	"github.com/careops/substitute-planner/pkg/store/postgres"
	"github.com/careops/substitute-planner/pkg/utils/logging"
)

var (
	env string
	app *commands.AppContext
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "planner",
		Short: "Substitute Planner CLI - Assign substitute caregivers to open cases",
		Long:  `A CLI tool for computing optimal substitute caregiver assignments and evaluating manual deviations from them.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initApp()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if app != nil && app.Logger != nil {
				app.Logger.Sync()
			}
		},
	}

	rootCmd.PersistentFlags().StringVarP(&env, "env", "e", "", "Environment (required: test, prod, etc.)")
	rootCmd.MarkPersistentFlagRequired("env")

	rootCmd.AddCommand(commands.RecommendCmd(appContext()))
	rootCmd.AddCommand(commands.DiffCmd(appContext()))
	rootCmd.AddCommand(commands.ServeCmd(appContext()))

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// appContext returns the shared dependency container. It is filled in by
// initApp before any command runs.
func appContext() *commands.AppContext {
	if app == nil {
		app = &commands.AppContext{}
	}
	return app
}

// initApp sets up logger, config, record source and the planner
func initApp() error {
	ctx := appContext()
	ctx.Ctx = context.Background()

	// Load .env if it exists, for DATABASE_URL and friends
	_ = godotenv.Load()

	cfg, err := config.Load(env)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	ctx.Cfg = cfg

	ctx.Logger, err = logging.InitLogger(env, cfg.LogDir)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	ctx.Logger.Info("Starting application",
		zap.String("environment", env),
		zap.String("source", cfg.Source))

	source, err := newRecordSource(ctx)
	if err != nil {
		return err
	}

	ctx.Planner = services.NewPlanner(
		source,
		cache.NewFileCache(cfg.CacheDir),
		names.NewPersonGenerator(names.NewFileStore(cfg.NamesFile)),
		names.NewSchoolGenerator(names.NewFileStore(cfg.SchoolNamesFile)),
		cfg.Weights,
		ctx.Logger,
	)
	return nil
}

// newRecordSource builds the record source selected in the config
func newRecordSource(ctx *commands.AppContext) (services.RecordSource, error) {
	switch ctx.Cfg.Source {
	case config.SourceJSONFile:
		ctx.Logger.Debug("Using JSON file record source", zap.String("data_dir", ctx.Cfg.DataDir))
		return jsonfile.NewStore(ctx.Cfg.DataDir), nil

	case config.SourcePostgres:
		connString := os.Getenv(ctx.Cfg.Postgres.URLEnv)
		if connString == "" {
			return nil, fmt.Errorf("environment variable %s is not set", ctx.Cfg.Postgres.URLEnv)
		}
		ctx.Logger.Debug("Connecting to PostgreSQL record source")
		store, err := postgres.NewStore(ctx.Ctx, connString)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to postgres: %w", err)
		}
		if err := store.RunMigrations(ctx.Ctx); err != nil {
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
		return store, nil

	case config.SourceSheets:
		ctx.Logger.Debug("Initializing Google Sheets record source",
			zap.String("spreadsheet_id", ctx.Cfg.Sheets.SpreadsheetID))
		client, err := sheetsclient.NewClient(ctx.Ctx, ctx.Cfg.Sheets)
		if err != nil {
			return nil, fmt.Errorf("failed to create sheets client: %w", err)
		}
		return client, nil

	default:
		return nil, fmt.Errorf("unknown record source %q", ctx.Cfg.Source)
	}
}
