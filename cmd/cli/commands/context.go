package commands

import (
	"context"

	"go.uber.org/zap"

	"github.com/careops/substitute-planner/internal/config"
	"github.com/careops/substitute-planner/pkg/core/services"
)

// AppContext holds the application dependencies shared across all commands
type AppContext struct {
	Cfg     *config.Config
	Planner *services.Planner
	Logger  *zap.Logger
	Ctx     context.Context
}
