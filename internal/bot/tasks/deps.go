// Package tasks defines the scheduled background tasks and their registry.
package tasks

import (
	"context"
	"log/slog"

	"github.com/ronnietg/adbot/internal/config"
	"github.com/ronnietg/adbot/internal/database"
)

// ScheduledTaskFunc is the signature every scheduled task implements.
type ScheduledTaskFunc func(ctx context.Context) error

// TaskDeps holds the dependencies scheduled tasks need.
type TaskDeps struct {
	Logger *slog.Logger
	Config *config.Config
	Store  database.Store
}
