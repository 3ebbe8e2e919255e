package tasks

import (
	"context"
	"fmt"
	"time"
)

const sqlMaintenanceTimeout = 5 * time.Minute

// NewSQLMaintenanceTask returns a task that compacts the SQLite database.
// The moderation pipeline rewrites classification rows on every replayed
// backlog, so periodic VACUUM keeps the file from growing unbounded.
func NewSQLMaintenanceTask(deps TaskDeps) ScheduledTaskFunc {
	log := deps.Logger.With("task", "sql_maintenance")

	return func(ctx context.Context) error {
		taskCtx, cancel := context.WithTimeout(ctx, sqlMaintenanceTimeout)
		defer cancel()

		if err := deps.Store.RunSQLMaintenance(taskCtx); err != nil {
			log.ErrorContext(taskCtx, "SQL maintenance failed", "error", err)
			return fmt.Errorf("sql maintenance task failed: %w", err)
		}
		return nil
	}
}
