package moderation

import (
	"context"
	"log/slog"

	"github.com/go-telegram/bot/models"
)

// UpdateFetcher retrieves stored updates from the chat platform.
type UpdateFetcher interface {
	Fetch(ctx context.Context, offset int64, limit int) ([]models.Update, error)
}

// Reconciler drains the update backlog accumulated while the process was
// down and replays every message through the moderation pipeline before
// live handling starts.
type Reconciler struct {
	fetcher UpdateFetcher
	engine  *Engine
	limit   int
	logger  *slog.Logger
}

// NewReconciler creates a backlog reconciler.
func NewReconciler(fetcher UpdateFetcher, engine *Engine, limit int, logger *slog.Logger) *Reconciler {
	return &Reconciler{
		fetcher: fetcher,
		engine:  engine,
		limit:   limit,
		logger:  logger.With("component", "backlog_reconciler"),
	}
}

// Run fetches the stored backlog, replays every message in backlog mode,
// and acknowledges the processed updates so the live stream starts past
// them. A fetch failure is logged and skipped; startup proceeds either way.
func (r *Reconciler) Run(ctx context.Context) {
	updates, err := r.fetcher.Fetch(ctx, 0, r.limit)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to fetch update backlog, continuing with live handling", "error", err)
		return
	}

	if len(updates) == 0 {
		r.logger.InfoContext(ctx, "No backlog updates to process")
		return
	}

	r.logger.InfoContext(ctx, "Processing update backlog", "count", len(updates))

	var lastUpdateID int64
	for i := range updates {
		update := &updates[i]
		lastUpdateID = update.ID

		if update.Message == nil {
			continue
		}

		outcome := r.engine.Process(ctx, update.Message, ModeBacklog)
		r.logger.DebugContext(ctx, "Backlog message processed",
			"update_id", update.ID,
			"chat_id", update.Message.Chat.ID,
			"message_id", update.Message.ID,
			"outcome", outcome.String())
	}

	// Confirming the batch shifts Telegram's stored offset; the returned
	// updates, if any, are redelivered by the live stream.
	if _, err := r.fetcher.Fetch(ctx, lastUpdateID+1, 1); err != nil {
		r.logger.WarnContext(ctx, "Failed to acknowledge processed backlog", "error", err)
	}

	r.logger.InfoContext(ctx, "Backlog processing complete", "count", len(updates))
}
