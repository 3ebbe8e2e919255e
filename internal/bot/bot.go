// Package bot wires the application components together and manages their
// lifecycle.
package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	tgbot "github.com/go-telegram/bot"
	"github.com/jmoiron/sqlx"
	"golang.org/x/sync/errgroup"

	"github.com/ronnietg/adbot/internal/config"
	"github.com/ronnietg/adbot/internal/database"
	"github.com/ronnietg/adbot/internal/moderation"
)

// Bot represents the main application and manages its components' lifecycle.
type Bot struct {
	logger     *slog.Logger
	cfg        *config.Config
	db         *sqlx.DB
	store      database.Store
	reconciler *moderation.Reconciler
	tgBot      *tgbot.Bot
	scheduler  *Scheduler
}

// NewBot creates a new application instance with all required dependencies.
func NewBot(
	logger *slog.Logger,
	cfg *config.Config,
	db *sqlx.DB,
	store database.Store,
	reconciler *moderation.Reconciler,
	tgBot *tgbot.Bot,
	scheduler *Scheduler,
) *Bot {
	return &Bot{
		logger:     logger.With("component", "bot_orchestrator"),
		cfg:        cfg,
		db:         db,
		store:      store,
		reconciler: reconciler,
		tgBot:      tgBot,
		scheduler:  scheduler,
	}
}

// Run drains the update backlog, then starts the live listener and the
// scheduler, and handles graceful shutdown on context cancellation.
func (b *Bot) Run(ctx context.Context) error {
	b.logger.Info("Starting bot orchestrator...")

	// The backlog must be drained before the live long-poll loop claims
	// the update stream.
	b.reconciler.Run(ctx)

	if ctx.Err() != nil {
		return ctx.Err()
	}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		b.logger.Info("Starting Telegram bot listener...")

		b.tgBot.Start(gCtx)
		b.logger.Info("Telegram bot listener stopped.")

		if gCtx.Err() == nil {
			b.logger.Warn("Telegram bot listener stopped unexpectedly without context cancellation.")
			return fmt.Errorf("telegram listener stopped unexpectedly")
		}
		return nil
	})

	g.Go(func() error {
		b.logger.Info("Starting scheduler...")
		if err := b.scheduler.Start(); err != nil {
			b.logger.Error("Failed to start scheduler", "error", err)
			return fmt.Errorf("failed to start scheduler: %w", err)
		}

		<-gCtx.Done()
		b.logger.Info("Shutdown signal received, stopping scheduler...")

		if err := b.scheduler.Stop(); err != nil {
			b.logger.Error("Error stopping scheduler", "error", err)
		}

		return nil
	})

	b.logger.Info("Bot orchestrator running. Waiting for shutdown signal or error...")
	err := g.Wait()

	if err != nil && !errors.Is(err, context.Canceled) {
		b.logger.Error("Bot orchestrator stopped due to error", "error", err)
		return err
	}

	b.logger.Info("Bot orchestrator stopped gracefully.")
	return nil
}
