// Package logger provides structured logging setup and Telegram middleware.
package logger

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// NewLogger creates a new slog.Logger writing to stderr at the given level.
// Unknown levels fall back to info.
func NewLogger(level string, jsonFormat bool) *slog.Logger {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: logLevel}

	var handler slog.Handler
	if jsonFormat {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}

	return slog.New(handler)
}

// Middleware returns bot middleware that logs every handled message update
// with its processing duration.
func Middleware(logger *slog.Logger) bot.Middleware {
	log := logger.With("component", "update_logger")

	return func(next bot.HandlerFunc) bot.HandlerFunc {
		return func(ctx context.Context, b *bot.Bot, update *models.Update) {
			if update == nil || update.Message == nil {
				next(ctx, b, update)
				return
			}

			start := time.Now()
			next(ctx, b, update)

			log.DebugContext(ctx, "Update handled",
				"update_id", update.ID,
				"chat_id", update.Message.Chat.ID,
				"message_id", update.Message.ID,
				"duration", time.Since(start))
		}
	}
}
