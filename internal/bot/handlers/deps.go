// Package handlers contains the Telegram update handlers.
package handlers

import (
	"log/slog"

	"github.com/ronnietg/adbot/internal/config"
	"github.com/ronnietg/adbot/internal/moderation"
)

// HandlerDeps holds the dependencies handler factories need.
type HandlerDeps struct {
	Logger *slog.Logger
	Config *config.Config
	Engine *moderation.Engine
}
