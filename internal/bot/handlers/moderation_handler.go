package handlers

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/ronnietg/adbot/internal/moderation"
)

// NewModerationHandler creates the handler that runs every live message
// update through the moderation pipeline.
func NewModerationHandler(deps HandlerDeps) bot.HandlerFunc {
	log := deps.Logger.With("handler", "moderation")

	return func(ctx context.Context, _ *bot.Bot, update *models.Update) {
		if update == nil || update.Message == nil {
			return
		}

		outcome := deps.Engine.Process(ctx, update.Message, moderation.ModeLive)

		log.DebugContext(ctx, "Live message processed",
			"update_id", update.ID,
			"chat_id", update.Message.Chat.ID,
			"message_id", update.Message.ID,
			"outcome", outcome.String())
	}
}

// MatchMessageUpdates reports whether an update carries a message. It is the
// match function the moderation handler is registered with.
func MatchMessageUpdates(update *models.Update) bool {
	return update != nil && update.Message != nil
}
