package telegram

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// Gateway performs the chat actions the moderation pipeline needs.
type Gateway struct {
	b      *bot.Bot
	logger *slog.Logger
}

// NewGateway creates a Gateway around a connected bot instance.
func NewGateway(b *bot.Bot, logger *slog.Logger) *Gateway {
	return &Gateway{
		b:      b,
		logger: logger.With("component", "telegram_gateway"),
	}
}

// DeleteMessage removes a message from a chat.
func (g *Gateway) DeleteMessage(ctx context.Context, chatID int64, messageID int) error {
	ok, err := g.b.DeleteMessage(ctx, &bot.DeleteMessageParams{
		ChatID:    chatID,
		MessageID: messageID,
	})
	if err != nil {
		return fmt.Errorf("failed to delete message %d in chat %d: %w", messageID, chatID, err)
	}
	if !ok {
		return fmt.Errorf("telegram declined to delete message %d in chat %d", messageID, chatID)
	}
	return nil
}

// Notify posts a silent message to a chat, optionally replying to a message.
// replyTo of 0 sends a plain message.
func (g *Gateway) Notify(ctx context.Context, chatID int64, text string, replyTo int) error {
	params := &bot.SendMessageParams{
		ChatID:              chatID,
		Text:                text,
		DisableNotification: true,
	}
	if replyTo != 0 {
		params.ReplyParameters = &models.ReplyParameters{MessageID: replyTo}
	}

	if _, err := g.b.SendMessage(ctx, params); err != nil {
		return fmt.Errorf("failed to send notice to chat %d: %w", chatID, err)
	}
	return nil
}

// IsAdmin reports whether the user is an owner or administrator of the chat.
// Lookup failures count as not admin so a flaky API call cannot shield a
// message from evaluation.
func (g *Gateway) IsAdmin(ctx context.Context, chatID, userID int64) bool {
	member, err := g.b.GetChatMember(ctx, &bot.GetChatMemberParams{
		ChatID: chatID,
		UserID: userID,
	})
	if err != nil {
		g.logger.WarnContext(ctx, "Failed to look up chat member status, assuming not admin",
			"chat_id", chatID, "user_id", userID, "error", err)
		return false
	}
	if member == nil {
		return false
	}

	return member.Type == models.ChatMemberTypeOwner || member.Type == models.ChatMemberTypeAdministrator
}
