// Package moderation implements the advertisement moderation pipeline:
// membership bookkeeping, exemptions, classification, deletion, and
// durable record keeping.
package moderation

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/go-telegram/bot/models"

	"github.com/ronnietg/adbot/internal/classifier"
	"github.com/ronnietg/adbot/internal/database"
	"github.com/ronnietg/adbot/internal/membership"
)

// Mode distinguishes live handling from backlog replay. Backlog replay
// never posts notices into the chat.
type Mode int

const (
	ModeLive Mode = iota
	ModeBacklog
)

func (m Mode) String() string {
	switch m {
	case ModeLive:
		return "live"
	case ModeBacklog:
		return "backlog"
	default:
		return "unknown"
	}
}

// Outcome reports how a message moved through the pipeline.
type Outcome int

const (
	// OutcomeIgnored means the message was out of scope: wrong chat type
	// or no text to evaluate.
	OutcomeIgnored Outcome = iota

	// OutcomeExemptAdmin means the sender was a chat admin at evaluation
	// time, so no classification happened.
	OutcomeExemptAdmin

	// OutcomeExemptTenure means the sender's membership tenure exceeded
	// the grace period, so no classification happened.
	OutcomeExemptTenure

	// OutcomeClassifierFailed means the verdict is unknown; nothing was
	// deleted or recorded.
	OutcomeClassifierFailed

	// OutcomeStoreFailed means a verdict was obtained but could not be
	// durably recorded.
	OutcomeStoreFailed

	// OutcomeRecorded means the verdict was recorded and the message kept.
	OutcomeRecorded

	// OutcomeDeleted means the verdict was recorded and the message deleted.
	OutcomeDeleted
)

func (o Outcome) String() string {
	switch o {
	case OutcomeIgnored:
		return "ignored"
	case OutcomeExemptAdmin:
		return "exempt_admin"
	case OutcomeExemptTenure:
		return "exempt_tenure"
	case OutcomeClassifierFailed:
		return "classifier_failed"
	case OutcomeStoreFailed:
		return "store_failed"
	case OutcomeRecorded:
		return "recorded"
	case OutcomeDeleted:
		return "deleted"
	default:
		return "unknown"
	}
}

// deletionSkippedAdmin marks records whose deletion was skipped because
// the sender was a chat admin.
const deletionSkippedAdmin = "chat_admin"

const (
	storeRetryAttempts = 3
	storeRetryBaseWait = 500 * time.Millisecond
)

// Gateway performs the chat actions the engine needs.
type Gateway interface {
	DeleteMessage(ctx context.Context, chatID int64, messageID int) error
	Notify(ctx context.Context, chatID int64, text string, replyTo int) error
	IsAdmin(ctx context.Context, chatID, userID int64) bool
}

// Config holds the moderation policy.
type Config struct {
	// ScoreThreshold is the score a message must exceed to be deleted.
	ScoreThreshold int

	// GracePeriod is the membership tenure after which senders are exempt.
	GracePeriod time.Duration

	// DeletedNotice is the chat notice posted after a deletion. It must
	// contain one %d verb for the score.
	DeletedNotice string

	// ErrorNotice is the reply posted when classification fails in live mode.
	ErrorNotice string
}

// Engine runs messages through the moderation pipeline.
type Engine struct {
	store      database.Store
	classifier classifier.Client
	tracker    *membership.Tracker
	gateway    Gateway
	cfg        Config
	logger     *slog.Logger

	// Per-chat locks serialize evaluation within a chat so interleaved
	// updates cannot race on membership and classification records.
	mu        sync.Mutex
	chatLocks map[int64]*sync.Mutex
}

// NewEngine creates a moderation engine.
func NewEngine(
	store database.Store,
	cls classifier.Client,
	tracker *membership.Tracker,
	gateway Gateway,
	cfg Config,
	logger *slog.Logger,
) *Engine {
	return &Engine{
		store:      store,
		classifier: cls,
		tracker:    tracker,
		gateway:    gateway,
		cfg:        cfg,
		logger:     logger.With("component", "moderation_engine"),
		chatLocks:  make(map[int64]*sync.Mutex),
	}
}

func (e *Engine) chatLock(chatID int64) *sync.Mutex {
	e.mu.Lock()
	defer e.mu.Unlock()

	lock, ok := e.chatLocks[chatID]
	if !ok {
		lock = &sync.Mutex{}
		e.chatLocks[chatID] = lock
	}
	return lock
}

// Process runs a single message through the moderation pipeline and
// reports the outcome. Failures never escape as errors or panics; a
// message that cannot be judged is left in place.
func (e *Engine) Process(ctx context.Context, msg *models.Message, mode Mode) Outcome {
	if msg == nil {
		return OutcomeIgnored
	}

	chatID := msg.Chat.ID

	lock := e.chatLock(chatID)
	lock.Lock()
	defer lock.Unlock()

	messageTime := time.Unix(int64(msg.Date), 0).UTC()

	// Join events are bookkeeping for every chat the bot can see, and a
	// join service message carries no text, so they are recorded before
	// any scope check can drop the update.
	for i := range msg.NewChatMembers {
		member := &msg.NewChatMembers[i]
		if err := e.tracker.RecordJoin(ctx, chatID, member, messageTime); err != nil {
			e.logger.ErrorContext(ctx, "Failed to record member join",
				"chat_id", chatID, "user_id", member.ID, "error", err)
		}
	}

	if msg.Chat.Type != models.ChatTypeGroup && msg.Chat.Type != models.ChatTypeSupergroup {
		return OutcomeIgnored
	}

	text := extractText(msg)
	if text == "" {
		return OutcomeIgnored
	}

	var senderID int64
	if msg.From != nil {
		senderID = msg.From.ID
	}

	// The admin check is snapshotted once and reused at deletion time so
	// both decisions reflect the same moment.
	senderIsAdmin := false
	if senderID != 0 {
		senderIsAdmin = e.gateway.IsAdmin(ctx, chatID, senderID)
	}
	if senderIsAdmin {
		e.logger.DebugContext(ctx, "Skipping admin message",
			"chat_id", chatID, "message_id", msg.ID, "user_id", senderID)
		return OutcomeExemptAdmin
	}

	if senderID != 0 && e.tracker.HasExceededGracePeriod(ctx, chatID, senderID, messageTime, e.cfg.GracePeriod) {
		e.logger.DebugContext(ctx, "Skipping established member message",
			"chat_id", chatID, "message_id", msg.ID, "user_id", senderID)
		return OutcomeExemptTenure
	}

	result, err := e.classifier.Classify(ctx, text)
	if err != nil {
		e.logger.ErrorContext(ctx, "Failed to classify message",
			"chat_id", chatID, "message_id", msg.ID, "mode", mode.String(), "error", err)
		if mode == ModeLive {
			if notifyErr := e.gateway.Notify(ctx, chatID, e.cfg.ErrorNotice, msg.ID); notifyErr != nil {
				e.logger.WarnContext(ctx, "Failed to post classification error notice",
					"chat_id", chatID, "message_id", msg.ID, "error", notifyErr)
			}
		}
		return OutcomeClassifierFailed
	}

	record := e.buildRecord(msg, text, result)

	deleted := false
	if result.Score > e.cfg.ScoreThreshold {
		if senderIsAdmin {
			record.DeletionSkipped = sql.NullString{String: deletionSkippedAdmin, Valid: true}
		} else if err := e.gateway.DeleteMessage(ctx, chatID, msg.ID); err != nil {
			e.logger.ErrorContext(ctx, "Failed to delete flagged message",
				"chat_id", chatID, "message_id", msg.ID, "score", result.Score, "error", err)
		} else {
			deleted = true
			record.Deleted = true
			record.DeletedAt = sql.NullTime{Time: time.Now().UTC(), Valid: true}
			e.logger.InfoContext(ctx, "Deleted flagged message",
				"chat_id", chatID, "message_id", msg.ID, "score", result.Score, "mode", mode.String())
		}
	}

	if err := e.persistWithRetry(ctx, record); err != nil {
		e.logger.ErrorContext(ctx, "Failed to persist classification record",
			"chat_id", chatID, "message_id", msg.ID, "error", err)
		return OutcomeStoreFailed
	}

	if mode == ModeLive && deleted {
		notice := fmt.Sprintf(e.cfg.DeletedNotice, result.Score)
		if err := e.gateway.Notify(ctx, chatID, notice, 0); err != nil {
			e.logger.WarnContext(ctx, "Failed to post deletion notice",
				"chat_id", chatID, "message_id", msg.ID, "error", err)
		}
	}

	if deleted {
		return OutcomeDeleted
	}
	return OutcomeRecorded
}

func (e *Engine) buildRecord(msg *models.Message, text string, result classifier.Result) *database.Classification {
	record := &database.Classification{
		ChatID:      msg.Chat.ID,
		MessageID:   msg.ID,
		Text:        text,
		Score:       result.Score,
		RawAnswer:   result.RawAnswer,
		EvaluatedAt: time.Now().UTC(),
	}

	if msg.Chat.Title != "" {
		record.ChatTitle = sql.NullString{String: msg.Chat.Title, Valid: true}
	}
	if msg.From != nil && msg.From.ID != 0 {
		record.UserID = sql.NullInt64{Int64: msg.From.ID, Valid: true}
		if msg.From.Username != "" {
			record.Username = sql.NullString{String: msg.From.Username, Valid: true}
		}
	}

	return record
}

// persistWithRetry writes the record with bounded retries so a transient
// database lock does not lose a verdict.
func (e *Engine) persistWithRetry(ctx context.Context, record *database.Classification) error {
	var lastErr error
	for i := 0; i < storeRetryAttempts; i++ {
		lastErr = e.store.UpsertClassification(ctx, record)
		if lastErr == nil {
			return nil
		}

		if i < storeRetryAttempts-1 {
			wait := storeRetryBaseWait * time.Duration(i+1)
			e.logger.WarnContext(ctx, "Retrying classification persist",
				"chat_id", record.ChatID, "message_id", record.MessageID,
				"attempt", i+1, "wait", wait, "error", lastErr)

			select {
			case <-time.After(wait):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
	return lastErr
}

func extractText(msg *models.Message) string {
	text := msg.Text
	if text == "" {
		text = msg.Caption
	}
	return strings.TrimSpace(text)
}
