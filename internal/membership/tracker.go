// Package membership tracks when users join chats and answers tenure queries.
package membership

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-telegram/bot/models"

	"github.com/ronnietg/adbot/internal/database"
)

// Store is the subset of the data access layer the tracker needs.
type Store interface {
	RecordMembership(ctx context.Context, chatID, userID int64, joinedAt time.Time) (bool, error)
	GetMembership(ctx context.Context, chatID, userID int64) (*database.Membership, error)
}

// Tracker records chat joins and evaluates membership tenure.
type Tracker struct {
	store  Store
	logger *slog.Logger
}

// NewTracker creates a membership tracker backed by the given store.
func NewTracker(store Store, logger *slog.Logger) *Tracker {
	return &Tracker{
		store:  store,
		logger: logger.With("component", "membership"),
	}
}

// RecordJoin persists the join time for a new chat member. Users without an
// ID are skipped. The join time overwrites any earlier record, so a user who
// leaves and returns starts their tenure over.
func (t *Tracker) RecordJoin(ctx context.Context, chatID int64, user *models.User, joinedAt time.Time) error {
	if user == nil || user.ID == 0 {
		return nil
	}

	wrote, err := t.store.RecordMembership(ctx, chatID, user.ID, joinedAt)
	if err != nil {
		return err
	}
	if wrote {
		t.logger.InfoContext(ctx, "Member join recorded",
			"chat_id", chatID, "user_id", user.ID, "joined_at", joinedAt)
	}
	return nil
}

// HasExceededGracePeriod reports whether the user's recorded tenure in the
// chat is at least the grace period as of the reference time. Unknown
// members and lookup failures count as not exceeding, so they still get
// classified.
func (t *Tracker) HasExceededGracePeriod(ctx context.Context, chatID, userID int64, reference time.Time, grace time.Duration) bool {
	if userID == 0 {
		return false
	}

	record, err := t.store.GetMembership(ctx, chatID, userID)
	if err != nil {
		t.logger.WarnContext(ctx, "Failed to look up membership, treating tenure as unknown",
			"chat_id", chatID, "user_id", userID, "error", err)
		return false
	}
	if record == nil {
		return false
	}

	return reference.Sub(record.JoinedAt) >= grace
}
