package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
)

// Store defines the interface for durable moderation state.
// Methods accept context.Context for cancellation and timeouts. Every
// mutating call commits synchronously before returning; a commit failure
// surfaces to the caller rather than being swallowed.
type Store interface {
	// Ping checks the database connection.
	Ping(ctx context.Context) error

	// UpsertClassification inserts a classification record, replacing any
	// existing record with the same (chat_id, message_id) key.
	UpsertClassification(ctx context.Context, record *Classification) error

	// RecordMembership records when a user joined a chat. The write is
	// idempotent: if the stored joined_at equals the incoming one, nothing
	// is written. A different joined_at overwrites the record. The boolean
	// reports whether a durable write happened.
	RecordMembership(ctx context.Context, chatID, userID int64, joinedAt time.Time) (bool, error)

	// GetMembership retrieves a membership record. Returns nil, nil if none exists.
	GetMembership(ctx context.Context, chatID, userID int64) (*Membership, error)

	// AllClassifications retrieves every classification record in insertion order.
	AllClassifications(ctx context.Context) ([]*Classification, error)

	// RunSQLMaintenance performs database maintenance tasks like VACUUM.
	RunSQLMaintenance(ctx context.Context) error
}

// sqlxStore provides an implementation of the Store interface using sqlx.
type sqlxStore struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewStore creates a new Store implementation backed by sqlx.
// It requires a connected sqlx.DB instance and a logger.
func NewStore(db *sqlx.DB, logger *slog.Logger) Store {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &sqlxStore{
		db:     db,
		logger: logger.With("component", "store"),
	}
}

// Ping checks the database connection.
func (s *sqlxStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// UpsertClassification inserts or replaces a classification record keyed by
// (chat_id, message_id).
func (s *sqlxStore) UpsertClassification(ctx context.Context, record *Classification) error {
	if record == nil {
		return fmt.Errorf("cannot save nil classification record")
	}
	if record.ChatID == 0 {
		return fmt.Errorf("classification record must have a non-zero chat_id")
	}
	if record.MessageID == 0 {
		return fmt.Errorf("classification record must have a non-zero message_id")
	}
	if record.Text == "" {
		return fmt.Errorf("classification record must have non-empty text")
	}

	now := time.Now().UTC()
	record.CreatedAt = now
	record.UpdatedAt = now

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to begin transaction for classification upsert",
			"chat_id", record.ChatID, "message_id", record.MessageID, "error", err)
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if tx != nil {
			if rollbackErr := tx.Rollback(); rollbackErr != nil {
				if !errors.Is(rollbackErr, sql.ErrTxDone) {
					s.logger.WarnContext(ctx, "Error rolling back transaction", "error", rollbackErr)
				}
			}
		}
	}()

	query := `
        INSERT INTO classifications (
            chat_id, chat_title, message_id, user_id, username,
            text, score, raw_answer, evaluated_at,
            deleted, deleted_at, deletion_skipped,
            created_at, updated_at
        ) VALUES (
            :chat_id, :chat_title, :message_id, :user_id, :username,
            :text, :score, :raw_answer, :evaluated_at,
            :deleted, :deleted_at, :deletion_skipped,
            :created_at, :updated_at
        )
        ON CONFLICT (chat_id, message_id) DO UPDATE SET
            chat_title       = excluded.chat_title,
            user_id          = excluded.user_id,
            username         = excluded.username,
            text             = excluded.text,
            score            = excluded.score,
            raw_answer       = excluded.raw_answer,
            evaluated_at     = excluded.evaluated_at,
            deleted          = excluded.deleted,
            deleted_at       = excluded.deleted_at,
            deletion_skipped = excluded.deletion_skipped,
            updated_at       = excluded.updated_at;
    `

	result, err := tx.NamedExecContext(ctx, query, record)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error upserting classification",
			"chat_id", record.ChatID, "message_id", record.MessageID, "error", err)
		return fmt.Errorf("failed to upsert classification (chat %d, message %d): %w",
			record.ChatID, record.MessageID, err)
	}

	if id, idErr := result.LastInsertId(); idErr == nil && id > 0 {
		//nolint:gosec // integer overflow conversion is acceptable here
		record.ID = uint(id)
	}

	if err := tx.Commit(); err != nil {
		s.logger.ErrorContext(ctx, "Failed to commit classification upsert",
			"chat_id", record.ChatID, "message_id", record.MessageID, "error", err)
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	tx = nil

	s.logger.DebugContext(ctx, "Classification persisted",
		"chat_id", record.ChatID, "message_id", record.MessageID, "score", record.Score)
	return nil
}

// RecordMembership records the join time for a user in a chat. Writing the
// same joined_at twice produces exactly one durable write.
func (s *sqlxStore) RecordMembership(ctx context.Context, chatID, userID int64, joinedAt time.Time) (bool, error) {
	if chatID == 0 {
		return false, fmt.Errorf("chat_id cannot be zero")
	}
	if userID == 0 {
		return false, fmt.Errorf("user_id cannot be zero")
	}
	if joinedAt.IsZero() {
		return false, fmt.Errorf("joined_at cannot be zero")
	}

	joinedAt = joinedAt.UTC()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to begin transaction for membership write",
			"chat_id", chatID, "user_id", userID, "error", err)
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if tx != nil {
			if rollbackErr := tx.Rollback(); rollbackErr != nil {
				if !errors.Is(rollbackErr, sql.ErrTxDone) {
					s.logger.WarnContext(ctx, "Error rolling back transaction", "error", rollbackErr)
				}
			}
		}
	}()

	var existing time.Time
	err = tx.GetContext(ctx, &existing,
		`SELECT joined_at FROM memberships WHERE chat_id = ? AND user_id = ?`, chatID, userID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		s.logger.ErrorContext(ctx, "Error checking existing membership",
			"chat_id", chatID, "user_id", userID, "error", err)
		return false, fmt.Errorf("failed to check existing membership (chat %d, user %d): %w", chatID, userID, err)
	}

	// Identical join time means a replayed event; skip the redundant write.
	if err == nil && existing.UTC().Equal(joinedAt) {
		return false, nil
	}

	now := time.Now().UTC()
	query := `
        INSERT INTO memberships (chat_id, user_id, joined_at, created_at, updated_at)
        VALUES (?, ?, ?, ?, ?)
        ON CONFLICT (chat_id, user_id) DO UPDATE SET
            joined_at  = excluded.joined_at,
            updated_at = excluded.updated_at;
    `
	if _, err := tx.ExecContext(ctx, query, chatID, userID, joinedAt, now, now); err != nil {
		s.logger.ErrorContext(ctx, "Error recording membership",
			"chat_id", chatID, "user_id", userID, "error", err)
		return false, fmt.Errorf("failed to record membership (chat %d, user %d): %w", chatID, userID, err)
	}

	if err := tx.Commit(); err != nil {
		s.logger.ErrorContext(ctx, "Failed to commit membership write",
			"chat_id", chatID, "user_id", userID, "error", err)
		return false, fmt.Errorf("failed to commit transaction: %w", err)
	}
	tx = nil

	s.logger.DebugContext(ctx, "Membership recorded",
		"chat_id", chatID, "user_id", userID, "joined_at", joinedAt)
	return true, nil
}

// GetMembership retrieves a membership record. Returns nil, nil if not found.
func (s *sqlxStore) GetMembership(ctx context.Context, chatID, userID int64) (*Membership, error) {
	if chatID == 0 {
		return nil, fmt.Errorf("chat_id cannot be zero")
	}
	if userID == 0 {
		return nil, fmt.Errorf("user_id cannot be zero")
	}

	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	var membership Membership
	query := `SELECT id, created_at, updated_at, chat_id, user_id, joined_at
	          FROM memberships WHERE chat_id = ? AND user_id = ?`

	err := s.db.GetContext(ctx, &membership, query, chatID, userID)

	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, nil

	case errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled):
		s.logger.WarnContext(ctx, "Context timeout or cancellation while fetching membership",
			"chat_id", chatID, "user_id", userID, "error", err)
		return nil, err

	case err != nil:
		s.logger.ErrorContext(ctx, "Error getting membership",
			"chat_id", chatID, "user_id", userID, "error", err)
		return nil, fmt.Errorf("failed to get membership (chat %d, user %d): %w", chatID, userID, err)
	}

	return &membership, nil
}

// AllClassifications retrieves every classification record in insertion order.
func (s *sqlxStore) AllClassifications(ctx context.Context) ([]*Classification, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	var records []*Classification
	query := `SELECT id, created_at, updated_at, chat_id, chat_title, message_id, user_id, username,
	                 text, score, raw_answer, evaluated_at, deleted, deleted_at, deletion_skipped
	          FROM classifications
	          ORDER BY id ASC`

	err := s.db.SelectContext(ctx, &records, query)

	switch {
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled):
		s.logger.WarnContext(ctx, "Context timeout or cancellation while fetching classifications", "error", err)
		return nil, err

	case err != nil:
		s.logger.ErrorContext(ctx, "Error getting all classifications", "error", err)
		return nil, fmt.Errorf("failed to get all classifications: %w", err)
	}

	return records, nil
}

// RunSQLMaintenance executes a VACUUM command on the SQLite database.
func (s *sqlxStore) RunSQLMaintenance(ctx context.Context) error {
	if ctx.Err() != nil {
		s.logger.WarnContext(ctx, "Context cancelled or timed out before starting VACUUM", "error", ctx.Err())
		return ctx.Err()
	}

	s.logger.InfoContext(ctx, "Starting database maintenance (VACUUM)...")

	if _, err := s.db.ExecContext(ctx, "PRAGMA busy_timeout = 5000;"); err != nil {
		s.logger.WarnContext(ctx, "Failed to set busy timeout", "error", err)
	}

	// VACUUM must run outside a transaction in SQLite.
	_, err := s.db.ExecContext(ctx, "VACUUM;")

	switch {
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled):
		s.logger.WarnContext(ctx, "VACUUM operation timed out or was cancelled", "error", err)
		return fmt.Errorf("database maintenance (VACUUM) timed out: %w", err)

	case err != nil:
		s.logger.ErrorContext(ctx, "Database maintenance (VACUUM) failed", "error", err)
		return fmt.Errorf("failed to execute VACUUM: %w", err)

	default:
		s.logger.InfoContext(ctx, "Database maintenance (VACUUM) completed successfully")
	}

	return nil
}
