package database

import (
	"database/sql"
	"time"
)

// Classification records the outcome of one advertisement evaluation.
// There is at most one row per (chat_id, message_id); re-evaluating the
// same message replaces the previous row.
type Classification struct {
	ID        uint      `db:"id"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`

	ChatID    int64          `db:"chat_id"`
	ChatTitle sql.NullString `db:"chat_title"`
	MessageID int            `db:"message_id"`
	UserID    sql.NullInt64  `db:"user_id"`
	Username  sql.NullString `db:"username"`

	Text        string    `db:"text"`
	Score       int       `db:"score"`
	RawAnswer   string    `db:"raw_answer"`
	EvaluatedAt time.Time `db:"evaluated_at"`

	Deleted         bool           `db:"deleted"`
	DeletedAt       sql.NullTime   `db:"deleted_at"`
	DeletionSkipped sql.NullString `db:"deletion_skipped"`
}

// Membership records when a user joined a chat. One row per
// (chat_id, user_id); a later join overwrites the previous one so a
// re-joining user starts their tenure over.
type Membership struct {
	ID        uint      `db:"id"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`

	ChatID   int64     `db:"chat_id"`
	UserID   int64     `db:"user_id"`
	JoinedAt time.Time `db:"joined_at"`
}
