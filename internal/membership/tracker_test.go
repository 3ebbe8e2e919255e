package membership

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/go-telegram/bot/models"

	"github.com/ronnietg/adbot/internal/database"
)

type fakeStore struct {
	records   map[[2]int64]time.Time
	getErr    error
	recordErr error
	writes    int
}

func newFakeStore() *fakeStore {
	return &fakeStore{records: make(map[[2]int64]time.Time)}
}

func (f *fakeStore) RecordMembership(_ context.Context, chatID, userID int64, joinedAt time.Time) (bool, error) {
	if f.recordErr != nil {
		return false, f.recordErr
	}
	key := [2]int64{chatID, userID}
	if existing, ok := f.records[key]; ok && existing.Equal(joinedAt) {
		return false, nil
	}
	f.records[key] = joinedAt
	f.writes++
	return true, nil
}

func (f *fakeStore) GetMembership(_ context.Context, chatID, userID int64) (*database.Membership, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	joined, ok := f.records[[2]int64{chatID, userID}]
	if !ok {
		return nil, nil
	}
	return &database.Membership{ChatID: chatID, UserID: userID, JoinedAt: joined}, nil
}

func newTestTracker(store Store) *Tracker {
	return NewTracker(store, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestRecordJoin(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	joined := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)

	t.Run("records new member", func(t *testing.T) {
		t.Parallel()

		store := newFakeStore()
		tracker := newTestTracker(store)

		err := tracker.RecordJoin(ctx, 100, &models.User{ID: 7}, joined)
		if err != nil {
			t.Fatalf("RecordJoin failed: %v", err)
		}
		if store.writes != 1 {
			t.Errorf("expected 1 write, got %d", store.writes)
		}
	})

	t.Run("nil user is a no-op", func(t *testing.T) {
		t.Parallel()

		store := newFakeStore()
		tracker := newTestTracker(store)

		if err := tracker.RecordJoin(ctx, 100, nil, joined); err != nil {
			t.Fatalf("RecordJoin failed: %v", err)
		}
		if err := tracker.RecordJoin(ctx, 100, &models.User{ID: 0}, joined); err != nil {
			t.Fatalf("RecordJoin failed: %v", err)
		}
		if store.writes != 0 {
			t.Errorf("expected no writes, got %d", store.writes)
		}
	})

	t.Run("store error is surfaced", func(t *testing.T) {
		t.Parallel()

		store := newFakeStore()
		store.recordErr = errors.New("disk full")
		tracker := newTestTracker(store)

		if err := tracker.RecordJoin(ctx, 100, &models.User{ID: 7}, joined); err == nil {
			t.Error("expected error from failing store")
		}
	})
}

func TestHasExceededGracePeriod(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	grace := 720 * time.Hour
	joined := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		setup     func(*fakeStore)
		userID    int64
		reference time.Time
		want      bool
	}{
		{
			name: "tenure well past grace period",
			setup: func(s *fakeStore) {
				s.records[[2]int64{100, 7}] = joined
			},
			userID:    7,
			reference: joined.Add(grace + 240*time.Hour),
			want:      true,
		},
		{
			name: "tenure exactly at grace period boundary",
			setup: func(s *fakeStore) {
				s.records[[2]int64{100, 7}] = joined
			},
			userID:    7,
			reference: joined.Add(grace),
			want:      true,
		},
		{
			name: "one second short of grace period",
			setup: func(s *fakeStore) {
				s.records[[2]int64{100, 7}] = joined
			},
			userID:    7,
			reference: joined.Add(grace - time.Second),
			want:      false,
		},
		{
			name:      "unknown member",
			setup:     func(*fakeStore) {},
			userID:    7,
			reference: joined.Add(grace * 2),
			want:      false,
		},
		{
			name: "lookup failure treated as unknown",
			setup: func(s *fakeStore) {
				s.getErr = errors.New("database locked")
			},
			userID:    7,
			reference: joined.Add(grace * 2),
			want:      false,
		},
		{
			name:      "zero user id",
			setup:     func(*fakeStore) {},
			userID:    0,
			reference: joined.Add(grace * 2),
			want:      false,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			store := newFakeStore()
			tc.setup(store)
			tracker := newTestTracker(store)

			got := tracker.HasExceededGracePeriod(ctx, 100, tc.userID, tc.reference, grace)
			if got != tc.want {
				t.Errorf("HasExceededGracePeriod = %v, want %v", got, tc.want)
			}
		})
	}
}
