package moderation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-telegram/bot/models"
)

type fetchCall struct {
	offset int64
	limit  int
}

type fakeFetcher struct {
	updates []models.Update
	err     error
	calls   []fetchCall
}

func (f *fakeFetcher) Fetch(_ context.Context, offset int64, limit int) ([]models.Update, error) {
	f.calls = append(f.calls, fetchCall{offset: offset, limit: limit})
	if f.err != nil {
		return nil, f.err
	}
	if len(f.calls) > 1 {
		// The acknowledgement fetch returns nothing.
		return nil, nil
	}
	return f.updates, nil
}

func backlogUpdate(updateID int64, messageID int, text string) models.Update {
	return models.Update{
		ID: updateID,
		Message: &models.Message{
			ID:   messageID,
			Date: int(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC).Unix()),
			Chat: models.Chat{ID: -100, Type: models.ChatTypeSupergroup},
			From: &models.User{ID: 42},
			Text: text,
		},
	}
}

func TestReconcilerRun(t *testing.T) {
	t.Parallel()

	t.Run("replays backlog silently and acknowledges", func(t *testing.T) {
		t.Parallel()

		gw := &fakeGateway{}
		env := newTestEnv(t, &fakeClassifier{score: 9}, gw)

		fetcher := &fakeFetcher{updates: []models.Update{
			backlogUpdate(11, 1, "spam one @seller"),
			backlogUpdate(12, 2, "spam two @seller"),
		}}

		rec := NewReconciler(fetcher, env.engine, 20, discardLogger())
		rec.Run(context.Background())

		if gw.deletes != 2 {
			t.Errorf("expected 2 deletions, got %d", gw.deletes)
		}
		if gw.notifies != 0 {
			t.Errorf("expected no notices during backlog replay, got %d", gw.notifies)
		}
		if got := classificationCount(t, env.store); got != 2 {
			t.Errorf("expected 2 records, got %d", got)
		}

		if len(fetcher.calls) != 2 {
			t.Fatalf("expected 2 fetch calls, got %d", len(fetcher.calls))
		}
		if fetcher.calls[0].offset != 0 || fetcher.calls[0].limit != 20 {
			t.Errorf("unexpected initial fetch call %+v", fetcher.calls[0])
		}
		if fetcher.calls[1].offset != 13 || fetcher.calls[1].limit != 1 {
			t.Errorf("expected acknowledgement at offset 13 limit 1, got %+v", fetcher.calls[1])
		}
	})

	t.Run("empty backlog skips acknowledgement", func(t *testing.T) {
		t.Parallel()

		env := newTestEnv(t, &fakeClassifier{score: 1}, &fakeGateway{})
		fetcher := &fakeFetcher{}

		rec := NewReconciler(fetcher, env.engine, 20, discardLogger())
		rec.Run(context.Background())

		if len(fetcher.calls) != 1 {
			t.Errorf("expected only the initial fetch, got %d calls", len(fetcher.calls))
		}
	})

	t.Run("fetch failure does not block startup", func(t *testing.T) {
		t.Parallel()

		env := newTestEnv(t, &fakeClassifier{score: 1}, &fakeGateway{})
		fetcher := &fakeFetcher{err: errors.New("network unreachable")}

		rec := NewReconciler(fetcher, env.engine, 20, discardLogger())
		rec.Run(context.Background())

		if len(fetcher.calls) != 1 {
			t.Errorf("expected only the failing fetch, got %d calls", len(fetcher.calls))
		}
		if got := classificationCount(t, env.store); got != 0 {
			t.Errorf("expected no records, got %d", got)
		}
	})

	t.Run("updates without messages are skipped", func(t *testing.T) {
		t.Parallel()

		cls := &fakeClassifier{score: 1}
		env := newTestEnv(t, cls, &fakeGateway{})

		fetcher := &fakeFetcher{updates: []models.Update{
			{ID: 21},
			backlogUpdate(22, 1, "hello"),
		}}

		rec := NewReconciler(fetcher, env.engine, 20, discardLogger())
		rec.Run(context.Background())

		if cls.calls != 1 {
			t.Errorf("expected 1 classification, got %d", cls.calls)
		}
		if fetcher.calls[1].offset != 23 {
			t.Errorf("expected acknowledgement at offset 23, got %d", fetcher.calls[1].offset)
		}
	})
}
