package telegram

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestUpdatesClientFetch(t *testing.T) {
	t.Parallel()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("decodes stored updates", func(t *testing.T) {
		t.Parallel()

		var gotPath string
		var gotRequest getUpdatesRequest

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotPath = r.URL.Path
			body, _ := io.ReadAll(r.Body)
			if err := json.Unmarshal(body, &gotRequest); err != nil {
				t.Errorf("failed to decode request: %v", err)
			}
			_, _ = w.Write([]byte(`{
				"ok": true,
				"result": [
					{"update_id": 11, "message": {"message_id": 1, "date": 1700000000, "chat": {"id": -100, "type": "supergroup"}, "text": "hello"}},
					{"update_id": 12, "message": {"message_id": 2, "date": 1700000060, "chat": {"id": -100, "type": "supergroup"}, "text": "world"}}
				]
			}`))
		}))
		defer server.Close()

		client := NewUpdatesClient("test-token", logger)
		client.apiURL = server.URL

		updates, err := client.Fetch(context.Background(), 0, 20)
		if err != nil {
			t.Fatalf("Fetch failed: %v", err)
		}

		if gotPath != "/bottest-token/getUpdates" {
			t.Errorf("unexpected request path %q", gotPath)
		}
		if gotRequest.Limit != 20 {
			t.Errorf("expected limit 20, got %d", gotRequest.Limit)
		}
		if gotRequest.Timeout != 0 {
			t.Errorf("expected zero timeout, got %d", gotRequest.Timeout)
		}
		if len(gotRequest.AllowedUpdates) != 1 || gotRequest.AllowedUpdates[0] != "message" {
			t.Errorf("expected allowed_updates [message], got %v", gotRequest.AllowedUpdates)
		}

		if len(updates) != 2 {
			t.Fatalf("expected 2 updates, got %d", len(updates))
		}
		if updates[0].ID != 11 || updates[1].ID != 12 {
			t.Errorf("unexpected update IDs: %d, %d", updates[0].ID, updates[1].ID)
		}
		if updates[0].Message == nil || updates[0].Message.Text != "hello" {
			t.Error("expected first message text to decode")
		}
	})

	t.Run("offset is forwarded", func(t *testing.T) {
		t.Parallel()

		var gotRequest getUpdatesRequest
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			body, _ := io.ReadAll(r.Body)
			_ = json.Unmarshal(body, &gotRequest)
			_, _ = w.Write([]byte(`{"ok": true, "result": []}`))
		}))
		defer server.Close()

		client := NewUpdatesClient("test-token", logger)
		client.apiURL = server.URL

		if _, err := client.Fetch(context.Background(), 13, 1); err != nil {
			t.Fatalf("Fetch failed: %v", err)
		}
		if gotRequest.Offset != 13 {
			t.Errorf("expected offset 13, got %d", gotRequest.Offset)
		}
		if gotRequest.Limit != 1 {
			t.Errorf("expected limit 1, got %d", gotRequest.Limit)
		}
	})

	t.Run("api error is surfaced", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"ok": false, "description": "Unauthorized"}`))
		}))
		defer server.Close()

		client := NewUpdatesClient("bad-token", logger)
		client.apiURL = server.URL

		if _, err := client.Fetch(context.Background(), 0, 20); err == nil {
			t.Fatal("expected error for ok=false response")
		}
	})
}
