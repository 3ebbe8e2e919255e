package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-telegram/bot/models"
)

// UpdatesClient fetches stored updates directly from the Bot API. The bot
// library owns the long-polling loop once it starts, so backlog draining
// uses its own short-poll calls before that loop begins.
type UpdatesClient struct {
	token      string
	apiURL     string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewUpdatesClient creates a client for the getUpdates endpoint.
func NewUpdatesClient(token string, logger *slog.Logger) *UpdatesClient {
	return &UpdatesClient{
		token:      token,
		apiURL:     "https://api.telegram.org",
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     logger.With("component", "updates_client"),
	}
}

type getUpdatesRequest struct {
	Offset         int64    `json:"offset,omitempty"`
	Limit          int      `json:"limit"`
	Timeout        int      `json:"timeout"`
	AllowedUpdates []string `json:"allowed_updates"`
}

type getUpdatesResponse struct {
	OK          bool            `json:"ok"`
	Result      []models.Update `json:"result"`
	Description string          `json:"description"`
}

// Fetch retrieves up to limit stored message updates starting at offset.
// It polls with a zero timeout so it returns immediately when the queue
// is empty.
func (c *UpdatesClient) Fetch(ctx context.Context, offset int64, limit int) ([]models.Update, error) {
	payload := getUpdatesRequest{
		Offset:         offset,
		Limit:          limit,
		Timeout:        0,
		AllowedUpdates: []string{"message"},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal getUpdates request: %w", err)
	}

	url := fmt.Sprintf("%s/bot%s/getUpdates", c.apiURL, c.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create getUpdates request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("getUpdates request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read getUpdates response: %w", err)
	}

	var decoded getUpdatesResponse
	if err := json.Unmarshal(respBody, &decoded); err != nil {
		return nil, fmt.Errorf("failed to decode getUpdates response: %w", err)
	}
	if !decoded.OK {
		return nil, fmt.Errorf("getUpdates returned an error: %s", decoded.Description)
	}

	c.logger.DebugContext(ctx, "Fetched stored updates", "offset", offset, "count", len(decoded.Result))
	return decoded.Result, nil
}
