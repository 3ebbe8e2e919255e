package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/ronnietg/adbot/internal/config"
)

// openAIClient scores messages through an OpenAI-compatible chat
// completions endpoint.
type openAIClient struct {
	baseURL         string
	token           string
	model           string
	maxOutputTokens int
	httpClient      *http.Client
	logger          *slog.Logger
}

func newOpenAIClient(cfg config.LLMConfig, logger *slog.Logger) *openAIClient {
	return &openAIClient{
		baseURL:         strings.TrimSuffix(cfg.BaseURL, "/"),
		token:           cfg.Token,
		model:           cfg.Model,
		maxOutputTokens: cfg.MaxOutputTokens,
		httpClient:      &http.Client{Timeout: cfg.Timeout},
		logger:          logger.With("component", "classifier", "provider", "openai"),
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Classify sends the scoring prompt to the chat completions endpoint and
// parses the numeric verdict from the first choice.
func (c *openAIClient) Classify(ctx context.Context, text string) (Result, error) {
	payload := chatCompletionRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: SystemInstruction},
			{Role: "user", Content: BuildUserPrompt(text)},
		},
		Temperature: 0,
		MaxTokens:   c.maxOutputTokens,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return Result{}, fmt.Errorf("failed to marshal completion request: %w", err)
	}

	url := c.baseURL + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return Result{}, fmt.Errorf("failed to create completion request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("completion request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Result{}, fmt.Errorf("failed to read completion response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Result{}, fmt.Errorf("completion request returned status %d: %s",
			resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	var completion chatCompletionResponse
	if err := json.Unmarshal(respBody, &completion); err != nil {
		return Result{}, fmt.Errorf("failed to decode completion response: %w", err)
	}
	if len(completion.Choices) == 0 {
		return Result{}, fmt.Errorf("completion response contained no choices")
	}

	answer := strings.TrimSpace(completion.Choices[0].Message.Content)
	score := ParseScore(answer)

	c.logger.DebugContext(ctx, "Message classified",
		"score", score, "raw_answer", answer, "duration", time.Since(start))

	return Result{Score: score, RawAnswer: answer}, nil
}
