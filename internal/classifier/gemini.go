package classifier

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/ronnietg/adbot/internal/config"
)

// geminiClient scores messages through Google's Gemini API.
type geminiClient struct {
	genaiClient   *genai.Client
	contentConfig *genai.GenerateContentConfig
	model         string
	timeout       time.Duration
	logger        *slog.Logger
}

func newGeminiClient(ctx context.Context, cfg config.LLMConfig, logger *slog.Logger) (*geminiClient, error) {
	gi, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.Token,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	var temperature float32
	//nolint:gosec // bounded by config validation
	maxTokens := int32(cfg.MaxOutputTokens)

	contentConfig := &genai.GenerateContentConfig{
		Temperature:       &temperature,
		MaxOutputTokens:   maxTokens,
		SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: SystemInstruction}}},
	}

	return &geminiClient{
		genaiClient:   gi,
		contentConfig: contentConfig,
		model:         cfg.Model,
		timeout:       cfg.Timeout,
		logger:        logger.With("component", "classifier", "provider", "gemini"),
	}, nil
}

// Classify sends the scoring prompt to Gemini and parses the numeric verdict.
func (c *geminiClient) Classify(ctx context.Context, text string) (Result, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	contents := []*genai.Content{genai.NewContentFromText(BuildUserPrompt(text), genai.RoleUser)}

	start := time.Now()
	resp, err := c.genaiClient.Models.GenerateContent(ctx, c.model, contents, c.contentConfig)
	if err != nil {
		return Result{}, fmt.Errorf("gemini API call failed: %w", err)
	}

	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != genai.BlockedReasonUnspecified {
		return Result{}, fmt.Errorf("gemini request blocked by safety filter: %v", resp.PromptFeedback.BlockReason)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return Result{}, fmt.Errorf("gemini response contained no content")
	}

	answer := strings.TrimSpace(resp.Text())
	score := ParseScore(answer)

	c.logger.DebugContext(ctx, "Message classified",
		"score", score, "raw_answer", answer, "duration", time.Since(start))

	return Result{Score: score, RawAnswer: answer}, nil
}
