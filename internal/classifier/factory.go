package classifier

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ronnietg/adbot/internal/config"
)

// New creates a classifier Client for the configured provider.
func New(ctx context.Context, cfg config.LLMConfig, logger *slog.Logger) (Client, error) {
	switch cfg.Provider {
	case "openai":
		return newOpenAIClient(cfg, logger), nil
	case "gemini":
		return newGeminiClient(ctx, cfg, logger)
	default:
		return nil, fmt.Errorf("unknown classifier provider: %q", cfg.Provider)
	}
}
