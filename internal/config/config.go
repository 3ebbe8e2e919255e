// Package config handles loading and validating application configuration
// from a YAML file and BOT_ prefixed environment variables.
package config

import (
	"errors"
	"time"

	"github.com/go-telegram/bot/models"
)

// ErrConfiguration indicates a configuration loading or validation error.
var ErrConfiguration = errors.New("configuration error")

// Config holds the complete application configuration.
type Config struct {
	Log        LogConfig        `mapstructure:"log"`
	Telegram   TelegramConfig   `mapstructure:"telegram"`
	LLM        LLMConfig        `mapstructure:"llm"`
	Moderation ModerationConfig `mapstructure:"moderation"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Scheduler  SchedulerConfig  `mapstructure:"scheduler"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `mapstructure:"level" validate:"omitempty,oneof=debug info warn error"`
	JSON  bool   `mapstructure:"json"`
}

// TelegramConfig holds Telegram bot settings.
type TelegramConfig struct {
	Token string `mapstructure:"token" validate:"required"`

	// BacklogLimit caps how many stored updates are drained at startup.
	// Telegram allows at most 100 per getUpdates call.
	BacklogLimit int `mapstructure:"backlog_limit" validate:"min=1,max=100"`

	// BotInfo is populated at startup from getMe, not from configuration.
	BotInfo *models.User `mapstructure:"-"`
}

// LLMConfig holds settings for the advertisement scoring model.
type LLMConfig struct {
	Provider        string        `mapstructure:"provider" validate:"required,oneof=openai gemini"`
	Token           string        `mapstructure:"token" validate:"required"`
	BaseURL         string        `mapstructure:"base_url" validate:"omitempty,url"`
	Model           string        `mapstructure:"model" validate:"required"`
	MaxOutputTokens int           `mapstructure:"max_output_tokens" validate:"min=1"`
	Timeout         time.Duration `mapstructure:"timeout" validate:"min=1s,max=10m"`
}

// ModerationConfig holds the moderation policy settings.
type ModerationConfig struct {
	// ScoreThreshold is the score a message must exceed to be deleted.
	ScoreThreshold int `mapstructure:"score_threshold" validate:"min=0,max=10"`

	// GracePeriod is the membership tenure after which users are exempt
	// from classification.
	GracePeriod time.Duration `mapstructure:"grace_period" validate:"min=1m"`

	// DeletedNotice is the reply posted after a deletion. It must contain
	// one %d verb for the score.
	DeletedNotice string `mapstructure:"deleted_notice" validate:"required"`

	// ErrorNotice is the reply posted when classification fails in live mode.
	ErrorNotice string `mapstructure:"error_notice" validate:"required"`
}

// DatabaseConfig holds database settings.
type DatabaseConfig struct {
	Path string `mapstructure:"path" validate:"required"`
}

// SchedulerConfig holds settings for scheduled background tasks.
type SchedulerConfig struct {
	Tasks map[string]TaskConfig `mapstructure:"tasks" validate:"dive"`
}

// TaskConfig holds settings for a single scheduled task.
type TaskConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Schedule string `mapstructure:"schedule" validate:"required_if=Enabled true"`
}
