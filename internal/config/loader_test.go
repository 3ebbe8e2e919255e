package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
)

func TestLoadFromEnvironment(t *testing.T) {
	viper.Reset()

	t.Setenv("BOT_TELEGRAM_TOKEN", "test-telegram-token")
	t.Setenv("BOT_LLM_TOKEN", "test-llm-token")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Telegram.Token != "test-telegram-token" {
		t.Errorf("expected telegram token from env, got %q", cfg.Telegram.Token)
	}
	if cfg.LLM.Token != "test-llm-token" {
		t.Errorf("expected llm token from env, got %q", cfg.LLM.Token)
	}

	// Defaults fill everything the environment left out.
	if cfg.Log.Level != "info" {
		t.Errorf("expected default log level info, got %q", cfg.Log.Level)
	}
	if cfg.Telegram.BacklogLimit != 20 {
		t.Errorf("expected default backlog limit 20, got %d", cfg.Telegram.BacklogLimit)
	}
	if cfg.LLM.Provider != "openai" {
		t.Errorf("expected default provider openai, got %q", cfg.LLM.Provider)
	}
	if cfg.LLM.BaseURL != "https://api.siliconflow.cn/v1" {
		t.Errorf("unexpected default base url %q", cfg.LLM.BaseURL)
	}
	if cfg.LLM.Model != "Qwen/Qwen3-8B" {
		t.Errorf("unexpected default model %q", cfg.LLM.Model)
	}
	if cfg.LLM.MaxOutputTokens != 16 {
		t.Errorf("expected default max output tokens 16, got %d", cfg.LLM.MaxOutputTokens)
	}
	if cfg.Moderation.ScoreThreshold != 8 {
		t.Errorf("expected default score threshold 8, got %d", cfg.Moderation.ScoreThreshold)
	}
	if cfg.Moderation.GracePeriod != 720*time.Hour {
		t.Errorf("expected default grace period 720h, got %v", cfg.Moderation.GracePeriod)
	}
	if cfg.Moderation.DeletedNotice == "" || cfg.Moderation.ErrorNotice == "" {
		t.Error("expected default notices to be set")
	}
	if cfg.Database.Path != "data/bot.db" {
		t.Errorf("unexpected default database path %q", cfg.Database.Path)
	}
}

func TestLoadFromFile(t *testing.T) {
	viper.Reset()

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
log:
  level: debug
  json: false
telegram:
  token: file-telegram-token
  backlog_limit: 50
llm:
  provider: gemini
  token: file-llm-token
  model: gemini-2.0-flash
moderation:
  score_threshold: 6
  grace_period: 168h
database:
  path: /tmp/test.db
scheduler:
  tasks:
    sql_maintenance:
      enabled: true
      schedule: "0 3 * * *"
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Log.Level != "debug" {
		t.Errorf("expected log level debug, got %q", cfg.Log.Level)
	}
	if cfg.Log.JSON {
		t.Error("expected json logging disabled")
	}
	if cfg.Telegram.BacklogLimit != 50 {
		t.Errorf("expected backlog limit 50, got %d", cfg.Telegram.BacklogLimit)
	}
	if cfg.LLM.Provider != "gemini" {
		t.Errorf("expected provider gemini, got %q", cfg.LLM.Provider)
	}
	if cfg.Moderation.ScoreThreshold != 6 {
		t.Errorf("expected score threshold 6, got %d", cfg.Moderation.ScoreThreshold)
	}
	if cfg.Moderation.GracePeriod != 168*time.Hour {
		t.Errorf("expected grace period 168h, got %v", cfg.Moderation.GracePeriod)
	}

	task, ok := cfg.Scheduler.Tasks["sql_maintenance"]
	if !ok {
		t.Fatal("expected sql_maintenance task in config")
	}
	if !task.Enabled || task.Schedule != "0 3 * * *" {
		t.Errorf("unexpected task config: %+v", task)
	}
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{
			name: "missing telegram token",
			env: map[string]string{
				"BOT_LLM_TOKEN": "x",
			},
		},
		{
			name: "missing llm token",
			env: map[string]string{
				"BOT_TELEGRAM_TOKEN": "x",
			},
		},
		{
			name: "invalid llm provider",
			env: map[string]string{
				"BOT_TELEGRAM_TOKEN": "x",
				"BOT_LLM_TOKEN":      "x",
				"BOT_LLM_PROVIDER":   "anthropic",
			},
		},
		{
			name: "backlog limit over telegram max",
			env: map[string]string{
				"BOT_TELEGRAM_TOKEN":         "x",
				"BOT_LLM_TOKEN":              "x",
				"BOT_TELEGRAM_BACKLOG_LIMIT": "101",
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			viper.Reset()
			for k, v := range tc.env {
				t.Setenv(k, v)
			}

			_, err := Load("")
			if err == nil {
				t.Fatal("expected validation error, got nil")
			}
			if !errors.Is(err, ErrConfiguration) {
				t.Errorf("expected ErrConfiguration, got %v", err)
			}
		})
	}
}
