package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

const (
	defaultBacklogLimit    = 20
	defaultLLMBaseURL      = "https://api.siliconflow.cn/v1"
	defaultLLMModel        = "Qwen/Qwen3-8B"
	defaultMaxOutputTokens = 16
	defaultLLMTimeout      = 30 * time.Second
	defaultScoreThreshold  = 8
	defaultGracePeriod     = 720 * time.Hour
	defaultDeletedNotice   = "疑似廣告訊息已刪除（評分 %d / 10）。"
	defaultErrorNotice     = "暫時無法判斷此訊息是否為廣告，請稍後再試。"
)

// Load reads configuration from the given YAML file path (optional) and
// BOT_ prefixed environment variables, applies defaults, and validates the
// result. Environment variables take precedence over file values.
func Load(configPath string) (*Config, error) {
	setDefaults()

	viper.SetEnvPrefix("BOT")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if configPath != "" {
		viper.SetConfigFile(configPath)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFoundErr viper.ConfigFileNotFoundError
		if errors.As(err, &notFoundErr) && configPath == "" {
			slog.Debug("No config file found, using defaults and environment variables")
		} else {
			return nil, fmt.Errorf("%w: failed to read config file: %w", ErrConfiguration, err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("%w: failed to unmarshal config: %w", ErrConfiguration, err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("%w: validation failed: %w", ErrConfiguration, err)
	}

	return &cfg, nil
}

// setDefaults registers default values for all settings. Secrets default to
// the empty string so viper binds the BOT_ environment variables even when
// no config file supplies the keys.
func setDefaults() {
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.json", true)

	viper.SetDefault("telegram.token", "")
	viper.SetDefault("telegram.backlog_limit", defaultBacklogLimit)

	viper.SetDefault("llm.provider", "openai")
	viper.SetDefault("llm.token", "")
	viper.SetDefault("llm.base_url", defaultLLMBaseURL)
	viper.SetDefault("llm.model", defaultLLMModel)
	viper.SetDefault("llm.max_output_tokens", defaultMaxOutputTokens)
	viper.SetDefault("llm.timeout", defaultLLMTimeout)

	viper.SetDefault("moderation.score_threshold", defaultScoreThreshold)
	viper.SetDefault("moderation.grace_period", defaultGracePeriod)
	viper.SetDefault("moderation.deleted_notice", defaultDeletedNotice)
	viper.SetDefault("moderation.error_notice", defaultErrorNotice)

	viper.SetDefault("database.path", "data/bot.db")

	viper.SetDefault("scheduler.tasks", map[string]TaskConfig{})
}
