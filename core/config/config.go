// Package config loads bot configuration from a YAML file with environment
// variable overrides.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	coredatabase "github.com/iulicovete-ux/Documente-CV/core/database"
)

// TelegramConfig holds Telegram bot transport settings.
type TelegramConfig struct {
	Token   string `yaml:"token" envconfig:"BOT_TOKEN"`
	RunMode string `yaml:"run_mode" envconfig:"TELEGRAM_RUN_MODE"`
	// LongPollTimeoutSeconds defines the long polling timeout; 0 -> default.
	LongPollTimeoutSeconds int `yaml:"longpoll_timeout_seconds" envconfig:"TELEGRAM_LONGPOLL_TIMEOUT_SECONDS"`
}

// WebhookConfig specifies webhook settings.
type WebhookConfig struct {
	URL    string `yaml:"url" envconfig:"WEBHOOK_URL"`
	Listen string `yaml:"listen" envconfig:"WEBHOOK_LISTEN"`
	Port   int    `yaml:"port" envconfig:"WEBHOOK_PORT"`
}

// AppConfig identifies the chats the intake workflow operates on.
// GroupID must be a forum supergroup; upload topics are created there.
type AppConfig struct {
	GroupID      int64 `yaml:"group_id" envconfig:"GROUP_ID"`
	IntakeChatID int64 `yaml:"intake_chat_id" envconfig:"INTAKE_CHAT_ID"`
	ReviewChatID int64 `yaml:"review_chat_id" envconfig:"REVIEW_CHAT_ID"`
	AdminID      int64 `yaml:"admin_id" envconfig:"ADMIN_ID"`
}

// SessionConfig bounds the lifetime of abandoned application sessions.
type SessionConfig struct {
	TTLHours     int `yaml:"ttl_hours" envconfig:"SESSION_TTL_HOURS"`
	SweepMinutes int `yaml:"sweep_minutes" envconfig:"SESSION_SWEEP_MINUTES"`
}

// LoggingConfig defines logging related configuration.
type LoggingConfig struct {
	Level   string `yaml:"level" envconfig:"LOG_LEVEL"`
	Format  string `yaml:"format" envconfig:"LOG_FORMAT"`
	Profile string `yaml:"profile" envconfig:"LOG_PROFILE"`
	Dir     string `yaml:"dir" envconfig:"LOG_DIR"`
	File    string `yaml:"file" envconfig:"LOG_FILE"`
}

const (
	// RunModeWebhook selects webhook mode for Telegram updates.
	RunModeWebhook = "webhook"
	// RunModeLongpoll selects long-polling mode for Telegram updates.
	RunModeLongpoll = "longpoll"
)

const (
	// UpdateCallback identifies callback updates for rate limit exclusions.
	UpdateCallback = "callback"
	// UpdateMessage identifies message updates for rate limit exclusions.
	UpdateMessage = "message"
)

// RateLimitConfig holds settings for rate limiting. ExcludeUpdates accepts
// update types to bypass limiting: "callback", "message".
type RateLimitConfig struct {
	IntervalMS     int      `yaml:"interval_ms" envconfig:"RATE_LIMIT_INTERVAL_MS"`
	ExcludeUpdates []string `yaml:"exclude_updates" envconfig:"RATE_LIMIT_EXCLUDE_UPDATES"`
}

// Config aggregates all runtime configuration.
type Config struct {
	Telegram  TelegramConfig      `yaml:"telegram"`
	Webhook   WebhookConfig       `yaml:"webhook"`
	App       AppConfig           `yaml:"app"`
	Session   SessionConfig       `yaml:"session"`
	Logging   LoggingConfig       `yaml:"logging"`
	RateLimit RateLimitConfig     `yaml:"rate_limit"`
	Database  coredatabase.Config `yaml:"database"`
}

// Load reads configuration from a YAML file and environment variables.
func Load(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process env: %w", err)
	}

	if err := Normalize(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Normalize validates required configuration fields and adjusts defaults.
// A missing token or chat identifier is a startup-fatal condition.
func Normalize(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}

	if cfg.Telegram.Token == "" {
		return fmt.Errorf("telegram token is required")
	}
	if cfg.App.GroupID == 0 {
		return fmt.Errorf("app.group_id is required")
	}
	if cfg.App.IntakeChatID == 0 {
		return fmt.Errorf("app.intake_chat_id is required")
	}
	if cfg.App.ReviewChatID == 0 {
		return fmt.Errorf("app.review_chat_id is required")
	}

	rm := strings.ToLower(strings.TrimSpace(cfg.Telegram.RunMode))
	if rm == "" || rm == "polling" {
		rm = RunModeLongpoll
	}
	switch rm {
	case RunModeWebhook:
		if strings.TrimSpace(cfg.Webhook.URL) == "" {
			return fmt.Errorf("webhook.url is required when telegram.run_mode is 'webhook'")
		}
		if strings.TrimSpace(cfg.Webhook.Listen) == "" {
			return fmt.Errorf("webhook.listen is required when telegram.run_mode is 'webhook'")
		}
		if cfg.Webhook.Port <= 0 {
			return fmt.Errorf("webhook.port must be > 0 when telegram.run_mode is 'webhook'")
		}
	case RunModeLongpoll:
		if cfg.Telegram.LongPollTimeoutSeconds < 0 {
			return fmt.Errorf("telegram.longpoll_timeout_seconds must be >= 0")
		}
	default:
		return fmt.Errorf("invalid telegram.run_mode %q; allowed: webhook, longpoll", cfg.Telegram.RunMode)
	}
	cfg.Telegram.RunMode = rm

	if cfg.Session.TTLHours < 0 {
		return fmt.Errorf("session.ttl_hours must be >= 0")
	}
	if cfg.Session.TTLHours == 0 {
		cfg.Session.TTLHours = 24
	}
	if cfg.Session.SweepMinutes < 0 {
		return fmt.Errorf("session.sweep_minutes must be >= 0")
	}
	if cfg.Session.SweepMinutes == 0 {
		cfg.Session.SweepMinutes = 10
	}

	allowed := map[string]struct{}{
		UpdateCallback: {},
		UpdateMessage:  {},
	}
	for i, v := range cfg.RateLimit.ExcludeUpdates {
		key := strings.ToLower(strings.TrimSpace(v))
		if key == "" {
			continue
		}
		if _, ok := allowed[key]; !ok {
			return fmt.Errorf("invalid rate_limit.exclude_updates value %q; allowed: callback, message", v)
		}
		cfg.RateLimit.ExcludeUpdates[i] = key
	}
	return nil
}
