package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	cfg := &Config{}
	cfg.Telegram.Token = "123:abc"
	cfg.App.GroupID = -1001
	cfg.App.IntakeChatID = -1002
	cfg.App.ReviewChatID = -1003
	return cfg
}

func TestNormalizeDefaults(t *testing.T) {
	cfg := validConfig()
	require.NoError(t, Normalize(cfg))

	assert.Equal(t, RunModeLongpoll, cfg.Telegram.RunMode)
	assert.Equal(t, 24, cfg.Session.TTLHours)
	assert.Equal(t, 10, cfg.Session.SweepMinutes)
}

func TestNormalizeRequiredFields(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{name: "missing token", mutate: func(c *Config) { c.Telegram.Token = "" }},
		{name: "missing group", mutate: func(c *Config) { c.App.GroupID = 0 }},
		{name: "missing intake chat", mutate: func(c *Config) { c.App.IntakeChatID = 0 }},
		{name: "missing review chat", mutate: func(c *Config) { c.App.ReviewChatID = 0 }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(cfg)
			assert.Error(t, Normalize(cfg))
		})
	}
}

func TestNormalizeWebhookMode(t *testing.T) {
	cfg := validConfig()
	cfg.Telegram.RunMode = "webhook"
	assert.Error(t, Normalize(cfg), "webhook mode without url/listen/port must fail")

	cfg = validConfig()
	cfg.Telegram.RunMode = "Webhook"
	cfg.Webhook.URL = "https://bot.example.com/hook"
	cfg.Webhook.Listen = "0.0.0.0"
	cfg.Webhook.Port = 8443
	require.NoError(t, Normalize(cfg))
	assert.Equal(t, RunModeWebhook, cfg.Telegram.RunMode)
}

func TestNormalizeRunModeAliases(t *testing.T) {
	cfg := validConfig()
	cfg.Telegram.RunMode = "polling"
	require.NoError(t, Normalize(cfg))
	assert.Equal(t, RunModeLongpoll, cfg.Telegram.RunMode)

	cfg = validConfig()
	cfg.Telegram.RunMode = "carrier-pigeon"
	assert.Error(t, Normalize(cfg))
}

func TestNormalizeRateLimitExclusions(t *testing.T) {
	cfg := validConfig()
	cfg.RateLimit.ExcludeUpdates = []string{"Callback", " message "}
	require.NoError(t, Normalize(cfg))
	assert.Equal(t, []string{"callback", "message"}, cfg.RateLimit.ExcludeUpdates)

	cfg = validConfig()
	cfg.RateLimit.ExcludeUpdates = []string{"inline_query"}
	assert.Error(t, Normalize(cfg))
}
