package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "support-triage", cfg.App.Name)
	assert.Equal(t, "0.0.0.0:8080", cfg.App.Addr())
	assert.Equal(t, "GIGACHAT_API_PERS", cfg.GigaChat.Scope)
	assert.Equal(t, 30*time.Minute, cfg.GigaChat.TokenTTL())
	assert.Equal(t, "GigaChat", cfg.GigaChat.Model)
	assert.False(t, cfg.SMTP.Enabled(), "no mail credentials in the test environment")
	assert.False(t, cfg.Telegram.Enabled())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("APP_PORT", "9000")
	t.Setenv("GIGACHAT_TOKEN_TTL_MINUTES", "5")
	t.Setenv("TELEGRAM_BOT_TOKEN", "12345:token")
	t.Setenv("TELEGRAM_CHAT_ID", "-100200300")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:9000", cfg.App.Addr())
	assert.Equal(t, 5*time.Minute, cfg.GigaChat.TokenTTL())
	assert.True(t, cfg.Telegram.Enabled())
	assert.Equal(t, int64(-100200300), cfg.Telegram.ChatID)
}

func TestLoadRejectsBadChatID(t *testing.T) {
	t.Setenv("TELEGRAM_CHAT_ID", "not-a-number")

	_, err := Load()
	assert.Error(t, err)
}

func TestDurationFallbacks(t *testing.T) {
	assert.Equal(t, 30*time.Second, GigaChatConfig{}.Timeout())
	assert.Equal(t, 30*time.Second, SMTPConfig{}.Timeout())
	assert.Equal(t, time.Minute, IMAPConfig{}.PollInterval())
	assert.Equal(t, 10*time.Second, TelegramConfig{}.Timeout())
	assert.Equal(t, time.Hour, RedisConfig{}.VerdictTTL())
	assert.Zero(t, AppConfig{}.RequestTimeout())
}
