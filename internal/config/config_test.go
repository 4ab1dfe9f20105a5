package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"SNAPLIST_ADDR", "SNAPLIST_DB", "VISION_PROVIDER", "OPENAI_API_KEY",
		"OPENAI_BASE_URL", "GEMINI_API_KEY", "SNAPLIST_MODEL", "SNAPLIST_TIMEOUT",
		"VISION_CACHE", "SNAPLIST_WORKERS", "SNAPLIST_QUEUE",
		"TELEGRAM_BOT_TOKEN", "TELEGRAM_CHAT_ID", "SNAPLIST_SECRET_KEY",
	} {
		t.Setenv(key, "")
	}
}

func TestFromEnvDefaults(t *testing.T) {
	clearEnv(t)

	cfg := FromEnv()

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, "snaplist.db", cfg.DBPath)
	assert.Equal(t, "openai", cfg.Provider)
	assert.Equal(t, "https://api.openai.com/v1", cfg.OpenAIBaseURL)
	assert.Equal(t, 40*time.Second, cfg.ModelTimeout)
	assert.True(t, cfg.VisionCache)
	assert.Equal(t, 2, cfg.Workers)
	assert.Equal(t, 32, cfg.QueueSize)
	assert.False(t, cfg.LiveEnabled())
}

func TestFromEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("SNAPLIST_ADDR", ":9090")
	t.Setenv("VISION_PROVIDER", "gemini")
	t.Setenv("GEMINI_API_KEY", "g-key")
	t.Setenv("SNAPLIST_TIMEOUT", "15s")
	t.Setenv("VISION_CACHE", "false")
	t.Setenv("SNAPLIST_WORKERS", "4")
	t.Setenv("TELEGRAM_CHAT_ID", "123456789")

	cfg := FromEnv()

	assert.Equal(t, ":9090", cfg.Addr)
	assert.Equal(t, "gemini", cfg.Provider)
	assert.Equal(t, 15*time.Second, cfg.ModelTimeout)
	assert.False(t, cfg.VisionCache)
	assert.Equal(t, 4, cfg.Workers)
	assert.Equal(t, int64(123456789), cfg.TelegramChatID)
	assert.True(t, cfg.LiveEnabled())
}

func TestFromEnvIgnoresMalformedValues(t *testing.T) {
	clearEnv(t)
	t.Setenv("SNAPLIST_WORKERS", "many")
	t.Setenv("SNAPLIST_TIMEOUT", "soon")
	t.Setenv("VISION_CACHE", "yep")
	t.Setenv("TELEGRAM_CHAT_ID", "abc")

	cfg := FromEnv()

	assert.Equal(t, 2, cfg.Workers)
	assert.Equal(t, 40*time.Second, cfg.ModelTimeout)
	assert.True(t, cfg.VisionCache)
	assert.Equal(t, int64(0), cfg.TelegramChatID)
}

func TestValidate(t *testing.T) {
	clearEnv(t)
	cfg := FromEnv()
	assert.Nil(t, cfg.Validate())

	bad := cfg
	bad.Provider = "claude"
	assert.NotNil(t, bad.Validate())

	bad = cfg
	bad.Workers = 0
	assert.NotNil(t, bad.Validate())

	bad = cfg
	bad.QueueSize = -1
	assert.NotNil(t, bad.Validate())

	bad = cfg
	bad.ModelTimeout = 0
	assert.NotNil(t, bad.Validate())

	bad = cfg
	bad.TelegramToken = "token"
	assert.NotNil(t, bad.Validate())
	bad.TelegramChatID = 42
	assert.Nil(t, bad.Validate())
}

func TestProviderKey(t *testing.T) {
	cfg := Config{Provider: "openai", OpenAIKey: "o-key", GeminiKey: "g-key"}
	assert.Equal(t, "o-key", cfg.ProviderKey())

	cfg.Provider = "gemini"
	assert.Equal(t, "g-key", cfg.ProviderKey())

	cfg.GeminiKey = ""
	assert.False(t, cfg.LiveEnabled())
}
