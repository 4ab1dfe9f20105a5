// Package config loads runtime settings from env files and environment
// variables. Nothing here is required: every setting has a default, and a
// missing model API key just means the service runs in demo mode.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	AppName     = "snaplist"
	EnvFileName = "config.env"
)

// Config is the full runtime configuration of the service.
type Config struct {
	Addr   string
	DBPath string

	// Vision model settings
	Provider      string
	OpenAIKey     string
	OpenAIBaseURL string
	GeminiKey     string
	Model         string
	ModelTimeout  time.Duration
	VisionCache   bool

	// Job pipeline
	Workers   int
	QueueSize int

	// Optional integrations
	TelegramToken  string
	TelegramChatID int64
	SecretKey      string
}

// LoadEnvFile loads environment variables from the config file in the
// user's config directory, then from a .env in the working directory.
// Errors are ignored since neither file may exist.
func LoadEnvFile() {
	if configBase, err := os.UserConfigDir(); err == nil {
		_ = godotenv.Load(filepath.Join(configBase, AppName, EnvFileName))
	}
	_ = godotenv.Load()
}

// FromEnv builds a Config from environment variables, applying defaults
// for everything unset.
func FromEnv() Config {
	return Config{
		Addr:   envOr("SNAPLIST_ADDR", ":8080"),
		DBPath: envOr("SNAPLIST_DB", "snaplist.db"),

		Provider:      envOr("VISION_PROVIDER", "openai"),
		OpenAIKey:     os.Getenv("OPENAI_API_KEY"),
		OpenAIBaseURL: envOr("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		GeminiKey:     os.Getenv("GEMINI_API_KEY"),
		Model:         os.Getenv("SNAPLIST_MODEL"),
		ModelTimeout:  envDuration("SNAPLIST_TIMEOUT", 40*time.Second),
		VisionCache:   envBool("VISION_CACHE", true),

		Workers:   envInt("SNAPLIST_WORKERS", 2),
		QueueSize: envInt("SNAPLIST_QUEUE", 32),

		TelegramToken:  os.Getenv("TELEGRAM_BOT_TOKEN"),
		TelegramChatID: envInt64("TELEGRAM_CHAT_ID", 0),
		SecretKey:      os.Getenv("SNAPLIST_SECRET_KEY"),
	}
}

// Validate rejects settings the service cannot run with. Most values have
// working defaults, so this only catches explicitly broken ones.
func (c Config) Validate() error {
	if c.Provider != "openai" && c.Provider != "gemini" {
		return fmt.Errorf("unknown VISION_PROVIDER %q (use openai or gemini)", c.Provider)
	}
	if c.Workers < 1 {
		return fmt.Errorf("SNAPLIST_WORKERS must be at least 1")
	}
	if c.QueueSize < 1 {
		return fmt.Errorf("SNAPLIST_QUEUE must be at least 1")
	}
	if c.ModelTimeout <= 0 {
		return fmt.Errorf("SNAPLIST_TIMEOUT must be positive")
	}
	if c.TelegramToken != "" && c.TelegramChatID == 0 {
		return fmt.Errorf("TELEGRAM_CHAT_ID is required when TELEGRAM_BOT_TOKEN is set")
	}
	return nil
}

// ProviderKey returns the API key matching the configured provider.
func (c Config) ProviderKey() string {
	if c.Provider == "gemini" {
		return c.GeminiKey
	}
	return c.OpenAIKey
}

// LiveEnabled reports whether a model API key is configured for the
// selected provider. Without one the service produces fallback drafts.
func (c Config) LiveEnabled() bool {
	return c.ProviderKey() != ""
}

func envOr(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func envInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func envInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.ParseInt(value, 10, 64); err == nil {
			return n
		}
	}
	return defaultValue
}

func envDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func envBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
