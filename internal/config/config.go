package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	ProviderGemini = "gemini"
	ProviderGroq   = "groq"

	DefaultGeminiModel = "gemini-1.5-flash"
	DefaultGroqModel   = "llama-3.3-70b-versatile"
)

// Config holds the configuration for the application.
type Config struct {
	AppEnv string
	Port   string

	// LLM
	LLMProvider     string
	GeminiAPIKey    string
	GeminiModel     string
	GroqAPIKey      string
	GroqModel       string
	Temperature     float32
	TopK            int32
	TopP            float32
	MaxOutputTokens int32

	// Storage
	DatabasePath       string
	SessionStoragePath string

	// HTTP
	AuthSecret         string
	TokenTTL           time.Duration
	CORSAllowedOrigins []string

	// Telegram Config
	TelegramBotToken       string
	TelegramWebhookURL     string
	TelegramAllowedUserIDs []int64
	AdminTelegramID        int64
}

// NewFromEnv creates a new Config object from environment variables.
func NewFromEnv() (*Config, error) {
	provider := strings.ToLower(envOr("LLM_PROVIDER", ProviderGemini))

	cfg := &Config{
		AppEnv:             envOr("APP_ENV", "development"),
		Port:               envOr("PORT", "8080"),
		LLMProvider:        provider,
		GeminiModel:        envOr("GEMINI_MODEL", DefaultGeminiModel),
		GroqModel:          envOr("GROQ_MODEL", DefaultGroqModel),
		DatabasePath:       envOr("DATABASE_PATH", "data/diet-planner.db"),
		SessionStoragePath: envOr("SESSION_STORAGE_PATH", "data/sessions"),
		AuthSecret:         os.Getenv("AUTH_SECRET"),
		CORSAllowedOrigins: splitList(envOr("CORS_ALLOWED_ORIGINS", "http://localhost:3000")),
		TelegramBotToken:   os.Getenv("TELEGRAM_BOT_TOKEN"),
		TelegramWebhookURL: os.Getenv("TELEGRAM_WEBHOOK_URL"),
	}

	switch provider {
	case ProviderGemini:
		cfg.GeminiAPIKey = os.Getenv("GEMINI_API_KEY")
		if cfg.GeminiAPIKey == "" {
			return nil, fmt.Errorf("GEMINI_API_KEY environment variable not set")
		}
	case ProviderGroq:
		cfg.GroqAPIKey = os.Getenv("GROQ_API_KEY")
		if cfg.GroqAPIKey == "" {
			return nil, fmt.Errorf("GROQ_API_KEY environment variable not set")
		}
	default:
		return nil, fmt.Errorf("unsupported LLM_PROVIDER %q", provider)
	}

	var err error
	if cfg.Temperature, err = parseFloat32("LLM_TEMPERATURE", 0.7); err != nil {
		return nil, err
	}
	if cfg.TopP, err = parseFloat32("LLM_TOP_P", 0.95); err != nil {
		return nil, err
	}
	if cfg.TopK, err = parseInt32("LLM_TOP_K", 40); err != nil {
		return nil, err
	}
	if cfg.MaxOutputTokens, err = parseInt32("LLM_MAX_OUTPUT_TOKENS", 8192); err != nil {
		return nil, err
	}

	ttl := envOr("AUTH_TOKEN_TTL", "720h")
	if cfg.TokenTTL, err = time.ParseDuration(ttl); err != nil {
		return nil, fmt.Errorf("invalid AUTH_TOKEN_TTL %q: %w", ttl, err)
	}

	// Telegram is optional; the bot is only started when a token is present.
	for _, s := range splitList(os.Getenv("TELEGRAM_ALLOWED_USER_IDS")) {
		id, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid TELEGRAM_ALLOWED_USER_IDS entry %q: %w", s, err)
		}
		cfg.TelegramAllowedUserIDs = append(cfg.TelegramAllowedUserIDs, id)
	}
	if s := os.Getenv("ADMIN_TELEGRAM_ID"); s != "" {
		if cfg.AdminTelegramID, err = strconv.ParseInt(s, 10, 64); err != nil {
			return nil, fmt.Errorf("invalid ADMIN_TELEGRAM_ID %q: %w", s, err)
		}
	}
	if cfg.TelegramBotToken != "" && cfg.TelegramWebhookURL == "" {
		return nil, fmt.Errorf("TELEGRAM_WEBHOOK_URL environment variable not set")
	}

	return cfg, nil
}

// Model returns the model name of the configured provider.
func (c *Config) Model() string {
	if c.LLMProvider == ProviderGroq {
		return c.GroqModel
	}
	return c.GeminiModel
}

// IsProduction reports whether the app runs with production settings.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parseFloat32(key string, def float32) (float32, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(s, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, s, err)
	}
	return float32(f), nil
}

func parseInt32(key string, def int32) (int32, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.ParseInt(s, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, s, err)
	}
	return int32(n), nil
}
