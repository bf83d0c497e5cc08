// Package config provides application configuration.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Store backends accepted by STORE_BACKEND.
const (
	StoreSQLite = "sqlite"
	StoreMemory = "memory"
)

// Config holds all application configuration.
type Config struct {
	Port                string
	FrontendURL         string
	StoreBackend        string
	DBPath              string
	SessionTTL          time.Duration
	SessionMaxResponses int

	OpenRouter OpenRouterConfig
	LLMTimeout time.Duration

	ChatMaxRetries int
	ChatRetryDelay time.Duration

	FeedbackTemperature float64
	FeedbackMaxTokens   int

	RateLimit RateLimitConfig

	LogLevel string
	LogFile  string

	ConversationLog ConversationLogConfig
}

// OpenRouterConfig describes the chat completion endpoint.
type OpenRouterConfig struct {
	BaseURL       string
	APIKey        string
	ChatModel     string
	FeedbackModel string
	Referer       string
	Title         string
}

// RateLimitConfig bounds per-device message throughput.
type RateLimitConfig struct {
	Requests int
	Window   time.Duration
}

// ConversationLogConfig controls JSON conversation logging.
type ConversationLogConfig struct {
	Enabled       bool
	Dir           string
	GlobalEnabled bool
	GlobalPath    string
	QueueSize     int
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	queueSize := getEnvInt("CONVERSATION_LOG_QUEUE_SIZE", 1000)
	if queueSize <= 0 {
		queueSize = 1000
	}

	cfg := &Config{
		Port:                getEnv("PORT", "8080"),
		FrontendURL:         getEnv("FRONTEND_URL", ""),
		StoreBackend:        strings.ToLower(getEnv("STORE_BACKEND", StoreSQLite)),
		DBPath:              getEnv("DB_PATH", "./data/peakchat.db"),
		SessionTTL:          getEnvDuration("SESSION_TTL", 60*time.Minute),
		SessionMaxResponses: getEnvInt("SESSION_MAX_RESPONSES", 10),
		OpenRouter: OpenRouterConfig{
			BaseURL:       getEnv("OPENROUTER_BASE_URL", "https://openrouter.ai/api/v1"),
			APIKey:        getEnv("OPENROUTER_API_KEY", ""),
			ChatModel:     getEnv("OPENROUTER_CHAT_MODEL", ""),
			FeedbackModel: getEnv("OPENROUTER_FEEDBACK_MODEL", ""),
			Referer:       getEnv("OPENROUTER_REFERER", "http://localhost:3000"),
			Title:         getEnv("OPENROUTER_TITLE", "PeakChat"),
		},
		LLMTimeout:          getEnvDuration("LLM_TIMEOUT", 60*time.Second),
		ChatMaxRetries:      getEnvInt("CHAT_MAX_RETRIES", 3),
		ChatRetryDelay:      getEnvDuration("CHAT_RETRY_DELAY", 2*time.Second),
		FeedbackTemperature: getEnvFloat("FEEDBACK_TEMPERATURE", 0.1),
		FeedbackMaxTokens:   getEnvInt("FEEDBACK_MAX_TOKENS", 2000),
		RateLimit: RateLimitConfig{
			Requests: getEnvInt("RATE_LIMIT_REQUESTS", 30),
			Window:   getEnvDuration("RATE_LIMIT_WINDOW", time.Minute),
		},
		LogLevel: strings.ToLower(getEnv("LOG_LEVEL", "info")),
		LogFile:  getEnv("LOG_FILE", ""),
		ConversationLog: ConversationLogConfig{
			Enabled:       getEnvBool("CONVERSATION_LOG_ENABLED", true),
			Dir:           getEnv("CONVERSATION_LOG_DIR", "./data/logs/conversations"),
			GlobalEnabled: getEnvBool("CONVERSATION_LOG_GLOBAL_ENABLED", false),
			GlobalPath:    getEnv("CONVERSATION_LOG_GLOBAL_PATH", "./data/logs/conversations/all.ndjson"),
			QueueSize:     queueSize,
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required configuration fields are set.
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}
	switch c.StoreBackend {
	case StoreSQLite:
		if c.DBPath == "" {
			return fmt.Errorf("DB_PATH cannot be empty")
		}
	case StoreMemory:
	default:
		return fmt.Errorf("STORE_BACKEND must be %q or %q, got %q", StoreSQLite, StoreMemory, c.StoreBackend)
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be > 0")
	}
	if c.SessionMaxResponses <= 0 {
		return fmt.Errorf("SESSION_MAX_RESPONSES must be > 0")
	}
	if c.OpenRouter.BaseURL == "" {
		return fmt.Errorf("OPENROUTER_BASE_URL cannot be empty")
	}
	if c.OpenRouter.APIKey == "" {
		return fmt.Errorf("OPENROUTER_API_KEY is required")
	}
	if c.OpenRouter.ChatModel == "" {
		return fmt.Errorf("OPENROUTER_CHAT_MODEL is required")
	}
	if c.OpenRouter.FeedbackModel == "" {
		return fmt.Errorf("OPENROUTER_FEEDBACK_MODEL is required")
	}
	if c.ChatMaxRetries < 0 {
		return fmt.Errorf("CHAT_MAX_RETRIES must be >= 0")
	}
	if c.FeedbackMaxTokens <= 0 {
		return fmt.Errorf("FEEDBACK_MAX_TOKENS must be > 0")
	}
	if c.RateLimit.Requests <= 0 || c.RateLimit.Window <= 0 {
		return fmt.Errorf("RATE_LIMIT_REQUESTS and RATE_LIMIT_WINDOW must be > 0")
	}
	if c.ConversationLog.Dir == "" {
		return fmt.Errorf("CONVERSATION_LOG_DIR cannot be empty")
	}
	if c.ConversationLog.GlobalPath == "" {
		return fmt.Errorf("CONVERSATION_LOG_GLOBAL_PATH cannot be empty")
	}
	if c.ConversationLog.QueueSize <= 0 {
		return fmt.Errorf("CONVERSATION_LOG_QUEUE_SIZE must be > 0")
	}
	return nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.FrontendURL == "" ||
		strings.Contains(c.FrontendURL, "localhost") ||
		strings.Contains(c.FrontendURL, "127.0.0.1")
}

// AllowedOrigins returns the CORS origin list derived from FRONTEND_URL.
func (c *Config) AllowedOrigins() []string {
	if c.FrontendURL == "" {
		return []string{"*"}
	}
	var origins []string
	for _, o := range strings.Split(c.FrontendURL, ",") {
		if o = strings.TrimRight(strings.TrimSpace(o), "/"); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

func getEnvInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return n
}

func getEnvFloat(key string, fallback float64) float64 {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return fallback
	}
	return f
}

// getEnvDuration accepts Go duration strings ("90s", "5m") or a bare
// number of seconds.
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	value = strings.TrimSpace(value)
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if n, err := strconv.Atoi(value); err == nil {
		return time.Duration(n) * time.Second
	}
	return fallback
}
