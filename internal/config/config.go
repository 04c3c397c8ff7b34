package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	// Environment: "development", "production", etc.
	Env      string `env:"ENV" envDefault:"development"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// Server. CORSOrigins is comma-separated; RateLimit is requests per
	// minute per client IP.
	ServerAddr  string `env:"SERVER_ADDR" envDefault:":3000"`
	CORSOrigins string `env:"CORS_ORIGINS"`
	RateLimit   int    `env:"RATE_LIMIT" envDefault:"100"`

	// Models. GOOGLE_API_KEY is used when GEMINI_API_KEY is unset.
	GeminiAPIKey    string        `env:"GEMINI_API_KEY"`
	GoogleAPIKey    string        `env:"GOOGLE_API_KEY"`
	GeminiModel     string        `env:"GEMINI_MODEL"`
	AnthropicAPIKey string        `env:"ANTHROPIC_API_KEY"`
	AnthropicModel  string        `env:"ANTHROPIC_MODEL"`
	LLMTimeout      time.Duration `env:"LLM_TIMEOUT" envDefault:"15s"`
	LLMMaxAttempts  int           `env:"LLM_MAX_ATTEMPTS" envDefault:"2"`

	// Data
	FREDAPIKey   string `env:"FRED_API_KEY"`
	DefaultYears int    `env:"DEFAULT_YEARS" envDefault:"8"`

	// Plans and tunables
	PlansDir   string `env:"PLANS_DIR"`
	ConfigFile string `env:"CONFIG_FILE" envDefault:"config.yaml"`

	// Caches
	RoutingCacheTTL    time.Duration `env:"ROUTING_CACHE_TTL" envDefault:"1h"`
	RoutingCacheSize   int           `env:"ROUTING_CACHE_SIZE" envDefault:"1000"`
	DataCacheTTL       time.Duration `env:"DATA_CACHE_TTL" envDefault:"30m"`
	DataCacheSize      int           `env:"DATA_CACHE_SIZE" envDefault:"5000"`
	SummaryCacheTTL    time.Duration `env:"SUMMARY_CACHE_TTL" envDefault:"1h"`
	SummaryCacheSize   int           `env:"SUMMARY_CACHE_SIZE" envDefault:"500"`
	CacheSweepInterval time.Duration `env:"CACHE_SWEEP_INTERVAL" envDefault:"5m"`

	// Tracing
	OTelEndpoint string `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
}

// Load reads configuration from environment variables with sensible defaults.
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if cfg.DefaultYears <= 0 {
		return nil, fmt.Errorf("DEFAULT_YEARS must be positive, got %d", cfg.DefaultYears)
	}
	if cfg.RateLimit <= 0 {
		cfg.RateLimit = 100
	}
	return &cfg, nil
}

// IsDev returns true if the environment is set to development.
func (c *Config) IsDev() bool {
	return c.Env == "development" || c.Env == "dev"
}

// GeminiKey returns the Gemini API key, falling back to GOOGLE_API_KEY.
func (c *Config) GeminiKey() string {
	if c.GeminiAPIKey != "" {
		return c.GeminiAPIKey
	}
	return c.GoogleAPIKey
}

// HasPrimaryLLM reports whether the routing model is configured.
func (c *Config) HasPrimaryLLM() bool {
	return c.GeminiKey() != ""
}

// HasFallbackLLM reports whether the secondary classifier is configured.
func (c *Config) HasFallbackLLM() bool {
	return c.AnthropicAPIKey != ""
}

// HasDataSource reports whether series data can be fetched.
func (c *Config) HasDataSource() bool {
	return c.FREDAPIKey != ""
}

// SlogLevel maps LOG_LEVEL to a slog level. Unknown values mean info.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Capabilities lists which optional collaborators are configured.
func (c *Config) Capabilities() map[string]bool {
	return map[string]bool{
		"primary_llm":  c.HasPrimaryLLM(),
		"fallback_llm": c.HasFallbackLLM(),
		"data_source":  c.HasDataSource(),
		"tracing":      c.OTelEndpoint != "",
	}
}
