package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/shopspring/decimal"
)

// Config captures application runtime configuration loaded from environment
// variables. DATABASE_URL and REDIS_URL may be left unset in development, in
// which case the server falls back to in-memory backends.
type Config struct {
	AppName  string `env:"APP_NAME" envDefault:"GoBank"`
	AppEnv   string `env:"APP_ENV" envDefault:"development"`
	Port     string `env:"PORT" envDefault:"8080"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	DatabaseURL string `env:"DATABASE_URL"`
	RedisURL    string `env:"REDIS_URL"`

	SessionSecret string        `env:"SESSION_SECRET" envDefault:"bank-simulation-secret-change-in-production"`
	SessionTTL    time.Duration `env:"SESSION_TTL" envDefault:"168h"`

	SeedBalance  decimal.Decimal `env:"SEED_BALANCE" envDefault:"1000"`
	HistoryLimit int             `env:"HISTORY_LIMIT" envDefault:"50"`

	ShutdownPeriod  time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
	IdempotencyTTL  time.Duration `env:"IDEMPOTENCY_TTL" envDefault:"24h"`
	LoginRatePerMin int           `env:"LOGIN_RATE_PER_MIN" envDefault:"5"`

	KafkaBrokers []string `env:"KAFKA_BROKERS" envSeparator:","`
	KafkaTopic   string   `env:"KAFKA_TOPIC" envDefault:"ledger.entries"`

	ChatAPIKey string `env:"HUGGINGFACE_API_KEY"`
	ChatAPIURL string `env:"CHAT_API_URL" envDefault:"https://router.huggingface.co/v1/chat/completions"`
	ChatModel  string `env:"CHAT_MODEL" envDefault:"meta-llama/Llama-3.2-3B-Instruct"`
}

// Load reads configuration values from the environment and populates a Config
// instance.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	cfg.LogLevel = strings.ToLower(cfg.LogLevel)

	if !cfg.IsDev() && cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("DATABASE_URL must be set when APP_ENV=%s", cfg.AppEnv)
	}
	if cfg.HistoryLimit <= 0 {
		return Config{}, fmt.Errorf("HISTORY_LIMIT must be positive")
	}

	return cfg, nil
}

// Address returns the listen address in the format Fiber expects.
func (c Config) Address() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return fmt.Sprintf(":%s", c.Port)
}

// IsDev reports whether the app runs in a development-like environment.
func (c Config) IsDev() bool {
	switch strings.ToLower(c.AppEnv) {
	case "dev", "development", "local", "test":
		return true
	default:
		return false
	}
}

// IsProduction reports whether the app runs in production.
func (c Config) IsProduction() bool {
	return strings.EqualFold(c.AppEnv, "production")
}
