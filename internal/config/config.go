package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds application configuration sourced from environment variables.
type Config struct {
	AppEnv        string `env:"APP_ENV" envDefault:"dev"`
	DBPath        string `env:"DB_PATH" envDefault:"./dev.db"`
	MigrationsDir string `env:"MIGRATIONS_DIR" envDefault:"migrations"`
	Port          string `env:"PORT" envDefault:"8080"`
	SessionSecret string `env:"SESSION_SECRET"`
	LogLevel      string `env:"LOG_LEVEL" envDefault:"info"`

	// SessionIdle is how long an untouched price check is kept in memory.
	SessionIdle time.Duration `env:"SESSION_IDLE" envDefault:"30m"`
}

// IsDev reports whether the process runs in a development environment.
func (c Config) IsDev() bool {
	return c.AppEnv == "dev" || c.AppEnv == "development"
}

// Load reads environment variables and returns a populated Config.
func Load() (Config, error) {
	// Local development only; production injects real env.
	loaded, err := loadDotEnv(".env")
	if err != nil {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	if loaded > 0 {
		slog.Debug("loaded .env", "variables", loaded)
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	if cfg.SessionSecret == "" {
		slog.Warn("SESSION_SECRET is not set")
	}

	return cfg, nil
}
