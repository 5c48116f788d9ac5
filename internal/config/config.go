package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	HTTPAddr         string        `env:"HTTP_ADDR" envDefault:":8080"`
	DBPath           string        `env:"DB_PATH" envDefault:"data/superadmin.db"`
	LogLevel         slog.Level    `env:"LOG_LEVEL" envDefault:"INFO"`
	LogFormat        string        `env:"LOG_FORMAT" envDefault:"json"`
	SPADir           string        `env:"SPA_DIR" envDefault:"../web/dist"`
	RedisURL         string        `env:"REDIS_URL"`
	SessionTTL       time.Duration `env:"SESSION_TTL" envDefault:"24h"`
	CookieSecure     bool          `env:"COOKIE_SECURE" envDefault:"true"`
	MetricsNamespace string        `env:"METRICS_NAMESPACE" envDefault:"superadmin"`

	// Seed the first admin on an empty database.
	BootstrapEmail    string `env:"BOOTSTRAP_ADMIN_EMAIL"`
	BootstrapPassword string `env:"BOOTSTRAP_ADMIN_PASSWORD"`
}

func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}
	switch cfg.LogFormat {
	case "json", "text":
	default:
		return nil, fmt.Errorf("LOG_FORMAT must be json or text, got %q", cfg.LogFormat)
	}
	if cfg.SessionTTL <= 0 {
		return nil, fmt.Errorf("SESSION_TTL must be positive")
	}
	if (cfg.BootstrapEmail == "") != (cfg.BootstrapPassword == "") {
		return nil, fmt.Errorf("BOOTSTRAP_ADMIN_EMAIL and BOOTSTRAP_ADMIN_PASSWORD must be set together")
	}
	return &cfg, nil
}
