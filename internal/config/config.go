package config

import (
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/rs/zerolog/log"
)

var knownWeakSecrets = []string{
	"change-me", "dev-secret-change-me", "secret", "scorebug", "password",
}

type Config struct {
	Port            int    `env:"PORT" envDefault:"8080"`
	RedisURL        string `env:"REDIS_URL,required"`
	DatabaseURL     string `env:"DATABASE_URL"`
	SessionSecret   string `env:"SESSION_SECRET"`
	DeviceName      string `env:"DEVICE_NAME" envDefault:"Linked device"`
	StatsAPIBaseURL string `env:"STATS_API_BASE_URL" envDefault:"https://statsapi.web.nhl.com/api/v1"`
	BaseURL         string `env:"BASE_URL"`
	Environment     string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel        string `env:"LOG_LEVEL" envDefault:"info"`
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// HistoryEnabled reports whether the optional Postgres link-event history
// is configured. Pairing state never depends on it.
func (c *Config) HistoryEnabled() bool {
	return c.DatabaseURL != ""
}

func (c *Config) Validate() error {
	if c.SessionSecret != "" {
		if err := validateSecret("SESSION_SECRET", c.SessionSecret); err != nil {
			return err
		}
	}

	if c.IsProduction() {
		if c.SessionSecret == "" {
			log.Warn().Msg("SESSION_SECRET is empty in production: link credentials will not be signed")
		}
		if strings.HasPrefix(c.RedisURL, "redis://") {
			log.Warn().Msg("REDIS_URL uses redis:// (not TLS) in production: consider using rediss://")
		}
	}

	return nil
}

func validateSecret(name, value string) error {
	if len(value) < 32 {
		return fmt.Errorf("%s must be at least 32 characters (generate with: openssl rand -base64 32)", name)
	}
	for _, weak := range knownWeakSecrets {
		if value == weak {
			return fmt.Errorf("%s is a known weak default; set a strong secret", name)
		}
	}
	return nil
}

func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}
