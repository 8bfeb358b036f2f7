package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	APIURL      string        `env:"API_URL"`
	APITimeout  time.Duration `env:"API_TIMEOUT, default=10s"`
	ConsoleAddr string        `env:"CONSOLE_ADDR, default=:8080"`
	OpsAddr     string        `env:"OPS_ADDR, default=localhost:9090"`
	BaseURL     string        `env:"BASE_URL, default=http://localhost:8080"`
	SessionsDB  string        `env:"SESSIONS_DB, default=adminka.db"`
	SessionKey  string        `env:"SESSION_SECRET"`
	SessionTTL  time.Duration `env:"SESSION_TTL, default=24h"`
	LogLevel    string        `env:"LOG_LEVEL, default=info"`
	LogPretty   bool          `env:"LOG_PRETTY, default=false"`

	OAuth OAuthConfig
}

type OAuthConfig struct {
	ClientID     string `env:"OAUTH_CLIENT_ID"`
	ClientSecret string `env:"OAUTH_CLIENT_SECRET"`
	AuthURL      string `env:"OAUTH_AUTH_URL, default=https://discord.com/oauth2/authorize"`
	TokenURL     string `env:"OAUTH_TOKEN_URL, default=https://discord.com/api/oauth2/token"`
}

func Load(ctx context.Context) (*Config, error) {
	return load(ctx, envconfig.OsLookuper())
}

func load(ctx context.Context, l envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: l,
	}); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.APIURL == "" {
		return fmt.Errorf("API_URL is required")
	}

	if c.SessionKey == "" {
		return fmt.Errorf("SESSION_SECRET is required")
	}

	if c.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be greater than 0")
	}

	if c.APITimeout <= 0 {
		return fmt.Errorf("API_TIMEOUT must be greater than 0")
	}

	return nil
}
