// Package config loads server settings from the environment.
//
// An optional .env file is read first with godotenv, so variables already
// set in the process environment take precedence over the file. The result
// is parsed into Config with caarlos0/env and checked by Validate.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

var ErrInvalidConfig = errors.New("invalid configuration")

// Config holds every setting the server reads at startup.
type Config struct {
	Addr           string        `env:"GOBANG_ADDR"             envDefault:":8085"`
	DBPath         string        `env:"GOBANG_DB_PATH"          envDefault:"gobang.db"`
	WebRoot        string        `env:"GOBANG_WEB_ROOT"         envDefault:"./wwwroot"`
	SessionTimeout time.Duration `env:"GOBANG_SESSION_TIMEOUT"  envDefault:"30s"`
	HighTierScore  int           `env:"GOBANG_HIGH_TIER_SCORE"  envDefault:"2000"`
	SuperTierScore int           `env:"GOBANG_SUPER_TIER_SCORE" envDefault:"3000"`
	BannedWords    []string      `env:"GOBANG_BANNED_WORDS"     envDefault:"sb" envSeparator:","`
	Debug          bool          `env:"GOBANG_DEBUG"`

	NgrokEnabled   bool   `env:"NGROK_ENABLED"`
	NgrokAuthToken string `env:"NGROK_AUTHTOKEN"`
	NgrokDomain    string `env:"NGROK_DOMAIN"`
}

// Load reads envFile if it exists and parses the environment. An empty
// envFile defaults to ".env".
func Load(envFile string) (Config, error) {
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load %s: %w", envFile, err)
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the settings for consistency.
func (c Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: listen address is empty", ErrInvalidConfig)
	case c.SessionTimeout <= 0:
		return fmt.Errorf("%w: session timeout must be positive, got %s", ErrInvalidConfig, c.SessionTimeout)
	case c.HighTierScore <= 0:
		return fmt.Errorf("%w: high tier score must be positive, got %d", ErrInvalidConfig, c.HighTierScore)
	case c.HighTierScore >= c.SuperTierScore:
		return fmt.Errorf("%w: high tier score %d must be below super tier score %d",
			ErrInvalidConfig, c.HighTierScore, c.SuperTierScore)
	case c.NgrokEnabled && c.NgrokAuthToken == "":
		return fmt.Errorf("%w: NGROK_AUTHTOKEN is required when ngrok is enabled", ErrInvalidConfig)
	}
	return nil
}
