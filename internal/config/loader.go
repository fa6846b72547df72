package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	envPrefix     = "SIDELINE_"
	envConfig     = envPrefix + "CONFIG"
	envDotEnv     = envPrefix + "DOTENV"
	defaultDotEnv = ".env"
	rosterSize    = 5
)

// listKeys are split on commas when they come from the environment.
var listKeys = map[string]bool{
	"player_names": true,
	"cors_origins": true,
	"mail_to":      true,
}

// Load builds a Config by layering defaults, an optional .env file, an
// optional YAML file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. .env (SIDELINE_DOTENV, default ./.env) exported into the process env
//  3. file (YAML) if SIDELINE_CONFIG is set
//  4. env (prefix SIDELINE_)
func Load(_ context.Context) (*Config, error) {
	if err := loadDotEnv(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	k := koanf.New(".")

	if path := os.Getenv(envConfig); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
		}
	}

	// SIDELINE_QUEUE_SIZE -> queue_size; list keys accept "a,b,c".
	envProvider := env.ProviderWithValue(envPrefix, ".", func(key, value string) (string, any) {
		key = strings.TrimPrefix(strings.ToLower(key), strings.ToLower(envPrefix))
		if listKeys[key] {
			parts := strings.Split(value, ",")
			for i := range parts {
				parts[i] = strings.TrimSpace(parts[i])
			}
			return key, parts
		}
		return key, value
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	cfg := *New()
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// loadDotEnv exports variables from the .env file without overriding the
// real environment. A missing default file is fine; a missing explicit one
// is not.
func loadDotEnv() error {
	path, explicit := os.LookupEnv(envDotEnv)
	if !explicit {
		path = defaultDotEnv
	}
	err := godotenv.Load(path)
	if err != nil && !explicit && errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// Validate checks the invariants the service relies on.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.SurfaceHeight <= 0:
		return fmt.Errorf("%w: surface_height must be positive", ErrInvalidConfig)
	case c.MetricsRefreshInterval <= 0:
		return fmt.Errorf("%w: metrics_refresh_interval must be positive", ErrInvalidConfig)
	case len(c.PlayerNames) != rosterSize:
		return fmt.Errorf("%w: player_names needs exactly %d names, got %d", ErrInvalidConfig, rosterSize, len(c.PlayerNames))
	}
	seen := mapset.NewThreadUnsafeSet[string]()
	for i, name := range c.PlayerNames {
		if strings.TrimSpace(name) == "" {
			return fmt.Errorf("%w: player_names[%d] is empty", ErrInvalidConfig, i)
		}
		if !seen.Add(name) {
			return fmt.Errorf("%w: player_names has %q twice", ErrInvalidConfig, name)
		}
	}
	return nil
}

// MailEnabled reports whether enough mail settings are present to send.
func (c *Config) MailEnabled() bool {
	return c.SMTPHost != "" && c.MailFrom != "" && len(c.MailTo) > 0
}
