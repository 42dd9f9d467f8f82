package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/ulule/limiter/v3"
)

// Environment names.
const (
	EnvPrefix = "SKILLMATRIX_"
	EnvConfig = EnvPrefix + "CONFIG"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New(ctx))
//  2. file (YAML) if SKILLMATRIX_CONFIG is set
//  3. env (prefix SKILLMATRIX_), after loading an optional .env file
//
// The result is not validated: callers layer their own overrides (flags) on
// top and then call Validate.
func Load(ctx context.Context) (*Config, error) {
	base := New(ctx)

	// Variables already in the environment win over .env entries.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: .env: %w", ErrLoadConfig, err)
	}

	k := koanf.New(".")

	if path := os.Getenv(EnvConfig); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
		}
	}

	// SKILLMATRIX_API_URL -> api_url (flat keys).
	envProvider := env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.TrimPrefix(strings.ToLower(s), strings.ToLower(EnvPrefix))
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}
	return &cfg, nil
}

// Validate checks the loaded values.
func (c *Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	u, err := url.Parse(c.APIURL)
	if c.APIURL == "" || err != nil || !u.IsAbs() || u.Host == "" {
		return fmt.Errorf("%w: api_url must be an absolute URL, got %q", ErrInvalidConfig, c.APIURL)
	}
	if c.RequestTimeoutMS <= 0 {
		return fmt.Errorf("%w: request_timeout_ms must be > 0", ErrInvalidConfig)
	}
	if _, err := limiter.NewRateFromFormatted(c.RateLimit); err != nil {
		return fmt.Errorf("%w: rate_limit: %w", ErrInvalidConfig, err)
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("%w: log_format must be text or json", ErrInvalidConfig)
	}
	return nil
}
