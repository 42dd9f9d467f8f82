// Package config defines the client configuration and how it is loaded.
package config

import (
	"context"
	"path/filepath"
	"time"

	"github.com/okian/skillmatrix/internal/adapters/session"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects text or json log output.
	LogFormat string `koanf:"log_format"`

	// Addr configures the local HTTP facade listen address.
	Addr string `koanf:"addr"`

	// APIURL is the root of the backend REST API.
	APIURL string `koanf:"api_url"`

	// RequestTimeoutMS bounds every backend request.
	RequestTimeoutMS int `koanf:"request_timeout_ms"`

	// SessionPath is where the session is persisted.
	SessionPath string `koanf:"session_path"`

	// ActiveOnly is the initial active_only matrix filter.
	ActiveOnly bool `koanf:"active_only"`

	// RateLimit is the facade limit in limiter format, e.g. "120-M".
	RateLimit string `koanf:"rate_limit"`

	// DefaultUpdatedBy attributes score updates made without a signed-in user.
	DefaultUpdatedBy string `koanf:"default_updated_by"`
}

// New creates a Config with defaults.
func New(_ context.Context) *Config {
	sessionPath, err := session.DefaultPath()
	if err != nil {
		sessionPath = filepath.Join(".skillmatrix", "session.json")
	}
	return &Config{
		LogLevel:         "info",
		LogFormat:        "text",
		Addr:             ":9090",
		APIURL:           "http://localhost:8000/api",
		RequestTimeoutMS: 10_000,
		SessionPath:      sessionPath,
		ActiveOnly:       true,
		RateLimit:        "120-M",
		DefaultUpdatedBy: "current_user",
	}
}

// RequestTimeout returns RequestTimeoutMS as a duration.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutMS) * time.Millisecond
}
