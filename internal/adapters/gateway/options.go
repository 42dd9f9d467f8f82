package gateway

import (
	"context"
	"net/http"
	"time"

	"github.com/okian/skillmatrix/pkg/logger"
)

// Default gateway configuration constants.
const (
	defaultTimeout      = 10 * time.Second
	defaultMaxBodyBytes = 32 << 20
)

// TokenSource supplies the bearer token for each request. An empty token
// sends no Authorization header.
type TokenSource interface {
	Token() string
}

// StaticToken is a fixed TokenSource.
type StaticToken string

// Token implements TokenSource.
func (t StaticToken) Token() string { return string(t) }

// UnauthorizedFunc is called after the backend answers 401.
type UnauthorizedFunc func(ctx context.Context, err *Error)

// Option applies a configuration option to the Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client. Its Timeout is
// overridden by WithTimeout only when the client has none.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithTimeout bounds every request.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithTokenSource sets the bearer token source.
func WithTokenSource(ts TokenSource) Option {
	return func(c *Client) {
		c.tokens = ts
	}
}

// WithUnauthorizedHandler registers fn to run on every 401 response.
func WithUnauthorizedHandler(fn UnauthorizedFunc) Option {
	return func(c *Client) {
		c.onUnauthorized = fn
	}
}

// WithLogger sets the client logger.
func WithLogger(l logger.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

// WithMaxBodyBytes caps how much of a response body is read.
func WithMaxBodyBytes(n int64) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxBody = n
		}
	}
}
