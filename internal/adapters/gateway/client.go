// Package gateway is the typed client of the training matrix REST API.
//
// Every call returns the decoded entity on a 2xx response. Anything else
// surfaces as *Error with KindNetwork (transport failure or timeout) or
// KindServer (non-2xx status, or a 2xx body that does not decode).
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/okian/skillmatrix/pkg/logger"
	"github.com/okian/skillmatrix/pkg/metrics"
)

const maxMessageLen = 512

// Client calls the backend API.
type Client struct {
	base           string
	http           *http.Client
	timeout        time.Duration
	tokens         TokenSource
	onUnauthorized UnauthorizedFunc
	log            logger.Logger
	maxBody        int64

	mu sync.RWMutex
}

// New creates a client for the API rooted at baseURL, e.g. http://localhost:8000/api.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrBaseURL, baseURL)
	}
	c := &Client{
		base:    strings.TrimRight(u.String(), "/"),
		timeout: defaultTimeout,
		maxBody: defaultMaxBodyBytes,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.http == nil {
		c.http = &http.Client{}
	}
	if c.http.Timeout == 0 {
		c.http.Timeout = c.timeout
	}
	if c.log == nil {
		c.log = logger.Get().Named("gateway")
	}
	return c, nil
}

// BaseURL returns the API root the client talks to.
func (c *Client) BaseURL() string { return c.base }

// SetUnauthorizedHandler replaces the 401 hook after construction.
func (c *Client) SetUnauthorizedHandler(fn UnauthorizedFunc) {
	c.mu.Lock()
	c.onUnauthorized = fn
	c.mu.Unlock()
}

// call sends in as JSON and decodes the response into out when out is non-nil.
func (c *Client) call(ctx context.Context, op, method, path string, query url.Values, in, out any) error {
	body, err := c.send(ctx, op, method, path, query, in)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		gerr := &Error{Op: op, Kind: KindServer, Status: http.StatusOK, Message: "malformed response body", Body: truncate(body), Err: err}
		c.fail(ctx, gerr)
		return gerr
	}
	return nil
}

// send performs one round trip and returns the raw 2xx body.
func (c *Client) send(ctx context.Context, op, method, path string, query url.Values, in any) ([]byte, error) {
	target := c.base + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var reader io.Reader
	if in != nil {
		buf := &bytes.Buffer{}
		if err := json.NewEncoder(buf).Encode(in); err != nil {
			return nil, fmt.Errorf("%s: encode request: %w", op, err)
		}
		reader = buf
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, fmt.Errorf("%s: build request: %w", op, err)
	}
	reqID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", reqID)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.tokens != nil {
		if tok := c.tokens.Token(); tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	elapsed := float64(time.Since(start).Microseconds()) / 1000
	if err != nil {
		metrics.RecordGatewayRequest(op, method, "error", elapsed)
		gerr := &Error{Op: op, Kind: KindNetwork, Timeout: isTimeout(err), Err: err}
		c.fail(ctx, gerr, logger.String("request_id", reqID))
		return nil, gerr
	}
	defer func() { _ = resp.Body.Close() }()

	metrics.RecordGatewayRequest(op, method, strconv.Itoa(resp.StatusCode), elapsed)
	payload, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody))
	if err != nil {
		gerr := &Error{Op: op, Kind: KindNetwork, Timeout: isTimeout(err), Err: err}
		c.fail(ctx, gerr, logger.String("request_id", reqID))
		return nil, gerr
	}

	c.log.Debug(ctx, "gateway request",
		logger.String("op", op),
		logger.String("method", method),
		logger.String("request_id", reqID),
		logger.Int("status", resp.StatusCode),
		logger.Float64("elapsed_ms", elapsed))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		gerr := &Error{
			Op:      op,
			Kind:    KindServer,
			Status:  resp.StatusCode,
			Message: detailMessage(payload),
			Body:    truncate(payload),
			Err:     ErrServer,
		}
		c.fail(ctx, gerr, logger.String("request_id", reqID))
		if resp.StatusCode == http.StatusUnauthorized {
			c.mu.RLock()
			hook := c.onUnauthorized
			c.mu.RUnlock()
			if hook != nil {
				hook(ctx, gerr)
			}
		}
		return nil, gerr
	}
	return payload, nil
}

func (c *Client) fail(ctx context.Context, e *Error, fields ...logger.Field) {
	metrics.RecordGatewayError(e.label())
	fields = append(fields,
		logger.String("op", e.Op),
		logger.String("kind", string(e.Kind)),
		logger.Int("status", e.Status),
		logger.Error(e))
	c.log.Warn(ctx, "gateway request failed", fields...)
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

// detailMessage extracts a readable message from an error body. FastAPI
// answers {"detail": "..."} or {"detail": [{"msg": "..."}]}.
func detailMessage(body []byte) string {
	var envelope struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil && len(envelope.Detail) > 0 {
		var s string
		if json.Unmarshal(envelope.Detail, &s) == nil {
			return s
		}
		var items []struct {
			Msg string `json:"msg"`
		}
		if json.Unmarshal(envelope.Detail, &items) == nil {
			msgs := make([]string, 0, len(items))
			for _, it := range items {
				if it.Msg != "" {
					msgs = append(msgs, it.Msg)
				}
			}
			if len(msgs) > 0 {
				return strings.Join(msgs, "; ")
			}
		}
	}
	msg := strings.TrimSpace(string(body))
	if len(msg) > maxMessageLen {
		msg = msg[:maxMessageLen]
	}
	return msg
}

func truncate(b []byte) []byte {
	if len(b) > maxMessageLen {
		b = b[:maxMessageLen]
	}
	return append([]byte(nil), b...)
}

func escape(segment string) string {
	return url.PathEscape(segment)
}
