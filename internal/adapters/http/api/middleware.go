package api

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/okian/skillmatrix/pkg/metrics"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/middleware/stdlib"
	"github.com/ulule/limiter/v3/drivers/store/memory"
)

// HTTP status code constants.
const (
	statusBadRequest      = 400
	statusNotFound        = 404
	statusTooManyRequests = 429
	statusInternalError   = 500
)

// DefaultRate is used when no rate is configured.
const DefaultRate = "120-M"

// ParseRate parses a limiter rate such as "120-M".
func ParseRate(formatted string) (limiter.Rate, error) {
	rate, err := limiter.NewRateFromFormatted(formatted)
	if err != nil {
		return limiter.Rate{}, fmt.Errorf("%w: %q: %v", ErrInvalidRate, formatted, err)
	}
	return rate, nil
}

// RateLimit returns middleware limiting requests per client IP to rate,
// backed by an in-memory store. A zero rate falls back to DefaultRate.
func RateLimit(rate limiter.Rate) func(http.Handler) http.Handler {
	if rate.Limit <= 0 || rate.Period <= 0 {
		rate, _ = ParseRate(DefaultRate)
	}
	instance := limiter.New(memory.NewStore(), rate)
	mw := stdlib.NewMiddleware(instance,
		stdlib.WithLimitReachedHandler(func(w http.ResponseWriter, _ *http.Request) {
			metrics.RecordRateLimited()
			writeError(w, http.StatusTooManyRequests, "rate_limited", ErrRateLimited)
		}),
	)
	return mw.Handler
}

// MetricsMiddleware wraps HTTP handlers to record Prometheus metrics.
func MetricsMiddleware(next http.HandlerFunc, endpoint string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// Create a response writer wrapper to capture status code
		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		durationMs := float64(time.Since(start).Milliseconds())
		statusCodeStr := strconv.Itoa(wrapped.statusCode)

		metrics.RecordHTTPRequest(endpoint, r.Method, statusCodeStr)
		metrics.RecordHTTPRequestDuration(endpoint, r.Method, statusCodeStr, durationMs)

		if wrapped.statusCode >= statusBadRequest {
			metrics.RecordErrorByComponent("http", getErrorType(wrapped.statusCode))
		}
	}
}

// getErrorType returns a standardized error type based on HTTP status code.
func getErrorType(statusCode int) string {
	switch {
	case statusCode >= statusInternalError:
		return "server_error"
	case statusCode == statusTooManyRequests:
		return "rate_limit"
	case statusCode == statusNotFound:
		return "not_found"
	case statusCode >= statusBadRequest:
		return "client_error"
	default:
		return "unknown"
	}
}

// responseWriter wraps http.ResponseWriter to capture status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	if err != nil {
		return n, fmt.Errorf("failed to write response: %w", err)
	}
	return n, nil
}
