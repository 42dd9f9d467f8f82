// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/okian/skillmatrix/internal/adapters/gateway"
	service "github.com/okian/skillmatrix/internal/app"
	"github.com/okian/skillmatrix/internal/domain/model"
	"github.com/okian/skillmatrix/internal/domain/progress"
	"github.com/okian/skillmatrix/internal/store/matrix"
	"github.com/ulule/limiter/v3"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to the service implementation.
type Dependencies interface {
	MatrixState() matrix.State
	Progress() []progress.Summary
	Reload(ctx context.Context) error
	SetFilters(ctx context.Context, f model.FilterOptions) error
	UpdateScore(ctx context.Context, employeeID int64, columnID string, level int, notes string) (model.Score, error)
	Level(level int) model.LevelConfig
	Analytics(ctx context.Context, department string) (model.AnalyticsData, error)
}

// Option applies a configuration option to the Server.
type Option func(*Server)

// WithRate sets the shared request rate. See ParseRate.
func WithRate(rate limiter.Rate) Option {
	return func(s *Server) {
		s.rate = rate
	}
}

// Server wires HTTP routes for the local dashboard API.
type Server struct {
	healthHandler    *HealthHandler
	statsHandler     *StatsHandler
	matrixHandler    *MatrixHandler
	scoresHandler    *ScoresHandler
	levelsHandler    *LevelsHandler
	analyticsHandler *AnalyticsHandler

	rate limiter.Rate
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...Option) *Server {
	s := &Server{
		healthHandler:    NewHealthHandler(),
		statsHandler:     NewStatsHandler(statsProvider),
		matrixHandler:    NewMatrixHandler(deps),
		scoresHandler:    NewScoresHandler(deps),
		levelsHandler:    NewLevelsHandler(deps),
		analyticsHandler: NewAnalyticsHandler(deps),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	limit := RateLimit(s.rate)
	route := func(pattern, endpoint string, h http.HandlerFunc) {
		mux.Handle(pattern, limit(MetricsMiddleware(h, endpoint)))
	}

	route("GET /healthz", "healthz", s.healthHandler.HandleHealth)
	route("GET /stats", "stats", s.statsHandler.HandleStats)
	route("GET /matrix", "matrix", s.matrixHandler.HandleGetMatrix)
	route("POST /matrix/reload", "matrix_reload", s.matrixHandler.HandleReload)
	route("PUT /matrix/filters", "matrix_filters", s.matrixHandler.HandleSetFilters)
	route("POST /scores", "scores", s.scoresHandler.HandlePostScore)
	route("GET /levels/{level}", "levels", s.levelsHandler.HandleGetLevel)
	route("GET /analytics", "analytics", s.analyticsHandler.HandleGetAnalytics)
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// badRequest wraps a decoding or parsing failure for op.
func badRequest(op string, err error) error {
	return fmt.Errorf("%s: %w: %v", op, ErrBadRequest, err)
}

// writeServiceError translates service and gateway errors to a status code.
func writeServiceError(w http.ResponseWriter, err error) {
	var gwErr *gateway.Error
	switch {
	case errors.Is(err, model.ErrValidation), errors.Is(err, ErrBadRequest):
		writeError(w, http.StatusBadRequest, "bad_request", err)
	case errors.Is(err, service.ErrForbidden):
		writeError(w, http.StatusForbidden, "forbidden", err)
	case errors.Is(err, gateway.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", err)
	case errors.As(err, &gwErr), errors.Is(err, model.ErrIncompleteAnalytics):
		writeError(w, http.StatusBadGateway, "upstream_error", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err)
	}
}
