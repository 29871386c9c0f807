// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/okian/transformdiag/internal/adapters/dataset"
	service "github.com/okian/transformdiag/internal/app"
	"github.com/okian/transformdiag/internal/domain/chart"
	"github.com/okian/transformdiag/internal/domain/quantile"
	"github.com/okian/transformdiag/internal/domain/record"
	"github.com/okian/transformdiag/pkg/logger"
)

// Dependencies required by HTTP handlers.
type Dependencies interface {
	FigureDependencies
	TransformDependencies
	ColumnsDependencies
}

// defaultMaxBodyBytes caps POST bodies when no limit is configured.
const defaultMaxBodyBytes = 8 << 20

// Server wires HTTP routes for the diagnostics API.
type Server struct {
	healthHandler    *HealthHandler
	statsHandler     *StatsHandler
	figuresHandler   *FiguresHandler
	transformHandler *TransformHandler
	columnsHandler   *ColumnsHandler
	dashboardHandler *dashboardHandler
}

// ServerOption applies a configuration option to the Server.
type ServerOption func(*serverConfig)

type serverConfig struct {
	maxBodyBytes int64
	logger       logger.Logger
}

// WithMaxBodyBytes caps POST request bodies.
func WithMaxBodyBytes(n int64) ServerOption {
	return func(c *serverConfig) {
		if n > 0 {
			c.maxBodyBytes = n
		}
	}
}

// WithLogger sets the handler logger.
func WithLogger(l logger.Logger) ServerOption {
	return func(c *serverConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...ServerOption) *Server {
	cfg := serverConfig{maxBodyBytes: defaultMaxBodyBytes}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.logger == nil {
		cfg.logger = logger.Get().Named("api")
	}
	return &Server{
		healthHandler:    NewHealthHandler(),
		statsHandler:     NewStatsHandler(statsProvider),
		figuresHandler:   NewFiguresHandler(deps, cfg.logger),
		transformHandler: NewTransformHandler(deps, cfg.maxBodyBytes, cfg.logger),
		columnsHandler:   NewColumnsHandler(deps),
		dashboardHandler: newDashboardHandler(),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	if mux == nil {
		panic("mux is nil")
	}
	route := func(pattern, endpoint string, h http.HandlerFunc) {
		mux.HandleFunc(pattern, RequestIDMiddleware(MetricsMiddleware(h, endpoint)))
	}

	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/dashboard", s.dashboardHandler.HandleDashboard)
	route("/stats", "stats", s.statsHandler.HandleStats)
	route("/api/columns", "columns", s.columnsHandler.HandleColumns)
	route("/api/reload", "reload", s.columnsHandler.HandleReload)
	route("/api/figures/summary", "figures_summary", s.figuresHandler.HandleSummary)
	route("/api/figures/bands", "figures_bands", s.figuresHandler.HandleBands)
	route("/api/quantiles", "quantiles", s.transformHandler.HandleQuantiles)
	route("/api/normalize", "normalize", s.transformHandler.HandleNormalize)
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// writeJSON encodes v before writing the header; an unencodable value is
// answered with a 500.
func writeJSON(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		status = http.StatusInternalServerError
		body, _ = json.Marshal(errorResponse{Code: "internal_error", Message: err.Error()})
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(append(body, '\n'))
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// statusFor maps an error to an HTTP status and a stable code. Data
// problems in the records are 422; malformed requests are 400.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, ErrBodyTooLarge):
		return http.StatusRequestEntityTooLarge, "body_too_large"
	case errors.Is(err, ErrInvalidBody):
		return http.StatusBadRequest, "invalid_body"
	case errors.Is(err, ErrBadRequest):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, chart.ErrInvalidOptions),
		errors.Is(err, quantile.ErrInvalidLevel),
		errors.Is(err, quantile.ErrNoGroupFields):
		return http.StatusBadRequest, service.ErrorKind(err)
	case errors.Is(err, record.ErrMissingField),
		errors.Is(err, record.ErrInvalidNumericValue),
		errors.Is(err, record.ErrEmptyGroup),
		errors.Is(err, record.ErrZeroOrMissingBestValue):
		return http.StatusUnprocessableEntity, service.ErrorKind(err)
	case errors.Is(err, dataset.ErrNotLoaded), errors.Is(err, service.ErrNoDataPath):
		return http.StatusServiceUnavailable, "unavailable"
	case errors.Is(err, ErrMethodNotAllowed):
		return http.StatusMethodNotAllowed, "method_not_allowed"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

func writeErr(w http.ResponseWriter, err error) {
	status, code := statusFor(err)
	writeError(w, status, code, err)
}
