// Package core is the HTTP chassis of ecorisk-web. It builds a chi router
// usable both by net/http (local and container runs) and by the Lambda
// Function URL adapter, and applies the cross-cutting concerns (recovery,
// request IDs, logging, CORS, metrics, compression) before requests reach
// the prediction handlers.
package core

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"ecorisk/internal/config"
)

// MetricsCollector records API telemetry. Endpoint is the chi route pattern,
// not the raw path.
type MetricsCollector interface {
	RecordRequest(method, endpoint, status string, duration time.Duration)
}

// RouteRegistrar mounts a group of routes on the router. Handler packages
// provide registrars so that core does not import them.
type RouteRegistrar func(r chi.Router)

// Server holds the dependencies of the web process.
type Server struct {
	Config       *config.Config
	Logger       *slog.Logger
	Metrics      MetricsCollector
	HealthProbes []HealthProbe

	// RouteRegistrars are mounted at the root by MountRoutes, after the
	// global middleware.
	RouteRegistrars []RouteRegistrar

	router *chi.Mux
}

// NewServer validates its inputs and prepares an empty router. Callers set
// Metrics, HealthProbes and RouteRegistrars, then call MountRoutes.
func NewServer(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger must not be nil")
	}

	return &Server{
		Config: cfg,
		Logger: logger,
		router: chi.NewRouter(),
	}, nil
}

// Handler returns the router as an http.Handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Router returns the underlying chi.Mux.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Shutdown flushes buffered metrics, if the collector buffers.
func (s *Server) Shutdown(ctx context.Context) error {
	s.Logger.Info("server shutdown initiated")

	if f, ok := s.Metrics.(interface{ Flush(context.Context) error }); ok {
		if err := f.Flush(ctx); err != nil {
			s.Logger.Error("error flushing metrics", "error", err)
			return fmt.Errorf("flushing metrics: %w", err)
		}
	}

	s.Logger.Info("server shutdown complete")
	return nil
}
