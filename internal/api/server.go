// Package api provides the HTTP REST API for fleetcore.
//
// It exposes the live robot roster and the task planning endpoints to
// dashboards and operator tooling.
//
// The server follows the same lifecycle pattern as the other
// components:
//
//	server, err := api.New(deps)
//	server.Start(ctx)
//	defer server.Close()
//
// Thread Safety: All methods are safe for concurrent use from multiple goroutines.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/finchrobotics/fleet-core/internal/fleet"
	"github.com/finchrobotics/fleet-core/internal/infrastructure/config"
	"github.com/finchrobotics/fleet-core/internal/infrastructure/logging"
	"github.com/finchrobotics/fleet-core/internal/schedule"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight
// requests to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config    config.APIConfig
	Scheduler config.SchedulerConfig
	Logger    *logging.Logger
	Cache     *fleet.Cache
	Tasks     schedule.Repository // optional; task endpoints 500 without it
	Version   string
}

// Server is the fleetcore HTTP API server.
//
// It manages the HTTP listener, routes, and middleware. The server is
// created with New() and started with Start().
type Server struct {
	cfg       config.APIConfig
	schedCfg  config.SchedulerConfig
	logger    *logging.Logger
	cache     *fleet.Cache
	tasks     schedule.Repository
	extractor schedule.StepExtractor
	version   string
	server    *http.Server
}

// New creates a new API server with the given dependencies.
// The server is not started until Start() is called.
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Cache == nil {
		return nil, fmt.Errorf("fleet cache is required")
	}

	return &Server{
		cfg:      deps.Config,
		schedCfg: deps.Scheduler,
		logger:   deps.Logger,
		cache:    deps.Cache,
		tasks:    deps.Tasks,
		extractor: schedule.HeuristicExtractor{
			MaxSteps:        deps.Scheduler.MaxSteps,
			BaseDurationSec: deps.Scheduler.DefaultStepDuration,
		},
		version: deps.Version,
	}, nil
}

// Start begins listening for HTTP connections.
//
// It builds the router and launches the HTTP listener in a background
// goroutine. The server is stopped with Close().
func (s *Server) Start(ctx context.Context) error {
	_ = ctx // listener lifetime is controlled by Close

	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:           s.buildRouter(),
		ReadTimeout:       s.cfg.GetReadTimeout(),
		ReadHeaderTimeout: s.cfg.GetReadTimeout(),
		WriteTimeout:      s.cfg.GetWriteTimeout(),
		IdleTimeout:       s.cfg.GetIdleTimeout(),
	}

	go func() {
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()

	return nil
}

// Close gracefully shuts down the API server.
//
// It waits up to 10 seconds for in-flight requests to complete,
// then forcefully closes remaining connections.
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("API server shutting down")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	return nil
}

// HealthCheck verifies the API server is running.
func (s *Server) HealthCheck(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("api health check: %w", ctx.Err())
	default:
	}

	if s.server == nil {
		return fmt.Errorf("api server not started")
	}

	return nil
}
