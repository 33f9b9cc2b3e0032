// Package server assembles the HTTP service: configuration, model, browser
// driver, agent and routes.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hashicorp/go-multierror"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/lewisedginton/ai_assistant_api/internal/assistant"
	"github.com/lewisedginton/ai_assistant_api/internal/config"
	"github.com/lewisedginton/ai_assistant_api/internal/middleware"
	"github.com/lewisedginton/ai_assistant_api/internal/monitoring"
	"github.com/lewisedginton/ai_assistant_api/pkg/httpmiddleware"
	"github.com/lewisedginton/ai_assistant_api/pkg/logger"
	"github.com/lewisedginton/ai_assistant_api/pkg/metrics"
)

const shutdownTimeout = 30 * time.Second

// Server represents the assistant HTTP server
type Server struct {
	cfg     *config.AppConfig
	log     logger.Logger
	server  *http.Server
	metrics *metrics.Metrics
	health  *monitoring.HealthMonitor

	// stopDriver shuts the browser driver down after the listener closed
	stopDriver func() error
}

// New builds the question pipeline and wires it behind POST /ask.
func New(ctx context.Context, cfg *config.AppConfig, log logger.Logger) (*Server, error) {
	m := metrics.NewMetrics(cfg.Metrics.EnableHTTPMetrics, cfg.Metrics.EnableAgentMetrics, log)
	registerRuntimeMetrics(m)
	p, err := NewPipeline(ctx, cfg, log, m)
	if err != nil {
		return nil, err
	}
	return newServer(cfg, log, p.Service, p.Launcher, m, p.Launcher.Stop), nil
}

// registerRuntimeMetrics adds the Go runtime and process collectors to the
// metrics registry.
func registerRuntimeMetrics(m *metrics.Metrics) {
	m.AddCustomMetric(collectors.NewGoCollector())
	m.AddCustomMetric(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
}

// newServer builds the router and http.Server around an Asker. ready
// backs the readiness check.
func newServer(cfg *config.AppConfig, log logger.Logger, asker assistant.Asker, ready monitoring.ReadyChecker, m *metrics.Metrics, stopDriver func() error) *Server {
	s := &Server{
		cfg:        cfg,
		log:        log,
		metrics:    m,
		stopDriver: stopDriver,
	}
	if cfg.Health.Enabled {
		s.health = monitoring.NewHealthMonitor(monitoring.Config{
			Logger:           log,
			Browser:          ready,
			UpstreamURL:      cfg.Health.UpstreamURL,
			Timeout:          cfg.Health.Timeout,
			FailureThreshold: cfg.Health.FailureThreshold,
			LivenessPath:     cfg.Health.LivenessPath,
			ReadinessPath:    cfg.Health.ReadinessPath,
			CombinedPath:     cfg.Health.CombinedPath,
		})
	}

	s.server = &http.Server{
		Addr:           cfg.HTTP.Addr(),
		Handler:        s.router(assistant.NewHandler(asker, cfg.Security.MaxRequestSize, log)),
		ReadTimeout:    cfg.HTTP.ReadTimeout(),
		WriteTimeout:   cfg.HTTP.WriteTimeout(),
		IdleTimeout:    cfg.HTTP.IdleTimeout(),
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}
	return s
}

// router sets up all routes and middleware. The agent deadline is enforced
// by the service, so the request timeout middleware stays off.
func (s *Server) router(h *assistant.Handler) http.Handler {
	r := chi.NewRouter()

	mw := httpmiddleware.DefaultConfig()
	mw.Logger = s.log
	mw.EnableLogging = true
	mw.EnableTimeout = false
	mw.Metrics = s.metrics.HTTPMiddleware()

	recovery := middleware.DefaultRecoveryConfig()
	recovery.Logger = s.log
	mw.Recoverer = middleware.Recovery(recovery)

	if len(s.cfg.Security.CORSAllowedOrigins) > 0 {
		cors := httpmiddleware.DefaultCORSConfig()
		cors.AllowedOrigins = s.cfg.Security.CORSAllowedOrigins
		mw.CORS = &cors
	}
	httpmiddleware.ApplyToRouter(r, mw)

	r.Post("/ask", h.Ask)
	if s.health != nil {
		s.health.RegisterHandlers(r)
	}
	return r
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Listen starts the HTTP server and, when configured, the metrics listener.
// It returns the server error channels, a forceful closer and a graceful one.
func (s *Server) Listen() ([]<-chan error, func(), func()) {
	errChan := make(chan error, 1)
	go func() {
		s.log.Info("Starting HTTP server", logger.StringField("addr", s.server.Addr))
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
		close(errChan)
	}()

	chans := []<-chan error{errChan}
	if s.cfg.Metrics.ExposeMetrics {
		chans = append(chans, s.metrics.Listen(s.cfg.Metrics.Port))
	}

	closer := func() {
		s.log.Info("Forcefully closing HTTP server")
		if err := s.Close(); err != nil {
			s.log.Error("Error during forced shutdown", logger.ErrorField(err))
		}
	}
	gracefulCloser := func() {
		s.log.Info("Gracefully closing HTTP server")
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := s.Shutdown(ctx); err != nil {
			s.log.Error("Error during graceful shutdown", logger.ErrorField(err))
		}
	}
	return chans, closer, gracefulCloser
}

// Shutdown marks the service as draining, waits for in-flight questions and
// then stops the metrics listener and the browser driver.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.health != nil {
		s.health.SetDraining(true)
	}

	var result error
	if err := s.server.Shutdown(ctx); err != nil {
		result = multierror.Append(result, fmt.Errorf("server shutdown error: %w", err))
	}
	if err := s.metrics.Shutdown(ctx); err != nil {
		result = multierror.Append(result, fmt.Errorf("metrics shutdown error: %w", err))
	}
	if err := s.stop(); err != nil {
		result = multierror.Append(result, err)
	}
	return result
}

// Close forcefully shuts down the server and the browser driver.
func (s *Server) Close() error {
	var result error
	if err := s.server.Close(); err != nil {
		result = multierror.Append(result, err)
	}
	if err := s.stop(); err != nil {
		result = multierror.Append(result, err)
	}
	return result
}

func (s *Server) stop() error {
	if s.stopDriver == nil {
		return nil
	}
	return s.stopDriver()
}
