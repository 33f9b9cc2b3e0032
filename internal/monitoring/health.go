// Package monitoring wires the service's health checks.
package monitoring

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/lewisedginton/ai_assistant_api/pkg/health"
	"github.com/lewisedginton/ai_assistant_api/pkg/health/checkers"
	"github.com/lewisedginton/ai_assistant_api/pkg/logger"
)

// Version is reported by the health endpoints. It is set at build time
// with -ldflags "-X .../internal/monitoring.Version=...".
var Version = "dev"

// ReadyChecker is a dependency that can report readiness.
type ReadyChecker interface {
	Ready(ctx context.Context) error
}

// Config holds configuration for the health monitor
type Config struct {
	Logger           logger.Logger
	Browser          ReadyChecker  // browser driver, required for readiness
	UpstreamURL      string        // Optional: HTTP check against the model endpoint
	Timeout          time.Duration // Health check timeout
	FailureThreshold int           // Number of consecutive failures before reporting unhealthy

	LivenessPath  string
	ReadinessPath string
	CombinedPath  string
}

// HealthMonitor manages health checks and monitoring endpoints for the application
type HealthMonitor struct {
	checker   *health.HealthChecker
	cfg       Config
	logger    logger.Logger
	startTime time.Time
}

type response struct {
	health.HealthResponse
	Uptime  string `json:"uptime"`
	Version string `json:"version"`
}

// NewHealthMonitor creates a new health monitor with configured checks
func NewHealthMonitor(cfg Config) *HealthMonitor {
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = 3
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.NewNop()
	}
	if cfg.LivenessPath == "" {
		cfg.LivenessPath = "/health/live"
	}
	if cfg.ReadinessPath == "" {
		cfg.ReadinessPath = "/health/ready"
	}
	if cfg.CombinedPath == "" {
		cfg.CombinedPath = "/health"
	}

	checker := health.New(
		health.WithLogger(cfg.Logger),
		health.WithTimeout(cfg.Timeout),
		health.WithFailureThreshold(cfg.FailureThreshold),
	)

	checker.AddLivenessCheck(health.NewCheckFunc("process", func(context.Context) error {
		return nil
	}))

	if cfg.Browser != nil {
		checker.AddReadinessCheck(health.NewCheckFunc("browser_driver", cfg.Browser.Ready))
	}
	if cfg.UpstreamURL != "" {
		checker.AddReadinessCheck(checkers.NewHTTPChecker(cfg.UpstreamURL, "llm_upstream"))
	}

	return &HealthMonitor{
		checker:   checker,
		cfg:       cfg,
		logger:    cfg.Logger,
		startTime: time.Now(),
	}
}

// SetDraining marks the service as shutting down; readiness fails from then on.
func (hm *HealthMonitor) SetDraining(draining bool) {
	hm.checker.SetDraining(draining)
}

// LivenessHandler returns 200 if the process is alive.
func (hm *HealthMonitor) LivenessHandler() http.HandlerFunc {
	return hm.handler("Liveness", hm.checker.CheckLiveness)
}

// ReadinessHandler returns 200 if the service can take questions.
func (hm *HealthMonitor) ReadinessHandler() http.HandlerFunc {
	return hm.handler("Readiness", hm.checker.CheckReadiness)
}

// HealthHandler reports every check in one response.
func (hm *HealthMonitor) HealthHandler() http.HandlerFunc {
	return hm.handler("Health", hm.checker.CheckAll)
}

func (hm *HealthMonitor) handler(kind string, run func(context.Context) (*health.HealthStatus, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status, err := run(r.Context())
		body, code := health.BuildResponse(status, err)
		if code != http.StatusOK {
			logger.GetLoggerFromContext(r.Context(), hm.logger).Warn(kind+" check failed", logger.ErrorField(err))
		}

		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-store")
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(response{
			HealthResponse: body,
			Uptime:         time.Since(hm.startTime).Round(time.Second).String(),
			Version:        Version,
		})
	}
}

// RegisterHandlers mounts the health endpoints on r.
func (hm *HealthMonitor) RegisterHandlers(r chi.Router) {
	r.Get(hm.cfg.CombinedPath, hm.HealthHandler())
	r.Get(hm.cfg.LivenessPath, hm.LivenessHandler())
	r.Get(hm.cfg.ReadinessPath, hm.ReadinessHandler())
}
