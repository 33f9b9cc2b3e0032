// Package health runs liveness and readiness checks and serves them over HTTP.
package health

import (
	"context"
	"errors"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/lewisedginton/ai_assistant_api/pkg/logger"
)

// ErrDraining is reported by readiness checks once the service has begun shutting down.
var ErrDraining = errors.New("service is shutting down")

// Check represents a single health check that can succeed or fail.
type Check interface {
	Name() string
	// Check returns nil when healthy.
	Check(ctx context.Context) error
}

// CheckFunc adapts a plain function to the Check interface.
type CheckFunc struct {
	name string
	fn   func(context.Context) error
}

// NewCheckFunc creates a new CheckFunc with the given name and function.
func NewCheckFunc(name string, fn func(context.Context) error) *CheckFunc {
	return &CheckFunc{name: name, fn: fn}
}

// Name returns the name of this check.
func (c *CheckFunc) Name() string { return c.name }

// Check executes the check function.
func (c *CheckFunc) Check(ctx context.Context) error { return c.fn(ctx) }

// CheckResult represents the result of a single health check execution.
type CheckResult struct {
	Name    string
	Healthy bool
	Error   string
	Latency time.Duration
}

// HealthStatus represents the overall health status.
type HealthStatus struct {
	Healthy bool
	Checks  []CheckResult
}

// HealthChecker manages and executes health checks for liveness and readiness checks.
type HealthChecker struct {
	livenessChecks   []Check
	readinessChecks  []Check
	timeout          time.Duration
	failureCount     map[string]int
	failureThreshold int
	draining         atomic.Bool
	logger           logger.Logger
	mu               sync.RWMutex
}

// Option is a functional option for configuring HealthChecker.
type Option func(*HealthChecker)

// WithTimeout sets the timeout for individual health checks. Default is 5 seconds.
func WithTimeout(d time.Duration) Option {
	return func(h *HealthChecker) {
		if d > 0 {
			h.timeout = d
		}
	}
}

// WithLogger sets the logger for health check operations.
func WithLogger(l logger.Logger) Option {
	return func(h *HealthChecker) {
		h.logger = l
	}
}

// WithFailureThreshold sets the number of consecutive failures before a check
// is reported unhealthy. Default is 3.
func WithFailureThreshold(threshold int) Option {
	return func(h *HealthChecker) {
		if threshold > 0 {
			h.failureThreshold = threshold
		}
	}
}

// New creates a new HealthChecker with the given options.
func New(opts ...Option) *HealthChecker {
	h := &HealthChecker{
		timeout:          5 * time.Second,
		failureThreshold: 3,
		failureCount:     make(map[string]int),
		logger:           logger.NewNop(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// AddLivenessCheck adds a check that decides whether the process should be restarted.
func (h *HealthChecker) AddLivenessCheck(check Check) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.livenessChecks = append(h.livenessChecks, check)
}

// AddReadinessCheck adds a check that decides whether the service can take requests.
func (h *HealthChecker) AddReadinessCheck(check Check) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.readinessChecks = append(h.readinessChecks, check)
}

// SetDraining marks the service as shutting down. While draining, readiness
// fails immediately without running any check.
func (h *HealthChecker) SetDraining(draining bool) {
	h.draining.Store(draining)
}

// Draining reports whether SetDraining(true) was called.
func (h *HealthChecker) Draining() bool {
	return h.draining.Load()
}

// CheckLiveness executes all liveness checks.
func (h *HealthChecker) CheckLiveness(ctx context.Context) (*HealthStatus, error) {
	h.mu.RLock()
	checks := h.livenessChecks
	h.mu.RUnlock()
	return h.executeChecks(ctx, checks)
}

// CheckReadiness executes all readiness checks.
func (h *HealthChecker) CheckReadiness(ctx context.Context) (*HealthStatus, error) {
	if h.Draining() {
		return &HealthStatus{Healthy: false, Checks: []CheckResult{}}, ErrDraining
	}
	h.mu.RLock()
	checks := h.readinessChecks
	h.mu.RUnlock()
	return h.executeChecks(ctx, checks)
}

// CheckAll executes liveness and readiness checks together.
func (h *HealthChecker) CheckAll(ctx context.Context) (*HealthStatus, error) {
	if h.Draining() {
		return &HealthStatus{Healthy: false, Checks: []CheckResult{}}, ErrDraining
	}
	h.mu.RLock()
	checks := make([]Check, 0, len(h.livenessChecks)+len(h.readinessChecks))
	checks = append(checks, h.livenessChecks...)
	checks = append(checks, h.readinessChecks...)
	h.mu.RUnlock()
	return h.executeChecks(ctx, checks)
}

// executeChecks runs all checks concurrently and aggregates the results.
func (h *HealthChecker) executeChecks(ctx context.Context, checks []Check) (*HealthStatus, error) {
	status := &HealthStatus{Healthy: true, Checks: make([]CheckResult, len(checks))}
	if len(checks) == 0 {
		return status, nil
	}

	var wg sync.WaitGroup
	for i, check := range checks {
		wg.Add(1)
		go func(idx int, chk Check) {
			defer wg.Done()
			status.Checks[idx] = h.executeCheck(ctx, chk)
		}(i, check)
	}
	wg.Wait()

	var result *multierror.Error
	for _, r := range status.Checks {
		if !r.Healthy {
			status.Healthy = false
			result = multierror.Append(result, errors.New(r.Name+": "+r.Error))
		}
	}
	if result == nil {
		return status, nil
	}
	sort.Slice(result.Errors, func(i, j int) bool {
		return result.Errors[i].Error() < result.Errors[j].Error()
	})
	return status, result.ErrorOrNil()
}

// executeCheck runs a single health check with timeout and failure threshold logic.
func (h *HealthChecker) executeCheck(parentCtx context.Context, check Check) CheckResult {
	ctx, cancel := context.WithTimeout(parentCtx, h.timeout)
	defer cancel()

	start := time.Now()
	err := check.Check(ctx)
	latency := time.Since(start)

	result := CheckResult{Name: check.Name(), Latency: latency, Healthy: true}
	fields := []logger.LogField{
		logger.StringField("check", check.Name()),
		logger.DurationField("latency", latency),
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if err == nil {
		h.failureCount[check.Name()] = 0
		h.logger.Debug("Health check passed", fields...)
		return result
	}

	h.failureCount[check.Name()]++
	failures := h.failureCount[check.Name()]
	fields = append(fields, logger.ErrorField(err), logger.IntField("failures", failures))

	// Below the threshold a failure is still reported healthy
	if failures < h.failureThreshold {
		h.logger.Debug("Health check failed but below threshold",
			append(fields, logger.IntField("threshold", h.failureThreshold))...)
		return result
	}

	result.Healthy = false
	result.Error = err.Error()
	h.logger.Warn("Health check failed", fields...)
	return result
}
