// Package metrics provides Prometheus metrics collection for HTTP requests and agent runs.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/lewisedginton/ai_assistant_api/pkg/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	subsystem = "assistant"
)

// Run outcome counter indices.
const (
	RunMetricTotal = iota
	RunMetricSuccess
	RunMetricNotFound
	RunMetricParseError
	RunMetricTimeout
	RunMetricFailed
)

// Metrics provides Prometheus metrics collection for HTTP requests and agent runs.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	reg *prometheus.Registry

	TotalHTTPRequestsCounter prometheus.Counter
	HTTPRequestsCounters     map[int]prometheus.Counter
	HTTPDurationHistogram    prometheus.Histogram
	httpMu                   sync.Mutex

	RunMetricCounters    map[int]prometheus.Counter
	RunDurationHistogram prometheus.Histogram
	RunStepsHistogram    prometheus.Histogram
	ActiveSessionsGauge  prometheus.Gauge

	customMetrics []prometheus.Collector

	server *http.Server
	errCh  chan error
	log    logger.Logger
}

// NewMetrics creates a new Metrics instance with the specified collectors enabled.
func NewMetrics(httpCounters, runMetrics bool, l logger.Logger) *Metrics {
	if l == nil {
		l = logger.NewNop()
	}
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		log: l,
	}
	if httpCounters {
		m.TotalHTTPRequestsCounter = prometheus.NewCounter(prometheus.CounterOpts{
			Subsystem: subsystem,
			Name:      "total_http_requests",
			Help:      "Total HTTP requests",
		})
		m.reg.MustRegister(m.TotalHTTPRequestsCounter)
		m.HTTPRequestsCounters = make(map[int]prometheus.Counter)

		m.HTTPDurationHistogram = prometheus.NewHistogram(prometheus.HistogramOpts{
			Subsystem: subsystem,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1.0, 5.0, 10.0, 30.0, 60.0, 120.0, 300.0},
		})
		m.reg.MustRegister(m.HTTPDurationHistogram)
	}
	if runMetrics {
		m.RunMetricCounters = getRunMetricCounters()
		for k := range m.RunMetricCounters {
			m.reg.MustRegister(m.RunMetricCounters[k])
		}
		m.RunDurationHistogram = prometheus.NewHistogram(prometheus.HistogramOpts{
			Subsystem: subsystem,
			Name:      "agent_run_duration_seconds",
			Help:      "Agent run duration in seconds",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 180, 240, 300},
		})
		m.RunStepsHistogram = prometheus.NewHistogram(prometheus.HistogramOpts{
			Subsystem: subsystem,
			Name:      "agent_run_steps",
			Help:      "Number of steps taken per agent run",
			Buckets:   []float64{1, 2, 5, 10, 20, 50, 100},
		})
		m.ActiveSessionsGauge = prometheus.NewGauge(prometheus.GaugeOpts{
			Subsystem: subsystem,
			Name:      "active_browser_sessions",
			Help:      "Browser sessions currently open",
		})
		m.reg.MustRegister(m.RunDurationHistogram, m.RunStepsHistogram, m.ActiveSessionsGauge)
	}
	return m
}

func getRunMetricCounters() map[int]prometheus.Counter {
	m := make(map[int]prometheus.Counter)
	m[RunMetricTotal] = prometheus.NewCounter(prometheus.CounterOpts{
		Subsystem: subsystem,
		Name:      "total_agent_runs",
		Help:      "Total agent runs started",
	})
	m[RunMetricSuccess] = prometheus.NewCounter(prometheus.CounterOpts{
		Subsystem: subsystem,
		Name:      "total_agent_runs_successful",
		Help:      "Total agent runs that produced an answer",
	})
	m[RunMetricNotFound] = prometheus.NewCounter(prometheus.CounterOpts{
		Subsystem: subsystem,
		Name:      "total_agent_runs_not_found",
		Help:      "Total agent runs that failed or produced no result",
	})
	m[RunMetricParseError] = prometheus.NewCounter(prometheus.CounterOpts{
		Subsystem: subsystem,
		Name:      "total_agent_runs_parse_error",
		Help:      "Total agent runs whose result could not be parsed",
	})
	m[RunMetricTimeout] = prometheus.NewCounter(prometheus.CounterOpts{
		Subsystem: subsystem,
		Name:      "total_agent_runs_timeout",
		Help:      "Total agent runs that exceeded the deadline",
	})
	m[RunMetricFailed] = prometheus.NewCounter(prometheus.CounterOpts{
		Subsystem: subsystem,
		Name:      "total_agent_runs_failed",
		Help:      "Total agent runs that ended with an internal error",
	})
	return m
}

// Handler returns the exposition handler for the registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}

// Listen starts the metrics HTTP server on the specified port. Server errors
// are delivered on the returned channel.
func (m *Metrics) Listen(port int) <-chan error {
	m.log.Info("Starting metrics listener", logger.IntField("port", port))
	mux := http.NewServeMux()
	mux.Handle("/", http.NotFoundHandler())
	mux.Handle("/metrics", m.Handler())
	m.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	m.errCh = make(chan error, 1)
	go func() {
		err := m.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		m.errCh <- err
		close(m.errCh)
	}()
	return m.errCh
}

// Shutdown stops the metrics listener started by Listen.
func (m *Metrics) Shutdown(ctx context.Context) error {
	if m == nil || m.server == nil {
		return nil
	}
	m.log.Info("Stopping metrics listener")
	return m.server.Shutdown(ctx)
}

// AddCustomMetric registers a custom Prometheus collector.
func (m *Metrics) AddCustomMetric(c prometheus.Collector) {
	if m == nil {
		return
	}
	m.customMetrics = append(m.customMetrics, c)
	m.reg.MustRegister(m.customMetrics[len(m.customMetrics)-1])
}

// IncrementHTTPResponseCounter increments the counter for the given HTTP status code.
func (m *Metrics) IncrementHTTPResponseCounter(code int) {
	if m == nil || m.HTTPRequestsCounters == nil {
		return
	}
	m.httpMu.Lock()
	defer m.httpMu.Unlock()
	_, ok := m.HTTPRequestsCounters[code]
	if !ok {
		m.HTTPRequestsCounters[code] = newTotalHTTPReqMetric(code)
		m.reg.MustRegister(m.HTTPRequestsCounters[code])
	}
	m.HTTPRequestsCounters[code].Inc()
}

func newTotalHTTPReqMetric(code int) prometheus.Counter {
	return prometheus.NewCounter(prometheus.CounterOpts{
		Subsystem: subsystem,
		Name:      fmt.Sprintf("total_%d_http_responses", code),
		Help:      fmt.Sprintf("Total %s HTTP responses returned", http.StatusText(code)),
	})
}

// RunStarted counts a new run and an open browser session.
func (m *Metrics) RunStarted() {
	if m == nil || m.RunMetricCounters == nil {
		return
	}
	m.RunMetricCounters[RunMetricTotal].Inc()
	m.ActiveSessionsGauge.Inc()
}

// RunFinished records the outcome of a run started with RunStarted.
// outcome is one of the RunMetric* indices other than RunMetricTotal.
func (m *Metrics) RunFinished(outcome int, steps int, duration time.Duration) {
	if m == nil || m.RunMetricCounters == nil {
		return
	}
	m.ActiveSessionsGauge.Dec()
	if c, ok := m.RunMetricCounters[outcome]; ok && outcome != RunMetricTotal {
		c.Inc()
	}
	m.RunDurationHistogram.Observe(duration.Seconds())
	m.RunStepsHistogram.Observe(float64(steps))
}

// HTTPMiddleware returns a Chi-compatible middleware that tracks HTTP metrics
func (m *Metrics) HTTPMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if m == nil || m.TotalHTTPRequestsCounter == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			m.TotalHTTPRequestsCounter.Inc()

			rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(rw, r)

			m.HTTPDurationHistogram.Observe(time.Since(start).Seconds())
			m.IncrementHTTPResponseCounter(rw.statusCode)
		})
	}
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
