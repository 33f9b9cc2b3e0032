package httpmiddleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/lewisedginton/ai_assistant_api/pkg/logger"
	"github.com/stretchr/testify/assert"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	assert.Equal(t, 60*time.Second, config.Timeout)
	assert.NotNil(t, config.CORS)
	assert.True(t, config.EnableCorrelationID)
	assert.True(t, config.EnableRecovery)
	assert.False(t, config.EnableLogging, "logging requires a logger")
}

func TestApplyWithDefaults(t *testing.T) {
	var buf bytes.Buffer
	config := DefaultConfig()
	config.Logger = logger.NewLogger(logger.Config{Level: logger.DebugLevel, Output: &buf})
	config.EnableLogging = true

	var capturedID string
	router := chi.NewRouter()
	ApplyToRouter(router, config)
	router.Get("/test", func(w http.ResponseWriter, r *http.Request) {
		capturedID = r.Header.Get(logger.CorrelationIDHeader)
		_, _ = w.Write([]byte("test response"))
	})

	t.Run("request passes through the stack", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/test", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "test response", rec.Body.String())
		assert.NotEmpty(t, capturedID)
		assert.Contains(t, buf.String(), "HTTP response sent")
	})

	t.Run("ping endpoint is available", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestApplyCustomRecovererAndMetrics(t *testing.T) {
	var recovered, measured bool
	config := Config{
		EnableRecovery: true,
		Recoverer: func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				defer func() {
					if rec := recover(); rec != nil {
						recovered = true
						w.WriteHeader(http.StatusTeapot)
					}
				}()
				next.ServeHTTP(w, r)
			})
		},
		Metrics: func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				measured = true
				next.ServeHTTP(w, r)
			})
		},
	}

	router := chi.NewRouter()
	ApplyToRouter(router, config)
	router.Get("/boom", func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))

	assert.True(t, recovered)
	assert.True(t, measured)
	assert.Equal(t, http.StatusTeapot, rec.Code)
}

func TestApplyMinimalConfig(t *testing.T) {
	router := chi.NewRouter()
	ApplyToRouter(router, Config{EnableCorrelationID: true})
	router.Get("/test", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/test", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(logger.CorrelationIDHeader))

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code, "heartbeat disabled")
}

func TestWithLogger(t *testing.T) {
	var buf bytes.Buffer
	router := chi.NewRouter()
	WithLogger(router, logger.NewLogger(logger.Config{Output: &buf}))
	router.Get("/test", func(w http.ResponseWriter, r *http.Request) {
		logger.GetLoggerFromContext(r.Context(), logger.NewNop()).Info("inside handler")
		w.WriteHeader(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/test", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, buf.String(), "inside handler")
	assert.Contains(t, buf.String(), logger.CorrelationIDFieldKey)
}
