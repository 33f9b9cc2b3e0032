package health

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serve(t *testing.T, handler http.HandlerFunc) (*httptest.ResponseRecorder, HealthResponse) {
	t.Helper()
	w := httptest.NewRecorder()
	handler(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	var response HealthResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	return w, response
}

func TestLivenessHandler(t *testing.T) {
	t.Run("healthy response", func(t *testing.T) {
		h := New()
		h.AddLivenessCheck(&mockCheck{name: "test"})

		w, response := serve(t, h.LivenessHandler())

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
		assert.Equal(t, "healthy", response.Status)
		assert.Equal(t, "ok", response.Checks["test"].Status)
		assert.NotEmpty(t, response.Checks["test"].Latency)
		assert.False(t, response.Timestamp.IsZero())
	})

	t.Run("unhealthy response", func(t *testing.T) {
		h := New(WithFailureThreshold(1))
		h.AddLivenessCheck(&mockCheck{name: "test", err: errors.New("service unavailable")})

		w, response := serve(t, h.LivenessHandler())

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.Equal(t, "unhealthy", response.Status)
		assert.NotEmpty(t, response.Message)
		assert.Equal(t, "error", response.Checks["test"].Status)
		assert.Equal(t, "service unavailable", response.Checks["test"].Error)
	})
}

func TestReadinessHandler(t *testing.T) {
	h := New(WithFailureThreshold(1))
	h.AddReadinessCheck(&mockCheck{name: "browser_driver"})
	h.AddReadinessCheck(&mockCheck{name: "llm_upstream", err: errors.New("connection timeout")})

	w, response := serve(t, h.ReadinessHandler())

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "ok", response.Checks["browser_driver"].Status)
	assert.Equal(t, "connection timeout", response.Checks["llm_upstream"].Error)

	h.SetDraining(true)
	w, response = serve(t, h.ReadinessHandler())
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, ErrDraining.Error(), response.Message)
}

func TestHealthHandler(t *testing.T) {
	h := New()
	h.AddLivenessCheck(&mockCheck{name: "process"})
	h.AddReadinessCheck(&mockCheck{name: "browser_driver"})

	w, response := serve(t, h.HealthHandler())

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, response.Checks, 2)
}

func TestBuildResponse(t *testing.T) {
	response, code := BuildResponse(&HealthStatus{Healthy: true}, nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "healthy", response.Status)
	assert.Empty(t, response.Checks)
	assert.Empty(t, response.Message)
}
