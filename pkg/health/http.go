package health

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/lewisedginton/ai_assistant_api/pkg/logger"
)

// HealthResponse is the JSON body written by the health handlers.
type HealthResponse struct {
	Status    string                 `json:"status"` // "healthy" | "unhealthy"
	Timestamp time.Time              `json:"timestamp"`
	Checks    map[string]CheckStatus `json:"checks,omitempty"`
	Message   string                 `json:"message,omitempty"`
}

// CheckStatus represents the status of an individual check in the HTTP response.
type CheckStatus struct {
	Status  string `json:"status"` // "ok" | "error"
	Error   string `json:"error,omitempty"`
	Latency string `json:"latency,omitempty"`
}

// LivenessHandler returns 200 while the process is alive and 503 when it should be restarted.
func (h *HealthChecker) LivenessHandler() http.HandlerFunc {
	return h.handler(h.CheckLiveness)
}

// ReadinessHandler returns 200 when the service can take traffic and 503 otherwise.
func (h *HealthChecker) ReadinessHandler() http.HandlerFunc {
	return h.handler(h.CheckReadiness)
}

// HealthHandler reports liveness and readiness checks in one response.
func (h *HealthChecker) HealthHandler() http.HandlerFunc {
	return h.handler(h.CheckAll)
}

func (h *HealthChecker) handler(run func(context.Context) (*HealthStatus, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status, err := run(r.Context())
		h.writeHealthResponse(w, status, err)
	}
}

// BuildResponse converts a status into its JSON representation and HTTP code.
func BuildResponse(status *HealthStatus, err error) (HealthResponse, int) {
	response := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC(),
		Checks:    make(map[string]CheckStatus, len(status.Checks)),
	}
	code := http.StatusOK
	if !status.Healthy {
		response.Status = "unhealthy"
		code = http.StatusServiceUnavailable
		if err != nil {
			response.Message = err.Error()
		}
	}

	for _, result := range status.Checks {
		cs := CheckStatus{Status: "ok", Latency: result.Latency.String()}
		if !result.Healthy {
			cs.Status = "error"
			cs.Error = result.Error
		}
		response.Checks[result.Name] = cs
	}
	return response, code
}

func (h *HealthChecker) writeHealthResponse(w http.ResponseWriter, status *HealthStatus, err error) {
	response, code := BuildResponse(status, err)
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(code)
	if encErr := json.NewEncoder(w).Encode(response); encErr != nil {
		h.logger.Error("Failed to encode health response", logger.ErrorField(encErr))
	}
}
