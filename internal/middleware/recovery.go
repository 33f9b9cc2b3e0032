// Package middleware provides HTTP middleware components.
package middleware

import (
	"encoding/json"
	"fmt"
	"net/http"
	"runtime/debug"
	"strings"

	"github.com/lewisedginton/ai_assistant_api/pkg/logger"
)

// ErrorKind is the "error" field written for a recovered panic.
const ErrorKind = "internal_server_error"

// RecoveryConfig holds configuration for the recovery middleware
type RecoveryConfig struct {
	Logger           logger.Logger
	EnableStackTrace bool   // Whether to log full stack traces
	ResponseMessage  string // "message" field returned to clients
}

// DefaultRecoveryConfig returns the default configuration
func DefaultRecoveryConfig() RecoveryConfig {
	return RecoveryConfig{
		EnableStackTrace: true,
		ResponseMessage:  "an unexpected error occurred",
	}
}

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// Recovery returns a middleware that recovers from panics, logs them and
// answers with the JSON error envelope.
func Recovery(config RecoveryConfig) func(http.Handler) http.Handler {
	if config.Logger == nil {
		config.Logger = logger.NewNop()
	}
	body, _ := json.Marshal(errorBody{Error: ErrorKind, Message: config.ResponseMessage})

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					if err == http.ErrAbortHandler {
						panic(err)
					}
					handlePanic(w, r, err, config, body)
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}

// handlePanic handles a recovered panic
func handlePanic(w http.ResponseWriter, r *http.Request, err any, config RecoveryConfig, body []byte) {
	var stackTrace string
	if config.EnableStackTrace {
		stackTrace = string(debug.Stack())
	}

	logPanic(r, err, stackTrace, logger.GetLoggerFromContext(r.Context(), config.Logger))

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Connection", "close")
	w.WriteHeader(http.StatusInternalServerError)
	_, _ = w.Write(body)
	_, _ = w.Write([]byte("\n"))
}

// logPanic logs panic information
func logPanic(r *http.Request, panicErr any, stackTrace string, log logger.Logger) {
	fields := []logger.LogField{
		logger.StringField("panic_error", fmt.Sprintf("%v", panicErr)),
		logger.HTTPMethodField(r.Method),
		logger.HTTPPathField(r.URL.Path),
		logger.ClientIPField(getClientIP(r)),
		logger.StringField("user_agent", r.UserAgent()),
	}

	if stackTrace != "" {
		fields = append(fields, logger.StringField("stack_trace", stackTrace))
	}
	if r.ContentLength > 0 {
		fields = append(fields, logger.Int64Field("content_length", r.ContentLength))
	}

	log.Error("HTTP request panic recovered", fields...)
}

// getClientIP extracts the real client IP from various headers
func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	return r.RemoteAddr
}
