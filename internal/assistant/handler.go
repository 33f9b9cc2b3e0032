package assistant

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/lewisedginton/ai_assistant_api/pkg/logger"
)

// DefaultMaxRequestSize caps the POST /ask body.
const DefaultMaxRequestSize int64 = 1 << 20

// Asker answers one question.
type Asker interface {
	Ask(ctx context.Context, task string) (Answer, error)
}

// Handler serves the HTTP surface of the assistant.
type Handler struct {
	asker          Asker
	maxRequestSize int64
	log            logger.Logger
}

// NewHandler creates a Handler. maxRequestSize <= 0 uses DefaultMaxRequestSize.
func NewHandler(asker Asker, maxRequestSize int64, log logger.Logger) *Handler {
	if maxRequestSize <= 0 {
		maxRequestSize = DefaultMaxRequestSize
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Handler{asker: asker, maxRequestSize: maxRequestSize, log: log}
}

// Ask handles POST /ask.
func (h *Handler) Ask(w http.ResponseWriter, r *http.Request) {
	log := logger.GetLoggerFromContext(r.Context(), h.log)

	q, err := h.decode(w, r)
	if err != nil {
		log.Warn("Rejected question", logger.ErrorField(err))
		WriteError(w, log, err)
		return
	}

	answer, err := h.asker.Ask(r.Context(), q.Task)
	if err != nil {
		WriteError(w, log, err)
		return
	}
	WriteJSON(w, log, http.StatusOK, answer)
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request) (Question, error) {
	body := http.MaxBytesReader(w, r.Body, h.maxRequestSize)
	defer body.Close()

	var fields map[string]json.RawMessage
	if err := json.NewDecoder(body).Decode(&fields); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			return Question{}, newError(KindInvalidRequest, fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit), err)
		case errors.Is(err, io.EOF):
			return Question{}, newError(KindInvalidRequest, "request body is empty", err)
		default:
			return Question{}, newError(KindInvalidRequest, "request body is not valid JSON: "+err.Error(), err)
		}
	}

	raw, ok := fields["task"]
	if !ok {
		return Question{}, newError(KindInvalidRequest, `field "task" is required`, nil)
	}
	var q Question
	if err := json.Unmarshal(raw, &q.Task); err != nil || string(raw) == "null" {
		return Question{}, newError(KindInvalidRequest, `field "task" must be a string`, err)
	}
	return q, nil
}

// WriteError writes err as an ErrorResponse with the status of its kind.
func WriteError(w http.ResponseWriter, log logger.Logger, err error) {
	e := AsError(err)
	WriteJSON(w, log, e.Status(), e.Response())
}

// WriteJSON encodes v with the given status.
func WriteJSON(w http.ResponseWriter, log logger.Logger, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil && log != nil {
		log.Error("Failed to encode response", logger.ErrorField(err))
	}
}
