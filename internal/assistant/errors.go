package assistant

import (
	"errors"
	"net/http"
)

// Kind classifies a request failure. It is sent to clients as the "error" field.
type Kind string

// Error kinds
const (
	KindNotFound       Kind = "not_found"
	KindParse          Kind = "parse_error"
	KindInternal       Kind = "internal_server_error"
	KindTimeout        Kind = "timeout"
	KindInvalidRequest Kind = "invalid_request"
)

// Messages for the not found outcomes.
const (
	MessageRunFailed = "agent run failed"
	MessageNoResult  = "no result found"
)

// Error is the failure of one request.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func newError(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

func (e *Error) Error() string {
	return string(e.Kind) + ": " + e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Status maps the kind to an HTTP status code.
func (e *Error) Status() int {
	switch e.Kind {
	case KindNotFound:
		return http.StatusNotFound
	case KindTimeout:
		return http.StatusRequestTimeout
	case KindInvalidRequest:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// Response is the JSON body written for the error.
func (e *Error) Response() ErrorResponse {
	return ErrorResponse{Error: string(e.Kind), Message: e.Message}
}

// AsError returns err as an *Error. Errors of any other type become
// internal_server_error carrying their message. A nil err returns nil.
func AsError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return newError(KindInternal, err.Error(), err)
}
