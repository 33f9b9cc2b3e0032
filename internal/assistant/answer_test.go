package assistant

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAnswer(t *testing.T) {
	tests := []struct {
		name    string
		result  string
		want    Answer
		wantErr string
	}{
		{name: "answer", result: `{"answer":"X"}`, want: Answer{Answer: "X"}},
		{name: "unknown fields ignored", result: `{"answer":"X","confidence":0.9}`, want: Answer{Answer: "X"}},
		{name: "empty answer", result: `{"answer":""}`, want: Answer{}},
		{name: "not json", result: "The answer is X", wantErr: "invalid character"},
		{name: "array", result: `["X"]`, wantErr: "cannot unmarshal array"},
		{name: "missing answer", result: `{"reply":"X"}`, wantErr: `field "answer" is required`},
		{name: "null document", result: `null`, wantErr: `field "answer" is required`},
		{name: "answer not a string", result: `{"answer":42}`, wantErr: `field "answer" must be a string`},
		{name: "null answer", result: `{"answer":null}`, wantErr: `field "answer" must be a string`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseAnswer(tt.result)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestErrorStatus(t *testing.T) {
	tests := []struct {
		kind Kind
		want int
	}{
		{KindNotFound, http.StatusNotFound},
		{KindTimeout, http.StatusRequestTimeout},
		{KindInvalidRequest, http.StatusUnprocessableEntity},
		{KindParse, http.StatusInternalServerError},
		{KindInternal, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			assert.Equal(t, tt.want, (&Error{Kind: tt.kind}).Status())
		})
	}
}

func TestAsError(t *testing.T) {
	assert.Nil(t, AsError(nil))

	e := AsError(errBoom)
	assert.Equal(t, KindInternal, e.Kind)
	assert.Equal(t, "boom", e.Message)
	assert.ErrorIs(t, e, errBoom)

	orig := newError(KindTimeout, "slow", nil)
	wrapped := AsError(&wrapErr{orig})
	assert.Same(t, orig, wrapped)
	assert.Equal(t, "timeout: slow", orig.Error())
	assert.Equal(t, ErrorResponse{Error: "timeout", Message: "slow"}, orig.Response())
}

type wrapErr struct{ err error }

func (w *wrapErr) Error() string { return "wrapped: " + w.err.Error() }
func (w *wrapErr) Unwrap() error { return w.err }
