package agent

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOutput(t *testing.T) {
	const body = `{"current_state":{"evaluation_previous_goal":"Unknown","memory":"","next_goal":"search"},"action":[{"search_google":{"query":"vpn"}}]}`

	tests := []struct {
		name string
		text string
	}{
		{"plain", body},
		{"json fence", "```json\n" + body + "\n```"},
		{"bare fence", "```\n" + body + "```"},
		{"fence on one line", "```" + body + "```"},
		{"surrounding prose", "Here is my plan:\n" + body + "\nThanks."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := ParseOutput(tt.text)
			require.NoError(t, err)
			assert.Equal(t, "search", out.CurrentState.NextGoal)
			require.Len(t, out.Action, 1)
			assert.Equal(t, "search_google", out.Action[0].Name)
			assert.JSONEq(t, `{"query":"vpn"}`, string(out.Action[0].Params))
		})
	}
}

func TestParseOutputErrors(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"empty", "   "},
		{"no object", "I cannot help"},
		{"broken json", `{"action": [`},
		{"no actions", `{"current_state":{},"action":[]}`},
		{"two names in one action", `{"action":[{"go_back":{},"done":{"answer":"x"}}]}`},
		{"action not an object", `{"action":["go_back"]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseOutput(tt.text)
			assert.Error(t, err)
		})
	}

	_, err := ParseOutput("")
	assert.ErrorIs(t, err, ErrEmptyOutput)
}

func TestActionJSON(t *testing.T) {
	var a Action
	require.NoError(t, json.Unmarshal([]byte(`{"go_back":null}`), &a))
	assert.Equal(t, "go_back", a.Name)
	assert.JSONEq(t, `{}`, string(a.Params))

	raw, err := json.Marshal(Action{Name: "done", Params: json.RawMessage(`{"answer":"ok"}`)})
	require.NoError(t, err)
	assert.JSONEq(t, `{"done":{"answer":"ok"}}`, string(raw))

	raw, err = json.Marshal(Action{Name: "go_back"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"go_back":{}}`, string(raw))
}
