package agent

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrEmptyOutput is returned when the model produced no text.
var ErrEmptyOutput = errors.New("model returned an empty response")

// CurrentState is the model's own account of progress.
type CurrentState struct {
	EvaluationPreviousGoal string `json:"evaluation_previous_goal"`
	Memory                 string `json:"memory"`
	NextGoal               string `json:"next_goal"`
}

// Action is one entry of the action list, {"name": {params}}.
type Action struct {
	Name   string
	Params json.RawMessage
}

// UnmarshalJSON accepts an object holding exactly one action.
func (a *Action) UnmarshalJSON(data []byte) error {
	var m map[string]json.RawMessage
	if err := json.Unmarshal(data, &m); err != nil {
		return fmt.Errorf("action must be an object: %w", err)
	}
	if len(m) != 1 {
		return fmt.Errorf("action must have exactly one name, got %d", len(m))
	}
	for name, params := range m {
		a.Name = name
		a.Params = params
	}
	if len(bytes.TrimSpace(a.Params)) == 0 || bytes.Equal(bytes.TrimSpace(a.Params), []byte("null")) {
		a.Params = json.RawMessage("{}")
	}
	return nil
}

// MarshalJSON writes the action back in its single-key form.
func (a Action) MarshalJSON() ([]byte, error) {
	params := a.Params
	if len(params) == 0 {
		params = json.RawMessage("{}")
	}
	return json.Marshal(map[string]json.RawMessage{a.Name: params})
}

// Output is the structured reply expected from the model at every step.
type Output struct {
	CurrentState CurrentState `json:"current_state"`
	Action       []Action     `json:"action"`
}

// ParseOutput decodes a model reply. Markdown code fences and text around
// the outermost JSON object are ignored.
func ParseOutput(text string) (*Output, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyOutput
	}

	body := stripFences(text)
	start := strings.Index(body, "{")
	end := strings.LastIndex(body, "}")
	if start < 0 || end < start {
		return nil, fmt.Errorf("no JSON object in model response")
	}

	var out Output
	if err := json.Unmarshal([]byte(body[start:end+1]), &out); err != nil {
		return nil, fmt.Errorf("failed to parse model response: %w", err)
	}
	if len(out.Action) == 0 {
		return nil, fmt.Errorf("model response has no actions")
	}
	return &out, nil
}

func stripFences(text string) string {
	open := strings.Index(text, "```")
	if open < 0 {
		return text
	}
	rest := text[open+3:]
	if nl := strings.IndexByte(rest, '\n'); nl >= 0 && !strings.Contains(rest[:nl], "{") {
		rest = rest[nl+1:]
	}
	if end := strings.Index(rest, "```"); end >= 0 {
		rest = rest[:end]
	}
	return rest
}
