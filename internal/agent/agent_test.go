package agent

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lewisedginton/ai_assistant_api/internal/config"
)

func testConfig() config.AgentConfig {
	return config.AgentConfig{
		Timeout:           time.Minute,
		MaxSteps:          10,
		MaxFailures:       3,
		MaxActionsPerStep: 5,
		MaxContentLength:  1000,
	}
}

func stepJSON(goal string, actions ...string) string {
	return fmt.Sprintf(`{"current_state":{"evaluation_previous_goal":"Unknown","memory":"","next_goal":%q},"action":[%s]}`,
		goal, strings.Join(actions, ","))
}

func TestRunFinishesWithDone(t *testing.T) {
	llm := newScriptedLLM(
		reply{text: stepJSON("search", `{"search_google":{"query":"vpn setup"}}`)},
		reply{text: "```json\n" + stepJSON("answer", `{"done":{"answer":"Use the VPN client"}}`) + "\n```"},
	)
	b := newFakeBrowser()

	h, err := New(llm, nil, testConfig(), nil).Run(context.Background(), "How do I set up the VPN?", b)
	require.NoError(t, err)
	require.NotNil(t, h)

	assert.True(t, h.IsDone())
	assert.Equal(t, `{"answer":"Use the VPN client"}`, h.FinalResult())
	assert.Len(t, h.Steps, 2)
	assert.NotEmpty(t, h.RunID)
	assert.Equal(t, "How do I set up the VPN?", h.Task)
	assert.Equal(t, []string{"state", "navigate", "state"}, b.calls)
	assert.Equal(t, 2, llm.calls())
}

func TestRunRequestShape(t *testing.T) {
	llm := newScriptedLLM(
		reply{text: stepJSON("search", `{"search_google":{"query":"vpn"}}`)},
		reply{text: stepJSON("answer", `{"done":{"answer":"ok"}}`)},
	)

	_, err := New(llm, nil, testConfig(), nil).Run(context.Background(), "vpn question", newFakeBrowser())
	require.NoError(t, err)
	require.Len(t, llm.requests, 2)

	first := llm.requests[0]
	assert.Equal(t, "scripted", first.Model)
	require.NotNil(t, first.Config)
	assert.Equal(t, "application/json", first.Config.ResponseMIMEType)
	require.NotNil(t, first.Config.SystemInstruction)
	assert.Contains(t, first.Config.SystemInstruction.Parts[0].Text, "Use at most 5 actions per step")
	require.Len(t, first.Contents, 1)
	assert.Equal(t, "user", first.Contents[0].Role)
	assert.Contains(t, first.Contents[0].Parts[0].Text, `"""vpn question"""`)
	assert.Contains(t, first.Contents[0].Parts[1].Text, "Current step: 1/10")
	assert.Contains(t, first.Contents[0].Parts[1].Text, `[0]<textarea name="q"></textarea>`)

	second := llm.requests[1]
	require.Len(t, second.Contents, 3)
	assert.Equal(t, "model", second.Contents[1].Role)
	assert.Contains(t, second.Contents[1].Parts[0].Text, `"search_google"`)
	assert.Equal(t, "user", second.Contents[2].Role)
	assert.Contains(t, second.Contents[2].Parts[0].Text, `Action search_google: Searched for "vpn" in Google`)
	assert.Contains(t, second.Contents[2].Parts[1].Text, "Current step: 2/10")
}

func TestRunRecoversFromFailedStep(t *testing.T) {
	llm := newScriptedLLM(
		reply{err: errBoom},
		reply{text: "not json"},
		reply{text: stepJSON("answer", `{"done":{"answer":"ok"}}`)},
	)

	h, err := New(llm, nil, testConfig(), nil).Run(context.Background(), "task", newFakeBrowser())
	require.NoError(t, err)
	assert.True(t, h.IsDone())
	assert.Len(t, h.Steps, 3)
	require.Len(t, h.Errors(), 2)
	assert.Equal(t, "model call failed: boom", h.Errors()[0])
}

func TestRunStopsAfterMaxFailures(t *testing.T) {
	tests := []struct {
		name    string
		llm     *scriptedLLM
		browser func() *fakeBrowser
	}{
		{
			name:    "model errors",
			llm:     newScriptedLLM(reply{err: errBoom}),
			browser: newFakeBrowser,
		},
		{
			name:    "page state errors",
			llm:     newScriptedLLM(reply{text: stepJSON("x", `{"go_back":{}}`)}),
			browser: func() *fakeBrowser {
				b := newFakeBrowser()
				b.stateErr = errBoom
				return b
			},
		},
		{
			name:    "action errors",
			llm:     newScriptedLLM(reply{text: stepJSON("x", `{"click_element":{"index":42}}`)}),
			browser: newFakeBrowser,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, err := New(tt.llm, nil, testConfig(), nil).Run(context.Background(), "task", tt.browser())
			require.NoError(t, err)
			assert.False(t, h.IsDone())
			assert.Empty(t, h.FinalResult())
			assert.Len(t, h.Steps, 3)
			assert.Len(t, h.Errors(), 3)
		})
	}
}

func TestRunFailureCounterResets(t *testing.T) {
	llm := newScriptedLLM(
		reply{err: errBoom},
		reply{err: errBoom},
		reply{text: stepJSON("scroll", `{"scroll_down":{}}`)},
		reply{err: errBoom},
		reply{err: errBoom},
		reply{text: stepJSON("answer", `{"done":{"answer":"ok"}}`)},
	)

	h, err := New(llm, nil, testConfig(), nil).Run(context.Background(), "task", newFakeBrowser())
	require.NoError(t, err)
	assert.True(t, h.IsDone())
	assert.Len(t, h.Steps, 6)
}

func TestRunStopsAtMaxSteps(t *testing.T) {
	cfg := testConfig()
	cfg.MaxSteps = 4
	llm := newScriptedLLM(reply{text: stepJSON("scroll", `{"scroll_down":{}}`)})

	h, err := New(llm, nil, cfg, nil).Run(context.Background(), "task", newFakeBrowser())
	require.NoError(t, err)
	assert.False(t, h.IsDone())
	assert.Len(t, h.Steps, 4)
	assert.Equal(t, 4, llm.calls())
}

func TestRunStopsSequenceAfterPageChange(t *testing.T) {
	llm := newScriptedLLM(
		reply{text: stepJSON("type and search",
			`{"input_text":{"index":0,"text":"vpn"}}`,
			`{"send_keys":{"keys":"Enter"}}`,
			`{"click_element":{"index":1}}`)},
		reply{text: stepJSON("answer", `{"done":{"answer":"ok"}}`)},
	)
	b := newFakeBrowser()

	h, err := New(llm, nil, testConfig(), nil).Run(context.Background(), "task", b)
	require.NoError(t, err)
	require.Len(t, h.Steps[0].Results, 2)
	assert.Equal(t, "send_keys", h.Steps[0].Results[1].Action)
	assert.Equal(t, []string{"state", "input", "keys", "state"}, b.calls)
}

func TestRunLimitsActionsPerStep(t *testing.T) {
	cfg := testConfig()
	cfg.MaxActionsPerStep = 2
	llm := newScriptedLLM(
		reply{text: stepJSON("scroll", `{"scroll_down":{}}`, `{"scroll_down":{}}`, `{"scroll_down":{}}`)},
		reply{text: stepJSON("answer", `{"done":{"answer":"ok"}}`)},
	)
	b := newFakeBrowser()

	h, err := New(llm, nil, cfg, nil).Run(context.Background(), "task", b)
	require.NoError(t, err)
	assert.Len(t, h.Steps[0].Results, 2)
	assert.Len(t, b.scrolled, 2)
}

func TestRunStopsAtDoneWithinStep(t *testing.T) {
	llm := newScriptedLLM(reply{text: stepJSON("answer",
		`{"done":{"answer":"ok"}}`,
		`{"go_back":{}}`)})
	b := newFakeBrowser()

	h, err := New(llm, nil, testConfig(), nil).Run(context.Background(), "task", b)
	require.NoError(t, err)
	assert.True(t, h.IsDone())
	assert.Equal(t, []string{"state"}, b.calls)
}

func TestRunCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	llm := newScriptedLLM(reply{text: stepJSON("search", `{"search_google":{"query":"vpn"}}`)})
	b := newFakeBrowser()
	b.onNavigate = cancel

	h, err := New(llm, nil, testConfig(), nil).Run(ctx, "task", b)
	require.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, h)
	assert.Len(t, h.Steps, 1)
	assert.False(t, h.IsDone())
}

func TestRunAlreadyCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	llm := newScriptedLLM(reply{text: stepJSON("answer", `{"done":{"answer":"ok"}}`)})

	h, err := New(llm, nil, testConfig(), nil).Run(ctx, "task", newFakeBrowser())
	require.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, h)
	assert.Empty(t, h.Steps)
	assert.Zero(t, llm.calls())
}
