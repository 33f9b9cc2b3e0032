package agent

import (
	"context"
	"errors"
	"iter"
	"sync"

	"google.golang.org/adk/model"
	"google.golang.org/genai"

	"github.com/lewisedginton/ai_assistant_api/internal/browser"
)

// scriptedLLM replies with one scripted entry per call and repeats the
// last one once the script runs out.
type scriptedLLM struct {
	mu       sync.Mutex
	replies  []reply
	requests []*model.LLMRequest
}

type reply struct {
	text string
	err  error
}

func newScriptedLLM(replies ...reply) *scriptedLLM {
	return &scriptedLLM{replies: replies}
}

func (s *scriptedLLM) Name() string { return "scripted" }

func (s *scriptedLLM) GenerateContent(ctx context.Context, req *model.LLMRequest, _ bool) iter.Seq2[*model.LLMResponse, error] {
	s.mu.Lock()
	s.requests = append(s.requests, req)
	r := s.replies[0]
	if len(s.replies) > 1 {
		s.replies = s.replies[1:]
	}
	s.mu.Unlock()

	return func(yield func(*model.LLMResponse, error) bool) {
		if err := ctx.Err(); err != nil {
			yield(nil, err)
			return
		}
		if r.err != nil {
			yield(nil, r.err)
			return
		}
		yield(&model.LLMResponse{Content: genai.NewContentFromText(r.text, genai.RoleModel), TurnComplete: true}, nil)
	}
}

func (s *scriptedLLM) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.requests)
}

type fakeBrowser struct {
	state      *browser.PageState
	stateErr   error
	actionErr  error
	content    string
	calls      []string
	navigated  []string
	typed      []string
	scrolled   []int
	onNavigate func()
}

func newFakeBrowser() *fakeBrowser {
	return &fakeBrowser{
		state: &browser.PageState{
			URL:   "https://www.google.com/",
			Title: "Google",
			Elements: []browser.Element{
				{Index: 0, Tag: "textarea", Attributes: map[string]string{"name": "q"}},
				{Index: 1, Tag: "a", Text: "Docs", Attributes: map[string]string{"href": "https://example.com"}},
			},
		},
		content: "page body",
	}
}

func (f *fakeBrowser) State(context.Context) (*browser.PageState, error) {
	f.calls = append(f.calls, "state")
	if f.stateErr != nil {
		return nil, f.stateErr
	}
	return f.state, nil
}

func (f *fakeBrowser) Navigate(_ context.Context, rawURL string) error {
	f.calls = append(f.calls, "navigate")
	f.navigated = append(f.navigated, rawURL)
	if f.onNavigate != nil {
		f.onNavigate()
	}
	return f.actionErr
}

func (f *fakeBrowser) ClickElement(context.Context, int) error {
	f.calls = append(f.calls, "click")
	return f.actionErr
}

func (f *fakeBrowser) InputText(_ context.Context, _ int, text string) error {
	f.calls = append(f.calls, "input")
	f.typed = append(f.typed, text)
	return f.actionErr
}

func (f *fakeBrowser) SendKeys(_ context.Context, keys string) error {
	f.calls = append(f.calls, "keys")
	f.typed = append(f.typed, keys)
	return f.actionErr
}

func (f *fakeBrowser) Scroll(_ context.Context, down bool, pixels int) error {
	f.calls = append(f.calls, "scroll")
	if !down {
		pixels = -pixels
	}
	f.scrolled = append(f.scrolled, pixels)
	return f.actionErr
}

func (f *fakeBrowser) GoBack(context.Context) error {
	f.calls = append(f.calls, "back")
	return f.actionErr
}

func (f *fakeBrowser) ExtractContent(context.Context) (string, error) {
	f.calls = append(f.calls, "extract")
	if f.actionErr != nil {
		return "", f.actionErr
	}
	return f.content, nil
}

var errBoom = errors.New("boom")
