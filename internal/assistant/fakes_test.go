package assistant

import (
	"context"
	"errors"
	"sync"

	"github.com/lewisedginton/ai_assistant_api/internal/agent"
	"github.com/lewisedginton/ai_assistant_api/internal/browser"
)

type fakeSession struct {
	mu            sync.Mutex
	contextCloses int
	browserCloses int
	closeCtxErr   error
	closeErr      error
	closed        chan struct{}
}

func newFakeSession() *fakeSession {
	return &fakeSession{closed: make(chan struct{})}
}

func (s *fakeSession) State(context.Context) (*browser.PageState, error) {
	return &browser.PageState{}, nil
}
func (s *fakeSession) Navigate(context.Context, string) error         { return nil }
func (s *fakeSession) ClickElement(context.Context, int) error        { return nil }
func (s *fakeSession) InputText(context.Context, int, string) error   { return nil }
func (s *fakeSession) SendKeys(context.Context, string) error         { return nil }
func (s *fakeSession) Scroll(context.Context, bool, int) error        { return nil }
func (s *fakeSession) GoBack(context.Context) error                   { return nil }
func (s *fakeSession) ExtractContent(context.Context) (string, error) { return "", nil }

func (s *fakeSession) CloseContext() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.contextCloses++
	return s.closeCtxErr
}

func (s *fakeSession) CloseBrowser() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.browserCloses++
	if s.browserCloses == 1 {
		close(s.closed)
	}
	return s.closeErr
}

func (s *fakeSession) closes() (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.contextCloses, s.browserCloses
}

type fakeFactory struct {
	mu       sync.Mutex
	session  *fakeSession
	err      error
	sessions int
}

func (f *fakeFactory) NewSession(context.Context) (Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sessions++
	if f.err != nil {
		return nil, f.err
	}
	return f.session, nil
}

// perCallFactory hands out a new session on every call.
type perCallFactory struct {
	mu       sync.Mutex
	sessions []*fakeSession
}

func (f *perCallFactory) NewSession(context.Context) (Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s := newFakeSession()
	f.sessions = append(f.sessions, s)
	return s, nil
}

func (f *perCallFactory) created() []*fakeSession {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*fakeSession(nil), f.sessions...)
}

type runnerFunc func(ctx context.Context, task string, b agent.Browser) (*agent.History, error)

func (f runnerFunc) Run(ctx context.Context, task string, b agent.Browser) (*agent.History, error) {
	return f(ctx, task, b)
}

func historyWith(final string) *agent.History {
	h := &agent.History{Task: "task"}
	step := agent.Step{Number: 1}
	if final != "" {
		step.Results = []agent.ActionResult{{Action: agent.ActionDone, IsDone: true, ExtractedContent: final}}
	}
	h.Steps = append(h.Steps, step)
	return h
}

func returns(h *agent.History, err error) runnerFunc {
	return func(context.Context, string, agent.Browser) (*agent.History, error) {
		return h, err
	}
}

var errBoom = errors.New("boom")
