// Package assistant answers support questions by running the browser agent
// in a dedicated session per request.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lewisedginton/ai_assistant_api/internal/agent"
	"github.com/lewisedginton/ai_assistant_api/internal/browser"
	"github.com/lewisedginton/ai_assistant_api/pkg/logger"
	"github.com/lewisedginton/ai_assistant_api/pkg/metrics"
)

// DefaultTimeout bounds one agent run.
const DefaultTimeout = 300 * time.Second

// Session is a browser session owned by one request.
type Session interface {
	agent.Browser
	CloseContext() error
	CloseBrowser() error
}

// SessionFactory creates a fresh isolated session.
type SessionFactory interface {
	NewSession(ctx context.Context) (Session, error)
}

// SessionFactoryFunc adapts a function to SessionFactory.
type SessionFactoryFunc func(ctx context.Context) (Session, error)

// NewSession calls f.
func (f SessionFactoryFunc) NewSession(ctx context.Context) (Session, error) {
	return f(ctx)
}

// LauncherSessions creates sessions with a browser launcher.
func LauncherSessions(l *browser.Launcher) SessionFactory {
	return SessionFactoryFunc(func(ctx context.Context) (Session, error) {
		s, err := l.NewSession(ctx)
		if err != nil {
			return nil, err
		}
		return s, nil
	})
}

// Runner executes a task in a session.
type Runner interface {
	Run(ctx context.Context, task string, b agent.Browser) (*agent.History, error)
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the base logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.log = l
		}
	}
}

// WithMetrics records run outcomes.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithTimeout replaces DefaultTimeout. Non-positive values are ignored.
func WithTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// Service runs one question through the agent.
type Service struct {
	sessions SessionFactory
	runner   Runner
	timeout  time.Duration
	metrics  *metrics.Metrics
	log      logger.Logger
}

// NewService creates a Service.
func NewService(sessions SessionFactory, runner Runner, opts ...Option) *Service {
	s := &Service{
		sessions: sessions,
		runner:   runner,
		timeout:  DefaultTimeout,
		log:      logger.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type runResult struct {
	history *agent.History
	err     error
}

var errTimeout = errors.New("agent run timed out")

// Ask answers task. Every failure is returned as *Error. The session is
// released before Ask returns, whatever the outcome.
func (s *Service) Ask(ctx context.Context, task string) (Answer, error) {
	start := time.Now()
	log := logger.GetLoggerFromContext(ctx, s.log)

	s.metrics.RunStarted()
	outcome, steps := metrics.RunMetricFailed, 0
	defer func() {
		s.metrics.RunFinished(outcome, steps, time.Since(start))
	}()

	session, err := s.sessions.NewSession(ctx)
	if err != nil {
		log.Error("Failed to create browser session", logger.ErrorField(err))
		return Answer{}, newError(KindInternal, err.Error(), err)
	}
	defer s.release(log, session)

	history, err := s.run(ctx, task, session)
	if history != nil && err == nil {
		steps = len(history.Steps)
	}

	answer, err := s.result(history, err)
	outcome = outcomeOf(err)
	if err != nil {
		log.Warn("Question failed", logger.ErrorField(err), logger.DurationField("duration", time.Since(start)))
		return Answer{}, err
	}
	log.Info("Question answered", logger.IntField("steps", steps), logger.DurationField("duration", time.Since(start)))
	return answer, nil
}

// run executes the runner in its own goroutine and stops waiting for it
// when the timeout expires. A panic in the runner becomes an error.
func (s *Service) run(ctx context.Context, task string, session Session) (*agent.History, error) {
	runCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	done := make(chan runResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- runResult{err: fmt.Errorf("agent run panicked: %v", r)}
			}
		}()
		history, err := s.runner.Run(runCtx, task, session)
		done <- runResult{history: history, err: err}
	}()

	select {
	case res := <-done:
		if res.err != nil && errors.Is(runCtx.Err(), context.DeadlineExceeded) {
			return nil, errTimeout
		}
		return res.history, res.err
	case <-runCtx.Done():
		if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
			return nil, errTimeout
		}
		return nil, runCtx.Err()
	}
}

func (s *Service) result(history *agent.History, err error) (Answer, error) {
	switch {
	case errors.Is(err, errTimeout):
		return Answer{}, newError(KindTimeout, fmt.Sprintf("agent run exceeded the %s timeout", s.timeout), err)
	case err != nil:
		return Answer{}, newError(KindInternal, err.Error(), err)
	case history == nil:
		return Answer{}, newError(KindNotFound, MessageRunFailed, nil)
	}

	final := history.FinalResult()
	if final == "" {
		return Answer{}, newError(KindNotFound, MessageNoResult, nil)
	}
	answer, err := ParseAnswer(final)
	if err != nil {
		return Answer{}, newError(KindParse, "could not parse result as JSON: "+err.Error(), err)
	}
	return answer, nil
}

// release closes the context and then the browser. Failures are logged
// and never change the outcome of the request.
func (s *Service) release(log logger.Logger, session Session) {
	if err := session.CloseContext(); err != nil {
		log.Error("Failed to close browser context", logger.ErrorField(err))
	}
	if err := session.CloseBrowser(); err != nil {
		log.Error("Failed to close browser", logger.ErrorField(err))
	}
}

func outcomeOf(err error) int {
	if err == nil {
		return metrics.RunMetricSuccess
	}
	switch AsError(err).Kind {
	case KindNotFound:
		return metrics.RunMetricNotFound
	case KindParse:
		return metrics.RunMetricParseError
	case KindTimeout:
		return metrics.RunMetricTimeout
	default:
		return metrics.RunMetricFailed
	}
}
