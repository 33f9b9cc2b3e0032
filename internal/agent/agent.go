// Package agent runs a plan/act loop that completes a task by driving a
// browser session with a language model.
package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"google.golang.org/adk/model"
	"google.golang.org/genai"

	"github.com/lewisedginton/ai_assistant_api/internal/browser"
	"github.com/lewisedginton/ai_assistant_api/internal/config"
	"github.com/lewisedginton/ai_assistant_api/pkg/logger"
)

// Agent completes tasks with a model and a browser. It holds no per-run
// state, so one Agent serves concurrent runs.
type Agent struct {
	llm        model.LLM
	prompt     *Prompt
	controller *Controller
	cfg        config.AgentConfig
	log        logger.Logger
}

// New builds an Agent. A nil prompt uses the embedded rules.
func New(llm model.LLM, prompt *Prompt, cfg config.AgentConfig, log logger.Logger) *Agent {
	if prompt == nil {
		prompt = &Prompt{rules: defaultRules}
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Agent{
		llm:        llm,
		prompt:     prompt,
		controller: NewController(cfg.MaxContentLength),
		cfg:        cfg,
		log:        log,
	}
}

// Run executes the task until the model calls done, MaxSteps is reached or
// MaxFailures consecutive steps fail. The returned history is never nil.
// When ctx ends first the partial history is returned with ctx.Err().
func (a *Agent) Run(ctx context.Context, task string, b Browser) (*History, error) {
	h := &History{RunID: uuid.NewString(), Task: task}
	log := logger.GetLoggerFromContext(ctx, a.log).WithFields(logger.StringField("run_id", h.RunID))
	log.Info("Agent run started", logger.IntField("max_steps", a.cfg.MaxSteps))

	system := a.prompt.System(a.controller, a.cfg.MaxActionsPerStep)
	failures := 0

	for n := 1; n <= a.cfg.MaxSteps; n++ {
		if err := ctx.Err(); err != nil {
			log.Warn("Agent run cancelled", logger.IntField("step", n), logger.ErrorField(err))
			return h, err
		}

		step := a.step(ctx, log, system, n, h, b)
		h.Steps = append(h.Steps, step)

		if err := ctx.Err(); err != nil {
			log.Warn("Agent run cancelled", logger.IntField("step", n), logger.ErrorField(err))
			return h, err
		}
		if h.IsDone() {
			log.Info("Agent run finished",
				logger.IntField("steps", len(h.Steps)),
				logger.DurationField("duration", h.TotalDuration()))
			return h, nil
		}

		if step.Failed() {
			failures++
			log.Warn("Agent step failed",
				logger.IntField("step", n),
				logger.IntField("consecutive_failures", failures),
				logger.StringField("errors", strings.Join(step.Errors, "; ")))
			if failures >= a.cfg.MaxFailures {
				log.Error("Agent stopped after too many consecutive failures", logger.IntField("failures", failures))
				return h, nil
			}
		} else {
			failures = 0
		}
	}

	log.Warn("Agent reached max steps without finishing", logger.IntField("max_steps", a.cfg.MaxSteps))
	return h, nil
}

func (a *Agent) step(ctx context.Context, log logger.Logger, system string, n int, h *History, b Browser) Step {
	step := Step{Number: n, Started: time.Now()}
	fail := func(format string, args ...any) Step {
		step.Errors = append(step.Errors, fmt.Sprintf(format, args...))
		step.Duration = time.Since(step.Started)
		return step
	}

	state, err := b.State(ctx)
	if err != nil {
		return fail("failed to read page state: %v", err)
	}
	step.URL = state.URL

	text, err := a.generate(ctx, a.request(system, n, h, state))
	if err != nil {
		return fail("model call failed: %v", err)
	}
	out, err := ParseOutput(text)
	if err != nil {
		return fail("%v", err)
	}
	step.Output = out

	actions := out.Action
	if len(actions) > a.cfg.MaxActionsPerStep {
		log.Debug("Dropping actions over the per-step limit",
			logger.IntField("requested", len(actions)),
			logger.IntField("limit", a.cfg.MaxActionsPerStep))
		actions = actions[:a.cfg.MaxActionsPerStep]
	}

	log.Info("Agent step",
		logger.IntField("step", n),
		logger.StringField("url", state.URL),
		logger.StringField("next_goal", out.CurrentState.NextGoal),
		logger.StringField("actions", actionNames(actions)))

	for i, action := range actions {
		if ctx.Err() != nil {
			break
		}
		res, err := a.controller.Execute(ctx, b, state, action)
		if err != nil {
			res.Error = err.Error()
			step.Results = append(step.Results, res)
			return fail("%v", err)
		}
		step.Results = append(step.Results, res)
		if res.IsDone {
			break
		}
		if a.controller.ChangesPage(action.Name) && i < len(actions)-1 {
			log.Debug("Page changed, skipping remaining actions", logger.IntField("skipped", len(actions)-i-1))
			break
		}
	}

	step.Duration = time.Since(step.Started)
	return step
}

// generate performs one non-streaming model call and returns its text.
func (a *Agent) generate(ctx context.Context, req *model.LLMRequest) (string, error) {
	for resp, err := range a.llm.GenerateContent(ctx, req, false) {
		if err != nil {
			return "", err
		}
		if resp == nil || resp.Content == nil {
			continue
		}
		var b strings.Builder
		for _, part := range resp.Content.Parts {
			if part != nil && !part.Thought {
				b.WriteString(part.Text)
			}
		}
		if b.Len() > 0 {
			return b.String(), nil
		}
	}
	return "", ErrEmptyOutput
}

// request builds the conversation for step n: the task, every earlier step
// as a model turn followed by its results, then the current page.
func (a *Agent) request(system string, n int, h *History, state *browser.PageState) *model.LLMRequest {
	c := &conversation{}
	c.user(fmt.Sprintf("Your ultimate task is: \"\"\"%s\"\"\"\nIf you achieved it, stop with the done action. Otherwise keep working.", h.Task))

	for _, prev := range h.Steps {
		if prev.Output != nil {
			if raw, err := json.Marshal(prev.Output); err == nil {
				c.model(string(raw))
			}
		}
		if summary := stepSummary(prev); summary != "" {
			c.user(summary)
		}
	}

	c.user(stateMessage(state, n, a.cfg.MaxSteps))

	temperature := float32(0)
	return &model.LLMRequest{
		Model:    a.llm.Name(),
		Contents: c.contents,
		Config: &genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(system, genai.RoleUser),
			ResponseMIMEType:  "application/json",
			Temperature:       &temperature,
		},
	}
}

type conversation struct {
	contents []*genai.Content
}

// user appends text as a user turn, merging into a trailing user turn.
func (c *conversation) user(text string) {
	if n := len(c.contents); n > 0 && c.contents[n-1].Role == string(genai.RoleUser) {
		c.contents[n-1].Parts = append(c.contents[n-1].Parts, genai.NewPartFromText(text))
		return
	}
	c.contents = append(c.contents, genai.NewContentFromText(text, genai.RoleUser))
}

func (c *conversation) model(text string) {
	c.contents = append(c.contents, genai.NewContentFromText(text, genai.RoleModel))
}

func stepSummary(s Step) string {
	var b strings.Builder
	for _, r := range s.Results {
		switch {
		case r.Error != "":
			fmt.Fprintf(&b, "Action %s failed: %s\n", r.Action, r.Error)
		case r.ExtractedContent != "":
			fmt.Fprintf(&b, "Action %s: %s\n", r.Action, r.ExtractedContent)
		}
	}
	for _, e := range s.Errors {
		if !strings.Contains(b.String(), e) {
			fmt.Fprintf(&b, "Step %d error: %s\n", s.Number, e)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func stateMessage(state *browser.PageState, n, maxSteps int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Current step: %d/%d\n", n, maxSteps)
	fmt.Fprintf(&b, "Current url: %s\n", state.URL)
	fmt.Fprintf(&b, "Page title: %s\n", state.Title)
	b.WriteString("Interactive elements:\n")
	if state.PixelsAbove > 0 {
		fmt.Fprintf(&b, "... %d pixels above ...\n", state.PixelsAbove)
	}
	b.WriteString(state.ElementsText())
	b.WriteString("\n")
	if state.PixelsBelow > 0 {
		fmt.Fprintf(&b, "... %d pixels below ...\n", state.PixelsBelow)
	}
	return strings.TrimRight(b.String(), "\n")
}

func actionNames(actions []Action) string {
	names := make([]string, len(actions))
	for i, a := range actions {
		names[i] = a.Name
	}
	return strings.Join(names, ",")
}
