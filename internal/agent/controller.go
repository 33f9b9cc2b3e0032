package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/lewisedginton/ai_assistant_api/internal/browser"
)

// Browser is the page surface the agent drives.
type Browser interface {
	State(ctx context.Context) (*browser.PageState, error)
	Navigate(ctx context.Context, rawURL string) error
	ClickElement(ctx context.Context, index int) error
	InputText(ctx context.Context, index int, text string) error
	SendKeys(ctx context.Context, keys string) error
	Scroll(ctx context.Context, down bool, pixels int) error
	GoBack(ctx context.Context) error
	ExtractContent(ctx context.Context) (string, error)
}

// ActionDone is the name of the action that finishes a run.
const ActionDone = "done"

const googleSearchURL = "https://www.google.com/search?udm=14&q="

// ActionResult is the outcome of one executed action.
type ActionResult struct {
	Action           string `json:"action"`
	IsDone           bool   `json:"is_done,omitempty"`
	ExtractedContent string `json:"extracted_content,omitempty"`
	Error            string `json:"error,omitempty"`
}

// handlerFunc executes one action against the browser. state is the page
// snapshot the model saw when choosing the action.
type handlerFunc func(ctx context.Context, b Browser, state *browser.PageState, params json.RawMessage) (ActionResult, error)

type actionDef struct {
	name        string
	description string
	params      string
	changesPage bool
	handler     handlerFunc
}

// Controller is the registry of actions the model may call.
type Controller struct {
	actions          map[string]actionDef
	order            []string
	maxContentLength int
}

// NewController registers the built-in browser actions. Extracted page
// content is cut to maxContentLength bytes; <= 0 keeps it whole.
func NewController(maxContentLength int) *Controller {
	c := &Controller{
		actions:          make(map[string]actionDef),
		maxContentLength: maxContentLength,
	}
	c.register(actionDef{
		name:        "search_google",
		description: "Search the query on Google in the current tab",
		params:      `{"query": string}`,
		changesPage: true,
		handler:     searchGoogle,
	})
	c.register(actionDef{
		name:        "go_to_url",
		description: "Navigate the current tab to a URL",
		params:      `{"url": string}`,
		changesPage: true,
		handler:     goToURL,
	})
	c.register(actionDef{
		name:        "click_element",
		description: "Click the element with the given index",
		params:      `{"index": int}`,
		changesPage: true,
		handler:     clickElement,
	})
	c.register(actionDef{
		name:        "input_text",
		description: "Type text into the input element with the given index",
		params:      `{"index": int, "text": string}`,
		handler:     inputText,
	})
	c.register(actionDef{
		name:        "send_keys",
		description: "Press keys on the focused element, e.g. \"Enter\" or \"Control+a\"",
		params:      `{"keys": string}`,
		changesPage: true,
		handler:     sendKeys,
	})
	c.register(actionDef{
		name:        "scroll_down",
		description: "Scroll the page down by amount pixels, one screen when omitted",
		params:      `{"amount": int?}`,
		handler:     scroll(true),
	})
	c.register(actionDef{
		name:        "scroll_up",
		description: "Scroll the page up by amount pixels, one screen when omitted",
		params:      `{"amount": int?}`,
		handler:     scroll(false),
	})
	c.register(actionDef{
		name:        "go_back",
		description: "Go back to the previous page",
		params:      `{}`,
		changesPage: true,
		handler:     goBack,
	})
	c.register(actionDef{
		name:        "extract_content",
		description: "Read the text of the whole page to find information for goal",
		params:      `{"goal": string}`,
		handler:     c.extractContent,
	})
	c.register(actionDef{
		name:        ActionDone,
		description: "Finish the task with the complete answer",
		params:      `{"answer": string}`,
		handler:     done,
	})
	return c
}

func (c *Controller) register(def actionDef) {
	c.actions[def.name] = def
	c.order = append(c.order, def.name)
}

// Describe lists the registered actions for the system prompt.
func (c *Controller) Describe() string {
	var b strings.Builder
	for _, name := range c.order {
		def := c.actions[name]
		fmt.Fprintf(&b, "- %s: %s. Parameters: %s\n", def.name, def.description, def.params)
	}
	return strings.TrimRight(b.String(), "\n")
}

// ChangesPage reports whether the action may replace the current page,
// which invalidates the element indexes of later actions in the same step.
func (c *Controller) ChangesPage(name string) bool {
	return c.actions[name].changesPage
}

// Execute runs one action. An unknown action or invalid parameters are
// errors, as is any failure reported by the browser.
func (c *Controller) Execute(ctx context.Context, b Browser, state *browser.PageState, action Action) (ActionResult, error) {
	def, ok := c.actions[action.Name]
	if !ok {
		return ActionResult{Action: action.Name}, fmt.Errorf("unknown action %q", action.Name)
	}
	res, err := def.handler(ctx, b, state, action.Params)
	res.Action = action.Name
	if err != nil {
		return res, fmt.Errorf("%s: %w", action.Name, err)
	}
	return res, nil
}

func decodeParams(raw json.RawMessage, dest any) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dest); err != nil {
		return fmt.Errorf("invalid parameters: %w", err)
	}
	return nil
}

func checkIndex(state *browser.PageState, index int) error {
	if state == nil {
		return nil
	}
	if _, ok := state.Element(index); !ok {
		return fmt.Errorf("element with index %d does not exist", index)
	}
	return nil
}

func searchGoogle(ctx context.Context, b Browser, _ *browser.PageState, raw json.RawMessage) (ActionResult, error) {
	var p struct {
		Query string `json:"query"`
	}
	if err := decodeParams(raw, &p); err != nil {
		return ActionResult{}, err
	}
	if strings.TrimSpace(p.Query) == "" {
		return ActionResult{}, fmt.Errorf("query is required")
	}
	if err := b.Navigate(ctx, googleSearchURL+url.QueryEscape(p.Query)); err != nil {
		return ActionResult{}, err
	}
	return ActionResult{ExtractedContent: fmt.Sprintf("Searched for %q in Google", p.Query)}, nil
}

func goToURL(ctx context.Context, b Browser, _ *browser.PageState, raw json.RawMessage) (ActionResult, error) {
	var p struct {
		URL string `json:"url"`
	}
	if err := decodeParams(raw, &p); err != nil {
		return ActionResult{}, err
	}
	if err := b.Navigate(ctx, p.URL); err != nil {
		return ActionResult{}, err
	}
	return ActionResult{ExtractedContent: "Navigated to " + p.URL}, nil
}

func clickElement(ctx context.Context, b Browser, state *browser.PageState, raw json.RawMessage) (ActionResult, error) {
	var p struct {
		Index int `json:"index"`
	}
	if err := decodeParams(raw, &p); err != nil {
		return ActionResult{}, err
	}
	if err := checkIndex(state, p.Index); err != nil {
		return ActionResult{}, err
	}
	if err := b.ClickElement(ctx, p.Index); err != nil {
		return ActionResult{}, err
	}
	return ActionResult{ExtractedContent: fmt.Sprintf("Clicked element %d", p.Index)}, nil
}

func inputText(ctx context.Context, b Browser, state *browser.PageState, raw json.RawMessage) (ActionResult, error) {
	var p struct {
		Index int    `json:"index"`
		Text  string `json:"text"`
	}
	if err := decodeParams(raw, &p); err != nil {
		return ActionResult{}, err
	}
	if err := checkIndex(state, p.Index); err != nil {
		return ActionResult{}, err
	}
	if err := b.InputText(ctx, p.Index, p.Text); err != nil {
		return ActionResult{}, err
	}
	return ActionResult{ExtractedContent: fmt.Sprintf("Typed %q into element %d", p.Text, p.Index)}, nil
}

func sendKeys(ctx context.Context, b Browser, _ *browser.PageState, raw json.RawMessage) (ActionResult, error) {
	var p struct {
		Keys string `json:"keys"`
	}
	if err := decodeParams(raw, &p); err != nil {
		return ActionResult{}, err
	}
	if p.Keys == "" {
		return ActionResult{}, fmt.Errorf("keys is required")
	}
	if err := b.SendKeys(ctx, p.Keys); err != nil {
		return ActionResult{}, err
	}
	return ActionResult{ExtractedContent: "Sent keys " + p.Keys}, nil
}

func scroll(down bool) handlerFunc {
	return func(ctx context.Context, b Browser, _ *browser.PageState, raw json.RawMessage) (ActionResult, error) {
		var p struct {
			Amount int `json:"amount"`
		}
		if err := decodeParams(raw, &p); err != nil {
			return ActionResult{}, err
		}
		if p.Amount < 0 {
			return ActionResult{}, fmt.Errorf("amount must not be negative")
		}
		if err := b.Scroll(ctx, down, p.Amount); err != nil {
			return ActionResult{}, err
		}
		direction := "up"
		if down {
			direction = "down"
		}
		amount := "one page"
		if p.Amount > 0 {
			amount = fmt.Sprintf("%d pixels", p.Amount)
		}
		return ActionResult{ExtractedContent: fmt.Sprintf("Scrolled %s by %s", direction, amount)}, nil
	}
}

func goBack(ctx context.Context, b Browser, _ *browser.PageState, raw json.RawMessage) (ActionResult, error) {
	if err := decodeParams(raw, &struct{}{}); err != nil {
		return ActionResult{}, err
	}
	if err := b.GoBack(ctx); err != nil {
		return ActionResult{}, err
	}
	return ActionResult{ExtractedContent: "Navigated back"}, nil
}

func (c *Controller) extractContent(ctx context.Context, b Browser, _ *browser.PageState, raw json.RawMessage) (ActionResult, error) {
	var p struct {
		Goal string `json:"goal"`
	}
	if err := decodeParams(raw, &p); err != nil {
		return ActionResult{}, err
	}
	text, err := b.ExtractContent(ctx)
	if err != nil {
		return ActionResult{}, err
	}
	text = browser.Truncate(text, c.maxContentLength)
	if p.Goal != "" {
		return ActionResult{ExtractedContent: fmt.Sprintf("Page content for goal %q:\n%s", p.Goal, text)}, nil
	}
	return ActionResult{ExtractedContent: "Page content:\n" + text}, nil
}

// done validates the answer and keeps the parameters verbatim, compacted,
// as the final result of the run. Extra fields are kept.
func done(_ context.Context, _ Browser, _ *browser.PageState, raw json.RawMessage) (ActionResult, error) {
	var p struct {
		Answer *string `json:"answer"`
	}
	if err := json.Unmarshal(raw, &p); err != nil {
		return ActionResult{}, fmt.Errorf("invalid parameters: %w", err)
	}
	if p.Answer == nil {
		return ActionResult{}, fmt.Errorf("answer is required")
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return ActionResult{}, fmt.Errorf("invalid parameters: %w", err)
	}
	return ActionResult{IsDone: true, ExtractedContent: buf.String()}, nil
}
