package agent

import (
	"time"
)

// Step is the record of one plan/act iteration.
type Step struct {
	Number   int            `json:"number"`
	URL      string         `json:"url,omitempty"`
	Output   *Output        `json:"output,omitempty"`
	Results  []ActionResult `json:"results,omitempty"`
	Errors   []string       `json:"errors,omitempty"`
	Started  time.Time      `json:"started"`
	Duration time.Duration  `json:"duration"`
}

// Failed reports whether the step recorded any error.
func (s Step) Failed() bool {
	return len(s.Errors) > 0
}

// History is everything that happened during one run.
type History struct {
	RunID string `json:"run_id"`
	Task  string `json:"task"`
	Steps []Step `json:"steps"`
}

// lastDone returns the done result of the last step, if any.
func (h *History) lastDone() (ActionResult, bool) {
	if h == nil || len(h.Steps) == 0 {
		return ActionResult{}, false
	}
	results := h.Steps[len(h.Steps)-1].Results
	for i := len(results) - 1; i >= 0; i-- {
		if results[i].IsDone {
			return results[i], true
		}
	}
	return ActionResult{}, false
}

// IsDone reports whether the run ended with the done action.
func (h *History) IsDone() bool {
	_, ok := h.lastDone()
	return ok
}

// FinalResult returns the content of the done action, or "" when the run
// did not finish.
func (h *History) FinalResult() string {
	res, _ := h.lastDone()
	return res.ExtractedContent
}

// Errors returns every step error in order.
func (h *History) Errors() []string {
	if h == nil {
		return nil
	}
	var errs []string
	for _, s := range h.Steps {
		errs = append(errs, s.Errors...)
	}
	return errs
}

// URLs returns the page visited at each step, skipping unknown ones.
func (h *History) URLs() []string {
	if h == nil {
		return nil
	}
	var urls []string
	for _, s := range h.Steps {
		if s.URL != "" {
			urls = append(urls, s.URL)
		}
	}
	return urls
}

// TotalDuration sums the duration of all steps.
func (h *History) TotalDuration() time.Duration {
	if h == nil {
		return 0
	}
	var total time.Duration
	for _, s := range h.Steps {
		total += s.Duration
	}
	return total
}
