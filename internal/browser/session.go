package browser

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/lewisedginton/ai_assistant_api/internal/config"
	"github.com/lewisedginton/ai_assistant_api/pkg/logger"
	"github.com/playwright-community/playwright-go"
)

const scrollScript = `([down, px]) => {
  const d = px > 0 ? px : window.innerHeight;
  window.scrollBy(0, down ? d : -d);
}`

// Session is one isolated browser, context and page owned by a single request.
type Session struct {
	ID string

	cfg     config.BrowserConfig
	log     logger.Logger
	browser playwright.Browser
	context playwright.BrowserContext
	page    playwright.Page
}

// State indexes the interactive elements in and around the viewport.
func (s *Session) State(ctx context.Context) (*PageState, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	raw, err := s.page.Evaluate(stateScript, map[string]any{
		"highlight": s.cfg.HighlightElements,
		"expansion": s.cfg.ViewportExpansion,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read page state: %w", err)
	}
	return decodeState(raw)
}

// Navigate opens rawURL in the current page.
func (s *Session) Navigate(ctx context.Context, rawURL string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	u, err := url.Parse(rawURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid url %q", rawURL)
	}

	waitUntil := playwright.WaitUntilState("domcontentloaded")
	if _, err := s.page.Goto(u.String(), playwright.PageGotoOptions{WaitUntil: &waitUntil}); err != nil {
		return fmt.Errorf("navigation failed: %w", err)
	}
	s.waitForNetworkIdle()
	return nil
}

// ClickElement clicks the element indexed by the last State call.
func (s *Session) ClickElement(ctx context.Context, index int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.locate(index).Click(); err != nil {
		return fmt.Errorf("click on element %d failed: %w", index, err)
	}
	s.waitForNetworkIdle()
	return nil
}

// InputText replaces the value of the indexed element with text.
func (s *Session) InputText(ctx context.Context, index int, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.locate(index).Fill(text); err != nil {
		return fmt.Errorf("input into element %d failed: %w", index, err)
	}
	return nil
}

// SendKeys presses a key or chord such as "Enter" or "Control+A".
func (s *Session) SendKeys(ctx context.Context, keys string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.page.Keyboard().Press(keys); err != nil {
		return fmt.Errorf("send keys %q failed: %w", keys, err)
	}
	s.waitForNetworkIdle()
	return nil
}

// Scroll moves the page by pixels, or one viewport height when pixels <= 0.
func (s *Session) Scroll(ctx context.Context, down bool, pixels int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := s.page.Evaluate(scrollScript, []any{down, pixels}); err != nil {
		return fmt.Errorf("scroll failed: %w", err)
	}
	return nil
}

// GoBack navigates one entry back in history.
func (s *Session) GoBack(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := s.page.GoBack(); err != nil {
		return fmt.Errorf("go back failed: %w", err)
	}
	s.waitForNetworkIdle()
	return nil
}

// ExtractContent returns the current page as readable text.
func (s *Session) ExtractContent(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	content, err := s.page.Content()
	if err != nil {
		return "", fmt.Errorf("failed to read page content: %w", err)
	}
	return HTMLToText(content, 0)
}

// CloseContext closes the browser context and its page.
func (s *Session) CloseContext() error {
	if s.context == nil {
		return nil
	}
	if err := s.context.Close(); err != nil {
		return fmt.Errorf("failed to close browser context: %w", err)
	}
	return nil
}

// CloseBrowser terminates the browser process.
func (s *Session) CloseBrowser() error {
	if s.browser == nil {
		return nil
	}
	if err := s.browser.Close(); err != nil {
		return fmt.Errorf("failed to close browser: %w", err)
	}
	s.log.Debug("Browser session closed")
	return nil
}

func (s *Session) locate(index int) playwright.Locator {
	return s.page.Locator("[" + IndexAttribute + `="` + strconv.Itoa(index) + `"]`).First()
}

// waitForNetworkIdle waits for the page to settle. Pages that keep polling
// never reach idle, so running out of budget is not an error.
func (s *Session) waitForNetworkIdle() {
	if s.cfg.NetworkIdleWait <= 0 {
		return
	}
	state := playwright.LoadState("networkidle")
	err := s.page.WaitForLoadState(playwright.PageWaitForLoadStateOptions{
		State:   &state,
		Timeout: playwright.Float(float64(s.cfg.NetworkIdleWait.Milliseconds())),
	})
	if err != nil {
		s.log.Debug("Network did not become idle", logger.ErrorField(err))
	}
}
