// Package browser drives Chromium through playwright-go. Every Session owns
// its own browser process, context and page and is never shared.
package browser

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"sync"

	"github.com/google/uuid"
	"github.com/lewisedginton/ai_assistant_api/internal/config"
	"github.com/lewisedginton/ai_assistant_api/pkg/logger"
	"github.com/playwright-community/playwright-go"
)

// ErrNotStarted is returned by NewSession and Ready before Start succeeded.
var ErrNotStarted = errors.New("browser driver not started")

// Launcher owns the playwright driver process and launches isolated sessions.
type Launcher struct {
	cfg config.BrowserConfig
	log logger.Logger

	mu sync.RWMutex
	pw *playwright.Playwright
}

// NewLauncher creates a Launcher. Call Start before creating sessions.
func NewLauncher(cfg config.BrowserConfig, log logger.Logger) *Launcher {
	if log == nil {
		log = logger.NewNop()
	}
	return &Launcher{cfg: cfg, log: log}
}

func runOptions() *playwright.RunOptions {
	return &playwright.RunOptions{
		Browsers: []string{"chromium"},
		Verbose:  false,
		Stdout:   io.Discard,
		Stderr:   io.Discard,
	}
}

// Install downloads the playwright driver and Chromium.
func Install() error {
	if err := playwright.Install(runOptions()); err != nil {
		return fmt.Errorf("failed to install playwright: %w", err)
	}
	return nil
}

// Start launches the playwright driver, installing it first when configured.
func (l *Launcher) Start() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.pw != nil {
		return nil
	}
	if l.cfg.Install {
		l.log.Info("Installing browser driver")
		if err := Install(); err != nil {
			return err
		}
	}

	pw, err := playwright.Run(runOptions())
	if err != nil {
		return fmt.Errorf("failed to start playwright: %w", err)
	}
	l.pw = pw
	l.log.Info("Browser driver started",
		logger.BoolField("headless", l.cfg.Headless),
		logger.BoolField("container_mode", l.cfg.ContainerMode))
	return nil
}

// Stop shuts the driver down. Sessions still open fail afterwards.
func (l *Launcher) Stop() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.pw == nil {
		return nil
	}
	err := l.pw.Stop()
	l.pw = nil
	if err != nil {
		return fmt.Errorf("failed to stop playwright: %w", err)
	}
	l.log.Info("Browser driver stopped")
	return nil
}

// Ready reports whether the driver is running.
func (l *Launcher) Ready(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.pw == nil {
		return ErrNotStarted
	}
	return nil
}

// NewSession launches a fresh browser, context and page. Anything already
// opened is closed again when a later step fails.
func (l *Launcher) NewSession(ctx context.Context) (*Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	l.mu.RLock()
	pw := l.pw
	l.mu.RUnlock()
	if pw == nil {
		return nil, ErrNotStarted
	}

	id := uuid.New().String()
	log := logger.GetLoggerFromContext(ctx, l.log).WithFields(logger.StringField("session_id", id))

	browser, err := pw.Chromium.Launch(launchOptions(l.cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	bctx, err := browser.NewContext(contextOptions(l.cfg))
	if err != nil {
		closeLogged(log, "browser", func() error { return browser.Close() })
		return nil, fmt.Errorf("failed to create browser context: %w", err)
	}

	page, err := bctx.NewPage()
	if err != nil {
		closeLogged(log, "browser context", func() error { return bctx.Close() })
		closeLogged(log, "browser", func() error { return browser.Close() })
		return nil, fmt.Errorf("failed to create page: %w", err)
	}
	page.SetDefaultTimeout(float64(l.cfg.ActionTimeout.Milliseconds()))

	log.Debug("Browser session created")
	return &Session{
		ID:      id,
		cfg:     l.cfg,
		log:     log,
		browser: browser,
		context: bctx,
		page:    page,
	}, nil
}

// closeLogged runs a cleanup step of a failed session launch. Its error is
// logged and otherwise dropped so the launch error is the one returned.
func closeLogged(log logger.Logger, what string, closeFn func() error) {
	if err := closeFn(); err != nil {
		log.Debug("Failed to close "+what+" after launch error", logger.ErrorField(err))
	}
}

func launchOptions(cfg config.BrowserConfig) playwright.BrowserTypeLaunchOptions {
	return playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(cfg.Headless),
		Args:     launchArgs(cfg),
	}
}

// launchArgs returns the Chromium command line flags for cfg.
func launchArgs(cfg config.BrowserConfig) []string {
	var args []string
	if cfg.ContainerMode {
		args = append(args, "--no-sandbox", "--disable-dev-shm-usage", "--disable-gpu")
	}
	if cfg.DisableSecurity {
		args = append(args,
			"--disable-web-security",
			"--disable-site-isolation-trials",
			"--disable-features=IsolateOrigins,site-per-process",
		)
	}
	args = append(args, "--window-size="+strconv.Itoa(cfg.WindowWidth)+","+strconv.Itoa(cfg.WindowHeight))
	return args
}

// contextOptions returns the browser context options for cfg.
func contextOptions(cfg config.BrowserConfig) playwright.BrowserNewContextOptions {
	opts := playwright.BrowserNewContextOptions{
		Viewport: &playwright.Size{Width: cfg.WindowWidth, Height: cfg.WindowHeight},
	}
	if cfg.Locale != "" {
		opts.Locale = playwright.String(cfg.Locale)
	}
	if cfg.DisableSecurity {
		opts.BypassCSP = playwright.Bool(true)
		opts.IgnoreHttpsErrors = playwright.Bool(true)
	}
	return opts
}
