package config

import (
	"fmt"
	"time"

	"github.com/hashicorp/go-multierror"
)

// BrowserConfig holds the per-session browser launch and context settings.
type BrowserConfig struct {
	Headless          bool          `env:"BROWSER_HEADLESS" yaml:"headless" default:"true"`
	DisableSecurity   bool          `env:"BROWSER_DISABLE_SECURITY" yaml:"disable_security" default:"false"`
	ContainerMode     bool          `env:"BROWSER_CONTAINER_MODE" yaml:"container_mode" default:"false"`
	WindowWidth       int           `env:"BROWSER_WINDOW_WIDTH" yaml:"window_width" default:"1280"`
	WindowHeight      int           `env:"BROWSER_WINDOW_HEIGHT" yaml:"window_height" default:"1100"`
	Locale            string        `env:"BROWSER_LOCALE" yaml:"locale" default:"en-US"`
	NetworkIdleWait   time.Duration `env:"BROWSER_NETWORK_IDLE_WAIT" yaml:"network_idle_wait" default:"3s"`
	HighlightElements bool          `env:"BROWSER_HIGHLIGHT_ELEMENTS" yaml:"highlight_elements" default:"true"`
	ViewportExpansion int           `env:"BROWSER_VIEWPORT_EXPANSION" yaml:"viewport_expansion" default:"500"`
	ActionTimeout     time.Duration `env:"BROWSER_ACTION_TIMEOUT" yaml:"action_timeout" default:"30s"`
	Install           bool          `env:"BROWSER_INSTALL" yaml:"install" default:"false"`
}

// Validate checks BrowserConfig for a usable window size and timeouts
func (b BrowserConfig) Validate() error {
	var result error
	if b.WindowWidth <= 0 || b.WindowHeight <= 0 {
		result = multierror.Append(result, fmt.Errorf("browser window size must be positive, got %dx%d", b.WindowWidth, b.WindowHeight))
	}
	if b.ActionTimeout <= 0 {
		result = multierror.Append(result, fmt.Errorf("browser action timeout must be greater than 0"))
	}
	if b.NetworkIdleWait < 0 || b.ViewportExpansion < 0 {
		result = multierror.Append(result, fmt.Errorf("browser network idle wait and viewport expansion must not be negative"))
	}
	return result
}
