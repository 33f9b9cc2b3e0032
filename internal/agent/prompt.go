package agent

import (
	_ "embed"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/lewisedginton/ai_assistant_api/pkg/logger"
)

//go:embed prompts/system.md
var systemTemplate string

//go:embed prompts/rules.md
var defaultRules string

// Prompt renders the system instruction sent with every step.
type Prompt struct {
	rules string
}

// NewPrompt builds a Prompt. A non-empty rulesFile replaces the embedded
// important rules; a file that cannot be read is an error.
func NewPrompt(rulesFile string, log logger.Logger) (*Prompt, error) {
	if rulesFile == "" {
		return &Prompt{rules: defaultRules}, nil
	}
	content, err := os.ReadFile(rulesFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read rules file: %w", err)
	}
	if log != nil {
		log.Info("Loaded agent rules", logger.StringField("filename", rulesFile))
	}
	return &Prompt{rules: string(content)}, nil
}

// System renders the system instruction for the given action registry.
func (p *Prompt) System(c *Controller, maxActions int) string {
	r := strings.NewReplacer(
		"{{max_actions}}", strconv.Itoa(maxActions),
		"{{actions}}", c.Describe(),
		"{{important_rules}}", "# Important rules\n"+strings.TrimSpace(p.rules),
	)
	return r.Replace(systemTemplate)
}
