package config

import (
	"fmt"
	"time"

	"github.com/hashicorp/go-multierror"
)

// AgentConfig bounds a single agent run.
type AgentConfig struct {
	Timeout           time.Duration `env:"AGENT_TIMEOUT" yaml:"timeout" default:"300s"`
	MaxSteps          int           `env:"AGENT_MAX_STEPS" yaml:"max_steps" default:"100"`
	MaxFailures       int           `env:"AGENT_MAX_FAILURES" yaml:"max_failures" default:"3"`
	MaxActionsPerStep int           `env:"AGENT_MAX_ACTIONS_PER_STEP" yaml:"max_actions_per_step" default:"10"`
	// RulesFile replaces the embedded extra rules when set
	RulesFile        string `env:"AGENT_RULES_FILE" yaml:"rules_file"`
	MaxContentLength int    `env:"AGENT_MAX_CONTENT_LENGTH" yaml:"max_content_length" default:"20000"`
}

// Validate checks AgentConfig for positive limits
func (a AgentConfig) Validate() error {
	var result error
	if a.Timeout <= 0 {
		result = multierror.Append(result, fmt.Errorf("agent timeout must be greater than 0"))
	}
	if a.MaxSteps <= 0 {
		result = multierror.Append(result, fmt.Errorf("agent max steps must be greater than 0, got %d", a.MaxSteps))
	}
	if a.MaxFailures <= 0 {
		result = multierror.Append(result, fmt.Errorf("agent max failures must be greater than 0, got %d", a.MaxFailures))
	}
	if a.MaxActionsPerStep <= 0 {
		result = multierror.Append(result, fmt.Errorf("agent max actions per step must be greater than 0, got %d", a.MaxActionsPerStep))
	}
	if a.MaxContentLength <= 0 {
		result = multierror.Append(result, fmt.Errorf("agent max content length must be greater than 0, got %d", a.MaxContentLength))
	}
	return result
}
