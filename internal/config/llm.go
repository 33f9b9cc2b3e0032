package config

import (
	"fmt"
	"strings"

	"github.com/hashicorp/go-multierror"
)

// LLM provider constants
const (
	ProviderClaude = "claude"
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

// LLMConfig selects the model provider and carries each provider's settings.
type LLMConfig struct {
	// Provider specifies which LLM provider to use: "gemini", "openai" or "claude"
	Provider string `env:"LLM_PROVIDER" yaml:"provider" default:"gemini"`

	Gemini    GeminiConfig    `yaml:"gemini"`
	OpenAI    OpenAIConfig    `yaml:"openai"`
	Anthropic AnthropicConfig `yaml:"anthropic"`
}

// GeminiConfig holds Google Gemini-specific configuration
type GeminiConfig struct {
	APIKey  string `env:"GOOGLE_API_KEY" yaml:"-"`
	Model   string `env:"GOOGLE_MODEL_NAME" yaml:"model"`
	Project string `env:"GOOGLE_CLOUD_PROJECT" yaml:"project"` // Optional: for Vertex AI
	Region  string `env:"GOOGLE_CLOUD_REGION" yaml:"region"`   // Optional: for Vertex AI
}

// UseVertex reports whether both Vertex AI settings are present.
func (g GeminiConfig) UseVertex() bool {
	return g.Project != "" && g.Region != ""
}

// OpenAIConfig holds OpenAI-specific configuration
type OpenAIConfig struct {
	APIKey  string `env:"OPENAI_API_KEY" yaml:"-"`
	Model   string `env:"OPENAI_MODEL" yaml:"model" default:"gpt-4o"`
	BaseURL string `env:"OPENAI_BASE_URL" yaml:"base_url"`
}

// AnthropicConfig holds Anthropic-specific configuration
type AnthropicConfig struct {
	APIKey    string `env:"ANTHROPIC_API_KEY" yaml:"-"`
	Model     string `env:"CLAUDE_MODEL" yaml:"model" default:"claude-sonnet-4-5-20250929"`
	MaxTokens int    `env:"CLAUDE_MAX_TOKENS" yaml:"max_tokens" default:"4096"`
}

// ModelName returns the model id of the selected provider.
func (l LLMConfig) ModelName() string {
	switch strings.ToLower(l.Provider) {
	case ProviderOpenAI:
		return l.OpenAI.Model
	case ProviderClaude:
		return l.Anthropic.Model
	default:
		return l.Gemini.Model
	}
}

// Validate checks that the selected provider has its credential and model.
// Settings of the other providers are not checked.
func (l LLMConfig) Validate() error {
	var result error
	switch strings.ToLower(l.Provider) {
	case ProviderGemini:
		if l.Gemini.APIKey == "" {
			result = multierror.Append(result, fmt.Errorf("GOOGLE_API_KEY is required when LLM_PROVIDER=gemini"))
		}
		if l.Gemini.Model == "" {
			result = multierror.Append(result, fmt.Errorf("GOOGLE_MODEL_NAME is required when LLM_PROVIDER=gemini"))
		}
	case ProviderOpenAI:
		if l.OpenAI.APIKey == "" {
			result = multierror.Append(result, fmt.Errorf("OPENAI_API_KEY is required when LLM_PROVIDER=openai"))
		}
		if l.OpenAI.Model == "" {
			result = multierror.Append(result, fmt.Errorf("OPENAI_MODEL is required when LLM_PROVIDER=openai"))
		}
	case ProviderClaude:
		if l.Anthropic.APIKey == "" {
			result = multierror.Append(result, fmt.Errorf("ANTHROPIC_API_KEY is required when LLM_PROVIDER=claude"))
		}
		if l.Anthropic.Model == "" {
			result = multierror.Append(result, fmt.Errorf("CLAUDE_MODEL is required when LLM_PROVIDER=claude"))
		}
		if l.Anthropic.MaxTokens <= 0 {
			result = multierror.Append(result, fmt.Errorf("CLAUDE_MAX_TOKENS must be greater than 0"))
		}
	default:
		result = multierror.Append(result, fmt.Errorf("LLM_PROVIDER must be one of [gemini, openai, claude], got %q", l.Provider))
	}
	return result
}
