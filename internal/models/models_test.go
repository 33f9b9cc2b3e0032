package models

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lewisedginton/ai_assistant_api/internal/config"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name     string
		cfg      config.LLMConfig
		wantName string
		wantErr  bool
	}{
		{
			name: "openai",
			cfg: config.LLMConfig{
				Provider: "openai",
				OpenAI:   config.OpenAIConfig{APIKey: "sk-test", Model: "gpt-4o"},
			},
			wantName: "gpt-4o",
		},
		{
			name: "claude, provider is case insensitive",
			cfg: config.LLMConfig{
				Provider:  "Claude",
				Anthropic: config.AnthropicConfig{APIKey: "sk-ant", Model: "claude-sonnet-4-5-20250929", MaxTokens: 2048},
			},
			wantName: "claude-sonnet-4-5-20250929",
		},
		{
			name: "gemini",
			cfg: config.LLMConfig{
				Provider: "gemini",
				Gemini:   config.GeminiConfig{APIKey: "test-key", Model: "gemini-2.0-flash"},
			},
			wantName: "gemini-2.0-flash",
		},
		{
			name: "openai without key",
			cfg: config.LLMConfig{
				Provider: "openai",
				OpenAI:   config.OpenAIConfig{Model: "gpt-4o"},
			},
			wantErr: true,
		},
		{
			name:    "unknown provider",
			cfg:     config.LLMConfig{Provider: "llama"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			llm, err := New(context.Background(), tt.cfg, nil)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantName, llm.Name())
		})
	}
}
