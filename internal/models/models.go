// Package models builds the language model selected by configuration.
package models

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/adk/model"
	"google.golang.org/adk/model/gemini"
	"google.golang.org/genai"

	"github.com/lewisedginton/ai_assistant_api/internal/config"
	"github.com/lewisedginton/ai_assistant_api/internal/models/anthropic"
	"github.com/lewisedginton/ai_assistant_api/internal/models/openai"
	"github.com/lewisedginton/ai_assistant_api/pkg/logger"
)

// New creates the model.LLM for the configured provider.
func New(ctx context.Context, cfg config.LLMConfig, log logger.Logger) (model.LLM, error) {
	if log == nil {
		log = logger.NewNop()
	}

	switch strings.ToLower(cfg.Provider) {
	case config.ProviderClaude:
		log.Info("Initializing Claude model", logger.StringField("model", cfg.Anthropic.Model))
		return anthropic.NewClaudeModel(cfg.Anthropic.APIKey, cfg.Anthropic.Model, int64(cfg.Anthropic.MaxTokens), log)

	case config.ProviderOpenAI:
		log.Info("Initializing OpenAI model", logger.StringField("model", cfg.OpenAI.Model))
		return openai.New(cfg.OpenAI.APIKey, cfg.OpenAI.Model, cfg.OpenAI.BaseURL, log)

	case config.ProviderGemini:
		log.Info("Initializing Gemini model", logger.StringField("model", cfg.Gemini.Model))

		clientConfig := &genai.ClientConfig{
			APIKey: cfg.Gemini.APIKey,
		}
		if cfg.Gemini.UseVertex() {
			clientConfig.Backend = genai.BackendVertexAI
			clientConfig.Project = cfg.Gemini.Project
			clientConfig.Location = cfg.Gemini.Region
			log.Info("Using Vertex AI backend",
				logger.StringField("project", cfg.Gemini.Project),
				logger.StringField("region", cfg.Gemini.Region))
		}

		llm, err := gemini.NewModel(ctx, cfg.Gemini.Model, clientConfig)
		if err != nil {
			return nil, fmt.Errorf("failed to create gemini model: %w", err)
		}
		return llm, nil

	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.Provider)
	}
}
