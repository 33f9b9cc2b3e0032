// Package anthropic provides an Anthropic Claude implementation of the ADK
// model.LLM interface.
package anthropic

import (
	"context"
	"fmt"
	"iter"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"google.golang.org/adk/model"

	"github.com/lewisedginton/ai_assistant_api/pkg/logger"
)

const defaultMaxTokens int64 = 4096

// jsonInstruction is added to the system prompt when JSON output is requested.
const jsonInstruction = "Respond with a single valid JSON object and nothing else."

// ClaudeModel implements the model.LLM interface for Anthropic Claude models
type ClaudeModel struct {
	client    anthropic.Client
	modelName string
	maxTokens int64
	log       logger.Logger
}

// NewClaudeModel creates a new Claude model instance. maxTokens <= 0 uses
// the default output budget.
func NewClaudeModel(apiKey, modelName string, maxTokens int64, log logger.Logger, opts ...option.RequestOption) (*ClaudeModel, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("anthropic API key is required")
	}
	if modelName == "" {
		modelName = string(anthropic.ModelClaudeSonnet4_5_20250929)
	}
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}
	if log == nil {
		log = logger.NewNop()
	}

	client := anthropic.NewClient(
		append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)...,
	)

	return &ClaudeModel{
		client:    client,
		modelName: modelName,
		maxTokens: maxTokens,
		log:       log.WithFields(logger.StringField("component", "claude_model"), logger.StringField("model", modelName)),
	}, nil
}

// Name returns the name of the model
func (c *ClaudeModel) Name() string {
	return c.modelName
}

// GenerateContent implements the model.LLM interface. Only non-streaming
// generation is supported.
func (c *ClaudeModel) GenerateContent(ctx context.Context, req *model.LLMRequest, stream bool) iter.Seq2[*model.LLMResponse, error] {
	return func(yield func(*model.LLMResponse, error) bool) {
		if stream {
			yield(nil, fmt.Errorf("streaming not supported"))
			return
		}
		yield(c.generate(ctx, req))
	}
}

func (c *ClaudeModel) generate(ctx context.Context, req *model.LLMRequest) (*model.LLMResponse, error) {
	params, err := c.params(req)
	if err != nil {
		return nil, fmt.Errorf("failed to transform request: %w", err)
	}

	c.log.Debug("Sending request to anthropic", logger.IntField("messages_count", len(params.Messages)))

	resp, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("claude api error: %w", err)
	}

	llmResponse, err := transformAnthropicToADK(resp)
	if err != nil {
		return nil, fmt.Errorf("failed to transform response: %w", err)
	}

	c.log.Debug("Received response from anthropic", logger.IntField("content_blocks", len(resp.Content)))
	return llmResponse, nil
}

func (c *ClaudeModel) params(req *model.LLMRequest) (anthropic.MessageNewParams, error) {
	messages, systemPrompt, err := transformADKToAnthropic(req.Contents)
	if err != nil {
		return anthropic.MessageNewParams{}, err
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(c.modelName),
		MaxTokens: c.maxTokens,
		Messages:  messages,
	}

	if cfg := req.Config; cfg != nil {
		systemPrompt = joinPrompts(joinText(cfg.SystemInstruction), systemPrompt)
		if cfg.ResponseMIMEType == "application/json" {
			systemPrompt = joinPrompts(systemPrompt, jsonInstruction)
		}
		if cfg.MaxOutputTokens > 0 {
			params.MaxTokens = int64(cfg.MaxOutputTokens)
		}
		if cfg.Temperature != nil {
			params.Temperature = anthropic.Float(float64(*cfg.Temperature))
		}
		if cfg.TopP != nil {
			params.TopP = anthropic.Float(float64(*cfg.TopP))
		}
		if len(cfg.StopSequences) > 0 {
			params.StopSequences = cfg.StopSequences
		}
	}

	if systemPrompt != "" {
		params.System = []anthropic.TextBlockParam{{Text: systemPrompt}}
	}
	return params, nil
}
