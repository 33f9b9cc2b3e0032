package openai

import (
	"context"
	"fmt"
	"iter"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
	"google.golang.org/adk/model"

	"github.com/lewisedginton/ai_assistant_api/pkg/logger"
)

const defaultMaxTokens int64 = 4096

// Model implements the model.LLM interface for OpenAI chat models.
type Model struct {
	client    *openai.Client
	modelName string
	log       logger.Logger
}

// New creates a new OpenAI model. baseURL is optional and points the client
// at an OpenAI compatible endpoint.
func New(apiKey, modelName, baseURL string, log logger.Logger) (*Model, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}
	if modelName == "" {
		return nil, fmt.Errorf("model name is required")
	}
	if log == nil {
		log = logger.NewNop()
	}

	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	client := openai.NewClient(opts...)

	return &Model{
		client:    &client,
		modelName: modelName,
		log:       log,
	}, nil
}

// Name returns the model name.
func (o *Model) Name() string {
	return o.modelName
}

// GenerateContent generates content using the OpenAI model.
// This implementation only supports non-streaming mode.
func (o *Model) GenerateContent(ctx context.Context, req *model.LLMRequest, stream bool) iter.Seq2[*model.LLMResponse, error] {
	return func(yield func(*model.LLMResponse, error) bool) {
		if stream {
			yield(nil, fmt.Errorf("streaming not supported"))
			return
		}

		response, err := o.generate(ctx, req)
		yield(response, err)
	}
}

func (o *Model) generate(ctx context.Context, req *model.LLMRequest) (*model.LLMResponse, error) {
	params := o.params(req)

	completion, err := o.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("openai API error: %w", err)
	}

	response, err := transformOpenAIToADK(completion)
	if err != nil {
		return nil, fmt.Errorf("failed to transform response: %w", err)
	}
	if response.UsageMetadata != nil {
		o.log.Debug("OpenAI completion",
			logger.StringField("model", o.modelName),
			logger.Field("prompt_tokens", response.UsageMetadata.PromptTokenCount),
			logger.Field("completion_tokens", response.UsageMetadata.CandidatesTokenCount))
	}
	return response, nil
}

// params builds the chat completion request. The system instruction is
// sent as the leading system message.
func (o *Model) params(req *model.LLMRequest) openai.ChatCompletionNewParams {
	messages := transformADKToOpenAI(req.Contents)

	maxTokens := defaultMaxTokens
	cfg := req.Config
	if cfg != nil {
		if system := joinText(cfg.SystemInstruction); system != "" {
			messages = append([]openai.ChatCompletionMessageParamUnion{openai.SystemMessage(system)}, messages...)
		}
		if cfg.MaxOutputTokens > 0 {
			maxTokens = int64(cfg.MaxOutputTokens)
		}
	}

	params := openai.ChatCompletionNewParams{
		Model:     o.modelName,
		MaxTokens: openai.Int(maxTokens),
		Messages:  messages,
	}
	if cfg == nil {
		return params
	}
	if cfg.Temperature != nil {
		params.Temperature = openai.Float(float64(*cfg.Temperature))
	}
	if cfg.TopP != nil {
		params.TopP = openai.Float(float64(*cfg.TopP))
	}
	if len(cfg.StopSequences) > 0 {
		params.Stop = openai.ChatCompletionNewParamsStopUnion{OfStringArray: cfg.StopSequences}
	}
	if cfg.ResponseMIMEType == jsonMIMEType {
		params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		}
	}
	return params
}
