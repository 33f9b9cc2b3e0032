// Package openai provides an OpenAI implementation of the ADK model.LLM interface.
package openai

import (
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"google.golang.org/adk/model"
	"google.golang.org/genai"
)

const jsonMIMEType = "application/json"

// Finish reason constants (OpenAI uses plain strings)
const (
	finishReasonStop          = "stop"
	finishReasonLength        = "length"
	finishReasonContentFilter = "content_filter"
)

// transformADKToOpenAI converts ADK contents to chat messages. Only text
// parts are carried; contents without text are skipped.
func transformADKToOpenAI(contents []*genai.Content) []openai.ChatCompletionMessageParamUnion {
	var messages []openai.ChatCompletionMessageParamUnion
	for _, content := range contents {
		text := joinText(content)
		if text == "" {
			continue
		}
		switch content.Role {
		case "system":
			messages = append(messages, openai.SystemMessage(text))
		case "model", "assistant":
			messages = append(messages, openai.AssistantMessage(text))
		default:
			messages = append(messages, openai.UserMessage(text))
		}
	}
	return messages
}

// joinText concatenates the non-thought text parts of content.
func joinText(content *genai.Content) string {
	if content == nil {
		return ""
	}
	var texts []string
	for _, part := range content.Parts {
		if part != nil && part.Text != "" && !part.Thought {
			texts = append(texts, part.Text)
		}
	}
	return strings.Join(texts, "\n\n")
}

// transformOpenAIToADK converts an OpenAI ChatCompletion response to an ADK LLMResponse.
func transformOpenAIToADK(completion *openai.ChatCompletion) (*model.LLMResponse, error) {
	if completion == nil {
		return nil, fmt.Errorf("nil completion")
	}
	if len(completion.Choices) == 0 {
		return nil, fmt.Errorf("no choices in response")
	}

	choice := completion.Choices[0]
	var parts []*genai.Part
	if choice.Message.Content != "" {
		parts = append(parts, &genai.Part{Text: choice.Message.Content})
	}

	var usageMetadata *genai.GenerateContentResponseUsageMetadata
	if completion.Usage.TotalTokens > 0 {
		usageMetadata = &genai.GenerateContentResponseUsageMetadata{
			PromptTokenCount:     int32(completion.Usage.PromptTokens),
			CandidatesTokenCount: int32(completion.Usage.CompletionTokens),
			TotalTokenCount:      int32(completion.Usage.TotalTokens),
		}
		if completion.Usage.PromptTokensDetails.CachedTokens > 0 {
			usageMetadata.CachedContentTokenCount = int32(completion.Usage.PromptTokensDetails.CachedTokens)
		}
	}

	return &model.LLMResponse{
		Content: &genai.Content{
			Role:  "model",
			Parts: parts,
		},
		UsageMetadata: usageMetadata,
		FinishReason:  mapFinishReason(choice.FinishReason),
		TurnComplete:  true,
	}, nil
}

// mapFinishReason converts OpenAI's finish_reason string to genai.FinishReason.
func mapFinishReason(finishReason string) genai.FinishReason {
	switch finishReason {
	case finishReasonStop:
		return genai.FinishReasonStop
	case finishReasonLength:
		return genai.FinishReasonMaxTokens
	case finishReasonContentFilter:
		return genai.FinishReasonSafety
	default:
		return genai.FinishReasonOther
	}
}
