package anthropic

import (
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"google.golang.org/adk/model"
	"google.golang.org/genai"
)

// transformADKToAnthropic converts ADK Content to Anthropic MessageParam.
// Contents with the system role are folded into the returned system prompt.
func transformADKToAnthropic(contents []*genai.Content) ([]anthropic.MessageParam, string, error) {
	if len(contents) == 0 {
		return nil, "", fmt.Errorf("no contents provided")
	}

	var messages []anthropic.MessageParam
	var systemPrompt string

	for _, content := range contents {
		text := joinText(content)
		if text == "" {
			continue
		}

		switch content.Role {
		case "system":
			systemPrompt = joinPrompts(systemPrompt, text)
			continue
		case "model", "assistant":
			messages = appendMessage(messages, anthropic.MessageParamRoleAssistant, text)
		default:
			messages = appendMessage(messages, anthropic.MessageParamRoleUser, text)
		}
	}

	if len(messages) == 0 {
		return nil, "", fmt.Errorf("no messages with text content")
	}
	return messages, systemPrompt, nil
}

// appendMessage adds a text message, merging consecutive messages of the
// same role since the API requires alternating turns.
func appendMessage(messages []anthropic.MessageParam, role anthropic.MessageParamRole, text string) []anthropic.MessageParam {
	block := anthropic.NewTextBlock(text)
	if n := len(messages); n > 0 && messages[n-1].Role == role {
		messages[n-1].Content = append(messages[n-1].Content, block)
		return messages
	}
	return append(messages, anthropic.MessageParam{
		Role:    role,
		Content: []anthropic.ContentBlockParamUnion{block},
	})
}

// transformAnthropicToADK converts Anthropic Message response to ADK LLMResponse
func transformAnthropicToADK(message *anthropic.Message) (*model.LLMResponse, error) {
	if message == nil {
		return nil, fmt.Errorf("message is nil")
	}

	var parts []*genai.Part
	for _, block := range message.Content {
		if text, ok := block.AsAny().(anthropic.TextBlock); ok && text.Text != "" {
			parts = append(parts, &genai.Part{Text: text.Text})
		}
	}

	var usageMetadata *genai.GenerateContentResponseUsageMetadata
	if message.Usage.InputTokens > 0 || message.Usage.OutputTokens > 0 {
		usageMetadata = &genai.GenerateContentResponseUsageMetadata{
			PromptTokenCount:     int32(message.Usage.InputTokens),
			CandidatesTokenCount: int32(message.Usage.OutputTokens),
			TotalTokenCount:      int32(message.Usage.InputTokens + message.Usage.OutputTokens),
		}
	}

	return &model.LLMResponse{
		Content: &genai.Content{
			Role:  "model",
			Parts: parts,
		},
		UsageMetadata: usageMetadata,
		FinishReason:  mapStopReason(message.StopReason),
		TurnComplete:  true,
	}, nil
}

func mapStopReason(reason anthropic.StopReason) genai.FinishReason {
	switch reason {
	case anthropic.StopReasonEndTurn, anthropic.StopReasonStopSequence:
		return genai.FinishReasonStop
	case anthropic.StopReasonMaxTokens:
		return genai.FinishReasonMaxTokens
	case anthropic.StopReasonRefusal:
		return genai.FinishReasonSafety
	default:
		return genai.FinishReasonOther
	}
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
	return strings.Join(texts, "\n")
}

func joinPrompts(a, b string) string {
	switch {
	case a == "":
		return b
	case b == "":
		return a
	default:
		return a + "\n\n" + b
	}
}
