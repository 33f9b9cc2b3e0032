package openai

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/openai/openai-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/adk/model"
	"google.golang.org/genai"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name      string
		apiKey    string
		modelName string
		wantErr   bool
	}{
		{"valid inputs", "test-api-key", "gpt-4o", false},
		{"empty api key", "", "gpt-4o", true},
		{"empty model name", "test-api-key", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := New(tt.apiKey, tt.modelName, "", nil)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.modelName, m.Name())
		})
	}
}

func TestGenerateContentStreamingNotSupported(t *testing.T) {
	m, err := New("test-key", "gpt-4o", "", nil)
	require.NoError(t, err)

	req := &model.LLMRequest{Contents: []*genai.Content{genai.NewContentFromText("Hello", genai.RoleUser)}}
	for resp, err := range m.GenerateContent(context.Background(), req, true) {
		assert.Nil(t, resp)
		assert.Error(t, err)
	}
}

func TestGenerateContent(t *testing.T) {
	var body map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		raw, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(raw, &body))

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"created": 1,
			"model": "gpt-4o",
			"choices": [{"index": 0, "message": {"role": "assistant", "content": "{\"answer\":\"ok\"}"}, "finish_reason": "stop"}],
			"usage": {"prompt_tokens": 12, "completion_tokens": 4, "total_tokens": 16}
		}`)
	}))
	defer server.Close()

	m, err := New("test-key", "gpt-4o", server.URL+"/", nil)
	require.NoError(t, err)

	temperature := float32(0)
	req := &model.LLMRequest{
		Contents: []*genai.Content{
			genai.NewContentFromText("task", genai.RoleUser),
			genai.NewContentFromText(`{"action":[]}`, genai.RoleModel),
			genai.NewContentFromText("state", genai.RoleUser),
		},
		Config: &genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText("be precise", genai.RoleUser),
			ResponseMIMEType:  "application/json",
			Temperature:       &temperature,
		},
	}

	var responses []*model.LLMResponse
	for resp, err := range m.GenerateContent(context.Background(), req, false) {
		require.NoError(t, err)
		responses = append(responses, resp)
	}
	require.Len(t, responses, 1)
	resp := responses[0]
	require.NotNil(t, resp.Content)
	assert.Equal(t, `{"answer":"ok"}`, resp.Content.Parts[0].Text)
	assert.Equal(t, genai.FinishReasonStop, resp.FinishReason)
	assert.Equal(t, int32(16), resp.UsageMetadata.TotalTokenCount)

	assert.Equal(t, "gpt-4o", body["model"])
	assert.Equal(t, float64(defaultMaxTokens), body["max_tokens"])
	assert.Equal(t, map[string]any{"type": "json_object"}, body["response_format"])
	messages, ok := body["messages"].([]any)
	require.True(t, ok)
	require.Len(t, messages, 4)
	roles := make([]any, len(messages))
	for i, msg := range messages {
		roles[i] = msg.(map[string]any)["role"]
	}
	assert.Equal(t, []any{"system", "user", "assistant", "user"}, roles)
	assert.Equal(t, "be precise", messages[0].(map[string]any)["content"])
}

func TestGenerateContentAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"error":{"message":"bad request","type":"invalid_request_error"}}`)
	}))
	defer server.Close()

	m, err := New("test-key", "gpt-4o", server.URL+"/", nil)
	require.NoError(t, err)

	req := &model.LLMRequest{Contents: []*genai.Content{genai.NewContentFromText("Hello", genai.RoleUser)}}
	for _, err := range m.GenerateContent(context.Background(), req, false) {
		require.Error(t, err)
		assert.Contains(t, err.Error(), "openai API error")
	}
}

func TestTransformADKToOpenAI(t *testing.T) {
	tests := []struct {
		name         string
		contents     []*genai.Content
		wantMsgCount int
	}{
		{
			name:         "single user message",
			contents:     []*genai.Content{{Role: "user", Parts: []*genai.Part{{Text: "Hello"}}}},
			wantMsgCount: 1,
		},
		{
			name: "system and user messages",
			contents: []*genai.Content{
				{Role: "system", Parts: []*genai.Part{{Text: "You are helpful"}}},
				{Role: "user", Parts: []*genai.Part{{Text: "Hello"}}},
			},
			wantMsgCount: 2,
		},
		{
			name: "multi-turn conversation",
			contents: []*genai.Content{
				{Role: "user", Parts: []*genai.Part{{Text: "Hello"}}},
				{Role: "model", Parts: []*genai.Part{{Text: "Hi there!"}}},
				{Role: "user", Parts: []*genai.Part{{Text: "How are you?"}}},
			},
			wantMsgCount: 3,
		},
		{
			name: "nil and empty contents are skipped",
			contents: []*genai.Content{
				nil,
				{Role: "user"},
				{Role: "user", Parts: []*genai.Part{nil, {Text: "thinking", Thought: true}}},
			},
			wantMsgCount: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Len(t, transformADKToOpenAI(tt.contents), tt.wantMsgCount)
		})
	}
}

func TestJoinText(t *testing.T) {
	content := &genai.Content{Parts: []*genai.Part{{Text: "one"}, nil, {Text: "hidden", Thought: true}, {Text: "two"}}}
	assert.Equal(t, "one\n\ntwo", joinText(content))
	assert.Empty(t, joinText(nil))
}

func TestMapFinishReason(t *testing.T) {
	tests := []struct {
		in   string
		want genai.FinishReason
	}{
		{"stop", genai.FinishReasonStop},
		{"length", genai.FinishReasonMaxTokens},
		{"content_filter", genai.FinishReasonSafety},
		{"unknown", genai.FinishReasonOther},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, mapFinishReason(tt.in))
		})
	}
}

func TestTransformOpenAIToADK(t *testing.T) {
	_, err := transformOpenAIToADK(nil)
	assert.Error(t, err)

	_, err = transformOpenAIToADK(&openai.ChatCompletion{})
	assert.Error(t, err)

	resp, err := transformOpenAIToADK(&openai.ChatCompletion{
		Choices: []openai.ChatCompletionChoice{{
			Message:      openai.ChatCompletionMessage{Content: "Hello!"},
			FinishReason: "length",
		}},
		Usage: openai.CompletionUsage{
			PromptTokens:        10,
			CompletionTokens:    5,
			TotalTokens:         15,
			PromptTokensDetails: openai.CompletionUsagePromptTokensDetails{CachedTokens: 3},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "model", resp.Content.Role)
	require.Len(t, resp.Content.Parts, 1)
	assert.Equal(t, "Hello!", resp.Content.Parts[0].Text)
	assert.Equal(t, genai.FinishReasonMaxTokens, resp.FinishReason)
	assert.True(t, resp.TurnComplete)
	assert.Equal(t, int32(10), resp.UsageMetadata.PromptTokenCount)
	assert.Equal(t, int32(3), resp.UsageMetadata.CachedContentTokenCount)

	resp, err = transformOpenAIToADK(&openai.ChatCompletion{Choices: []openai.ChatCompletionChoice{{FinishReason: "stop"}}})
	require.NoError(t, err)
	assert.Empty(t, resp.Content.Parts)
	assert.Nil(t, resp.UsageMetadata)
}
