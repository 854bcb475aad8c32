package llm

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProvider(t *testing.T) {
	_, err := NewProvider(ProviderConfig{Name: ProviderOpenAI})
	assert.Error(t, err, "API key required")

	_, err = NewProvider(ProviderConfig{Name: "mistral", APIKey: "k"})
	assert.Error(t, err)

	tests := []struct {
		name string
		want any
	}{
		{ProviderAnthropic, &AnthropicProvider{}},
		{ProviderOpenAI, &OpenAIProvider{}},
		{ProviderGoogle, &OpenAIProvider{}},
		{ProviderDeepSeek, &OpenAIProvider{}},
		{ProviderOpenCode, &OpenAIProvider{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewProvider(ProviderConfig{Name: tt.name, APIKey: "k"})
			require.NoError(t, err)
			assert.IsType(t, tt.want, p)
			assert.Equal(t, tt.name, p.Name())
		})
	}
}

func TestAnthropicComplete(t *testing.T) {
	var body map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("X-Api-Key"))
		data, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(data, &body))

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{
			"id": "msg_1", "type": "message", "role": "assistant", "model": "claude-haiku-4-5",
			"content": [{"type": "text", "text": "fix(input): type error"}],
			"stop_reason": "end_turn",
			"usage": {"input_tokens": 120, "output_tokens": 6}
		}`)
	}))
	defer server.Close()

	p := NewAnthropicProvider(ProviderConfig{APIKey: "test-key", BaseURL: server.URL})
	resp, err := p.Complete(context.Background(), Request{Model: "claude-haiku-4-5", Prompt: "title this", MaxTokens: 50})
	require.NoError(t, err)

	assert.Equal(t, "fix(input): type error", resp.Content)
	assert.Equal(t, 120, resp.Usage.InputTokens)
	assert.Equal(t, "claude-haiku-4-5", body["model"])
	assert.Equal(t, float64(50), body["max_tokens"])
}

func TestOpenAIComplete(t *testing.T) {
	var body map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		data, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(data, &body))

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{
			"id": "chatcmpl-1", "object": "chat.completion", "created": 1, "model": "deepseek-chat",
			"choices": [{"index": 0, "finish_reason": "stop", "message": {"role": "assistant", "content": "feat(auth): add OAuth support"}}],
			"usage": {"prompt_tokens": 90, "completion_tokens": 8, "total_tokens": 98}
		}`)
	}))
	defer server.Close()

	p, err := NewProvider(ProviderConfig{Name: ProviderDeepSeek, APIKey: "test-key", BaseURL: server.URL + "/v1"})
	require.NoError(t, err)

	resp, err := p.Complete(context.Background(), Request{Model: "deepseek-chat", Prompt: "title this", MaxTokens: 50})
	require.NoError(t, err)
	assert.Equal(t, "feat(auth): add OAuth support", resp.Content)
	assert.Equal(t, 8, resp.Usage.OutputTokens)

	assert.Equal(t, "deepseek-chat", body["model"])
	messages := body["messages"].([]any)
	require.Len(t, messages, 1)
	assert.Equal(t, "user", messages[0].(map[string]any)["role"])
}

func TestOpenAICompleteErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.Header.Get("Authorization") == "Bearer bad" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = io.WriteString(w, `{"error":{"message":"invalid key","type":"auth"}}`)
			return
		}
		_, _ = io.WriteString(w, `{"id":"x","object":"chat.completion","created":1,"model":"m","choices":[]}`)
	}))
	defer server.Close()

	bad := NewOpenAIProvider(ProviderConfig{APIKey: "bad", BaseURL: server.URL + "/v1/"})
	_, err := bad.Complete(context.Background(), Request{Model: "m", Prompt: "p"})
	assert.Error(t, err)

	empty := NewOpenAIProvider(ProviderConfig{APIKey: "good", BaseURL: server.URL + "/v1/"})
	_, err = empty.Complete(context.Background(), Request{Model: "m", Prompt: "p"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no response choices")
}
