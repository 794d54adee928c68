package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mathrouter/mathrouter/internal/config"
)

func testConfig(endpoint string) config.LLMConfig {
	return config.LLMConfig{
		Provider:    config.LLMProviderGroq,
		APIKey:      "test-key",
		Endpoint:    endpoint,
		Model:       "llama-3.1-8b-instant",
		Temperature: 0.3,
		MaxTokens:   1024,
	}
}

func TestNewOpenAINotConfigured(t *testing.T) {
	_, err := NewOpenAI(config.LLMConfig{Provider: config.LLMProviderGroq})
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestComplete(t *testing.T) {
	var captured map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/openai/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"created": 1700000000,
			"model": "llama-3.1-8b-instant",
			"choices": [{
				"index": 0,
				"finish_reason": "stop",
				"logprobs": null,
				"message": {"role": "assistant", "content": "Step 1: Factor.\nStep 2: Solve."}
			}],
			"usage": {"prompt_tokens": 12, "completion_tokens": 8, "total_tokens": 20}
		}`))
	}))
	defer srv.Close()

	provider, err := NewOpenAI(testConfig(srv.URL + "/openai/v1"))
	require.NoError(t, err)

	resp, err := provider.Complete(context.Background(), "system text", "user text")
	require.NoError(t, err)
	assert.Equal(t, "Step 1: Factor.\nStep 2: Solve.", resp.Content)
	assert.Equal(t, int64(20), resp.Usage.TotalTokens)

	assert.Equal(t, "llama-3.1-8b-instant", captured["model"])
	assert.InDelta(t, 0.3, captured["temperature"], 1e-9)
	assert.InDelta(t, 1024, captured["max_tokens"], 1e-9)
	messages, ok := captured["messages"].([]any)
	require.True(t, ok)
	require.Len(t, messages, 2)
	assert.Equal(t, "system", messages[0].(map[string]any)["role"])
	assert.Equal(t, "user", messages[1].(map[string]any)["role"])

	t.Run("Should apply call options", func(t *testing.T) {
		_, err := provider.Complete(context.Background(), "s", "u", WithModel("other-model"), WithMaxTokens(64))
		require.NoError(t, err)
		assert.Equal(t, "other-model", captured["model"])
		assert.InDelta(t, 64, captured["max_tokens"], 1e-9)
	})
}

func TestCompleteErrors(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		code      string
		retryable bool
	}{
		{"unauthorized", http.StatusUnauthorized, `{"error":{"message":"bad key","type":"invalid_request_error"}}`, CodeAuth, false},
		{"rate limited", http.StatusTooManyRequests, `{"error":{"message":"slow down","type":"rate_limit"}}`, CodeRateLimit, true},
		{"server error", http.StatusInternalServerError, `{"error":{"message":"boom","type":"server_error"}}`, CodeUnavailable, true},
		{"bad request", http.StatusBadRequest, `{"error":{"message":"bad","type":"invalid_request_error"}}`, CodeFailed, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			provider, err := NewOpenAI(testConfig(srv.URL))
			require.NoError(t, err)

			_, err = provider.Complete(context.Background(), "s", "u")
			var pe *ProviderError
			require.True(t, errors.As(err, &pe))
			assert.Equal(t, tt.code, pe.Code)
			assert.Equal(t, tt.retryable, pe.Retryable)
			assert.Equal(t, tt.status, pe.StatusCode)
		})
	}

	t.Run("Should reject empty content", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"id":"c","object":"chat.completion","created":1,"model":"m",
				"choices":[{"index":0,"finish_reason":"stop","logprobs":null,"message":{"role":"assistant","content":"  "}}],
				"usage":{"prompt_tokens":1,"completion_tokens":0,"total_tokens":1}}`))
		}))
		defer srv.Close()

		provider, err := NewOpenAI(testConfig(srv.URL))
		require.NoError(t, err)

		_, err = provider.Complete(context.Background(), "s", "u")
		var pe *ProviderError
		require.True(t, errors.As(err, &pe))
		assert.Equal(t, CodeEmpty, pe.Code)
	})
}

func TestEmbed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/embeddings", r.URL.Path)
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "text-embedding-3-small", body["model"])
		assert.Len(t, body["input"], 2)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"object": "list",
			"model": "text-embedding-3-small",
			"data": [
				{"object": "embedding", "index": 1, "embedding": [0, 1]},
				{"object": "embedding", "index": 0, "embedding": [1, 0]}
			],
			"usage": {"prompt_tokens": 4, "total_tokens": 4}
		}`))
	}))
	defer srv.Close()

	embedder, err := NewEmbedder(config.EmbeddingConfig{
		APIKey:   "test-key",
		Endpoint: srv.URL + "/v1",
		Model:    "text-embedding-3-small",
	})
	require.NoError(t, err)

	vectors, err := embedder.Embed(context.Background(), []string{"first", "second"})
	require.NoError(t, err)
	require.Len(t, vectors, 2)
	assert.Equal(t, []float32{1, 0}, vectors[0])
	assert.Equal(t, []float32{0, 1}, vectors[1])

	_, err = NewEmbedder(config.EmbeddingConfig{})
	assert.ErrorIs(t, err, ErrNotConfigured)
}
