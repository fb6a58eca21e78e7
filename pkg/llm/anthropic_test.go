package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnthropicClient_RequiresAPIKey(t *testing.T) {
	t.Parallel()

	_, err := NewAnthropicClient("")
	require.Error(t, err)
}

func TestAnthropicClient_Complete(t *testing.T) {
	t.Parallel()

	var captured anthropicRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("X-Api-Key"))
		assert.Equal(t, anthropicAPIVersion, r.Header.Get("Anthropic-Version"))

		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"model": "claude-3-5-haiku-latest",
			"content": [{"type": "text", "text": "The node's URL field points at a decommissioned host."}],
			"usage": {"input_tokens": 120, "output_tokens": 48}
		}`))
	}))
	defer server.Close()

	client, err := NewAnthropicClient("test-key", WithBaseURL(server.URL))
	require.NoError(t, err)

	resp, err := client.Complete(context.Background(), Request{
		System:    "You diagnose workflow failures.",
		Prompt:    "Why did this fail?",
		MaxTokens: 300,
	})
	require.NoError(t, err)

	assert.Equal(t, "The node's URL field points at a decommissioned host.", resp.Content)
	assert.Equal(t, 120, resp.Usage.InputTokens)
	assert.Equal(t, 48, resp.Usage.OutputTokens)

	assert.Equal(t, anthropicDefaultModel, captured.Model)
	assert.Equal(t, 300, captured.MaxTokens)
	assert.Equal(t, "You diagnose workflow failures.", captured.System)
	require.Len(t, captured.Messages, 1)
	assert.Equal(t, "user", captured.Messages[0].Role)
}

func TestAnthropicClient_JoinsTextBlocks(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{
			"content": [
				{"type": "text", "text": "first"},
				{"type": "thinking", "text": "ignored"},
				{"type": "text", "text": "second"}
			],
			"usage": {"input_tokens": 1, "output_tokens": 1}
		}`))
	}))
	defer server.Close()

	client, err := NewAnthropicClient("test-key", WithBaseURL(server.URL))
	require.NoError(t, err)

	resp, err := client.Complete(context.Background(), Request{Prompt: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "first\nsecond", resp.Content)
}

func TestAnthropicClient_SurfacesAPIErrors(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error": {"type": "rate_limit_error", "message": "slow down"}}`))
	}))
	defer server.Close()

	client, err := NewAnthropicClient("test-key", WithBaseURL(server.URL))
	require.NoError(t, err)

	_, err = client.Complete(context.Background(), Request{Prompt: "hi"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
	assert.Contains(t, err.Error(), "rate_limit_error")
	assert.Contains(t, err.Error(), "slow down")
}

func TestEstimateCost(t *testing.T) {
	t.Parallel()

	usage := Usage{InputTokens: 1_000_000, OutputTokens: 500_000}

	cost := EstimateCost("claude-3-5-haiku-latest", usage)
	assert.InDelta(t, 0.80+2.00, cost, 1e-9)

	// Unknown models use the default price rather than pricing at zero.
	fallback := EstimateCost("some-unknown-model", usage)
	assert.InDelta(t, 3.00+7.50, fallback, 1e-9)

	assert.Zero(t, EstimateCost("claude-3-5-haiku-latest", Usage{}))
}
