package completion

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-go-golems/socra/pkg/conversation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedRequest struct {
	Model    string `json:"model"`
	Stream   bool   `json:"stream"`
	Messages []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
		Name    string `json:"name"`
	} `json:"messages"`
}

func newTestCompleter(t *testing.T, handler http.HandlerFunc) *OpenAICompleter {
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	s := NewSettings()
	s.APIKey = "test-key"
	s.BaseURL = server.URL + "/v1"
	s.HTTPClient = server.Client()

	c, err := NewOpenAICompleter(s)
	require.NoError(t, err)
	return c
}

func testPrompt(t *testing.T) *conversation.Prompt {
	p, err := conversation.NewPrompt(
		conversation.NewMessage(conversation.RoleSystem, "you are a router"),
		conversation.NewMessage(conversation.RoleHuman, "create a file", conversation.WithName("alice")),
	)
	require.NoError(t, err)
	return p
}

func TestOpenAICompleterComplete(t *testing.T) {
	var got recordedRequest
	c := newTestCompleter(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = fmt.Fprint(w, `{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"created": 1,
			"model": "gpt-4o-mini-2024-07-18",
			"choices": [{"index": 0, "message": {"role": "assistant", "content": "hello"}, "finish_reason": "stop"}],
			"usage": {"prompt_tokens": 10, "completion_tokens": 5, "total_tokens": 15}
		}`)
	})

	resp, err := c.Complete(context.Background(), testPrompt(t))
	require.NoError(t, err)

	assert.Equal(t, "hello", resp.Content)
	assert.Equal(t, Usage{Input: 10, Output: 5, Total: 15}, resp.Usage)
	assert.InDelta(t, 1.5e-6, resp.Cost.Input, 1e-12)
	assert.InDelta(t, 3e-6, resp.Cost.Output, 1e-12)
	assert.InDelta(t, 4.5e-6, resp.Cost.Total, 1e-12)

	assert.Equal(t, DefaultModelKey, got.Model)
	assert.False(t, got.Stream)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Equal(t, "user", got.Messages[1].Role)
	assert.Equal(t, "alice", got.Messages[1].Name)
	assert.Equal(t, "create a file", got.Messages[1].Content)
}

func TestOpenAICompleterStream(t *testing.T) {
	c := newTestCompleter(t, func(w http.ResponseWriter, r *http.Request) {
		var req recordedRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.True(t, req.Stream)

		w.Header().Set("Content-Type", "text/event-stream")
		chunks := []string{
			`{"id":"c","object":"chat.completion.chunk","created":1,"model":"gpt-4o-mini-2024-07-18","choices":[{"index":0,"delta":{"role":"assistant","content":"Hel"}}]}`,
			`{"id":"c","object":"chat.completion.chunk","created":1,"model":"gpt-4o-mini-2024-07-18","choices":[{"index":0,"delta":{"content":"lo"}}]}`,
			`{"id":"c","object":"chat.completion.chunk","created":1,"model":"gpt-4o-mini-2024-07-18","choices":[],"usage":{"prompt_tokens":4,"completion_tokens":2,"total_tokens":6}}`,
		}
		for _, chunk := range chunks {
			_, _ = fmt.Fprintf(w, "data: %s\n\n", chunk)
		}
		_, _ = fmt.Fprint(w, "data: [DONE]\n\n")
	})

	var payloads []ChunkPayload
	resp, err := c.Complete(context.Background(), testPrompt(t), WithOnChunk(func(p ChunkPayload) {
		payloads = append(payloads, p)
	}))
	require.NoError(t, err)

	assert.Equal(t, "Hello", resp.Content)
	assert.Equal(t, Usage{Input: 4, Output: 2, Total: 6}, resp.Usage)
	require.Len(t, payloads, 2)
	assert.Equal(t, "Hel", payloads[0].Chunk)
	assert.Equal(t, "Hello", payloads[1].Aggregate)
}

func TestOpenAICompleterPropagatesErrors(t *testing.T) {
	c := newTestCompleter(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = fmt.Fprint(w, `{"error":{"message":"boom","type":"server_error"}}`)
	})

	_, err := c.Complete(context.Background(), testPrompt(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
}

func TestNewOpenAICompleterRequiresKey(t *testing.T) {
	_, err := NewOpenAICompleter(NewSettings())
	require.ErrorIs(t, err, ErrMissingAPIKey)
}

func TestSettingsClone(t *testing.T) {
	temp := 0.2
	s := NewSettings()
	s.Temperature = &temp

	c := s.Clone()
	*c.Temperature = 0.9
	c.Engine = "gpt-4o"

	assert.Equal(t, 0.2, *s.Temperature)
	assert.Equal(t, DefaultModelKey, s.Engine)
}
