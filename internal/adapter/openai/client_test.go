package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	openaiapi "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"portfolio-chat/internal/usecase/chat"
)

func newTestServer(t *testing.T, handler func(w http.ResponseWriter, req openaiapi.ChatCompletionRequest)) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req openaiapi.ChatCompletionRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		w.Header().Set("Content-Type", "application/json")
		handler(w, req)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestComplete_SendsMessagesAndReturnsFirstChoice(t *testing.T) {
	var got openaiapi.ChatCompletionRequest
	srv := newTestServer(t, func(w http.ResponseWriter, req openaiapi.ChatCompletionRequest) {
		got = req
		_, _ = w.Write([]byte(`{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"model": "gpt-3.5-turbo",
			"choices": [
				{"index": 0, "message": {"role": "assistant", "content": " Hi there "}, "finish_reason": "stop"},
				{"index": 1, "message": {"role": "assistant", "content": "ignored"}, "finish_reason": "stop"}
			]
		}`))
	})

	client := NewClient("test-key", srv.URL+"/v1")
	resp, err := client.Complete(context.Background(), chat.CompletionRequest{
		Model:       "gpt-3.5-turbo",
		Temperature: 0.6,
		Messages: []chat.Message{
			{Role: "system", Text: "be nice"},
			{Role: "user", Text: "Hello"},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, " Hi there ", resp)
	assert.Equal(t, "gpt-3.5-turbo", got.Model)
	assert.InDelta(t, 0.6, got.Temperature, 1e-6)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Equal(t, "be nice", got.Messages[0].Content)
	assert.Equal(t, "user", got.Messages[1].Role)
	assert.Equal(t, "Hello", got.Messages[1].Content)
}

func TestComplete_EmptyChoices(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, _ openaiapi.ChatCompletionRequest) {
		_, _ = w.Write([]byte(`{"id": "chatcmpl-2", "object": "chat.completion", "choices": []}`))
	})

	_, err := NewClient("test-key", srv.URL+"/v1").Complete(context.Background(), chat.CompletionRequest{Model: "m"})
	assert.ErrorIs(t, err, ErrEmptyResponse)
}

func TestComplete_APIError(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, _ openaiapi.ChatCompletionRequest) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error": {"message": "Incorrect API key provided", "type": "invalid_request_error", "code": "invalid_api_key"}}`))
	})

	_, err := NewClient("test-key", srv.URL+"/v1").Complete(context.Background(), chat.CompletionRequest{Model: "m"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Incorrect API key provided")
}

func TestComplete_NoAPIKey(t *testing.T) {
	_, err := NewClient("", "http://127.0.0.1:0/v1").Complete(context.Background(), chat.CompletionRequest{Model: "m"})
	assert.ErrorIs(t, err, ErrNoAPIKey)
}
