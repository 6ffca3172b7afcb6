package chat

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"portfolio-chat/internal/adapter/memory"
	"portfolio-chat/internal/config"
	"portfolio-chat/internal/domain"
)

const (
	testPrompt   = "You are a friendly portfolio assistant who answers questions about my work, experience, and projects."
	testGreeting = "Hi, I'm your portfolio assistant! How can I help you today?"
)

type fakeClient struct {
	reply    string
	err      error
	requests []CompletionRequest
}

func (f *fakeClient) Complete(_ context.Context, req CompletionRequest) (string, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

func newTestService(client Client) (*Service, *memory.Store) {
	cfg := config.Config{
		Model:           "gpt-3.5-turbo",
		Temperature:     0.6,
		AssistantPrompt: testPrompt,
	}
	store := memory.NewStore(testGreeting)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewService(store, client, cfg, logger), store
}

func TestBuildRequest_Layout(t *testing.T) {
	svc, _ := newTestService(&fakeClient{})

	cases := [][]domain.Turn{
		nil,
		{domain.AssistantTurn(testGreeting)},
		{
			domain.AssistantTurn(testGreeting),
			domain.UserTurn("what do you do?"),
			domain.AssistantTurn("data science"),
		},
	}

	for _, history := range cases {
		req := svc.BuildRequest("next", history)

		require.Len(t, req.Messages, len(history)+2)
		assert.Equal(t, Message{Role: domain.RoleSystem, Text: testPrompt}, req.Messages[0])
		assert.Equal(t, Message{Role: domain.RoleUser, Text: "next"}, req.Messages[len(req.Messages)-1])
		for i, h := range history {
			assert.Equal(t, Message{Role: h.Role, Text: h.Content}, req.Messages[i+1])
		}
		assert.Equal(t, "gpt-3.5-turbo", req.Model)
		assert.InDelta(t, 0.6, req.Temperature, 1e-6)
	}
}

func TestGenerate_TrimsReply(t *testing.T) {
	svc, _ := newTestService(&fakeClient{reply: "  Hi there \n"})

	assert.Equal(t, "Hi there", svc.Generate(context.Background(), "Hello", nil))
}

func TestGenerate_ErrorBecomesText(t *testing.T) {
	client := &fakeClient{err: errors.New("status 401: invalid api key")}
	svc, _ := newTestService(client)

	reply := svc.Generate(context.Background(), "Hello", nil)

	assert.Contains(t, reply, "Error:")
	assert.Contains(t, reply, "invalid api key")
	assert.Len(t, client.requests, 1)
}

func TestHandleMessage_EndToEnd(t *testing.T) {
	client := &fakeClient{reply: "Hi there"}
	svc, _ := newTestService(client)

	reply, err := svc.HandleMessage(context.Background(), "s1", "Hello")
	require.NoError(t, err)
	assert.Equal(t, "Hi there", reply)

	assert.Equal(t, []domain.Turn{
		domain.AssistantTurn(testGreeting),
		domain.UserTurn("Hello"),
		domain.AssistantTurn("Hi there"),
	}, svc.History("s1"))

	require.Len(t, client.requests, 1)
	msgs := client.requests[0].Messages
	require.Len(t, msgs, 3)
	assert.Equal(t, domain.RoleSystem, msgs[0].Role)
	assert.Equal(t, Message{Role: domain.RoleAssistant, Text: testGreeting}, msgs[1])
	assert.Equal(t, Message{Role: domain.RoleUser, Text: "Hello"}, msgs[2])
}

func TestHandleMessage_GrowsByTwo(t *testing.T) {
	svc, _ := newTestService(&fakeClient{reply: "ok"})
	ctx := context.Background()

	before := svc.History("s1")
	for i := 0; i < 3; i++ {
		_, err := svc.HandleMessage(ctx, "s1", "question")
		require.NoError(t, err)

		after := svc.History("s1")
		require.Len(t, after, len(before)+2)
		assert.Equal(t, before, after[:len(before)])
		before = after
	}
}

func TestHandleMessage_FailureStillAppendsAssistantTurn(t *testing.T) {
	svc, _ := newTestService(&fakeClient{err: errors.New("connection refused")})

	reply, err := svc.HandleMessage(context.Background(), "s1", "Hello")
	require.NoError(t, err)
	assert.Contains(t, reply, "Error:")

	history := svc.History("s1")
	require.Len(t, history, 3)
	assert.Equal(t, domain.UserTurn("Hello"), history[1])
	assert.Equal(t, domain.RoleAssistant, history[2].Role)
	assert.Contains(t, history[2].Content, "Error:")
}

func TestHandleMessage_RejectsBlank(t *testing.T) {
	client := &fakeClient{reply: "unused"}
	svc, _ := newTestService(client)

	_, err := svc.HandleMessage(context.Background(), "s1", "   ")
	assert.ErrorIs(t, err, ErrEmptyMessage)
	assert.Len(t, svc.History("s1"), 1)
	assert.Empty(t, client.requests)
}

func TestReset(t *testing.T) {
	svc, _ := newTestService(&fakeClient{reply: "ok"})
	_, err := svc.HandleMessage(context.Background(), "s1", "Hello")
	require.NoError(t, err)

	svc.Reset("s1")

	assert.Equal(t, []domain.Turn{domain.AssistantTurn(testGreeting)}, svc.History("s1"))
}
