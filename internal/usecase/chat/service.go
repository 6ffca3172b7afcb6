package chat

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"portfolio-chat/internal/config"
	"portfolio-chat/internal/domain"
)

var ErrEmptyMessage = errors.New("empty message")

type Client interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

type CompletionRequest struct {
	Model       string
	Temperature float32
	Messages    []Message
}

type Message struct {
	Role string
	Text string
}

type Service struct {
	store  domain.ConversationStore
	client Client
	cfg    config.Config
	log    *slog.Logger
}

func NewService(store domain.ConversationStore, client Client, cfg config.Config, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:  store,
		client: client,
		cfg:    cfg,
		log:    logger.With("component", "chat"),
	}
}

// BuildRequest lays out the system instruction, the prior turns in order and
// the new user prompt.
func (s *Service) BuildRequest(prompt string, history []domain.Turn) CompletionRequest {
	messages := make([]Message, 0, len(history)+2)
	messages = append(messages, Message{
		Role: domain.RoleSystem,
		Text: s.cfg.AssistantPrompt,
	})
	for _, h := range history {
		messages = append(messages, Message{
			Role: h.Role,
			Text: h.Content,
		})
	}
	messages = append(messages, Message{
		Role: domain.RoleUser,
		Text: prompt,
	})

	return CompletionRequest{
		Model:       s.cfg.Model,
		Temperature: s.cfg.Temperature,
		Messages:    messages,
	}
}

// Generate makes a single completion attempt. Failures come back as
// assistant-visible text prefixed with "Error:".
func (s *Service) Generate(ctx context.Context, prompt string, history []domain.Turn) string {
	resp, err := s.client.Complete(ctx, s.BuildRequest(prompt, history))
	if err != nil {
		s.log.Error("error generating response", "error", err)
		return "Error: " + err.Error()
	}
	return strings.TrimSpace(resp)
}

func (s *Service) HandleMessage(ctx context.Context, sessionID, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyMessage
	}

	history := s.store.Turns(sessionID)
	s.store.Append(sessionID, domain.UserTurn(text))

	reply := s.Generate(ctx, text, history)
	s.store.Append(sessionID, domain.AssistantTurn(reply))

	s.log.Debug("chat turn completed",
		"session", sessionID,
		"history", len(history),
		"reply_len", len(reply),
	)
	return reply, nil
}

func (s *Service) History(sessionID string) []domain.Turn {
	return s.store.Turns(sessionID)
}

func (s *Service) Reset(sessionID string) {
	s.store.Reset(sessionID)
}
