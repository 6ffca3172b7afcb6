package openai

import (
	"context"
	"errors"

	openaiapi "github.com/sashabaranov/go-openai"

	"portfolio-chat/internal/usecase/chat"
)

var (
	ErrNoAPIKey      = errors.New("openai api key is not configured")
	ErrEmptyResponse = errors.New("openai returned empty response")
)

type Client struct {
	api   *openaiapi.Client
	token string
}

// NewClient builds a chat completion client. baseURL may be empty to use the
// public OpenAI endpoint.
func NewClient(token, baseURL string) *Client {
	apiCfg := openaiapi.DefaultConfig(token)
	if baseURL != "" {
		apiCfg.BaseURL = baseURL
	}
	return &Client{
		api:   openaiapi.NewClientWithConfig(apiCfg),
		token: token,
	}
}

func (c *Client) Complete(ctx context.Context, req chat.CompletionRequest) (string, error) {
	if c.token == "" {
		return "", ErrNoAPIKey
	}

	apiReq := openaiapi.ChatCompletionRequest{
		Model:       req.Model,
		Temperature: req.Temperature,
		Stream:      false,
		Messages:    toAPIMessages(req.Messages),
	}

	resp, err := c.api.CreateChatCompletion(ctx, apiReq)
	if err != nil {
		return "", err
	}

	if len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}

	return resp.Choices[0].Message.Content, nil
}

func toAPIMessages(msgs []chat.Message) []openaiapi.ChatCompletionMessage {
	res := make([]openaiapi.ChatCompletionMessage, 0, len(msgs))
	for _, m := range msgs {
		res = append(res, openaiapi.ChatCompletionMessage{
			Role:    m.Role,
			Content: m.Text,
		})
	}
	return res
}
