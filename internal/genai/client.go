// Package genai wraps the generative-AI provider behind the fallback
// gateway: per-session conversational contexts, a calendar-day quota, an
// optional per-session cooldown, and a bounded retry/backoff policy. A raw
// provider error never reaches the caller; every failure path degrades to
// the same neutral templated reply.
package genai

import (
	"context"
	"errors"

	openai "github.com/sashabaranov/go-openai"
)

// Message is one exchange item inside a conversational context.
type Message struct {
	Role    string // "system", "user" or "assistant"
	Content string
}

// Client is the minimal provider contract the gateway depends on.
type Client interface {
	// Reply sends the conversation and returns the model's text reply.
	Reply(ctx context.Context, msgs []Message) (string, error)
}

// OpenAIClient implements Client over the OpenAI chat-completions API.
type OpenAIClient struct {
	client *openai.Client
	model  string
}

// NewOpenAIClient builds a client for the given API key and model. An empty
// model falls back to GPT-4o mini.
func NewOpenAIClient(apiKey, model string) *OpenAIClient {
	if model == "" {
		model = openai.GPT4oMini
	}
	return &OpenAIClient{client: openai.NewClient(apiKey), model: model}
}

// Reply implements Client.
func (c *OpenAIClient) Reply(ctx context.Context, msgs []Message) (string, error) {
	req := openai.ChatCompletionRequest{Model: c.model}
	for _, m := range msgs {
		req.Messages = append(req.Messages, openai.ChatCompletionMessage{Role: m.Role, Content: m.Content})
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Message.Content, nil
}

// IsTransient classifies a provider failure. Rate limits, overload, and
// temporary unavailability are retried; everything else is permanent.
func IsTransient(err error) bool {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.HTTPStatusCode {
		case 429, 500, 502, 503:
			return true
		}
		return false
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		// Transport-level failures (timeouts, resets) are worth a retry.
		return true
	}
	return false
}

// ErrDisabled is returned by the disabled client when no provider is
// configured.
var ErrDisabled = errors.New("genai: provider not configured")

// disabledClient is used when no API key is configured; every call fails
// permanently so the gateway serves the neutral reply.
type disabledClient struct{}

// NewDisabledClient returns a Client that always fails with ErrDisabled.
func NewDisabledClient() Client { return disabledClient{} }

// Reply implements Client.
func (disabledClient) Reply(context.Context, []Message) (string, error) {
	return "", ErrDisabled
}
