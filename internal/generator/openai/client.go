// Package openai implements the generation client against the OpenAI chat
// completions API.
package openai

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"
)

const (
	defaultModel   = "gpt-4o"
	defaultTimeout = 60 * time.Second

	maxOutputTokens = 12000
	temperature     = 0.1
)

// ErrAPIKeyNotSet indicates the client was constructed without a key.
var ErrAPIKeyNotSet = errors.New("openai api key not set")

// Client calls the chat completions endpoint with generation-tuned
// parameters.
type Client struct {
	client  openai.Client
	model   string
	timeout time.Duration
}

// NewClient builds a Client for the given key and model. An empty model
// selects the default.
func NewClient(apiKey, model string, timeout time.Duration) (*Client, error) {
	if apiKey == "" {
		return nil, ErrAPIKeyNotSet
	}
	if model == "" {
		model = defaultModel
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		client:  openai.NewClient(option.WithAPIKey(apiKey)),
		model:   model,
		timeout: timeout,
	}, nil
}

// Complete sends the system and user prompts and returns the first choice's
// content.
func (c *Client) Complete(ctx context.Context, system, user string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	completion, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: shared.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(user),
		},
		MaxTokens:   openai.Int(maxOutputTokens),
		Temperature: openai.Float(temperature),
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(completion.Choices) == 0 {
		return "", errors.New("no completion choices returned")
	}
	return completion.Choices[0].Message.Content, nil
}
