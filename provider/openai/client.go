// Package openai provides an OpenAI client implementing
// [loom.CompletionProvider] over the Chat Completions API.
package openai

import (
	"context"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/loomlabs/loom"
)

// Client wraps the OpenAI SDK to implement loom.CompletionProvider.
type Client struct {
	client  *openai.Client
	model   Model
	baseURL string
}

// ClientOption configures the OpenAI client.
type ClientOption func(*Client)

// WithModel sets the default model for requests.
func WithModel(model Model) ClientOption {
	return func(c *Client) {
		c.model = model
	}
}

// WithBaseURL overrides the API endpoint. Useful for compatible
// gateways and local inference servers.
func WithBaseURL(url string) ClientOption {
	return func(c *Client) {
		c.baseURL = url
	}
}

// New creates a new OpenAI client with the given API key.
func New(apiKey string, opts ...ClientOption) *Client {
	c := &Client{model: DefaultModel}
	for _, opt := range opts {
		opt(c)
	}

	reqOpts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if c.baseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(c.baseURL))
	}
	client := openai.NewClient(reqOpts...)
	c.client = &client
	return c
}

// Complete sends a conversation and returns the model's response.
func (c *Client) Complete(ctx context.Context, messages []loom.Message, opts ...loom.Option) (*loom.Response, error) {
	options := loom.ApplyOptions(opts...)

	model := c.model
	if options.Model != "" {
		model = Model(options.Model)
	}

	params := openai.ChatCompletionNewParams{
		Model:    model.String(),
		Messages: convertMessages(messages),
	}
	if options.MaxTokens > 0 {
		params.MaxCompletionTokens = openai.Int(int64(options.MaxTokens))
	}
	if options.Temperature != nil {
		params.Temperature = openai.Float(*options.Temperature)
	}
	if len(options.Tools) > 0 {
		params.Tools = convertTools(options.Tools)
	}

	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, wrapError(err)
	}

	return convertResponse(resp), nil
}
