// Package anthropic provides an Anthropic Claude client implementing
// [loom.CompletionProvider].
//
// Basic usage:
//
//	client := anthropic.New(os.Getenv("ANTHROPIC_API_KEY"))
//
//	resp, err := client.Complete(ctx, []loom.Message{
//	    {Role: loom.RoleUser, Content: "Explain quantum computing briefly."},
//	})
//
// Tool-use responses come back as a block sequence; inspect them
// through the parse package rather than directly.
package anthropic

import (
	"context"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/loomlabs/loom"
)

// Client wraps the Anthropic SDK to implement loom.CompletionProvider.
type Client struct {
	client  *anthropic.Client
	model   Model
	baseURL string
}

// ClientOption configures the Anthropic client.
type ClientOption func(*Client)

// WithModel sets the default model for requests.
func WithModel(model Model) ClientOption {
	return func(c *Client) {
		c.model = model
	}
}

// WithBaseURL overrides the API endpoint.
func WithBaseURL(url string) ClientOption {
	return func(c *Client) {
		c.baseURL = url
	}
}

// New creates a new Anthropic client with the given API key.
func New(apiKey string, opts ...ClientOption) *Client {
	c := &Client{model: DefaultModel}
	for _, opt := range opts {
		opt(c)
	}

	reqOpts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if c.baseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(c.baseURL))
	}
	client := anthropic.NewClient(reqOpts...)
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

	maxTokens := int64(4096)
	if options.MaxTokens > 0 {
		maxTokens = int64(options.MaxTokens)
	}

	msgs, system := convertMessages(messages)
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(model.String()),
		MaxTokens: maxTokens,
		Messages:  msgs,
	}
	if len(system) > 0 {
		params.System = system
	}
	if options.Temperature != nil {
		params.Temperature = anthropic.Float(*options.Temperature)
	}
	if len(options.Tools) > 0 {
		params.Tools = convertTools(options.Tools)
	}

	resp, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return nil, wrapError(err)
	}

	return convertResponse(resp), nil
}
