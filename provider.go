package loom

import "context"

// CompletionProvider defines the interface for completion backends.
//
// Implementations convert the conversation and any advertised tool
// definitions into a provider request, and map the provider's reply onto a
// [Response]. Cross-provider retry and fallback are the provider's concern;
// the agent loop never retries a completion itself.
type CompletionProvider interface {
	// Complete sends a conversation and returns a complete response.
	Complete(ctx context.Context, messages []Message, opts ...Option) (*Response, error)
}
