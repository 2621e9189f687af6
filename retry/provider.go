package retry

import (
	"context"

	"github.com/loomlabs/loom"
)

// Provider wraps a CompletionProvider with retry-on-transient-error
// behavior. Permanent errors pass through unchanged.
type Provider struct {
	inner loom.CompletionProvider
	cfg   Config
}

// Wrap decorates a provider with the given retry configuration.
func Wrap(inner loom.CompletionProvider, cfg Config) *Provider {
	return &Provider{inner: inner, cfg: cfg}
}

// Complete implements loom.CompletionProvider.
func (p *Provider) Complete(ctx context.Context, messages []loom.Message, opts ...loom.Option) (*loom.Response, error) {
	return Do(ctx, p.cfg, func() (*loom.Response, error) {
		return p.inner.Complete(ctx, messages, opts...)
	})
}
