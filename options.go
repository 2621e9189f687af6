package loom

// Options contains configuration for a completion request.
type Options struct {
	Model       string
	MaxTokens   int
	Temperature *float64
	// Tools holds the tool definitions advertised to the model for this
	// request. Empty means the model may not call tools.
	Tools []Definition
}

// Option is a functional option for configuring completion requests.
type Option func(*Options)

// WithModel sets the model to use for the request.
func WithModel(model string) Option {
	return func(o *Options) {
		o.Model = model
	}
}

// WithMaxTokens sets the maximum number of tokens to generate.
func WithMaxTokens(n int) Option {
	return func(o *Options) {
		o.MaxTokens = n
	}
}

// WithTemperature sets the sampling temperature (0.0 to 2.0).
func WithTemperature(t float64) Option {
	return func(o *Options) {
		o.Temperature = &t
	}
}

// WithTools sets the tool definitions advertised to the model.
func WithTools(tools []Definition) Option {
	return func(o *Options) {
		o.Tools = tools
	}
}

// ApplyOptions applies functional options to an Options struct.
func ApplyOptions(opts ...Option) *Options {
	o := &Options{}
	for _, opt := range opts {
		opt(o)
	}
	return o
}
