package agent

import (
	"context"
	"time"

	"github.com/loomlabs/loom"
	"github.com/loomlabs/loom/metrics"
)

// ApprovalMode controls how tool calls are gated before execution.
type ApprovalMode string

const (
	// ApprovalAuto executes every allowed tool call without asking.
	ApprovalAuto ApprovalMode = "auto"
	// ApprovalManual requires an Approver decision for dangerous tools.
	ApprovalManual ApprovalMode = "manual"
	// ApprovalDisabled denies all tool use; no tools are advertised.
	ApprovalDisabled ApprovalMode = "disabled"
)

// Approver decides whether a dangerous tool call may run in manual
// approval mode. It may block on interactive input; the context is the
// run's context.
type Approver interface {
	Approve(ctx context.Context, call loom.ToolCall, def loom.Definition) (bool, error)
}

// ApproverFunc adapts a function to the Approver interface.
type ApproverFunc func(ctx context.Context, call loom.ToolCall, def loom.Definition) (bool, error)

// Approve calls f(ctx, call, def).
func (f ApproverFunc) Approve(ctx context.Context, call loom.ToolCall, def loom.Definition) (bool, error) {
	return f(ctx, call, def)
}

const (
	defaultMaxIterations    = 10
	defaultIterationTimeout = 5 * time.Minute
)

type config struct {
	approvalMode     ApprovalMode
	maxIterations    int
	iterationTimeout time.Duration
	allowedTools     []string
	blockedTools     []string
	enableTools      bool

	approver Approver
	handler  EventHandler
	recorder metrics.Recorder

	model     string
	maxTokens int
}

func defaultConfig() config {
	return config{
		approvalMode:     ApprovalManual,
		maxIterations:    defaultMaxIterations,
		iterationTimeout: defaultIterationTimeout,
		enableTools:      true,
	}
}

// Option configures an Agent.
type Option func(*config)

// WithApprovalMode sets the tool approval mode. Default is ApprovalManual.
func WithApprovalMode(mode ApprovalMode) Option {
	return func(c *config) {
		c.approvalMode = mode
	}
}

// WithMaxIterations sets the iteration budget. Default is 10.
func WithMaxIterations(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.maxIterations = n
		}
	}
}

// WithIterationTimeout bounds each completion request. Default is 5 minutes.
func WithIterationTimeout(d time.Duration) Option {
	return func(c *config) {
		if d > 0 {
			c.iterationTimeout = d
		}
	}
}

// WithAllowedTools restricts tool use to the named tools.
// An empty list allows any tool not explicitly blocked.
func WithAllowedTools(names ...string) Option {
	return func(c *config) {
		c.allowedTools = names
	}
}

// WithBlockedTools denies the named tools regardless of other settings.
func WithBlockedTools(names ...string) Option {
	return func(c *config) {
		c.blockedTools = names
	}
}

// WithToolsEnabled toggles tool use entirely. When disabled, no tool
// definitions are advertised to the provider. Default is enabled.
func WithToolsEnabled(enabled bool) Option {
	return func(c *config) {
		c.enableTools = enabled
	}
}

// WithApprover sets the handler consulted for dangerous tools in
// manual approval mode. Without one, dangerous tool calls are denied.
func WithApprover(approver Approver) Option {
	return func(c *config) {
		c.approver = approver
	}
}

// WithEventHandler sets the observer for lifecycle events.
func WithEventHandler(handler EventHandler) Option {
	return func(c *config) {
		c.handler = handler
	}
}

// WithMetrics sets the recorder that receives one record per tool execution.
func WithMetrics(recorder metrics.Recorder) Option {
	return func(c *config) {
		c.recorder = recorder
	}
}

// WithModel sets the model passed through to the provider.
func WithModel(model string) Option {
	return func(c *config) {
		c.model = model
	}
}

// WithMaxTokens sets the completion token limit passed through to the provider.
func WithMaxTokens(n int) Option {
	return func(c *config) {
		c.maxTokens = n
	}
}
