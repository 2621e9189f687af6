package tool

import (
	"context"

	"github.com/loomlabs/loom"
)

// Handler is a function that executes a tool call and returns a result.
// The context supports cancellation and timeout.
// The call contains the tool name, ID, and decoded input arguments.
// Handlers may return a populated result with IsError set to report a
// failure the model should see; a non-nil error is reserved for faults
// in the handler itself.
type Handler func(ctx context.Context, call loom.ToolCall) (loom.ToolResult, error)

// TypedHandler is a function that executes a tool call with typed arguments.
// The args parameter is automatically unmarshaled from the tool call's input.
type TypedHandler[T any] func(ctx context.Context, args T) (string, error)
