// Package parse extracts tool calls and text from completion responses.
//
// It is the only place that inspects a response's content shape. Providers
// return either a plain string or an ordered sequence of content blocks;
// downstream code (the agent loop in particular) goes through this package
// and never looks at the union directly.
package parse

import (
	"strings"

	"github.com/loomlabs/loom"
)

// HasToolCalls reports whether the response contains at least one tool
// invocation block.
func HasToolCalls(resp *loom.Response) bool {
	if resp == nil {
		return false
	}
	for _, b := range resp.Blocks {
		if b.Type == loom.BlockToolUse {
			return true
		}
	}
	return false
}

// ToolCalls returns the tool calls requested by the response, in block
// order. Tool-use blocks missing an ID or a name are skipped rather than
// reported as errors; a malformed block should not abort the run.
func ToolCalls(resp *loom.Response) []loom.ToolCall {
	if resp == nil {
		return nil
	}

	var calls []loom.ToolCall
	for _, b := range resp.Blocks {
		if b.Type != loom.BlockToolUse {
			continue
		}
		if b.ID == "" || b.Name == "" {
			continue
		}
		input := b.Input
		if input == nil {
			input = map[string]any{}
		}
		calls = append(calls, loom.ToolCall{
			ID:    b.ID,
			Name:  b.Name,
			Input: input,
		})
	}
	return calls
}

// Text returns the textual content of the response: all text blocks joined
// by newlines, or the plain Content string when the response has no blocks.
// Returns the empty string when neither exists.
func Text(resp *loom.Response) string {
	if resp == nil {
		return ""
	}
	if len(resp.Blocks) == 0 {
		return resp.Content
	}

	var parts []string
	for _, b := range resp.Blocks {
		if b.Type == loom.BlockText && b.Text != "" {
			parts = append(parts, b.Text)
		}
	}
	return strings.Join(parts, "\n")
}
