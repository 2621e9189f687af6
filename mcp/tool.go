// Package mcp provides MCP (Model Context Protocol) integration.
//
// MCP is a protocol that enables AI assistants to access external
// tools and data. This package provides bidirectional integration:
//
//   - Client: connect to MCP servers through [Remote] and register
//     their tools into a local [tool.Registry], so the agent loop can
//     call them like any other tool.
//   - Server: expose a [tool.Registry] as an MCP server over stdio,
//     allowing MCP clients to discover and use your tools.
//
// MCP has no notion of dangerous tools; whether a server's tools need
// manual approval is decided at connection time with [WithDangerous].
package mcp

import (
	"encoding/json"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/loomlabs/loom"
)

// ToMCPTool converts a tool definition to an MCP Tool.
// The definition's JSON schema becomes the MCP tool's raw input schema.
func ToMCPTool(def loom.Definition) mcp.Tool {
	return mcp.NewToolWithRawSchema(def.Name, def.Description, def.Parameters)
}

// FromMCPTool converts an MCP Tool to a tool definition.
// It extracts the JSON schema from either RawInputSchema or InputSchema.
func FromMCPTool(t mcp.Tool, dangerous bool) loom.Definition {
	var schema json.RawMessage

	if len(t.RawInputSchema) > 0 {
		schema = t.RawInputSchema
	} else {
		data, err := json.Marshal(t.InputSchema)
		if err == nil {
			schema = data
		}
	}

	return loom.Definition{
		Name:        t.Name,
		Description: t.Description,
		Parameters:  schema,
		Dangerous:   dangerous,
	}
}

// ToCallToolRequest converts a tool call to an MCP CallToolRequest.
func ToCallToolRequest(call loom.ToolCall) mcp.CallToolRequest {
	var args any
	if len(call.Input) > 0 {
		args = call.Input
	}

	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      call.Name,
			Arguments: args,
		},
	}
}

// FromCallToolResult converts an MCP CallToolResult to a tool result.
// The result content is extracted and concatenated as text.
func FromCallToolResult(callID string, result *mcp.CallToolResult) loom.ToolResult {
	if result == nil {
		return loom.NewErrorResult(callID, "empty result from MCP server")
	}

	var textParts []string
	for _, c := range result.Content {
		switch content := c.(type) {
		case mcp.TextContent:
			textParts = append(textParts, content.Text)
		case *mcp.TextContent:
			textParts = append(textParts, content.Text)
		default:
			// Non-text content is carried through as JSON
			if data, err := json.Marshal(content); err == nil {
				textParts = append(textParts, string(data))
			}
		}
	}

	if result.StructuredContent != nil {
		if data, err := json.Marshal(result.StructuredContent); err == nil {
			textParts = append(textParts, string(data))
		}
	}

	text := strings.Join(textParts, "\n")
	if result.IsError {
		return loom.NewErrorResult(callID, text)
	}
	return loom.ToolResult{
		ToolCallID: callID,
		Output:     text,
	}
}

// ToCallToolResult converts a tool result to an MCP CallToolResult.
func ToCallToolResult(result loom.ToolResult) *mcp.CallToolResult {
	if result.IsError {
		msg := result.Error
		if msg == "" {
			msg = result.Output
		}
		return mcp.NewToolResultError(msg)
	}
	return mcp.NewToolResultText(result.Output)
}
