package loom

import "encoding/json"

// Definition describes a tool that can be called by the model.
type Definition struct {
	// Name is the unique identifier for the tool.
	Name string `json:"name"`
	// Description explains what the tool does (helps the model decide when to use it).
	Description string `json:"description"`
	// Parameters is a JSON Schema object defining the tool's input parameters.
	Parameters json.RawMessage `json:"parameters,omitempty"`
	// Dangerous marks tools that modify state (write, execute, network).
	// Dangerous tools require approval under manual approval mode; safe
	// tools run automatically.
	Dangerous bool `json:"dangerous,omitempty"`
}

// ToolCall represents a request from the model to invoke a tool.
type ToolCall struct {
	// ID is a unique identifier for this tool call (used to match results).
	ID string `json:"id"`
	// Name is the name of the tool to invoke.
	Name string `json:"name"`
	// Input contains the arguments to pass to the tool.
	Input map[string]any `json:"input,omitempty"`
}

// ToolResult represents the result of executing a tool call.
type ToolResult struct {
	// ToolCallID matches the ID from the corresponding ToolCall.
	ToolCallID string `json:"toolCallId"`
	// Output is the result content to return to the model.
	Output string `json:"output"`
	// Error holds the error message when IsError is true.
	Error string `json:"error,omitempty"`
	// IsError indicates if the result represents a failure.
	IsError bool `json:"isError,omitempty"`
	// ExitCode reports a process exit status for command-running tools.
	// Nil when not applicable.
	ExitCode *int `json:"exitCode,omitempty"`
}

// NewErrorResult creates a ToolResult describing a failed call.
func NewErrorResult(callID, message string) ToolResult {
	return ToolResult{
		ToolCallID: callID,
		Error:      message,
		IsError:    true,
	}
}
