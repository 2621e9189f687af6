package loom

import "github.com/google/uuid"

// Role represents the role of a message sender in a conversation.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
	RoleTool      Role = "tool"
)

// Message represents a single message in a conversation.
type Message struct {
	// ID is an optional unique identifier for the message.
	ID      string `json:"id,omitempty"`
	Role    Role   `json:"role"`
	Content string `json:"content,omitempty"`
	// ToolCalls contains tool invocation requests from an assistant message.
	// Only populated when Role is RoleAssistant and the model wants to use tools.
	ToolCalls []ToolCall `json:"toolCalls,omitempty"`
	// ToolResults contains results from tool executions.
	// Only populated when Role is RoleTool.
	ToolResults []ToolResult `json:"toolResults,omitempty"`
}

// GenerateMessageID creates a unique message identifier.
func GenerateMessageID() string {
	return "msg-" + uuid.New().String()
}

// NewToolResultMessage creates a message carrying a single tool result.
// The agent loop appends one of these per executed call, so each result
// becomes its own turn in the conversation.
func NewToolResultMessage(result ToolResult) Message {
	return Message{
		Role:        RoleTool,
		ToolResults: []ToolResult{result},
	}
}

// BlockType identifies the kind of content block in a model response.
type BlockType string

const (
	// BlockText is a plain text block.
	BlockText BlockType = "text"
	// BlockToolUse is a tool invocation request.
	BlockToolUse BlockType = "tool_use"
)

// Block is one element of a model response's content. It is a tagged union:
// text blocks populate Text, tool_use blocks populate ID, Name and Input.
type Block struct {
	Type  BlockType      `json:"type"`
	Text  string         `json:"text,omitempty"`
	ID    string         `json:"id,omitempty"`
	Name  string         `json:"name,omitempty"`
	Input map[string]any `json:"input,omitempty"`
}

// TextBlock creates a text content block.
func TextBlock(text string) Block {
	return Block{Type: BlockText, Text: text}
}

// ToolUseBlock creates a tool invocation block.
func ToolUseBlock(id, name string, input map[string]any) Block {
	return Block{Type: BlockToolUse, ID: id, Name: name, Input: input}
}

// Response represents a complete response from a completion provider.
//
// Providers that return structured content populate Blocks; providers that
// return only a string populate Content. The parse package handles both
// shapes, so callers never need to distinguish them.
type Response struct {
	// Content holds the response text when the provider returns a plain
	// string. Ignored when Blocks is non-empty.
	Content string `json:"content,omitempty"`
	// Blocks holds the ordered content blocks of a structured response.
	Blocks       []Block `json:"blocks,omitempty"`
	FinishReason string  `json:"finishReason,omitempty"`
	Usage        Usage   `json:"usage"`
}

// Usage contains token usage information for a request.
type Usage struct {
	InputTokens  int `json:"inputTokens"`
	OutputTokens int `json:"outputTokens"`
}
