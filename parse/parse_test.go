package parse

import (
	"testing"

	"github.com/loomlabs/loom"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHasToolCalls(t *testing.T) {
	t.Run("nil response", func(t *testing.T) {
		assert.False(t, HasToolCalls(nil))
	})

	t.Run("plain string response", func(t *testing.T) {
		assert.False(t, HasToolCalls(&loom.Response{Content: "hello"}))
	})

	t.Run("text blocks only", func(t *testing.T) {
		resp := &loom.Response{Blocks: []loom.Block{
			loom.TextBlock("thinking..."),
			loom.TextBlock("done"),
		}}
		assert.False(t, HasToolCalls(resp))
	})

	t.Run("mixed blocks", func(t *testing.T) {
		resp := &loom.Response{Blocks: []loom.Block{
			loom.TextBlock("I'll list the files."),
			loom.ToolUseBlock("call_1", "list_files", map[string]any{"path": "."}),
		}}
		assert.True(t, HasToolCalls(resp))
	})
}

func TestToolCalls(t *testing.T) {
	t.Run("extracts calls in order", func(t *testing.T) {
		resp := &loom.Response{Blocks: []loom.Block{
			loom.TextBlock("running two tools"),
			loom.ToolUseBlock("call_1", "read_file", map[string]any{"path": "a.txt"}),
			loom.ToolUseBlock("call_2", "read_file", map[string]any{"path": "b.txt"}),
		}}

		calls := ToolCalls(resp)
		require.Len(t, calls, 2)
		assert.Equal(t, "call_1", calls[0].ID)
		assert.Equal(t, "a.txt", calls[0].Input["path"])
		assert.Equal(t, "call_2", calls[1].ID)
		assert.Equal(t, "b.txt", calls[1].Input["path"])
	})

	t.Run("skips blocks missing id or name", func(t *testing.T) {
		resp := &loom.Response{Blocks: []loom.Block{
			{Type: loom.BlockToolUse, Name: "no_id"},
			{Type: loom.BlockToolUse, ID: "call_2"},
			loom.ToolUseBlock("call_3", "valid", nil),
		}}

		calls := ToolCalls(resp)
		require.Len(t, calls, 1)
		assert.Equal(t, "call_3", calls[0].ID)
		assert.Equal(t, "valid", calls[0].Name)
	})

	t.Run("nil input becomes empty map", func(t *testing.T) {
		resp := &loom.Response{Blocks: []loom.Block{
			loom.ToolUseBlock("call_1", "noop", nil),
		}}

		calls := ToolCalls(resp)
		require.Len(t, calls, 1)
		assert.NotNil(t, calls[0].Input)
		assert.Empty(t, calls[0].Input)
	})

	t.Run("no tool blocks", func(t *testing.T) {
		assert.Nil(t, ToolCalls(&loom.Response{Content: "just text"}))
	})
}

func TestText(t *testing.T) {
	t.Run("plain content", func(t *testing.T) {
		assert.Equal(t, "hello", Text(&loom.Response{Content: "hello"}))
	})

	t.Run("joins text blocks with newlines", func(t *testing.T) {
		resp := &loom.Response{Blocks: []loom.Block{
			loom.TextBlock("first"),
			loom.ToolUseBlock("call_1", "tool", nil),
			loom.TextBlock("second"),
		}}
		assert.Equal(t, "first\nsecond", Text(resp))
	})

	t.Run("blocks present but no text", func(t *testing.T) {
		resp := &loom.Response{
			Content: "ignored when blocks exist",
			Blocks: []loom.Block{
				loom.ToolUseBlock("call_1", "tool", nil),
			},
		}
		assert.Equal(t, "", Text(resp))
	})

	t.Run("nil response", func(t *testing.T) {
		assert.Equal(t, "", Text(nil))
	})
}
