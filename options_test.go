package loom

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyOptions(t *testing.T) {
	t.Run("returns empty options when none provided", func(t *testing.T) {
		opts := ApplyOptions()

		require.NotNil(t, opts)
		assert.Empty(t, opts.Model)
		assert.Zero(t, opts.MaxTokens)
		assert.Nil(t, opts.Temperature)
		assert.Nil(t, opts.Tools)
	})

	t.Run("applies multiple options", func(t *testing.T) {
		tools := []Definition{{Name: "read_file"}}
		opts := ApplyOptions(
			WithModel("claude-sonnet-4-5"),
			WithMaxTokens(1000),
			WithTemperature(0.7),
			WithTools(tools),
		)

		assert.Equal(t, "claude-sonnet-4-5", opts.Model)
		assert.Equal(t, 1000, opts.MaxTokens)
		require.NotNil(t, opts.Temperature)
		assert.Equal(t, 0.7, *opts.Temperature)
		assert.Equal(t, tools, opts.Tools)
	})
}

func TestWithTemperature(t *testing.T) {
	opts := ApplyOptions(WithTemperature(0))

	require.NotNil(t, opts.Temperature)
	assert.Equal(t, 0.0, *opts.Temperature)
}
