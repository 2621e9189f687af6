package schema

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func unmarshal(t *testing.T, raw json.RawMessage) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(raw, &m))
	return m
}

func TestObject_Build(t *testing.T) {
	raw, err := Object().
		Field("location", String().Desc("City name").Required()).
		Field("unit", String().Enum("celsius", "fahrenheit")).
		Field("days", Int().Min(1).Max(14).Default(7)).
		Build()
	require.NoError(t, err)

	m := unmarshal(t, raw)
	assert.Equal(t, "object", m["type"])

	props := m["properties"].(map[string]any)
	assert.Contains(t, props, "location")
	assert.Contains(t, props, "unit")
	assert.Contains(t, props, "days")

	location := props["location"].(map[string]any)
	assert.Equal(t, "string", location["type"])
	assert.Equal(t, "City name", location["description"])

	required := m["required"].([]any)
	assert.Equal(t, []any{"location"}, required)
}

func TestObject_NestedObject(t *testing.T) {
	raw, err := Object().
		Field("user", Object().
			Field("name", String().Required()).
			Required()).
		Field("tags", Array(String())).
		Build()
	require.NoError(t, err)

	m := unmarshal(t, raw)
	props := m["properties"].(map[string]any)
	user := props["user"].(map[string]any)
	assert.Equal(t, "object", user["type"])
	assert.Equal(t, []any{"name"}, user["required"])

	tags := props["tags"].(map[string]any)
	assert.Equal(t, "array", tags["type"])
	assert.Equal(t, "string", tags["items"].(map[string]any)["type"])
}

func TestValidation(t *testing.T) {
	t.Run("min exceeds max", func(t *testing.T) {
		_, err := Int().Min(10).Max(5).Build()
		assert.ErrorIs(t, err, ErrInvalidRange)
	})

	t.Run("invalid pattern", func(t *testing.T) {
		_, err := String().Pattern("[unclosed").Build()
		assert.ErrorIs(t, err, ErrInvalidPattern)
	})

	t.Run("array without items", func(t *testing.T) {
		_, err := Array(nil).Build()
		assert.ErrorIs(t, err, ErrNilItems)
	})

	t.Run("invalid field inside object", func(t *testing.T) {
		_, err := Object().Field("count", Int().Min(2).Max(1)).Build()
		assert.ErrorIs(t, err, ErrInvalidRange)
	})
}

func TestMustBuild_Panics(t *testing.T) {
	assert.Panics(t, func() {
		Int().Min(10).Max(5).MustBuild()
	})
}

func TestFor(t *testing.T) {
	type NestedArgs struct {
		Depth int `json:"depth"`
	}
	type Args struct {
		Query   string     `json:"query" desc:"Search query" required:"true"`
		Limit   int        `json:"limit" desc:"Max results"`
		Exact   bool       `json:"exact"`
		Scores  []float64  `json:"scores"`
		Nested  NestedArgs `json:"nested"`
		Mode    string     `json:"mode" enum:"fast,thorough"`
		skipped string
	}
	_ = Args{skipped: ""}

	raw, err := For[Args]()
	require.NoError(t, err)

	m := unmarshal(t, raw)
	assert.Equal(t, "object", m["type"])

	props := m["properties"].(map[string]any)
	assert.Equal(t, "string", props["query"].(map[string]any)["type"])
	assert.Equal(t, "Search query", props["query"].(map[string]any)["description"])
	assert.Equal(t, "integer", props["limit"].(map[string]any)["type"])
	assert.Equal(t, "boolean", props["exact"].(map[string]any)["type"])
	assert.Equal(t, "array", props["scores"].(map[string]any)["type"])
	assert.Equal(t, "object", props["nested"].(map[string]any)["type"])
	assert.Equal(t, []any{"fast", "thorough"}, props["mode"].(map[string]any)["enum"])
	assert.NotContains(t, props, "skipped")

	assert.Equal(t, []any{"query"}, m["required"])
}

func TestFor_NonStruct(t *testing.T) {
	_, err := For[int]()
	assert.Error(t, err)
}
