package schema

import "encoding/json"

// String creates a new string schema builder.
func String() *StringBuilder {
	return &StringBuilder{node: &node{Type: "string"}}
}

// StringBuilder constructs string type schemas.
type StringBuilder struct {
	node *node
}

// Desc sets the description for this field.
func (b *StringBuilder) Desc(description string) *StringBuilder {
	b.node.Description = description
	return b
}

// Enum restricts the value to one of the provided options.
func (b *StringBuilder) Enum(values ...string) *StringBuilder {
	b.node.Enum = make([]any, len(values))
	for i, v := range values {
		b.node.Enum[i] = v
	}
	return b
}

// Pattern sets a regex pattern the string must match.
func (b *StringBuilder) Pattern(regex string) *StringBuilder {
	b.node.Pattern = regex
	return b
}

// Default sets the default value.
func (b *StringBuilder) Default(value string) *StringBuilder {
	b.node.Default = value
	return b
}

// Required marks this field as required when used in an object.
func (b *StringBuilder) Required() *RequiredField {
	return &RequiredField{builder: b}
}

// Build serializes the schema to json.RawMessage.
func (b *StringBuilder) Build() (json.RawMessage, error) { return build(b.node) }

// MustBuild is like Build but panics on error.
func (b *StringBuilder) MustBuild() json.RawMessage { return mustBuild(b.node) }

func (b *StringBuilder) schema() *node { return b.node }

// Int creates a new integer schema builder.
func Int() *IntBuilder {
	return &IntBuilder{node: &node{Type: "integer"}}
}

// IntBuilder constructs integer type schemas.
type IntBuilder struct {
	node *node
}

// Desc sets the description for this field.
func (b *IntBuilder) Desc(description string) *IntBuilder {
	b.node.Description = description
	return b
}

// Min sets the minimum value.
func (b *IntBuilder) Min(n int) *IntBuilder {
	b.node.Minimum = ptr(float64(n))
	return b
}

// Max sets the maximum value.
func (b *IntBuilder) Max(n int) *IntBuilder {
	b.node.Maximum = ptr(float64(n))
	return b
}

// Default sets the default value.
func (b *IntBuilder) Default(n int) *IntBuilder {
	b.node.Default = n
	return b
}

// Required marks this field as required when used in an object.
func (b *IntBuilder) Required() *RequiredField {
	return &RequiredField{builder: b}
}

// Build serializes the schema to json.RawMessage.
func (b *IntBuilder) Build() (json.RawMessage, error) { return build(b.node) }

// MustBuild is like Build but panics on error.
func (b *IntBuilder) MustBuild() json.RawMessage { return mustBuild(b.node) }

func (b *IntBuilder) schema() *node { return b.node }

// Number creates a new number (float) schema builder.
func Number() *NumberBuilder {
	return &NumberBuilder{node: &node{Type: "number"}}
}

// NumberBuilder constructs number type schemas.
type NumberBuilder struct {
	node *node
}

// Desc sets the description for this field.
func (b *NumberBuilder) Desc(description string) *NumberBuilder {
	b.node.Description = description
	return b
}

// Min sets the minimum value.
func (b *NumberBuilder) Min(n float64) *NumberBuilder {
	b.node.Minimum = ptr(n)
	return b
}

// Max sets the maximum value.
func (b *NumberBuilder) Max(n float64) *NumberBuilder {
	b.node.Maximum = ptr(n)
	return b
}

// Required marks this field as required when used in an object.
func (b *NumberBuilder) Required() *RequiredField {
	return &RequiredField{builder: b}
}

// Build serializes the schema to json.RawMessage.
func (b *NumberBuilder) Build() (json.RawMessage, error) { return build(b.node) }

// MustBuild is like Build but panics on error.
func (b *NumberBuilder) MustBuild() json.RawMessage { return mustBuild(b.node) }

func (b *NumberBuilder) schema() *node { return b.node }

// Bool creates a new boolean schema builder.
func Bool() *BoolBuilder {
	return &BoolBuilder{node: &node{Type: "boolean"}}
}

// BoolBuilder constructs boolean type schemas.
type BoolBuilder struct {
	node *node
}

// Desc sets the description for this field.
func (b *BoolBuilder) Desc(description string) *BoolBuilder {
	b.node.Description = description
	return b
}

// Default sets the default value.
func (b *BoolBuilder) Default(v bool) *BoolBuilder {
	b.node.Default = v
	return b
}

// Required marks this field as required when used in an object.
func (b *BoolBuilder) Required() *RequiredField {
	return &RequiredField{builder: b}
}

// Build serializes the schema to json.RawMessage.
func (b *BoolBuilder) Build() (json.RawMessage, error) { return build(b.node) }

// MustBuild is like Build but panics on error.
func (b *BoolBuilder) MustBuild() json.RawMessage { return mustBuild(b.node) }

func (b *BoolBuilder) schema() *node { return b.node }

// Array creates a new array schema builder with the given items schema.
func Array(items Builder) *ArrayBuilder {
	b := &ArrayBuilder{node: &node{Type: "array"}}
	if items != nil {
		b.node.Items = items.schema()
	}
	return b
}

// ArrayBuilder constructs array type schemas.
type ArrayBuilder struct {
	node *node
}

// Desc sets the description for this field.
func (b *ArrayBuilder) Desc(description string) *ArrayBuilder {
	b.node.Description = description
	return b
}

// Required marks this field as required when used in an object.
func (b *ArrayBuilder) Required() *RequiredField {
	return &RequiredField{builder: b}
}

// Build serializes the schema to json.RawMessage.
func (b *ArrayBuilder) Build() (json.RawMessage, error) { return build(b.node) }

// MustBuild is like Build but panics on error.
func (b *ArrayBuilder) MustBuild() json.RawMessage { return mustBuild(b.node) }

func (b *ArrayBuilder) schema() *node { return b.node }
