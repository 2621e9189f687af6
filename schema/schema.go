package schema

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
)

// Builder is the interface implemented by all schema builders.
// It provides a fluent API for constructing JSON Schema objects.
type Builder interface {
	// Build serializes the schema to json.RawMessage.
	// Returns an error if the schema is invalid.
	Build() (json.RawMessage, error)

	// MustBuild is like Build but panics on error.
	MustBuild() json.RawMessage

	// schema returns the internal representation for composition.
	schema() *node
}

// node is the internal representation of a JSON Schema.
type node struct {
	Type        string `json:"type,omitempty"`
	Description string `json:"description,omitempty"`
	Enum        []any  `json:"enum,omitempty"`
	Default     any    `json:"default,omitempty"`

	// String constraints
	Pattern string `json:"pattern,omitempty"`

	// Numeric constraints
	Minimum *float64 `json:"minimum,omitempty"`
	Maximum *float64 `json:"maximum,omitempty"`

	// Array constraints
	Items *node `json:"items,omitempty"`

	// Object constraints
	Properties map[string]*node `json:"properties,omitempty"`
	Required   []string         `json:"required,omitempty"`
}

// Sentinel errors for schema validation.
var (
	// ErrInvalidRange is returned when min exceeds max.
	ErrInvalidRange = errors.New("schema: minimum exceeds maximum")

	// ErrInvalidPattern is returned when a regex pattern is invalid.
	ErrInvalidPattern = errors.New("schema: invalid regex pattern")

	// ErrNilItems is returned when an array has no items schema.
	ErrNilItems = errors.New("schema: array requires items schema")
)

// validate checks the schema for internal consistency.
func (s *node) validate() error {
	switch s.Type {
	case "string":
		if s.Pattern != "" {
			if _, err := regexp.Compile(s.Pattern); err != nil {
				return fmt.Errorf("schema: invalid pattern %q: %w", s.Pattern, ErrInvalidPattern)
			}
		}

	case "integer", "number":
		if s.Minimum != nil && s.Maximum != nil && *s.Minimum > *s.Maximum {
			return ErrInvalidRange
		}

	case "array":
		if s.Items == nil {
			return ErrNilItems
		}
		if err := s.Items.validate(); err != nil {
			return err
		}

	case "object":
		for name, prop := range s.Properties {
			if err := prop.validate(); err != nil {
				return fmt.Errorf("schema: field %q: %w", name, err)
			}
		}
	}

	return nil
}

func build(n *node) (json.RawMessage, error) {
	if err := n.validate(); err != nil {
		return nil, err
	}
	return json.Marshal(n)
}

func mustBuild(n *node) json.RawMessage {
	data, err := build(n)
	if err != nil {
		panic(err)
	}
	return data
}

func ptr[T any](v T) *T { return &v }
