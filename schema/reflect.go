package schema

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
)

// For generates a JSON Schema object from a struct type T.
//
// Field names come from json tags. Supported struct tags:
//
//	desc:"..."      sets the field description
//	required:"true" marks the field required
//	enum:"a,b,c"    restricts a string field to the listed values
//
// Example:
//
//	type SearchArgs struct {
//	    Query string `json:"query" desc:"Search query" required:"true"`
//	    Limit int    `json:"limit" desc:"Max results"`
//	}
//	params, err := schema.For[SearchArgs]()
func For[T any]() (json.RawMessage, error) {
	var zero T
	t := reflect.TypeOf(zero)
	if t == nil {
		return nil, fmt.Errorf("schema: cannot reflect on nil type")
	}
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("schema: type %s is not a struct", t)
	}

	n, err := structNode(t)
	if err != nil {
		return nil, err
	}
	return build(n)
}

// MustFor is like For but panics on error.
func MustFor[T any]() json.RawMessage {
	data, err := For[T]()
	if err != nil {
		panic(err)
	}
	return data
}

func structNode(t reflect.Type) (*node, error) {
	n := &node{
		Type:       "object",
		Properties: make(map[string]*node),
	}

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}

		jsonTag := field.Tag.Get("json")
		if jsonTag == "-" {
			continue
		}
		name := strings.Split(jsonTag, ",")[0]
		if name == "" {
			name = field.Name
		}

		prop, err := typeNode(field.Type)
		if err != nil {
			return nil, fmt.Errorf("schema: field %q: %w", name, err)
		}

		if desc := field.Tag.Get("desc"); desc != "" {
			prop.Description = desc
		}
		if enum := field.Tag.Get("enum"); enum != "" && prop.Type == "string" {
			for _, v := range strings.Split(enum, ",") {
				prop.Enum = append(prop.Enum, strings.TrimSpace(v))
			}
		}

		n.Properties[name] = prop
		if field.Tag.Get("required") == "true" {
			n.Required = append(n.Required, name)
		}
	}

	return n, nil
}

func typeNode(t reflect.Type) (*node, error) {
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	switch t.Kind() {
	case reflect.String:
		return &node{Type: "string"}, nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return &node{Type: "integer"}, nil
	case reflect.Float32, reflect.Float64:
		return &node{Type: "number"}, nil
	case reflect.Bool:
		return &node{Type: "boolean"}, nil
	case reflect.Slice, reflect.Array:
		items, err := typeNode(t.Elem())
		if err != nil {
			return nil, err
		}
		return &node{Type: "array", Items: items}, nil
	case reflect.Struct:
		return structNode(t)
	case reflect.Map:
		return &node{Type: "object"}, nil
	default:
		return nil, fmt.Errorf("unsupported type %s", t)
	}
}
