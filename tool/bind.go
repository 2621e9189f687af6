package tool

import (
	"context"
	"encoding/json"

	"github.com/loomlabs/loom"
	"github.com/loomlabs/loom/schema"
)

// Bind creates a Definition and Handler from a typed function.
// The JSON schema for tool parameters is automatically generated
// from struct tags on type T.
//
// Example:
//
//	type TranslateArgs struct {
//	    Text string `json:"text" desc:"Text to translate" required:"true"`
//	    From string `json:"from" desc:"Source language" required:"true"`
//	    To   string `json:"to" desc:"Target language" required:"true"`
//	}
//
//	def, h, err := tool.Bind("translate", "Translate text between languages",
//	    func(ctx context.Context, args TranslateArgs) (string, error) {
//	        // implementation
//	        return translated, nil
//	    })
func Bind[T any](name, description string, fn TypedHandler[T]) (loom.Definition, Handler, error) {
	params, err := schema.For[T]()
	if err != nil {
		return loom.Definition{}, nil, err
	}

	def := loom.Definition{
		Name:        name,
		Description: description,
		Parameters:  params,
	}

	handler := func(ctx context.Context, call loom.ToolCall) (loom.ToolResult, error) {
		var args T
		data, err := json.Marshal(call.Input)
		if err != nil {
			return loom.ToolResult{}, err
		}
		if err := json.Unmarshal(data, &args); err != nil {
			return loom.ToolResult{}, err
		}
		output, err := fn(ctx, args)
		if err != nil {
			return loom.ToolResult{}, err
		}
		return loom.ToolResult{ToolCallID: call.ID, Output: output}, nil
	}

	return def, handler, nil
}

// MustBind is like Bind but panics on error.
// This is useful for initialization code where errors should be fatal.
func MustBind[T any](name, description string, fn TypedHandler[T]) (loom.Definition, Handler) {
	def, h, err := Bind(name, description, fn)
	if err != nil {
		panic(err)
	}
	return def, h
}

// BindTo creates a tool from a typed function and registers it directly to a Registry.
// This is a convenience function combining Bind and Registry.Register.
func BindTo[T any](r *Registry, name, description string, fn TypedHandler[T]) error {
	def, h, err := Bind(name, description, fn)
	if err != nil {
		return err
	}
	return r.Register(def, h)
}
