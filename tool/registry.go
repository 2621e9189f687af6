package tool

import (
	"context"
	"sync"

	"github.com/loomlabs/loom"
)

// registeredTool combines a tool definition with its handler.
type registeredTool struct {
	def     loom.Definition
	handler Handler
}

// Registry manages registered tools and their handlers.
// Tools are listed in registration order.
// It is safe for concurrent use.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]registeredTool
	order []string
}

// NewRegistry creates an empty tool registry.
func NewRegistry() *Registry {
	return &Registry{
		tools: make(map[string]registeredTool),
	}
}

// Register adds a tool with its handler to the registry.
// Returns an error if a tool with the same name is already registered.
func (r *Registry) Register(def loom.Definition, handler Handler) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tools[def.Name]; exists {
		return &ErrToolAlreadyRegistered{Name: def.Name}
	}

	r.tools[def.Name] = registeredTool{
		def:     def,
		handler: handler,
	}
	r.order = append(r.order, def.Name)
	return nil
}

// MustRegister is like Register but panics on error.
func (r *Registry) MustRegister(def loom.Definition, handler Handler) {
	if err := r.Register(def, handler); err != nil {
		panic(err)
	}
}

// Unregister removes a tool from the registry.
// It is a no-op if the tool is not registered.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tools[name]; !exists {
		return
	}
	delete(r.tools, name)
	for i, n := range r.order {
		if n == name {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

// Get retrieves a handler by tool name.
// Returns the handler and true if found, or nil and false if not found.
func (r *Registry) Get(name string) (Handler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rt, ok := r.tools[name]
	if !ok {
		return nil, false
	}
	return rt.handler, true
}

// Definition retrieves a tool definition by name.
func (r *Registry) Definition(name string) (loom.Definition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rt, ok := r.tools[name]
	return rt.def, ok
}

// Has returns true if a tool with the given name is registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.tools[name]
	return ok
}

// IsDangerous returns true if the named tool is registered and marked dangerous.
func (r *Registry) IsDangerous(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rt, ok := r.tools[name]
	return ok && rt.def.Dangerous
}

// List returns all registered tool definitions in registration order.
func (r *Registry) List() []loom.Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	defs := make([]loom.Definition, 0, len(r.order))
	for _, name := range r.order {
		defs = append(defs, r.tools[name].def)
	}
	return defs
}

// SafeTools returns definitions of tools not marked dangerous, in registration order.
func (r *Registry) SafeTools() []loom.Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var defs []loom.Definition
	for _, name := range r.order {
		if !r.tools[name].def.Dangerous {
			defs = append(defs, r.tools[name].def)
		}
	}
	return defs
}

// DangerousTools returns definitions of tools marked dangerous, in registration order.
func (r *Registry) DangerousTools() []loom.Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var defs []loom.Definition
	for _, name := range r.order {
		if r.tools[name].def.Dangerous {
			defs = append(defs, r.tools[name].def)
		}
	}
	return defs
}

// Names returns all registered tool names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, len(r.order))
	copy(names, r.order)
	return names
}

// Len returns the number of registered tools.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.tools)
}

// Execute looks up the handler for a tool call and runs it.
// An unregistered tool name returns an error result together with
// *ErrToolNotFound. Handler failures are folded into the result with
// IsError set, so callers can hand the result back to the model.
func (r *Registry) Execute(ctx context.Context, call loom.ToolCall) (loom.ToolResult, error) {
	handler, ok := r.Get(call.Name)
	if !ok {
		err := &ErrToolNotFound{Name: call.Name}
		return loom.NewErrorResult(call.ID, err.Error()), err
	}

	result, err := handler(ctx, call)
	if err != nil {
		execErr := &ErrToolExecution{Name: call.Name, Err: err}
		return loom.NewErrorResult(call.ID, execErr.Error()), nil
	}

	if result.ToolCallID == "" {
		result.ToolCallID = call.ID
	}
	return result, nil
}
