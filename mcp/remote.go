package mcp

import (
	"context"
	"fmt"
	"sync"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/loomlabs/loom"
	"github.com/loomlabs/loom/tool"
)

// Remote is a connection to an MCP server whose tools can be called
// through the local tool contract.
//
// Remote is safe for concurrent use. The tool list is cached locally
// and can be refreshed with [Remote.Refresh].
type Remote struct {
	client    *client.Client
	dangerous bool

	mu    sync.RWMutex
	tools map[string]loom.Definition
	order []string
}

// RemoteOption configures a Remote.
type RemoteOption func(*Remote)

// WithDangerous marks every tool from this server as dangerous, so
// manual approval mode gates them.
func WithDangerous() RemoteOption {
	return func(r *Remote) {
		r.dangerous = true
	}
}

// Connect creates a Remote connected to an MCP server via stdio.
// The command is the path to the server executable.
//
// Example:
//
//	remote, err := mcp.Connect(ctx, "./my-mcp-server", nil, nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer remote.Close()
//	remote.RegisterAll(registry)
func Connect(ctx context.Context, command string, env, args []string, opts ...RemoteOption) (*Remote, error) {
	c, err := client.NewStdioMCPClient(command, env, args...)
	if err != nil {
		return nil, fmt.Errorf("mcp: create client: %w", err)
	}
	return newRemote(ctx, c, opts...)
}

// ConnectSSE creates a Remote connected to an MCP server via SSE.
func ConnectSSE(ctx context.Context, baseURL string, opts ...RemoteOption) (*Remote, error) {
	c, err := client.NewSSEMCPClient(baseURL)
	if err != nil {
		return nil, fmt.Errorf("mcp: create SSE client: %w", err)
	}
	return newRemote(ctx, c, opts...)
}

// NewRemoteFromClient creates a Remote from an existing MCP client.
// This function initializes the session and fetches the tool list.
func NewRemoteFromClient(ctx context.Context, c *client.Client, opts ...RemoteOption) (*Remote, error) {
	return newRemote(ctx, c, opts...)
}

func newRemote(ctx context.Context, c *client.Client, opts ...RemoteOption) (*Remote, error) {
	if err := c.Start(ctx); err != nil {
		return nil, fmt.Errorf("mcp: start client: %w", err)
	}

	_, err := c.Initialize(ctx, mcp.InitializeRequest{
		Params: mcp.InitializeParams{
			ProtocolVersion: mcp.LATEST_PROTOCOL_VERSION,
			Capabilities:    mcp.ClientCapabilities{},
			ClientInfo: mcp.Implementation{
				Name:    "loom-mcp-client",
				Version: "1.0.0",
			},
		},
	})
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("mcp: initialize session: %w", err)
	}

	r := &Remote{
		client: c,
		tools:  make(map[string]loom.Definition),
	}
	for _, opt := range opts {
		opt(r)
	}

	if err := r.Refresh(ctx); err != nil {
		c.Close()
		return nil, fmt.Errorf("mcp: list tools: %w", err)
	}

	return r, nil
}

// Close closes the connection to the MCP server.
func (r *Remote) Close() error {
	return r.client.Close()
}

// Refresh fetches the current list of tools from the MCP server.
func (r *Remote) Refresh(ctx context.Context) error {
	result, err := r.client.ListTools(ctx, mcp.ListToolsRequest{})
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.tools = make(map[string]loom.Definition, len(result.Tools))
	r.order = r.order[:0]
	for _, t := range result.Tools {
		r.tools[t.Name] = FromMCPTool(t, r.dangerous)
		r.order = append(r.order, t.Name)
	}

	return nil
}

// Tools returns all tool definitions in server order.
func (r *Remote) Tools() []loom.Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	defs := make([]loom.Definition, 0, len(r.order))
	for _, name := range r.order {
		defs = append(defs, r.tools[name])
	}
	return defs
}

// Has returns true if the server offers a tool with the given name.
func (r *Remote) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.tools[name]
	return ok
}

// Execute calls a tool on the remote MCP server. Transport failures
// come back as error results rather than errors, so one failed remote
// call behaves like any failed local tool.
func (r *Remote) Execute(ctx context.Context, call loom.ToolCall) (loom.ToolResult, error) {
	result, err := r.client.CallTool(ctx, ToCallToolRequest(call))
	if err != nil {
		return loom.NewErrorResult(call.ID, err.Error()), nil
	}
	return FromCallToolResult(call.ID, result), nil
}

// RegisterAll registers every remote tool into the given registry,
// proxying execution to the MCP server. Registration fails on the
// first duplicate name.
func (r *Remote) RegisterAll(registry *tool.Registry) error {
	for _, def := range r.Tools() {
		if err := registry.Register(def, r.Execute); err != nil {
			return err
		}
	}
	return nil
}
