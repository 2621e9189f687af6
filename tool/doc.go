// Package tool provides tool registration and execution for agent loops.
//
// A Registry holds tool definitions together with their handlers and
// preserves registration order, so the set of tools advertised to a
// model is stable across runs. Handlers receive the full tool call and
// return a structured result, which lets command-style tools report
// exit codes alongside their output.
//
// Typed handlers can be created with Bind, which generates the JSON
// schema for the tool's parameters from struct tags:
//
//	type searchArgs struct {
//	    Query string `json:"query" desc:"Search query" required:"true"`
//	}
//
//	def, h := tool.MustBind("search", "Search the index",
//	    func(ctx context.Context, args searchArgs) (string, error) {
//	        return doSearch(args.Query), nil
//	    })
//	registry.MustRegister(def, h)
//
// The package also ships ready-made tools for file access
// (NewReadFileTool, NewWriteFileTool, NewListFilesTool), shell command
// execution (NewExecTool), and HTTP requests (NewHTTPTool).
package tool
