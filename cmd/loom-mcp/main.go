// Command loom-mcp exposes the builtin tools as an MCP server over stdio.
//
// Usage:
//
//	loom-mcp [-base-path dir] [-shell /bin/sh]
//
// Any MCP-capable client can then call read_file, write_file,
// list_files, execute_command and http_request.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/loomlabs/loom/mcp"
	"github.com/loomlabs/loom/tool"
)

func main() {
	basePath := flag.String("base-path", "", "restrict file tools to this directory")
	shell := flag.String("shell", "", "shell for execute_command")
	flag.Parse()

	var fileOpts []tool.FileToolOption
	if *basePath != "" {
		fileOpts = append(fileOpts, tool.WithBasePath(*basePath))
	}
	var execOpts []tool.ExecToolOption
	if *shell != "" {
		execOpts = append(execOpts, tool.WithShell(*shell))
	}

	registry := tool.NewRegistry()
	registry.MustRegister(tool.NewReadFileTool(fileOpts...))
	registry.MustRegister(tool.NewListFilesTool(fileOpts...))
	registry.MustRegister(tool.NewWriteFileTool(fileOpts...))
	registry.MustRegister(tool.NewExecTool(execOpts...))
	registry.MustRegister(tool.NewHTTPTool())

	if err := mcp.ServeStdio(registry, mcp.WithName("loom-tools")); err != nil {
		fmt.Fprintf(os.Stderr, "loom-mcp: %v\n", err)
		os.Exit(1)
	}
}
