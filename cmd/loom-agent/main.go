// Command loom-agent runs a one-shot agent from the command line.
//
// Usage:
//
//	loom-agent [-config loom.yaml] [-approve-all] "prompt..."
//
// Provider API keys come from the environment (or a .env file):
// ANTHROPIC_API_KEY or OPENAI_API_KEY, matching the configured
// provider kind.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/loomlabs/loom"
	"github.com/loomlabs/loom/agent"
	"github.com/loomlabs/loom/config"
	"github.com/loomlabs/loom/mcp"
	"github.com/loomlabs/loom/metrics"
	"github.com/loomlabs/loom/provider/anthropic"
	"github.com/loomlabs/loom/provider/openai"
	"github.com/loomlabs/loom/retry"
	"github.com/loomlabs/loom/tool"
)

func main() {
	godotenv.Load()

	configPath := flag.String("config", "", "path to YAML config file")
	approveAll := flag.Bool("approve-all", false, "run without interactive approval prompts")
	verbose := flag.Bool("v", false, "print lifecycle events")
	flag.Parse()

	if flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "usage: loom-agent [flags] \"prompt\"")
		flag.PrintDefaults()
		os.Exit(2)
	}
	prompt := strings.Join(flag.Args(), " ")

	if err := run(context.Background(), *configPath, prompt, *approveAll, *verbose); err != nil {
		fmt.Fprintf(os.Stderr, "loom-agent: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath, prompt string, approveAll, verbose bool) error {
	cfg := defaultAgentConfig()
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}

	provider, err := buildProvider(cfg)
	if err != nil {
		return err
	}

	registry, cleanup, err := buildRegistry(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	opts := cfg.AgentOptions()
	if approveAll {
		opts = append(opts, agent.WithApprovalMode(agent.ApprovalAuto))
	} else {
		opts = append(opts, agent.WithApprover(stdinApprover{}))
	}
	if verbose {
		opts = append(opts, agent.WithEventHandler(agent.EventHandlerFunc(printEvent)))
	}
	if cfg.Metrics.File != "" {
		opts = append(opts, agent.WithMetrics(metrics.NewTracker(metrics.WithFile(cfg.Metrics.File))))
	}

	a := agent.New(provider, registry, opts...)
	result := a.Run(ctx, []loom.Message{{Role: loom.RoleUser, Content: prompt}})

	fmt.Println(result.FinalResponse)
	if !result.Success {
		return fmt.Errorf("run stopped (%s) after %d iterations: %v",
			result.StoppedReason, result.Iterations, result.Err)
	}
	return nil
}

func defaultAgentConfig() config.Config {
	kind := "anthropic"
	if os.Getenv("ANTHROPIC_API_KEY") == "" && os.Getenv("OPENAI_API_KEY") != "" {
		kind = "openai"
	}
	return config.Config{Provider: config.ProviderConfig{Kind: kind}}
}

func buildProvider(cfg config.Config) (loom.CompletionProvider, error) {
	var inner loom.CompletionProvider

	switch cfg.Provider.Kind {
	case "anthropic":
		key := cfg.Provider.APIKey
		if key == "" {
			key = os.Getenv("ANTHROPIC_API_KEY")
		}
		if key == "" {
			return nil, fmt.Errorf("ANTHROPIC_API_KEY is not set")
		}
		var opts []anthropic.ClientOption
		if cfg.Provider.Model != "" {
			opts = append(opts, anthropic.WithModel(anthropic.Model(cfg.Provider.Model)))
		}
		if cfg.Provider.BaseURL != "" {
			opts = append(opts, anthropic.WithBaseURL(cfg.Provider.BaseURL))
		}
		inner = anthropic.New(key, opts...)
	case "openai":
		key := cfg.Provider.APIKey
		if key == "" {
			key = os.Getenv("OPENAI_API_KEY")
		}
		if key == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY is not set")
		}
		var opts []openai.ClientOption
		if cfg.Provider.Model != "" {
			opts = append(opts, openai.WithModel(openai.Model(cfg.Provider.Model)))
		}
		if cfg.Provider.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(cfg.Provider.BaseURL))
		}
		inner = openai.New(key, opts...)
	default:
		return nil, fmt.Errorf("unknown provider kind %q", cfg.Provider.Kind)
	}

	return retry.Wrap(inner, cfg.RetryConfig()), nil
}

func buildRegistry(ctx context.Context, cfg config.Config) (*tool.Registry, func(), error) {
	registry := tool.NewRegistry()

	var fileOpts []tool.FileToolOption
	if cfg.Tools.BasePath != "" {
		fileOpts = append(fileOpts, tool.WithBasePath(cfg.Tools.BasePath))
	}
	if cfg.Tools.MaxFileSize > 0 {
		fileOpts = append(fileOpts, tool.WithMaxFileSize(cfg.Tools.MaxFileSize))
	}
	registry.MustRegister(tool.NewReadFileTool(fileOpts...))
	registry.MustRegister(tool.NewListFilesTool(fileOpts...))
	registry.MustRegister(tool.NewWriteFileTool(fileOpts...))

	var execOpts []tool.ExecToolOption
	if cfg.Tools.Shell != "" {
		execOpts = append(execOpts, tool.WithShell(cfg.Tools.Shell))
	}
	if cfg.Tools.WorkDir != "" {
		execOpts = append(execOpts, tool.WithWorkDir(cfg.Tools.WorkDir))
	}
	registry.MustRegister(tool.NewExecTool(execOpts...))

	var httpOpts []tool.HTTPToolOption
	if len(cfg.Tools.AllowedHosts) > 0 {
		httpOpts = append(httpOpts, tool.WithAllowedHosts(cfg.Tools.AllowedHosts...))
	}
	if len(cfg.Tools.BlockedHosts) > 0 {
		httpOpts = append(httpOpts, tool.WithBlockedHosts(cfg.Tools.BlockedHosts...))
	}
	registry.MustRegister(tool.NewHTTPTool(httpOpts...))

	var remotes []*mcp.Remote
	cleanup := func() {
		for _, r := range remotes {
			r.Close()
		}
	}

	for _, server := range cfg.MCPServers {
		var opts []mcp.RemoteOption
		if server.Dangerous {
			opts = append(opts, mcp.WithDangerous())
		}
		remote, err := mcp.Connect(ctx, server.Command, nil, server.Args, opts...)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("mcp server %q: %w", server.Name, err)
		}
		remotes = append(remotes, remote)
		if err := remote.RegisterAll(registry); err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("mcp server %q: %w", server.Name, err)
		}
	}

	return registry, cleanup, nil
}

// stdinApprover prompts on the terminal for dangerous tool calls.
type stdinApprover struct{}

func (stdinApprover) Approve(ctx context.Context, call loom.ToolCall, def loom.Definition) (bool, error) {
	fmt.Printf("\nTool %q wants to run with input %v\nAllow? [y/N] ", call.Name, call.Input)

	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return false, err
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes", nil
}

func printEvent(event agent.Event) {
	if event.Type == agent.EventAIResponse {
		return
	}
	fmt.Fprintf(os.Stderr, "[%s] %s\n", event.Type, event.Message)
}
