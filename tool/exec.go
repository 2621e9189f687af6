package tool

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/loomlabs/loom"
	"github.com/loomlabs/loom/schema"
)

const (
	defaultExecTimeout = 30 * time.Second
	maxExecTimeout     = 5 * time.Minute
)

// ExecToolOption configures the command execution tool.
type ExecToolOption func(*execToolConfig)

type execToolConfig struct {
	shell          string
	workDir        string
	defaultTimeout time.Duration
}

// WithShell sets the shell used to run commands. Default is /bin/sh.
func WithShell(shell string) ExecToolOption {
	return func(c *execToolConfig) {
		c.shell = shell
	}
}

// WithWorkDir sets the default working directory for commands.
func WithWorkDir(dir string) ExecToolOption {
	return func(c *execToolConfig) {
		c.workDir = dir
	}
}

// WithExecTimeout sets the default per-command timeout.
// Requests may override it up to a hard cap of 5 minutes.
func WithExecTimeout(d time.Duration) ExecToolOption {
	return func(c *execToolConfig) {
		c.defaultTimeout = d
	}
}

// NewExecTool creates a tool that runs shell commands and reports
// stdout, stderr, and the exit code. The tool is marked dangerous.
func NewExecTool(opts ...ExecToolOption) (loom.Definition, Handler) {
	cfg := &execToolConfig{
		shell:          "/bin/sh",
		defaultTimeout: defaultExecTimeout,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	def := loom.Definition{
		Name: "execute_command",
		Description: "Execute a shell command and return its stdout, stderr, and exit code. " +
			"Can be a single command or a pipeline; use '&&' to chain commands. " +
			"Avoid long-running commands (default timeout: 30s).",
		Parameters: schema.MustFor[execArgs](),
		Dangerous:  true,
	}

	handler := func(ctx context.Context, call loom.ToolCall) (loom.ToolResult, error) {
		args, err := decodeExecArgs(call.Input)
		if err != nil {
			return loom.NewErrorResult(call.ID, err.Error()), nil
		}

		timeout := cfg.defaultTimeout
		if args.TimeoutSeconds > 0 {
			timeout = time.Duration(args.TimeoutSeconds) * time.Second
		}
		if timeout > maxExecTimeout {
			timeout = maxExecTimeout
		}

		runCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		cmd := exec.CommandContext(runCtx, cfg.shell, "-c", args.Command)
		if args.WorkingDir != "" {
			cmd.Dir = args.WorkingDir
		} else if cfg.workDir != "" {
			cmd.Dir = cfg.workDir
		}

		var stdout, stderr bytes.Buffer
		cmd.Stdout = &stdout
		cmd.Stderr = &stderr

		runErr := cmd.Run()

		if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
			exit := -1
			return loom.ToolResult{
				ToolCallID: call.ID,
				Error:      fmt.Sprintf("command timed out after %s", timeout),
				IsError:    true,
				ExitCode:   &exit,
			}, nil
		}

		exit := 0
		if runErr != nil {
			var exitErr *exec.ExitError
			if errors.As(runErr, &exitErr) {
				exit = exitErr.ExitCode()
			} else {
				failExit := -1
				return loom.ToolResult{
					ToolCallID: call.ID,
					Error:      fmt.Sprintf("execution failed: %v", runErr),
					IsError:    true,
					ExitCode:   &failExit,
				}, nil
			}
		}

		result := loom.ToolResult{
			ToolCallID: call.ID,
			Output:     formatExecOutput(stdout.String(), stderr.String(), exit),
			ExitCode:   &exit,
		}
		if exit != 0 {
			result.IsError = true
			result.Error = fmt.Sprintf("command failed with exit code %d", exit)
		}
		return result, nil
	}

	return def, handler
}

type execArgs struct {
	Command        string `json:"command" desc:"The shell command to execute" required:"true"`
	WorkingDir     string `json:"working_dir" desc:"Working directory for command execution"`
	TimeoutSeconds int    `json:"timeout" desc:"Timeout in seconds, capped at 300"`
}

func decodeExecArgs(input map[string]any) (execArgs, error) {
	var args execArgs
	cmd, ok := input["command"].(string)
	if !ok || cmd == "" {
		return args, fmt.Errorf("missing required parameter: command")
	}
	args.Command = cmd
	if wd, ok := input["working_dir"].(string); ok {
		args.WorkingDir = wd
	}
	// JSON numbers decode as float64.
	switch t := input["timeout"].(type) {
	case float64:
		args.TimeoutSeconds = int(t)
	case int:
		args.TimeoutSeconds = t
	}
	return args, nil
}

func formatExecOutput(stdout, stderr string, exitCode int) string {
	var parts []string
	if stdout != "" {
		parts = append(parts, "STDOUT:\n"+stdout)
	}
	if stderr != "" {
		parts = append(parts, "STDERR:\n"+stderr)
	}
	if exitCode != 0 {
		parts = append(parts, fmt.Sprintf("Exit Code: %d", exitCode))
	}
	if len(parts) == 0 {
		return "(no output)"
	}
	return strings.Join(parts, "\n\n")
}
