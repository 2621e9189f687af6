package agent

import "github.com/loomlabs/loom"

// StopReason explains why a run ended.
type StopReason string

const (
	// StopCompleted means the model answered without requesting tools.
	StopCompleted StopReason = "completed"
	// StopMaxIterations means the iteration budget ran out.
	StopMaxIterations StopReason = "max_iterations"
	// StopTimeout means a completion request exceeded the per-iteration deadline.
	StopTimeout StopReason = "timeout"
	// StopError means an unexpected failure ended the run.
	StopError StopReason = "error"
)

// Result is the outcome of a run. Partial progress is always included,
// even when the run ends in failure.
type Result struct {
	Success       bool
	FinalResponse string
	Iterations    int
	ToolCallsMade []loom.ToolCall
	ToolResults   []loom.ToolResult
	Err           error
	StoppedReason StopReason
}
