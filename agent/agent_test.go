package agent

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loomlabs/loom"
	"github.com/loomlabs/loom/metrics"
	"github.com/loomlabs/loom/tool"
)

// stubProvider replays canned responses in order. After the scripted
// responses run out it answers with plain text.
type stubProvider struct {
	mu        sync.Mutex
	responses []*loom.Response
	errs      []error
	delay     time.Duration
	calls     int
	seenOpts  []*loom.Options
	seenMsgs  [][]loom.Message
}

func (p *stubProvider) Complete(ctx context.Context, messages []loom.Message, opts ...loom.Option) (*loom.Response, error) {
	if p.delay > 0 {
		select {
		case <-time.After(p.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	i := p.calls
	p.calls++
	p.seenOpts = append(p.seenOpts, loom.ApplyOptions(opts...))
	p.seenMsgs = append(p.seenMsgs, messages)

	if i < len(p.errs) && p.errs[i] != nil {
		return nil, p.errs[i]
	}
	if i < len(p.responses) {
		return p.responses[i], nil
	}
	return &loom.Response{Content: "all done"}, nil
}

func toolUseResponse(calls ...loom.Block) *loom.Response {
	return &loom.Response{Blocks: calls, FinishReason: "tool_use"}
}

// eventCollector records events in arrival order.
type eventCollector struct {
	mu     sync.Mutex
	events []Event
}

func (c *eventCollector) HandleEvent(event Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, event)
}

func (c *eventCollector) types() []EventType {
	c.mu.Lock()
	defer c.mu.Unlock()
	types := make([]EventType, len(c.events))
	for i, e := range c.events {
		types[i] = e.Type
	}
	return types
}

func (c *eventCollector) typesFor(toolName string) []EventType {
	c.mu.Lock()
	defer c.mu.Unlock()
	var types []EventType
	for _, e := range c.events {
		if e.ToolName == toolName {
			types = append(types, e.Type)
		}
	}
	return types
}

func userMessage(content string) []loom.Message {
	return []loom.Message{{Role: loom.RoleUser, Content: content}}
}

func TestRunCompletesWithoutTools(t *testing.T) {
	provider := &stubProvider{responses: []*loom.Response{
		{Content: "the answer is 42"},
	}}
	a := New(provider, tool.NewRegistry(), WithApprovalMode(ApprovalAuto))

	result := a.Run(context.Background(), userMessage("what is the answer?"))

	assert.True(t, result.Success)
	assert.Equal(t, StopCompleted, result.StoppedReason)
	assert.Equal(t, "the answer is 42", result.FinalResponse)
	assert.Equal(t, 1, result.Iterations)
	assert.Empty(t, result.ToolCallsMade)
	assert.Empty(t, result.ToolResults)
	assert.NoError(t, result.Err)
}

func TestRunEndToEnd(t *testing.T) {
	registry := tool.NewRegistry()
	registry.MustRegister(loom.Definition{Name: "list_files"},
		func(ctx context.Context, call loom.ToolCall) (loom.ToolResult, error) {
			return loom.ToolResult{ToolCallID: call.ID, Output: "a.txt\nb.txt"}, nil
		})

	provider := &stubProvider{responses: []*loom.Response{
		toolUseResponse(loom.ToolUseBlock("call-1", "list_files", map[string]any{"path": "."})),
		{Content: "there are two files"},
	}}

	a := New(provider, registry, WithApprovalMode(ApprovalAuto))
	result := a.Run(context.Background(), userMessage("list files"))

	assert.True(t, result.Success)
	assert.Equal(t, StopCompleted, result.StoppedReason)
	assert.Equal(t, 2, result.Iterations)
	assert.Equal(t, "there are two files", result.FinalResponse)

	require.Len(t, result.ToolCallsMade, 1)
	require.Len(t, result.ToolResults, 1)
	assert.Equal(t, "call-1", result.ToolCallsMade[0].ID)
	assert.Equal(t, "call-1", result.ToolResults[0].ToolCallID)
	assert.Equal(t, "a.txt\nb.txt", result.ToolResults[0].Output)

	// The second request must carry the assistant turn and the tool result.
	require.Len(t, provider.seenMsgs, 2)
	second := provider.seenMsgs[1]
	require.Len(t, second, 3)
	assert.Equal(t, loom.RoleAssistant, second[1].Role)
	assert.Equal(t, loom.RoleTool, second[2].Role)
	require.Len(t, second[2].ToolResults, 1)
	assert.Equal(t, "call-1", second[2].ToolResults[0].ToolCallID)
}

func TestRunSuccessMatchesStoppedReason(t *testing.T) {
	for _, tc := range []struct {
		name     string
		agent    func() (*Agent, context.Context)
		expected StopReason
	}{
		{
			name: "completed",
			agent: func() (*Agent, context.Context) {
				p := &stubProvider{responses: []*loom.Response{{Content: "done"}}}
				return New(p, tool.NewRegistry()), context.Background()
			},
			expected: StopCompleted,
		},
		{
			name: "max iterations",
			agent: func() (*Agent, context.Context) {
				p := &stubProvider{responses: []*loom.Response{
					toolUseResponse(loom.ToolUseBlock("c1", "missing", nil)),
					toolUseResponse(loom.ToolUseBlock("c2", "missing", nil)),
				}}
				return New(p, tool.NewRegistry(), WithMaxIterations(2)), context.Background()
			},
			expected: StopMaxIterations,
		},
		{
			name: "error",
			agent: func() (*Agent, context.Context) {
				p := &stubProvider{errs: []error{fmt.Errorf("backend down")}}
				return New(p, tool.NewRegistry()), context.Background()
			},
			expected: StopError,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			a, ctx := tc.agent()
			result := a.Run(ctx, userMessage("go"))
			assert.Equal(t, tc.expected, result.StoppedReason)
			assert.Equal(t, result.StoppedReason == StopCompleted, result.Success)
		})
	}
}

func TestRunMaxIterations(t *testing.T) {
	registry := tool.NewRegistry()
	registry.MustRegister(loom.Definition{Name: "probe"},
		func(ctx context.Context, call loom.ToolCall) (loom.ToolResult, error) {
			return loom.ToolResult{ToolCallID: call.ID, Output: "ok"}, nil
		})

	// Always asks for another tool call, never answers.
	provider := &stubProvider{responses: []*loom.Response{
		toolUseResponse(loom.ToolUseBlock("c1", "probe", nil)),
		toolUseResponse(loom.ToolUseBlock("c2", "probe", nil)),
		toolUseResponse(loom.ToolUseBlock("c3", "probe", nil)),
	}}

	a := New(provider, registry, WithApprovalMode(ApprovalAuto), WithMaxIterations(3))
	result := a.Run(context.Background(), userMessage("loop forever"))

	assert.False(t, result.Success)
	assert.Equal(t, StopMaxIterations, result.StoppedReason)
	assert.Equal(t, 3, result.Iterations)

	var limitErr *ErrIterationLimit
	require.ErrorAs(t, result.Err, &limitErr)
	assert.Equal(t, 3, limitErr.Limit)

	// Partial progress is preserved.
	require.Len(t, result.ToolCallsMade, 3)
	require.Len(t, result.ToolResults, 3)
	for i := range result.ToolCallsMade {
		assert.Equal(t, result.ToolCallsMade[i].ID, result.ToolResults[i].ToolCallID)
	}
}

func TestRunCompletionTimeout(t *testing.T) {
	provider := &stubProvider{delay: time.Second}
	a := New(provider, tool.NewRegistry(), WithIterationTimeout(20*time.Millisecond))

	start := time.Now()
	result := a.Run(context.Background(), userMessage("slow"))
	elapsed := time.Since(start)

	assert.False(t, result.Success)
	assert.Equal(t, StopTimeout, result.StoppedReason)
	assert.ErrorIs(t, result.Err, context.DeadlineExceeded)
	assert.Equal(t, 1, result.Iterations)
	assert.Less(t, elapsed, 500*time.Millisecond)
}

func TestRunConcurrentFanOut(t *testing.T) {
	registry := tool.NewRegistry()
	delays := map[string]time.Duration{
		"slow":   300 * time.Millisecond,
		"fast":   100 * time.Millisecond,
		"medium": 200 * time.Millisecond,
	}
	for name, delay := range delays {
		d := delay
		registry.MustRegister(loom.Definition{Name: name},
			func(ctx context.Context, call loom.ToolCall) (loom.ToolResult, error) {
				time.Sleep(d)
				return loom.ToolResult{ToolCallID: call.ID, Output: call.Name}, nil
			})
	}

	provider := &stubProvider{responses: []*loom.Response{
		toolUseResponse(
			loom.ToolUseBlock("c1", "slow", nil),
			loom.ToolUseBlock("c2", "fast", nil),
			loom.ToolUseBlock("c3", "medium", nil),
		),
		{Content: "done"},
	}}

	a := New(provider, registry, WithApprovalMode(ApprovalAuto))

	start := time.Now()
	result := a.Run(context.Background(), userMessage("fan out"))
	elapsed := time.Since(start)

	assert.True(t, result.Success)
	// Close to max(delays), nowhere near sum(delays).
	assert.Less(t, elapsed, 550*time.Millisecond)

	// Results line up with call order, not completion order.
	require.Len(t, result.ToolResults, 3)
	assert.Equal(t, "c1", result.ToolResults[0].ToolCallID)
	assert.Equal(t, "slow", result.ToolResults[0].Output)
	assert.Equal(t, "c2", result.ToolResults[1].ToolCallID)
	assert.Equal(t, "fast", result.ToolResults[1].Output)
	assert.Equal(t, "c3", result.ToolResults[2].ToolCallID)
	assert.Equal(t, "medium", result.ToolResults[2].Output)
}

func TestRunUnknownTool(t *testing.T) {
	provider := &stubProvider{responses: []*loom.Response{
		toolUseResponse(loom.ToolUseBlock("c1", "ghost", nil)),
		{Content: "recovered"},
	}}

	a := New(provider, tool.NewRegistry(), WithApprovalMode(ApprovalAuto))
	result := a.Run(context.Background(), userMessage("use a ghost"))

	assert.True(t, result.Success)
	assert.Equal(t, 2, result.Iterations)

	require.Len(t, result.ToolResults, 1)
	assert.True(t, result.ToolResults[0].IsError)
	assert.Contains(t, result.ToolResults[0].Error, "ghost")
}

func TestRunToolPanicIsContained(t *testing.T) {
	registry := tool.NewRegistry()
	registry.MustRegister(loom.Definition{Name: "bomb"},
		func(ctx context.Context, call loom.ToolCall) (loom.ToolResult, error) {
			panic("kaboom")
		})
	registry.MustRegister(loom.Definition{Name: "steady"},
		func(ctx context.Context, call loom.ToolCall) (loom.ToolResult, error) {
			return loom.ToolResult{ToolCallID: call.ID, Output: "fine"}, nil
		})

	provider := &stubProvider{responses: []*loom.Response{
		toolUseResponse(
			loom.ToolUseBlock("c1", "bomb", nil),
			loom.ToolUseBlock("c2", "steady", nil),
		),
		{Content: "survived"},
	}}

	a := New(provider, registry, WithApprovalMode(ApprovalAuto))
	result := a.Run(context.Background(), userMessage("boom"))

	assert.True(t, result.Success)
	require.Len(t, result.ToolResults, 2)
	assert.True(t, result.ToolResults[0].IsError)
	assert.Contains(t, result.ToolResults[0].Error, "kaboom")
	assert.False(t, result.ToolResults[1].IsError)
	assert.Equal(t, "fine", result.ToolResults[1].Output)
}

func TestRunFlaggedButEmptyToolUse(t *testing.T) {
	// Tool-use blocks missing id or name parse to nothing; the run
	// completes gracefully instead of erroring.
	provider := &stubProvider{responses: []*loom.Response{
		{
			Blocks: []loom.Block{
				loom.TextBlock("let me check"),
				{Type: loom.BlockToolUse, Name: "read_file"}, // no id
			},
			FinishReason: "tool_use",
		},
	}}

	a := New(provider, tool.NewRegistry(), WithApprovalMode(ApprovalAuto))
	result := a.Run(context.Background(), userMessage("go"))

	assert.True(t, result.Success)
	assert.Equal(t, StopCompleted, result.StoppedReason)
	assert.Equal(t, "let me check", result.FinalResponse)
	assert.Equal(t, 1, result.Iterations)
}

func TestAdvertisedTools(t *testing.T) {
	registry := tool.NewRegistry()
	registry.MustRegister(loom.Definition{Name: "read"}, nil)
	registry.MustRegister(loom.Definition{Name: "write", Dangerous: true}, nil)
	registry.MustRegister(loom.Definition{Name: "exec", Dangerous: true}, nil)

	names := func(defs []loom.Definition) []string {
		var out []string
		for _, d := range defs {
			out = append(out, d.Name)
		}
		return out
	}

	t.Run("disabled mode advertises nothing", func(t *testing.T) {
		provider := &stubProvider{}
		a := New(provider, registry, WithApprovalMode(ApprovalDisabled))
		a.Run(context.Background(), userMessage("go"))
		require.Len(t, provider.seenOpts, 1)
		assert.Empty(t, provider.seenOpts[0].Tools)
	})

	t.Run("tools disabled advertises nothing", func(t *testing.T) {
		provider := &stubProvider{}
		a := New(provider, registry, WithToolsEnabled(false))
		a.Run(context.Background(), userMessage("go"))
		require.Len(t, provider.seenOpts, 1)
		assert.Empty(t, provider.seenOpts[0].Tools)
	})

	t.Run("manual mode still advertises dangerous tools", func(t *testing.T) {
		provider := &stubProvider{}
		a := New(provider, registry, WithApprovalMode(ApprovalManual))
		a.Run(context.Background(), userMessage("go"))
		require.Len(t, provider.seenOpts, 1)
		assert.Equal(t, []string{"read", "write", "exec"}, names(provider.seenOpts[0].Tools))
	})

	t.Run("blocked tools are filtered out", func(t *testing.T) {
		provider := &stubProvider{}
		a := New(provider, registry, WithApprovalMode(ApprovalAuto), WithBlockedTools("exec"))
		a.Run(context.Background(), userMessage("go"))
		require.Len(t, provider.seenOpts, 1)
		assert.Equal(t, []string{"read", "write"}, names(provider.seenOpts[0].Tools))
	})

	t.Run("allow list filters advertisement", func(t *testing.T) {
		provider := &stubProvider{}
		a := New(provider, registry, WithApprovalMode(ApprovalAuto), WithAllowedTools("read"))
		a.Run(context.Background(), userMessage("go"))
		require.Len(t, provider.seenOpts, 1)
		assert.Equal(t, []string{"read"}, names(provider.seenOpts[0].Tools))
	})
}

func TestGatePolicy(t *testing.T) {
	newRegistry := func() *tool.Registry {
		r := tool.NewRegistry()
		r.MustRegister(loom.Definition{Name: "write", Dangerous: true},
			func(ctx context.Context, call loom.ToolCall) (loom.ToolResult, error) {
				return loom.ToolResult{ToolCallID: call.ID, Output: "wrote"}, nil
			})
		r.MustRegister(loom.Definition{Name: "read"},
			func(ctx context.Context, call loom.ToolCall) (loom.ToolResult, error) {
				return loom.ToolResult{ToolCallID: call.ID, Output: "read"}, nil
			})
		return r
	}

	runOnce := func(toolName string, opts ...Option) (*Result, *eventCollector) {
		collector := &eventCollector{}
		provider := &stubProvider{responses: []*loom.Response{
			toolUseResponse(loom.ToolUseBlock("c1", toolName, nil)),
			{Content: "done"},
		}}
		opts = append(opts, WithEventHandler(collector))
		a := New(provider, newRegistry(), opts...)
		return a.Run(context.Background(), userMessage("go")), collector
	}

	t.Run("manual denial by approver", func(t *testing.T) {
		result, collector := runOnce("write",
			WithApprovalMode(ApprovalManual),
			WithApprover(ApproverFunc(func(ctx context.Context, call loom.ToolCall, def loom.Definition) (bool, error) {
				return false, nil
			})))

		require.Len(t, result.ToolResults, 1)
		assert.True(t, result.ToolResults[0].IsError)
		assert.Contains(t, result.ToolResults[0].Error, "denied")

		// Approval-needed then denied; never start or complete.
		assert.Equal(t, []EventType{EventToolApprovalNeeded, EventToolDenied}, collector.typesFor("write"))
	})

	t.Run("manual approval allows execution", func(t *testing.T) {
		result, collector := runOnce("write",
			WithApprovalMode(ApprovalManual),
			WithApprover(ApproverFunc(func(ctx context.Context, call loom.ToolCall, def loom.Definition) (bool, error) {
				return true, nil
			})))

		require.Len(t, result.ToolResults, 1)
		assert.False(t, result.ToolResults[0].IsError)
		assert.Equal(t, "wrote", result.ToolResults[0].Output)
		assert.Equal(t, []EventType{
			EventToolApprovalNeeded, EventToolApproved, EventToolStart, EventToolComplete,
		}, collector.typesFor("write"))
	})

	t.Run("manual mode without approver denies", func(t *testing.T) {
		result, _ := runOnce("write", WithApprovalMode(ApprovalManual))
		require.Len(t, result.ToolResults, 1)
		assert.True(t, result.ToolResults[0].IsError)
		assert.Contains(t, result.ToolResults[0].Error, "no approver")
	})

	t.Run("manual mode allows safe tools without prompting", func(t *testing.T) {
		result, collector := runOnce("read", WithApprovalMode(ApprovalManual))
		require.Len(t, result.ToolResults, 1)
		assert.False(t, result.ToolResults[0].IsError)
		assert.NotContains(t, collector.types(), EventToolApprovalNeeded)
	})

	t.Run("blocked tool is denied even in auto mode", func(t *testing.T) {
		result, _ := runOnce("read", WithApprovalMode(ApprovalAuto), WithBlockedTools("read"))
		require.Len(t, result.ToolResults, 1)
		assert.True(t, result.ToolResults[0].IsError)
		assert.Contains(t, result.ToolResults[0].Error, "blocked")
	})

	t.Run("block list outranks approval", func(t *testing.T) {
		approverCalled := false
		result, _ := runOnce("write",
			WithApprovalMode(ApprovalManual),
			WithBlockedTools("write"),
			WithApprover(ApproverFunc(func(ctx context.Context, call loom.ToolCall, def loom.Definition) (bool, error) {
				approverCalled = true
				return true, nil
			})))

		require.Len(t, result.ToolResults, 1)
		assert.True(t, result.ToolResults[0].IsError)
		assert.False(t, approverCalled)
	})

	t.Run("auto mode runs dangerous tools", func(t *testing.T) {
		result, _ := runOnce("write", WithApprovalMode(ApprovalAuto))
		require.Len(t, result.ToolResults, 1)
		assert.False(t, result.ToolResults[0].IsError)
	})
}

func TestRunEmitsLifecycleEvents(t *testing.T) {
	registry := tool.NewRegistry()
	registry.MustRegister(loom.Definition{Name: "probe"},
		func(ctx context.Context, call loom.ToolCall) (loom.ToolResult, error) {
			return loom.ToolResult{ToolCallID: call.ID, Output: "ok"}, nil
		})

	collector := &eventCollector{}
	provider := &stubProvider{responses: []*loom.Response{
		toolUseResponse(loom.ToolUseBlock("c1", "probe", nil)),
		{Content: "done"},
	}}

	a := New(provider, registry, WithApprovalMode(ApprovalAuto), WithEventHandler(collector))
	a.Run(context.Background(), userMessage("go"))

	assert.Equal(t, []EventType{
		EventIterationStart,
		EventAIResponse,
		EventToolStart,
		EventToolComplete,
		EventIterationEnd,
		EventIterationStart,
		EventAIResponse,
		EventAgentComplete,
	}, collector.types())
}

func TestRunPanickyEventHandler(t *testing.T) {
	provider := &stubProvider{responses: []*loom.Response{{Content: "fine"}}}
	a := New(provider, tool.NewRegistry(),
		WithEventHandler(EventHandlerFunc(func(Event) { panic("handler bug") })))

	result := a.Run(context.Background(), userMessage("go"))
	assert.True(t, result.Success)
}

func TestRunRecordsMetrics(t *testing.T) {
	registry := tool.NewRegistry()
	registry.MustRegister(loom.Definition{Name: "good"},
		func(ctx context.Context, call loom.ToolCall) (loom.ToolResult, error) {
			return loom.ToolResult{ToolCallID: call.ID, Output: "ok"}, nil
		})
	registry.MustRegister(loom.Definition{Name: "bad"},
		func(ctx context.Context, call loom.ToolCall) (loom.ToolResult, error) {
			return loom.ToolResult{}, fmt.Errorf("broken")
		})

	tracker := metrics.NewTracker()
	provider := &stubProvider{responses: []*loom.Response{
		toolUseResponse(
			loom.ToolUseBlock("c1", "good", nil),
			loom.ToolUseBlock("c2", "bad", nil),
		),
		{Content: "done"},
	}}

	a := New(provider, registry, WithApprovalMode(ApprovalAuto), WithMetrics(tracker))
	a.Run(context.Background(), userMessage("go"))

	assert.Equal(t, 2, tracker.TotalExecutions())

	good, ok := tracker.ToolStats("good")
	require.True(t, ok)
	assert.Equal(t, 1, good.Succeeded)

	bad, ok := tracker.ToolStats("bad")
	require.True(t, ok)
	assert.Equal(t, 1, bad.Failed)
}

func TestRunPassesModelOptions(t *testing.T) {
	provider := &stubProvider{responses: []*loom.Response{{Content: "done"}}}
	a := New(provider, tool.NewRegistry(), WithModel("test-model"), WithMaxTokens(512))

	a.Run(context.Background(), userMessage("go"))

	require.Len(t, provider.seenOpts, 1)
	assert.Equal(t, "test-model", provider.seenOpts[0].Model)
	assert.Equal(t, 512, provider.seenOpts[0].MaxTokens)
}
