package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/loomlabs/loom"
	"github.com/loomlabs/loom/parse"
	"github.com/loomlabs/loom/tool"
)

// Agent drives the request/execute cycle against a completion provider
// and a tool registry. Construct one with New; the zero value is not
// usable.
type Agent struct {
	provider loom.CompletionProvider
	registry *tool.Registry
	cfg      config
}

// New creates an agent. The registry may be shared between agents; it
// is only read during a run.
func New(provider loom.CompletionProvider, registry *tool.Registry, opts ...Option) *Agent {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Agent{
		provider: provider,
		registry: registry,
		cfg:      cfg,
	}
}

// Run executes the agent loop starting from the given conversation.
// It never returns an error; terminal failures are reported through
// the result's StoppedReason and Err fields, together with all tool
// calls and results accumulated before the failure.
func (a *Agent) Run(ctx context.Context, messages []loom.Message) (result *Result) {
	conversation := make([]loom.Message, len(messages))
	copy(conversation, messages)

	var (
		callsMade []loom.ToolCall
		results   []loom.ToolResult
		iteration int
	)

	defer func() {
		if r := recover(); r != nil {
			slog.Error("agent: run panicked", "panic", r)
			result = &Result{
				Iterations:    iteration,
				ToolCallsMade: callsMade,
				ToolResults:   results,
				Err:           fmt.Errorf("agent: unexpected panic: %v", r),
				StoppedReason: StopError,
			}
		}
	}()

	for iteration = 1; iteration <= a.cfg.maxIterations; iteration++ {
		a.emit(Event{
			Type:      EventIterationStart,
			Iteration: iteration,
			Message:   fmt.Sprintf("Iteration %d of %d", iteration, a.cfg.maxIterations),
		})

		resp, err := a.complete(ctx, conversation)
		if err != nil {
			reason := StopError
			if errors.Is(err, context.DeadlineExceeded) {
				reason = StopTimeout
			}
			return &Result{
				Iterations:    iteration,
				ToolCallsMade: callsMade,
				ToolResults:   results,
				Err:           err,
				StoppedReason: reason,
			}
		}

		text := parse.Text(resp)
		a.emit(Event{Type: EventAIResponse, Iteration: iteration, Message: text})

		calls := parse.ToolCalls(resp)
		conversation = append(conversation, loom.Message{
			ID:        loom.GenerateMessageID(),
			Role:      loom.RoleAssistant,
			Content:   text,
			ToolCalls: calls,
		})

		// A response flagged for tool use but yielding no parseable
		// calls completes the run the same way a plain answer does.
		if len(calls) == 0 {
			a.emit(Event{Type: EventAgentComplete, Iteration: iteration, Message: "Run completed"})
			return &Result{
				Success:       true,
				FinalResponse: text,
				Iterations:    iteration,
				ToolCallsMade: callsMade,
				ToolResults:   results,
				StoppedReason: StopCompleted,
			}
		}

		iterResults := a.executeAll(ctx, iteration, calls)

		for _, res := range iterResults {
			conversation = append(conversation, loom.NewToolResultMessage(res))
		}
		callsMade = append(callsMade, calls...)
		results = append(results, iterResults...)

		succeeded := 0
		for _, res := range iterResults {
			if !res.IsError {
				succeeded++
			}
		}
		a.emit(Event{
			Type:      EventIterationEnd,
			Iteration: iteration,
			Message:   fmt.Sprintf("Executed %d tools, %d succeeded", len(iterResults), succeeded),
			Data:      map[string]any{"executed": len(iterResults), "succeeded": succeeded},
		})
	}

	return &Result{
		Iterations:    a.cfg.maxIterations,
		ToolCallsMade: callsMade,
		ToolResults:   results,
		Err:           &ErrIterationLimit{Limit: a.cfg.maxIterations},
		StoppedReason: StopMaxIterations,
	}
}

// complete requests one completion bounded by the per-iteration timeout.
func (a *Agent) complete(ctx context.Context, conversation []loom.Message) (*loom.Response, error) {
	var opts []loom.Option
	if a.cfg.model != "" {
		opts = append(opts, loom.WithModel(a.cfg.model))
	}
	if a.cfg.maxTokens > 0 {
		opts = append(opts, loom.WithMaxTokens(a.cfg.maxTokens))
	}
	if defs := a.advertisedTools(); len(defs) > 0 {
		opts = append(opts, loom.WithTools(defs))
	}

	iterCtx, cancel := context.WithTimeout(ctx, a.cfg.iterationTimeout)
	defer cancel()

	resp, err := a.provider.Complete(iterCtx, conversation, opts...)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("completion timed out after %s: %w", a.cfg.iterationTimeout, context.DeadlineExceeded)
		}
		return nil, err
	}
	return resp, nil
}

// advertisedTools computes the tool definitions offered to the
// provider. Dangerous tools stay advertised in manual mode; the gate
// enforces approval at execution time, not advertisement time.
func (a *Agent) advertisedTools() []loom.Definition {
	if !a.cfg.enableTools || a.cfg.approvalMode == ApprovalDisabled {
		return nil
	}

	var defs []loom.Definition
	for _, def := range a.registry.List() {
		if slices.Contains(a.cfg.blockedTools, def.Name) {
			continue
		}
		if len(a.cfg.allowedTools) > 0 && !slices.Contains(a.cfg.allowedTools, def.Name) {
			continue
		}
		defs = append(defs, def)
	}
	return defs
}

// executeAll fans out one goroutine per tool call and joins on all of
// them. Results line up index-for-index with calls regardless of
// completion order, and a panicking call never cancels its siblings.
func (a *Agent) executeAll(ctx context.Context, iteration int, calls []loom.ToolCall) []loom.ToolResult {
	results := make([]loom.ToolResult, len(calls))

	var wg sync.WaitGroup
	for i, call := range calls {
		wg.Add(1)
		go func(i int, call loom.ToolCall) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					results[i] = loom.NewErrorResult(call.ID, fmt.Sprintf("tool panicked: %v", r))
					a.emit(Event{
						Type:       EventToolError,
						Iteration:  iteration,
						ToolName:   call.Name,
						ToolCallID: call.ID,
						Message:    fmt.Sprintf("Tool panicked: %v", r),
					})
				}
			}()
			results[i] = a.executeOne(ctx, iteration, call)
		}(i, call)
	}
	wg.Wait()

	return results
}

func (a *Agent) executeOne(ctx context.Context, iteration int, call loom.ToolCall) loom.ToolResult {
	def, ok := a.registry.Definition(call.Name)
	if !ok {
		err := &tool.ErrToolNotFound{Name: call.Name}
		a.emit(Event{
			Type:       EventToolError,
			Iteration:  iteration,
			ToolName:   call.Name,
			ToolCallID: call.ID,
			Message:    err.Error(),
		})
		return loom.NewErrorResult(call.ID, err.Error())
	}

	if denied := a.gate(ctx, iteration, call, def); denied != nil {
		return *denied
	}

	a.emit(Event{
		Type:       EventToolStart,
		Iteration:  iteration,
		ToolName:   call.Name,
		ToolCallID: call.ID,
		Message:    "Executing " + call.Name,
	})

	start := time.Now()
	result, _ := a.registry.Execute(ctx, call)
	duration := time.Since(start)

	if a.cfg.recorder != nil {
		a.cfg.recorder.RecordExecution(call.Name, !result.IsError, duration, result.Error)
	}

	event := Event{
		Type:       EventToolComplete,
		Iteration:  iteration,
		ToolName:   call.Name,
		ToolCallID: call.ID,
		Message:    "Completed " + call.Name,
		Data:       map[string]any{"duration_ms": duration.Milliseconds()},
	}
	if result.IsError {
		event.Type = EventToolError
		event.Message = result.Error
	}
	a.emit(event)

	return result
}

// gate applies the approval policy to one tool call. It returns nil
// when the call may run, or the denial result to hand back to the
// model.
func (a *Agent) gate(ctx context.Context, iteration int, call loom.ToolCall, def loom.Definition) *loom.ToolResult {
	deny := func(reason string) *loom.ToolResult {
		a.emit(Event{
			Type:       EventToolDenied,
			Iteration:  iteration,
			ToolName:   call.Name,
			ToolCallID: call.ID,
			Message:    "Tool denied: " + reason,
		})
		res := loom.NewErrorResult(call.ID, "Tool denied: "+reason)
		return &res
	}

	if slices.Contains(a.cfg.blockedTools, call.Name) {
		return deny(fmt.Sprintf("tool %q is blocked", call.Name))
	}
	if len(a.cfg.allowedTools) > 0 && !slices.Contains(a.cfg.allowedTools, call.Name) {
		return deny(fmt.Sprintf("tool %q is not in the allowed list", call.Name))
	}
	if a.cfg.approvalMode == ApprovalDisabled {
		return deny("tool use is disabled")
	}
	if a.cfg.approvalMode == ApprovalAuto {
		return nil
	}
	if !def.Dangerous {
		return nil
	}

	a.emit(Event{
		Type:       EventToolApprovalNeeded,
		Iteration:  iteration,
		ToolName:   call.Name,
		ToolCallID: call.ID,
		Message:    fmt.Sprintf("Approval needed for dangerous tool %s", call.Name),
	})

	if a.cfg.approver == nil {
		return deny("manual approval required, no approver configured")
	}

	approved, err := a.cfg.approver.Approve(ctx, call, def)
	if err != nil {
		return deny(fmt.Sprintf("approval failed: %v", err))
	}
	if !approved {
		return deny("denied by approver")
	}

	a.emit(Event{
		Type:       EventToolApproved,
		Iteration:  iteration,
		ToolName:   call.Name,
		ToolCallID: call.ID,
		Message:    "Approved " + call.Name,
	})
	return nil
}
