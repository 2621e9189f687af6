package agent

import (
	"log/slog"
	"time"
)

// EventType identifies a lifecycle event emitted during a run.
type EventType string

const (
	EventIterationStart     EventType = "iteration_start"
	EventIterationEnd       EventType = "iteration_end"
	EventAIResponse         EventType = "ai_response"
	EventToolStart          EventType = "tool_start"
	EventToolComplete       EventType = "tool_complete"
	EventToolError          EventType = "tool_error"
	EventToolApprovalNeeded EventType = "tool_approval_needed"
	EventToolApproved       EventType = "tool_approved"
	EventToolDenied         EventType = "tool_denied"
	EventAgentComplete      EventType = "agent_complete"
)

// Event is a single lifecycle notification.
type Event struct {
	Type       EventType      `json:"type"`
	Iteration  int            `json:"iteration"`
	ToolName   string         `json:"tool_name,omitempty"`
	ToolCallID string         `json:"tool_call_id,omitempty"`
	Message    string         `json:"message,omitempty"`
	Data       map[string]any `json:"data,omitempty"`
	Timestamp  time.Time      `json:"timestamp"`
}

// EventHandler receives lifecycle events during a run.
// Handlers are invoked synchronously; a panicking handler is recovered
// and logged, never allowed to abort the run. Tool events may arrive
// from concurrently executing tool calls, so handlers must be safe for
// concurrent use.
type EventHandler interface {
	HandleEvent(event Event)
}

// EventHandlerFunc adapts a function to the EventHandler interface.
type EventHandlerFunc func(event Event)

// HandleEvent calls f(event).
func (f EventHandlerFunc) HandleEvent(event Event) {
	f(event)
}

// emit delivers an event to the configured handler, if any.
func (a *Agent) emit(event Event) {
	if a.cfg.handler == nil {
		return
	}
	event.Timestamp = time.Now()

	defer func() {
		if r := recover(); r != nil {
			slog.Warn("agent: event handler panicked", "type", event.Type, "panic", r)
		}
	}()
	a.cfg.handler.HandleEvent(event)
}
