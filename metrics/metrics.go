// Package metrics tracks tool execution statistics for agent runs.
package metrics

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"
)

// Recorder receives one record per tool execution.
// Implementations must be safe for concurrent use; the agent loop
// records from multiple goroutines.
type Recorder interface {
	RecordExecution(toolName string, success bool, duration time.Duration, errMessage string)
}

// Execution is a single recorded tool execution.
type Execution struct {
	ToolName  string        `json:"tool_name"`
	Success   bool          `json:"success"`
	Duration  time.Duration `json:"duration"`
	Timestamp time.Time     `json:"timestamp"`
	Error     string        `json:"error,omitempty"`
}

// Stats holds aggregate statistics for a single tool.
type Stats struct {
	ToolName      string        `json:"tool_name"`
	Total         int           `json:"total"`
	Succeeded     int           `json:"succeeded"`
	Failed        int           `json:"failed"`
	TotalDuration time.Duration `json:"total_duration"`
	AvgDuration   time.Duration `json:"avg_duration"`
	SuccessRate   float64       `json:"success_rate"`
	LastUsed      time.Time     `json:"last_used"`
}

// TrackerOption configures a Tracker.
type TrackerOption func(*Tracker)

// WithFile persists recorded executions to the given JSON file.
// Existing records are loaded on creation; each new record rewrites
// the file.
func WithFile(path string) TrackerOption {
	return func(t *Tracker) {
		t.file = path
	}
}

// Tracker records tool executions and answers aggregate queries.
// It is safe for concurrent use.
type Tracker struct {
	mu         sync.Mutex
	file       string
	executions []Execution
}

// NewTracker creates a tracker, loading any persisted records when a
// file is configured. A corrupt or missing file starts the tracker
// fresh.
func NewTracker(opts ...TrackerOption) *Tracker {
	t := &Tracker{}
	for _, opt := range opts {
		opt(t)
	}
	if t.file != "" {
		t.load()
	}
	return t
}

type metricsFile struct {
	Executions  []Execution `json:"executions"`
	LastUpdated time.Time   `json:"last_updated"`
}

func (t *Tracker) load() {
	data, err := os.ReadFile(t.file)
	if err != nil {
		return
	}
	var f metricsFile
	if err := json.Unmarshal(data, &f); err != nil {
		slog.Warn("metrics: could not load persisted records", "file", t.file, "error", err)
		return
	}
	t.executions = f.Executions
}

// save rewrites the metrics file; the caller must hold t.mu.
func (t *Tracker) save() {
	if dir := filepath.Dir(t.file); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			slog.Warn("metrics: could not create metrics dir", "dir", dir, "error", err)
			return
		}
	}
	data, err := json.MarshalIndent(metricsFile{
		Executions:  t.executions,
		LastUpdated: time.Now(),
	}, "", "  ")
	if err != nil {
		return
	}
	if err := os.WriteFile(t.file, data, 0o644); err != nil {
		slog.Warn("metrics: could not persist records", "file", t.file, "error", err)
	}
}

// RecordExecution implements Recorder.
func (t *Tracker) RecordExecution(toolName string, success bool, duration time.Duration, errMessage string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.executions = append(t.executions, Execution{
		ToolName:  toolName,
		Success:   success,
		Duration:  duration,
		Timestamp: time.Now(),
		Error:     errMessage,
	})
	if t.file != "" {
		t.save()
	}
}

// ToolStats returns aggregate statistics for one tool.
// The second return value is false if the tool has never been recorded.
func (t *Tracker) ToolStats(toolName string) (Stats, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.statsLocked(toolName)
}

func (t *Tracker) statsLocked(toolName string) (Stats, bool) {
	s := Stats{ToolName: toolName}
	for _, e := range t.executions {
		if e.ToolName != toolName {
			continue
		}
		s.Total++
		if e.Success {
			s.Succeeded++
		} else {
			s.Failed++
		}
		s.TotalDuration += e.Duration
		if e.Timestamp.After(s.LastUsed) {
			s.LastUsed = e.Timestamp
		}
	}
	if s.Total == 0 {
		return Stats{}, false
	}
	s.AvgDuration = s.TotalDuration / time.Duration(s.Total)
	s.SuccessRate = float64(s.Succeeded) / float64(s.Total)
	return s, true
}

// AllStats returns statistics for every recorded tool, most used first.
func (t *Tracker) AllStats() []Stats {
	t.mu.Lock()
	defer t.mu.Unlock()

	seen := make(map[string]bool)
	var all []Stats
	for _, e := range t.executions {
		if seen[e.ToolName] {
			continue
		}
		seen[e.ToolName] = true
		if s, ok := t.statsLocked(e.ToolName); ok {
			all = append(all, s)
		}
	}
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].Total > all[j].Total
	})
	return all
}

// RecentExecutions returns up to limit executions, newest first.
func (t *Tracker) RecentExecutions(limit int) []Execution {
	t.mu.Lock()
	defer t.mu.Unlock()

	recent := make([]Execution, len(t.executions))
	copy(recent, t.executions)
	sort.SliceStable(recent, func(i, j int) bool {
		return recent[i].Timestamp.After(recent[j].Timestamp)
	})
	if limit > 0 && len(recent) > limit {
		recent = recent[:limit]
	}
	return recent
}

// TotalExecutions returns the number of recorded executions.
func (t *Tracker) TotalExecutions() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	return len(t.executions)
}

// SuccessRate returns the overall success rate across all tools,
// or 0 when nothing has been recorded.
func (t *Tracker) SuccessRate() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	if len(t.executions) == 0 {
		return 0
	}
	succeeded := 0
	for _, e := range t.executions {
		if e.Success {
			succeeded++
		}
	}
	return float64(succeeded) / float64(len(t.executions))
}
