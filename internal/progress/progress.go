// Package progress reports run progress to an observer outside the process.
package progress

import (
	"context"
	"sync"
)

// Event describes one finished node of one pipeline instance.
type Event struct {
	RunID    string  `json:"run_id"`
	Pipeline string  `json:"pipeline"`
	NodeID   int     `json:"node_id"`
	NodeType string  `json:"node_type"`
	Status   string  `json:"status"`
	Seconds  float64 `json:"duration_seconds"`
	Error    string  `json:"error,omitempty"`
}

// Summary describes a finished run.
type Summary struct {
	RunID     string  `json:"run_id"`
	Instances int     `json:"instances"`
	Succeeded bool    `json:"succeeded"`
	Seconds   float64 `json:"duration_seconds"`
	Error     string  `json:"error,omitempty"`
}

// Reporter receives progress events. Implementations must be safe for
// concurrent use and must not block the run.
type Reporter interface {
	NodeFinished(ctx context.Context, ev Event)
	RunFinished(ctx context.Context, s Summary)
	Close() error
}

// Nop discards every event.
type Nop struct{}

func (Nop) NodeFinished(context.Context, Event)  {}
func (Nop) RunFinished(context.Context, Summary) {}
func (Nop) Close() error                         { return nil }

// Memory keeps every event in memory.
type Memory struct {
	mu        sync.Mutex
	events    []Event
	summaries []Summary
}

func (m *Memory) NodeFinished(_ context.Context, ev Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, ev)
}

func (m *Memory) RunFinished(_ context.Context, s Summary) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.summaries = append(m.summaries, s)
}

func (m *Memory) Close() error { return nil }

// Events returns a copy of the node events received so far.
func (m *Memory) Events() []Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Event(nil), m.events...)
}

// Summaries returns a copy of the run summaries received so far.
func (m *Memory) Summaries() []Summary {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Summary(nil), m.summaries...)
}
