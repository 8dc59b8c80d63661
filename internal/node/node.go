// Package node classifies graph nodes by their authored type and defines the
// execution status a node moves through inside one pipeline instance.
package node

import "strings"

// Reserved node types. Every other type names a plugin.
const (
	TypeSync      = "sync"
	TypeLoopStart = "loopstart"
	TypeLoopEnd   = "loopend"
)

// Kind distinguishes nodes that change cardinality or control flow from
// plugin nodes.
type Kind int

const (
	// KindPlugin is a node executed by an input or process plugin.
	KindPlugin Kind = iota
	// KindSync merges all parallel instances feeding it into one flow.
	KindSync
	// KindLoopStart opens a repeated region.
	KindLoopStart
	// KindLoopEnd closes a repeated region.
	KindLoopEnd
)

// KindOf classifies a node type. Matching is case-insensitive.
func KindOf(nodeType string) Kind {
	switch strings.ToLower(strings.TrimSpace(nodeType)) {
	case TypeSync:
		return KindSync
	case TypeLoopStart:
		return KindLoopStart
	case TypeLoopEnd:
		return KindLoopEnd
	default:
		return KindPlugin
	}
}

// IsSpecial reports whether the kind is handled by the runtime itself.
func (k Kind) IsSpecial() bool {
	return k != KindPlugin
}

func (k Kind) String() string {
	switch k {
	case KindSync:
		return "sync"
	case KindLoopStart:
		return "loopstart"
	case KindLoopEnd:
		return "loopend"
	default:
		return "plugin"
	}
}

// Status represents the execution state of a node in one pipeline instance.
type Status int32

const (
	// StatusPending indicates the node is waiting for its dependencies.
	StatusPending Status = iota
	// StatusRunning indicates the node is being executed.
	StatusRunning
	// StatusCompleted indicates the node produced its outputs.
	StatusCompleted
	// StatusFailed indicates the node returned an error.
	StatusFailed
	// StatusSkipped indicates the node never ran because its instance drained.
	StatusSkipped
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusRunning:
		return "running"
	case StatusCompleted:
		return "completed"
	case StatusFailed:
		return "failed"
	case StatusSkipped:
		return "skipped"
	default:
		return "unknown"
	}
}
