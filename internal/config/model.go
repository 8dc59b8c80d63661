package config

import (
	"fmt"
	"sort"

	"github.com/vk/pipegrid/internal/nodeid"
)

// Model is the unified, format-agnostic representation of one authored
// pipeline graph. Node and link order carries no meaning.
type Model struct {
	Nodes  []*Node
	Links  []*Link
	Static []*Static
}

// Node is the format-agnostic representation of a `node` block.
type Node struct {
	ID    int
	Type  string
	Title string
	// Value is the opaque configuration payload handed to the node's plugin.
	Value string
}

// Link connects one output slot to one input slot. ID is a linear counter
// kept for display only.
type Link struct {
	ID   int
	From nodeid.NodeSlot
	To   nodeid.NodeSlot
}

// Static is a precomputed value for one output slot, available to every
// pipeline instance for the whole run.
type Static struct {
	Slot  nodeid.NodeSlot
	Value []byte
}

// Merge appends the contents of other into m.
func (m *Model) Merge(other *Model) {
	if other == nil {
		return
	}
	m.Nodes = append(m.Nodes, other.Nodes...)
	m.Links = append(m.Links, other.Links...)
	m.Static = append(m.Static, other.Static...)
}

// Validate checks the description for problems that do not need a graph to
// detect: duplicate node ids and links or static values referencing nodes
// that were never declared.
func (m *Model) Validate() error {
	seen := make(map[int]struct{}, len(m.Nodes))
	for _, n := range m.Nodes {
		if n.ID < 0 {
			return fmt.Errorf("node %d: id must not be negative", n.ID)
		}
		if _, dup := seen[n.ID]; dup {
			return fmt.Errorf("node %d: declared more than once", n.ID)
		}
		seen[n.ID] = struct{}{}
	}
	for _, l := range m.Links {
		if _, ok := seen[l.From.NodeID]; !ok {
			return fmt.Errorf("link %d: source node %d is not declared", l.ID, l.From.NodeID)
		}
		if _, ok := seen[l.To.NodeID]; !ok {
			return fmt.Errorf("link %d: destination node %d is not declared", l.ID, l.To.NodeID)
		}
	}
	for _, s := range m.Static {
		if s.Slot.IsInvalid() || s.Slot.IsWhole() {
			return fmt.Errorf("static value for %s: invalid slot reference", s.Slot)
		}
	}
	return nil
}

// SortedNodes returns the nodes ordered by id.
func (m *Model) SortedNodes() []*Node {
	out := make([]*Node, len(m.Nodes))
	copy(out, m.Nodes)
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
