// Package pipeline defines a pipeline instance: one concrete, independently
// runnable copy of a graph region that processes one row of fanned-out
// data, together with the instance sets shared between split groups.
package pipeline

import (
	"fmt"
	"maps"
	"slices"

	"github.com/vk/pipegrid/internal/nodestore"
)

// Pipeline is one runnable instance of a region.
type Pipeline struct {
	// ID is unique within one build, e.g. "g1/3".
	ID string
	// Group is the index of the split group that owns the instance.
	Group int
	// Index is the position of the instance within its group.
	Index int
	// Nodes lists the node ids the instance runs, in dependency order.
	Nodes []int
	// Items maps every input node in the region to the item index this
	// instance retrieves from it.
	Items map[int]int
	// Store is the pipeline-scoped data store, owned by this instance.
	Store nodestore.Store
}

// New creates an instance.
func New(group, index int, nodes []int, items map[int]int, store nodestore.Store) *Pipeline {
	return &Pipeline{
		ID:    fmt.Sprintf("g%d/%d", group, index),
		Group: group,
		Index: index,
		Nodes: slices.Clone(nodes),
		Items: maps.Clone(items),
		Store: store,
	}
}

// Item returns the item index for an input node.
func (p *Pipeline) Item(nodeID int) (int, bool) {
	i, ok := p.Items[nodeID]
	return i, ok
}

// Runs reports whether the instance runs the node.
func (p *Pipeline) Runs(nodeID int) bool {
	return slices.Contains(p.Nodes, nodeID)
}

func (p *Pipeline) String() string {
	return p.ID
}
