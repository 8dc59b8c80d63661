// Package resolver answers questions about an already-built graph: whether a
// node's inputs are available, and which slot on the far side of an edge
// matches a slot on the near side.
//
// Every function is pure and relies on the bidirectional edge invariant kept
// by package graph.
package resolver

import (
	"github.com/vk/pipegrid/internal/graph"
	"github.com/vk/pipegrid/internal/nodeid"
	"github.com/vk/pipegrid/internal/nodestore"
)

// HasFulfilledDependency reports whether every producer slot of node holds a
// value in either the pipeline-scoped store or the static store. A nil store
// counts as empty.
func HasFulfilledDependency(n *graph.DependentNode, pipeline, static nodestore.Reader) bool {
	for _, dep := range n.Dependencies() {
		if present(pipeline, dep) || present(static, dep) {
			continue
		}
		return false
	}
	return true
}

func present(r nodestore.Reader, slot nodeid.NodeSlot) bool {
	if r == nil {
		return false
	}
	_, ok := r.Get(slot)
	return ok
}

// OtherNodeSlotDependents returns the input slot on targetID that one of
// node's outputs lands in, or -1 when node does not feed targetID.
func OtherNodeSlotDependents(n *graph.DependentNode, targetID int) int {
	for _, d := range n.Dependents() {
		if d.NodeID == targetID {
			return d.Slot
		}
	}
	return -1
}

// OtherNodeSlotDependencies returns the output slot of targetID that feeds
// node, or -1 when targetID is not a producer of node.
func OtherNodeSlotDependencies(n *graph.DependentNode, targetID int) int {
	for _, d := range n.Dependencies() {
		if d.NodeID == targetID {
			return d.Slot
		}
	}
	return -1
}

// FindNodeSlotInDependents maps an output slot of search to the consumer slot
// it feeds, confirmed against the consumer's own dependency table. It
// returns nodeid.Invalid when no consumer confirms the edge.
func FindNodeSlotInDependents(search *graph.DependentNode, g *graph.Graph, searchSlot int) nodeid.NodeSlot {
	for _, d := range search.Dependents() {
		other, ok := g.Node(d.NodeID)
		if !ok {
			continue
		}
		if OtherNodeSlotDependencies(other, search.ID) == searchSlot {
			return d
		}
	}
	return nodeid.Invalid
}

// FindNodeSlotInDependencies maps an input slot of search to the producer
// slot that feeds it, confirmed against the producer's own dependents
// table. It returns nodeid.Invalid when no producer confirms the edge.
func FindNodeSlotInDependencies(search *graph.DependentNode, g *graph.Graph, searchSlot int) nodeid.NodeSlot {
	for _, d := range search.Dependencies() {
		other, ok := g.Node(d.NodeID)
		if !ok {
			continue
		}
		if OtherNodeSlotDependents(other, search.ID) == searchSlot {
			return d
		}
	}
	return nodeid.Invalid
}
