package graph

import (
	"slices"

	"github.com/vk/pipegrid/internal/node"
	"github.com/vk/pipegrid/internal/nodeid"
)

// DependentNode is a resolved graph node together with its edges.
type DependentNode struct {
	ID    int
	Type  string
	Title string
	Value string

	// dependencies maps this node's input slot to its single producer.
	dependencies map[int]nodeid.NodeSlot
	// dependents maps this node's output slot to its consumers, in the order
	// they were connected.
	dependents map[int][]nodeid.NodeSlot

	dirty            bool
	sortedDeps       []nodeid.NodeSlot
	sortedDependents []nodeid.NodeSlot
}

// NewDependentNode creates a node without edges.
func NewDependentNode(id int, nodeType, value string) *DependentNode {
	return &DependentNode{
		ID:           id,
		Type:         nodeType,
		Value:        value,
		dependencies: make(map[int]nodeid.NodeSlot),
		dependents:   make(map[int][]nodeid.NodeSlot),
		dirty:        true,
	}
}

// Kind classifies the node by its type.
func (n *DependentNode) Kind() node.Kind {
	return node.KindOf(n.Type)
}

// AddDependency binds the input slot inSlot to the output originSlot of
// node originID.
func (n *DependentNode) AddDependency(originID, originSlot, inSlot int) error {
	if _, used := n.dependencies[inSlot]; used {
		return &SlotError{NodeID: n.ID, Slot: inSlot, Direction: "input", Err: ErrSlotInUse}
	}
	n.dependencies[inSlot] = nodeid.New(originID, originSlot)
	n.dirty = true
	return nil
}

// AddDependent records that output slot outSlot feeds input targetSlot of
// node targetID. The bucket for outSlot is only created once the edge is
// accepted.
func (n *DependentNode) AddDependent(targetID, targetSlot, outSlot int) error {
	target := nodeid.New(targetID, targetSlot)
	bucket := n.dependents[outSlot]
	if slices.Contains(bucket, target) {
		return &SlotError{NodeID: n.ID, Slot: outSlot, Direction: "output", Err: ErrSlotInUse}
	}
	n.dependents[outSlot] = append(bucket, target)
	n.dirty = true
	return nil
}

// removeDependent undoes AddDependent, dropping the bucket when it empties.
func (n *DependentNode) removeDependent(targetID, targetSlot, outSlot int) {
	target := nodeid.New(targetID, targetSlot)
	bucket := n.dependents[outSlot]
	idx := slices.Index(bucket, target)
	if idx < 0 {
		return
	}
	bucket = slices.Delete(bucket, idx, idx+1)
	if len(bucket) == 0 {
		delete(n.dependents, outSlot)
	} else {
		n.dependents[outSlot] = bucket
	}
	n.dirty = true
}

// Dependencies returns the producers of this node ordered by input slot.
// The returned slice must not be modified.
func (n *DependentNode) Dependencies() []nodeid.NodeSlot {
	n.refresh()
	return n.sortedDeps
}

// Dependents returns every consumer of this node, ordered by output slot
// and then by connection order. The returned slice must not be modified.
func (n *DependentNode) Dependents() []nodeid.NodeSlot {
	n.refresh()
	return n.sortedDependents
}

// DependencyAt returns the producer bound to input slot inSlot.
func (n *DependentNode) DependencyAt(inSlot int) (nodeid.NodeSlot, bool) {
	s, ok := n.dependencies[inSlot]
	return s, ok
}

// DependentsAt returns the consumers of output slot outSlot.
func (n *DependentNode) DependentsAt(outSlot int) []nodeid.NodeSlot {
	return slices.Clone(n.dependents[outSlot])
}

// InputSlots returns the bound input slots in ascending order.
func (n *DependentNode) InputSlots() []int {
	return sortedKeys(n.dependencies)
}

// OutputSlots returns the connected output slots in ascending order.
func (n *DependentNode) OutputSlots() []int {
	return sortedKeys(n.dependents)
}

// DependencyIDs returns the distinct producer ids in input slot order.
func (n *DependentNode) DependencyIDs() []int {
	return distinctIDs(n.Dependencies())
}

// DependentIDs returns the distinct consumer ids in output slot order.
func (n *DependentNode) DependentIDs() []int {
	return distinctIDs(n.Dependents())
}

func (n *DependentNode) refresh() {
	if !n.dirty {
		return
	}
	deps := make([]nodeid.NodeSlot, 0, len(n.dependencies))
	for _, slot := range sortedKeys(n.dependencies) {
		deps = append(deps, n.dependencies[slot])
	}
	var dependents []nodeid.NodeSlot
	for _, slot := range sortedKeys(n.dependents) {
		dependents = append(dependents, n.dependents[slot]...)
	}
	n.sortedDeps = deps
	n.sortedDependents = dependents
	n.dirty = false
}

func sortedKeys[V any](m map[int]V) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

func distinctIDs(slots []nodeid.NodeSlot) []int {
	seen := make(map[int]struct{}, len(slots))
	ids := make([]int, 0, len(slots))
	for _, s := range slots {
		if _, ok := seen[s.NodeID]; ok {
			continue
		}
		seen[s.NodeID] = struct{}{}
		ids = append(ids, s.NodeID)
	}
	return ids
}
