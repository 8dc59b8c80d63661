// internal/nodeid/types.go
package nodeid

import "fmt"

// NodeSlot references one slot of one node.
type NodeSlot struct {
	NodeID int
	Slot   int
}

// Invalid is returned by lookups that found no matching slot.
var Invalid = NodeSlot{NodeID: -1, Slot: -1}

// New creates a slot reference.
func New(nodeID, slot int) NodeSlot {
	return NodeSlot{NodeID: nodeID, Slot: slot}
}

// Whole references a node without distinguishing a slot.
func Whole(nodeID int) NodeSlot {
	return NodeSlot{NodeID: nodeID, Slot: -1}
}

// IsInvalid reports whether the reference cannot address any node.
func (s NodeSlot) IsInvalid() bool {
	return s.NodeID < 0 || s.Slot < -1
}

// IsWhole reports whether the reference addresses a node without a slot.
func (s NodeSlot) IsWhole() bool {
	return !s.IsInvalid() && s.Slot == -1
}

// String serializes the reference into its canonical `<node>.<slot>` form.
func (s NodeSlot) String() string {
	return fmt.Sprintf("%d.%d", s.NodeID, s.Slot)
}
