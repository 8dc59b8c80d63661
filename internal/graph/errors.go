package graph

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrSlotInUse is returned when an input slot already has a producer or
	// an identical edge already exists.
	ErrSlotInUse = errors.New("slot already in use")
	// ErrDuplicateNode is returned when a node id is added twice.
	ErrDuplicateNode = errors.New("duplicate node")
	// ErrUnknownNode is returned when an edge references a missing node.
	ErrUnknownNode = errors.New("unknown node")
	// ErrInvalidNode is returned for node ids that cannot be addressed.
	ErrInvalidNode = errors.New("invalid node id")
	// ErrInvalidSlot is returned for negative slot positions on an edge.
	ErrInvalidSlot = errors.New("invalid slot")
	// ErrCycle is returned when the graph is not acyclic.
	ErrCycle = errors.New("cycle detected")
)

// SlotError names the node and slot a structural edge failure happened on.
type SlotError struct {
	NodeID int
	Slot   int
	// Direction is "input" or "output".
	Direction string
	Err       error
}

func (e *SlotError) Error() string {
	return fmt.Sprintf("node %d %s slot %d: %v", e.NodeID, e.Direction, e.Slot, e.Err)
}

func (e *SlotError) Unwrap() error {
	return e.Err
}

// CycleError lists the nodes that could not be ordered.
type CycleError struct {
	Nodes []int
}

func (e *CycleError) Error() string {
	ids := make([]string, len(e.Nodes))
	for i, id := range e.Nodes {
		ids[i] = fmt.Sprint(id)
	}
	return fmt.Sprintf("%v: nodes [%s]", ErrCycle, strings.Join(ids, ", "))
}

func (e *CycleError) Unwrap() error {
	return ErrCycle
}
