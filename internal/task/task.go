// Package task prepares a single node of a pipeline instance for execution.
package task

import (
	"github.com/vk/pipegrid/internal/graph"
	"github.com/vk/pipegrid/internal/nodeid"
	"github.com/vk/pipegrid/internal/nodestore"
	"github.com/vk/pipegrid/internal/pipeline"
)

// Task represents a node that is fully prepared for execution.
type Task struct {
	// Pipeline is the instance the node runs in.
	Pipeline *pipeline.Pipeline

	// Node is the graph node being run.
	Node *graph.DependentNode

	// Inputs holds one payload per input slot, in slot order. Unconnected
	// slots are nil.
	Inputs [][]byte
}

// New resolves the inputs of n from the instance store, falling back to the
// static store. inputQty is the number of input slots the node declares.
func New(p *pipeline.Pipeline, n *graph.DependentNode, inputQty int, static nodestore.Reader) *Task {
	inputs := make([][]byte, inputQty)
	for slot := range inputs {
		dep, ok := n.DependencyAt(slot)
		if !ok {
			continue
		}
		inputs[slot] = lookup(p.Store, static, dep)
	}
	return &Task{Pipeline: p, Node: n, Inputs: inputs}
}

func lookup(store, static nodestore.Reader, slot nodeid.NodeSlot) []byte {
	if store != nil {
		if v, ok := store.Get(slot); ok {
			return v
		}
	}
	if static != nil {
		if v, ok := static.Get(slot); ok {
			return v
		}
	}
	return nil
}

// Store writes outputs to the instance store, one slot per payload.
func (t *Task) Store(outputs [][]byte) error {
	for slot, v := range outputs {
		if err := t.Pipeline.Store.Set(nodeid.New(t.Node.ID, slot), v); err != nil {
			return err
		}
	}
	return nil
}

// LogArgs returns the attributes identifying the task in log lines.
func (t *Task) LogArgs() []any {
	return []any{"pipeline", t.Pipeline.ID, "node_id", t.Node.ID, "node_type", t.Node.Type}
}
