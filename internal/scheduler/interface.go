package scheduler

import (
	"github.com/vk/pipegrid/internal/graph"
	"github.com/vk/pipegrid/internal/node"
)

// Scheduler tracks node state within one pipeline instance and decides
// which nodes are ready.
type Scheduler interface {
	// Ready returns the pending nodes whose producer slots are all present,
	// in dependency order.
	Ready() []*graph.DependentNode

	// Precomputed reports whether every output of the node already holds a
	// value in the static store, in which case the node is not run.
	Precomputed(n *graph.DependentNode) bool

	// Mark records a new status for a node of the instance.
	Mark(nodeID int, status node.Status)

	// Status returns the status of a node, Pending for unknown nodes.
	Status(nodeID int) node.Status

	// EndIteration records one pass through the loop closed by endID. When
	// more passes remain it feeds inputs back to the loopstart outputs,
	// resets the loop body and returns true.
	EndIteration(endID int, inputs [][]byte) (bool, error)

	// Drain marks every pending node Skipped.
	Drain()

	// Done reports whether no node is pending or running.
	Done() bool

	// Pending returns the ids of nodes that have not finished.
	Pending() []int
}
