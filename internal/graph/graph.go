package graph

import (
	"container/heap"
	"fmt"
	"slices"
)

// Graph is an arena of nodes addressed by their integer id.
type Graph struct {
	nodes map[int]*DependentNode
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{nodes: make(map[int]*DependentNode)}
}

// AddNode creates a node without edges and returns it.
func (g *Graph) AddNode(id int, nodeType, value string) (*DependentNode, error) {
	if id < 0 {
		return nil, fmt.Errorf("node %d: %w", id, ErrInvalidNode)
	}
	if _, exists := g.nodes[id]; exists {
		return nil, fmt.Errorf("node %d: %w", id, ErrDuplicateNode)
	}
	n := NewDependentNode(id, nodeType, value)
	g.nodes[id] = n
	return n, nil
}

// Node returns the node with the given id.
func (g *Graph) Node(id int) (*DependentNode, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// Nodes returns every node ordered by id.
func (g *Graph) Nodes() []*DependentNode {
	out := make([]*DependentNode, 0, len(g.nodes))
	for _, id := range g.IDs() {
		out = append(out, g.nodes[id])
	}
	return out
}

// IDs returns every node id in ascending order.
func (g *Graph) IDs() []int {
	return sortedKeys(g.nodes)
}

// Len returns the number of nodes.
func (g *Graph) Len() int {
	return len(g.nodes)
}

// Connect adds the edge (srcID.srcSlot -> dstID.dstSlot), updating both
// endpoints. On error the graph is left unchanged.
func (g *Graph) Connect(srcID, srcSlot, dstID, dstSlot int) error {
	src, ok := g.nodes[srcID]
	if !ok {
		return fmt.Errorf("connect %d.%d -> %d.%d: source %d: %w", srcID, srcSlot, dstID, dstSlot, srcID, ErrUnknownNode)
	}
	dst, ok := g.nodes[dstID]
	if !ok {
		return fmt.Errorf("connect %d.%d -> %d.%d: destination %d: %w", srcID, srcSlot, dstID, dstSlot, dstID, ErrUnknownNode)
	}
	if srcSlot < 0 || dstSlot < 0 {
		return fmt.Errorf("connect %d.%d -> %d.%d: %w", srcID, srcSlot, dstID, dstSlot, ErrInvalidSlot)
	}

	if err := src.AddDependent(dstID, dstSlot, srcSlot); err != nil {
		return err
	}
	if err := dst.AddDependency(srcID, srcSlot, dstSlot); err != nil {
		src.removeDependent(dstID, dstSlot, srcSlot)
		return err
	}
	return nil
}

// TopologicalOrder returns node ids so that every producer precedes its
// consumers. Among nodes that are ready at the same time the lowest id goes
// first, which makes the order deterministic.
func (g *Graph) TopologicalOrder() ([]int, error) {
	inDegree := make(map[int]int, len(g.nodes))
	ready := &intHeap{}
	for id, n := range g.nodes {
		inDegree[id] = len(n.DependencyIDs())
		if inDegree[id] == 0 {
			heap.Push(ready, id)
		}
	}

	order := make([]int, 0, len(g.nodes))
	for ready.Len() > 0 {
		id := heap.Pop(ready).(int)
		order = append(order, id)
		for _, depID := range g.nodes[id].DependentIDs() {
			inDegree[depID]--
			if inDegree[depID] == 0 {
				heap.Push(ready, depID)
			}
		}
	}

	if len(order) != len(g.nodes) {
		var stuck []int
		for id, deg := range inDegree {
			if deg > 0 {
				stuck = append(stuck, id)
			}
		}
		slices.Sort(stuck)
		return nil, &CycleError{Nodes: stuck}
	}
	return order, nil
}

// intHeap is a min-heap of node ids.
type intHeap []int

func (h intHeap) Len() int           { return len(h) }
func (h intHeap) Less(i, j int) bool { return h[i] < h[j] }
func (h intHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *intHeap) Push(x any)        { *h = append(*h, x.(int)) }
func (h *intHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}
