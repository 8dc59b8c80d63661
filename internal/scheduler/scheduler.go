package scheduler

import (
	"fmt"

	"github.com/vk/pipegrid/internal/graph"
	"github.com/vk/pipegrid/internal/node"
	"github.com/vk/pipegrid/internal/nodeid"
	"github.com/vk/pipegrid/internal/nodestore"
	"github.com/vk/pipegrid/internal/pipeline"
	"github.com/vk/pipegrid/internal/resolver"
	"github.com/vk/pipegrid/internal/special"
)

// Instance is the Scheduler of one pipeline instance.
type Instance struct {
	pipe   *pipeline.Pipeline
	g      *graph.Graph
	data   *special.Data
	static nodestore.Reader

	status map[int]node.Status
	// runs counts completed passes per loop id.
	runs map[int]int
}

var _ Scheduler = (*Instance)(nil)

// New creates a scheduler with every node of the instance pending.
func New(p *pipeline.Pipeline, g *graph.Graph, data *special.Data, static nodestore.Reader) *Instance {
	s := &Instance{
		pipe:   p,
		g:      g,
		data:   data,
		static: static,
		status: make(map[int]node.Status, len(p.Nodes)),
		runs:   make(map[int]int),
	}
	for _, id := range p.Nodes {
		s.status[id] = node.StatusPending
	}
	return s
}

// Ready implements Scheduler.
func (s *Instance) Ready() []*graph.DependentNode {
	var ready []*graph.DependentNode
	for _, id := range s.pipe.Nodes {
		if s.status[id] != node.StatusPending {
			continue
		}
		n, ok := s.g.Node(id)
		if !ok {
			continue
		}
		if resolver.HasFulfilledDependency(n, s.pipe.Store, s.static) {
			ready = append(ready, n)
		}
	}
	return ready
}

// Precomputed implements Scheduler.
func (s *Instance) Precomputed(n *graph.DependentNode) bool {
	if s.static == nil {
		return false
	}
	outs := n.OutputSlots()
	if len(outs) == 0 {
		return false
	}
	for _, slot := range outs {
		if _, ok := s.static.Get(nodeid.New(n.ID, slot)); !ok {
			return false
		}
	}
	return true
}

// Mark implements Scheduler.
func (s *Instance) Mark(nodeID int, status node.Status) {
	if _, ok := s.status[nodeID]; ok {
		s.status[nodeID] = status
	}
}

// Status implements Scheduler.
func (s *Instance) Status(nodeID int) node.Status {
	return s.status[nodeID]
}

// EndIteration implements Scheduler.
func (s *Instance) EndIteration(endID int, inputs [][]byte) (bool, error) {
	loop, ok := s.data.LoopByEnd(endID)
	if !ok {
		return false, fmt.Errorf("node %d does not close a loop", endID)
	}
	s.runs[loop.ID]++
	if s.runs[loop.ID] >= loop.Iteration {
		return false, nil
	}

	for slot, v := range inputs {
		if err := s.pipe.Store.Set(nodeid.New(loop.Start, slot), v); err != nil {
			return false, fmt.Errorf("feeding loop %d back: %w", loop.ID, err)
		}
	}
	for _, c := range loop.ContainedNodes {
		s.reset(c.NodeID)
		if inner, ok := s.data.LoopByStart(c.NodeID); ok {
			s.runs[inner.ID] = 0
		}
	}
	s.status[endID] = node.StatusPending
	return true, nil
}

// reset returns a node to pending and forgets what it produced.
func (s *Instance) reset(nodeID int) {
	if _, ok := s.status[nodeID]; !ok {
		return
	}
	s.status[nodeID] = node.StatusPending
	if n, ok := s.g.Node(nodeID); ok {
		for _, slot := range n.OutputSlots() {
			s.pipe.Store.Delete(nodeid.New(nodeID, slot))
		}
	}
}

// Iterations returns the number of completed passes of a loop.
func (s *Instance) Iterations(loopID int) int {
	return s.runs[loopID]
}

// Drain implements Scheduler.
func (s *Instance) Drain() {
	for id, st := range s.status {
		if st == node.StatusPending {
			s.status[id] = node.StatusSkipped
		}
	}
}

// Done implements Scheduler.
func (s *Instance) Done() bool {
	return len(s.Pending()) == 0
}

// Pending implements Scheduler.
func (s *Instance) Pending() []int {
	var out []int
	for _, id := range s.pipe.Nodes {
		if st := s.status[id]; st == node.StatusPending || st == node.StatusRunning {
			out = append(out, id)
		}
	}
	return out
}
