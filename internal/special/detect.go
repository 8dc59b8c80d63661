package special

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/vk/pipegrid/internal/ctxlog"
	"github.com/vk/pipegrid/internal/graph"
	"github.com/vk/pipegrid/internal/node"
	"github.com/vk/pipegrid/internal/nodeid"
	"github.com/vk/pipegrid/internal/nodestore"
)

// Detect classifies the nodes of g, pairs loops, computes regions and
// validates every sync node. static may be nil.
func Detect(ctx context.Context, g *graph.Graph, static nodestore.Reader) (*Data, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Detect: starting special node detection.", "node_count", g.Len())

	order, err := g.TopologicalOrder()
	if err != nil {
		stuck := -1
		var ce *graph.CycleError
		if errors.As(err, &ce) && len(ce.Nodes) > 0 {
			stuck = ce.Nodes[0]
		}
		return nil, &ConnectionError{NodeID: stuck, Reason: "graph contains a cycle", Err: err}
	}

	data := &Data{Order: order}
	data.Regions, data.regionOf = regions(g, order)
	logger.Debug("Detect: regions computed.", "region_count", len(data.Regions))

	for _, id := range order {
		n, _ := g.Node(id)
		if n.Kind() != node.KindSync {
			continue
		}
		s, err := detectSync(g, data, n, static)
		if err != nil {
			return nil, err
		}
		data.Sync.SyncNodes = append(data.Sync.SyncNodes, s)
	}
	logger.Debug("Detect: sync nodes validated.", "sync_count", len(data.Sync.SyncNodes))

	loops, err := pairLoops(g)
	if err != nil {
		return nil, err
	}
	data.Loops = loops
	logger.Debug("Detect: loops paired.", "loop_count", len(loops))

	return data, nil
}

// regions groups non-sync nodes connected by edges that do not pass through
// a sync node.
func regions(g *graph.Graph, order []int) ([]*Region, map[int]int) {
	parent := make(map[int]int)
	var find func(int) int
	find = func(x int) int {
		for parent[x] != x {
			parent[x] = parent[parent[x]]
			x = parent[x]
		}
		return x
	}
	union := func(a, b int) {
		ra, rb := find(a), find(b)
		if ra == rb {
			return
		}
		// The lowest id becomes the representative.
		if ra < rb {
			parent[rb] = ra
		} else {
			parent[ra] = rb
		}
	}

	for _, n := range g.Nodes() {
		if n.Kind() != node.KindSync {
			parent[n.ID] = n.ID
		}
	}
	for _, n := range g.Nodes() {
		if n.Kind() == node.KindSync {
			continue
		}
		for _, depID := range n.DependencyIDs() {
			if _, ok := parent[depID]; ok {
				union(n.ID, depID)
			}
		}
	}

	regionOf := make(map[int]int, len(parent))
	byID := make(map[int]*Region)
	for _, id := range order {
		if _, ok := parent[id]; !ok {
			continue
		}
		root := find(id)
		regionOf[id] = root
		r, ok := byID[root]
		if !ok {
			r = &Region{ID: root}
			byID[root] = r
		}
		r.Nodes = append(r.Nodes, id)
		if n, _ := g.Node(id); len(n.Dependencies()) == 0 {
			r.Roots = append(r.Roots, id)
		}
	}

	out := make([]*Region, 0, len(byID))
	for _, r := range byID {
		slices.Sort(r.Roots)
		out = append(out, r)
	}
	slices.SortFunc(out, func(a, b *Region) int { return a.ID - b.ID })
	return out, regionOf
}

func detectSync(g *graph.Graph, data *Data, n *graph.DependentNode, static nodestore.Reader) (*SyncNode, error) {
	deps := n.Dependencies()
	if len(deps) == 0 {
		return nil, connErr(n.ID, "sync node has no inputs")
	}

	s := &SyncNode{ID: n.ID, Dependencies: slices.Clone(deps), Region: -1}
	originSlot := -1
	var fanOut []int
	fanOutSlot := -1
	for _, inSlot := range n.InputSlots() {
		dep, _ := n.DependencyAt(inSlot)
		if isStatic(static, dep) {
			continue
		}
		producer, _ := g.Node(dep.NodeID)
		if producer.Kind() == node.KindSync {
			continue
		}
		region, _ := data.RegionOf(producer.ID)
		if s.Region == -1 {
			s.Region = region
			originSlot = inSlot
			continue
		}
		if region != s.Region {
			return nil, connErr(n.ID,
				"sync node receiving an un-reconciled generator input: input slot %d traces to region %d but input slot %d traces to region %d",
				inSlot, region, originSlot, s.Region)
		}
	}

	for _, inSlot := range n.InputSlots() {
		dep, _ := n.DependencyAt(inSlot)
		if isStatic(static, dep) {
			continue
		}
		producer, _ := g.Node(dep.NodeID)
		if producer.Kind() == node.KindSync {
			continue
		}
		roots := origins(g, producer.ID, static)
		if len(roots) == 0 {
			continue
		}
		if fanOutSlot == -1 {
			fanOut, fanOutSlot = roots, inSlot
			continue
		}
		if !slices.Equal(roots, fanOut) {
			return nil, connErr(n.ID,
				"sync node receiving an un-reconciled generator input: input slot %d traces to fan-out origins %v but input slot %d traces to %v",
				inSlot, roots, fanOutSlot, fanOut)
		}
	}
	return s, nil
}

// origins returns the root nodes whose items reach id, walking producers
// upstream. The walk stops at sync nodes and at slots held in the static
// store, neither of which fans out.
func origins(g *graph.Graph, id int, static nodestore.Reader) []int {
	var roots []int
	seen := map[int]struct{}{id: {}}
	stack := []int{id}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		n, _ := g.Node(cur)
		deps := n.Dependencies()
		if len(deps) == 0 {
			roots = append(roots, cur)
			continue
		}
		for _, dep := range deps {
			if isStatic(static, dep) {
				continue
			}
			if _, ok := seen[dep.NodeID]; ok {
				continue
			}
			if p, _ := g.Node(dep.NodeID); p.Kind() == node.KindSync {
				continue
			}
			seen[dep.NodeID] = struct{}{}
			stack = append(stack, dep.NodeID)
		}
	}
	slices.Sort(roots)
	return roots
}

func isStatic(static nodestore.Reader, slot nodeid.NodeSlot) bool {
	if static == nil {
		return false
	}
	_, ok := static.Get(slot)
	return ok
}

type walkState struct {
	id    int
	depth int
}

// pairLoops matches every loopstart with its loopend.
func pairLoops(g *graph.Graph) ([]*LoopPair, error) {
	var pairs []*LoopPair
	claimedBy := make(map[int]int)

	for _, start := range g.Nodes() {
		if start.Kind() != node.KindLoopStart {
			continue
		}
		end := -1
		contained := make(map[int]struct{})
		visited := make(map[walkState]struct{})

		var stack []walkState
		for _, d := range start.DependentIDs() {
			stack = append(stack, walkState{id: d})
		}
		if len(stack) == 0 {
			return nil, connErr(start.ID, "loop start has no dependents")
		}

		for len(stack) > 0 {
			cur := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if _, seen := visited[cur]; seen {
				continue
			}
			visited[cur] = struct{}{}

			n, _ := g.Node(cur.id)
			next := cur.depth
			switch n.Kind() {
			case node.KindSync:
				return nil, connErr(n.ID, "sync node inside the loop started at node %d", start.ID)
			case node.KindLoopEnd:
				if cur.depth == 0 {
					if end != -1 && end != n.ID {
						return nil, connErr(start.ID, "loop start reaches two loop ends, %d and %d", end, n.ID)
					}
					end = n.ID
					continue
				}
				next = cur.depth - 1
			case node.KindLoopStart:
				next = cur.depth + 1
			}

			contained[n.ID] = struct{}{}
			dependents := n.DependentIDs()
			if len(dependents) == 0 {
				return nil, connErr(start.ID, "branch through node %d leaves the loop without reaching its end", n.ID)
			}
			for _, d := range dependents {
				stack = append(stack, walkState{id: d, depth: next})
			}
		}

		if end == -1 {
			return nil, connErr(start.ID, "loop start has no matching loop end")
		}
		if other, ok := claimedBy[end]; ok {
			return nil, connErr(end, "loop end closes both loop starts %d and %d", other, start.ID)
		}
		claimedBy[end] = start.ID

		iteration, err := parseIteration(start.Value)
		if err != nil {
			return nil, &ConnectionError{NodeID: start.ID, Reason: "invalid iteration count", Err: err}
		}

		pair := &LoopPair{ID: len(pairs), Start: start.ID, End: end, Iteration: iteration}
		for id := range contained {
			pair.ContainedNodes = append(pair.ContainedNodes, nodeid.Whole(id))
		}
		slices.SortFunc(pair.ContainedNodes, func(a, b nodeid.NodeSlot) int { return a.NodeID - b.NodeID })
		pairs = append(pairs, pair)
	}

	for _, n := range g.Nodes() {
		if n.Kind() != node.KindLoopEnd {
			continue
		}
		if _, ok := claimedBy[n.ID]; !ok {
			return nil, connErr(n.ID, "loop end has no matching loop start")
		}
	}

	for _, p := range pairs {
		for _, q := range pairs {
			if p != q && q.Contains(p.Start) {
				p.Depth++
			}
		}
	}
	return pairs, nil
}

func parseIteration(value string) (int, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 1, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("parse %q: %w", value, err)
	}
	if n < 1 {
		return 0, fmt.Errorf("iteration count %d must be at least 1", n)
	}
	return n, nil
}
