package builder

import (
	"context"
	"fmt"
	"math"
	"slices"

	"github.com/vk/pipegrid/internal/ctxlog"
	"github.com/vk/pipegrid/internal/graph"
	"github.com/vk/pipegrid/internal/node"
	"github.com/vk/pipegrid/internal/pipeline"
	"github.com/vk/pipegrid/internal/special"
)

// QuantityResolver reports how many items an input node produces. Nodes it
// does not know are pass-through and produce one item per instance.
type QuantityResolver interface {
	Quantity(n *graph.DependentNode) (int, bool)
}

// Result is the outcome of a successful build.
type Result struct {
	// Pipelines holds every instance, grouped by owning split group in group
	// order.
	Pipelines []*pipeline.Pipeline
	// Groups is the same slice stored in data.Sync.NodeGroups.
	Groups []*special.SyncSplitGroup
}

// regionInfo is the per-region analysis.
type regionInfo struct {
	region *special.Region
	// inputs are the input roots with their quantities, ordered by id.
	inputs     []int
	quantities []int
	// feeds are the sync nodes consuming this region's outputs.
	feeds []int
	// triggeredBy are the sync nodes with dependents in this region.
	triggeredBy []int
	owner       int
}

// Build partitions g into split groups and builds one pipeline instance per
// required parallel copy of every region.
func Build(ctx context.Context, g *graph.Graph, data *special.Data, q QuantityResolver, opts ...Option) (*Result, error) {
	logger := ctxlog.FromContext(ctx)
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}

	infos, err := analyzeRegions(g, data, q)
	if err != nil {
		return nil, err
	}
	logger.Debug("Build: region analysis complete.", "region_count", len(infos))

	groups, syncGroups := partition(g, data, infos)
	logger.Debug("Build: split groups created.", "group_count", len(groups))

	if err := checkSelfGated(g, data, infos); err != nil {
		return nil, err
	}

	required := make(map[int]int, len(infos))
	for id, info := range infos {
		n, err := requiredPipes(info)
		if err != nil {
			return nil, err
		}
		required[id] = n
	}

	assignCalledBy(g, data, infos, groups, syncGroups)

	var all []*pipeline.Pipeline
	for idx, grp := range groups {
		if grp.Region < 0 {
			grp.RequiredPipes = 0
			grp.Own(pipeline.NewSet())
			continue
		}
		info := infos[grp.Region]
		if info.owner != idx {
			owner := groups[info.owner]
			grp.Link(owner)
			grp.RequiredPipes = owner.RequiredPipes
			logger.Debug("Build: group linked to region owner.", "group", idx, "owner", info.owner, "region", grp.Region)
			continue
		}
		grp.RequiredPipes = required[grp.Region]
		instances := make([]*pipeline.Pipeline, 0, grp.RequiredPipes)
		for i := 0; i < grp.RequiredPipes; i++ {
			instances = append(instances, pipeline.New(idx, i, info.region.Nodes, itemIndexes(info, i), o.newStore()))
		}
		grp.Own(pipeline.NewSet(instances...))
		all = append(all, instances...)
		logger.Debug("Build: region instances built.", "group", idx, "region", grp.Region, "instances", grp.RequiredPipes)
	}

	for _, s := range data.Sync.SyncNodes {
		own := syncGroups[s.ID]
		if len(own) == 1 {
			s.TriggeredPipelines = own[0].Pipes()
			continue
		}
		sets := make([]*pipeline.Set, 0, len(own))
		for _, grp := range own {
			sets = append(sets, grp.Pipes())
		}
		s.TriggeredPipelines = pipeline.Concat(sets...)
	}
	data.Sync.NodeGroups = groups

	logger.Info("Build: pipeline instances built.", "instances", len(all), "groups", len(groups), "syncs", len(data.Sync.SyncNodes))
	return &Result{Pipelines: all, Groups: groups}, nil
}

func analyzeRegions(g *graph.Graph, data *special.Data, q QuantityResolver) (map[int]*regionInfo, error) {
	infos := make(map[int]*regionInfo, len(data.Regions))
	for _, r := range data.Regions {
		info := &regionInfo{region: r, owner: -1}
		for _, root := range r.Roots {
			n, _ := g.Node(root)
			qty, ok := q.Quantity(n)
			if !ok {
				continue
			}
			if qty < 0 {
				return nil, &PipelineError{Region: r.ID, Reason: fmt.Sprintf("input node %d declares a negative quantity %d", root, qty)}
			}
			info.inputs = append(info.inputs, root)
			info.quantities = append(info.quantities, qty)
		}
		infos[r.ID] = info
	}

	for _, s := range data.Sync.SyncNodes {
		if s.Region >= 0 {
			infos[s.Region].feeds = append(infos[s.Region].feeds, s.ID)
		}
		for _, rid := range triggeredRegions(g, data, s.ID) {
			infos[rid].triggeredBy = append(infos[rid].triggeredBy, s.ID)
		}
	}
	return infos, nil
}

// requiredPipes multiplies the quantities of a region's inputs.
func requiredPipes(info *regionInfo) (int, error) {
	n := 1
	for i, qty := range info.quantities {
		if qty != 0 && n > math.MaxInt/qty {
			return 0, &PipelineError{
				Region: info.region.ID,
				Reason: fmt.Sprintf("instance count overflows at input node %d (quantities %v)", info.inputs[i], info.quantities),
			}
		}
		n *= qty
	}
	return n, nil
}

// triggeredRegions returns the ids of the regions holding dependents of a
// sync node, ascending.
func triggeredRegions(g *graph.Graph, data *special.Data, syncID int) []int {
	n, _ := g.Node(syncID)
	var out []int
	for _, d := range n.DependentIDs() {
		if rid, ok := data.RegionOf(d); ok && !slices.Contains(out, rid) {
			out = append(out, rid)
		}
	}
	slices.Sort(out)
	return out
}

func partition(g *graph.Graph, data *special.Data, infos map[int]*regionInfo) ([]*special.SyncSplitGroup, map[int][]*special.SyncSplitGroup) {
	var groups []*special.SyncSplitGroup

	for _, r := range data.Regions {
		if len(r.Roots) == 0 {
			continue
		}
		grp := special.NewSyncSplitGroup(-1, r.ID)
		grp.Input = true
		grp.ControllingNodes = slices.Clone(r.Roots)
		for _, root := range r.Roots {
			n, _ := g.Node(root)
			for _, d := range n.DependentIDs() {
				if rid, ok := data.RegionOf(d); ok && rid == r.ID && !slices.Contains(grp.Dependents, d) {
					grp.Dependents = append(grp.Dependents, d)
				}
			}
		}
		infos[r.ID].owner = len(groups)
		groups = append(groups, grp)
	}

	bySync := make(map[int][]*special.SyncSplitGroup)
	for _, s := range data.Sync.SyncNodes {
		n, _ := g.Node(s.ID)
		regions := triggeredRegions(g, data, s.ID)
		if len(regions) == 0 {
			grp := special.NewSyncSplitGroup(s.ID, -1)
			grp.ControllingNodes = n.DependencyIDs()
			grp.Dependents = n.DependentIDs()
			bySync[s.ID] = append(bySync[s.ID], grp)
			groups = append(groups, grp)
			continue
		}
		for _, rid := range regions {
			grp := special.NewSyncSplitGroup(s.ID, rid)
			grp.ControllingNodes = n.DependencyIDs()
			for _, d := range n.DependentIDs() {
				if r, ok := data.RegionOf(d); ok && r == rid {
					grp.Dependents = append(grp.Dependents, d)
				}
			}
			if infos[rid].owner == -1 {
				infos[rid].owner = len(groups)
			}
			bySync[s.ID] = append(bySync[s.ID], grp)
			groups = append(groups, grp)
		}
	}
	return groups, bySync
}

// checkSelfGated rejects regions that are triggered by a sync they feed
// while holding more than one fanning input. The sync would otherwise merge
// a cross product of unrelated items and hand it back to every one of them.
func checkSelfGated(g *graph.Graph, data *special.Data, infos map[int]*regionInfo) error {
	next := make(map[int][]int)
	for _, s := range data.Sync.SyncNodes {
		n, _ := g.Node(s.ID)
		for _, d := range n.DependentIDs() {
			if dn, _ := g.Node(d); dn.Kind() == node.KindSync {
				next[s.ID] = append(next[s.ID], d)
			}
		}
		for _, rid := range triggeredRegions(g, data, s.ID) {
			next[s.ID] = append(next[s.ID], infos[rid].feeds...)
		}
	}

	reaches := func(from, to int) bool {
		seen := map[int]bool{}
		stack := []int{from}
		for len(stack) > 0 {
			cur := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if cur == to {
				return true
			}
			if seen[cur] {
				continue
			}
			seen[cur] = true
			stack = append(stack, next[cur]...)
		}
		return false
	}

	for _, r := range data.Regions {
		info := infos[r.ID]
		fanning := 0
		for _, qty := range info.quantities {
			if qty != 1 {
				fanning++
			}
		}
		if fanning < 2 {
			continue
		}
		for _, fed := range info.feeds {
			for _, trig := range info.triggeredBy {
				if reaches(fed, trig) {
					return &PipelineError{
						Region: r.ID,
						Reason: fmt.Sprintf("region feeds sync node %d and is triggered by sync node %d but fans out from %d unrelated inputs %v", fed, trig, fanning, info.inputs),
					}
				}
			}
		}
	}
	return nil
}

func assignCalledBy(g *graph.Graph, data *special.Data, infos map[int]*regionInfo, groups []*special.SyncSplitGroup, bySync map[int][]*special.SyncSplitGroup) {
	index := make(map[*special.SyncSplitGroup]int, len(groups))
	for i, grp := range groups {
		index[grp] = i
	}

	for _, grp := range groups {
		if grp.Input {
			grp.CalledBy = -1
			continue
		}
		s, _ := data.SyncNode(grp.SyncNodeID)
		if s.Region >= 0 {
			grp.CalledBy = infos[s.Region].owner
			continue
		}
		grp.CalledBy = -1
		n, _ := g.Node(s.ID)
		for _, depID := range n.DependencyIDs() {
			if producers, ok := bySync[depID]; ok && len(producers) > 0 {
				grp.CalledBy = index[producers[0]]
				break
			}
		}
	}
}

// itemIndexes decomposes an instance index into one item index per input
// root, the first root varying slowest.
func itemIndexes(info *regionInfo, instance int) map[int]int {
	items := make(map[int]int, len(info.inputs))
	rem := instance
	for i := len(info.inputs) - 1; i >= 0; i-- {
		qty := info.quantities[i]
		items[info.inputs[i]] = rem % qty
		rem /= qty
	}
	return items
}
