package special

import (
	"slices"

	"github.com/vk/pipegrid/internal/nodeid"
	"github.com/vk/pipegrid/internal/pipeline"
)

// LoopPair is a matched loopstart/loopend pair.
type LoopPair struct {
	ID        int
	Start     int
	End       int
	Iteration int
	// Depth is the number of pairs enclosing this one.
	Depth int
	// ContainedNodes lists every node strictly between Start and End,
	// ordered by id. Slots are -1.
	ContainedNodes []nodeid.NodeSlot
}

// Contains reports whether the node lies strictly inside the pair.
func (l *LoopPair) Contains(nodeID int) bool {
	return slices.Contains(l.ContainedNodes, nodeid.Whole(nodeID))
}

// SyncNode is a detected sync node.
type SyncNode struct {
	ID int
	// Dependencies are the producer slots in input slot order.
	Dependencies []nodeid.NodeSlot
	// Region is the region feeding the sync, or -1 when every input comes
	// from the static store or other sync nodes.
	Region int
	// TriggeredPipelines are the instances gated by this sync. Filled in by
	// the builder.
	TriggeredPipelines *pipeline.Set
}

// Region is a connected set of non-sync nodes.
type Region struct {
	ID int
	// Nodes in dependency order.
	Nodes []int
	// Roots are the nodes without producers, ordered by id.
	Roots []int
}

// SyncSplitGroup is one region of the graph gated by a single sync node, or
// one region entered directly from its roots.
type SyncSplitGroup struct {
	// SyncNodeID is -1 for input groups.
	SyncNodeID int
	// ControllingNodes are the ids of the nodes feeding the sync, or the
	// roots of an input group.
	ControllingNodes []int
	// Dependents are the ids of the nodes the group starts from.
	Dependents []int
	// Input is true for groups entered from region roots.
	Input bool
	// RequiredPipes is the number of instances the group needs.
	RequiredPipes int
	// CalledBy is the index of the group that triggers this one, -1 for
	// input groups and -2 until the builder has run.
	CalledBy int
	// Region is the id of the region the group runs, -1 for none.
	Region int

	pipes  *pipeline.Set
	linked *SyncSplitGroup
}

// NewSyncSplitGroup creates a group in the unset state.
func NewSyncSplitGroup(syncNodeID, region int) *SyncSplitGroup {
	return &SyncSplitGroup{SyncNodeID: syncNodeID, Region: region, CalledBy: -2}
}

// Own makes the group the canonical owner of set.
func (g *SyncSplitGroup) Own(set *pipeline.Set) {
	g.pipes = set
	g.linked = nil
}

// Link makes the group share the instances of owner.
func (g *SyncSplitGroup) Link(owner *SyncSplitGroup) {
	g.linked = owner.Owner()
	g.pipes = nil
}

// Linked returns the canonical group this one shares instances with, or nil.
func (g *SyncSplitGroup) Linked() *SyncSplitGroup {
	return g.linked
}

// Owner returns the group holding the instances this group runs.
func (g *SyncSplitGroup) Owner() *SyncSplitGroup {
	if g.linked != nil {
		return g.linked.Owner()
	}
	return g
}

// Pipes returns the instance set of the group. Linked groups return the
// owner's set itself.
func (g *SyncSplitGroup) Pipes() *pipeline.Set {
	return g.Owner().pipes
}

// SyncData holds the detected sync nodes and the split groups built around
// them.
type SyncData struct {
	SyncNodes  []*SyncNode
	NodeGroups []*SyncSplitGroup
}

// Data is the result of detection for one graph.
type Data struct {
	Loops []*LoopPair
	Sync  SyncData
	// Order is the dependency order of every node.
	Order []int
	// Regions ordered by id.
	Regions []*Region

	regionOf map[int]int
}

// SyncNode returns the detected sync node with the given id.
func (d *Data) SyncNode(id int) (*SyncNode, bool) {
	for _, s := range d.Sync.SyncNodes {
		if s.ID == id {
			return s, true
		}
	}
	return nil, false
}

// RegionOf returns the region id of a non-sync node.
func (d *Data) RegionOf(nodeID int) (int, bool) {
	r, ok := d.regionOf[nodeID]
	return r, ok
}

// Region returns the region with the given id.
func (d *Data) Region(id int) (*Region, bool) {
	for _, r := range d.Regions {
		if r.ID == id {
			return r, true
		}
	}
	return nil, false
}

// LoopByStart returns the pair opened by a loopstart node.
func (d *Data) LoopByStart(nodeID int) (*LoopPair, bool) {
	for _, l := range d.Loops {
		if l.Start == nodeID {
			return l, true
		}
	}
	return nil, false
}

// LoopByEnd returns the pair closed by a loopend node.
func (d *Data) LoopByEnd(nodeID int) (*LoopPair, bool) {
	for _, l := range d.Loops {
		if l.End == nodeID {
			return l, true
		}
	}
	return nil, false
}

// InnermostLoop returns the deepest pair containing the node.
func (d *Data) InnermostLoop(nodeID int) (*LoopPair, bool) {
	var best *LoopPair
	for _, l := range d.Loops {
		if l.Contains(nodeID) && (best == nil || l.Depth > best.Depth) {
			best = l
		}
	}
	return best, best != nil
}
