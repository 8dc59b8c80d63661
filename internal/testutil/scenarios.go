package testutil

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vk/pipegrid/internal/graph"
)

// N declares a node for BuildGraph.
type N struct {
	ID    int
	Type  string
	Value string
}

// L declares a link for BuildGraph: Src.SrcSlot -> Dst.DstSlot.
type L struct {
	Src, Dst         int
	SrcSlot, DstSlot int
}

// BuildGraph creates a graph or fails the test.
func BuildGraph(t testing.TB, nodes []N, links ...L) *graph.Graph {
	t.Helper()
	g := graph.New()
	for _, n := range nodes {
		_, err := g.AddNode(n.ID, n.Type, n.Value)
		require.NoError(t, err)
	}
	for _, l := range links {
		require.NoError(t, g.Connect(l.Src, l.SrcSlot, l.Dst, l.DstSlot))
	}
	return g
}

// ManyToSingle: input(Q) -> process -> sync -> process -> output.
func ManyToSingle(t testing.TB) *graph.Graph {
	return BuildGraph(t,
		[]N{{0, "test.input", ""}, {1, "test.pass", ""}, {2, "sync", ""}, {3, "test.pass", ""}, {4, "test.sink", ""}},
		L{0, 1, 0, 0}, L{1, 2, 0, 0}, L{2, 3, 0, 0}, L{3, 4, 0, 0},
	)
}

// ManyToMore: input(Q) -> process -> sync -> 4.0 and input(2Q) -> 4.1, then output.
func ManyToMore(t testing.TB) *graph.Graph {
	return BuildGraph(t,
		[]N{{0, "test.input", ""}, {1, "test.pass", ""}, {2, "sync", ""}, {3, "test.input.large", ""}, {4, "test.join2", ""}, {5, "test.sink", ""}},
		L{0, 1, 0, 0}, L{1, 2, 0, 0}, L{2, 4, 0, 0}, L{3, 4, 0, 1}, L{4, 5, 0, 0},
	)
}

// ManyToMany: input(Q) -> process, which feeds both the sync and, directly,
// the process after the sync.
func ManyToMany(t testing.TB) *graph.Graph {
	return BuildGraph(t,
		[]N{{0, "test.input", ""}, {1, "test.pass", ""}, {2, "sync", ""}, {3, "test.join2", ""}, {4, "test.sink", ""}},
		L{0, 1, 0, 0}, L{1, 2, 0, 0}, L{1, 3, 0, 1}, L{2, 3, 0, 0}, L{3, 4, 0, 0},
	)
}

// ManyToManyWithInput: like ManyToMany, but an unrelated input(2Q) also
// feeds the process after the sync without passing through it.
func ManyToManyWithInput(t testing.TB) *graph.Graph {
	return BuildGraph(t,
		[]N{{0, "test.input", ""}, {1, "test.pass", ""}, {2, "sync", ""}, {3, "test.input.large", ""}, {4, "test.join3", ""}, {5, "test.sink", ""}},
		L{0, 1, 0, 0}, L{1, 2, 0, 0}, L{1, 4, 0, 2}, L{2, 4, 0, 0}, L{3, 4, 0, 1}, L{4, 5, 0, 0},
	)
}

// ManyToSingleToMany: input(Q) -> split -> sync -> process -> sync -> 5.0,
// with the split's second output bypassing both syncs into 5.1.
func ManyToSingleToMany(t testing.TB) *graph.Graph {
	return BuildGraph(t,
		[]N{{0, "test.input", ""}, {1, "test.split", ""}, {2, "sync", ""}, {3, "test.pass", ""}, {4, "sync", ""}, {5, "test.join2", ""}, {6, "test.sink", ""}},
		L{0, 1, 0, 0}, L{1, 2, 0, 0}, L{1, 5, 1, 1}, L{2, 3, 0, 0}, L{3, 4, 0, 0}, L{4, 5, 0, 0}, L{5, 6, 0, 0},
	)
}

// SyncGeneratorInput: two unrelated inputs feeding one sync.
func SyncGeneratorInput(t testing.TB) *graph.Graph {
	return BuildGraph(t,
		[]N{{0, "test.input", ""}, {1, "test.input", ""}, {6, "sync", ""}},
		L{0, 6, 0, 0}, L{1, 6, 0, 1},
	)
}
