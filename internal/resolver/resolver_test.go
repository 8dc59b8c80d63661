package resolver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/pipegrid/internal/graph"
	"github.com/vk/pipegrid/internal/inmemorystore"
	"github.com/vk/pipegrid/internal/nodeid"
)

// buildGraph creates nodes 0..n-1 and connects the given (src, srcSlot, dst, dstSlot) links.
func buildGraph(t *testing.T, n int, links ...[4]int) *graph.Graph {
	t.Helper()
	g := graph.New()
	for id := 0; id < n; id++ {
		_, err := g.AddNode(id, "", "")
		require.NoError(t, err)
	}
	for _, l := range links {
		require.NoError(t, g.Connect(l[0], l[1], l[2], l[3]))
	}
	return g
}

func mustNode(t *testing.T, g *graph.Graph, id int) *graph.DependentNode {
	t.Helper()
	n, ok := g.Node(id)
	require.True(t, ok)
	return n
}

func TestHasFulfilledDependency(t *testing.T) {
	g := buildGraph(t, 3, [4]int{0, 0, 2, 0}, [4]int{1, 2, 2, 1})
	n2 := mustNode(t, g, 2)

	testCases := []struct {
		name     string
		pipeline map[nodeid.NodeSlot][]byte
		static   map[nodeid.NodeSlot][]byte
		want     bool
	}{
		{name: "nothing present", want: false},
		{
			name:     "only one present",
			pipeline: map[nodeid.NodeSlot][]byte{nodeid.New(0, 0): nil},
			want:     false,
		},
		{
			name:     "wrong slot of the right node",
			pipeline: map[nodeid.NodeSlot][]byte{nodeid.New(0, 0): nil, nodeid.New(1, 0): nil},
			want:     false,
		},
		{
			name:     "all in pipeline store",
			pipeline: map[nodeid.NodeSlot][]byte{nodeid.New(0, 0): nil, nodeid.New(1, 2): nil},
			want:     true,
		},
		{
			name:     "split across stores",
			pipeline: map[nodeid.NodeSlot][]byte{nodeid.New(0, 0): []byte("x")},
			static:   map[nodeid.NodeSlot][]byte{nodeid.New(1, 2): []byte("y")},
			want:     true,
		},
		{
			name:   "all static",
			static: map[nodeid.NodeSlot][]byte{nodeid.New(0, 0): nil, nodeid.New(1, 2): nil},
			want:   true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			pipe := inmemorystore.New()
			for k, v := range tc.pipeline {
				require.NoError(t, pipe.Set(k, v))
			}
			static := inmemorystore.NewStatic(tc.static)
			assert.Equal(t, tc.want, HasFulfilledDependency(n2, pipe, static))
		})
	}
}

func TestHasFulfilledDependency_NoDependenciesAndNilStores(t *testing.T) {
	g := buildGraph(t, 2, [4]int{0, 0, 1, 0})
	assert.True(t, HasFulfilledDependency(mustNode(t, g, 0), nil, nil))
	assert.False(t, HasFulfilledDependency(mustNode(t, g, 1), nil, nil))
}

func TestOtherNodeSlot(t *testing.T) {
	// 0.1 -> 1.2 and 0.0 -> 2.0
	g := buildGraph(t, 3, [4]int{0, 1, 1, 2}, [4]int{0, 0, 2, 0})
	n0, n1 := mustNode(t, g, 0), mustNode(t, g, 1)

	assert.Equal(t, 2, OtherNodeSlotDependents(n0, 1))
	assert.Equal(t, 0, OtherNodeSlotDependents(n0, 2))
	assert.Equal(t, -1, OtherNodeSlotDependents(n0, 5))

	assert.Equal(t, 1, OtherNodeSlotDependencies(n1, 0))
	assert.Equal(t, -1, OtherNodeSlotDependencies(n1, 2))
}

func TestFindNodeSlot(t *testing.T) {
	// 0.1 -> 2.0, 1.0 -> 2.1, 2.0 -> 3.3
	g := buildGraph(t, 4, [4]int{0, 1, 2, 0}, [4]int{1, 0, 2, 1}, [4]int{2, 0, 3, 3})
	n0, n2 := mustNode(t, g, 0), mustNode(t, g, 2)

	assert.Equal(t, nodeid.New(2, 0), FindNodeSlotInDependents(n0, g, 1))
	assert.Equal(t, nodeid.Invalid, FindNodeSlotInDependents(n0, g, 0))
	assert.Equal(t, nodeid.New(3, 3), FindNodeSlotInDependents(n2, g, 0))

	assert.Equal(t, nodeid.New(0, 1), FindNodeSlotInDependencies(n2, g, 0))
	assert.Equal(t, nodeid.New(1, 0), FindNodeSlotInDependencies(n2, g, 1))
	assert.Equal(t, nodeid.Invalid, FindNodeSlotInDependencies(n2, g, 7))
	assert.True(t, FindNodeSlotInDependencies(n0, g, 0).IsInvalid())
}

func TestFindNodeSlot_RoundTrip(t *testing.T) {
	links := [][4]int{
		{0, 0, 3, 2},
		{1, 1, 3, 0},
		{2, 3, 3, 1},
		{3, 0, 4, 0},
		{3, 1, 5, 4},
	}
	g := buildGraph(t, 6, links...)

	for _, l := range links {
		consumer := mustNode(t, g, l[2])
		producerSlot := FindNodeSlotInDependencies(consumer, g, l[3])
		require.Equal(t, nodeid.New(l[0], l[1]), producerSlot)

		producer := mustNode(t, g, producerSlot.NodeID)
		back := FindNodeSlotInDependents(producer, g, producerSlot.Slot)
		assert.Equal(t, nodeid.New(l[2], l[3]), back, "link %v", l)
	}
}
