package task

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/pipegrid/internal/graph"
	"github.com/vk/pipegrid/internal/inmemorystore"
	"github.com/vk/pipegrid/internal/nodeid"
	"github.com/vk/pipegrid/internal/pipeline"
)

func TestNew_ResolvesInputs(t *testing.T) {
	g := graph.New()
	for id := range 3 {
		_, err := g.AddNode(id, "x", "")
		require.NoError(t, err)
	}
	require.NoError(t, g.Connect(0, 0, 2, 0))
	require.NoError(t, g.Connect(1, 0, 2, 2))

	store := inmemorystore.New()
	require.NoError(t, store.Set(nodeid.New(0, 0), []byte("from-pipeline")))
	static := inmemorystore.NewStatic(map[nodeid.NodeSlot][]byte{
		nodeid.New(1, 0): []byte("from-static"),
	})
	p := pipeline.New(0, 0, []int{0, 1, 2}, nil, store)
	n, _ := g.Node(2)

	tk := New(p, n, 3, static)
	assert.Equal(t, [][]byte{[]byte("from-pipeline"), nil, []byte("from-static")}, tk.Inputs)

	require.NoError(t, tk.Store([][]byte{[]byte("out")}))
	v, ok := store.Get(nodeid.New(2, 0))
	require.True(t, ok)
	assert.Equal(t, "out", string(v))
	assert.Contains(t, tk.LogArgs(), "g0/0")
}
