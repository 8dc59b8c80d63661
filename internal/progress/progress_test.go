package progress

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory(t *testing.T) {
	var r Reporter = &Memory{}
	ctx := context.Background()
	r.NodeFinished(ctx, Event{RunID: "r", NodeID: 1, Status: "completed"})
	r.NodeFinished(ctx, Event{RunID: "r", NodeID: 2, Status: "failed", Error: "boom"})
	r.RunFinished(ctx, Summary{RunID: "r", Instances: 2})
	require.NoError(t, r.Close())

	m := r.(*Memory)
	require.Len(t, m.Events(), 2)
	assert.Equal(t, "boom", m.Events()[1].Error)
	assert.Equal(t, []Summary{{RunID: "r", Instances: 2}}, m.Summaries())
}

func TestNop(t *testing.T) {
	var r Reporter = Nop{}
	r.NodeFinished(context.Background(), Event{})
	r.RunFinished(context.Background(), Summary{})
	assert.NoError(t, r.Close())
}

func TestDialSocketIO_InvalidURL(t *testing.T) {
	for _, raw := range []string{"::not a url", "relative/path"} {
		_, err := DialSocketIO(context.Background(), SocketIOOptions{URL: raw})
		assert.Error(t, err, raw)
	}
}
