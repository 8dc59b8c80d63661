package localexecutor_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/goleak"

	"github.com/vk/pipegrid/internal/builder"
	"github.com/vk/pipegrid/internal/graph"
	"github.com/vk/pipegrid/internal/inmemorystore"
	"github.com/vk/pipegrid/internal/localexecutor"
	"github.com/vk/pipegrid/internal/nodeid"
	"github.com/vk/pipegrid/internal/plugin"
	"github.com/vk/pipegrid/internal/progress"
	"github.com/vk/pipegrid/internal/registry"
	"github.com/vk/pipegrid/internal/special"
	"github.com/vk/pipegrid/internal/syncdata"
	tu "github.com/vk/pipegrid/internal/testutil"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m, tu.LeakOptions()...)
}

type harness struct {
	static   *inmemorystore.Store
	workers  int
	reporter progress.Reporter
	tp       *sdktrace.TracerProvider
}

func (h harness) executor(t *testing.T, g *graph.Graph, reg *registry.Registry) *localexecutor.Executor {
	t.Helper()
	ctx := context.Background()
	static := h.static
	if static == nil {
		static = inmemorystore.NewStatic(nil)
	}
	data, err := special.Detect(ctx, g, static)
	require.NoError(t, err)
	res, err := builder.Build(ctx, g, data, reg)
	require.NoError(t, err)

	p := localexecutor.Params{
		Graph:     g,
		Data:      data,
		Pipelines: res.Pipelines,
		Registry:  reg,
		Static:    static,
		Workers:   h.workers,
		RunID:     "test-run",
		Reporter:  h.reporter,
	}
	if h.tp != nil {
		p.Tracer = h.tp.Tracer("test")
	}
	return localexecutor.New(p)
}

// unwrap strips n layers of the "p(...)" wrapping added by test.pass.
func unwrap(t *testing.T, s string, n int) string {
	t.Helper()
	for range n {
		require.True(t, strings.HasPrefix(s, "p(") && strings.HasSuffix(s, ")"), "not wrapped: %q", s)
		s = s[2 : len(s)-1]
	}
	return s
}

func decode(t *testing.T, s string) []string {
	t.Helper()
	values, err := syncdata.Decode([]byte(s))
	require.NoError(t, err)
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = string(v)
	}
	return out
}

func TestExecute_ManyToSingle(t *testing.T) {
	reg, mod := tu.NewRegistry()
	require.NoError(t, harness{workers: 2}.executor(t, tu.ManyToSingle(t), reg).Execute(context.Background()))

	payloads := mod.Sink.Payloads()
	require.Len(t, payloads, 1)
	assert.Equal(t, []string{"p(a0)", "p(a1)", "p(a2)", "p(a3)", "p(a4)"}, decode(t, unwrap(t, payloads[0], 1)))
	assert.Equal(t, 1, mod.Input.Retrievals())
}

func TestExecute_ManyToMany(t *testing.T) {
	for _, workers := range []int{1, 4} {
		t.Run(fmt.Sprintf("workers=%d", workers), func(t *testing.T) {
			reg, mod := tu.NewRegistry()
			require.NoError(t, harness{workers: workers}.executor(t, tu.ManyToMany(t), reg).Execute(context.Background()))

			payloads := mod.Sink.Payloads()
			require.Len(t, payloads, tu.DataSize)
			for i := range tu.DataSize {
				suffix := fmt.Sprintf("+p(a%d)", i)
				var found bool
				for _, p := range payloads {
					if strings.HasSuffix(p, suffix) {
						found = true
						agg := decode(t, strings.TrimSuffix(p, suffix))
						assert.Len(t, agg, tu.DataSize)
					}
				}
				assert.True(t, found, "no payload for item %d", i)
			}
		})
	}
}

func TestExecute_ManyToMore(t *testing.T) {
	reg, mod := tu.NewRegistry()
	require.NoError(t, harness{workers: 3}.executor(t, tu.ManyToMore(t), reg).Execute(context.Background()))

	payloads := mod.Sink.Payloads()
	require.Len(t, payloads, 2*tu.DataSize)
	for _, p := range payloads {
		cut := strings.LastIndex(p, "+b")
		require.Positive(t, cut, p)
		assert.Len(t, decode(t, p[:cut]), tu.DataSize)
	}
}

func TestExecute_ManyToSingleToMany(t *testing.T) {
	reg, mod := tu.NewRegistry()
	require.NoError(t, harness{workers: 2}.executor(t, tu.ManyToSingleToMany(t), reg).Execute(context.Background()))

	payloads := mod.Sink.Payloads()
	require.Len(t, payloads, tu.DataSize)
	for i, p := range payloads {
		suffix := fmt.Sprintf("+a%d", i)
		require.True(t, strings.HasSuffix(p, suffix), p)
		outer := decode(t, strings.TrimSuffix(p, suffix))
		require.Len(t, outer, 1)
		assert.Equal(t, []string{"a0", "a1", "a2", "a3", "a4"}, decode(t, unwrap(t, outer[0], 1)))
	}
}

func TestExecute_ShortInputDrainsInstance(t *testing.T) {
	reg, mod := tu.NewRegistry()
	mod.Input.Fail = map[int]bool{2: true}
	mem := &progress.Memory{}

	require.NoError(t, harness{workers: 2, reporter: mem}.executor(t, tu.ManyToSingle(t), reg).Execute(context.Background()))

	payloads := mod.Sink.Payloads()
	require.Len(t, payloads, 1)
	assert.Equal(t, []string{"p(a0)", "p(a1)", "p(a3)", "p(a4)"}, decode(t, unwrap(t, payloads[0], 1)))

	var skipped int
	for _, ev := range mem.Events() {
		if ev.Status == "skipped" {
			skipped++
		}
	}
	assert.Equal(t, 1, skipped)
}

func TestExecute_Loop(t *testing.T) {
	reg, mod := tu.NewRegistry()
	g := tu.BuildGraph(t,
		[]tu.N{{ID: 0, Type: "test.input"}, {ID: 1, Type: "loopstart", Value: "3"}, {ID: 2, Type: "test.pass"}, {ID: 3, Type: "loopend"}, {ID: 4, Type: "test.sink"}},
		tu.L{Src: 0, Dst: 1}, tu.L{Src: 1, Dst: 2}, tu.L{Src: 2, Dst: 3}, tu.L{Src: 3, Dst: 4},
	)
	require.NoError(t, harness{workers: 2}.executor(t, g, reg).Execute(context.Background()))

	assert.Equal(t, []string{"p(p(p(a0)))", "p(p(p(a1)))", "p(p(p(a2)))", "p(p(p(a3)))", "p(p(p(a4)))"}, mod.Sink.Payloads())
}

func TestExecute_StaticReleasesSync(t *testing.T) {
	reg, mod := tu.NewRegistry()
	static := inmemorystore.NewStatic(map[nodeid.NodeSlot][]byte{nodeid.New(1, 0): []byte("fixed")})

	require.NoError(t, harness{static: static}.executor(t, tu.ManyToSingle(t), reg).Execute(context.Background()))

	payloads := mod.Sink.Payloads()
	require.Len(t, payloads, 1)
	assert.Equal(t, []string{"fixed"}, decode(t, unwrap(t, payloads[0], 1)))
}

func TestExecute_PluginFailure(t *testing.T) {
	reg, mod := tu.NewRegistry()
	g := tu.BuildGraph(t,
		[]tu.N{{ID: 0, Type: "test.input"}, {ID: 1, Type: "test.fail"}, {ID: 2, Type: "test.sink"}},
		tu.L{Src: 0, Dst: 1}, tu.L{Src: 1, Dst: 2},
	)
	mem := &progress.Memory{}
	err := harness{workers: 2, reporter: mem}.executor(t, g, reg).Execute(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fail plugin invoked")
	assert.Empty(t, mod.Sink.Payloads())

	require.Len(t, mem.Summaries(), 1)
	assert.False(t, mem.Summaries()[0].Succeeded)
	assert.Equal(t, "test-run", mem.Summaries()[0].RunID)
}

type wideProcess struct{ plugin.Info }

func (wideProcess) Process(context.Context, [][]byte) ([][]byte, error) {
	return [][]byte{[]byte("a"), []byte("b")}, nil
}

func TestExecute_PluginContract(t *testing.T) {
	reg, _ := tu.NewRegistry()
	reg.Register("test.wide", wideProcess{plugin.Info{
		Inputs:  []plugin.SlotInfo{{Name: "in"}},
		Outputs: []plugin.SlotInfo{{Name: "out"}},
	}})
	g := tu.BuildGraph(t,
		[]tu.N{{ID: 0, Type: "test.input"}, {ID: 1, Type: "test.wide"}},
		tu.L{Src: 0, Dst: 1},
	)
	err := harness{}.executor(t, g, reg).Execute(context.Background())
	assert.ErrorIs(t, err, localexecutor.ErrPluginContract)
}

func TestExecute_UnknownPlugin(t *testing.T) {
	reg, _ := tu.NewRegistry()
	g := tu.BuildGraph(t,
		[]tu.N{{ID: 0, Type: "test.input"}, {ID: 1, Type: "missing"}},
		tu.L{Src: 0, Dst: 1},
	)
	err := harness{}.executor(t, g, reg).Execute(context.Background())
	assert.ErrorIs(t, err, registry.ErrUnknownPlugin)
}

func TestExecute_NoProgress(t *testing.T) {
	reg, _ := tu.NewRegistry()
	// The sync node only has an input on slot 0, so its slot 1 never holds
	// a value.
	g := tu.BuildGraph(t,
		[]tu.N{{ID: 0, Type: "test.input"}, {ID: 1, Type: "sync"}, {ID: 2, Type: "test.pass"}},
		tu.L{Src: 0, Dst: 1}, tu.L{Src: 1, Dst: 2, SrcSlot: 1},
	)
	err := harness{}.executor(t, g, reg).Execute(context.Background())
	assert.ErrorIs(t, err, localexecutor.ErrNoProgress)
}

func TestExecute_Canceled(t *testing.T) {
	reg, _ := tu.NewRegistry()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := harness{}.executor(t, tu.ManyToSingle(t), reg).Execute(ctx)
	assert.True(t, errors.Is(err, context.Canceled), "got %v", err)
}

type suffixProcess struct {
	plugin.Info
	suffix string
}

func (s suffixProcess) Process(_ context.Context, in [][]byte) ([][]byte, error) {
	out := append([]byte(nil), in[0]...)
	return [][]byte{append(out, s.suffix...)}, nil
}

func (s suffixProcess) Configure(value string) (plugin.Process, error) {
	if value == "" {
		return nil, errors.New("suffix must not be empty")
	}
	s.suffix = value
	return s, nil
}

func TestExecute_ConfigurablePlugin(t *testing.T) {
	newReg := func() (*registry.Registry, *tu.Module) {
		reg, mod := tu.NewRegistry()
		reg.Register("test.suffix", suffixProcess{Info: plugin.Info{
			Inputs:  []plugin.SlotInfo{{Name: "in"}},
			Outputs: []plugin.SlotInfo{{Name: "out"}},
		}})
		return reg, mod
	}
	build := func(value string) *graph.Graph {
		return tu.BuildGraph(t,
			[]tu.N{{ID: 0, Type: "test.input"}, {ID: 1, Type: "test.suffix", Value: value}, {ID: 2, Type: "test.sink"}},
			tu.L{Src: 0, Dst: 1}, tu.L{Src: 1, Dst: 2},
		)
	}

	reg, mod := newReg()
	require.NoError(t, harness{}.executor(t, build("!"), reg).Execute(context.Background()))
	assert.Equal(t, []string{"a0!", "a1!", "a2!", "a3!", "a4!"}, mod.Sink.Payloads())

	reg, _ = newReg()
	err := harness{}.executor(t, build(""), reg).Execute(context.Background())
	assert.ErrorContains(t, err, "suffix must not be empty")
}

func TestExecute_Observability(t *testing.T) {
	reg, _ := tu.NewRegistry()
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	mem := &progress.Memory{}

	require.NoError(t, harness{workers: 2, reporter: mem, tp: tp}.executor(t, tu.ManyToSingle(t), reg).Execute(context.Background()))
	require.NoError(t, tp.Shutdown(context.Background()))

	counts := map[string]int{}
	for _, s := range rec.Ended() {
		counts[s.Name()]++
	}
	// Region 0 runs nodes 0 and 1 five times, region 3 runs nodes 3 and 4 once.
	assert.Equal(t, map[string]int{"pipegrid.Run": 1, "pipegrid.Instance": tu.DataSize + 1, "pipegrid.Node": 2*tu.DataSize + 2}, counts)

	assert.Len(t, mem.Events(), 2*tu.DataSize+2)
	for _, ev := range mem.Events() {
		assert.Equal(t, "completed", ev.Status)
		assert.Equal(t, "test-run", ev.RunID)
	}
	require.Len(t, mem.Summaries(), 1)
	assert.True(t, mem.Summaries()[0].Succeeded)
}
