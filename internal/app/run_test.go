package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/pipegrid/internal/progress"
	"github.com/vk/pipegrid/internal/registry"
	"github.com/vk/pipegrid/modules/fileinput"
	"github.com/vk/pipegrid/modules/gather"
	"github.com/vk/pipegrid/modules/print"
	"github.com/vk/pipegrid/modules/text"
)

// gatherGraph upper-cases every file matched by pattern, gathers the
// results behind a sync node and prints them joined by commas.
func gatherGraph(pattern, label string) string {
	return fmt.Sprintf(`
node "0" {
  type  = "input.files"
  value = %q
}

node "1" {
  type = "text.upper"
}

node "2" {
  type = "sync"
}

node "3" {
  type  = "gather.join"
  value = ","
}

node "4" {
  type  = "output.print"
  value = %q
}

link {
  from = "0.0"
  to   = "1.0"
}

link {
  from = "1.0"
  to   = "2.0"
}

link {
  from = "2.0"
  to   = "3.0"
}

link {
  from = "3.0"
  to   = "4.0"
}
`, pattern, label)
}

type fixture struct {
	graph   string
	pattern string
	out   *SafeBuffer
	mods  []registry.Module
}

func newFixture(t *testing.T, label string) *fixture {
	t.Helper()
	data := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(data, "a.txt"), []byte("alpha"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(data, "b.txt"), []byte("bravo"), 0o600))

	pattern := filepath.Join(data, "*.txt")
	graph := filepath.Join(t.TempDir(), "main.hcl")
	require.NoError(t, os.WriteFile(graph, []byte(gatherGraph(pattern, label)), 0o600))

	out := &SafeBuffer{}
	return &fixture{
		graph:   graph,
		pattern: pattern,
		out:     out,
		mods:    []registry.Module{&fileinput.Module{}, &text.Module{}, &gather.Module{}, &print.Module{Out: out}},
	}
}

func TestRun_GatherAndPrint(t *testing.T) {
	f := newFixture(t, "result")
	a, logs := SetupAppTest(t, Config{GridPaths: []string{f.graph}}, f.mods...)

	mem := &progress.Memory{}
	a.dial = func(context.Context, *Config) (progress.Reporter, error) { return mem, nil }

	require.NoError(t, a.Run(context.Background()))
	assert.Equal(t, "      result = \"ALPHA,BRAVO\"\n", f.out.String())
	assert.Contains(t, logs.String(), "Execution finished.")

	sums := mem.Summaries()
	require.Len(t, sums, 1)
	assert.True(t, sums[0].Succeeded)
	assert.Equal(t, 3, sums[0].Instances)
	assert.NotEmpty(t, sums[0].RunID)
	assert.Len(t, mem.Events(), 6, "two nodes per instance")
}

func TestRun_BuildFailure(t *testing.T) {
	graph := filepath.Join(t.TempDir(), "main.hcl")
	require.NoError(t, os.WriteFile(graph, []byte(`
node "0" {
  type = "no.such.plugin"
}
`), 0o600))

	a, _ := SetupAppTest(t, Config{GridPaths: []string{graph}})
	err := a.Run(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, registry.ErrUnknownPlugin))
	assert.Contains(t, err.Error(), "failed to build pipelines")
}

func TestRun_LoadFailure(t *testing.T) {
	a, _ := SetupAppTest(t, Config{GridPaths: []string{filepath.Join(t.TempDir(), "absent.hcl")}})
	err := a.Run(context.Background())
	require.ErrorContains(t, err, "failed to load graph description")
}

func TestRun_ReporterFailure(t *testing.T) {
	f := newFixture(t, "")
	a, _ := SetupAppTest(t, Config{GridPaths: []string{f.graph}}, f.mods...)
	a.dial = func(context.Context, *Config) (progress.Reporter, error) { return nil, errors.New("refused") }

	require.ErrorContains(t, a.Run(context.Background()), "refused")
	assert.Empty(t, f.out.String(), "nothing runs without a reporter")
}

func TestPlan(t *testing.T) {
	f := newFixture(t, "")
	a, _ := SetupAppTest(t, Config{GridPaths: []string{f.graph}}, f.mods...)

	out := &strings.Builder{}
	require.NoError(t, a.Plan(context.Background(), out))

	plan := out.String()
	assert.Contains(t, plan, "nodes: 5  regions: 2  sync nodes: 1  loops: 0  instances: 3")
	assert.Contains(t, plan, "GROUP")
	assert.Contains(t, plan, "g0/1")
	assert.Empty(t, f.out.String(), "plan does not run")
}

func TestWatch_RerunsOnChange(t *testing.T) {
	f := newFixture(t, "first")
	a, _ := SetupAppTest(t, Config{GridPaths: []string{f.graph}}, f.mods...)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Watch(ctx) }()

	require.Eventually(t, func() bool {
		return strings.Contains(f.out.String(), `first = "ALPHA,BRAVO"`)
	}, 5*time.Second, 20*time.Millisecond)

	require.NoError(t, os.WriteFile(f.graph, []byte(gatherGraph(f.pattern, "second")), 0o600))

	require.Eventually(t, func() bool {
		return strings.Contains(f.out.String(), `second = "ALPHA,BRAVO"`)
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Watch did not stop")
	}
}
