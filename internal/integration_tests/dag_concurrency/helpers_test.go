package integration_tests

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/vk/pipegrid/internal/plugin"
	"github.com/vk/pipegrid/internal/registry"
	tu "github.com/vk/pipegrid/internal/testutil"
)

// ExecutionRecord holds the start and end times of one plugin call.
type ExecutionRecord struct {
	Start time.Time
	End   time.Time
}

// mockSleeperModule registers "test.sleeper", which passes its input through
// after a delay, and "test.after", which records when it ran.
type mockSleeperModule struct {
	sleepDuration time.Duration

	mu             sync.Mutex
	executionTimes map[string]*ExecutionRecord
	active         int
	maxActive      int
	afterAt        time.Time
	afterInput     string
}

func newSleeperModule(d time.Duration) *mockSleeperModule {
	return &mockSleeperModule{sleepDuration: d, executionTimes: make(map[string]*ExecutionRecord)}
}

type sleeper struct {
	plugin.Info
	m *mockSleeperModule
}

func (s *sleeper) Process(ctx context.Context, inputs [][]byte) ([][]byte, error) {
	id := string(inputs[0])
	s.m.mu.Lock()
	s.m.executionTimes[id] = &ExecutionRecord{Start: time.Now()}
	s.m.active++
	s.m.maxActive = max(s.m.maxActive, s.m.active)
	s.m.mu.Unlock()

	select {
	case <-time.After(s.m.sleepDuration):
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	s.m.mu.Lock()
	s.m.executionTimes[id].End = time.Now()
	s.m.active--
	s.m.mu.Unlock()
	return [][]byte{inputs[0]}, nil
}

type after struct {
	plugin.Info
	m *mockSleeperModule
}

func (a *after) Process(_ context.Context, inputs [][]byte) ([][]byte, error) {
	a.m.mu.Lock()
	defer a.m.mu.Unlock()
	a.m.afterAt = time.Now()
	a.m.afterInput = string(inputs[0])
	return nil, nil
}

func (m *mockSleeperModule) Register(r *registry.Registry) {
	r.Register("test.sleeper", &sleeper{Info: plugin.Info{
		Name:    "Sleeper",
		Inputs:  []plugin.SlotInfo{{Name: "in"}},
		Outputs: []plugin.SlotInfo{{Name: "out"}},
	}, m: m})
	r.Register("test.after", &after{Info: plugin.Info{
		Name:   "After",
		Inputs: []plugin.SlotInfo{{Name: "in"}},
	}, m: m})
}

// writeItems writes n input files named item<i>.txt holding "item<i>" and
// returns their glob pattern.
func writeItems(t *testing.T, dir string, n int) string {
	t.Helper()
	for i := 0; i < n; i++ {
		tu.WriteFile(t, dir, fmt.Sprintf("data/item%d.txt", i), fmt.Sprintf("item%d", i))
	}
	return filepath.Join(dir, "data", "*.txt")
}
