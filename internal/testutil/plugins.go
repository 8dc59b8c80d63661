package testutil

import (
	"bytes"
	"context"
	"fmt"
	"iter"
	"slices"
	"sync"

	"github.com/vk/pipegrid/internal/plugin"
	"github.com/vk/pipegrid/internal/registry"
)

// DataSize is the quantity produced by the "test.input" plugin.
const DataSize = 5

// CountInput produces Count items, each a single payload "<prefix><index>".
// Items listed in Fail yield an empty batch, as a failed read would.
type CountInput struct {
	plugin.Info
	Count  int
	Prefix string
	Fail   map[int]bool

	mu        sync.Mutex
	retrieved int
}

// NewCountInput creates an input plugin with one untyped output.
func NewCountInput(count int, prefix string) *CountInput {
	return &CountInput{
		Info:   plugin.Info{Name: "Count", Outputs: []plugin.SlotInfo{{Name: "item"}}},
		Count:  count,
		Prefix: prefix,
	}
}

// ProducesCount returns Count.
func (c *CountInput) ProducesCount(string) int { return c.Count }

// Retrieve yields the items in order.
func (c *CountInput) Retrieve(_ context.Context, _ string) iter.Seq[[][]byte] {
	c.mu.Lock()
	c.retrieved++
	c.mu.Unlock()
	return func(yield func([][]byte) bool) {
		for i := 0; i < c.Count; i++ {
			batch := [][]byte{[]byte(fmt.Sprintf("%s%d", c.Prefix, i))}
			if c.Fail[i] {
				batch = nil
			}
			if !yield(batch) {
				return
			}
		}
	}
}

// Retrievals returns how many times Retrieve was called.
func (c *CountInput) Retrievals() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.retrieved
}

// Join concatenates its inputs with "+".
type Join struct{ plugin.Info }

// NewJoin creates a join plugin with n untyped inputs and one output.
func NewJoin(n int) *Join {
	j := &Join{Info: plugin.Info{Name: fmt.Sprintf("Join%d", n), Outputs: []plugin.SlotInfo{{Name: "out"}}}}
	for i := 0; i < n; i++ {
		j.Inputs = append(j.Inputs, plugin.SlotInfo{Name: fmt.Sprintf("in%d", i)})
	}
	return j
}

// Process joins the inputs.
func (j *Join) Process(_ context.Context, inputs [][]byte) ([][]byte, error) {
	return [][]byte{bytes.Join(inputs, []byte("+"))}, nil
}

// Split copies its single input to two outputs.
type Split struct{ plugin.Info }

// Process duplicates the input.
func (s *Split) Process(_ context.Context, inputs [][]byte) ([][]byte, error) {
	return [][]byte{slices.Clone(inputs[0]), slices.Clone(inputs[0])}, nil
}

// Pass prefixes its input with "p(" and suffixes it with ")".
type Pass struct{ plugin.Info }

// Process wraps the input.
func (p *Pass) Process(_ context.Context, inputs [][]byte) ([][]byte, error) {
	return [][]byte{[]byte("p(" + string(inputs[0]) + ")")}, nil
}

// Fail always returns an error.
type Fail struct{ plugin.Info }

// Process fails.
func (f *Fail) Process(context.Context, [][]byte) ([][]byte, error) {
	return nil, fmt.Errorf("fail plugin invoked")
}

// Recorder is a sink that remembers every payload it receives.
type Recorder struct {
	plugin.Info

	mu       sync.Mutex
	payloads [][]byte
}

// NewRecorder creates a sink with one untyped input.
func NewRecorder() *Recorder {
	return &Recorder{Info: plugin.Info{Name: "Recorder", Inputs: []plugin.SlotInfo{{Name: "in"}}}}
}

// Process records the input.
func (r *Recorder) Process(_ context.Context, inputs [][]byte) ([][]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.payloads = append(r.payloads, slices.Clone(inputs[0]))
	return nil, nil
}

// Payloads returns the recorded payloads sorted lexically.
func (r *Recorder) Payloads() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.payloads))
	for i, p := range r.payloads {
		out[i] = string(p)
	}
	slices.Sort(out)
	return out
}

// Module registers the test plugins used by the scenario graphs.
type Module struct {
	Input      *CountInput
	LargeInput *CountInput
	Sink       *Recorder
}

// NewModule creates the test plugins: "test.input" yields DataSize items,
// "test.input.large" twice as many.
func NewModule() *Module {
	return &Module{
		Input:      NewCountInput(DataSize, "a"),
		LargeInput: NewCountInput(DataSize*2, "b"),
		Sink:       NewRecorder(),
	}
}

// Register implements registry.Module.
func (m *Module) Register(r *registry.Registry) {
	r.Register("test.input", m.Input)
	r.Register("test.input.large", m.LargeInput)
	r.Register("test.pass", &Pass{plugin.Info{
		Name:    "Pass",
		Inputs:  []plugin.SlotInfo{{Name: "in"}},
		Outputs: []plugin.SlotInfo{{Name: "out"}},
	}})
	r.Register("test.split", &Split{plugin.Info{
		Name:    "Split",
		Inputs:  []plugin.SlotInfo{{Name: "in"}},
		Outputs: []plugin.SlotInfo{{Name: "a"}, {Name: "b"}},
	}})
	r.Register("test.join2", NewJoin(2))
	r.Register("test.join3", NewJoin(3))
	r.Register("test.fail", &Fail{plugin.Info{
		Name:    "Fail",
		Inputs:  []plugin.SlotInfo{{Name: "in"}},
		Outputs: []plugin.SlotInfo{{Name: "out"}},
	}})
	r.Register("test.sink", m.Sink)
}

// NewRegistry returns a registry loaded with a fresh test module.
func NewRegistry() (*registry.Registry, *Module) {
	m := NewModule()
	r := registry.New()
	r.Load(m)
	return r, m
}
