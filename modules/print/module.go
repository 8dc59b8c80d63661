// Package print provides "output.print", which writes every payload it
// receives to the standard output.
package print

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"sync"

	"github.com/vk/pipegrid/internal/ctxlog"
	"github.com/vk/pipegrid/internal/plugin"
	"github.com/vk/pipegrid/internal/registry"
)

// Module implements the registry.Module interface for this package. Out
// defaults to os.Stdout.
type Module struct {
	Out io.Writer
}

// Register registers the plugin with the registry.
func (m *Module) Register(r *registry.Registry) {
	out := m.Out
	if out == nil {
		out = os.Stdout
	}
	r.Register("output.print", New(out, ""))
}

// Printer writes one quoted line per payload, labelled with the node value.
type Printer struct {
	plugin.Info
	out   *lockedWriter
	label string
}

var _ plugin.Configurable = (*Printer)(nil)

type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

// New creates the plugin writing to out.
func New(out io.Writer, label string) *Printer {
	return &Printer{
		Info: plugin.Info{
			Name:        "Print",
			Description: "Prints each payload on its own line.",
			Inputs:      []plugin.SlotInfo{{Name: "value"}},
		},
		out:   &lockedWriter{w: out},
		label: label,
	}
}

// Configure binds the label. Configured copies share the writer.
func (p *Printer) Configure(value string) (plugin.Process, error) {
	return &Printer{Info: p.Info, out: p.out, label: value}, nil
}

// Process implements plugin.Process.
func (p *Printer) Process(ctx context.Context, inputs [][]byte) ([][]byte, error) {
	ctxlog.FromContext(ctx).Info("Printing input", "label", p.label, "bytes", len(inputs[0]))

	line := "      " + strconv.Quote(string(inputs[0]))
	if p.label != "" {
		line = fmt.Sprintf("      %s = %s", p.label, strconv.Quote(string(inputs[0])))
	}

	p.out.mu.Lock()
	defer p.out.mu.Unlock()
	if _, err := fmt.Fprintln(p.out.w, line); err != nil {
		return nil, fmt.Errorf("output.print: %w", err)
	}
	return nil, nil
}
