// Package text provides string transforms: "text.upper", "text.reverse"
// and "text.concat".
package text

import (
	"bytes"
	"context"
	"slices"
	"strings"

	"github.com/vk/pipegrid/internal/plugin"
	"github.com/vk/pipegrid/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register registers the plugins with the registry.
func (m *Module) Register(r *registry.Registry) {
	r.Register("text.upper", NewUpper())
	r.Register("text.reverse", NewReverse())
	r.Register("text.concat", NewConcat(""))
}

var textSlot = []plugin.SlotInfo{{Name: "text", Type: "text"}}

// Upper upper-cases its input.
type Upper struct{ plugin.Info }

// NewUpper creates the plugin.
func NewUpper() *Upper {
	return &Upper{plugin.Info{
		Name:        "Upper",
		Description: "Converts text to upper case.",
		Inputs:      textSlot,
		Outputs:     textSlot,
	}}
}

// Process implements plugin.Process.
func (u *Upper) Process(_ context.Context, inputs [][]byte) ([][]byte, error) {
	return [][]byte{bytes.ToUpper(inputs[0])}, nil
}

// Reverse reverses its input rune by rune.
type Reverse struct{ plugin.Info }

// NewReverse creates the plugin.
func NewReverse() *Reverse {
	return &Reverse{plugin.Info{
		Name:        "Reverse",
		Description: "Reverses text.",
		Inputs:      textSlot,
		Outputs:     textSlot,
	}}
}

// Process implements plugin.Process.
func (r *Reverse) Process(_ context.Context, inputs [][]byte) ([][]byte, error) {
	runes := bytes.Runes(inputs[0])
	slices.Reverse(runes)
	return [][]byte{[]byte(string(runes))}, nil
}

// Concat joins two inputs with the separator taken from the node value.
type Concat struct {
	plugin.Info
	sep string
}

var _ plugin.Configurable = (*Concat)(nil)

// NewConcat creates the plugin with a separator.
func NewConcat(sep string) *Concat {
	return &Concat{
		Info: plugin.Info{
			Name:        "Concat",
			Description: "Joins two texts, separated by the node value.",
			Inputs:      []plugin.SlotInfo{{Name: "left", Type: "text"}, {Name: "right", Type: "text"}},
			Outputs:     textSlot,
		},
		sep: sep,
	}
}

// Configure binds the separator.
func (c *Concat) Configure(value string) (plugin.Process, error) {
	return NewConcat(value), nil
}

// Process implements plugin.Process.
func (c *Concat) Process(_ context.Context, inputs [][]byte) ([][]byte, error) {
	var b strings.Builder
	b.Grow(len(inputs[0]) + len(c.sep) + len(inputs[1]))
	b.Write(inputs[0])
	b.WriteString(c.sep)
	b.Write(inputs[1])
	return [][]byte{[]byte(b.String())}, nil
}
