// Package gather provides "gather.join", which flattens the aggregate a
// sync node delivers back into a single text.
package gather

import (
	"bytes"
	"context"
	"fmt"

	"github.com/vk/pipegrid/internal/plugin"
	"github.com/vk/pipegrid/internal/registry"
	"github.com/vk/pipegrid/internal/syncdata"
)

// DefaultSeparator is used when the node value is empty.
const DefaultSeparator = "\n"

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register registers the plugin with the registry.
func (m *Module) Register(r *registry.Registry) {
	r.Register("gather.join", NewJoin(DefaultSeparator))
}

// Join decodes a sync aggregate and joins its payloads in instance order.
type Join struct {
	plugin.Info
	sep []byte
}

var _ plugin.Configurable = (*Join)(nil)

// NewJoin creates the plugin with a separator.
func NewJoin(sep string) *Join {
	return &Join{
		Info: plugin.Info{
			Name:        "Join",
			Description: "Joins every payload gathered by a sync node.",
			Inputs:      []plugin.SlotInfo{{Name: "aggregate", Type: "aggregate"}},
			Outputs:     []plugin.SlotInfo{{Name: "text", Type: "text"}, {Name: "count", Type: "text"}},
		},
		sep: []byte(sep),
	}
}

// Configure binds the separator. An empty value keeps DefaultSeparator.
func (j *Join) Configure(value string) (plugin.Process, error) {
	if value == "" {
		value = DefaultSeparator
	}
	return NewJoin(value), nil
}

// Process implements plugin.Process. The second output is the number of
// joined payloads.
func (j *Join) Process(_ context.Context, inputs [][]byte) ([][]byte, error) {
	parts, err := syncdata.Decode(inputs[0])
	if err != nil {
		return nil, fmt.Errorf("gather.join: %w", err)
	}
	return [][]byte{
		bytes.Join(parts, j.sep),
		[]byte(fmt.Sprint(len(parts))),
	}, nil
}
