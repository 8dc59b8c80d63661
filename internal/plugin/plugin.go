// Package plugin defines the contracts between the runtime and the pluggable
// units that produce and transform data.
//
// Plugins exchange opaque byte payloads. An input plugin announces how many
// items it will produce for a given configuration value and then yields them
// lazily, one batch per item. A process plugin is a pure transform with a
// fixed number of input and output slots.
package plugin

import (
	"context"
	"iter"
)

// Request selects a piece of metadata from Plugin.Information.
type Request int

const (
	// RequestName is the display name of the plugin.
	RequestName Request = iota
	// RequestDescription is a one-line description of the plugin.
	RequestDescription
	// RequestInputName is the display name of an input slot.
	RequestInputName
	// RequestInputType is the type tag of an input slot.
	RequestInputType
	// RequestOutputName is the display name of an output slot.
	RequestOutputName
	// RequestOutputType is the type tag of an output slot.
	RequestOutputType
)

// Plugin is the metadata every plugin exposes.
type Plugin interface {
	InputQty() int
	OutputQty() int
	// Information answers a metadata request. slot is ignored for plugin
	// level requests. Unknown requests return "".
	Information(req Request, slot int) string
}

// Input produces data items. Each item is one batch: a payload per output
// slot.
type Input interface {
	Plugin
	// ProducesCount returns how many items Retrieve will yield for value.
	ProducesCount(value string) int
	// Retrieve yields the items lazily. A failure to read one item is logged
	// by the plugin and yields an empty batch; the sequence continues.
	Retrieve(ctx context.Context, value string) iter.Seq[[][]byte]
}

// Process transforms one payload per input slot into one payload per output
// slot.
type Process interface {
	Plugin
	Process(ctx context.Context, inputs [][]byte) ([][]byte, error)
}

// Configurable is implemented by process plugins that read the node value.
type Configurable interface {
	// Configure returns a copy of the plugin bound to the node's value.
	Configure(value string) (Process, error)
}
