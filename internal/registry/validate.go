package registry

import (
	"context"
	"errors"
	"fmt"

	"github.com/vk/pipegrid/internal/ctxlog"
	"github.com/vk/pipegrid/internal/graph"
	"github.com/vk/pipegrid/internal/node"
	"github.com/vk/pipegrid/internal/plugin"
)

var (
	// ErrUnknownPlugin is returned for plugin nodes whose type is not registered.
	ErrUnknownPlugin = errors.New("unknown plugin type")
	// ErrSlotOutOfRange is returned when an edge uses a slot the plugin does not declare.
	ErrSlotOutOfRange = errors.New("slot out of range")
	// ErrTypeMismatch is returned when the type tags on an edge disagree.
	ErrTypeMismatch = errors.New("slot type mismatch")
)

// TypeError describes an edge whose producer and consumer declare different
// type tags.
type TypeError struct {
	FromNode, FromSlot int
	ToNode, ToSlot     int
	FromType, ToType   string
}

func (e *TypeError) Error() string {
	return fmt.Sprintf("edge %d.%d -> %d.%d: output type %q does not match input type %q: %v",
		e.FromNode, e.FromSlot, e.ToNode, e.ToSlot, e.FromType, e.ToType, ErrTypeMismatch)
}

func (e *TypeError) Unwrap() error {
	return ErrTypeMismatch
}

// ValidateNodes checks that every plugin node resolves to a registered
// plugin and only uses slots that plugin declares.
func (r *Registry) ValidateNodes(ctx context.Context, g *graph.Graph) error {
	logger := ctxlog.FromContext(ctx)
	for _, n := range g.Nodes() {
		if n.Kind().IsSpecial() {
			continue
		}
		p, ok := r.Lookup(n.Type)
		if !ok {
			return fmt.Errorf("node %d (%q): %w", n.ID, n.Type, ErrUnknownPlugin)
		}
		for _, slot := range n.InputSlots() {
			if slot >= p.InputQty() {
				return fmt.Errorf("node %d (%q) input slot %d, plugin declares %d: %w", n.ID, n.Type, slot, p.InputQty(), ErrSlotOutOfRange)
			}
		}
		for _, slot := range n.OutputSlots() {
			if slot >= p.OutputQty() {
				return fmt.Errorf("node %d (%q) output slot %d, plugin declares %d: %w", n.ID, n.Type, slot, p.OutputQty(), ErrSlotOutOfRange)
			}
		}
		if len(n.InputSlots()) < p.InputQty() {
			logger.Warn("Plugin node has unconnected inputs and will never become ready without static values.",
				"node", n.ID, "type", n.Type, "connected", len(n.InputSlots()), "declared", p.InputQty())
		}
	}
	return nil
}

// CheckEdges type-checks every edge whose both ends are plugin nodes. Empty
// type tags act as wildcards, and edges touching sync or loop nodes are not
// checked.
func (r *Registry) CheckEdges(g *graph.Graph) error {
	for _, consumer := range g.Nodes() {
		to, ok := r.Lookup(consumer.Type)
		if !ok || consumer.Kind() != node.KindPlugin {
			continue
		}
		for _, inSlot := range consumer.InputSlots() {
			dep, _ := consumer.DependencyAt(inSlot)
			producer, ok := g.Node(dep.NodeID)
			if !ok || producer.Kind() != node.KindPlugin {
				continue
			}
			from, ok := r.Lookup(producer.Type)
			if !ok {
				continue
			}
			fromType := from.Information(plugin.RequestOutputType, dep.Slot)
			toType := to.Information(plugin.RequestInputType, inSlot)
			if fromType == "" || toType == "" || fromType == toType {
				continue
			}
			return &TypeError{
				FromNode: producer.ID, FromSlot: dep.Slot,
				ToNode: consumer.ID, ToSlot: inSlot,
				FromType: fromType, ToType: toType,
			}
		}
	}
	return nil
}
