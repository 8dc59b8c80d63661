package graph

import (
	"fmt"

	"github.com/vk/pipegrid/internal/config"
)

// FromModel builds a graph from an authored description. The first
// structural error aborts the build and no graph is returned.
func FromModel(m *config.Model) (*Graph, error) {
	g := New()
	for _, n := range m.SortedNodes() {
		dn, err := g.AddNode(n.ID, n.Type, n.Value)
		if err != nil {
			return nil, err
		}
		dn.Title = n.Title
	}
	for _, l := range m.Links {
		if err := g.Connect(l.From.NodeID, l.From.Slot, l.To.NodeID, l.To.Slot); err != nil {
			return nil, fmt.Errorf("link %d (%s -> %s): %w", l.ID, l.From, l.To, err)
		}
	}
	return g, nil
}
