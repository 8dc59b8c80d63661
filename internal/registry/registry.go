package registry

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/vk/pipegrid/internal/graph"
	"github.com/vk/pipegrid/internal/node"
	"github.com/vk/pipegrid/internal/plugin"
)

// Module is the interface that all plugin modules must implement to be registered.
type Module interface {
	Register(r *Registry)
}

// Registry holds every registered plugin for a single application instance.
type Registry struct {
	plugins map[string]plugin.Plugin
}

// New creates and initializes a new Registry instance.
func New() *Registry {
	return &Registry{plugins: make(map[string]plugin.Plugin)}
}

// Load registers every module.
func (r *Registry) Load(modules ...Module) {
	for _, m := range modules {
		m.Register(r)
	}
}

// Register adds a plugin under a node type. Registering a reserved or
// already used type is a programmer error and panics.
func (r *Registry) Register(typeName string, p plugin.Plugin) {
	if typeName == "" {
		panic("plugin type must not be empty")
	}
	if node.KindOf(typeName).IsSpecial() {
		panic(fmt.Sprintf("plugin type '%s' is reserved", typeName))
	}
	if _, exists := r.plugins[typeName]; exists {
		panic(fmt.Sprintf("plugin with type '%s' already registered", typeName))
	}
	slog.Debug("Registering plugin.", "type", typeName, "kind", plugin.KindOf(p))
	r.plugins[typeName] = p
}

// Lookup returns the plugin registered for a node type.
func (r *Registry) Lookup(typeName string) (plugin.Plugin, bool) {
	p, ok := r.plugins[typeName]
	return p, ok
}

// Input returns the input plugin registered for a node type.
func (r *Registry) Input(typeName string) (plugin.Input, bool) {
	p, ok := r.plugins[typeName].(plugin.Input)
	return p, ok
}

// Process returns the process plugin registered for a node type.
func (r *Registry) Process(typeName string) (plugin.Process, bool) {
	p, ok := r.plugins[typeName].(plugin.Process)
	return p, ok
}

// Types returns the registered node types in lexical order.
func (r *Registry) Types() []string {
	types := make([]string, 0, len(r.plugins))
	for t := range r.plugins {
		types = append(types, t)
	}
	slices.Sort(types)
	return types
}

// Describe returns the metadata of every registered plugin.
func (r *Registry) Describe() []plugin.Descriptor {
	var out []plugin.Descriptor
	for _, t := range r.Types() {
		out = append(out, plugin.Describe(t, r.plugins[t]))
	}
	return out
}

// Quantity returns how many items an input node produces. Nodes that are not
// backed by an input plugin report false.
func (r *Registry) Quantity(n *graph.DependentNode) (int, bool) {
	in, ok := r.Input(n.Type)
	if !ok {
		return 0, false
	}
	return in.ProducesCount(n.Value), true
}
