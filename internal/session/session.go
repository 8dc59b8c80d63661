// Package session defines the core interfaces for creating and managing an
// execution session. A session is one build cycle of an authored graph: the
// description is turned into a graph, checked, analyzed and multiplied into
// pipeline instances, ready to be executed. It abstracts away the details
// of how and where the instances run.
package session

import (
	"context"

	"github.com/vk/pipegrid/internal/config"
	"github.com/vk/pipegrid/internal/executor"
	"github.com/vk/pipegrid/internal/graph"
	"github.com/vk/pipegrid/internal/pipeline"
	"github.com/vk/pipegrid/internal/registry"
	"github.com/vk/pipegrid/internal/special"
)

// SessionFactory creates an execution Session. Different implementations can
// support various backends.
type SessionFactory interface {
	NewSession(
		ctx context.Context,
		model *config.Model,
		reg *registry.Registry,
	) (Session, error)
}

// Session represents a single built graph and manages its lifecycle.
type Session interface {
	// GetExecutor returns the executor that runs the built instances.
	GetExecutor() (executor.Executor, error)
	// Plan describes what was built.
	Plan() *Plan
	// Close releases any resources held by the session. It accepts a context
	// to allow for graceful cleanup operations.
	Close(ctx context.Context) error
}

// Plan is the outcome of a build, as shown by the plan command.
type Plan struct {
	Graph     *graph.Graph
	Data      *special.Data
	Pipelines []*pipeline.Pipeline
}
