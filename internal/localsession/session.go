// Package localsession provides a concrete implementation of the
// session.Session and session.SessionFactory interfaces for local,
// in-process execution.
package localsession

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/trace"

	"github.com/vk/pipegrid/internal/builder"
	"github.com/vk/pipegrid/internal/config"
	"github.com/vk/pipegrid/internal/ctxlog"
	"github.com/vk/pipegrid/internal/executor"
	"github.com/vk/pipegrid/internal/graph"
	"github.com/vk/pipegrid/internal/inmemorystore"
	"github.com/vk/pipegrid/internal/localexecutor"
	"github.com/vk/pipegrid/internal/metrics"
	"github.com/vk/pipegrid/internal/nodeid"
	"github.com/vk/pipegrid/internal/progress"
	"github.com/vk/pipegrid/internal/registry"
	"github.com/vk/pipegrid/internal/session"
	"github.com/vk/pipegrid/internal/special"
)

// SessionFactory implements session.SessionFactory for local runs.
type SessionFactory struct {
	Workers  int
	Reporter progress.Reporter
	Metrics  *metrics.Metrics
	Tracer   trace.Tracer
}

var _ session.SessionFactory = (*SessionFactory)(nil)

// NewSession builds the graph described by model and wires an executor for
// it. Any structural problem aborts the build.
func (f *SessionFactory) NewSession(
	ctx context.Context,
	model *config.Model,
	reg *registry.Registry,
) (session.Session, error) {
	s, err := f.build(ctx, model, reg)
	f.Metrics.BuildFinished(err)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (f *SessionFactory) build(ctx context.Context, model *config.Model, reg *registry.Registry) (*Session, error) {
	logger := ctxlog.FromContext(ctx)

	if err := model.Validate(); err != nil {
		return nil, fmt.Errorf("invalid graph description: %w", err)
	}
	g, err := graph.FromModel(model)
	if err != nil {
		return nil, fmt.Errorf("building graph: %w", err)
	}
	logger.Debug("Graph built.", "nodes", g.Len(), "links", len(model.Links))

	if err := reg.ValidateNodes(ctx, g); err != nil {
		return nil, err
	}
	if err := reg.CheckEdges(g); err != nil {
		return nil, err
	}

	values := make(map[nodeid.NodeSlot][]byte, len(model.Static))
	for _, s := range model.Static {
		values[s.Slot] = s.Value
	}
	static := inmemorystore.NewStatic(values)

	data, err := special.Detect(ctx, g, static)
	if err != nil {
		return nil, err
	}
	res, err := builder.Build(ctx, g, data, reg)
	if err != nil {
		return nil, err
	}

	exec := localexecutor.New(localexecutor.Params{
		Graph:     g,
		Data:      data,
		Pipelines: res.Pipelines,
		Registry:  reg,
		Static:    static,
		Workers:   f.Workers,
		Reporter:  f.Reporter,
		Metrics:   f.Metrics,
		Tracer:    f.Tracer,
	})

	return &Session{
		executor: exec,
		plan:     &session.Plan{Graph: g, Data: data, Pipelines: res.Pipelines},
	}, nil
}

// Session implements session.Session for local runs.
type Session struct {
	executor *localexecutor.Executor
	plan     *session.Plan
}

// GetExecutor returns the executor that was created and wired up by the factory.
func (s *Session) GetExecutor() (executor.Executor, error) {
	return s.executor, nil
}

// Plan returns the build result.
func (s *Session) Plan() *session.Plan {
	return s.plan
}

// Close is a no-op; instance stores are released with the session.
func (s *Session) Close(ctx context.Context) error {
	ctxlog.FromContext(ctx).Debug("Local session closed.")
	return nil
}
