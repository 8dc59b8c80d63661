package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/vk/pipegrid/internal/localsession"
	"github.com/vk/pipegrid/internal/progress"
	"github.com/vk/pipegrid/internal/session"
	"github.com/vk/pipegrid/internal/watch"
)

type reporterDialer func(ctx context.Context, cfg *Config) (progress.Reporter, error)

func dialReporter(ctx context.Context, cfg *Config) (progress.Reporter, error) {
	if cfg.ProgressURL == "" {
		return progress.Nop{}, nil
	}
	r, err := progress.DialSocketIO(ctx, progress.SocketIOOptions{
		URL:       cfg.ProgressURL,
		Namespace: cfg.ProgressNamespace,
		Timeout:   10 * time.Second,
	})
	if err != nil {
		return nil, err
	}
	return r, nil
}

// Run loads, builds and executes the configured graph once.
func (a *App) Run(ctx context.Context) error {
	ctx = a.context(ctx)
	a.logger.Debug("App.Run method started.")

	if err := a.startHealthcheckServer(a.config.HealthcheckPort); err != nil {
		return err
	}
	defer a.closeHealthcheckServer()

	reporter, err := a.dial(ctx, a.config)
	if err != nil {
		return fmt.Errorf("failed to connect progress reporter: %w", err)
	}
	defer reporter.Close()

	err = a.runOnce(ctx, reporter)
	a.logger.Debug("App.Run method finished.")
	return err
}

// Watch runs the graph and then runs it again every time one of its
// description files changes, until ctx is canceled. A failed run is logged
// and does not stop watching.
func (a *App) Watch(ctx context.Context) error {
	ctx = a.context(ctx)

	if err := a.startHealthcheckServer(a.config.HealthcheckPort); err != nil {
		return err
	}
	defer a.closeHealthcheckServer()

	reporter, err := a.dial(ctx, a.config)
	if err != nil {
		return fmt.Errorf("failed to connect progress reporter: %w", err)
	}
	defer reporter.Close()

	w, err := watch.New(a.config.GridPaths, watch.DefaultOptions())
	if err != nil {
		return err
	}
	defer w.Close()

	if err := a.runOnce(ctx, reporter); err != nil {
		a.logger.Error("Run failed.", "error", err)
	}
	a.logger.Info("👀 Watching for changes...", "paths", a.config.GridPaths)

	err = w.Run(ctx, func(ctx context.Context, changes []watch.Change) {
		a.logger.Info("🔁 Change detected, rebuilding.", "files", len(changes), "path", changes[0].Path, "op", changes[0].Op.String())
		if err := a.runOnce(ctx, reporter); err != nil {
			a.logger.Error("Run failed.", "error", err)
		}
	})
	if errors.Is(err, context.Canceled) {
		a.logger.Info("Watch stopped.")
		return nil
	}
	return err
}

// Plan builds the configured graph and writes its pipeline layout to w
// without running anything.
func (a *App) Plan(ctx context.Context, w io.Writer) error {
	ctx = a.context(ctx)
	sess, err := a.newSession(ctx, progress.Nop{})
	if err != nil {
		return err
	}
	defer sess.Close(ctx)
	return writePlan(w, sess.Plan())
}

func (a *App) newSession(ctx context.Context, reporter progress.Reporter) (session.Session, error) {
	a.logger.Debug("Loading graph description...", "paths", a.config.GridPaths)
	model, err := a.loader.Load(ctx, a.config.GridPaths...)
	if err != nil {
		return nil, fmt.Errorf("failed to load graph description: %w", err)
	}
	a.logger.Debug("Graph description loaded.", "nodes", len(model.Nodes), "links", len(model.Links))

	factory := &localsession.SessionFactory{
		Workers:  a.config.Workers,
		Reporter: reporter,
		Metrics:  a.metrics,
		Tracer:   a.tracer,
	}
	sess, err := factory.NewSession(ctx, model, a.registry)
	if err != nil {
		return nil, fmt.Errorf("failed to build pipelines: %w", err)
	}
	return sess, nil
}

func (a *App) runOnce(ctx context.Context, reporter progress.Reporter) error {
	sess, err := a.newSession(ctx, reporter)
	if err != nil {
		return err
	}
	defer sess.Close(ctx)

	plan := sess.Plan()
	if plan.Graph.Len() == 0 {
		a.logger.Warn("No nodes found in graph, execution not required.")
		return nil
	}

	exec, err := sess.GetExecutor()
	if err != nil {
		return fmt.Errorf("failed to get executor: %w", err)
	}

	a.logger.Info("🚀 Starting concurrent execution...", "instances", len(plan.Pipelines), "workers", a.config.Workers)
	if err := exec.Execute(ctx); err != nil {
		return fmt.Errorf("execution failed: %w", err)
	}
	a.logger.Info("🏁 Execution finished.")
	return nil
}
