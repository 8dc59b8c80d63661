package localexecutor

import (
	"context"
	"fmt"
	"slices"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vk/pipegrid/internal/ctxlog"
	"github.com/vk/pipegrid/internal/graph"
	"github.com/vk/pipegrid/internal/node"
	"github.com/vk/pipegrid/internal/pipeline"
	"github.com/vk/pipegrid/internal/plugin"
	"github.com/vk/pipegrid/internal/progress"
	"github.com/vk/pipegrid/internal/scheduler"
	"github.com/vk/pipegrid/internal/task"
)

type outcome int

const (
	outcomeDone outcome = iota
	// outcomeRepeat means a loop body was reset and readiness must be
	// recomputed.
	outcomeRepeat
	// outcomeDrain means an input ran dry and the instance stops.
	outcomeDrain
)

// runInstance drives one pipeline instance until every node has finished.
func (r *run) runInstance(ctx context.Context, p *pipeline.Pipeline) (err error) {
	ctx, span := r.tracer.Start(ctx, "pipegrid.Instance", trace.WithAttributes(
		attribute.String("pipeline.id", p.ID),
		attribute.Int("pipeline.group", p.Group),
		attribute.Int("pipeline.index", p.Index),
	))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()
	ctx = ctxlog.With(ctx, "pipeline", p.ID)
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Instance started.", "nodes", p.Nodes, "items", p.Items)
	r.metrics.InstanceStarted()

	sch := scheduler.New(p, r.g, r.data, r.static)
	inbox := r.inboxes[p]
	expected, received := cap(inbox), 0

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		for pending := true; pending; {
			select {
			case d := <-inbox:
				if err := r.apply(p, d); err != nil {
					return err
				}
				received++
			default:
				pending = false
			}
		}

		ready := sch.Ready()
		if len(ready) == 0 {
			if sch.Done() {
				logger.Debug("Instance finished.")
				return nil
			}
			if received < expected {
				select {
				case d := <-inbox:
					if err := r.apply(p, d); err != nil {
						return err
					}
					received++
					continue
				case <-ctx.Done():
					return ctx.Err()
				}
			}
			return fmt.Errorf("pipeline %s: nodes %v wait on inputs that can never arrive: %w", p.ID, sch.Pending(), ErrNoProgress)
		}

	batch:
		for _, n := range ready {
			if sch.Status(n.ID) != node.StatusPending {
				continue
			}
			res, err := r.runNode(ctx, sch, p, n)
			if err != nil {
				return err
			}
			switch res {
			case outcomeRepeat:
				break batch
			case outcomeDrain:
				return r.drain(ctx, sch, p)
			}
		}
	}
}

// drain stops the instance, telling every sync node it feeds not to wait
// for it.
func (r *run) drain(ctx context.Context, sch scheduler.Scheduler, p *pipeline.Pipeline) error {
	ctxlog.FromContext(ctx).Warn("Instance drained; its remaining nodes are skipped.", "pending", sch.Pending())
	sch.Drain()
	for _, id := range p.Nodes {
		n, ok := r.g.Node(id)
		if !ok {
			continue
		}
		if err := r.contribute(ctx, p, n, nil, true); err != nil {
			return err
		}
	}
	return nil
}

// runNode executes one ready node of the instance.
func (r *run) runNode(ctx context.Context, sch scheduler.Scheduler, p *pipeline.Pipeline, n *graph.DependentNode) (res outcome, err error) {
	start := time.Now()
	if sch.Precomputed(n) {
		sch.Mark(n.ID, node.StatusSkipped)
		r.finish(ctx, p, n, node.StatusSkipped, start, nil)
		return outcomeDone, nil
	}

	ctx, span := r.tracer.Start(ctx, "pipegrid.Node", trace.WithAttributes(
		attribute.String("pipeline.id", p.ID),
		attribute.Int("node.id", n.ID),
		attribute.String("node.type", n.Type),
	))
	defer span.End()
	ctx = ctxlog.With(ctx, "node_id", n.ID, "node_type", n.Type)

	sch.Mark(n.ID, node.StatusRunning)
	var outputs [][]byte

	switch n.Kind() {
	case node.KindLoopStart:
		t := task.New(p, n, slotCount(n.InputSlots()), r.static)
		outputs = t.Inputs

	case node.KindLoopEnd:
		t := task.New(p, n, slotCount(n.InputSlots()), r.static)
		again, err := sch.EndIteration(n.ID, t.Inputs)
		if err != nil {
			return r.fail(ctx, span, sch, p, n, start, err)
		}
		if again {
			span.SetAttributes(attribute.Bool("loop.repeat", true))
			return outcomeRepeat, nil
		}
		outputs = t.Inputs

	default:
		if in, ok := r.reg.Input(n.Type); ok {
			batch, ok, err := r.retrieve(ctx, p, n, in)
			if err != nil {
				return r.fail(ctx, span, sch, p, n, start, err)
			}
			if !ok {
				sch.Mark(n.ID, node.StatusSkipped)
				r.finish(ctx, p, n, node.StatusSkipped, start, nil)
				return outcomeDrain, nil
			}
			outputs = batch
			break
		}
		proc, ok := r.procs[n.ID]
		if !ok {
			return r.fail(ctx, span, sch, p, n, start, fmt.Errorf("node %d: no plugin bound for type %q", n.ID, n.Type))
		}
		t := task.New(p, n, proc.InputQty(), r.static)
		outputs, err = r.process(ctx, t, proc)
		if err != nil {
			return r.fail(ctx, span, sch, p, n, start, err)
		}
	}

	t := &task.Task{Pipeline: p, Node: n}
	if err := t.Store(outputs); err != nil {
		return r.fail(ctx, span, sch, p, n, start, err)
	}
	if err := r.contribute(ctx, p, n, outputs, false); err != nil {
		return r.fail(ctx, span, sch, p, n, start, err)
	}
	sch.Mark(n.ID, node.StatusCompleted)
	r.finish(ctx, p, n, node.StatusCompleted, start, nil)
	return outcomeDone, nil
}

// retrieve reads the item of an input node assigned to the instance. It
// reports false when the input produced fewer items, or a shorter batch,
// than it announced.
func (r *run) retrieve(ctx context.Context, p *pipeline.Pipeline, n *graph.DependentNode, in plugin.Input) ([][]byte, bool, error) {
	k, ok := p.Item(n.ID)
	if !ok {
		k = 0
	}
	if err := r.sem.Acquire(ctx, 1); err != nil {
		return nil, false, err
	}
	batch, ok := r.feeds[n.ID].item(k)
	r.sem.Release(1)

	if !ok || len(batch) < in.OutputQty() {
		ctxlog.FromContext(ctx).Warn("Input produced a short batch.", "item", k, "payloads", len(batch), "declared", in.OutputQty())
		return nil, false, nil
	}
	return batch[:in.OutputQty()], true, nil
}

func (r *run) process(ctx context.Context, t *task.Task, proc plugin.Process) ([][]byte, error) {
	if err := r.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer r.sem.Release(1)

	ctxlog.FromContext(ctx).Debug("Processing node.", t.LogArgs()...)
	outputs, err := proc.Process(ctx, t.Inputs)
	if err != nil {
		return nil, fmt.Errorf("pipeline %s node %d (%q): %w", t.Pipeline.ID, t.Node.ID, t.Node.Type, err)
	}
	if len(outputs) != proc.OutputQty() {
		return nil, fmt.Errorf("pipeline %s node %d (%q) returned %d outputs, declares %d: %w",
			t.Pipeline.ID, t.Node.ID, t.Node.Type, len(outputs), proc.OutputQty(), ErrPluginContract)
	}
	return outputs, nil
}

func (r *run) fail(ctx context.Context, span trace.Span, sch scheduler.Scheduler, p *pipeline.Pipeline, n *graph.DependentNode, start time.Time, err error) (outcome, error) {
	sch.Mark(n.ID, node.StatusFailed)
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	ctxlog.FromContext(ctx).Error("Node execution failed.", "error", err)
	r.finish(ctx, p, n, node.StatusFailed, start, err)
	return outcomeDone, err
}

func (r *run) finish(ctx context.Context, p *pipeline.Pipeline, n *graph.DependentNode, status node.Status, start time.Time, err error) {
	d := time.Since(start)
	r.metrics.NodeFinished(n.Type, status.String(), d)
	ev := progress.Event{
		RunID:    r.id,
		Pipeline: p.ID,
		NodeID:   n.ID,
		NodeType: n.Type,
		Status:   status.String(),
		Seconds:  d.Seconds(),
	}
	if err != nil {
		ev.Error = err.Error()
	}
	r.reporter.NodeFinished(ctx, ev)
}

// slotCount returns the number of slots needed to address every given slot.
func slotCount(slots []int) int {
	if len(slots) == 0 {
		return 0
	}
	return slices.Max(slots) + 1
}
