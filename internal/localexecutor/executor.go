package localexecutor

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/vk/pipegrid/internal/ctxlog"
	"github.com/vk/pipegrid/internal/executor"
	"github.com/vk/pipegrid/internal/graph"
	"github.com/vk/pipegrid/internal/inmemorystore"
	"github.com/vk/pipegrid/internal/metrics"
	"github.com/vk/pipegrid/internal/node"
	"github.com/vk/pipegrid/internal/nodeid"
	"github.com/vk/pipegrid/internal/nodestore"
	"github.com/vk/pipegrid/internal/pipeline"
	"github.com/vk/pipegrid/internal/plugin"
	"github.com/vk/pipegrid/internal/progress"
	"github.com/vk/pipegrid/internal/registry"
	"github.com/vk/pipegrid/internal/special"
)

// Params wires an Executor.
type Params struct {
	Graph     *graph.Graph
	Data      *special.Data
	Pipelines []*pipeline.Pipeline
	Registry  *registry.Registry
	// Static is the frozen static store. Nil means empty.
	Static nodestore.Reader
	// Workers bounds concurrent plugin calls. Zero means one per CPU.
	Workers int
	// RunID tags logs, spans and progress events. Generated when empty.
	RunID string

	Reporter progress.Reporter
	Metrics  *metrics.Metrics
	Tracer   trace.Tracer
}

// Executor implements the executor.Executor interface for local execution.
type Executor struct {
	p Params
}

var _ executor.Executor = (*Executor)(nil)

// New creates a new local executor.
func New(p Params) *Executor {
	if p.Static == nil {
		p.Static = inmemorystore.NewStatic(nil)
	}
	if p.Workers <= 0 {
		p.Workers = runtime.NumCPU()
	}
	if p.Reporter == nil {
		p.Reporter = progress.Nop{}
	}
	if p.Tracer == nil {
		p.Tracer = otel.Tracer("pipegrid/localexecutor")
	}
	return &Executor{p: p}
}

// RunID returns the id of the run, generating it on first use.
func (e *Executor) RunID() string {
	if e.p.RunID == "" {
		e.p.RunID = uuid.NewString()
	}
	return e.p.RunID
}

// Execute runs every pipeline instance to completion.
func (e *Executor) Execute(ctx context.Context) error {
	runID := e.RunID()
	ctx = ctxlog.With(ctx, "run_id", runID)
	logger := ctxlog.FromContext(ctx)

	ctx, span := e.p.Tracer.Start(ctx, "pipegrid.Run", trace.WithAttributes(
		attribute.String("run.id", runID),
		attribute.Int("run.instances", len(e.p.Pipelines)),
		attribute.Int("run.syncs", len(e.p.Data.Sync.SyncNodes)),
	))
	defer span.End()

	start := time.Now()
	logger.Info("Run started.", "instances", len(e.p.Pipelines), "workers", e.p.Workers)

	err := e.execute(ctx, runID)

	summary := progress.Summary{
		RunID:     runID,
		Instances: len(e.p.Pipelines),
		Succeeded: err == nil,
		Seconds:   time.Since(start).Seconds(),
	}
	e.p.Metrics.RunFinished(err)
	if err != nil {
		summary.Error = err.Error()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logger.Error("Run failed.", "error", err, "duration", time.Since(start))
	} else {
		span.SetStatus(codes.Ok, "")
		logger.Info("Run completed.", "duration", time.Since(start))
	}
	e.p.Reporter.RunFinished(ctx, summary)
	return err
}

func (e *Executor) execute(ctx context.Context, runID string) error {
	if err := e.p.Registry.ValidateNodes(ctx, e.p.Graph); err != nil {
		return err
	}
	procs, err := e.configure(ctx)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	r := &run{
		id:       runID,
		g:        e.p.Graph,
		data:     e.p.Data,
		reg:      e.p.Registry,
		static:   e.p.Static,
		procs:    procs,
		sem:      semaphore.NewWeighted(int64(e.p.Workers)),
		reporter: e.p.Reporter,
		metrics:  e.p.Metrics,
		tracer:   e.p.Tracer,
		feeds:    make(map[int]*feed),
		barriers: make(map[int]*barrier),
		inboxes:  make(map[*pipeline.Pipeline]chan delivery, len(e.p.Pipelines)),
	}
	defer r.closeFeeds()

	for _, n := range e.p.Graph.Nodes() {
		if in, ok := e.p.Registry.Input(n.Type); ok && n.Kind() == node.KindPlugin {
			r.feeds[n.ID] = newFeed(gctx, in, n.Value)
		}
	}
	r.setupInboxes(e.p.Pipelines)
	r.setupBarriers(e.p.Pipelines)

	// Sync nodes fed only by static values or by regions without instances
	// are released before any instance starts.
	for _, s := range e.p.Data.Sync.SyncNodes {
		out, err := r.barriers[s.ID].release()
		if err != nil {
			return err
		}
		if out != nil {
			if err := r.fire(gctx, s.ID, out); err != nil {
				return err
			}
		}
	}

	for _, p := range e.p.Pipelines {
		g.Go(func() error {
			return r.runInstance(gctx, p)
		})
	}
	return g.Wait()
}

// configure binds configurable process plugins to their node values.
func (e *Executor) configure(ctx context.Context) (map[int]plugin.Process, error) {
	procs := make(map[int]plugin.Process)
	for _, n := range e.p.Graph.Nodes() {
		if n.Kind() != node.KindPlugin {
			continue
		}
		proc, ok := e.p.Registry.Process(n.Type)
		if !ok {
			continue
		}
		if c, ok := proc.(plugin.Configurable); ok {
			bound, err := c.Configure(n.Value)
			if err != nil {
				return nil, fmt.Errorf("configuring node %d (%q): %w", n.ID, n.Type, err)
			}
			ctxlog.FromContext(ctx).Debug("Plugin configured.", "node_id", n.ID, "type", n.Type)
			proc = bound
		}
		procs[n.ID] = proc
	}
	return procs, nil
}

// delivery is the released output of one sync node.
type delivery struct {
	syncID  int
	outputs map[int][]byte
}

// run is the state shared by the instances of one Execute call.
type run struct {
	id       string
	g        *graph.Graph
	data     *special.Data
	reg      *registry.Registry
	static   nodestore.Reader
	procs    map[int]plugin.Process
	sem      *semaphore.Weighted
	reporter progress.Reporter
	metrics  *metrics.Metrics
	tracer   trace.Tracer

	feeds    map[int]*feed
	barriers map[int]*barrier
	inboxes  map[*pipeline.Pipeline]chan delivery
	// triggers maps every sync node to the instances it delivers to.
	triggers map[int][]*pipeline.Pipeline
}

func (r *run) closeFeeds() {
	for _, f := range r.feeds {
		f.close()
	}
}

// setupInboxes sizes every inbox to the number of sync nodes triggering the
// instance, so that delivering never blocks.
func (r *run) setupInboxes(pipes []*pipeline.Pipeline) {
	counts := make(map[*pipeline.Pipeline]int, len(pipes))
	r.triggers = make(map[int][]*pipeline.Pipeline)
	for _, s := range r.data.Sync.SyncNodes {
		if s.TriggeredPipelines == nil {
			continue
		}
		for _, p := range s.TriggeredPipelines.Instances {
			counts[p]++
			r.triggers[s.ID] = append(r.triggers[s.ID], p)
		}
	}
	for _, p := range pipes {
		r.inboxes[p] = make(chan delivery, counts[p])
	}
}

func (r *run) setupBarriers(pipes []*pipeline.Pipeline) {
	for _, s := range r.data.Sync.SyncNodes {
		b := newBarrier(s.ID)
		n, _ := r.g.Node(s.ID)
		for _, inSlot := range n.InputSlots() {
			dep, _ := n.DependencyAt(inSlot)
			if v, ok := r.static.Get(dep); ok {
				b.prefill(inSlot, v)
				continue
			}
			producer, _ := r.g.Node(dep.NodeID)
			if producer.Kind() == node.KindSync {
				b.expect(inSlot, 1)
				continue
			}
			count := 0
			for _, p := range pipes {
				if p.Runs(dep.NodeID) {
					count++
				}
			}
			b.expect(inSlot, count)
		}
		r.barriers[s.ID] = b
	}
}

// fire hands the released outputs of a sync node to the instances it
// triggers and to downstream sync nodes.
func (r *run) fire(ctx context.Context, syncID int, outputs map[int][]byte) error {
	logger := ctxlog.FromContext(ctx)
	r.metrics.SyncFired()
	logger.Debug("Sync barrier released.", "sync_id", syncID, "instances", len(r.triggers[syncID]))

	for _, p := range r.triggers[syncID] {
		r.inboxes[p] <- delivery{syncID: syncID, outputs: outputs}
	}

	n, _ := r.g.Node(syncID)
	for slot, v := range outputs {
		for _, target := range n.DependentsAt(slot) {
			if tn, ok := r.g.Node(target.NodeID); !ok || tn.Kind() != node.KindSync {
				continue
			}
			out, err := r.barriers[target.NodeID].contribute(target.Slot, fmt.Sprintf("sync/%d", syncID), contribution{value: v})
			if err != nil {
				return err
			}
			if out != nil {
				if err := r.fire(ctx, target.NodeID, out); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// contribute sends the outputs of a node of p to the sync nodes it feeds.
// With skip set, the instance reports that it will not produce the values.
func (r *run) contribute(ctx context.Context, p *pipeline.Pipeline, n *graph.DependentNode, outputs [][]byte, skip bool) error {
	for _, slot := range n.OutputSlots() {
		var v []byte
		if slot < len(outputs) {
			v = outputs[slot]
		}
		for _, target := range n.DependentsAt(slot) {
			tn, ok := r.g.Node(target.NodeID)
			if !ok || tn.Kind() != node.KindSync {
				continue
			}
			out, err := r.barriers[target.NodeID].contribute(target.Slot, p.ID, contribution{order: p.Index, value: v, skip: skip})
			if err != nil {
				return err
			}
			if out != nil {
				if err := r.fire(ctx, target.NodeID, out); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// apply writes a delivery into the instance store.
func (r *run) apply(p *pipeline.Pipeline, d delivery) error {
	for slot, v := range d.outputs {
		if err := p.Store.Set(nodeid.New(d.syncID, slot), v); err != nil {
			return fmt.Errorf("pipeline %s: storing output of sync node %d: %w", p.ID, d.syncID, err)
		}
	}
	return nil
}
