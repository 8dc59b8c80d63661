// Package metrics holds the prometheus collectors of a pipegrid process.
//
// Every method is safe on a nil *Metrics, so components can be wired
// without metrics in tests.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "pipegrid"

// Metrics is the set of collectors, registered on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	builds       *prometheus.CounterVec
	runs         *prometheus.CounterVec
	instances    prometheus.Counter
	nodes        *prometheus.CounterVec
	nodeDuration *prometheus.HistogramVec
	syncs        prometheus.Counter
}

// New creates the collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Metrics{
		registry: reg,
		builds: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "builds_total",
			Help:      "Graph builds by result.",
		}, []string{"result"}),
		runs: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Runs by result.",
		}, []string{"result"}),
		instances: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pipeline_instances_total",
			Help:      "Pipeline instances started.",
		}),
		nodes: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "node_executions_total",
			Help:      "Node executions by node type and final status.",
		}, []string{"type", "status"}),
		nodeDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "node_duration_seconds",
			Help:      "Time spent executing a node.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"type"}),
		syncs: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sync_fired_total",
			Help:      "Sync barriers released.",
		}),
	}
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// BuildFinished counts a graph build.
func (m *Metrics) BuildFinished(err error) {
	if m == nil {
		return
	}
	m.builds.WithLabelValues(result(err)).Inc()
}

// RunFinished counts a run.
func (m *Metrics) RunFinished(err error) {
	if m == nil {
		return
	}
	m.runs.WithLabelValues(result(err)).Inc()
}

// InstanceStarted counts a started pipeline instance.
func (m *Metrics) InstanceStarted() {
	if m == nil {
		return
	}
	m.instances.Inc()
}

// NodeFinished records one node execution.
func (m *Metrics) NodeFinished(nodeType, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.nodes.WithLabelValues(nodeType, status).Inc()
	m.nodeDuration.WithLabelValues(nodeType).Observe(d.Seconds())
}

// SyncFired counts a released sync barrier.
func (m *Metrics) SyncFired() {
	if m == nil {
		return
	}
	m.syncs.Inc()
}

// Gatherer exposes the private registry.
func (m *Metrics) Gatherer() prometheus.Gatherer {
	return m.registry
}

// Handler serves the collectors in the prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
