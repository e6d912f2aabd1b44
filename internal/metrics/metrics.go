// Package metrics defines the Prometheus collectors shared across the
// engine packages (tree lifecycle, rule evaluation, dispatch, worker
// pool). The Metrics collectors are registered against one
// caller-supplied registry rather than the global default so a process
// can run more than one Manager without a double-registration panic
// (grounded on the teacher's pkg/metrics.NewWebhookMetrics(registry)
// pattern). The package-level ConfigReload* collectors in
// config_reload.go are the exception: promauto registers them on the
// default registry when the package loads, and nothing records to them.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds every collector the engine records against. A nil
// *Metrics is valid everywhere it's consulted: every Record* method is
// nil-receiver safe, so callers can pass metrics only when enabled
// (mirrors the teacher's `if e.metrics != nil` convention, folded into
// the methods themselves instead of repeated at every call site).
type Metrics struct {
	TreeRebuildsTotal   *prometheus.CounterVec
	TreeRebuildDuration prometheus.Histogram

	RuleEvaluationsTotal *prometheus.CounterVec
	ProcessDuration      prometheus.Histogram

	DispatchedActionsTotal *prometheus.CounterVec
	DispatchDroppedTotal   prometheus.Counter

	WorkerQueueDepth     prometheus.Gauge
	WorkerPanicsTotal    prometheus.Counter
	EventsProcessedTotal prometheus.Counter
}

// New builds and registers every collector against registry. Panics if
// a collector of the same name is already registered on it, per
// promauto's contract — callers own one registry per process.
func New(registry *prometheus.Registry) *Metrics {
	factory := promauto.With(registry)
	const ns, sub = "matcher", "engine"

	return &Metrics{
		TreeRebuildsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: ns, Subsystem: sub,
				Name: "tree_rebuilds_total",
				Help: "Total tree build/reload attempts by result",
			},
			[]string{"result"},
		),
		TreeRebuildDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: ns, Subsystem: sub,
				Name:    "tree_rebuild_duration_seconds",
				Help:    "Time to compile a NodeConfig tree",
				Buckets: prometheus.ExponentialBuckets(0.0001, 2, 12),
			},
		),
		RuleEvaluationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: ns, Subsystem: sub,
				Name: "rule_evaluations_total",
				Help: "Total rule evaluations by terminal status",
			},
			[]string{"status"},
		),
		ProcessDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: ns, Subsystem: sub,
				Name:    "process_duration_seconds",
				Help:    "Time to run one event through the matcher tree",
				Buckets: prometheus.ExponentialBuckets(0.00001, 2, 14),
			},
		),
		DispatchedActionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: ns, Subsystem: sub,
				Name: "dispatched_actions_total",
				Help: "Total actions published to the event bus, by action id",
			},
			[]string{"action_id"},
		),
		DispatchDroppedTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: ns, Subsystem: sub,
				Name: "dispatch_dropped_total",
				Help: "Total actions dropped because the primary bus channel was full",
			},
		),
		WorkerQueueDepth: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: ns, Subsystem: sub,
				Name: "worker_queue_depth",
				Help: "Current number of events buffered in the worker pool queue",
			},
		),
		WorkerPanicsTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: ns, Subsystem: sub,
				Name: "worker_panics_total",
				Help: "Total per-event panics recovered by worker tasks",
			},
		),
		EventsProcessedTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: ns, Subsystem: sub,
				Name: "events_processed_total",
				Help: "Total events fully processed by worker tasks",
			},
		),
	}
}

// RecordRebuild records a tree build/reload attempt's outcome.
func (m *Metrics) RecordRebuild(ok bool, d time.Duration) {
	if m == nil {
		return
	}
	result := "success"
	if !ok {
		result = "failure"
	}
	m.TreeRebuildsTotal.WithLabelValues(result).Inc()
	m.TreeRebuildDuration.Observe(d.Seconds())
}

// RecordProcess records one Process() call's terminal node status and
// duration.
func (m *Metrics) RecordProcess(status string, d time.Duration) {
	if m == nil {
		return
	}
	m.RuleEvaluationsTotal.WithLabelValues(status).Inc()
	m.ProcessDuration.Observe(d.Seconds())
}

// RecordDispatch records one action published to the event bus.
func (m *Metrics) RecordDispatch(actionID string) {
	if m == nil {
		return
	}
	m.DispatchedActionsTotal.WithLabelValues(actionID).Inc()
}

// RecordDropped records one action dropped by a full bus channel.
func (m *Metrics) RecordDropped() {
	if m == nil {
		return
	}
	m.DispatchDroppedTotal.Inc()
}

// SetWorkerQueueDepth reports the worker pool's current queue length.
func (m *Metrics) SetWorkerQueueDepth(n int) {
	if m == nil {
		return
	}
	m.WorkerQueueDepth.Set(float64(n))
}

// RecordWorkerPanic records one recovered per-event worker panic.
func (m *Metrics) RecordWorkerPanic() {
	if m == nil {
		return
	}
	m.WorkerPanicsTotal.Inc()
}

// RecordEventProcessed records one event fully processed by a worker.
func (m *Metrics) RecordEventProcessed() {
	if m == nil {
		return
	}
	m.EventsProcessedTotal.Inc()
}
