// Package worker runs a fixed-size pool of event-processing tasks
// (spec.md §5, component J): each task holds a shared, hot-swappable
// Matcher snapshot and evaluates submitted events independently, with
// no cross-event state.
package worker

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sourcegraph/conc"

	"github.com/vitaliisemenov/alert-history/internal/accessor"
	"github.com/vitaliisemenov/alert-history/internal/dispatcher"
	"github.com/vitaliisemenov/alert-history/internal/event"
	"github.com/vitaliisemenov/alert-history/internal/matcher"
	"github.com/vitaliisemenov/alert-history/internal/metrics"
	"github.com/vitaliisemenov/alert-history/internal/rule"
	"github.com/vitaliisemenov/alert-history/internal/scope"
)

// Pool is a fixed-size set of worker tasks reading from one shared
// queue, each resolving events against the Manager's current snapshot
// (spec.md §5 "Readers that obtained the old handle before the swap
// continue to use it until they finish their current event"). Built on
// conc.WaitGroup instead of hand-rolled goroutine+WaitGroup plumbing;
// a panic while processing one event is recovered by processOne's own
// defer/recover and counted, so the worker task keeps running (grounded
// on the teacher's per-goroutine panic recovery in multi_receiver.go).
type Pool struct {
	manager *matcher.Manager
	bus     dispatcher.EventBus
	queue   chan event.Event
	size    int
	wg      conc.WaitGroup
	log     *slog.Logger
	metrics *metrics.Metrics

	onProcessed func(event.Event, matcher.ProcessedNode)

	mu     sync.Mutex
	closed bool

	processed atomic.Int64
	panics    atomic.Int64
}

// NewPool returns a Pool of size workers reading from a queue buffered
// to queueSize. log and collector may both be nil.
func NewPool(size, queueSize int, manager *matcher.Manager, bus dispatcher.EventBus, log *slog.Logger, collector *metrics.Metrics) *Pool {
	if size <= 0 {
		size = 1
	}
	if queueSize <= 0 {
		queueSize = 1
	}
	if log == nil {
		log = slog.Default()
	}
	return &Pool{
		manager: manager,
		bus:     bus,
		queue:   make(chan event.Event, queueSize),
		size:    size,
		log:     log,
		metrics: collector,
	}
}

// OnProcessed installs a callback invoked with every evaluated event's
// ProcessedNode (serve uses it to print each result as NDJSON). Must be called
// before Start; not safe for concurrent use with Submit.
func (p *Pool) OnProcessed(fn func(event.Event, matcher.ProcessedNode)) {
	p.onProcessed = fn
}

// Start launches the worker tasks. Safe to call once.
func (p *Pool) Start() {
	for i := 0; i < p.size; i++ {
		p.wg.Go(p.run)
	}
}

// Submit enqueues ev for processing. It blocks if the queue is full —
// backpressure is the caller's responsibility to manage (e.g. an
// ingress adapter imposing its own timeout), per spec.md §5's
// "Cancellation/timeouts" note. Returns ErrPoolClosed once Close has
// been called.
func (p *Pool) Submit(ev event.Event) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrPoolClosed
	}
	p.mu.Unlock()

	p.queue <- ev
	p.metrics.SetWorkerQueueDepth(len(p.queue))
	return nil
}

// Close stops accepting new events and waits for in-flight and queued
// events to finish processing.
func (p *Pool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	p.mu.Unlock()

	close(p.queue)
	p.wg.Wait()
}

// Processed reports the total number of events evaluated across all
// workers, for metrics.
func (p *Pool) Processed() int64 { return p.processed.Load() }

// Panics reports the total number of recovered per-event panics.
func (p *Pool) Panics() int64 { return p.panics.Load() }

// resultLabel condenses a ProcessedNode into one metrics label: the
// node's own status for Filter/Iterator, or the most significant
// per-rule status for a Ruleset (Matched > PartiallyMatched >
// NotMatched), so rule_evaluations_total stays a single label per
// event rather than one series per node type.
func resultLabel(pn matcher.ProcessedNode) string {
	switch pn.Type {
	case matcher.NodeFilter:
		return string(pn.FilterStatus)
	case matcher.NodeIterator:
		return string(pn.IteratorStatus)
	case matcher.NodeRuleset:
		best := rule.StatusNotProcessed
		for _, r := range pn.Rules {
			switch r.Status {
			case rule.StatusMatched:
				return string(rule.StatusMatched)
			case rule.StatusPartiallyMatched:
				best = rule.StatusPartiallyMatched
			case rule.StatusNotMatched:
				if best == rule.StatusNotProcessed {
					best = rule.StatusNotMatched
				}
			}
		}
		return string(best)
	default:
		return "unknown"
	}
}

func (p *Pool) run() {
	for ev := range p.queue {
		p.processOne(ev)
	}
}

func (p *Pool) processOne(ev event.Event) {
	defer func() {
		p.metrics.SetWorkerQueueDepth(len(p.queue))
		if r := recover(); r != nil {
			p.panics.Add(1)
			p.metrics.RecordWorkerPanic()
			p.log.Error("worker: recovered panic processing event", "trace_id", ev.TraceID, "panic", r)
		}
	}()

	snapshot := p.manager.Snapshot()
	ctx := accessor.Context{Event: event.NewInternal(ev), Scope: scope.New()}

	start := time.Now()
	result := matcher.Process(snapshot, ctx)
	p.metrics.RecordProcess(resultLabel(result), time.Since(start))

	dispatcher.Dispatch(result, p.bus)
	p.processed.Add(1)
	p.metrics.RecordEventProcessed()

	if p.onProcessed != nil {
		p.onProcessed(ev, result)
	}
}
