package matcher

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/vitaliisemenov/alert-history/internal/metrics"
)

// Manager holds the single piece of shared state the whole engine
// reasons about: the active Matcher snapshot (spec.md §5 "Shared
// state: exactly one"). Reads are lock-free (atomic.Value.Load); reloads
// are serialized and, on failure, leave the previous snapshot admitted
// (grounded on teacher's RouteTreeManager in tree_manager.go).
type Manager struct {
	current atomic.Value // *Node

	mu       sync.Mutex
	builder  *TreeBuilder
	log      *slog.Logger
	metrics  *metrics.Metrics
	reloads  int
	failures int
}

// NewManager builds initial and returns a Manager serving it. log may be
// nil, in which case reload events are logged to slog.Default(). collector may be
// nil, in which case rebuild metrics are not recorded.
func NewManager(builder *TreeBuilder, initial NodeConfig, log *slog.Logger, collector *metrics.Metrics) (*Manager, error) {
	if log == nil {
		log = slog.Default()
	}
	start := time.Now()
	root, err := builder.Build(initial)
	collector.RecordRebuild(err == nil, time.Since(start))
	if err != nil {
		return nil, fmt.Errorf("matcher: initial build: %w", err)
	}
	mgr := &Manager{builder: builder, log: log, metrics: collector}
	mgr.current.Store(root)
	log.Info("matcher tree admitted", "rules", countRules(root))
	return mgr, nil
}

// Snapshot returns the currently active Node tree. Safe for unlimited
// concurrent callers; O(1), lock-free.
func (m *Manager) Snapshot() *Node {
	return m.current.Load().(*Node)
}

// Reload compiles cfg and, on success, atomically replaces the active
// snapshot. In-flight evaluations holding the old *Node via an earlier
// Snapshot() call continue unaffected (spec.md §5 "Readers that obtained
// the old handle before the swap continue to use it"). On failure the
// previous snapshot remains active and the error is returned.
func (m *Manager) Reload(cfg NodeConfig) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	start := time.Now()
	next, err := m.builder.Build(cfg)
	m.metrics.RecordRebuild(err == nil, time.Since(start))
	if err != nil {
		m.failures++
		m.log.Error("matcher tree reload failed", "error", err)
		return fmt.Errorf("matcher: reload: %w", err)
	}

	m.current.Store(next)
	m.reloads++
	m.log.Info("matcher tree reloaded", "rules", countRules(next))
	return nil
}

// Stats reports reload counters for operational visibility.
type Stats struct {
	Reloads  int
	Failures int
}

func (m *Manager) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Stats{Reloads: m.reloads, Failures: m.failures}
}

func countRules(n *Node) int {
	total := 0
	switch n.Type {
	case NodeRuleset:
		total += len(n.Rules)
	case NodeFilter, NodeIterator:
		for _, c := range n.Children {
			total += countRules(c)
		}
	}
	return total
}
