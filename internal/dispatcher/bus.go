package dispatcher

import (
	"log/slog"
	"sync"

	"github.com/vitaliisemenov/alert-history/internal/metrics"
	"github.com/vitaliisemenov/alert-history/internal/rule"
)

// ChannelBus is a concrete, non-blocking EventBus backed by a buffered
// channel, grounded on the teacher's DefaultEventBus in
// internal/realtime/bus.go: Publish never blocks (a full channel drops
// the action and logs rather than stalling the caller), and a set of
// best-effort debug subscribers can additionally be tee'd every
// published action for the ops server's debug stream (spec.md §5
// "best-effort fan-out with no replay buffer").
type ChannelBus struct {
	out chan rule.Action

	mu          sync.RWMutex
	subscribers map[chan rule.Action]bool
	dropped     int64

	log     *slog.Logger
	metrics *metrics.Metrics
}

// NewChannelBus returns a ChannelBus whose primary sink is buffered to
// capacity (a non-positive capacity uses 1000). Actions are consumed via Out(). log and
// collector may both be nil.
func NewChannelBus(capacity int, log *slog.Logger, collector *metrics.Metrics) *ChannelBus {
	if capacity <= 0 {
		capacity = 1000
	}
	if log == nil {
		log = slog.Default()
	}
	return &ChannelBus{
		out:         make(chan rule.Action, capacity),
		subscribers: make(map[chan rule.Action]bool),
		log:         log,
		metrics:     collector,
	}
}

// Out returns the channel egress executors read published actions from.
func (b *ChannelBus) Out() <-chan rule.Action {
	return b.out
}

// Publish implements EventBus. It never blocks: a full primary channel
// drops the action (counted, logged); debug subscribers are tee'd
// best-effort and a full subscriber channel simply misses the action.
func (b *ChannelBus) Publish(action rule.Action) {
	select {
	case b.out <- action:
		b.metrics.RecordDispatch(action.ID)
	default:
		b.mu.Lock()
		b.dropped++
		b.mu.Unlock()
		b.metrics.RecordDropped()
		b.log.Warn("dispatcher: primary channel full, dropping action", "action_id", action.ID)
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	for sub := range b.subscribers {
		select {
		case sub <- action:
		default:
		}
	}
}

// Subscribe registers sub to receive a best-effort tee of every
// published action, used by the ops server's debug stream.
func (b *ChannelBus) Subscribe(sub chan rule.Action) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[sub] = true
}

// Unsubscribe removes sub from the tee set.
func (b *ChannelBus) Unsubscribe(sub chan rule.Action) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.subscribers, sub)
}

// Dropped reports how many actions were dropped due to a full primary
// channel, for metrics.
func (b *ChannelBus) Dropped() int64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.dropped
}
