// Package dispatcher walks a ProcessedEvent and publishes every Matched
// rule's actions onto an EventBus (spec.md §4.7, component H).
package dispatcher

import (
	"github.com/vitaliisemenov/alert-history/internal/matcher"
	"github.com/vitaliisemenov/alert-history/internal/rule"
)

// EventBus is the abstract action sink (spec.md §6 "EventBus contract").
// Publish must be non-blocking from the Dispatcher's point of view and
// safe for concurrent use; backpressure and enqueueing are the
// implementation's concern, not the Dispatcher's.
type EventBus interface {
	Publish(action rule.Action)
}

// Dispatch walks root depth-first and publishes every Action belonging
// to a rule whose Status is Matched. Rules in any other status
// (NotMatched, PartiallyMatched, NotProcessed) are skipped — they remain
// visible in root for auditing but never reach the bus. Dispatch is
// stateless and panics only if bus itself panics.
func Dispatch(root matcher.ProcessedNode, bus EventBus) {
	switch root.Type {
	case matcher.NodeFilter:
		for _, child := range root.Children {
			Dispatch(child, bus)
		}
	case matcher.NodeIterator:
		for _, item := range root.Items {
			for _, child := range item.Nodes {
				Dispatch(child, bus)
			}
		}
	case matcher.NodeRuleset:
		for _, processed := range root.Rules {
			if processed.Status != rule.StatusMatched {
				continue
			}
			for _, action := range processed.Actions {
				bus.Publish(action)
			}
		}
	}
}
