package matcher

import (
	"github.com/vitaliisemenov/alert-history/internal/accessor"
	"github.com/vitaliisemenov/alert-history/internal/operator"
	"github.com/vitaliisemenov/alert-history/internal/rule"
	"github.com/vitaliisemenov/alert-history/internal/scope"
)

// Node is the compiled form of a NodeConfig — exactly one of the
// per-kind fields below is meaningful, selected by Type (spec.md §3
// "MatcherConfig").
type Node struct {
	Type NodeType
	Name string

	// Filter
	Active bool
	Filter operator.Operator // nil == always true

	// Filter / Iterator
	Children []*Node

	// Iterator
	Target accessor.Accessor

	// Ruleset
	Rules []*rule.Rule
}

// Status is a node's per-evaluation result status (spec.md §6
// "ProcessedEvent format").
type Status string

const (
	StatusMatched       Status = "Matched"
	StatusNotMatched    Status = "NotMatched"
	StatusInactive      Status = "Inactive"
	StatusAccessorError Status = "AccessorError"
	StatusTypeError     Status = "TypeError"
)

// IteratorItem is one element's sub-evaluation inside an Iterator
// (spec.md §4.6 "the Iterator's events field holds the per-element
// ProcessedNodes").
type IteratorItem struct {
	Index int
	Nodes []ProcessedNode
}

// ProcessedNode mirrors a Node's shape with per-evaluation results
// (spec.md §3 "ProcessedNode").
type ProcessedNode struct {
	Type NodeType
	Name string

	// Filter
	FilterStatus Status
	Children     []ProcessedNode

	// Iterator
	IteratorStatus Status
	Items          []IteratorItem

	// Ruleset
	Rules []rule.Processed
}

// Process evaluates n against ctx, recursing into children per spec.md
// §4.6. It never panics and never returns an error: every failure mode
// (inactive filter, absent/non-array iterator target) is folded into a
// Status on the returned ProcessedNode.
func Process(n *Node, ctx accessor.Context) ProcessedNode {
	switch n.Type {
	case NodeFilter:
		return processFilter(n, ctx)
	case NodeIterator:
		return processIterator(n, ctx)
	case NodeRuleset:
		return processRuleset(n, ctx)
	default:
		return ProcessedNode{Type: n.Type, Name: n.Name, FilterStatus: StatusTypeError}
	}
}

func processFilter(n *Node, ctx accessor.Context) ProcessedNode {
	if !n.Active {
		return ProcessedNode{Type: NodeFilter, Name: n.Name, FilterStatus: StatusInactive}
	}
	if n.Filter != nil && !n.Filter.Evaluate(ctx) {
		return ProcessedNode{Type: NodeFilter, Name: n.Name, FilterStatus: StatusNotMatched}
	}
	children := make([]ProcessedNode, len(n.Children))
	for i, c := range n.Children {
		children[i] = Process(c, ctx)
	}
	return ProcessedNode{Type: NodeFilter, Name: n.Name, FilterStatus: StatusMatched, Children: children}
}

func processIterator(n *Node, ctx accessor.Context) ProcessedNode {
	v, ok := n.Target.Resolve(ctx)
	if !ok {
		return ProcessedNode{Type: NodeIterator, Name: n.Name, IteratorStatus: StatusAccessorError}
	}
	arr, ok := v.AsArray()
	if !ok {
		return ProcessedNode{Type: NodeIterator, Name: n.Name, IteratorStatus: StatusTypeError}
	}

	items := make([]IteratorItem, len(arr))
	for i, elem := range arr {
		itemCtx := ctx
		itemCtx.Scope = ctx.Scope.WithItem(scope.Item{Value: elem, Index: i})
		nodes := make([]ProcessedNode, len(n.Children))
		for j, c := range n.Children {
			nodes[j] = Process(c, itemCtx)
		}
		items[i] = IteratorItem{Index: i, Nodes: nodes}
	}
	return ProcessedNode{Type: NodeIterator, Name: n.Name, IteratorStatus: StatusMatched, Items: items}
}

func processRuleset(n *Node, ctx accessor.Context) ProcessedNode {
	// A Ruleset's extracted variables are visible only within that
	// Ruleset's own rule chain (spec.md §3 invariant iii); start from a
	// fresh Vars while keeping whatever Iterator Item is in scope.
	rulesetCtx := ctx
	rulesetCtx.Scope = ctx.Scope.WithVars(scope.NewVars())

	processed := make([]rule.Processed, 0, len(n.Rules))
	for _, r := range n.Rules {
		p := r.Evaluate(rulesetCtx)
		processed = append(processed, p)
		if p.Status == rule.StatusMatched && !r.DoContinue() {
			break
		}
	}
	return ProcessedNode{Type: NodeRuleset, Name: n.Name, Rules: processed}
}
