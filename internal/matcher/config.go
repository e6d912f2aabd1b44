package matcher

import (
	"github.com/vitaliisemenov/alert-history/internal/operator"
	"github.com/vitaliisemenov/alert-history/internal/rule"
)

// NodeType names a MatcherConfig's tagged-union variant (spec.md §3).
type NodeType string

const (
	NodeFilter  NodeType = "Filter"
	NodeIterator NodeType = "Iterator"
	NodeRuleset NodeType = "Ruleset"
)

// NodeConfig is the decoded (JSON/YAML) form of a MatcherConfig tree
// node, named Type plus the fields relevant to that Type (spec.md §6
// "Configuration schema"). Fields irrelevant to Type are left zero.
type NodeConfig struct {
	Type NodeType `json:"type" yaml:"type"`
	Name string   `json:"name" yaml:"name"`

	// Filter
	Active *bool            `json:"active,omitempty" yaml:"active,omitempty"`
	Filter *operator.Config `json:"filter,omitempty" yaml:"filter,omitempty"`

	// Filter / Iterator
	Nodes []NodeConfig `json:"nodes,omitempty" yaml:"nodes,omitempty"`

	// Iterator
	Target string `json:"target,omitempty" yaml:"target,omitempty"`

	// Ruleset
	Rules []rule.Config `json:"rules,omitempty" yaml:"rules,omitempty"`
}

// IsActive reports the Filter's active flag, defaulting to true when
// unset (spec.md §6's schema marks it optional; an absent Filter is
// assumed live).
func (c NodeConfig) IsActive() bool {
	return c.Active == nil || *c.Active
}
