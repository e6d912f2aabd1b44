// Package configschema decodes and validates the wire configuration
// format (spec.md §6 "Configuration schema") independently of
// internal/matcher's compiled tree types, so JSON/YAML parsing and
// struct-tag validation happen in one place before TreeBuilder ever
// sees a tree (spec.md §4.6/§4.8, component I).
package configschema

import "github.com/vitaliisemenov/alert-history/internal/value"

// NodeDoc is the decoded form of a MatcherConfig tree node, tagged by
// Type exactly as spec.md §6 documents (Filter/Iterator/Ruleset),
// fields irrelevant to Type left zero.
type NodeDoc struct {
	Type string `json:"type" yaml:"type" validate:"required,oneof=Filter Iterator Ruleset"`
	Name string `json:"name" yaml:"name" validate:"required,identifier"`

	// Filter
	Active *bool        `json:"active,omitempty" yaml:"active,omitempty"`
	Filter *OperatorDoc `json:"filter,omitempty" yaml:"filter,omitempty" validate:"omitempty,dive"`

	// Filter / Iterator
	Nodes []NodeDoc `json:"nodes,omitempty" yaml:"nodes,omitempty" validate:"dive"`

	// Iterator
	Target string `json:"target,omitempty" yaml:"target,omitempty"`

	// Ruleset
	Rules []RuleDoc `json:"rules,omitempty" yaml:"rules,omitempty" validate:"dive"`
}

// OperatorDoc is the decoded form of an Operator, tagged by Type with
// the wire-format casing from spec.md §6
// (AND|OR|NOT|equals|contains|containsIgnoreCase|equalsIgnoreCase|
// regex|lt|le|gt|ge) — distinct from operator.Config's internal,
// lowercase/snake_case Type strings; ToOperatorConfig translates
// between the two.
type OperatorDoc struct {
	Type string `json:"type" yaml:"type" validate:"required,oneof=AND OR NOT equals contains containsIgnoreCase equalsIgnoreCase regex lt le gt ge"`

	Operators []OperatorDoc `json:"operators,omitempty" yaml:"operators,omitempty" validate:"omitempty,dive"`
	Operator  *OperatorDoc  `json:"operator,omitempty" yaml:"operator,omitempty"`

	First  string `json:"first,omitempty" yaml:"first,omitempty"`
	Second string `json:"second,omitempty" yaml:"second,omitempty"`

	Regex  string `json:"regex,omitempty" yaml:"regex,omitempty"`
	Target string `json:"target,omitempty" yaml:"target,omitempty"`
}

// RuleDoc is the decoded form of a Rule (spec.md §6). WITH is carried
// as an ordered array of named extractors rather than an object keyed
// by variable name: spec.md §9's Open Questions flag extractor
// ordering from "an unordered mapping" as implementation-defined, and
// this schema resolves it by making declaration order explicit in the
// wire format instead of depending on object-key iteration order.
type RuleDoc struct {
	Name        string `json:"name" yaml:"name" validate:"required,identifier"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Continue    bool   `json:"continue" yaml:"continue"`
	Active      bool   `json:"active" yaml:"active"`

	Constraint ConstraintDoc `json:"constraint,omitempty" yaml:"constraint,omitempty"`
	Actions    []ActionDoc   `json:"actions,omitempty" yaml:"actions,omitempty" validate:"dive"`
}

// ConstraintDoc pairs a Rule's WHERE operator with its WITH extractors.
type ConstraintDoc struct {
	Where *OperatorDoc   `json:"WHERE,omitempty" yaml:"WHERE,omitempty"`
	With  []ExtractorDoc `json:"WITH,omitempty" yaml:"WITH,omitempty" validate:"dive"`
}

// ExtractorDoc is the decoded form of a named Extractor entry within a
// Rule's WITH list.
type ExtractorDoc struct {
	Var           string        `json:"var" yaml:"var" validate:"required,identifier"`
	From          string        `json:"from" yaml:"from" validate:"required"`
	Regex         RegexDoc      `json:"regex" yaml:"regex"`
	ModifiersPost []ModifierDoc `json:"modifiers_post,omitempty" yaml:"modifiers_post,omitempty" validate:"dive"`
}

// RegexDoc is the decoded form of an Extractor's regex variant, tagged
// by Type: "Regex" (positional group) or "RegexNamedGroups".
type RegexDoc struct {
	Type string `json:"type" yaml:"type" validate:"required,oneof=Regex RegexNamedGroups"`

	Match         string `json:"match,omitempty" yaml:"match,omitempty"`
	GroupMatchIdx *int   `json:"group_match_idx,omitempty" yaml:"group_match_idx,omitempty"`

	NamedMatch string `json:"named_match,omitempty" yaml:"named_match,omitempty"`

	AllMatches *bool `json:"all_matches,omitempty" yaml:"all_matches,omitempty"`
}

// ModifierDoc is the decoded form of a post-extraction modifier, tagged
// by Type (spec.md §4.3).
type ModifierDoc struct {
	Type string `json:"type" yaml:"type" validate:"required,oneof=trim lowercase uppercase replace to_number map date_and_time"`

	Find    string `json:"find,omitempty" yaml:"find,omitempty"`
	Replace string `json:"replace,omitempty" yaml:"replace,omitempty"`
	IsRegex bool   `json:"is_regex,omitempty" yaml:"is_regex,omitempty"`

	Mapping      map[string]string `json:"mapping,omitempty" yaml:"mapping,omitempty"`
	DefaultValue *string           `json:"default_value,omitempty" yaml:"default_value,omitempty"`

	Timezone string `json:"timezone,omitempty" yaml:"timezone,omitempty"`
}

// ActionDoc is the decoded form of an Action template.
type ActionDoc struct {
	ID      string      `json:"id" yaml:"id" validate:"required,identifier"`
	Payload value.Value `json:"payload" yaml:"payload"`
}
