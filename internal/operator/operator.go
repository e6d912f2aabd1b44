// Package operator builds and evaluates the WHERE predicate tree
// (spec.md §4.2, component B): and/or/not plus nine leaf predicates over
// compiled Accessors. A tree is built once, at config-compile time, and
// evaluated many times; evaluation never fails, it only ever returns a
// bool.
package operator

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/vitaliisemenov/alert-history/internal/accessor"
	"github.com/vitaliisemenov/alert-history/internal/value"
)

// Operator is a compiled predicate. Evaluate never panics: a missing
// Accessor value is folded into the predicate's own "else false" rule
// rather than surfacing as an error (spec.md §4.2).
type Operator interface {
	Evaluate(ctx accessor.Context) bool
	String() string
}

// Config is the decoded (JSON/YAML) form of an Operator, named Type plus
// the fields relevant to that Type. It is the operator half of a
// MatcherConfig's `filter`/`where` field (spec.md §3).
type Config struct {
	Type string `json:"type" yaml:"type"`

	Ops []Config `json:"operators,omitempty" yaml:"operators,omitempty"` // and, or
	Op  *Config  `json:"operator,omitempty" yaml:"operator,omitempty"`   // not

	First  string `json:"first,omitempty" yaml:"first,omitempty"`
	Second string `json:"second,omitempty" yaml:"second,omitempty"`

	Regex  string `json:"regex,omitempty" yaml:"regex,omitempty"`
	Target string `json:"target,omitempty" yaml:"target,omitempty"`
}

// Compiler resolves a regex pattern to a compiled *regexp.Regexp. Build
// uses regexp.Compile directly; BuildWithCompiler accepts an alternate
// compiler (e.g. internal/matcher's LRU-backed one, so an unchanged
// pattern string across tree rebuilds doesn't pay recompilation cost).
type Compiler func(pattern string) (*regexp.Regexp, error)

// Build compiles cfg into an Operator tree using regexp.Compile directly.
// A nil *Config (the "Filter with null operator" case, spec.md §9) is
// handled by the caller, which should treat a nil filter as always-true
// rather than calling Build.
func Build(cfg Config) (Operator, error) {
	return BuildWithCompiler(cfg, regexp.Compile)
}

// BuildWithCompiler is Build with pattern compilation routed through
// compile instead of regexp.Compile directly.
func BuildWithCompiler(cfg Config, compile Compiler) (Operator, error) {
	switch cfg.Type {
	case "and":
		return buildJunction(cfg.Ops, true, compile)
	case "or":
		return buildJunction(cfg.Ops, false, compile)
	case "not":
		if cfg.Op == nil {
			return nil, fmt.Errorf("%w: not requires exactly one operand", ErrMissingOperand)
		}
		inner, err := BuildWithCompiler(*cfg.Op, compile)
		if err != nil {
			return nil, err
		}
		return notOp{inner: inner}, nil
	case "equals":
		return buildBinary(cfg, func(first, second accessor.Accessor) Operator {
			return equalsOp{first: first, second: second}
		})
	case "contains":
		return buildBinary(cfg, func(first, second accessor.Accessor) Operator {
			return containsOp{first: first, second: second, ignoreCase: false}
		})
	case "contains_ignore_case":
		return buildBinary(cfg, func(first, second accessor.Accessor) Operator {
			return containsOp{first: first, second: second, ignoreCase: true}
		})
	case "equals_ignore_case":
		return buildBinary(cfg, func(first, second accessor.Accessor) Operator {
			return equalsIgnoreCaseOp{first: first, second: second}
		})
	case "regex":
		re, err := compile(cfg.Regex)
		if err != nil {
			return nil, fmt.Errorf("%w: %q: %v", ErrInvalidRegex, cfg.Regex, err)
		}
		target, err := accessor.Compile(cfg.Target)
		if err != nil {
			return nil, fmt.Errorf("%w: target: %v", ErrInvalidAccessor, err)
		}
		return regexOp{pattern: re, target: target}, nil
	case "lt", "le", "gt", "ge":
		return buildBinary(cfg, func(first, second accessor.Accessor) Operator {
			return compareOp{kind: cfg.Type, first: first, second: second}
		})
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, cfg.Type)
	}
}

func buildJunction(ops []Config, isAnd bool, compile Compiler) (Operator, error) {
	if len(ops) == 0 {
		kind := "or"
		if isAnd {
			kind = "and"
		}
		return nil, fmt.Errorf("%w: %s requires at least one operand", ErrMissingOperand, kind)
	}
	built := make([]Operator, len(ops))
	for i, op := range ops {
		o, err := BuildWithCompiler(op, compile)
		if err != nil {
			return nil, err
		}
		built[i] = o
	}
	if isAnd {
		return andOp{ops: built}, nil
	}
	return orOp{ops: built}, nil
}

func buildBinary(cfg Config, make_ func(first, second accessor.Accessor) Operator) (Operator, error) {
	first, err := accessor.Compile(cfg.First)
	if err != nil {
		return nil, fmt.Errorf("%w: first: %v", ErrInvalidAccessor, err)
	}
	second, err := accessor.Compile(cfg.Second)
	if err != nil {
		return nil, fmt.Errorf("%w: second: %v", ErrInvalidAccessor, err)
	}
	return make_(first, second), nil
}

// andOp is true iff every child is true; short-circuits on the first false.
type andOp struct{ ops []Operator }

func (a andOp) Evaluate(ctx accessor.Context) bool {
	for _, op := range a.ops {
		if !op.Evaluate(ctx) {
			return false
		}
	}
	return true
}

func (a andOp) String() string { return "and" }

// orOp is true iff any child is true; short-circuits on the first true.
type orOp struct{ ops []Operator }

func (o orOp) Evaluate(ctx accessor.Context) bool {
	for _, op := range o.ops {
		if op.Evaluate(ctx) {
			return true
		}
	}
	return false
}

func (o orOp) String() string { return "or" }

type notOp struct{ inner Operator }

func (n notOp) Evaluate(ctx accessor.Context) bool { return !n.inner.Evaluate(ctx) }
func (n notOp) String() string                     { return "not" }

// equalsOp resolves both sides and compares structurally; a missing value
// on either side makes the predicate false (spec.md §4.2).
type equalsOp struct{ first, second accessor.Accessor }

func (e equalsOp) Evaluate(ctx accessor.Context) bool {
	a, ok := e.first.Resolve(ctx)
	if !ok {
		return false
	}
	b, ok := e.second.Resolve(ctx)
	if !ok {
		return false
	}
	return value.Equal(a, b)
}

func (e equalsOp) String() string { return "equals" }

// containsOp checks substring membership (String) or element membership
// (Array, via structural equality); any other kind of first is false.
type containsOp struct {
	first, second accessor.Accessor
	ignoreCase    bool
}

func (c containsOp) Evaluate(ctx accessor.Context) bool {
	a, ok := c.first.Resolve(ctx)
	if !ok {
		return false
	}
	b, ok := c.second.Resolve(ctx)
	if !ok {
		return false
	}
	switch a.Kind() {
	case value.KindString:
		if b.Kind() != value.KindString {
			return false
		}
		as, _ := a.AsString()
		bs, _ := b.AsString()
		if c.ignoreCase {
			as, bs = strings.ToLower(as), strings.ToLower(bs)
		}
		return strings.Contains(as, bs)
	case value.KindArray:
		items, _ := a.AsArray()
		for _, item := range items {
			if value.Equal(item, b) {
				return true
			}
		}
		return false
	default:
		return false
	}
}

func (c containsOp) String() string {
	if c.ignoreCase {
		return "contains_ignore_case"
	}
	return "contains"
}

// equalsIgnoreCaseOp is equals restricted to Strings, Unicode case-folded.
type equalsIgnoreCaseOp struct{ first, second accessor.Accessor }

func (e equalsIgnoreCaseOp) Evaluate(ctx accessor.Context) bool {
	a, ok := e.first.Resolve(ctx)
	if !ok {
		return false
	}
	b, ok := e.second.Resolve(ctx)
	if !ok {
		return false
	}
	as, ok := a.AsString()
	if !ok {
		return false
	}
	bs, ok := b.AsString()
	if !ok {
		return false
	}
	return strings.EqualFold(as, bs)
}

func (e equalsIgnoreCaseOp) String() string { return "equals_ignore_case" }

// regexOp matches target (coerced to string) against a build-time
// compiled pattern, anywhere in the string.
type regexOp struct {
	pattern *regexp.Regexp
	target  accessor.Accessor
}

func (r regexOp) Evaluate(ctx accessor.Context) bool {
	v, ok := r.target.Resolve(ctx)
	if !ok {
		return false
	}
	return r.pattern.MatchString(value.CoerceToString(v))
}

func (r regexOp) String() string { return "regex(" + r.pattern.String() + ")" }

// compareOp implements lt/le/gt/ge: numeric compare if both operands are
// numeric (promoting as needed), string compare if both are strings, else
// false (spec.md §4.2).
type compareOp struct {
	kind          string
	first, second accessor.Accessor
}

func (c compareOp) Evaluate(ctx accessor.Context) bool {
	a, ok := c.first.Resolve(ctx)
	if !ok {
		return false
	}
	b, ok := c.second.Resolve(ctx)
	if !ok {
		return false
	}
	cmp, ok := value.Compare(a, b)
	if !ok {
		return false
	}
	switch c.kind {
	case "lt":
		return cmp < 0
	case "le":
		return cmp <= 0
	case "gt":
		return cmp > 0
	case "ge":
		return cmp >= 0
	default:
		return false
	}
}

func (c compareOp) String() string { return c.kind }
