// Package scope carries the per-event state an Accessor resolves against:
// the extracted-variables map built up across a Ruleset (spec.md §4.5) and
// the synthesized `${_item}` context an Iterator injects for its children
// (spec.md §9, resolving the Iterator child-scope Open Question using the
// `${_item}` convention from original_source's tornado engine).
package scope

import "github.com/vitaliisemenov/alert-history/internal/value"

// Vars is the ordered extracted-variables map for one Rule's evaluation,
// visible to this rule and any later rule in the same Ruleset
// (spec.md §4.5 "The Ruleset accumulates ExtractedVars across rules").
type Vars struct {
	obj *value.Object
}

// NewVars returns an empty Vars.
func NewVars() *Vars {
	return &Vars{obj: value.NewObject()}
}

// Set stores name's value, overwriting any prior value under the same name.
func (v *Vars) Set(name string, val value.Value) {
	v.obj.Set(name, val)
}

// Get resolves a `${_variables.<path>}` lookup rooted at name.
func (v *Vars) Get(name string) (value.Value, bool) {
	return v.obj.Get(name)
}

// AsValue exposes the whole extracted-variables map as an Object Value.
func (v *Vars) AsValue() value.Value {
	return value.ObjectVal(v.obj)
}

// Clone returns an independent copy, so an Iterator can fork the scope for
// each child event without its siblings observing each other's extractions.
func (v *Vars) Clone() *Vars {
	clone := NewVars()
	for _, k := range v.obj.Keys() {
		val, _ := v.obj.Get(k)
		clone.Set(k, val)
	}
	return clone
}

// Item is the per-element context an Iterator synthesizes for its children:
// `${_item}` resolves to Value; `${_item.index}` / `${_item.value}` are
// available when the caller wants object-style access to the same pair.
type Item struct {
	Value value.Value
	Index int
}

// Scope bundles the extracted-variables map and (if this event is inside an
// Iterator's fan-out) the current item context. It is the second half of
// the (InternalEvent, ExtractedVars) pair spec.md §4.1 resolves Accessors
// against.
type Scope struct {
	Vars *Vars
	Item *Item // nil outside any Iterator
}

// New returns a root Scope with fresh Vars and no Item context.
func New() Scope {
	return Scope{Vars: NewVars()}
}

// WithItem returns a copy of s scoped to a new Iterator element.
func (s Scope) WithItem(item Item) Scope {
	return Scope{Vars: s.Vars, Item: &item}
}

// WithVars returns a copy of s using vars as the extracted-variables map,
// used when a Ruleset nested inside an Iterator element starts a fresh
// rule-extraction scope for that element.
func (s Scope) WithVars(vars *Vars) Scope {
	return Scope{Vars: vars, Item: s.Item}
}
