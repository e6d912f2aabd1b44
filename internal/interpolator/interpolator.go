// Package interpolator resolves string templates against Accessors to
// build action payloads (spec.md §4.4, component D). It compiles once at
// tree-build time and renders once per event, walking the same Object/Array
// shape the template was authored in (spec.md §3 "ActionTemplate").
package interpolator

import (
	"fmt"

	"github.com/vitaliisemenov/alert-history/internal/accessor"
	"github.com/vitaliisemenov/alert-history/internal/value"
)

// Template is a compiled action-payload template: Object/Array structure
// preserved, String leaves replaced with compiled Accessors, other scalar
// leaves (Bool/Number/Null) left as literal Values.
type Template struct {
	kind     templateKind
	leaf     accessor.Accessor // kind == leafKind
	literal  value.Value       // kind == literalKind
	items    []*Template       // kind == arrayKind
	objKeys  []string          // kind == objectKind, insertion order
	objItems map[string]*Template
}

type templateKind int

const (
	literalKind templateKind = iota
	leafKind
	arrayKind
	objectKind
)

// RenderError reports that a placeholder inside a template resolved to "no
// value"; per spec.md §4.4 this propagates as a rule-level action-build
// failure (the rule transitions to PartiallyMatched).
type RenderError struct {
	Path string
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("interpolator: unresolved placeholder at %s", e.Path)
}

// Compile walks tmpl (typically an ActionTemplate's payload), compiling
// every String leaf as an Accessor via accessor.Compile and recursing into
// Arrays and Objects, per spec.md §3.
func Compile(tmpl value.Value) (*Template, error) {
	return compileAt(tmpl, "$")
}

func compileAt(v value.Value, path string) (*Template, error) {
	switch v.Kind() {
	case value.KindString:
		s, _ := v.AsString()
		acc, err := accessor.Compile(s)
		if err != nil {
			return nil, fmt.Errorf("interpolator: at %s: %w", path, err)
		}
		return &Template{kind: leafKind, leaf: acc}, nil
	case value.KindArray:
		arr, _ := v.AsArray()
		items := make([]*Template, len(arr))
		for i, item := range arr {
			t, err := compileAt(item, fmt.Sprintf("%s[%d]", path, i))
			if err != nil {
				return nil, err
			}
			items[i] = t
		}
		return &Template{kind: arrayKind, items: items}, nil
	case value.KindObject:
		obj, _ := v.AsObject()
		out := &Template{kind: objectKind, objItems: make(map[string]*Template, obj.Len())}
		for _, k := range obj.Keys() {
			child, _ := obj.Get(k)
			t, err := compileAt(child, fmt.Sprintf("%s.%s", path, k))
			if err != nil {
				return nil, err
			}
			out.objKeys = append(out.objKeys, k)
			out.objItems[k] = t
		}
		return out, nil
	default:
		return &Template{kind: literalKind, literal: v}, nil
	}
}

// Render resolves the compiled template against ctx, returning a
// *RenderError (never a plain error) when a placeholder has no value.
func (t *Template) Render(ctx accessor.Context) (value.Value, error) {
	return t.renderAt(ctx, "$")
}

func (t *Template) renderAt(ctx accessor.Context, path string) (value.Value, error) {
	switch t.kind {
	case literalKind:
		return t.literal, nil
	case leafKind:
		v, ok := t.leaf.Resolve(ctx)
		if !ok {
			return value.Value{}, &RenderError{Path: path}
		}
		return v, nil
	case arrayKind:
		out := make([]value.Value, len(t.items))
		for i, item := range t.items {
			v, err := item.renderAt(ctx, fmt.Sprintf("%s[%d]", path, i))
			if err != nil {
				return value.Value{}, err
			}
			out[i] = v
		}
		return value.Array(out), nil
	case objectKind:
		out := value.NewObject()
		for _, k := range t.objKeys {
			v, err := t.objItems[k].renderAt(ctx, fmt.Sprintf("%s.%s", path, k))
			if err != nil {
				return value.Value{}, err
			}
			out.Set(k, v)
		}
		return value.ObjectVal(out), nil
	default:
		return value.Value{}, fmt.Errorf("interpolator: unknown template kind %d", t.kind)
	}
}
