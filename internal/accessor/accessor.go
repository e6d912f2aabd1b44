// Package accessor compiles and resolves the `${...}` path language
// spec.md §3/§4.1 defines over events and extracted variables.
package accessor

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/vitaliisemenov/alert-history/internal/event"
	"github.com/vitaliisemenov/alert-history/internal/scope"
	"github.com/vitaliisemenov/alert-history/internal/value"
)

// Context is the (InternalEvent, ExtractedVars) pair every Accessor
// resolves against (spec.md §3 "Accessor").
type Context struct {
	Event event.InternalEvent
	Scope scope.Scope
}

// Accessor is a compiled path expression. Resolve never panics on a shape
// mismatch; a missing key, out-of-range index, or type mismatch is a
// legitimate "no value" result (ok == false), distinct from an explicit
// Null (spec.md §3).
type Accessor interface {
	Resolve(ctx Context) (value.Value, bool)
	// String returns the original `${...}` (or literal) source text, used
	// in compile-error messages and debug output.
	String() string
}

// segment is one step of a path: a named key, a quoted key, or an index.
type segment struct {
	key      string
	index    int
	isIndex  bool
}

// Compile parses template per spec.md §4.1:
//   - a bare literal string with no ${...} is a Constant(String)
//   - a string enclosed entirely in one ${...} is EventField / ExtractedVar
//     / the whole-event Constant depending on its path root
//   - anything else containing ${...} is an Interpolated template
//   - an empty ${} is a compile error
func Compile(template string) (Accessor, error) {
	placeholders, err := findPlaceholders(template)
	if err != nil {
		return nil, err
	}
	if len(placeholders) == 0 {
		return constant{source: template, value: value.String(template)}, nil
	}
	if len(placeholders) == 1 && placeholders[0].start == 0 && placeholders[0].end == len(template) {
		return compilePath(template, placeholders[0].inner)
	}
	return compileInterpolated(template, placeholders)
}

// placeholder is a `${...}` occurrence found by findPlaceholders.
type placeholder struct {
	start, end int // byte offsets of '$' and the char after the closing '}'
	inner      string
}

// findPlaceholders scans for non-nested `${...}` spans. An unmatched `${`
// is a compile error (spec.md §4.4 "unmatched ${ is a compile error").
func findPlaceholders(template string) ([]placeholder, error) {
	var out []placeholder
	i := 0
	for i < len(template) {
		start := strings.Index(template[i:], "${")
		if start < 0 {
			break
		}
		start += i
		end := strings.IndexByte(template[start+2:], '}')
		if end < 0 {
			return nil, fmt.Errorf("accessor: unmatched ${ at offset %d in %q", start, template)
		}
		end = start + 2 + end
		out = append(out, placeholder{start: start, end: end + 1, inner: template[start+2 : end]})
		i = end + 1
	}
	return out, nil
}

// compilePath compiles the inner text of a single `${...}` into an
// EventField, ExtractedVar, or whole-event Constant accessor.
func compilePath(source, inner string) (Accessor, error) {
	if inner == "" {
		return nil, fmt.Errorf("accessor: empty ${} in %q", source)
	}
	root, rest, err := splitRoot(inner)
	if err != nil {
		return nil, fmt.Errorf("accessor %q: %w", source, err)
	}
	segs, err := parseSegments(rest)
	if err != nil {
		return nil, fmt.Errorf("accessor %q: %w", source, err)
	}
	switch root {
	case "event":
		return eventField{source: source, path: segs}, nil
	case "_variables":
		if len(segs) == 0 {
			return nil, fmt.Errorf("accessor %q: ${_variables} requires a variable name", source)
		}
		return extractedVar{source: source, path: segs}, nil
	case "_item":
		return itemField{source: source, path: segs}, nil
	default:
		return nil, fmt.Errorf("accessor %q: unknown root %q (expected event, _variables or _item)", source, root)
	}
}

// splitRoot splits "event.payload.x" into root="event", rest=".payload.x".
// A bare root (no rest) is valid and means "resolve the whole thing".
func splitRoot(inner string) (root, rest string, err error) {
	for _, candidate := range []string{"_variables", "_item", "event"} {
		if inner == candidate {
			return candidate, "", nil
		}
		if strings.HasPrefix(inner, candidate+".") || strings.HasPrefix(inner, candidate+"[") {
			return candidate, inner[len(candidate):], nil
		}
	}
	return "", "", fmt.Errorf("path must start with event, _variables or _item, got %q", inner)
}

// parseSegments parses a sequence of `.name`, `["key"]`/['key'], `[n]`.
// A segment starting without `.` or `[` is a compile error (spec.md §4.1).
func parseSegments(rest string) ([]segment, error) {
	var segs []segment
	i := 0
	for i < len(rest) {
		switch rest[i] {
		case '.':
			j := i + 1
			for j < len(rest) && rest[j] != '.' && rest[j] != '[' {
				j++
			}
			if j == i+1 {
				return nil, fmt.Errorf("empty path segment after '.' in %q", rest)
			}
			segs = append(segs, segment{key: rest[i+1 : j]})
			i = j
		case '[':
			j := strings.IndexByte(rest[i:], ']')
			if j < 0 {
				return nil, fmt.Errorf("unterminated [ in %q", rest)
			}
			j += i
			inner := rest[i+1 : j]
			seg, err := parseIndexSegment(inner)
			if err != nil {
				return nil, err
			}
			segs = append(segs, seg)
			i = j + 1
		default:
			return nil, fmt.Errorf("path segment must start with '.' or '[', got %q", rest[i:])
		}
	}
	return segs, nil
}

func parseIndexSegment(inner string) (segment, error) {
	if len(inner) >= 2 && (inner[0] == '"' || inner[0] == '\'') && inner[len(inner)-1] == inner[0] {
		return segment{key: inner[1 : len(inner)-1]}, nil
	}
	n, err := strconv.Atoi(inner)
	if err != nil || n < 0 {
		return segment{}, fmt.Errorf("invalid array index %q", inner)
	}
	return segment{index: n, isIndex: true}, nil
}

func resolvePath(root value.Value, path []segment) (value.Value, bool) {
	cur := root
	for _, seg := range path {
		var ok bool
		if seg.isIndex {
			cur, ok = cur.Index(seg.index)
		} else {
			cur, ok = cur.Get(seg.key)
		}
		if !ok {
			return value.Value{}, false
		}
	}
	return cur, true
}

// constant yields a fixed Value regardless of context.
type constant struct {
	source string
	value  value.Value
}

func (c constant) Resolve(Context) (value.Value, bool) { return c.value, true }
func (c constant) String() string                       { return c.source }

// eventField resolves `${event...}` against the InternalEvent.
type eventField struct {
	source string
	path   []segment
}

func (f eventField) Resolve(ctx Context) (value.Value, bool) {
	if len(f.path) == 0 {
		return ctx.Event.AsValue(), true
	}
	return resolvePath(ctx.Event.AsValue(), f.path)
}

func (f eventField) String() string { return f.source }

// itemField resolves `${_item...}` against the Iterator's synthesized
// per-element scope (spec.md §9 Open Question, resolved per
// original_source's convention): `${_item}` is the element itself,
// `${_item.index}` its 0-based position, `${_item.value...}` an explicit
// alias for the element (for readability next to `.index`).
type itemField struct {
	source string
	path   []segment
}

func (f itemField) Resolve(ctx Context) (value.Value, bool) {
	if ctx.Scope.Item == nil {
		return value.Value{}, false
	}
	if len(f.path) == 0 {
		return ctx.Scope.Item.Value, true
	}
	switch {
	case !f.path[0].isIndex && f.path[0].key == "index":
		if len(f.path) != 1 {
			return value.Value{}, false
		}
		return value.Int(int64(ctx.Scope.Item.Index)), true
	case !f.path[0].isIndex && f.path[0].key == "value":
		return resolvePath(ctx.Scope.Item.Value, f.path[1:])
	default:
		return resolvePath(ctx.Scope.Item.Value, f.path)
	}
}

func (f itemField) String() string { return f.source }

// extractedVar resolves `${_variables...}` against the current rule's
// (and any ancestor rule's) extracted-variables scope.
type extractedVar struct {
	source string
	path   []segment
}

func (ev extractedVar) Resolve(ctx Context) (value.Value, bool) {
	if ctx.Scope.Vars == nil {
		return value.Value{}, false
	}
	root, ok := ctx.Scope.Vars.Get(ev.path[0].key)
	if !ok {
		return value.Value{}, false
	}
	return resolvePath(root, ev.path[1:])
}

func (ev extractedVar) String() string { return ev.source }

// interpolated renders a template containing literal text interspersed
// with `${...}` placeholders (spec.md §4.4). Any placeholder resolving to
// "no value" fails the whole render (RenderError), surfaced by returning
// ok=false.
type interpolated struct {
	source  string
	literal []string     // len(literal) == len(parts)+1
	parts   []Accessor
}

func compileInterpolated(template string, placeholders []placeholder) (Accessor, error) {
	var literal []string
	var parts []Accessor

	pos := 0
	for _, ph := range placeholders {
		literal = append(literal, template[pos:ph.start])
		part, err := compilePath(template, ph.inner)
		if err != nil {
			return nil, err
		}
		parts = append(parts, part)
		pos = ph.end
	}
	literal = append(literal, template[pos:])

	return interpolated{source: template, literal: literal, parts: parts}, nil
}

func (i interpolated) Resolve(ctx Context) (value.Value, bool) {
	var sb strings.Builder
	for idx, lit := range i.literal {
		sb.WriteString(lit)
		if idx >= len(i.parts) {
			continue
		}
		v, ok := i.parts[idx].Resolve(ctx)
		if !ok {
			return value.Value{}, false
		}
		sb.WriteString(value.CoerceToString(v))
	}
	return value.String(sb.String()), true
}

func (i interpolated) String() string { return i.source }
