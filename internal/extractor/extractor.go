// Package extractor implements per-rule variable extraction: a regex
// applied to an Accessor's resolved value, followed by an ordered chain
// of modifiers (spec.md §4.3, component C).
package extractor

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/vitaliisemenov/alert-history/internal/accessor"
	"github.com/vitaliisemenov/alert-history/internal/value"
)

// Config is the decoded form of an Extractor: { from, regex, modifiers }
// (spec.md §3). Exactly one of GroupMatchIdx/NamedGroups selects the
// regex-application variant; GroupMatchIdx nil with NamedGroups false
// means "all capture groups".
type Config struct {
	Name string `json:"name" yaml:"name"`
	From string `json:"from" yaml:"from"`

	Pattern      string `json:"regex" yaml:"regex"`
	GroupMatchIdx *int   `json:"group_match_idx,omitempty" yaml:"group_match_idx,omitempty"`
	NamedGroups  bool   `json:"named_groups,omitempty" yaml:"named_groups,omitempty"`
	AllMatches   bool   `json:"all_matches,omitempty" yaml:"all_matches,omitempty"`

	Modifiers []ModifierConfig `json:"modifiers,omitempty" yaml:"modifiers,omitempty"`
}

// ModifierConfig is one step of a modifier chain, named Type plus the
// fields relevant to that Type.
type ModifierConfig struct {
	Type string `json:"type" yaml:"type"`

	Find    string `json:"find,omitempty" yaml:"find,omitempty"`
	Replace string `json:"replace,omitempty" yaml:"replace,omitempty"`
	IsRegex bool   `json:"is_regex,omitempty" yaml:"is_regex,omitempty"`

	Mapping      map[string]string `json:"mapping,omitempty" yaml:"mapping,omitempty"`
	DefaultValue *string           `json:"default_value,omitempty" yaml:"default_value,omitempty"`

	Timezone string `json:"timezone,omitempty" yaml:"timezone,omitempty"`
}

// Extractor is the compiled, reusable form of Config: a resolver for
// `from`, a compiled regex, and a chain of compiled modifiers.
type Extractor struct {
	name      string
	from      accessor.Accessor
	pattern   *regexp.Regexp
	groupIdx  *int
	named     bool
	allMatches bool
	modifiers []modifier
}

// Compiler resolves a regex pattern to a compiled *regexp.Regexp; see
// operator.Compiler for why a caller might supply a caching one.
type Compiler func(pattern string) (*regexp.Regexp, error)

// Build compiles cfg using regexp.Compile directly. Regex, `from`, and
// every modifier are validated up front; Extract never fails due to a
// build-time-detectable mistake.
func Build(cfg Config) (*Extractor, error) {
	return BuildWithCompiler(cfg, regexp.Compile)
}

// BuildWithCompiler is Build with pattern compilation routed through
// compile instead of regexp.Compile directly.
func BuildWithCompiler(cfg Config, compile Compiler) (*Extractor, error) {
	from, err := accessor.Compile(cfg.From)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAccessor, err)
	}
	pattern, err := compile(cfg.Pattern)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrInvalidRegex, cfg.Pattern, err)
	}
	mods := make([]modifier, len(cfg.Modifiers))
	for i, mc := range cfg.Modifiers {
		m, err := buildModifier(mc)
		if err != nil {
			return nil, err
		}
		mods[i] = m
	}
	return &Extractor{
		name:       cfg.Name,
		from:       from,
		pattern:    pattern,
		groupIdx:   cfg.GroupMatchIdx,
		named:      cfg.NamedGroups,
		allMatches: cfg.AllMatches,
		modifiers:  mods,
	}, nil
}

// Name returns the variable name this extractor stores its result under.
func (e *Extractor) Name() string { return e.name }

// Extract runs the extractor against ctx per spec.md §4.3: resolve,
// coerce to string, apply the regex variant, then the modifier chain in
// order. Any failure is returned as one of this package's sentinel
// errors (wrapped with context), never a panic.
func (e *Extractor) Extract(ctx accessor.Context) (value.Value, error) {
	v, ok := e.from.Resolve(ctx)
	if !ok {
		return value.Value{}, ErrNoValue
	}
	s, err := coerceForExtraction(v)
	if err != nil {
		return value.Value{}, err
	}

	extracted, err := e.applyRegex(s)
	if err != nil {
		return value.Value{}, err
	}

	for _, m := range e.modifiers {
		extracted, err = m.apply(extracted)
		if err != nil {
			return value.Value{}, err
		}
	}
	return extracted, nil
}

// coerceForExtraction implements spec.md §4.3 step 1: numbers render via
// their JSON representation, strings pass through, anything else (Array,
// Object, Null, Bool) is not coercible for extraction purposes.
func coerceForExtraction(v value.Value) (string, error) {
	switch v.Kind() {
	case value.KindString:
		s, _ := v.AsString()
		return s, nil
	case value.KindInt, value.KindUint, value.KindFloat:
		return value.CoerceToString(v), nil
	default:
		return "", ErrNotCoercible
	}
}

func (e *Extractor) applyRegex(s string) (value.Value, error) {
	if e.named {
		if e.allMatches {
			matches := e.pattern.FindAllStringSubmatchIndex(s, -1)
			if len(matches) == 0 {
				return value.Value{}, ErrNoMatch
			}
			items := make([]value.Value, len(matches))
			for i, idx := range matches {
				items[i] = e.namedGroupsObject(s, idx)
			}
			return value.Array(items), nil
		}
		idx := e.pattern.FindStringSubmatchIndex(s)
		if idx == nil {
			return value.Value{}, ErrNoMatch
		}
		return e.namedGroupsObject(s, idx), nil
	}

	if e.allMatches {
		matches := e.pattern.FindAllStringSubmatchIndex(s, -1)
		if len(matches) == 0 {
			return value.Value{}, ErrNoMatch
		}
		items := make([]value.Value, len(matches))
		for i, idx := range matches {
			v, err := e.groupValue(s, idx)
			if err != nil {
				return value.Value{}, err
			}
			items[i] = v
		}
		return value.Array(items), nil
	}

	idx := e.pattern.FindStringSubmatchIndex(s)
	if idx == nil {
		return value.Value{}, ErrNoMatch
	}
	return e.groupValue(s, idx)
}

// groupValue extracts either a single capture group (group_match_idx) or
// the array of all groups (group 0 first), from one match's index pairs.
func (e *Extractor) groupValue(s string, idx []int) (value.Value, error) {
	numGroups := len(idx)/2 - 1
	if e.groupIdx != nil {
		g := *e.groupIdx
		if g < 0 || g > numGroups {
			return value.Value{}, ErrGroupOutOfRange
		}
		return value.String(submatch(s, idx, g)), nil
	}
	groups := make([]value.Value, numGroups+1)
	for g := 0; g <= numGroups; g++ {
		groups[g] = value.String(submatch(s, idx, g))
	}
	return value.Array(groups), nil
}

func submatch(s string, idx []int, g int) string {
	start, end := idx[2*g], idx[2*g+1]
	if start < 0 || end < 0 {
		return ""
	}
	return s[start:end]
}

func (e *Extractor) namedGroupsObject(s string, idx []int) value.Value {
	obj := value.NewObject()
	for i, name := range e.pattern.SubexpNames() {
		if i == 0 || name == "" {
			continue
		}
		obj.Set(name, value.String(submatch(s, idx, i)))
	}
	return value.ObjectVal(obj)
}

// modifier is one compiled step of a modifier chain (spec.md §4.3 step 3).
type modifier interface {
	apply(v value.Value) (value.Value, error)
}

func buildModifier(cfg ModifierConfig) (modifier, error) {
	switch cfg.Type {
	case "trim":
		return trimModifier{}, nil
	case "lowercase":
		return caseModifier{upper: false}, nil
	case "uppercase":
		return caseModifier{upper: true}, nil
	case "replace":
		return buildReplaceModifier(cfg)
	case "to_number":
		return toNumberModifier{}, nil
	case "map":
		return mapModifier{mapping: cfg.Mapping, defaultValue: cfg.DefaultValue}, nil
	case "date_and_time":
		loc, err := time.LoadLocation(cfg.Timezone)
		if err != nil {
			return nil, fmt.Errorf("%w: timezone %q: %v", ErrInvalidModifierArgs, cfg.Timezone, err)
		}
		return dateTimeModifier{loc: loc}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidModifier, cfg.Type)
	}
}

func buildReplaceModifier(cfg ModifierConfig) (modifier, error) {
	if !cfg.IsRegex {
		return replaceModifier{find: cfg.Find, replace: cfg.Replace}, nil
	}
	re, err := regexp.Compile(cfg.Find)
	if err != nil {
		return nil, fmt.Errorf("%w: replace find %q: %v", ErrInvalidModifierArgs, cfg.Find, err)
	}
	return replaceRegexModifier{pattern: re, replace: cfg.Replace}, nil
}

// stringOnly applies fn to a String Value, failing on any other Kind.
func stringOnly(v value.Value, fn func(string) string) (value.Value, error) {
	s, ok := v.AsString()
	if !ok {
		return value.Value{}, fmt.Errorf("%w: expected string, got %v", ErrModifierFailed, v.Kind())
	}
	return value.String(fn(s)), nil
}

type trimModifier struct{}

func (trimModifier) apply(v value.Value) (value.Value, error) {
	return stringOnly(v, strings.TrimSpace)
}

type caseModifier struct{ upper bool }

func (m caseModifier) apply(v value.Value) (value.Value, error) {
	if m.upper {
		return stringOnly(v, strings.ToUpper)
	}
	return stringOnly(v, strings.ToLower)
}

type replaceModifier struct{ find, replace string }

func (m replaceModifier) apply(v value.Value) (value.Value, error) {
	return stringOnly(v, func(s string) string {
		return strings.ReplaceAll(s, m.find, m.replace)
	})
}

type replaceRegexModifier struct {
	pattern *regexp.Regexp
	replace string
}

func (m replaceRegexModifier) apply(v value.Value) (value.Value, error) {
	return stringOnly(v, func(s string) string {
		return m.pattern.ReplaceAllString(s, m.replace)
	})
}

// toNumberModifier parses a string to a number, or passes a number
// through unchanged (spec.md §4.3 "string→number or number→number").
type toNumberModifier struct{}

func (toNumberModifier) apply(v value.Value) (value.Value, error) {
	if v.IsNumeric() {
		return v, nil
	}
	s, ok := v.AsString()
	if !ok {
		return value.Value{}, fmt.Errorf("%w: to_number: not a string or number", ErrModifierFailed)
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return value.Int(i), nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return value.Value{}, fmt.Errorf("%w: to_number: %q is not numeric", ErrModifierFailed, s)
	}
	return value.Float(f), nil
}

// mapModifier looks up the current string Value in mapping, falling back
// to defaultValue when present and failing otherwise.
type mapModifier struct {
	mapping      map[string]string
	defaultValue *string
}

func (m mapModifier) apply(v value.Value) (value.Value, error) {
	s, ok := v.AsString()
	if !ok {
		return value.Value{}, fmt.Errorf("%w: map: expected string", ErrModifierFailed)
	}
	if mapped, ok := m.mapping[s]; ok {
		return value.String(mapped), nil
	}
	if m.defaultValue != nil {
		return value.String(*m.defaultValue), nil
	}
	return value.Value{}, fmt.Errorf("%w: map: %q has no mapping and no default_value", ErrModifierFailed, s)
}

// dateTimeModifier interprets an integer epoch value, detecting its unit
// by magnitude band, and renders `%Y-%m-%d %H:%M:%S%:z` in loc
// (spec.md §4.3).
type dateTimeModifier struct {
	loc *time.Location
}

const dateTimeLayout = "2006-01-02 15:04:05-07:00"

func (m dateTimeModifier) apply(v value.Value) (value.Value, error) {
	var epoch int64
	switch v.Kind() {
	case value.KindInt:
		epoch, _ = asInt64(v)
	case value.KindUint:
		f, _ := v.AsFloat64()
		epoch = int64(f)
	case value.KindFloat:
		f, _ := v.AsFloat64()
		epoch = int64(f)
	case value.KindString:
		s, _ := v.AsString()
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return value.Value{}, fmt.Errorf("%w: date_and_time: %q is not an integer epoch", ErrModifierFailed, s)
		}
		epoch = n
	default:
		return value.Value{}, fmt.Errorf("%w: date_and_time: expected integer epoch", ErrModifierFailed)
	}

	t := epochToTime(epoch).In(m.loc)
	return value.String(t.Format(dateTimeLayout)), nil
}

func asInt64(v value.Value) (int64, bool) {
	f, ok := v.AsFloat64()
	return int64(f), ok
}

// epochToTime classifies epoch by magnitude band — seconds, milliseconds,
// microseconds, or nanoseconds — per spec.md §4.3's ±1e11/±1e14/±1e17
// thresholds (today's epoch-seconds values sit well under 1e11; each unit
// step up moves the same instant three decimal orders higher).
func epochToTime(epoch int64) time.Time {
	abs := epoch
	if abs < 0 {
		abs = -abs
	}
	switch {
	case abs < 1e11:
		return time.Unix(epoch, 0)
	case abs < 1e14:
		return time.UnixMilli(epoch)
	case abs < 1e17:
		return time.UnixMicro(epoch)
	default:
		return time.Unix(0, epoch)
	}
}
