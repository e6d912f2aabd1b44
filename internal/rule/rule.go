// Package rule implements the per-rule evaluation algorithm (spec.md
// §4.5, component E): an optional WHERE Operator gates an ordered set of
// WITH Extractors, whose results feed a list of Action templates.
package rule

import (
	"regexp"

	"github.com/vitaliisemenov/alert-history/internal/accessor"
	"github.com/vitaliisemenov/alert-history/internal/extractor"
	"github.com/vitaliisemenov/alert-history/internal/interpolator"
	"github.com/vitaliisemenov/alert-history/internal/operator"
	"github.com/vitaliisemenov/alert-history/internal/scope"
	"github.com/vitaliisemenov/alert-history/internal/value"
)

var identifierPattern = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)

// ValidIdentifier reports whether name matches spec.md's identifier
// syntax (`^[a-zA-Z0-9_]+$`).
func ValidIdentifier(name string) bool {
	return identifierPattern.MatchString(name)
}

// Status is a rule's terminal evaluation state (spec.md §3/§4.5).
type Status string

const (
	StatusMatched          Status = "Matched"
	StatusNotMatched       Status = "NotMatched"
	StatusPartiallyMatched Status = "PartiallyMatched"
	StatusNotProcessed     Status = "NotProcessed"
)

// ActionConfig is the decoded form of an ActionTemplate.
type ActionConfig struct {
	ID      string      `json:"id" yaml:"id"`
	Payload value.Value `json:"payload" yaml:"payload"`
}

// Action is a resolved, ready-to-publish action (spec.md §3).
type Action struct {
	ID      string
	Payload value.Value
}

// Config is the decoded form of a Rule (spec.md §3).
type Config struct {
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Active      bool   `json:"active" yaml:"active"`
	DoContinue  bool   `json:"continue" yaml:"continue"`

	Where *operator.Config  `json:"where,omitempty" yaml:"where,omitempty"`
	With  []extractor.Config `json:"with,omitempty" yaml:"with,omitempty"`

	Actions []ActionConfig `json:"actions,omitempty" yaml:"actions,omitempty"`
}

// Rule is the compiled, reusable form of Config.
type Rule struct {
	name        string
	description string
	active      bool
	doContinue  bool

	where      operator.Operator // nil == always true
	extractors []*extractor.Extractor
	actions    []compiledAction
}

type compiledAction struct {
	id   string
	tmpl *interpolator.Template
}

// Build compiles cfg into a Rule, validating identifiers and
// uniqueness and compiling the operator, extractors, and action
// templates (spec.md §4.6/§4.8). A build failure is fatal for tree
// admission; it never surfaces at evaluation time.
func Build(cfg Config) (*Rule, error) {
	return BuildWithCompiler(cfg, regexp.Compile)
}

// BuildWithCompiler is Build with every regex compilation (the WHERE
// operator's and every extractor's) routed through compile, so
// internal/matcher can share an LRU-cached compiler across a tree build.
func BuildWithCompiler(cfg Config, compile operator.Compiler) (*Rule, error) {
	if !ValidIdentifier(cfg.Name) {
		return nil, &BuildError{Path: cfg.Name, Err: ErrInvalidName}
	}

	r := &Rule{
		name:        cfg.Name,
		description: cfg.Description,
		active:      cfg.Active,
		doContinue:  cfg.DoContinue,
	}

	if cfg.Where != nil {
		where, err := operator.BuildWithCompiler(*cfg.Where, compile)
		if err != nil {
			return nil, &BuildError{Path: cfg.Name + "/where", Err: err}
		}
		r.where = where
	}

	seenVars := make(map[string]bool, len(cfg.With))
	for _, ec := range cfg.With {
		if !ValidIdentifier(ec.Name) {
			return nil, &BuildError{Path: cfg.Name + "/" + ec.Name, Err: ErrInvalidName}
		}
		if seenVars[ec.Name] {
			return nil, &BuildError{Path: cfg.Name + "/" + ec.Name, Err: ErrDuplicateVariable}
		}
		seenVars[ec.Name] = true

		ex, err := extractor.BuildWithCompiler(ec, extractor.Compiler(compile))
		if err != nil {
			return nil, &BuildError{Path: cfg.Name + "/" + ec.Name, Err: err}
		}
		r.extractors = append(r.extractors, ex)
	}

	seenActions := make(map[string]bool, len(cfg.Actions))
	for _, ac := range cfg.Actions {
		if !ValidIdentifier(ac.ID) {
			return nil, &BuildError{Path: cfg.Name + "/" + ac.ID, Err: ErrInvalidName}
		}
		if seenActions[ac.ID] {
			return nil, &BuildError{Path: cfg.Name + "/" + ac.ID, Err: ErrDuplicateAction}
		}
		seenActions[ac.ID] = true

		tmpl, err := interpolator.Compile(ac.Payload)
		if err != nil {
			return nil, &BuildError{Path: cfg.Name + "/" + ac.ID, Err: err}
		}
		r.actions = append(r.actions, compiledAction{id: ac.ID, tmpl: tmpl})
	}

	return r, nil
}

// Name returns the rule's identifier.
func (r *Rule) Name() string { return r.name }

// Processed is the audit record of one rule's evaluation (spec.md §3
// "ProcessedRule").
type Processed struct {
	Name    string
	Status  Status
	Actions []Action
	Message string
}

// Evaluate runs the full per-rule algorithm of spec.md §4.5 against ctx,
// accumulating any extracted variables into ctx.Scope.Vars so later
// rules in the same Ruleset can read them via `${_variables.*}`.
func (r *Rule) Evaluate(ctx accessor.Context) Processed {
	if !r.active {
		return Processed{Name: r.name, Status: StatusNotProcessed}
	}

	if r.where != nil && !r.where.Evaluate(ctx) {
		return Processed{Name: r.name, Status: StatusNotMatched}
	}

	for _, ex := range r.extractors {
		v, err := ex.Extract(ctx)
		if err != nil {
			return Processed{
				Name:    r.name,
				Status:  StatusPartiallyMatched,
				Message: "extractor " + ex.Name() + ": " + err.Error(),
			}
		}
		ctx.Scope.Vars.Set(ex.Name(), v)
	}

	actions := make([]Action, 0, len(r.actions))
	for _, a := range r.actions {
		payload, err := a.tmpl.Render(ctx)
		if err != nil {
			return Processed{
				Name:    r.name,
				Status:  StatusPartiallyMatched,
				Message: "action " + a.id + ": " + err.Error(),
			}
		}
		actions = append(actions, Action{ID: a.id, Payload: payload})
	}

	return Processed{Name: r.name, Status: StatusMatched, Actions: actions}
}

// DoContinue reports the rule's do_continue flag (spec.md §4.5 step 6).
// It is consulted only after the rule has Matched: a Matched rule with
// DoContinue false stops the Ruleset; any other status never halts it.
func (r *Rule) DoContinue() bool { return r.doContinue }

// Scope re-exports scope.Scope for callers assembling a fresh Ruleset
// scope; internal/matcher imports internal/scope directly instead.
type Scope = scope.Scope
