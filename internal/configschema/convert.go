package configschema

import (
	"fmt"

	"github.com/vitaliisemenov/alert-history/internal/extractor"
	"github.com/vitaliisemenov/alert-history/internal/matcher"
	"github.com/vitaliisemenov/alert-history/internal/operator"
	"github.com/vitaliisemenov/alert-history/internal/rule"
)

// operatorTypeByWireTag maps OperatorDoc's wire-format Type casing to
// operator.Config's internal Type strings.
var operatorTypeByWireTag = map[string]string{
	"AND":                "and",
	"OR":                 "or",
	"NOT":                "not",
	"equals":             "equals",
	"contains":           "contains",
	"containsIgnoreCase": "contains_ignore_case",
	"equalsIgnoreCase":   "equals_ignore_case",
	"regex":              "regex",
	"lt":                 "lt",
	"le":                 "le",
	"gt":                 "gt",
	"ge":                 "ge",
}

// ToOperatorConfig translates an OperatorDoc tree into operator.Config.
func (d *OperatorDoc) ToOperatorConfig() (operator.Config, error) {
	if d == nil {
		return operator.Config{}, nil
	}
	internalType, ok := operatorTypeByWireTag[d.Type]
	if !ok {
		return operator.Config{}, fmt.Errorf("%w: %q", ErrUnknownOperatorType, d.Type)
	}

	cfg := operator.Config{
		Type:   internalType,
		First:  d.First,
		Second: d.Second,
		Regex:  d.Regex,
		Target: d.Target,
	}

	if len(d.Operators) > 0 {
		cfg.Ops = make([]operator.Config, len(d.Operators))
		for i, op := range d.Operators {
			child, err := op.ToOperatorConfig()
			if err != nil {
				return operator.Config{}, err
			}
			cfg.Ops[i] = child
		}
	}
	if d.Operator != nil {
		child, err := d.Operator.ToOperatorConfig()
		if err != nil {
			return operator.Config{}, err
		}
		cfg.Op = &child
	}

	return cfg, nil
}

// ToExtractorConfig translates an ExtractorDoc into extractor.Config.
func (d ExtractorDoc) ToExtractorConfig() (extractor.Config, error) {
	cfg := extractor.Config{
		Name: d.Var,
		From: d.From,
	}

	switch d.Regex.Type {
	case "Regex":
		cfg.Pattern = d.Regex.Match
		cfg.GroupMatchIdx = d.Regex.GroupMatchIdx
	case "RegexNamedGroups":
		cfg.Pattern = d.Regex.NamedMatch
		cfg.NamedGroups = true
	default:
		return extractor.Config{}, fmt.Errorf("%w: %q", ErrUnknownExtractorKind, d.Regex.Type)
	}
	if d.Regex.AllMatches != nil {
		cfg.AllMatches = *d.Regex.AllMatches
	}

	cfg.Modifiers = make([]extractor.ModifierConfig, len(d.ModifiersPost))
	for i, m := range d.ModifiersPost {
		cfg.Modifiers[i] = extractor.ModifierConfig{
			Type:         m.Type,
			Find:         m.Find,
			Replace:      m.Replace,
			IsRegex:      m.IsRegex,
			Mapping:      m.Mapping,
			DefaultValue: m.DefaultValue,
			Timezone:     m.Timezone,
		}
	}
	return cfg, nil
}

// ToRuleConfig translates a RuleDoc into rule.Config.
func (d RuleDoc) ToRuleConfig() (rule.Config, error) {
	cfg := rule.Config{
		Name:        d.Name,
		Description: d.Description,
		Active:      d.Active,
		DoContinue:  d.Continue,
	}

	if d.Constraint.Where != nil {
		where, err := d.Constraint.Where.ToOperatorConfig()
		if err != nil {
			return rule.Config{}, err
		}
		cfg.Where = &where
	}

	cfg.With = make([]extractor.Config, len(d.Constraint.With))
	for i, ed := range d.Constraint.With {
		ec, err := ed.ToExtractorConfig()
		if err != nil {
			return rule.Config{}, err
		}
		cfg.With[i] = ec
	}

	cfg.Actions = make([]rule.ActionConfig, len(d.Actions))
	for i, a := range d.Actions {
		cfg.Actions[i] = rule.ActionConfig{ID: a.ID, Payload: a.Payload}
	}
	return cfg, nil
}

// ToNodeConfig translates a NodeDoc tree into matcher.NodeConfig, the
// input TreeBuilder.Build compiles into a live Matcher.
func (d NodeDoc) ToNodeConfig() (matcher.NodeConfig, error) {
	cfg := matcher.NodeConfig{
		Type:   matcher.NodeType(d.Type),
		Name:   d.Name,
		Active: d.Active,
		Target: d.Target,
	}

	if d.Filter != nil {
		filter, err := d.Filter.ToOperatorConfig()
		if err != nil {
			return matcher.NodeConfig{}, err
		}
		cfg.Filter = &filter
	}

	cfg.Nodes = make([]matcher.NodeConfig, len(d.Nodes))
	for i, n := range d.Nodes {
		child, err := n.ToNodeConfig()
		if err != nil {
			return matcher.NodeConfig{}, err
		}
		cfg.Nodes[i] = child
	}

	cfg.Rules = make([]rule.Config, len(d.Rules))
	for i, rd := range d.Rules {
		rc, err := rd.ToRuleConfig()
		if err != nil {
			return matcher.NodeConfig{}, err
		}
		cfg.Rules[i] = rc
	}

	return cfg, nil
}
