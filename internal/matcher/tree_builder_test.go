package matcher

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitaliisemenov/alert-history/internal/accessor"
	"github.com/vitaliisemenov/alert-history/internal/event"
	"github.com/vitaliisemenov/alert-history/internal/extractor"
	"github.com/vitaliisemenov/alert-history/internal/operator"
	"github.com/vitaliisemenov/alert-history/internal/rule"
	"github.com/vitaliisemenov/alert-history/internal/scope"
	"github.com/vitaliisemenov/alert-history/internal/value"
)

func ctxFor(payload *value.Object) accessor.Context {
	ev := event.New("alert", payload, nil)
	return accessor.Context{Event: event.NewInternal(ev), Scope: scope.New()}
}

func TestBuild_RootMustBeNamedRoot(t *testing.T) {
	b := NewTreeBuilder(nil)
	_, err := b.Build(NodeConfig{Type: NodeFilter, Name: "notroot"})
	require.Error(t, err)
	var be *BuildError
	require.ErrorAs(t, err, &be)
	assert.Equal(t, ErrInvalidIdentifier, be.Type)
}

func TestBuild_DuplicateSiblingNames(t *testing.T) {
	b := NewTreeBuilder(nil)
	_, err := b.Build(NodeConfig{
		Type: NodeFilter, Name: "root",
		Nodes: []NodeConfig{
			{Type: NodeRuleset, Name: "a"},
			{Type: NodeRuleset, Name: "a"},
		},
	})
	var be *BuildError
	require.ErrorAs(t, err, &be)
	assert.Equal(t, ErrDuplicateName, be.Type)
}

func TestBuild_InvalidChildName(t *testing.T) {
	b := NewTreeBuilder(nil)
	_, err := b.Build(NodeConfig{
		Type: NodeFilter, Name: "root",
		Nodes: []NodeConfig{{Type: NodeRuleset, Name: "bad name"}},
	})
	var be *BuildError
	require.ErrorAs(t, err, &be)
	assert.Equal(t, ErrInvalidIdentifier, be.Type)
}

func TestProcess_FilterInactive(t *testing.T) {
	b := NewTreeBuilder(nil)
	inactive := false
	root, err := b.Build(NodeConfig{Type: NodeFilter, Name: "root", Active: &inactive})
	require.NoError(t, err)

	p := Process(root, ctxFor(value.NewObject()))
	assert.Equal(t, StatusInactive, p.FilterStatus)
}

func TestProcess_FilterNotMatchedSkipsChildren(t *testing.T) {
	b := NewTreeBuilder(nil)
	filterCfg := operator.Config{Type: "equals", First: "${event.payload.sev}", Second: "critical"}
	root, err := b.Build(NodeConfig{
		Type: NodeFilter, Name: "root", Filter: &filterCfg,
		Nodes: []NodeConfig{{Type: NodeRuleset, Name: "rs"}},
	})
	require.NoError(t, err)

	payload := value.NewObject()
	payload.Set("sev", value.String("warning"))
	p := Process(root, ctxFor(payload))
	assert.Equal(t, StatusNotMatched, p.FilterStatus)
	assert.Empty(t, p.Children)
}

func TestProcess_FilterMatchedRecursesIntoRuleset(t *testing.T) {
	b := NewTreeBuilder(nil)
	root, err := b.Build(NodeConfig{
		Type: NodeFilter, Name: "root",
		Nodes: []NodeConfig{
			{
				Type: NodeRuleset, Name: "rs",
				Rules: []rule.Config{{Name: "r1", Active: true}},
			},
		},
	})
	require.NoError(t, err)

	p := Process(root, ctxFor(value.NewObject()))
	require.Equal(t, StatusMatched, p.FilterStatus)
	require.Len(t, p.Children, 1)
	require.Len(t, p.Children[0].Rules, 1)
	assert.Equal(t, rule.StatusMatched, p.Children[0].Rules[0].Status)
}

func TestProcess_IteratorFanOut(t *testing.T) {
	b := NewTreeBuilder(nil)
	root, err := b.Build(NodeConfig{
		Type: NodeIterator, Name: "root", Target: "${event.payload.items}",
		Nodes: []NodeConfig{
			{
				Type: NodeRuleset, Name: "rs",
				Rules: []rule.Config{{Name: "r1", Active: true}},
			},
		},
	})
	require.NoError(t, err)

	items := value.Array([]value.Value{value.String("a"), value.String("b")})
	payload := value.NewObject()
	payload.Set("items", items)

	p := Process(root, ctxFor(payload))
	require.Equal(t, StatusMatched, p.IteratorStatus)
	require.Len(t, p.Items, 2)
	assert.Equal(t, 0, p.Items[0].Index)
	assert.Equal(t, 1, p.Items[1].Index)
	require.Len(t, p.Items[0].Nodes, 1)
	assert.Equal(t, rule.StatusMatched, p.Items[0].Nodes[0].Rules[0].Status)
}

func TestProcess_IteratorNonArrayTargetIsTypeError(t *testing.T) {
	b := NewTreeBuilder(nil)
	root, err := b.Build(NodeConfig{Type: NodeIterator, Name: "root", Target: "${event.payload.items}"})
	require.NoError(t, err)

	payload := value.NewObject()
	payload.Set("items", value.String("not an array"))
	p := Process(root, ctxFor(payload))
	assert.Equal(t, StatusTypeError, p.IteratorStatus)
	assert.Empty(t, p.Items)
}

func TestProcess_IteratorMissingTargetIsAccessorError(t *testing.T) {
	b := NewTreeBuilder(nil)
	root, err := b.Build(NodeConfig{Type: NodeIterator, Name: "root", Target: "${event.payload.missing}"})
	require.NoError(t, err)

	p := Process(root, ctxFor(value.NewObject()))
	assert.Equal(t, StatusAccessorError, p.IteratorStatus)
}

func TestProcess_IteratorItemScopeResolves(t *testing.T) {
	b := NewTreeBuilder(nil)
	where := operator.Config{Type: "equals", First: "${_item}", Second: "b"}
	root, err := b.Build(NodeConfig{
		Type: NodeIterator, Name: "root", Target: "${event.payload.items}",
		Nodes: []NodeConfig{
			{
				Type: NodeRuleset, Name: "rs",
				Rules: []rule.Config{{Name: "r1", Active: true, Where: &where}},
			},
		},
	})
	require.NoError(t, err)

	items := value.Array([]value.Value{value.String("a"), value.String("b")})
	payload := value.NewObject()
	payload.Set("items", items)

	p := Process(root, ctxFor(payload))
	require.Len(t, p.Items, 2)
	assert.Equal(t, rule.StatusNotMatched, p.Items[0].Nodes[0].Rules[0].Status)
	assert.Equal(t, rule.StatusMatched, p.Items[1].Nodes[0].Rules[0].Status)
}

func TestProcess_RulesetDoContinueFalseStopsEvaluation(t *testing.T) {
	b := NewTreeBuilder(nil)
	root, err := b.Build(NodeConfig{
		Type: NodeRuleset, Name: "root",
		Rules: []rule.Config{
			{Name: "first", Active: true, DoContinue: false},
			{Name: "second", Active: true},
		},
	})
	require.NoError(t, err)

	p := Process(root, ctxFor(value.NewObject()))
	require.Len(t, p.Rules, 1)
	assert.Equal(t, "first", p.Rules[0].Name)
}

func TestProcess_RulesetVariableScopingAcrossRules(t *testing.T) {
	b := NewTreeBuilder(nil)
	groupOne := 1
	root, err := b.Build(NodeConfig{
		Type: NodeRuleset, Name: "root",
		Rules: []rule.Config{
			{
				Name: "extract", Active: true, DoContinue: true,
				With: []extractor.Config{
					{
						Name: "host", From: "${event.payload.msg}",
						Pattern: `host=(\S+)`, GroupMatchIdx: &groupOne,
					},
				},
			},
			{
				Name: "consume", Active: true,
				Where: &operator.Config{Type: "equals", First: "${_variables.host}", Second: "web-1"},
			},
		},
	})
	require.NoError(t, err)

	payload := value.NewObject()
	payload.Set("msg", value.String("host=web-1 up"))
	p := Process(root, ctxFor(payload))
	require.Len(t, p.Rules, 2)
	assert.Equal(t, rule.StatusMatched, p.Rules[0].Status)
	assert.Equal(t, rule.StatusMatched, p.Rules[1].Status)
}
