package matcher

import (
	"fmt"
	"regexp"

	"github.com/vitaliisemenov/alert-history/internal/accessor"
	"github.com/vitaliisemenov/alert-history/internal/operator"
	"github.com/vitaliisemenov/alert-history/internal/rule"
)

var identifierPattern = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)

// ValidIdentifier reports whether name matches spec.md's identifier
// syntax (`^[a-zA-Z0-9_]+$`), enforced on every named entity except the
// literal root node.
func ValidIdentifier(name string) bool {
	return identifierPattern.MatchString(name)
}

// TreeBuilder compiles a NodeConfig tree into a Node tree (spec.md
// §4.6/§4.8), validating identifier syntax and sibling-name uniqueness
// and compiling every Operator, Extractor, Accessor, and Rule along the
// way. Build failures are structured BuildErrors naming the offending
// path; they are fatal for admission and never reach the hot path.
type TreeBuilder struct {
	regexCache *RegexCache
}

// NewTreeBuilder returns a TreeBuilder whose regex compilation is routed
// through cache (may be nil, in which case regexp.Compile is called
// directly with no cross-build caching).
func NewTreeBuilder(cache *RegexCache) *TreeBuilder {
	return &TreeBuilder{regexCache: cache}
}

func (b *TreeBuilder) compile() func(string) (*regexp.Regexp, error) {
	if b.regexCache != nil {
		return b.regexCache.Compile
	}
	return regexp.Compile
}

// Build compiles root into a Node tree. root's Name must be the literal
// "root" (spec.md §3 "The root node MUST be named root").
func (b *TreeBuilder) Build(root NodeConfig) (*Node, error) {
	if root.Name != "root" {
		return nil, &BuildError{Type: ErrInvalidIdentifier, Path: root.Name, Err: fmt.Errorf("root node must be named %q", "root")}
	}
	return b.buildNode(root, "root")
}

func (b *TreeBuilder) buildNode(cfg NodeConfig, path string) (*Node, error) {
	if path != "root" && !ValidIdentifier(cfg.Name) {
		return nil, &BuildError{Type: ErrInvalidIdentifier, Path: path}
	}

	switch cfg.Type {
	case NodeFilter:
		return b.buildFilter(cfg, path)
	case NodeIterator:
		return b.buildIterator(cfg, path)
	case NodeRuleset:
		return b.buildRuleset(cfg, path)
	default:
		return nil, &BuildError{Type: ErrUnknownNodeType, Path: path, Err: fmt.Errorf("unknown node type %q", cfg.Type)}
	}
}

func (b *TreeBuilder) buildFilter(cfg NodeConfig, path string) (*Node, error) {
	n := &Node{Type: NodeFilter, Name: cfg.Name, Active: cfg.IsActive()}

	if cfg.Filter != nil {
		op, err := operator.BuildWithCompiler(*cfg.Filter, b.compile())
		if err != nil {
			return nil, &BuildError{Type: ErrOperatorBuildFail, Path: path + "/filter", Err: err}
		}
		n.Filter = op
	}

	children, err := b.buildChildren(cfg.Nodes, path)
	if err != nil {
		return nil, err
	}
	n.Children = children
	return n, nil
}

func (b *TreeBuilder) buildIterator(cfg NodeConfig, path string) (*Node, error) {
	target, err := accessor.Compile(cfg.Target)
	if err != nil {
		return nil, &BuildError{Type: ErrAccessorBuildFail, Path: path + "/target", Err: err}
	}

	children, err := b.buildChildren(cfg.Nodes, path)
	if err != nil {
		return nil, err
	}

	return &Node{Type: NodeIterator, Name: cfg.Name, Target: target, Children: children}, nil
}

func (b *TreeBuilder) buildRuleset(cfg NodeConfig, path string) (*Node, error) {
	seen := make(map[string]bool, len(cfg.Rules))
	rules := make([]*rule.Rule, 0, len(cfg.Rules))
	for _, rc := range cfg.Rules {
		if seen[rc.Name] {
			return nil, &BuildError{Type: ErrDuplicateName, Path: path + "/" + rc.Name}
		}
		seen[rc.Name] = true

		r, err := rule.BuildWithCompiler(rc, b.compile())
		if err != nil {
			return nil, &BuildError{Type: ErrRuleBuildFailed, Path: path + "/" + rc.Name, Err: err}
		}
		rules = append(rules, r)
	}
	return &Node{Type: NodeRuleset, Name: cfg.Name, Rules: rules}, nil
}

func (b *TreeBuilder) buildChildren(configs []NodeConfig, parentPath string) ([]*Node, error) {
	seen := make(map[string]bool, len(configs))
	children := make([]*Node, 0, len(configs))
	for _, cc := range configs {
		childPath := parentPath + "/" + cc.Name
		if seen[cc.Name] {
			return nil, &BuildError{Type: ErrDuplicateName, Path: childPath}
		}
		seen[cc.Name] = true

		child, err := b.buildNode(cc, childPath)
		if err != nil {
			return nil, err
		}
		children = append(children, child)
	}
	return children, nil
}
