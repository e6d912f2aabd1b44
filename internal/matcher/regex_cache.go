package matcher

import (
	"regexp"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/vitaliisemenov/alert-history/internal/operator"
)

// RegexCache caches compiled regex patterns across tree builds, so two
// rules sharing a pattern string — or two successive reloads of an
// unchanged rule — don't pay recompilation cost (grounded on teacher's
// hand-rolled RegexCache; backed here by hashicorp/golang-lru/v2 instead
// of a bespoke container/list LRU).
type RegexCache struct {
	cache *lru.Cache[string, *regexp.Regexp]
}

// NewRegexCache returns a RegexCache holding at most size compiled
// patterns, evicting least-recently-used entries beyond that.
func NewRegexCache(size int) *RegexCache {
	if size <= 0 {
		size = 1000
	}
	c, _ := lru.New[string, *regexp.Regexp](size)
	return &RegexCache{cache: c}
}

// Compile implements operator.Compiler (and extractor.Compiler, an
// identical signature): it returns a cached *regexp.Regexp for pattern
// when present, otherwise compiles, caches, and returns it.
func (c *RegexCache) Compile(pattern string) (*regexp.Regexp, error) {
	if re, ok := c.cache.Get(pattern); ok {
		return re, nil
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}
	c.cache.Add(pattern, re)
	return re, nil
}

var _ operator.Compiler = (*RegexCache)(nil).Compile
