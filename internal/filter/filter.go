// Package filter implements the exclude matcher consumed by every tree
// walker: an ordered list of glob rules where the last matching rule wins.
package filter

import "strings"

// Rule is a single exclude rule, or an include rule when negated with "!".
type Rule struct {
	Pattern *Pattern
	Include bool
}

// Chain holds an ordered list of filter rules plus size filters.
type Chain struct {
	rules   []Rule
	minSize int64
	maxSize int64
	icase   bool
}

// Option configures a Chain.
type Option func(*Chain)

// WithCaseInsensitive makes every rule added afterwards match regardless of
// letter case.
func WithCaseInsensitive(icase bool) Option {
	return func(c *Chain) { c.icase = icase }
}

// NewChain creates an empty filter chain.
func NewChain(opts ...Option) *Chain {
	c := &Chain{}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Add adds a rule. A leading "!" negates the pattern into an include rule;
// anything else excludes.
func (c *Chain) Add(pattern string) error {
	if rest, ok := strings.CutPrefix(pattern, "!"); ok {
		return c.AddInclude(rest)
	}
	return c.AddExclude(pattern)
}

// AddExclude adds an exclude rule for the given pattern.
func (c *Chain) AddExclude(pattern string) error {
	p, err := Compile(pattern, c.icase)
	if err != nil {
		return err
	}
	c.rules = append(c.rules, Rule{Pattern: p})
	return nil
}

// AddInclude adds an include rule for the given pattern.
func (c *Chain) AddInclude(pattern string) error {
	p, err := Compile(pattern, c.icase)
	if err != nil {
		return err
	}
	c.rules = append(c.rules, Rule{Pattern: p, Include: true})
	return nil
}

// SetMinSize sets the minimum file size filter.
func (c *Chain) SetMinSize(n int64) { c.minSize = n }

// SetMaxSize sets the maximum file size filter.
func (c *Chain) SetMaxSize(n int64) { c.maxSize = n }

// Empty reports whether the chain has no rules and no size filters.
func (c *Chain) Empty() bool {
	return len(c.rules) == 0 && c.minSize == 0 && c.maxSize == 0
}

// ShouldExclude reports whether relPath is rejected by the rules. relPath
// is relative to the walk root; a trailing separator marks a directory.
// Size filters are not consulted.
func (c *Chain) ShouldExclude(relPath string) bool {
	if c == nil {
		return false
	}
	rel := normalize(relPath)
	isDir := strings.HasSuffix(rel, "/")
	rel = strings.TrimSuffix(rel, "/")
	if rel == "" || rel == "." {
		return false
	}
	return !c.matchRules(rel, isDir)
}

// Match returns true if the path should be INCLUDED. relPath is relative to
// the walk root, isDir indicates directories, and size is the file size
// (ignored for directories). A nil chain includes everything.
func (c *Chain) Match(relPath string, isDir bool, size int64) bool {
	if c == nil {
		return true
	}
	if !isDir {
		if c.minSize > 0 && size < c.minSize {
			return false
		}
		if c.maxSize > 0 && size > c.maxSize {
			return false
		}
	}
	return c.matchRules(strings.TrimSuffix(normalize(relPath), "/"), isDir)
}

// matchRules walks the rules from last to first; the last rule that
// matches decides. No match includes.
func (c *Chain) matchRules(rel string, isDir bool) bool {
	for i := len(c.rules) - 1; i >= 0; i-- {
		if c.rules[i].Pattern.Match(rel, isDir) {
			return c.rules[i].Include
		}
	}
	return true
}
