// Package secrets implements the allow/deny glob policy of spec.md §4.3.
// Glob matching is grounded on the teacher's topic-routing matcher
// (workflow/answerer/registry.go's longest-pattern-wins Match), generalized
// here to doublestar's "*" (single segment) / "**" (multi-segment) glob
// semantics over dot-separated secret keys treated as path segments.
package secrets

import (
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/c360studio/qaengine/spec"
)

// Policy wraps a spec.SecretsPolicy with the read/write predicates of
// spec.md §4.3. It is stateless and safe to share across goroutines — it
// holds no mutable state, just the policy data it was constructed with.
type Policy struct {
	p spec.SecretsPolicy
}

// New wraps p for evaluation.
func New(p spec.SecretsPolicy) *Policy {
	return &Policy{p: p}
}

// MayRead reports whether key may be read under this policy:
// enabled ∧ read_enabled ∧ matches(allow, key) ∧ ¬matches(deny, key).
func (pol *Policy) MayRead(key string) bool {
	if !pol.p.Enabled || !pol.p.ReadEnabled {
		return false
	}
	return matchesAny(pol.p.Allow, key) && !matchesAny(pol.p.Deny, key)
}

// MayWrite is the analogous predicate gated on write_enabled.
func (pol *Policy) MayWrite(key string) bool {
	if !pol.p.Enabled || !pol.p.WriteEnabled {
		return false
	}
	return matchesAny(pol.p.Allow, key) && !matchesAny(pol.p.Deny, key)
}

// matchesAny reports whether key matches any glob pattern in patterns.
// Patterns and keys are treated as "."-separated segment paths so that "*"
// matches exactly one segment and "**" matches across segment boundaries,
// matching doublestar's slash-segment semantics by substituting "." for "/"
// before matching.
func matchesAny(patterns []string, key string) bool {
	slashKey := toSlash(key)
	for _, pat := range patterns {
		ok, err := doublestar.Match(toSlash(pat), slashKey)
		if err == nil && ok {
			return true
		}
	}
	return false
}

func toSlash(s string) string {
	return strings.ReplaceAll(s, ".", "/")
}
