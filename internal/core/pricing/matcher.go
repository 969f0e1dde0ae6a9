package pricing

import (
	"sort"
	"strings"
)

// Matcher resolves an ingredient name to a reference price. Strategies are
// swappable so the pipeline does not care whether matching is exact,
// substring-based, or something smarter.
type Matcher interface {
	// MatchPrice returns the reference price per gram for name, or false
	// when the table has no usable entry.
	MatchPrice(name string, table Table) (float64, bool)
}

// SubstringMatcher exact normalized match first, then containment either way
// with the longest (most specific) reference key winning, so "ground beef"
// beats "beef". Best-effort: ambiguous names may land on the wrong entry.
type SubstringMatcher struct{}

// NewSubstringMatcher creates the default matcher
func NewSubstringMatcher() *SubstringMatcher {
	return &SubstringMatcher{}
}

// MatchPrice implements Matcher
func (m *SubstringMatcher) MatchPrice(name string, table Table) (float64, bool) {
	normalized := NormalizeName(name)
	if normalized == "" {
		return 0, false
	}

	if price, ok := table[normalized]; ok {
		return price, true
	}

	var candidates []string
	for key := range table {
		if strings.Contains(normalized, key) || strings.Contains(key, normalized) {
			candidates = append(candidates, key)
		}
	}
	if len(candidates) == 0 {
		return 0, false
	}

	sort.Slice(candidates, func(i, j int) bool {
		if len(candidates[i]) != len(candidates[j]) {
			return len(candidates[i]) > len(candidates[j])
		}
		return candidates[i] < candidates[j] // deterministic among equal lengths
	})

	return table[candidates[0]], true
}
