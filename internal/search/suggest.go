package search

import (
	"sort"
	"strings"
)

// Suggest returns up to limit vocabulary terms with the given prefix, ranked
// by document frequency descending (alphabetical among equals).
func (e *Engine) Suggest(partial string, limit int) []string {
	prefix := strings.ToLower(strings.TrimSpace(partial))
	if prefix == "" {
		return nil
	}
	if limit <= 0 {
		limit = defaultLimit
	}

	matches := e.store.MatchingTerms(prefix)
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].DocFreq != matches[j].DocFreq {
			return matches[i].DocFreq > matches[j].DocFreq
		}
		return matches[i].Term < matches[j].Term
	})
	if len(matches) > limit {
		matches = matches[:limit]
	}
	terms := make([]string, len(matches))
	for i, m := range matches {
		terms[i] = m.Term
	}
	return terms
}
