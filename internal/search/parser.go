package search

import (
	"regexp"
	"strings"
)

// FilterClause is one field:value filter entry, optionally negated.
type FilterClause struct {
	Value   string `json:"value"`
	Exclude bool   `json:"exclude"`
}

// QueryPlan is the structured form of a raw query string.
type QueryPlan struct {
	Required []string                  `json:"required"`
	Optional []string                  `json:"optional"`
	Excluded []string                  `json:"excluded"`
	Phrases  []string                  `json:"phrases"`
	Filters  map[string][]FilterClause `json:"filters"`
	RawQuery string                    `json:"raw_query"`
}

// Empty reports whether the plan carries no terms and no phrases.
func (p *QueryPlan) Empty() bool {
	return len(p.Required) == 0 && len(p.Optional) == 0 && len(p.Phrases) == 0
}

var phraseRe = regexp.MustCompile(`"([^"]*)"`)

// ParseQuery extracts quoted phrases, then scans the remaining
// whitespace-split tokens left to right. AND and OR switch the current
// boolean mode (default AND); OR also demotes the term just before it from
// required to optional, so "a OR b" matches the union. NOT and a leading -
// negate the next token only. Tokens of field:value shape become filters;
// everything else is a term. Query tokens are case-folded, not run through
// the content tokenizer.
func ParseQuery(raw string) *QueryPlan {
	plan := &QueryPlan{
		Filters:  make(map[string][]FilterClause),
		RawQuery: raw,
	}

	working := phraseRe.ReplaceAllStringFunc(raw, func(m string) string {
		phrase := strings.TrimSpace(strings.ToLower(strings.Trim(m, `"`)))
		if phrase != "" {
			plan.Phrases = append(plan.Phrases, phrase)
		}
		return " "
	})

	mode := modeAnd
	negateNext := false
	for _, word := range strings.Fields(working) {
		switch strings.ToUpper(word) {
		case "AND":
			mode = modeAnd
			continue
		case "OR":
			mode = modeOr
			if n := len(plan.Required); n > 0 {
				plan.Optional = append(plan.Optional, plan.Required[n-1])
				plan.Required = plan.Required[:n-1]
			}
			continue
		case "NOT":
			negateNext = true
			continue
		}

		negated := negateNext
		negateNext = false
		if strings.HasPrefix(word, "-") && len(word) > 1 {
			negated = true
			word = word[1:]
		}
		token := strings.ToLower(word)

		if field, value, ok := strings.Cut(token, ":"); ok && field != "" && value != "" {
			plan.Filters[field] = append(plan.Filters[field], FilterClause{
				Value:   value,
				Exclude: negated,
			})
			continue
		}

		switch {
		case negated:
			plan.Excluded = append(plan.Excluded, token)
		case mode == modeOr:
			plan.Optional = append(plan.Optional, token)
		default:
			plan.Required = append(plan.Required, token)
		}
	}
	return plan
}

type boolMode int

const (
	modeAnd boolMode = iota
	modeOr
)
