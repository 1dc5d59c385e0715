// Package search parses raw query strings, evaluates them against the index
// store, and produces scored, paginated, snippet-annotated results.
package search

import (
	"context"
	"log/slog"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/rwnet/sitesearch/internal/index"
	"github.com/rwnet/sitesearch/pkg/logger"
)

// Boost multipliers applied to a qualifying document's summed term score.
const (
	titleBoost   = 1.5
	phraseBoost  = 2.0
	urlBoost     = 1.2
	recencyScale = 0.2
)

// defaultLimit applies when Options.Limit is unset.
const defaultLimit = 10

// Options controls result pagination.
type Options struct {
	Limit  int
	Offset int
}

// Result is one scored hit.
type Result struct {
	Document     index.Document `json:"document"`
	Score        float64        `json:"score"`
	MatchedTerms []string       `json:"matched_terms"`
	Snippet      string         `json:"snippet"`
}

// SearchResult is the full response for one query. Total is the
// pre-pagination candidate count.
type SearchResult struct {
	Results []Result   `json:"results"`
	Total   int        `json:"total"`
	Query   string     `json:"query"`
	Plan    *QueryPlan `json:"plan"`
}

// Engine evaluates queries against a single index store.
type Engine struct {
	store  *index.Store
	logger *slog.Logger
}

// NewEngine creates an Engine over the given store.
func NewEngine(store *index.Store) *Engine {
	return &Engine{
		store:  store,
		logger: logger.WithComponent("search-engine"),
	}
}

// Search parses raw, gathers candidates from the postings of every query
// term, filters and scores them, and returns one page of results. A query
// with no terms and no phrases yields a well-formed empty result set.
func (e *Engine) Search(ctx context.Context, raw string, opts Options) *SearchResult {
	start := time.Now()
	plan := ParseQuery(raw)
	result := &SearchResult{
		Results: []Result{},
		Query:   raw,
		Plan:    plan,
	}
	if plan.Empty() {
		return result
	}

	terms := dedupe(append(append([]string{}, plan.Required...), plan.Optional...))
	partials := e.gather(terms)

	candidates := make([]scoredDoc, 0, len(partials))
	for docID, termScores := range partials {
		doc, err := e.store.Document(docID)
		if err != nil {
			// Postings raced a concurrent removal; skip.
			continue
		}
		if !qualifies(doc, termScores, plan) {
			continue
		}
		candidates = append(candidates, scoredDoc{
			doc:     doc,
			score:   e.score(doc, termScores, plan),
			matched: matchedTerms(termScores),
		})
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		return candidates[i].doc.ID < candidates[j].doc.ID
	})

	result.Total = len(candidates)
	page := paginate(candidates, opts)
	snippetTerms := append(append([]string{}, terms...), plan.Phrases...)
	for _, c := range page {
		result.Results = append(result.Results, Result{
			Document:     c.doc,
			Score:        c.score,
			MatchedTerms: c.matched,
			Snippet:      GenerateSnippet(c.doc.Content, snippetTerms, 0),
		})
	}

	logger.FromContext(ctx).Debug("query executed",
		"query", raw,
		"candidates", result.Total,
		"returned", len(result.Results),
		"elapsed", time.Since(start),
	)
	return result
}

type scoredDoc struct {
	doc     index.Document
	score   float64
	matched []string
}

// gather accumulates per-document, per-term partial scores:
// count × ln(totalDocuments / documentFrequency).
func (e *Engine) gather(terms []string) map[string]map[string]float64 {
	totalDocs := e.store.Meta().TotalDocuments
	partials := make(map[string]map[string]float64)
	for _, term := range terms {
		postings := e.store.Postings(term)
		if len(postings) == 0 {
			continue
		}
		idf := math.Log(float64(totalDocs) / float64(len(postings)))
		for docID, posting := range postings {
			m, ok := partials[docID]
			if !ok {
				m = make(map[string]float64)
				partials[docID] = m
			}
			m[term] = float64(posting.Count) * idf
		}
	}
	return partials
}

// qualifies applies the candidate rules: all required terms matched, at least
// one optional term when any exist, no excluded substring, every phrase
// present as a raw substring, and all filters passing. Exclusion and phrase
// checks scan the full lowercased content: positional postings are capped, so
// substring scanning is the exact path.
func qualifies(doc index.Document, termScores map[string]float64, plan *QueryPlan) bool {
	for _, term := range plan.Required {
		if _, ok := termScores[term]; !ok {
			return false
		}
	}
	if len(plan.Optional) > 0 {
		any := false
		for _, term := range plan.Optional {
			if _, ok := termScores[term]; ok {
				any = true
				break
			}
		}
		if !any {
			return false
		}
	}
	content := strings.ToLower(doc.Content)
	for _, term := range plan.Excluded {
		if strings.Contains(content, term) {
			return false
		}
	}
	for _, phrase := range plan.Phrases {
		if !strings.Contains(content, phrase) {
			return false
		}
	}
	return matchesFilters(doc, plan.Filters)
}

// matchesFilters evaluates the conjunctive filter set. site matches as a URL
// substring, type as exact document-type equality, title as a substring of
// the lowercased title. A negated clause requires a non-match; any failing
// clause disqualifies the document.
func matchesFilters(doc index.Document, filters map[string][]FilterClause) bool {
	for field, clauses := range filters {
		for _, clause := range clauses {
			var match bool
			switch field {
			case "site":
				match = strings.Contains(strings.ToLower(doc.URL), clause.Value)
			case "type":
				match = string(doc.Type) == clause.Value
			case "title":
				match = strings.Contains(strings.ToLower(doc.Title), clause.Value)
			}
			if clause.Exclude {
				if match {
					return false
				}
			} else if !match {
				return false
			}
		}
	}
	return true
}

// score sums the partial term scores and applies the multiplicative boosts.
func (e *Engine) score(doc index.Document, termScores map[string]float64, plan *QueryPlan) float64 {
	var score float64
	for _, partial := range termScores {
		score += partial
	}

	title := strings.ToLower(doc.Title)
	url := strings.ToLower(doc.URL)
	inTitle := false
	inURL := false
	for term := range termScores {
		if !inTitle && strings.Contains(title, term) {
			inTitle = true
		}
		if !inURL && strings.Contains(url, term) {
			inURL = true
		}
	}
	if inTitle {
		score *= titleBoost
	}
	if len(plan.Phrases) > 0 {
		// Qualification already proved every phrase occurs in the content.
		score *= phraseBoost
	}
	if inURL {
		score *= urlBoost
	}

	ageDays := time.Since(doc.LastModified).Hours() / 24
	if ageDays < 0 {
		ageDays = 0
	}
	recency := 1 / (1 + ageDays/30)
	score *= 1 + recencyScale*recency
	return score
}

func matchedTerms(termScores map[string]float64) []string {
	terms := make([]string, 0, len(termScores))
	for term := range termScores {
		terms = append(terms, term)
	}
	sort.Strings(terms)
	return terms
}

func paginate(candidates []scoredDoc, opts Options) []scoredDoc {
	limit := opts.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	offset := opts.Offset
	if offset < 0 {
		offset = 0
	}
	if offset >= len(candidates) {
		return nil
	}
	end := offset + limit
	if end > len(candidates) {
		end = len(candidates)
	}
	return candidates[offset:end]
}

func dedupe(terms []string) []string {
	seen := make(map[string]struct{}, len(terms))
	out := terms[:0]
	for _, t := range terms {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
