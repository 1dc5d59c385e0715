package search

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/rwnet/sitesearch/internal/index"
)

func newTestEngine(t *testing.T) (*Engine, *index.Store) {
	t.Helper()
	store := index.New()
	return NewEngine(store), store
}

func resultURLs(sr *SearchResult) []string {
	urls := make([]string, len(sr.Results))
	for i, r := range sr.Results {
		urls[i] = r.Document.URL
	}
	return urls
}

// TestSearchSingleTerm verifies basic term matching with snippet and matched
// term reporting.
func TestSearchSingleTerm(t *testing.T) {
	e, store := newTestEngine(t)
	store.AddDocument("example.site/fox", "Fox", "the quick brown fox jumps", index.TypeText)
	store.AddDocument("example.site/cat", "Cat", "the lazy cat sleeps", index.TypeText)

	sr := e.Search(context.Background(), "fox", Options{})
	if sr.Total != 1 {
		t.Fatalf("Total = %d, want 1", sr.Total)
	}
	r := sr.Results[0]
	if r.Document.URL != "example.site/fox" {
		t.Errorf("hit URL = %s", r.Document.URL)
	}
	if len(r.MatchedTerms) != 1 || r.MatchedTerms[0] != "fox" {
		t.Errorf("MatchedTerms = %v", r.MatchedTerms)
	}
	if !strings.Contains(r.Snippet, "fox") {
		t.Errorf("Snippet = %q, want it to contain fox", r.Snippet)
	}
	if r.Score <= 0 {
		t.Errorf("Score = %f, want > 0", r.Score)
	}
}

// TestSearchRequiresAllTerms verifies AND semantics for bare words.
func TestSearchRequiresAllTerms(t *testing.T) {
	e, store := newTestEngine(t)
	store.AddDocument("example.site/both", "Both", "quick brown fox and lazy dog", index.TypeText)
	store.AddDocument("example.site/fox-only", "Fox", "quick brown fox alone", index.TypeText)
	store.AddDocument("example.site/dog-only", "Dog", "lazy dog alone", index.TypeText)

	sr := e.Search(context.Background(), "fox dog", Options{})
	if got := resultURLs(sr); len(got) != 1 || got[0] != "example.site/both" {
		t.Errorf("results = %v, want only the document with both terms", got)
	}
}

// TestSearchOrSemantics verifies OR terms admit documents matching any one of
// them.
func TestSearchOrSemantics(t *testing.T) {
	e, store := newTestEngine(t)
	store.AddDocument("example.site/cats", "Cats", "cats purr softly", index.TypeText)
	store.AddDocument("example.site/dogs", "Dogs", "dogs bark loudly", index.TypeText)
	store.AddDocument("example.site/fish", "Fish", "fish swim silently", index.TypeText)

	sr := e.Search(context.Background(), "cats OR dogs", Options{})
	urls := resultURLs(sr)
	if len(urls) != 2 {
		t.Fatalf("results = %v, want two", urls)
	}
	for _, u := range urls {
		if u == "example.site/fish" {
			t.Error("fish document must not match cats OR dogs")
		}
	}
}

// TestSearchExclusion verifies both NOT and - suppress documents containing
// the excluded word anywhere in the content.
func TestSearchExclusion(t *testing.T) {
	e, store := newTestEngine(t)
	store.AddDocument("example.site/clean", "Clean", "search results page", index.TypeText)
	store.AddDocument("example.site/spammy", "Spam", "search results full of spam", index.TypeText)

	for _, q := range []string{"search NOT spam", "search -spam"} {
		sr := e.Search(context.Background(), q, Options{})
		if got := resultURLs(sr); len(got) != 1 || got[0] != "example.site/clean" {
			t.Errorf("%q results = %v, want only the clean document", q, got)
		}
	}
}

// TestSearchPhrase verifies exact phrase qualification: terms present but out
// of order do not match.
func TestSearchPhrase(t *testing.T) {
	e, store := newTestEngine(t)
	store.AddDocument("example.site/exact", "Exact", "the quick start guide helps", index.TypeText)
	store.AddDocument("example.site/scattered", "Scattered", "start here for a quick tour", index.TypeText)

	sr := e.Search(context.Background(), `guide "quick start"`, Options{})
	if got := resultURLs(sr); len(got) != 1 || got[0] != "example.site/exact" {
		t.Errorf("results = %v, want only the exact phrase document", got)
	}
}

// TestSearchPhraseBeyondPositionCap verifies phrase matching still works when
// a term occurs more often than the stored position cap.
func TestSearchPhraseBeyondPositionCap(t *testing.T) {
	e, store := newTestEngine(t)
	filler := strings.Repeat("winter winter winter winter ", 5)
	store.AddDocument("example.site/tail", "Tail", filler+"deep winter storm", index.TypeText)

	sr := e.Search(context.Background(), `storm "deep winter storm"`, Options{})
	if sr.Total != 1 {
		t.Errorf("Total = %d, want 1; phrase occurs past the position cap", sr.Total)
	}
}

// TestSearchFilters covers site, type, and title filters including negation.
func TestSearchFilters(t *testing.T) {
	e, store := newTestEngine(t)
	store.AddDocument("docs.example.site/guide.rwml", "Install Guide", "setup instructions", index.TypeRWML)
	store.AddDocument("blog.example.site/post.html", "Release Post", "setup notes", index.TypeHTML)
	store.AddDocument("docs.example.site/faq.txt", "FAQ", "setup questions", index.TypeText)

	tests := []struct {
		query string
		want  []string
	}{
		{"setup site:docs.example.site type:rwml", []string{"docs.example.site/guide.rwml"}},
		{"setup type:plain-text", []string{"docs.example.site/faq.txt"}},
		{"setup -site:blog.example.site title:guide", []string{"docs.example.site/guide.rwml"}},
	}
	for _, tt := range tests {
		sr := e.Search(context.Background(), tt.query, Options{})
		got := resultURLs(sr)
		if len(got) != len(tt.want) || (len(got) > 0 && got[0] != tt.want[0]) {
			t.Errorf("%q results = %v, want %v", tt.query, got, tt.want)
		}
	}
}

// TestSearchTitleBoost verifies a term appearing in the title outranks the
// same term appearing only in the body, all else equal.
func TestSearchTitleBoost(t *testing.T) {
	e, store := newTestEngine(t)
	store.AddDocument("example.site/titled", "Gardening Tips", "gardening advice for beginners", index.TypeText)
	store.AddDocument("example.site/body", "Miscellany", "gardening advice for beginners", index.TypeText)
	// A document without the term keeps the inverse document frequency
	// above zero so the boosts have something to scale.
	store.AddDocument("example.site/other", "Other", "carpentry advice for beginners", index.TypeText)

	sr := e.Search(context.Background(), "gardening", Options{})
	if sr.Total != 2 {
		t.Fatalf("Total = %d, want 2", sr.Total)
	}
	if sr.Results[0].Document.URL != "example.site/titled" {
		t.Errorf("top hit = %s, want the title match first", sr.Results[0].Document.URL)
	}
	if sr.Results[0].Score <= sr.Results[1].Score {
		t.Errorf("scores not ordered: %f <= %f", sr.Results[0].Score, sr.Results[1].Score)
	}
}

// TestSearchTermFrequencyRanking verifies more occurrences score higher when
// no boosts differ.
func TestSearchTermFrequencyRanking(t *testing.T) {
	e, store := newTestEngine(t)
	store.AddDocument("example.site/dense", "Dense", "solar solar solar panels and more solar", index.TypeText)
	store.AddDocument("example.site/sparse", "Sparse", "solar panels overview", index.TypeText)
	store.AddDocument("example.site/unrelated", "Unrelated", "wind turbine overview", index.TypeText)

	sr := e.Search(context.Background(), "solar", Options{})
	if sr.Total != 2 {
		t.Fatalf("Total = %d, want 2", sr.Total)
	}
	if sr.Results[0].Document.URL != "example.site/dense" {
		t.Errorf("top hit = %s, want the denser document", sr.Results[0].Document.URL)
	}
	if sr.Results[0].Score <= sr.Results[1].Score {
		t.Errorf("scores not ordered: %f <= %f", sr.Results[0].Score, sr.Results[1].Score)
	}
}

// TestSearchPagination walks a 25-document corpus through limit/offset
// windows and checks Total stays the full candidate count.
func TestSearchPagination(t *testing.T) {
	e, store := newTestEngine(t)
	for i := 0; i < 25; i++ {
		url := fmt.Sprintf("example.site/page%02d", i)
		store.AddDocument(url, "Page", "common topic content", index.TypeText)
	}

	first := e.Search(context.Background(), "topic", Options{Limit: 10})
	if first.Total != 25 || len(first.Results) != 10 {
		t.Fatalf("page 1: Total=%d len=%d, want 25/10", first.Total, len(first.Results))
	}
	second := e.Search(context.Background(), "topic", Options{Limit: 10, Offset: 10})
	if second.Total != 25 || len(second.Results) != 10 {
		t.Fatalf("page 2: Total=%d len=%d, want 25/10", second.Total, len(second.Results))
	}
	third := e.Search(context.Background(), "topic", Options{Limit: 10, Offset: 20})
	if third.Total != 25 || len(third.Results) != 5 {
		t.Fatalf("page 3: Total=%d len=%d, want 25/5", third.Total, len(third.Results))
	}

	seen := map[string]bool{}
	for _, sr := range []*SearchResult{first, second, third} {
		for _, r := range sr.Results {
			if seen[r.Document.ID] {
				t.Errorf("document %s appears on two pages", r.Document.ID)
			}
			seen[r.Document.ID] = true
		}
	}

	beyond := e.Search(context.Background(), "topic", Options{Limit: 10, Offset: 100})
	if len(beyond.Results) != 0 || beyond.Total != 25 {
		t.Errorf("offset beyond end: Total=%d len=%d, want 25/0", beyond.Total, len(beyond.Results))
	}
}

// TestSearchEmptyQuery verifies degenerate queries return a well-formed empty
// result.
func TestSearchEmptyQuery(t *testing.T) {
	e, store := newTestEngine(t)
	store.AddDocument("example.site/page", "Page", "some content", index.TypeText)

	for _, q := range []string{"", "   ", "zzzunknown"} {
		sr := e.Search(context.Background(), q, Options{})
		if sr.Total != 0 || len(sr.Results) != 0 {
			t.Errorf("Search(%q): Total=%d len=%d, want empty", q, sr.Total, len(sr.Results))
		}
		if sr.Results == nil {
			t.Errorf("Search(%q): Results must be non-nil", q)
		}
	}
}

// TestSearchEndToEnd runs the two-document smoke scenario across term, OR,
// exclusion, and filter queries.
func TestSearchEndToEnd(t *testing.T) {
	e, store := newTestEngine(t)
	store.AddDocument("/a", "Fox", "the quick red fox jumps", index.TypeText)
	store.AddDocument("/b", "Dog", "lazy dog sleeps", index.TypeText)

	sr := e.Search(context.Background(), "fox", Options{})
	if got := resultURLs(sr); len(got) != 1 || got[0] != "/a" {
		t.Errorf(`"fox" results = %v, want [/a]`, got)
	}
	if sr.Results[0].Score <= 0 {
		t.Errorf("score = %f, want > 0", sr.Results[0].Score)
	}

	sr = e.Search(context.Background(), "fox OR dog", Options{})
	if sr.Total != 2 {
		t.Errorf(`"fox OR dog" Total = %d, want the union of both`, sr.Total)
	}

	sr = e.Search(context.Background(), "fox -lazy", Options{})
	if got := resultURLs(sr); len(got) != 1 || got[0] != "/a" {
		t.Errorf(`"fox -lazy" results = %v, want [/a]`, got)
	}

	sr = e.Search(context.Background(), "dog site:/b", Options{})
	if got := resultURLs(sr); len(got) != 1 || got[0] != "/b" {
		t.Errorf(`"dog site:/b" results = %v, want [/b]`, got)
	}
}

// TestSearchDeterministicTieBreak verifies equal-scored documents come back
// in docID order so pagination is stable.
func TestSearchDeterministicTieBreak(t *testing.T) {
	e, store := newTestEngine(t)
	for i := 0; i < 5; i++ {
		store.AddDocument(fmt.Sprintf("example.site/tie%d", i), "Tie", "identical content here", index.TypeText)
	}

	first := e.Search(context.Background(), "identical", Options{Limit: 5})
	second := e.Search(context.Background(), "identical", Options{Limit: 5})
	for i := range first.Results {
		if first.Results[i].Document.ID != second.Results[i].Document.ID {
			t.Fatalf("ordering not deterministic at position %d", i)
		}
	}
}
