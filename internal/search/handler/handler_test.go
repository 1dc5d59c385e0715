package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rwnet/sitesearch/internal/index"
	"github.com/rwnet/sitesearch/internal/search"
	"github.com/rwnet/sitesearch/pkg/config"
)

func newTestHandler(t *testing.T) *Handler {
	t.Helper()
	store := index.New()
	store.AddDocument("example.site/fox", "Fox Page", "the quick brown fox", index.TypeText)
	store.AddDocument("example.site/dog", "Dog Page", "the lazy dog", index.TypeText)
	return New(search.NewEngine(store), nil, nil, config.SearchConfig{})
}

// TestSearchEndpoint verifies a well-formed query returns JSON results.
func TestSearchEndpoint(t *testing.T) {
	h := newTestHandler(t)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/search?q=fox", nil)
	rec := httptest.NewRecorder()
	h.Search(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}
	var result search.SearchResult
	if err := json.NewDecoder(rec.Body).Decode(&result); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if result.Total != 1 || len(result.Results) != 1 {
		t.Errorf("Total = %d, results = %d, want 1/1", result.Total, len(result.Results))
	}
	if result.Results[0].Document.URL != "example.site/fox" {
		t.Errorf("hit URL = %s", result.Results[0].Document.URL)
	}
}

// TestSearchEndpointMissingQuery verifies the 400 on a missing q parameter.
func TestSearchEndpointMissingQuery(t *testing.T) {
	h := newTestHandler(t)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/search", nil)
	rec := httptest.NewRecorder()
	h.Search(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

// TestSearchEndpointLimitClamping verifies oversized and malformed limit
// values fall back to the bounds.
func TestSearchEndpointLimitClamping(t *testing.T) {
	h := newTestHandler(t)
	for _, raw := range []string{"9999", "-3", "abc"} {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/search?q=the&limit="+raw, nil)
		rec := httptest.NewRecorder()
		h.Search(rec, req)
		if rec.Code != http.StatusOK {
			t.Errorf("limit=%s: status = %d, want 200", raw, rec.Code)
		}
	}
}

// TestSearchEndpointConfiguredLimits verifies the clamp bounds come from the
// search config section rather than fixed values.
func TestSearchEndpointConfiguredLimits(t *testing.T) {
	store := index.New()
	store.AddDocument("example.site/a", "A", "the common word", index.TypeText)
	store.AddDocument("example.site/b", "B", "the common word", index.TypeText)
	store.AddDocument("example.site/c", "C", "the common word", index.TypeText)
	h := New(search.NewEngine(store), nil, nil, config.SearchConfig{DefaultLimit: 1, MaxResults: 2})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/search?q=common", nil)
	rec := httptest.NewRecorder()
	h.Search(rec, req)
	var result search.SearchResult
	if err := json.NewDecoder(rec.Body).Decode(&result); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if len(result.Results) != 1 {
		t.Errorf("default limit: got %d results, want 1", len(result.Results))
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/search?q=common&limit=50", nil)
	rec = httptest.NewRecorder()
	h.Search(rec, req)
	result = search.SearchResult{}
	if err := json.NewDecoder(rec.Body).Decode(&result); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if len(result.Results) != 2 {
		t.Errorf("max limit: got %d results, want 2", len(result.Results))
	}
}

// TestSuggestEndpoint verifies prefix suggestions come back as JSON.
func TestSuggestEndpoint(t *testing.T) {
	h := newTestHandler(t)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/suggest?prefix=fo", nil)
	rec := httptest.NewRecorder()
	h.Suggest(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp struct {
		Prefix      string   `json:"prefix"`
		Suggestions []string `json:"suggestions"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.Prefix != "fo" {
		t.Errorf("Prefix = %q", resp.Prefix)
	}
	if len(resp.Suggestions) != 1 || resp.Suggestions[0] != "fox" {
		t.Errorf("Suggestions = %v, want [fox]", resp.Suggestions)
	}
}

// TestSuggestEndpointMissingPrefix verifies the 400 on a missing prefix.
func TestSuggestEndpointMissingPrefix(t *testing.T) {
	h := newTestHandler(t)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/suggest", nil)
	rec := httptest.NewRecorder()
	h.Suggest(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

// TestCacheStatsDisabled verifies stats report a disabled cache when none is
// configured.
func TestCacheStatsDisabled(t *testing.T) {
	h := newTestHandler(t)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/cache/stats", nil)
	rec := httptest.NewRecorder()
	h.CacheStats(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp struct {
		Enabled bool `json:"enabled"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.Enabled {
		t.Error("Enabled = true, want false without a cache")
	}
}

// TestCacheInvalidateDisabled verifies invalidation is rejected when the
// cache is off.
func TestCacheInvalidateDisabled(t *testing.T) {
	h := newTestHandler(t)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/cache/invalidate", nil)
	rec := httptest.NewRecorder()
	h.CacheInvalidate(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}
