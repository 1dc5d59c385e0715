// Package handler exposes the search engine over HTTP with JSON responses.
package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/rwnet/sitesearch/internal/search"
	"github.com/rwnet/sitesearch/internal/search/cache"
	"github.com/rwnet/sitesearch/pkg/config"
	"github.com/rwnet/sitesearch/pkg/errors"
	"github.com/rwnet/sitesearch/pkg/logger"
	"github.com/rwnet/sitesearch/pkg/metrics"
	"github.com/rwnet/sitesearch/pkg/middleware"
)

const (
	fallbackDefaultLimit = 10
	fallbackMaxLimit     = 100

	defaultSuggestLimit = 5
	maxSuggestLimit     = 25
)

// Handler serves search, suggest, and cache admin endpoints.
type Handler struct {
	engine       *search.Engine
	cache        *cache.QueryCache
	metrics      *metrics.Metrics
	logger       *slog.Logger
	defaultLimit int
	maxLimit     int
}

// New creates a Handler. cache may be nil when the query cache is disabled.
// Result paging limits come from cfg; zero values fall back to defaults.
func New(engine *search.Engine, qc *cache.QueryCache, m *metrics.Metrics, cfg config.SearchConfig) *Handler {
	h := &Handler{
		engine:       engine,
		cache:        qc,
		metrics:      m,
		logger:       logger.WithComponent("handler"),
		defaultLimit: cfg.DefaultLimit,
		maxLimit:     cfg.MaxResults,
	}
	if h.defaultLimit <= 0 {
		h.defaultLimit = fallbackDefaultLimit
	}
	if h.maxLimit <= 0 {
		h.maxLimit = fallbackMaxLimit
	}
	return h
}

type suggestResponse struct {
	Prefix      string   `json:"prefix"`
	Suggestions []string `json:"suggestions"`
}

type cacheStatsResponse struct {
	Enabled bool    `json:"enabled"`
	Hits    int64   `json:"hits"`
	Misses  int64   `json:"misses"`
	HitRate float64 `json:"hit_rate"`
}

// Search handles GET /api/v1/search?q=...&limit=...&offset=...
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()
	log := logger.FromContext(ctx)

	query := r.URL.Query().Get("q")
	if query == "" {
		h.writeError(w, r, errors.New(errors.ErrInvalidInput, http.StatusBadRequest, "missing query parameter 'q'"))
		return
	}

	opts := search.Options{
		Limit:  clampParam(r, "limit", h.defaultLimit, h.maxLimit),
		Offset: clampParam(r, "offset", 0, 1<<30),
	}

	var result *search.SearchResult
	var cached bool
	if h.cache != nil {
		result, cached = h.cache.GetOrCompute(ctx, query, opts, func() *search.SearchResult {
			return h.engine.Search(ctx, query, opts)
		})
	} else {
		result = h.engine.Search(ctx, query, opts)
	}

	elapsed := time.Since(start)
	if h.metrics != nil {
		resultType := "hit"
		if result.Total == 0 {
			resultType = "zero_result"
		}
		cacheStatus := "bypass"
		if h.cache != nil {
			if cached {
				cacheStatus = "hit"
				h.metrics.CacheHitsTotal.Inc()
			} else {
				cacheStatus = "miss"
				h.metrics.CacheMissesTotal.Inc()
			}
		}
		h.metrics.SearchQueriesTotal.WithLabelValues(resultType).Inc()
		h.metrics.SearchLatency.WithLabelValues(cacheStatus).Observe(elapsed.Seconds())
		h.metrics.SearchResultsCount.Observe(float64(result.Total))
	}

	log.Info("search request served",
		"request_id", middleware.GetRequestID(ctx),
		"query", query,
		"results", result.Total,
		"cached", cached,
		"duration_ms", elapsed.Milliseconds(),
	)
	h.writeJSON(w, http.StatusOK, result)
}

// Suggest handles GET /api/v1/suggest?prefix=...&limit=...
func (h *Handler) Suggest(w http.ResponseWriter, r *http.Request) {
	prefix := r.URL.Query().Get("prefix")
	if prefix == "" {
		h.writeError(w, r, errors.New(errors.ErrInvalidInput, http.StatusBadRequest, "missing query parameter 'prefix'"))
		return
	}
	limit := clampParam(r, "limit", defaultSuggestLimit, maxSuggestLimit)
	h.writeJSON(w, http.StatusOK, suggestResponse{
		Prefix:      prefix,
		Suggestions: h.engine.Suggest(prefix, limit),
	})
}

// CacheStats handles GET /api/v1/cache/stats
func (h *Handler) CacheStats(w http.ResponseWriter, r *http.Request) {
	resp := cacheStatsResponse{}
	if h.cache != nil {
		resp.Enabled = true
		resp.Hits, resp.Misses = h.cache.Stats()
		if total := resp.Hits + resp.Misses; total > 0 {
			resp.HitRate = float64(resp.Hits) / float64(total)
		}
	}
	h.writeJSON(w, http.StatusOK, resp)
}

// CacheInvalidate handles POST /api/v1/cache/invalidate
func (h *Handler) CacheInvalidate(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		h.writeError(w, r, errors.New(errors.ErrInvalidInput, http.StatusBadRequest, "query cache is disabled"))
		return
	}
	if err := h.cache.Invalidate(r.Context()); err != nil {
		h.writeError(w, r, errors.New(errors.ErrInternal, http.StatusInternalServerError, "cache invalidation failed"))
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "invalidated"})
}

func clampParam(r *http.Request, name string, def, max int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	val, err := strconv.Atoi(raw)
	if err != nil || val < 0 {
		return def
	}
	if val > max {
		return max
	}
	return val
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := errors.HTTPStatusCode(err)
	h.logger.Warn("request failed",
		"request_id", middleware.GetRequestID(r.Context()),
		"path", r.URL.Path,
		"status", status,
		"error", err,
	)
	h.writeJSON(w, status, map[string]string{"error": err.Error()})
}
