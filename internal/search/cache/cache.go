// Package cache provides an optional Redis-backed query result cache with
// singleflight deduplication of concurrent identical queries.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"github.com/rwnet/sitesearch/internal/search"
	"github.com/rwnet/sitesearch/pkg/config"
	"github.com/rwnet/sitesearch/pkg/logger"
)

const keyPrefix = "sitesearch:query:"

// QueryCache caches SearchResults in Redis keyed by the normalized query
// plan and pagination window.
type QueryCache struct {
	rdb    *redis.Client
	ttl    time.Duration
	group  singleflight.Group
	logger *slog.Logger
	hits   atomic.Int64
	misses atomic.Int64
}

// New creates a Redis client for the cache and verifies it with a PING.
func New(cfg config.RedisConfig) (*QueryCache, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return &QueryCache{
		rdb:    rdb,
		ttl:    cfg.CacheTTL,
		logger: logger.WithComponent("query-cache"),
	}, nil
}

// Get returns a cached result, or (nil, false) on a miss or any cache error.
func (c *QueryCache) Get(ctx context.Context, query string, opts search.Options) (*search.SearchResult, bool) {
	key := buildKey(query, opts)
	data, err := c.rdb.Get(ctx, key).Result()
	if err != nil {
		if err != redis.Nil {
			c.logger.Error("cache get failed", "key", key, "error", err)
		}
		c.misses.Add(1)
		return nil, false
	}
	var result search.SearchResult
	if err := json.Unmarshal([]byte(data), &result); err != nil {
		c.logger.Error("cache unmarshal failed", "key", key, "error", err)
		c.misses.Add(1)
		return nil, false
	}
	c.hits.Add(1)
	c.logger.Debug("cache hit", "query", query, "key", key)
	return &result, true
}

// Set stores a result with the configured TTL. Failures are logged, never
// returned: a broken cache must not break search.
func (c *QueryCache) Set(ctx context.Context, query string, opts search.Options, result *search.SearchResult) {
	key := buildKey(query, opts)
	data, err := json.Marshal(result)
	if err != nil {
		c.logger.Error("cache marshal failed", "key", key, "error", err)
		return
	}
	if err := c.rdb.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.logger.Error("cache set failed", "key", key, "error", err)
	}
}

// GetOrCompute returns the cached result or computes, caches, and returns a
// fresh one. Concurrent calls for the same key share a single computation.
func (c *QueryCache) GetOrCompute(
	ctx context.Context,
	query string,
	opts search.Options,
	computeFn func() *search.SearchResult,
) (*search.SearchResult, bool) {
	if result, ok := c.Get(ctx, query, opts); ok {
		return result, true
	}
	key := buildKey(query, opts)
	val, _, _ := c.group.Do(key, func() (any, error) {
		if result, ok := c.Get(ctx, query, opts); ok {
			return result, nil
		}
		result := computeFn()
		c.Set(ctx, query, opts, result)
		return result, nil
	})
	return val.(*search.SearchResult), false
}

// Invalidate deletes every cached query result.
func (c *QueryCache) Invalidate(ctx context.Context) error {
	pattern := keyPrefix + "*"
	var deleted int64
	iter := c.rdb.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		if err := c.rdb.Del(ctx, iter.Val()).Err(); err != nil {
			return fmt.Errorf("deleting key %s: %w", iter.Val(), err)
		}
		deleted++
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("scanning pattern %s: %w", pattern, err)
	}
	c.logger.Info("cache invalidated", "keys_deleted", deleted)
	return nil
}

// Stats returns hit and miss counts since startup.
func (c *QueryCache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

// Ping checks cache connectivity for health reporting.
func (c *QueryCache) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// Close closes the underlying Redis connection.
func (c *QueryCache) Close() error {
	return c.rdb.Close()
}

// buildKey hashes the normalized plan plus pagination so semantically equal
// queries share one entry.
func buildKey(query string, opts search.Options) string {
	raw := fmt.Sprintf("%s|limit=%d|offset=%d", normalizeQuery(query), opts.Limit, opts.Offset)
	hash := sha256.Sum256([]byte(raw))
	return fmt.Sprintf("%s%x", keyPrefix, hash[:16])
}

// normalizeQuery canonicalises a query through the parser so token order and
// casing differences collapse to one cache key.
func normalizeQuery(query string) string {
	plan := search.ParseQuery(query)
	parts := []string{
		"req:" + joinSorted(plan.Required),
		"opt:" + joinSorted(plan.Optional),
		"not:" + joinSorted(plan.Excluded),
		"phr:" + joinSorted(plan.Phrases),
	}
	fields := make([]string, 0, len(plan.Filters))
	for field := range plan.Filters {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	for _, field := range fields {
		clauses := make([]string, 0, len(plan.Filters[field]))
		for _, clause := range plan.Filters[field] {
			prefix := ""
			if clause.Exclude {
				prefix = "-"
			}
			clauses = append(clauses, prefix+clause.Value)
		}
		sort.Strings(clauses)
		parts = append(parts, "f:"+field+"="+strings.Join(clauses, ","))
	}
	return strings.Join(parts, "|")
}

func joinSorted(values []string) string {
	sorted := append([]string(nil), values...)
	sort.Strings(sorted)
	return strings.Join(sorted, ",")
}
