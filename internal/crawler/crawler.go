// Package crawler traverses a site's link graph from a seed address, feeding
// discovered pages to the index store. Traversal is iterative over a single
// FIFO frontier: depth increases monotonically down each path while work is
// interleaved across paths. Pacing between fetches is a cooperative sleep,
// not an enforced rate limit.
package crawler

import (
	"context"
	"log/slog"
	"time"

	"github.com/rwnet/sitesearch/internal/index"
	"github.com/rwnet/sitesearch/pkg/config"
	apperrors "github.com/rwnet/sitesearch/pkg/errors"
	"github.com/rwnet/sitesearch/pkg/logger"
	"github.com/rwnet/sitesearch/pkg/metrics"
)

// Stats summarises one crawl invocation. Crawl state is transient: nothing
// here is persisted.
type Stats struct {
	PagesIndexed int               `json:"pages_indexed"`
	PagesFailed  int               `json:"pages_failed"`
	TotalVisited int               `json:"total_visited"`
	Errors       map[string]string `json:"errors"`
	StartedAt    time.Time         `json:"started_at"`
	FinishedAt   time.Time         `json:"finished_at"`
	Elapsed      time.Duration     `json:"elapsed"`
}

// frontierItem is one work-queue entry.
type frontierItem struct {
	addr  string
	depth int
}

// Crawler walks a site through a ContentFetcher. Events and Metrics may be
// nil.
type Crawler struct {
	fetcher ContentFetcher
	cfg     config.CrawlerConfig
	events  EventPublisher
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// New creates a Crawler. events and m are optional; pass nil to disable.
func New(fetcher ContentFetcher, cfg config.CrawlerConfig, events EventPublisher, m *metrics.Metrics) *Crawler {
	return &Crawler{
		fetcher: fetcher,
		cfg:     cfg,
		events:  events,
		metrics: m,
		logger:  logger.WithComponent("crawler"),
	}
}

// Crawl traverses the site from seed, indexing every permitted, crawlable
// page into store. Fetch failures are recorded per address and never abort
// the crawl; only context cancellation stops it early.
func (c *Crawler) Crawl(ctx context.Context, seed string, store *index.Store, policy *Policy) (*Stats, error) {
	stats := &Stats{
		Errors:    make(map[string]string),
		StartedAt: time.Now(),
	}
	visited := make(map[string]struct{})
	queue := []frontierItem{{addr: stripFragment(seed), depth: 0}}

	delay := policy.DelayFloor(c.cfg.Delay)
	c.logger.Info("crawl starting",
		"seed", seed,
		"max_depth", c.cfg.MaxDepth,
		"max_pages", c.cfg.MaxPages,
		"delay", delay,
	)

	var err error
	for len(queue) > 0 && stats.PagesIndexed < c.cfg.MaxPages {
		if ctx.Err() != nil {
			err = ctx.Err()
			break
		}
		item := queue[0]
		queue = queue[1:]

		if _, seen := visited[item.addr]; seen {
			continue
		}
		if admitErr := c.admit(item.addr, policy); admitErr != nil {
			c.logger.Debug("skipping address", "addr", item.addr, "reason", admitErr)
			continue
		}
		visited[item.addr] = struct{}{}

		queue = append(queue, c.visit(ctx, item, store, stats, visited)...)

		if delay > 0 && len(queue) > 0 {
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				err = ctx.Err()
			}
			if err != nil {
				break
			}
		}
	}

	stats.TotalVisited = len(visited)
	stats.FinishedAt = time.Now()
	stats.Elapsed = stats.FinishedAt.Sub(stats.StartedAt)
	c.logger.Info("crawl finished",
		"pages_indexed", stats.PagesIndexed,
		"pages_failed", stats.PagesFailed,
		"total_visited", stats.TotalVisited,
		"elapsed", stats.Elapsed,
	)
	return stats, err
}

// admit decides whether an address may be fetched at all. It reports the
// reason for a refusal as one of the crawl sentinels.
func (c *Crawler) admit(addr string, policy *Policy) error {
	if !policy.Allowed(addr) {
		return apperrors.ErrNotPermitted
	}
	if _, crawlable := classifyAddress(addr); !crawlable {
		return apperrors.ErrNotCrawlable
	}
	return nil
}

// visit fetches and indexes one frontier item and returns the next frontier
// items discovered on the page.
func (c *Crawler) visit(ctx context.Context, item frontierItem, store *index.Store, stats *Stats, visited map[string]struct{}) []frontierItem {
	data, err := c.fetcher.Fetch(addressPath(item.addr))
	if err != nil {
		stats.PagesFailed++
		stats.Errors[item.addr] = err.Error()
		if c.metrics != nil {
			c.metrics.PagesFailedTotal.Inc()
		}
		c.publish(ctx, PageEvent{
			Type:      EventPageFailed,
			Address:   item.addr,
			Depth:     item.depth,
			Error:     err.Error(),
			Timestamp: time.Now().UTC(),
		})
		c.logger.Warn("fetch failed", "addr", item.addr, "error", err)
		return nil
	}

	// Admission already established the address is crawlable.
	typ, _ := classifyAddress(item.addr)

	content := string(data)
	title := extractTitle(content, typ)
	var docID string
	if c.cfg.ReplaceOnRecrawl {
		docID = store.ReplaceDocument(item.addr, title, content, typ)
	} else {
		docID = store.AddDocument(item.addr, title, content, typ)
	}
	stats.PagesIndexed++
	if c.metrics != nil {
		c.metrics.PagesCrawledTotal.Inc()
		c.metrics.DocsIndexedTotal.Inc()
	}
	c.publish(ctx, PageEvent{
		Type:        EventPageIndexed,
		Address:     item.addr,
		DocID:       docID,
		Title:       title,
		ContentType: typ,
		Size:        len(content),
		Depth:       item.depth,
		Timestamp:   time.Now().UTC(),
	})
	c.logger.Debug("page indexed", "addr", item.addr, "doc_id", docID, "depth", item.depth)

	if item.depth >= c.cfg.MaxDepth {
		return nil
	}
	var next []frontierItem
	for _, link := range extractLinks(content) {
		resolved := resolveLink(item.addr, link)
		if resolved == "" {
			continue
		}
		if _, crawlableLink := classifyAddress(resolved); !crawlableLink {
			continue
		}
		if _, seen := visited[resolved]; seen {
			continue
		}
		next = append(next, frontierItem{addr: resolved, depth: item.depth + 1})
	}
	return next
}

// publish sends a crawl event if a publisher is configured. Publish failures
// are logged, never fatal.
func (c *Crawler) publish(ctx context.Context, event PageEvent) {
	if c.events == nil {
		return
	}
	if err := c.events.Publish(ctx, event); err != nil {
		c.logger.Warn("crawl event publish failed", "addr", event.Address, "error", err)
	}
}
