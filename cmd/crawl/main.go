// Command crawl walks a site tree from a seed address, indexes every
// crawlable page, and persists the resulting index to the configured
// blob store.
package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/rwnet/sitesearch/internal/crawler"
	"github.com/rwnet/sitesearch/internal/index"
	"github.com/rwnet/sitesearch/pkg/blobstore"
	"github.com/rwnet/sitesearch/pkg/config"
	"github.com/rwnet/sitesearch/pkg/kafka"
	"github.com/rwnet/sitesearch/pkg/logger"
	"github.com/rwnet/sitesearch/pkg/metrics"
	"github.com/rwnet/sitesearch/pkg/resilience"
)

const policyPath = "/robots.txt"

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	seed := flag.String("seed", "/", "address to start crawling from")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	log := logger.WithComponent("crawl")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, *seed, log); err != nil {
		log.Error("crawl failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, seed string, log *slog.Logger) error {
	m := metrics.New()
	var stopMetrics func(context.Context) error
	if cfg.Metrics.Enabled {
		stopMetrics = metrics.StartServer(cfg.Metrics.Port)
		defer stopMetrics(context.Background())
	}

	fetcher := crawler.NewFileFetcher(cfg.Crawler.SiteRoot)
	policy := loadPolicy(fetcher, cfg.Crawler.UserAgent, log)

	var events crawler.EventPublisher
	if cfg.Kafka.Enabled {
		producer := kafka.NewProducer(cfg.Kafka)
		defer producer.Close()
		events = crawler.NewKafkaPublisher(producer)
		log.Info("crawl event publishing enabled", "topic", cfg.Kafka.Topic)
	}

	store := index.New()
	c := crawler.New(fetcher, cfg.Crawler, events, m)

	log.Info("starting crawl",
		"seed", seed,
		"site_root", cfg.Crawler.SiteRoot,
		"max_depth", cfg.Crawler.MaxDepth,
		"max_pages", cfg.Crawler.MaxPages,
	)
	stats, err := c.Crawl(ctx, seed, store, policy)
	if err != nil {
		return fmt.Errorf("crawling from %s: %w", seed, err)
	}

	meta := store.Meta()
	m.IndexDocuments.Set(float64(meta.TotalDocuments))
	m.IndexTerms.Set(float64(meta.TotalTerms))
	log.Info("crawl finished",
		"pages_indexed", stats.PagesIndexed,
		"pages_failed", stats.PagesFailed,
		"total_visited", stats.TotalVisited,
		"documents", meta.TotalDocuments,
		"terms", meta.TotalTerms,
		"elapsed", stats.Elapsed,
	)

	if err := persistIndex(ctx, cfg, store, m); err != nil {
		return err
	}
	log.Info("index persisted",
		"backend", cfg.Blobstore.Backend,
		"blob", cfg.Index.BlobName,
	)
	return nil
}

// loadPolicy fetches and parses the site's crawl policy file. A missing or
// unreadable policy file means everything is allowed.
func loadPolicy(fetcher crawler.ContentFetcher, agent string, log *slog.Logger) *crawler.Policy {
	data, err := fetcher.Fetch(policyPath)
	if err != nil {
		log.Info("no crawl policy found, allowing all", "path", policyPath)
		return nil
	}
	log.Info("crawl policy loaded", "path", policyPath, "agent", agent)
	return crawler.ParsePolicy(string(data), agent)
}

// persistIndex serializes the index and writes it to the blob store with
// retries.
func persistIndex(ctx context.Context, cfg *config.Config, store *index.Store, m *metrics.Metrics) error {
	bs, err := blobstore.Open(cfg)
	if err != nil {
		return fmt.Errorf("opening blob store: %w", err)
	}
	defer bs.Close()

	var buf bytes.Buffer
	if err := store.Persist(&buf); err != nil {
		m.PersistsTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("serializing index: %w", err)
	}
	err = resilience.Retry(ctx, "persist-index", resilience.RetryConfig{}, func() error {
		return bs.Put(cfg.Index.BlobName, buf.Bytes())
	})
	if err != nil {
		m.PersistsTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("writing index blob: %w", err)
	}
	m.PersistsTotal.WithLabelValues("success").Inc()
	return nil
}
