// Command searchd restores the index from the configured blob store and
// serves search queries over HTTP.
package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/rwnet/sitesearch/internal/index"
	"github.com/rwnet/sitesearch/internal/search"
	"github.com/rwnet/sitesearch/internal/search/cache"
	"github.com/rwnet/sitesearch/internal/search/handler"
	"github.com/rwnet/sitesearch/pkg/blobstore"
	"github.com/rwnet/sitesearch/pkg/config"
	apperrors "github.com/rwnet/sitesearch/pkg/errors"
	"github.com/rwnet/sitesearch/pkg/health"
	"github.com/rwnet/sitesearch/pkg/logger"
	"github.com/rwnet/sitesearch/pkg/metrics"
	"github.com/rwnet/sitesearch/pkg/middleware"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	log := logger.WithComponent("searchd")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("searchd failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log *slog.Logger) error {
	m := metrics.New()
	if cfg.Metrics.Enabled {
		stopMetrics := metrics.StartServer(cfg.Metrics.Port)
		defer stopMetrics(context.Background())
	}

	store, err := restoreIndex(cfg, log)
	if err != nil {
		return err
	}
	meta := store.Meta()
	m.IndexDocuments.Set(float64(meta.TotalDocuments))
	m.IndexTerms.Set(float64(meta.TotalTerms))

	engine := search.NewEngine(store)

	var qc *cache.QueryCache
	if cfg.Redis.Enabled {
		qc, err = cache.New(cfg.Redis)
		if err != nil {
			log.Warn("query cache unavailable, serving uncached", "error", err)
			qc = nil
		} else {
			defer qc.Close()
			log.Info("query cache enabled", "addr", cfg.Redis.Addr, "ttl", cfg.Redis.CacheTTL)
		}
	}

	checker := health.NewChecker()
	checker.Register("index", indexCheck(store))
	if qc != nil {
		checker.Register("cache", cacheCheck(qc))
	}

	h := handler.New(engine, qc, m, cfg.Search)
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/search", h.Search)
	mux.HandleFunc("GET /api/v1/suggest", h.Suggest)
	mux.HandleFunc("GET /api/v1/cache/stats", h.CacheStats)
	mux.HandleFunc("POST /api/v1/cache/invalidate", h.CacheInvalidate)
	mux.HandleFunc("GET /health/live", checker.LiveHandler())
	mux.HandleFunc("GET /health/ready", checker.ReadyHandler())

	var root http.Handler = mux
	root = middleware.Metrics(m)(root)
	root = middleware.Timeout(cfg.Server.WriteTimeout)(root)
	root = middleware.RequestID(root)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      root,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("search service listening",
			"port", cfg.Server.Port,
			"documents", meta.TotalDocuments,
			"terms", meta.TotalTerms,
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	log.Info("shutdown complete")
	return nil
}

// restoreIndex loads the persisted index blob. A missing blob is not an
// error: the service starts with an empty index.
func restoreIndex(cfg *config.Config, log *slog.Logger) (*index.Store, error) {
	store := index.New()
	bs, err := blobstore.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("opening blob store: %w", err)
	}
	defer bs.Close()

	data, err := bs.Get(cfg.Index.BlobName)
	if err != nil {
		if errors.Is(err, apperrors.ErrBlobNotFound) {
			log.Warn("no index blob found, starting empty",
				"backend", cfg.Blobstore.Backend,
				"blob", cfg.Index.BlobName,
			)
			return store, nil
		}
		return nil, fmt.Errorf("reading index blob: %w", err)
	}
	if err := store.Restore(bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("restoring index: %w", err)
	}
	meta := store.Meta()
	log.Info("index restored",
		"backend", cfg.Blobstore.Backend,
		"documents", meta.TotalDocuments,
		"terms", meta.TotalTerms,
	)
	return store, nil
}

func indexCheck(store *index.Store) health.Check {
	return func(ctx context.Context) health.ComponentHealth {
		meta := store.Meta()
		if meta.TotalDocuments == 0 {
			return health.ComponentHealth{
				Status:  health.StatusDegraded,
				Message: "index is empty",
			}
		}
		return health.ComponentHealth{
			Status:  health.StatusUp,
			Message: fmt.Sprintf("%d documents", meta.TotalDocuments),
		}
	}
}

func cacheCheck(qc *cache.QueryCache) health.Check {
	return func(ctx context.Context) health.ComponentHealth {
		if err := qc.Ping(ctx); err != nil {
			return health.ComponentHealth{
				Status:  health.StatusDegraded,
				Message: err.Error(),
			}
		}
		return health.ComponentHealth{Status: health.StatusUp}
	}
}
