// Package blobstore stores the persisted index as a single named blob.
// Backends: local file, bbolt bucket, PostgreSQL table, Redis key.
package blobstore

import (
	"fmt"

	"github.com/rwnet/sitesearch/pkg/config"
	"github.com/rwnet/sitesearch/pkg/errors"
)

// Store is the narrow persistence port the index blob travels through.
// Get returns errors.ErrBlobNotFound when no blob with that name exists.
type Store interface {
	Put(name string, data []byte) error
	Get(name string) ([]byte, error)
	Close() error
}

// Open constructs the backend selected by cfg.Blobstore.Backend.
func Open(cfg *config.Config) (Store, error) {
	switch cfg.Blobstore.Backend {
	case "file":
		return NewFileStore(cfg.Blobstore.Dir)
	case "bolt", "":
		return NewBoltStore(cfg.Blobstore.Path)
	case "postgres":
		return NewPostgresStore(cfg.Postgres)
	case "redis":
		return NewRedisStore(cfg.Redis)
	default:
		return nil, errors.Newf(errors.ErrInvalidInput, 0, "unknown blobstore backend %q", cfg.Blobstore.Backend)
	}
}

// notFound wraps ErrBlobNotFound with the blob name.
func notFound(name string) error {
	return fmt.Errorf("blob %q: %w", name, errors.ErrBlobNotFound)
}
