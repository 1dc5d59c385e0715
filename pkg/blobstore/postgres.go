package blobstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/rwnet/sitesearch/pkg/config"
)

const createBlobsTable = `
CREATE TABLE IF NOT EXISTS index_blobs (
    name       TEXT PRIMARY KEY,
    data       BYTEA NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// PostgresStore keeps blobs in an index_blobs table.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore opens a connection pool, verifies it with a ping, and
// ensures the blob table exists.
func NewPostgresStore(cfg config.PostgresConfig) (*PostgresStore, error) {
	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("opening postgres connection: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging postgres: %w", err)
	}
	if _, err := db.ExecContext(ctx, createBlobsTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating index_blobs table: %w", err)
	}
	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) Put(name string, data []byte) error {
	_, err := s.db.Exec(
		`INSERT INTO index_blobs (name, data, updated_at) VALUES ($1, $2, now())
		 ON CONFLICT (name) DO UPDATE SET data = EXCLUDED.data, updated_at = now()`,
		name, data,
	)
	if err != nil {
		return fmt.Errorf("upserting blob %q: %w", name, err)
	}
	return nil
}

func (s *PostgresStore) Get(name string) ([]byte, error) {
	var data []byte
	err := s.db.QueryRow(`SELECT data FROM index_blobs WHERE name = $1`, name).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound(name)
	}
	if err != nil {
		return nil, fmt.Errorf("selecting blob %q: %w", name, err)
	}
	return data, nil
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}
