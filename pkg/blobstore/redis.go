package blobstore

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rwnet/sitesearch/pkg/config"
)

const redisKeyPrefix = "sitesearch:blob:"

// RedisStore keeps blobs as plain Redis keys without expiry.
type RedisStore struct {
	rdb *redis.Client
}

// NewRedisStore creates a Redis client and verifies the connection with a
// PING.
func NewRedisStore(cfg config.RedisConfig) (*RedisStore, error) {
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
	return &RedisStore{rdb: rdb}, nil
}

func (s *RedisStore) Put(name string, data []byte) error {
	if err := s.rdb.Set(context.Background(), redisKeyPrefix+name, data, 0).Err(); err != nil {
		return fmt.Errorf("setting blob %q: %w", name, err)
	}
	return nil
}

func (s *RedisStore) Get(name string) ([]byte, error) {
	data, err := s.rdb.Get(context.Background(), redisKeyPrefix+name).Bytes()
	if err == redis.Nil {
		return nil, notFound(name)
	}
	if err != nil {
		return nil, fmt.Errorf("getting blob %q: %w", name, err)
	}
	return data, nil
}

func (s *RedisStore) Close() error {
	return s.rdb.Close()
}
