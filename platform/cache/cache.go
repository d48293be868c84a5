// Package cache provides a small JSON cache over Redis shared by the
// directory and geocoding clients. A nil *Store is valid and caches nothing,
// so callers do not need to branch on whether Redis is configured.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"georesponse_backend/platform/config"
	"georesponse_backend/platform/metrics"

	"github.com/redis/go-redis/v9"
)

// Store reads and writes JSON values under a key prefix.
type Store struct {
	rdb    redis.UniversalClient
	prefix string
}

// New wraps an existing Redis client. prefix namespaces every key.
func New(rdb redis.UniversalClient, prefix string) *Store {
	if rdb == nil {
		return nil
	}
	return &Store{rdb: rdb, prefix: prefix}
}

// Open connects to the Redis instance named by cfg. It returns a nil client
// when caching is disabled.
func Open(ctx context.Context, cfg config.CacheConfig) (*redis.Client, error) {
	if !cfg.IsCacheEnabled() {
		return nil, nil
	}
	opt, err := redis.ParseURL(cfg.GetRedisURL())
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	rdb := redis.NewClient(opt)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return rdb, nil
}

// Namespace returns a store sharing the connection under a nested prefix.
func (s *Store) Namespace(prefix string) *Store {
	if s == nil {
		return nil
	}
	return &Store{rdb: s.rdb, prefix: s.prefix + prefix}
}

// Get decodes the value stored under key into dst. The boolean reports a hit.
func (s *Store) Get(ctx context.Context, key string, dst any) (bool, error) {
	if s == nil {
		return false, nil
	}
	raw, err := s.rdb.Get(ctx, s.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		metrics.CacheMissesTotal.WithLabelValues(s.prefix).Inc()
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, err
	}
	metrics.CacheHitsTotal.WithLabelValues(s.prefix).Inc()
	return true, nil
}

// Set stores value under key for ttl. A non-positive ttl skips the write.
func (s *Store) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	if s == nil || ttl <= 0 {
		return nil
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, s.prefix+key, raw, ttl).Err()
}

// Flush deletes every key under the store's prefix.
func (s *Store) Flush(ctx context.Context) error {
	if s == nil {
		return nil
	}
	iter := s.rdb.Scan(ctx, 0, s.prefix+"*", 200).Iterator()
	var batch []string
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == 200 {
			if err := s.rdb.Del(ctx, batch...).Err(); err != nil {
				return err
			}
			batch = batch[:0]
		}
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(batch) > 0 {
		return s.rdb.Del(ctx, batch...).Err()
	}
	return nil
}
