package stats

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"
)

const snapshotCacheKey = "stats:snapshot"

type CacheRepository interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
}

// CachedStore serves Snapshot from the cache when it can and drops the
// cached copy after every update. Cache failures are logged and never
// fail the call; the wrapped store stays the source of truth.
type CachedStore struct {
	next  Store
	cache CacheRepository // Optional, can be nil
	ttl   time.Duration
	log   *zap.Logger
}

func NewCachedStore(next Store, cache CacheRepository, ttl time.Duration, logger *zap.Logger) *CachedStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedStore{next: next, cache: cache, ttl: ttl, log: logger}
}

func (s *CachedStore) Snapshot(ctx context.Context) (Snapshot, error) {
	if s.cache != nil {
		data, err := s.cache.Get(ctx, snapshotCacheKey)
		if err == nil && data != "" {
			var snap Snapshot
			if err := json.Unmarshal([]byte(data), &snap); err == nil && snap.Players != nil {
				return snap, nil
			}
		}
	}

	snap, err := s.next.Snapshot(ctx)
	if err != nil {
		return Snapshot{}, err
	}

	if s.cache != nil {
		if data, err := json.Marshal(snap); err == nil {
			if cacheErr := s.cache.Set(ctx, snapshotCacheKey, data, s.ttl); cacheErr != nil {
				s.log.Warn("failed to cache stats snapshot", zap.Error(cacheErr))
			}
		}
	}
	return snap, nil
}

func (s *CachedStore) UpdateResult(ctx context.Context, username string, outcome Outcome) error {
	if err := s.next.UpdateResult(ctx, username, outcome); err != nil {
		return err
	}
	if s.cache != nil {
		if err := s.cache.Del(ctx, snapshotCacheKey); err != nil {
			s.log.Warn("failed to invalidate stats snapshot", zap.Error(err))
		}
	}
	return nil
}
