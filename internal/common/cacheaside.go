package common

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"
)

// CacheAside serves reads from a Store and falls back to a loader on miss.
// Store failures are logged and treated as misses; they never reach callers.
type CacheAside struct {
	store  Store
	logger *zap.Logger
}

func NewCacheAside(store Store, logger *zap.Logger) *CacheAside {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CacheAside{store: store, logger: logger}
}

// ReadThrough returns the cached value for key when present and decodable.
// Otherwise it calls loader, stores the result for ttl and returns it. Loader
// errors are returned unchanged and nothing is stored.
func ReadThrough[T any](ctx context.Context, c *CacheAside, key Key, ttl time.Duration, loader func(ctx context.Context) (T, error)) (T, error) {
	if b, err := c.store.Get(ctx, key.String()); err == nil {
		var v T
		if err := json.Unmarshal(b, &v); err == nil {
			return v, nil
		}
		c.logger.Warn("discarding undecodable cache entry", zap.String("key", key.String()))
	} else if !errors.Is(err, ErrCacheMiss) {
		c.logger.Error("cache read failed", zap.String("key", key.String()), zap.Error(err))
	}

	v, err := loader(ctx)
	if err != nil {
		return v, err
	}

	b, err := json.Marshal(v)
	if err != nil {
		c.logger.Error("could not encode cache entry", zap.String("key", key.String()), zap.Error(err))
		return v, nil
	}

	if err := c.store.Set(ctx, key.String(), b, ttl); err != nil {
		c.logger.Error("cache write failed", zap.String("key", key.String()), zap.Error(err))
	}

	return v, nil
}

// Invalidate deletes the exact keys.
func (c *CacheAside) Invalidate(ctx context.Context, keys ...Key) {
	if len(keys) == 0 {
		return
	}

	raw := make([]string, len(keys))
	for i, k := range keys {
		raw[i] = k.String()
	}

	if err := c.store.Delete(ctx, raw...); err != nil {
		c.logger.Error("cache invalidation failed", zap.Strings("keys", raw), zap.Error(err))
	}
}

// InvalidatePrefix deletes every key that starts with prefix.
func (c *CacheAside) InvalidatePrefix(ctx context.Context, prefix string) {
	if err := c.store.DeletePrefix(ctx, prefix); err != nil {
		c.logger.Error("cache invalidation failed", zap.String("prefix", prefix), zap.Error(err))
	}
}

// Flush drops every entry. Only tests should need it.
func (c *CacheAside) Flush(ctx context.Context) error {
	return c.store.Flush(ctx)
}
