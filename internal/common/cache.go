package common

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
)

const (
	TTLShort   = 60 * time.Second
	TTLDefault = 300 * time.Second
	TTLLong    = 3600 * time.Second
)

var ErrCacheMiss = errors.New("cache miss")

// Store is the key-value backend behind CacheAside. Get returns ErrCacheMiss
// for absent or expired keys.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	DeletePrefix(ctx context.Context, prefix string) error
	Flush(ctx context.Context) error
}

// MemoryStore keeps entries in process memory. It is meant for single
// instance deployments and tests.
type MemoryStore struct {
	c *cache.Cache
}

func NewMemoryStore(defaultExpiration, cleanupInterval time.Duration) *MemoryStore {
	return &MemoryStore{c: cache.New(defaultExpiration, cleanupInterval)}
}

func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, error) {
	v, ok := s.c.Get(key)
	if !ok {
		return nil, ErrCacheMiss
	}

	b, ok := v.([]byte)
	if !ok {
		return nil, ErrCacheMiss
	}

	return b, nil
}

func (s *MemoryStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		s.c.Set(key, value, cache.DefaultExpiration)
		return nil
	}
	s.c.Set(key, value, ttl)
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, keys ...string) error {
	for _, k := range keys {
		s.c.Delete(k)
	}
	return nil
}

func (s *MemoryStore) DeletePrefix(_ context.Context, prefix string) error {
	for k := range s.c.Items() {
		if strings.HasPrefix(k, prefix) {
			s.c.Delete(k)
		}
	}
	return nil
}

func (s *MemoryStore) Flush(_ context.Context) error {
	s.c.Flush()
	return nil
}
