package common

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

type RateLimiter interface {
	// Allow records one request for key and reports whether it is within the
	// limit along with the number of requests left in the current window.
	Allow(ctx context.Context, key string) (bool, int, error)
	Limit() int
}

// RedisLimiter counts requests per key in fixed windows shared by every
// instance of the service.
type RedisLimiter struct {
	client *redis.Client
	limit  int
	window time.Duration
	prefix string
}

func NewRedisLimiter(client *redis.Client, limit int, window time.Duration) *RedisLimiter {
	return &RedisLimiter{client: client, limit: limit, window: window, prefix: "ratelimit:"}
}

func (l *RedisLimiter) Limit() int {
	return l.limit
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, int, error) {
	bucket := time.Now().UnixNano() / int64(l.window)
	k := l.prefix + key + ":" + strconv.FormatInt(bucket, 10)

	pipe := l.client.TxPipeline()
	incr := pipe.Incr(ctx, k)
	pipe.Expire(ctx, k, l.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return true, l.limit, err
	}

	count := int(incr.Val())
	if count > l.limit {
		return false, 0, nil
	}

	return true, l.limit - count, nil
}

// LocalLimiter keeps a token bucket per key in process memory. Idle buckets
// are evicted after a few windows.
type LocalLimiter struct {
	mu       sync.Mutex
	limiters *cache.Cache
	limit    int
	every    rate.Limit
}

func NewLocalLimiter(limit int, window time.Duration) *LocalLimiter {
	if limit < 1 {
		limit = 1
	}

	return &LocalLimiter{
		limiters: cache.New(3*window, 3*window),
		limit:    limit,
		every:    rate.Every(window / time.Duration(limit)),
	}
}

func (l *LocalLimiter) Limit() int {
	return l.limit
}

func (l *LocalLimiter) Allow(_ context.Context, key string) (bool, int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var lim *rate.Limiter
	if v, ok := l.limiters.Get(key); ok {
		lim = v.(*rate.Limiter)
	} else {
		lim = rate.NewLimiter(l.every, l.limit)
	}
	l.limiters.SetDefault(key, lim)

	if !lim.Allow() {
		return false, 0, nil
	}

	return true, int(lim.Tokens()), nil
}
