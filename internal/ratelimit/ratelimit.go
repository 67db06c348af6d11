// Package ratelimit caps requests per key within a one-minute window.
package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

// Limiter decides whether one more request for key fits into perMinute.
type Limiter interface {
	Allow(ctx context.Context, key string, perMinute int) (bool, error)
}

// RedisLimiter is a fixed-window counter shared by every process using the same Redis.
type RedisLimiter struct {
	client *redis.Client
	prefix string
	window time.Duration
	now    func() time.Time
}

// NewRedisLimiter initializes a Redis-backed Limiter.
func NewRedisLimiter(addr, prefix string) *RedisLimiter {
	return NewRedisLimiterWithClient(redis.NewClient(&redis.Options{Addr: addr}), prefix)
}

// NewRedisLimiterWithClient wraps an existing client.
func NewRedisLimiterWithClient(client *redis.Client, prefix string) *RedisLimiter {
	return &RedisLimiter{client: client, prefix: prefix, window: time.Minute, now: time.Now}
}

// Allow counts the request in the current window. A non-positive perMinute disables the limit.
func (l *RedisLimiter) Allow(ctx context.Context, key string, perMinute int) (bool, error) {
	if perMinute <= 0 {
		return true, nil
	}

	bucket := l.now().Unix() / int64(l.window/time.Second)
	redisKey := l.prefix + key + ":" + strconv.FormatInt(bucket, 10)

	pipe := l.client.TxPipeline()
	incr := pipe.Incr(ctx, redisKey)
	pipe.Expire(ctx, redisKey, l.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("failed to count request: %w", err)
	}

	return incr.Val() <= int64(perMinute), nil
}

// Ping checks the connection to Redis.
func (l *RedisLimiter) Ping(ctx context.Context) error {
	return l.client.Ping(ctx).Err()
}

// Close closes the Redis client.
func (l *RedisLimiter) Close() error {
	return l.client.Close()
}

// LocalLimiter keeps one token bucket per key in process memory.
type LocalLimiter struct {
	mu      sync.Mutex
	buckets map[string]*rate.Limiter
}

// NewLocalLimiter creates an in-process Limiter.
func NewLocalLimiter() *LocalLimiter {
	return &LocalLimiter{buckets: make(map[string]*rate.Limiter)}
}

// Allow takes a token from the key's bucket, which refills perMinute tokens per minute.
func (l *LocalLimiter) Allow(_ context.Context, key string, perMinute int) (bool, error) {
	if perMinute <= 0 {
		return true, nil
	}

	l.mu.Lock()
	bucket, ok := l.buckets[key]
	every := rate.Every(time.Minute / time.Duration(perMinute))
	if !ok {
		bucket = rate.NewLimiter(every, perMinute)
		l.buckets[key] = bucket
	} else if bucket.Limit() != every {
		bucket.SetLimit(every)
		bucket.SetBurst(perMinute)
	}
	l.mu.Unlock()

	return bucket.Allow(), nil
}
