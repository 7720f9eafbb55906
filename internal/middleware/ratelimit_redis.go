package middleware

import (
	"context"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisRateLimitStore implements RateLimitStore backed by Redis, so limits
// are shared across API instances. It uses a fixed window counter: INCR on
// a per-key counter, with EXPIRE set when the window opens.
//
// The store fails open: if Redis is unavailable, requests are allowed and
// the error is counted via the middleware metrics.
type RedisRateLimitStore struct {
	client  *redis.Client
	prefix  string
	logger  *slog.Logger
	metrics *Metrics
}

// NewRedisRateLimitStore creates a Redis-backed rate limit store.
// logger and metrics may be nil.
func NewRedisRateLimitStore(client *redis.Client, logger *slog.Logger, metrics *Metrics) *RedisRateLimitStore {
	return &RedisRateLimitStore{
		client:  client,
		prefix:  "ratelimit:",
		logger:  logger,
		metrics: metrics,
	}
}

// Allow checks if a request from the given key should be allowed.
// Implements the RateLimitStore interface.
func (s *RedisRateLimitStore) Allow(ctx context.Context, key string, config RateLimitConfig) (bool, int) {
	redisKey := s.prefix + key

	pipe := s.client.TxPipeline()
	incr := pipe.Incr(ctx, redisKey)
	ttl := pipe.TTL(ctx, redisKey)
	if _, err := pipe.Exec(ctx); err != nil {
		s.failOpen(ctx, key, err)
		return true, 0
	}

	count := incr.Val()

	// First request in a window: start the window clock. A key with no TTL
	// (-1) also gets one so a failed EXPIRE can't leave a counter that never
	// resets.
	if count == 1 || ttl.Val() < 0 {
		if err := s.client.Expire(ctx, redisKey, config.WindowDuration).Err(); err != nil {
			s.failOpen(ctx, key, err)
			return true, 0
		}
		ttl = nil
	}

	if count <= int64(config.RequestsPerWindow) {
		return true, 0
	}

	retryAfter := int(config.WindowDuration.Seconds())
	if ttl != nil && ttl.Val() > 0 {
		retryAfter = int(ttl.Val().Round(time.Second).Seconds())
	}
	if retryAfter <= 0 {
		retryAfter = 1
	}
	return false, retryAfter
}

// failOpen logs a Redis failure and records it in metrics. The caller allows
// the request.
func (s *RedisRateLimitStore) failOpen(ctx context.Context, key string, err error) {
	if s.logger != nil {
		s.logger.LogAttrs(ctx, slog.LevelWarn, "rate limit redis error, allowing request",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
	}
	if s.metrics != nil {
		s.metrics.IncRateLimitRedisErrors()
	}
}
