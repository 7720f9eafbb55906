package health

import (
	"context"

	"github.com/redis/go-redis/v9"

	"github.com/gebrielmolla19/groupify/internal/tracing"
)

// RedisChecker implements health checking for Redis.
type RedisChecker struct {
	client *redis.Client
}

// NewRedisChecker creates a new Redis health checker.
func NewRedisChecker(client *redis.Client) *RedisChecker {
	return &RedisChecker{
		client: client,
	}
}

// HealthCheck sends a PING within the caller's deadline.
func (r *RedisChecker) HealthCheck(ctx context.Context) error {
	ctx, end := tracing.StartSpan(ctx, "redis.ping")
	err := r.client.Ping(ctx).Err()
	end(err)
	return err
}
