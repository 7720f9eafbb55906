package analytics

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/attribute"

	"github.com/gebrielmolla19/groupify/internal/tracing"
)

// DefaultCacheTTL keeps cached panels fresh enough for a dashboard that
// refreshes on navigation while absorbing rapid repeat loads.
const DefaultCacheTTL = 30 * time.Second

// ErrCacheMiss is returned by a CacheStore when a key has no value.
var ErrCacheMiss = errors.New("cache miss")

// CacheStore is the byte-level storage behind the analytics cache.
// Implementations must treat absent keys as ErrCacheMiss.
type CacheStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// RedisCacheStore implements CacheStore on a Redis client.
type RedisCacheStore struct {
	client *redis.Client
}

// NewRedisCacheStore creates a Redis-backed cache store.
func NewRedisCacheStore(client *redis.Client) *RedisCacheStore {
	return &RedisCacheStore{client: client}
}

// Get retrieves the value for a key, mapping redis.Nil to ErrCacheMiss.
func (s *RedisCacheStore) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	return data, err
}

// Set stores a value with the given TTL.
func (s *RedisCacheStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return s.client.Set(ctx, key, value, ttl).Err()
}

// CachedService is a read-through cache over a Service. Panels are keyed
// by (group id, range, mode) per operation and serialized with CBOR.
//
// The cache is a collaborator, never a source of truth: any store or
// codec failure is logged and the request falls through to a direct
// computation. Computation failures are never cached.
type CachedService struct {
	service *Service
	store   CacheStore
	ttl     time.Duration
	logger  *slog.Logger
}

// NewCachedService wraps a Service with a read-through cache.
// A non-positive ttl falls back to DefaultCacheTTL.
func NewCachedService(service *Service, store CacheStore, ttl time.Duration, logger *slog.Logger) *CachedService {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CachedService{
		service: service,
		store:   store,
		ttl:     ttl,
		logger:  logger,
	}
}

// cacheKey builds the store key for one operation invocation.
func cacheKey(operation, groupID string, rng TimeRange, mode Mode) string {
	return fmt.Sprintf("analytics:%s:%s:%s:%s", operation, groupID, rng, mode)
}

// lookup tries to decode a cached value into dest. Returns true only on
// a clean hit; every failure mode degrades to a miss.
func (c *CachedService) lookup(ctx context.Context, key string, dest any) bool {
	data, err := c.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrCacheMiss) {
			c.logger.Warn("analytics cache read failed", "key", key, "error", err)
		}
		tracing.AddEvent(ctx, "analytics.cache_miss", attribute.String("cache.key", key))
		return false
	}
	if err := cbor.Unmarshal(data, dest); err != nil {
		// Corrupt entry; it will be overwritten by the fresh computation.
		c.logger.Warn("discarding undecodable cache entry", "key", key, "error", err)
		tracing.AddEvent(ctx, "analytics.cache_miss", attribute.String("cache.key", key))
		return false
	}
	tracing.AddEvent(ctx, "analytics.cache_hit", attribute.String("cache.key", key))
	return true
}

// put encodes and stores a freshly computed value. Failures are logged,
// not surfaced; the caller already holds the computed result.
func (c *CachedService) put(ctx context.Context, key string, value any) {
	encoded, err := cbor.Marshal(value)
	if err != nil {
		c.logger.Warn("analytics cache encode failed", "key", key, "error", err)
		return
	}
	if err := c.store.Set(ctx, key, encoded, c.ttl); err != nil {
		c.logger.Warn("analytics cache write failed", "key", key, "error", err)
	}
}

// GroupActivity serves the activity series through the cache.
func (c *CachedService) GroupActivity(ctx context.Context, groupID string, rng TimeRange, mode Mode) ([]ActivityBucket, error) {
	key := cacheKey(opActivity, groupID, rng, mode)

	var cached []ActivityBucket
	if c.lookup(ctx, key, &cached) {
		return cached, nil
	}

	series, err := c.service.GroupActivity(ctx, groupID, rng, mode)
	if err != nil {
		return nil, err
	}
	c.put(ctx, key, series)
	return series, nil
}

// MemberVibes serves member vibe profiles through the cache.
func (c *CachedService) MemberVibes(ctx context.Context, groupID string, rng TimeRange) ([]VibeProfile, error) {
	key := cacheKey(opVibes, groupID, rng, "")

	var cached []VibeProfile
	if c.lookup(ctx, key, &cached) {
		return cached, nil
	}

	profiles, err := c.service.MemberVibes(ctx, groupID, rng)
	if err != nil {
		return nil, err
	}
	c.put(ctx, key, profiles)
	return profiles, nil
}

// Superlatives serves the superlative map through the cache.
func (c *CachedService) Superlatives(ctx context.Context, groupID string) (map[string]Superlative, error) {
	key := cacheKey(opSuperlatives, groupID, "", "")

	var cached map[string]Superlative
	if c.lookup(ctx, key, &cached) {
		return cached, nil
	}

	result, err := c.service.Superlatives(ctx, groupID)
	if err != nil {
		return nil, err
	}
	c.put(ctx, key, result)
	return result, nil
}

// GroupOverview is not cached as a unit; its panels are cached
// individually so a range change only invalidates the panels it affects.
func (c *CachedService) GroupOverview(ctx context.Context, groupID string, rng TimeRange, mode Mode) (*Overview, error) {
	var (
		overview Overview
		errs     = make(chan error, 3)
	)

	go func() {
		series, err := c.GroupActivity(ctx, groupID, rng, mode)
		overview.Activity = series
		errs <- err
	}()
	go func() {
		vibes, err := c.MemberVibes(ctx, groupID, rng)
		overview.Vibes = vibes
		errs <- err
	}()
	go func() {
		sups, err := c.Superlatives(ctx, groupID)
		overview.Superlatives = sups
		errs <- err
	}()

	var err error
	for i := 0; i < 3; i++ {
		err = errors.Join(err, <-errs)
	}
	if err != nil {
		return nil, err
	}
	return &overview, nil
}
