package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/prohmpiriya/gym-booking/internal/domain"
	"github.com/prohmpiriya/gym-booking/pkg/telemetry"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/attribute"
)

// KeyValueStore is the subset of *pkgredis.Client used by the credit cache
type KeyValueStore interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// RedisCreditCache stores credit summaries as JSON under credits:{user}:{YYYY-MM}
type RedisCreditCache struct {
	store KeyValueStore
	ttl   time.Duration
}

// NewRedisCreditCache creates a new RedisCreditCache
func NewRedisCreditCache(store KeyValueStore, ttl time.Duration) *RedisCreditCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &RedisCreditCache{store: store, ttl: ttl}
}

// CreditCacheKey returns the cache key of a user's month
func CreditCacheKey(userID, month string) string {
	return "credits:" + userID + ":" + month
}

// Get returns the cached summary or nil on a miss
func (c *RedisCreditCache) Get(ctx context.Context, userID, month string) (*domain.CreditSummary, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.redis.credit_cache.get")
	defer span.End()

	raw, err := c.store.Get(ctx, CreditCacheKey(userID, month)).Bytes()
	if errors.Is(err, redis.Nil) {
		span.SetAttributes(attribute.Bool("hit", false))
		return nil, nil
	}
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get credit summary: %w", err)
	}

	var summary domain.CreditSummary
	if err := json.Unmarshal(raw, &summary); err != nil {
		return nil, fmt.Errorf("failed to decode credit summary: %w", err)
	}
	span.SetAttributes(attribute.Bool("hit", true))
	return &summary, nil
}

// Set caches a summary for the configured TTL
func (c *RedisCreditCache) Set(ctx context.Context, userID, month string, summary *domain.CreditSummary) error {
	ctx, span := telemetry.StartSpan(ctx, "repo.redis.credit_cache.set")
	defer span.End()

	data, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("failed to encode credit summary: %w", err)
	}
	if err := c.store.Set(ctx, CreditCacheKey(userID, month), data, c.ttl).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to set credit summary: %w", err)
	}
	return nil
}

// Invalidate drops the cached summaries of the given months
func (c *RedisCreditCache) Invalidate(ctx context.Context, userID string, months ...string) error {
	if len(months) == 0 {
		return nil
	}
	ctx, span := telemetry.StartSpan(ctx, "repo.redis.credit_cache.invalidate")
	defer span.End()

	keys := make([]string, len(months))
	for i, m := range months {
		keys[i] = CreditCacheKey(userID, m)
	}
	if err := c.store.Del(ctx, keys...).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to invalidate credit summary: %w", err)
	}
	return nil
}

var _ CreditCache = (*RedisCreditCache)(nil)
