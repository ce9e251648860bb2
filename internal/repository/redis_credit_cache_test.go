package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prohmpiriya/gym-booking/internal/domain"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeKeyValueStore struct {
	data   map[string]string
	ttls   map[string]time.Duration
	getErr error
}

func newFakeKeyValueStore() *fakeKeyValueStore {
	return &fakeKeyValueStore{data: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (f *fakeKeyValueStore) Get(ctx context.Context, key string) *redis.StringCmd {
	if f.getErr != nil {
		return redis.NewStringResult("", f.getErr)
	}
	v, ok := f.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (f *fakeKeyValueStore) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	switch v := value.(type) {
	case []byte:
		f.data[key] = string(v)
	case string:
		f.data[key] = v
	}
	f.ttls[key] = expiration
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeKeyValueStore) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	var n int64
	for _, k := range keys {
		if _, ok := f.data[k]; ok {
			delete(f.data, k)
			n++
		}
	}
	return redis.NewIntResult(n, nil)
}

func TestRedisCreditCache_RoundTrip(t *testing.T) {
	store := newFakeKeyValueStore()
	cache := NewRedisCreditCache(store, 2*time.Minute)
	ctx := context.Background()

	got, err := cache.Get(ctx, "u1", "2026-11")
	require.NoError(t, err)
	assert.Nil(t, got)

	summary := &domain.CreditSummary{
		Month:       "2026-11",
		HasPackage:  true,
		PackageName: "Monthly",
		Balances:    []domain.CreditBalance{{ClassType: "Yoga", Total: 4, Used: 1, Remaining: 3}},
	}
	require.NoError(t, cache.Set(ctx, "u1", "2026-11", summary))
	assert.Equal(t, 2*time.Minute, store.ttls["credits:u1:2026-11"])

	got, err = cache.Get(ctx, "u1", "2026-11")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Monthly", got.PackageName)
	assert.Equal(t, 3, got.Balances[0].Remaining)
}

func TestRedisCreditCache_Invalidate(t *testing.T) {
	store := newFakeKeyValueStore()
	cache := NewRedisCreditCache(store, 0)
	ctx := context.Background()

	for _, m := range []string{"2026-11", "2026-12", "2027-01"} {
		require.NoError(t, cache.Set(ctx, "u1", m, &domain.CreditSummary{Month: m}))
	}
	assert.Equal(t, 5*time.Minute, store.ttls["credits:u1:2026-11"])

	require.NoError(t, cache.Invalidate(ctx, "u1", "2026-11", "2026-12"))
	require.NoError(t, cache.Invalidate(ctx, "u1"))

	_, stillThere := store.data["credits:u1:2027-01"]
	assert.True(t, stillThere)
	assert.Len(t, store.data, 1)
}

func TestRedisCreditCache_GetError(t *testing.T) {
	store := newFakeKeyValueStore()
	store.getErr = errors.New("connection refused")
	cache := NewRedisCreditCache(store, time.Minute)

	got, err := cache.Get(context.Background(), "u1", "2026-11")
	assert.Error(t, err)
	assert.Nil(t, got)
}

func TestRedisCreditCache_CorruptValue(t *testing.T) {
	store := newFakeKeyValueStore()
	store.data[CreditCacheKey("u1", "2026-11")] = "{not json"
	cache := NewRedisCreditCache(store, time.Minute)

	_, err := cache.Get(context.Background(), "u1", "2026-11")
	assert.Error(t, err)
}
