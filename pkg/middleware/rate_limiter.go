package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	pkgredis "github.com/prohmpiriya/gym-booking/pkg/redis"
	"github.com/prohmpiriya/gym-booking/pkg/response"
	"github.com/prohmpiriya/gym-booking/pkg/telemetry"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/attribute"
)

// Limiter decides whether key may spend one token
type Limiter interface {
	Allow(ctx context.Context, key string) (allowed bool, remaining float64, err error)
}

// RateLimitConfig configures the token bucket
type RateLimitConfig struct {
	RequestsPerSecond int
	BurstSize         int
	KeyPrefix         string
}

// DefaultRateLimitConfig allows 5 writes per second per user with a burst of 10
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		RequestsPerSecond: 5,
		BurstSize:         10,
		KeyPrefix:         "ratelimit:",
	}
}

// bucketIdleTTL matches the EXPIRE of the Redis bucket
const bucketIdleTTL = 60 * time.Second

type bucket struct {
	mu         sync.Mutex
	tokens     float64
	lastUpdate time.Time
	evicted    bool
}

// LocalRateLimiter is an in-process token bucket, used when Redis is not configured.
// Buckets idle for longer than bucketIdleTTL are swept on later calls.
type LocalRateLimiter struct {
	config    RateLimitConfig
	buckets   sync.Map
	now       func() time.Time
	sweepMu   sync.Mutex
	lastSweep time.Time
}

// NewLocalRateLimiter creates an in-memory limiter
func NewLocalRateLimiter(config RateLimitConfig) *LocalRateLimiter {
	return &LocalRateLimiter{config: config, now: time.Now}
}

// Allow refills the bucket for the elapsed time and takes one token
func (l *LocalRateLimiter) Allow(_ context.Context, key string) (bool, float64, error) {
	now := l.now()
	l.sweep(now)

	for {
		v, _ := l.buckets.LoadOrStore(key, &bucket{tokens: float64(l.config.BurstSize), lastUpdate: now})
		b := v.(*bucket)

		b.mu.Lock()
		if b.evicted {
			b.mu.Unlock()
			continue
		}

		// now was read before the lock, so another caller may have moved lastUpdate past it
		elapsed := max(0, now.Sub(b.lastUpdate).Seconds())
		b.tokens = min(float64(l.config.BurstSize), b.tokens+elapsed*float64(l.config.RequestsPerSecond))
		if now.After(b.lastUpdate) {
			b.lastUpdate = now
		}

		allowed := b.tokens >= 1
		if allowed {
			b.tokens--
		}
		remaining := b.tokens
		b.mu.Unlock()
		return allowed, remaining, nil
	}
}

func (l *LocalRateLimiter) sweep(now time.Time) {
	if !l.sweepMu.TryLock() {
		return
	}
	defer l.sweepMu.Unlock()

	if l.lastSweep.IsZero() {
		l.lastSweep = now
		return
	}
	if now.Sub(l.lastSweep) < bucketIdleTTL {
		return
	}
	l.lastSweep = now

	l.buckets.Range(func(k, v any) bool {
		b := v.(*bucket)
		b.mu.Lock()
		if now.Sub(b.lastUpdate) >= bucketIdleTTL {
			b.evicted = true
			l.buckets.Delete(k)
		}
		b.mu.Unlock()
		return true
	})
}

const tokenBucketScriptName = "token_bucket"

// tokenBucketScript refills and spends atomically. Returns {allowed, remaining*1000}.
const tokenBucketScript = `
local key = KEYS[1]
local rate = tonumber(ARGV[1])
local burst = tonumber(ARGV[2])
local now = tonumber(ARGV[3])

local data = redis.call("HMGET", key, "tokens", "last_update")
local tokens = tonumber(data[1]) or burst
local last_update = tonumber(data[2]) or now

tokens = math.min(burst, tokens + math.max(0, now - last_update) * rate)

local allowed = 0
if tokens >= 1 then
    tokens = tokens - 1
    allowed = 1
end

redis.call("HSET", key, "tokens", tokens, "last_update", now)
redis.call("EXPIRE", key, 60)
return {allowed, math.floor(tokens * 1000)}
`

// ScriptRunner is satisfied by *pkgredis.Client
type ScriptRunner interface {
	LoadScript(ctx context.Context, name, script string) (*pkgredis.ScriptInfo, error)
	EvalShaByName(ctx context.Context, name string, keys []string, args ...interface{}) *redis.Cmd
}

// RedisRateLimiter shares buckets across instances through a Lua script
type RedisRateLimiter struct {
	config RateLimitConfig
	redis  ScriptRunner
}

// NewRedisRateLimiter loads the token bucket script and returns the limiter
func NewRedisRateLimiter(ctx context.Context, client ScriptRunner, config RateLimitConfig) (*RedisRateLimiter, error) {
	if _, err := client.LoadScript(ctx, tokenBucketScriptName, tokenBucketScript); err != nil {
		return nil, err
	}
	return &RedisRateLimiter{config: config, redis: client}, nil
}

// Allow spends one token from the shared bucket
func (l *RedisRateLimiter) Allow(ctx context.Context, key string) (bool, float64, error) {
	now := float64(time.Now().UnixNano()) / 1e9
	vals, err := l.redis.EvalShaByName(ctx, tokenBucketScriptName,
		[]string{l.config.KeyPrefix + key},
		l.config.RequestsPerSecond, l.config.BurstSize, now,
	).Int64Slice()
	if err != nil {
		return false, 0, err
	}
	if len(vals) < 2 {
		return false, 0, fmt.Errorf("unexpected token bucket reply length: %d", len(vals))
	}
	return vals[0] == 1, float64(vals[1]) / 1000, nil
}

// RateLimit limits requests per authenticated user, falling back to client IP.
// Limiter errors fail open.
func RateLimit(limiter Limiter, config RateLimitConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := telemetry.StartSpan(c.Request.Context(), "middleware.rate_limit")
		defer span.End()

		key, ok := GetUserID(c)
		if !ok {
			key = "ip:" + c.ClientIP()
		}

		allowed, remaining, err := limiter.Allow(ctx, key)
		if err != nil {
			span.RecordError(err)
			allowed, remaining = true, float64(config.BurstSize)
		}
		span.SetAttributes(attribute.Bool("rate_limit.allowed", allowed))

		c.Header("X-RateLimit-Limit", strconv.Itoa(config.RequestsPerSecond))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(max(int(remaining), 0)))

		if !allowed {
			c.Header("Retry-After", "1")
			response.Abort(c, http.StatusTooManyRequests, "TOO_MANY_REQUESTS", "Rate limit exceeded. Please retry after 1 second(s).")
			return
		}
		c.Next()
	}
}
