package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prohmpiriya/gym-booking/pkg/response"
	"github.com/redis/go-redis/v9"
)

const (
	IdempotencyKeyHeader     = "X-Idempotency-Key"
	ContextKeyIdempotencyKey = "idempotency_key"
	IdempotencyKeyPrefix     = "idempotency:"
)

// IdempotencyStatus is the lifecycle state of a stored request
type IdempotencyStatus string

const (
	StatusProcessing IdempotencyStatus = "processing"
	StatusCompleted  IdempotencyStatus = "completed"
)

// IdempotencyRecord is the value stored under an idempotency key
type IdempotencyRecord struct {
	Status       IdempotencyStatus `json:"status"`
	RequestHash  string            `json:"request_hash"`
	ResponseCode int               `json:"response_code"`
	ResponseBody string            `json:"response_body"`
	CreatedAt    time.Time         `json:"created_at"`
}

// IdempotencyStore is the subset of Redis used for idempotency records
type IdempotencyStore interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// IdempotencyConfig configures Idempotency
type IdempotencyConfig struct {
	Store IdempotencyStore
	// TTL keeps completed responses for replay
	TTL time.Duration
	// ProcessingTTL bounds how long an in-flight marker blocks duplicates
	ProcessingTTL time.Duration
	// RequireKey rejects requests without the header. When false they pass through.
	RequireKey bool
}

// DefaultIdempotencyConfig returns the defaults used by the booking routes
func DefaultIdempotencyConfig(store IdempotencyStore) *IdempotencyConfig {
	return &IdempotencyConfig{
		Store:         store,
		TTL:           10 * time.Minute,
		ProcessingTTL: 30 * time.Second,
	}
}

// Idempotency replays the first response for a repeated X-Idempotency-Key.
// Keys are scoped per user, so two members can use the same key value.
// A different payload under the same key gets 422. A duplicate that arrives
// while the first is still running gets 409. 5xx responses are not stored so
// the client can retry. Redis failures fail open.
func Idempotency(config *IdempotencyConfig) gin.HandlerFunc {
	if config.TTL <= 0 {
		config.TTL = 10 * time.Minute
	}
	if config.ProcessingTTL <= 0 {
		config.ProcessingTTL = 30 * time.Second
	}

	return func(c *gin.Context) {
		key := c.GetHeader(IdempotencyKeyHeader)
		if key == "" {
			if config.RequireKey {
				response.Abort(c, http.StatusBadRequest, "MISSING_IDEMPOTENCY_KEY", "X-Idempotency-Key header is required")
				return
			}
			c.Next()
			return
		}
		c.Set(ContextKeyIdempotencyKey, key)

		var body []byte
		if c.Request.Body != nil {
			body, _ = io.ReadAll(c.Request.Body)
			c.Request.Body = io.NopCloser(bytes.NewReader(body))
		}

		userID, _ := GetUserID(c)
		requestHash := hashRequest(c.Request.Method, c.Request.URL.Path, userID, body)
		redisKey := IdempotencyKeyPrefix + userID + ":" + key
		ctx := c.Request.Context()

		existing, err := loadRecord(ctx, config.Store, redisKey)
		if err != nil && !errors.Is(err, redis.Nil) {
			c.Next()
			return
		}
		if existing != nil {
			replay(c, existing, requestHash)
			return
		}

		record := &IdempotencyRecord{
			Status:      StatusProcessing,
			RequestHash: requestHash,
			CreatedAt:   time.Now(),
		}
		claimed, err := claimRecord(ctx, config.Store, redisKey, record, config.ProcessingTTL)
		if err != nil {
			c.Next()
			return
		}
		if !claimed {
			// Another request owns the key. If its record is already gone we
			// still do not own it, so the caller has to retry.
			if existing, _ = loadRecord(ctx, config.Store, redisKey); existing != nil {
				replay(c, existing, requestHash)
				return
			}
			response.Abort(c, http.StatusConflict, "REQUEST_IN_PROGRESS", "A request with this idempotency key is already being processed")
			return
		}

		rw := &capturingWriter{ResponseWriter: c.Writer, body: &bytes.Buffer{}}
		c.Writer = rw

		c.Next()

		status := rw.Status()
		if status >= http.StatusInternalServerError {
			_ = config.Store.Del(ctx, redisKey).Err()
			return
		}
		record.Status = StatusCompleted
		record.ResponseCode = status
		record.ResponseBody = rw.body.String()
		if data, err := json.Marshal(record); err == nil {
			_ = config.Store.Set(ctx, redisKey, data, config.TTL).Err()
		}
	}
}

func replay(c *gin.Context, rec *IdempotencyRecord, requestHash string) {
	switch {
	case rec.RequestHash != requestHash:
		response.Abort(c, http.StatusUnprocessableEntity, "IDEMPOTENCY_KEY_REUSED", "Idempotency key already used with a different request")
	case rec.Status == StatusProcessing:
		response.Abort(c, http.StatusConflict, "REQUEST_IN_PROGRESS", "A request with this idempotency key is already being processed")
	default:
		c.Header("Idempotent-Replayed", "true")
		c.Data(rec.ResponseCode, "application/json; charset=utf-8", []byte(rec.ResponseBody))
		c.Abort()
	}
}

type capturingWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w *capturingWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *capturingWriter) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

func hashRequest(method, path, userID string, body []byte) string {
	h := sha256.New()
	h.Write([]byte(method))
	h.Write([]byte(path))
	h.Write([]byte(userID))
	h.Write(body)
	return hex.EncodeToString(h.Sum(nil))
}

func loadRecord(ctx context.Context, store IdempotencyStore, key string) (*IdempotencyRecord, error) {
	raw, err := store.Get(ctx, key).Bytes()
	if err != nil {
		return nil, err
	}
	var rec IdempotencyRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

func claimRecord(ctx context.Context, store IdempotencyStore, key string, rec *IdempotencyRecord, ttl time.Duration) (bool, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return false, err
	}
	return store.SetNX(ctx, key, data, ttl).Result()
}
