package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
)

// HealthChecker is a dependency that can report its health
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// PoolStats reports connection pool statistics
type PoolStats interface {
	Stats() *pgxpool.Stat
}

// HealthHandler handles health check endpoints
type HealthHandler struct {
	db    HealthChecker
	redis HealthChecker
	pool  PoolStats
}

// NewHealthHandler creates a new HealthHandler. Any argument may be nil.
func NewHealthHandler(db HealthChecker, redis HealthChecker, pool PoolStats) *HealthHandler {
	return &HealthHandler{db: db, redis: redis, pool: pool}
}

// HealthResponse represents health check response
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

// ReadyResponse represents readiness check response
type ReadyResponse struct {
	Status     string            `json:"status"`
	Timestamp  string            `json:"timestamp"`
	Components map[string]string `json:"components"`
}

// Health is the liveness probe
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// Ready is the readiness probe. It fails when postgres or redis is unreachable.
func (h *HealthHandler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	components := map[string]string{
		"database": check(ctx, h.db),
		"redis":    check(ctx, h.redis),
	}
	allHealthy := true
	for _, state := range components {
		if state != "healthy" && state != "not configured" {
			allHealthy = false
		}
	}

	response := ReadyResponse{
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
		Components: components,
	}
	if allHealthy {
		response.Status = "ready"
		c.JSON(http.StatusOK, response)
		return
	}
	response.Status = "not ready"
	c.JSON(http.StatusServiceUnavailable, response)
}

func check(ctx context.Context, hc HealthChecker) string {
	if hc == nil {
		return "not configured"
	}
	if err := hc.HealthCheck(ctx); err != nil {
		return "unhealthy: " + err.Error()
	}
	return "healthy"
}

// Metrics reports database pool usage
func (h *HealthHandler) Metrics(c *gin.Context) {
	if h.pool == nil {
		c.JSON(http.StatusOK, gin.H{"db_pool": nil})
		return
	}
	stats := h.pool.Stats()
	c.JSON(http.StatusOK, gin.H{
		"db_pool": gin.H{
			"total_conns":        stats.TotalConns(),
			"acquired_conns":     stats.AcquiredConns(),
			"idle_conns":         stats.IdleConns(),
			"max_conns":          stats.MaxConns(),
			"constructing_conns": stats.ConstructingConns(),
		},
	})
}
