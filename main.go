package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prohmpiriya/gym-booking/internal/di"
	"github.com/prohmpiriya/gym-booking/internal/dto"
	"github.com/prohmpiriya/gym-booking/internal/handler"
	"github.com/prohmpiriya/gym-booking/pkg/auth"
	"github.com/prohmpiriya/gym-booking/pkg/config"
	"github.com/prohmpiriya/gym-booking/pkg/logger"
	"github.com/prohmpiriya/gym-booking/pkg/middleware"
	pkgredis "github.com/prohmpiriya/gym-booking/pkg/redis"
	"github.com/prohmpiriya/gym-booking/pkg/telemetry"
	"go.uber.org/zap"
)

const serviceName = "gym-booking-api"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx := context.Background()

	shutdown, err := di.InitObservability(ctx, cfg, serviceName)
	if err != nil {
		log.Fatalf("Failed to initialize observability: %v", err)
	}
	defer shutdown()

	appLog := logger.Get()
	appLog.Info("Starting gym booking API...", zap.String("timezone", cfg.Location().String()))

	db, err := di.OpenPostgres(ctx, cfg, serviceName)
	if err != nil {
		appLog.Fatal("Database connection failed", zap.Error(err))
	}
	defer db.Close()
	appLog.Info("Database connected")

	// Redis backs the credit cache, rate limiting and idempotency. The API
	// still serves bookings without it.
	redisClient, err := di.OpenRedis(ctx, cfg)
	if err != nil {
		appLog.Warn("Redis connection failed, running without cache", zap.Error(err))
		redisClient = nil
	} else {
		defer redisClient.Close()
		appLog.Info("Redis connected", zap.String("addr", cfg.Redis.Addr()))
	}

	if err := dto.RegisterValidators(); err != nil {
		appLog.Fatal("Failed to register validators", zap.Error(err))
	}

	container := di.NewContainer(&di.ContainerConfig{
		Config: cfg,
		DB:     db,
		Redis:  redisClient,
	})

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(
		gin.Recovery(),
		middleware.RequestID(),
		telemetry.TracingMiddleware(serviceName),
		middleware.Logger(appLog),
		middleware.CORS(middleware.DefaultCORSConfig()),
	)

	tokens := auth.NewTokenManager(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.AccessTokenTTL)
	container.Handlers.Register(router, handler.RouteOptions{
		Auth:  middleware.JWTAuth(tokens),
		Write: writeGuards(ctx, cfg, redisClient),
	})

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
		ReadHeaderTimeout: 2 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	go func() {
		appLog.Info("Gym booking API listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLog.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLog.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLog.Error("Server forced to shutdown", zap.Error(err))
	}

	appLog.Info("Server exited gracefully")
}

// writeGuards builds the rate limit and idempotency middlewares for the
// booking write endpoints. Both use Redis when it is available.
func writeGuards(ctx context.Context, cfg *config.Config, redisClient *pkgredis.Client) []gin.HandlerFunc {
	var guards []gin.HandlerFunc

	if cfg.RateLimit.Enabled {
		rlCfg := middleware.DefaultRateLimitConfig()
		rlCfg.RequestsPerSecond = cfg.RateLimit.RequestsPerSecond
		rlCfg.BurstSize = cfg.RateLimit.BurstSize

		var limiter middleware.Limiter = middleware.NewLocalRateLimiter(rlCfg)
		if redisClient != nil {
			redisLimiter, err := middleware.NewRedisRateLimiter(ctx, redisClient, rlCfg)
			if err != nil {
				logger.Get().Warn("Falling back to in-process rate limiter", zap.Error(err))
			} else {
				limiter = redisLimiter
			}
		}
		guards = append(guards, middleware.RateLimit(limiter, rlCfg))
	}

	if redisClient != nil {
		guards = append(guards, middleware.Idempotency(middleware.DefaultIdempotencyConfig(redisClient)))
	}
	return guards
}
