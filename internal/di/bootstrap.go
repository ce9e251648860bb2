package di

import (
	"context"
	"fmt"

	"github.com/prohmpiriya/gym-booking/internal/metrics"
	"github.com/prohmpiriya/gym-booking/pkg/config"
	"github.com/prohmpiriya/gym-booking/pkg/database"
	"github.com/prohmpiriya/gym-booking/pkg/kafka"
	"github.com/prohmpiriya/gym-booking/pkg/logger"
	pkgredis "github.com/prohmpiriya/gym-booking/pkg/redis"
	"github.com/prohmpiriya/gym-booking/pkg/telemetry"
	"go.uber.org/zap"
)

// InitObservability sets up the logger, tracing and metrics for serviceName.
// The returned function flushes both and should be deferred.
func InitObservability(ctx context.Context, cfg *config.Config, serviceName string) (func(), error) {
	level := "info"
	if cfg.App.Debug {
		level = "debug"
	}
	if err := logger.Init(&logger.Config{
		Level:       level,
		ServiceName: serviceName,
		Development: cfg.IsDevelopment(),
	}); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	_, err := telemetry.Init(ctx, &telemetry.Config{
		Enabled:        cfg.OTel.Enabled,
		MetricsEnabled: cfg.OTel.MetricsEnabled,
		ServiceName:    serviceName,
		ServiceVersion: cfg.App.Version,
		Environment:    cfg.App.Environment,
		CollectorAddr:  cfg.OTel.CollectorAddr,
		SampleRatio:    cfg.OTel.SampleRatio,
	})
	if err != nil {
		logger.Get().Warn("Telemetry disabled", zap.Error(err))
	}
	if err := metrics.Init(); err != nil {
		logger.Get().Warn("Metrics disabled", zap.Error(err))
	}

	return func() {
		_ = telemetry.Shutdown(context.Background())
		logger.Sync()
	}, nil
}

// OpenPostgres connects the pgx pool described by cfg
func OpenPostgres(ctx context.Context, cfg *config.Config, serviceName string) (*database.PostgresDB, error) {
	dbCfg := database.DefaultPostgresConfig()
	dbCfg.Host = cfg.Database.Host
	dbCfg.Port = cfg.Database.Port
	dbCfg.User = cfg.Database.User
	dbCfg.Password = cfg.Database.Password
	dbCfg.Database = cfg.Database.DBName
	dbCfg.SSLMode = cfg.Database.SSLMode
	if cfg.Database.MaxOpenConns > 0 {
		dbCfg.MaxConns = int32(cfg.Database.MaxOpenConns)
	}
	if cfg.Database.MaxIdleConns > 0 {
		dbCfg.MinConns = int32(cfg.Database.MaxIdleConns)
	}
	if cfg.Database.ConnMaxLifetime > 0 {
		dbCfg.MaxConnLifetime = cfg.Database.ConnMaxLifetime
	}
	if cfg.Database.ConnMaxIdleTime > 0 {
		dbCfg.MaxConnIdleTime = cfg.Database.ConnMaxIdleTime
	}
	dbCfg.EnableTracing = cfg.OTel.Enabled
	dbCfg.ServiceName = serviceName

	return database.NewPostgres(ctx, dbCfg)
}

// OpenRedis connects the Redis client described by cfg
func OpenRedis(ctx context.Context, cfg *config.Config) (*pkgredis.Client, error) {
	redisCfg := pkgredis.DefaultConfig()
	redisCfg.Host = cfg.Redis.Host
	redisCfg.Port = cfg.Redis.Port
	redisCfg.Password = cfg.Redis.Password
	redisCfg.DB = cfg.Redis.DB
	if cfg.Redis.PoolSize > 0 {
		redisCfg.PoolSize = cfg.Redis.PoolSize
	}
	if cfg.Redis.MinIdleConns > 0 {
		redisCfg.MinIdleConns = cfg.Redis.MinIdleConns
	}
	if cfg.Redis.DialTimeout > 0 {
		redisCfg.DialTimeout = cfg.Redis.DialTimeout
	}
	if cfg.Redis.ReadTimeout > 0 {
		redisCfg.ReadTimeout = cfg.Redis.ReadTimeout
	}
	if cfg.Redis.WriteTimeout > 0 {
		redisCfg.WriteTimeout = cfg.Redis.WriteTimeout
	}

	return pkgredis.NewClient(ctx, redisCfg)
}

// OpenProducer connects a Kafka producer for clientID
func OpenProducer(ctx context.Context, cfg *config.Config, clientID string) (*kafka.Producer, error) {
	producerCfg := kafka.DefaultProducerConfig()
	producerCfg.Brokers = cfg.Kafka.Brokers
	producerCfg.ClientID = clientID

	return kafka.NewProducer(ctx, producerCfg)
}
