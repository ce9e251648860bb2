package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/prohmpiriya/gym-booking/internal/di"
	"github.com/prohmpiriya/gym-booking/internal/repository"
	"github.com/prohmpiriya/gym-booking/internal/worker"
	"github.com/prohmpiriya/gym-booking/pkg/config"
	"github.com/prohmpiriya/gym-booking/pkg/logger"
	"github.com/prohmpiriya/gym-booking/pkg/retry"
	"go.uber.org/zap"
)

const serviceName = "outbox-worker"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdown, err := di.InitObservability(ctx, cfg, serviceName)
	if err != nil {
		log.Fatalf("Failed to initialize observability: %v", err)
	}
	defer shutdown()

	appLog := logger.Get()
	appLog.Info("Starting Outbox Worker...")

	db, err := di.OpenPostgres(ctx, cfg, serviceName)
	if err != nil {
		appLog.Fatal("Database connection failed", zap.Error(err))
	}
	defer db.Close()
	appLog.Info("Database connected")

	producer, err := di.OpenProducer(ctx, cfg, serviceName)
	if err != nil {
		appLog.Fatal("Failed to create Kafka producer", zap.Error(err))
	}
	defer producer.Close()
	appLog.Info("Kafka producer connected")

	dlq := retry.NewKafkaDLQPublisher(producer, &retry.DLQConfig{
		TopicSuffix: ".dlq",
		Source:      serviceName,
	})

	workerCfg := worker.DefaultOutboxWorkerConfig()
	if cfg.Outbox.PollInterval > 0 {
		workerCfg.PollInterval = cfg.Outbox.PollInterval
	}
	if cfg.Outbox.BatchSize > 0 {
		workerCfg.BatchSize = cfg.Outbox.BatchSize
	}
	if cfg.Outbox.RetryInterval > 0 {
		workerCfg.RetryInterval = cfg.Outbox.RetryInterval
	}
	if cfg.Outbox.CleanupInterval > 0 {
		workerCfg.CleanupInterval = cfg.Outbox.CleanupInterval
	}
	if cfg.Outbox.CleanupRetentionDays > 0 {
		workerCfg.CleanupRetentionDays = cfg.Outbox.CleanupRetentionDays
	}

	outboxWorker := worker.NewOutboxWorker(
		repository.NewPostgresOutboxRepository(db.Pool()),
		producer,
		dlq,
		workerCfg,
	)
	if err := outboxWorker.Start(ctx); err != nil {
		appLog.Fatal("Failed to start outbox worker", zap.Error(err))
	}
	appLog.Info("Outbox Worker started successfully")

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLog.Info("Shutting down worker...")
	cancel()
	outboxWorker.Stop()

	appLog.Info("Worker exited gracefully")
}
