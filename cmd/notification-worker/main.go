package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prohmpiriya/gym-booking/internal/di"
	"github.com/prohmpiriya/gym-booking/internal/worker"
	"github.com/prohmpiriya/gym-booking/pkg/config"
	"github.com/prohmpiriya/gym-booking/pkg/kafka"
	"github.com/prohmpiriya/gym-booking/pkg/logger"
	"github.com/prohmpiriya/gym-booking/pkg/retry"
	"go.uber.org/zap"
)

const serviceName = "notification-worker"

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
	appLog.Info("Starting Notification Worker...")

	redisClient, err := di.OpenRedis(ctx, cfg)
	if err != nil {
		appLog.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer redisClient.Close()
	appLog.Info("Redis connected")

	group := cfg.Kafka.ConsumerGroup
	if group == "" {
		group = serviceName
	}
	consumer, err := kafka.NewConsumer(ctx, &kafka.ConsumerConfig{
		Brokers:        cfg.Kafka.Brokers,
		GroupID:        group,
		Topics:         []string{cfg.Kafka.BookingTopic},
		ClientID:       serviceName,
		MaxRetries:     3,
		RetryInterval:  2 * time.Second,
		SessionTimeout: 30 * time.Second,
	})
	if err != nil {
		appLog.Fatal("Failed to create Kafka consumer", zap.Error(err))
	}
	appLog.Info("Kafka consumer connected", zap.String("topic", cfg.Kafka.BookingTopic))

	producer, err := di.OpenProducer(ctx, cfg, serviceName)
	if err != nil {
		appLog.Fatal("Failed to create Kafka producer", zap.Error(err))
	}
	defer producer.Close()

	notificationWorker := worker.NewNotificationWorker(
		consumer,
		redisClient,
		retry.NewKafkaDLQPublisher(producer, &retry.DLQConfig{
			TopicSuffix: ".dlq",
			Source:      serviceName,
		}),
		retry.DefaultConfig(),
	)

	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := notificationWorker.Run(ctx); err != nil {
			appLog.Error("Worker error", zap.Error(err))
		}
	}()
	appLog.Info("Notification Worker started successfully")

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLog.Info("Shutting down worker...")
	cancel()
	consumer.Close()
	<-done

	appLog.Info("Worker exited gracefully")
}
