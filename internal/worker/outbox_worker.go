package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/prohmpiriya/gym-booking/internal/domain"
	"github.com/prohmpiriya/gym-booking/internal/metrics"
	"github.com/prohmpiriya/gym-booking/internal/repository"
	"github.com/prohmpiriya/gym-booking/pkg/kafka"
	"github.com/prohmpiriya/gym-booking/pkg/logger"
	"github.com/prohmpiriya/gym-booking/pkg/retry"
	"github.com/prohmpiriya/gym-booking/pkg/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// MessageProducer is satisfied by *kafka.Producer
type MessageProducer interface {
	Produce(ctx context.Context, msg *kafka.Message) error
}

// OutboxWorkerConfig contains configuration for the outbox worker
type OutboxWorkerConfig struct {
	// PollInterval is the interval between polling for pending messages
	PollInterval time.Duration
	// BatchSize is the number of messages to claim in each poll
	BatchSize int
	// RetryInterval is the minimum age of a failed attempt before it is retried
	RetryInterval time.Duration
	// Lease is how long a claimed pending message stays invisible to other relays
	Lease time.Duration
	// CleanupInterval is the interval between cleanup of old published messages
	CleanupInterval time.Duration
	// CleanupRetentionDays is the number of days to retain published messages
	CleanupRetentionDays int
	// PublishRetry backs off between produce attempts within one claim
	PublishRetry *retry.Config
}

// DefaultOutboxWorkerConfig returns default configuration
func DefaultOutboxWorkerConfig() *OutboxWorkerConfig {
	return &OutboxWorkerConfig{
		PollInterval:         500 * time.Millisecond,
		BatchSize:            100,
		RetryInterval:        5 * time.Second,
		Lease:                30 * time.Second,
		CleanupInterval:      time.Hour,
		CleanupRetentionDays: 7,
		PublishRetry: &retry.Config{
			MaxRetries:      2,
			InitialInterval: 100 * time.Millisecond,
			MaxInterval:     time.Second,
			Multiplier:      2.0,
			JitterFactor:    0.1,
		},
	}
}

// OutboxWorker relays outbox rows to Kafka. Messages that fail MaxRetries
// times are sent to the topic's dead letter topic.
type OutboxWorker struct {
	outboxRepo repository.OutboxRepository
	producer   MessageProducer
	dlq        retry.DLQPublisher
	config     *OutboxWorkerConfig
	log        *logger.Logger
	stopCh     chan struct{}
	wg         sync.WaitGroup
	mu         sync.Mutex
	running    bool
}

// NewOutboxWorker creates a new outbox worker. dlq may be nil.
func NewOutboxWorker(
	outboxRepo repository.OutboxRepository,
	producer MessageProducer,
	dlq retry.DLQPublisher,
	config *OutboxWorkerConfig,
) *OutboxWorker {
	defaults := DefaultOutboxWorkerConfig()
	if config == nil {
		config = defaults
	}
	if config.Lease <= 0 {
		config.Lease = defaults.Lease
	}
	if config.PublishRetry == nil {
		config.PublishRetry = defaults.PublishRetry
	}
	if dlq == nil {
		dlq = retry.NoOpDLQPublisher{}
	}

	return &OutboxWorker{
		outboxRepo: outboxRepo,
		producer:   producer,
		dlq:        dlq,
		config:     config,
		log:        logger.Get(),
		stopCh:     make(chan struct{}),
	}
}

// Start starts the pending poller, the failed retrier and the cleanup loop
func (w *OutboxWorker) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return fmt.Errorf("outbox worker already running")
	}
	w.running = true
	w.mu.Unlock()

	w.log.Info("Starting outbox worker",
		zap.Duration("poll_interval", w.config.PollInterval),
		zap.Int("batch_size", w.config.BatchSize),
	)

	w.wg.Add(3)
	go w.loop(ctx, w.config.PollInterval, w.processPendingMessages)
	go w.loop(ctx, w.config.RetryInterval, w.processFailedMessages)
	go w.loop(ctx, w.config.CleanupInterval, w.cleanup)

	return nil
}

// Stop stops the worker and waits for in-flight batches
func (w *OutboxWorker) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	w.mu.Unlock()

	w.log.Info("Stopping outbox worker")
	close(w.stopCh)
	w.wg.Wait()
	w.log.Info("Outbox worker stopped")
}

func (w *OutboxWorker) loop(ctx context.Context, interval time.Duration, fn func(context.Context)) {
	defer w.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case <-ticker.C:
			fn(ctx)
		}
	}
}

func (w *OutboxWorker) processPendingMessages(ctx context.Context) {
	messages, err := w.outboxRepo.GetPendingMessages(ctx, w.config.BatchSize, w.config.Lease)
	if err != nil {
		w.log.ErrorContext(ctx, "Failed to get pending messages", zap.Error(err))
		return
	}
	for _, msg := range messages {
		w.relay(ctx, msg)
	}
}

func (w *OutboxWorker) processFailedMessages(ctx context.Context) {
	messages, err := w.outboxRepo.GetFailedMessages(ctx, w.config.BatchSize, w.config.RetryInterval)
	if err != nil {
		w.log.ErrorContext(ctx, "Failed to get failed messages", zap.Error(err))
		return
	}
	for _, msg := range messages {
		w.relay(ctx, msg)
	}
}

// relay publishes one message and records the result on its row
func (w *OutboxWorker) relay(ctx context.Context, msg *domain.OutboxMessage) {
	ctx, span := telemetry.StartSpan(ctx, "worker.outbox.relay")
	defer span.End()
	span.SetAttributes(
		attribute.String("outbox_id", msg.ID),
		attribute.String("event_type", msg.EventType),
		attribute.Int("retry_count", msg.RetryCount),
	)

	result := retry.Do(ctx, w.config.PublishRetry, func(ctx context.Context) error {
		return w.publishMessage(ctx, msg)
	})
	if result.Err == nil {
		if err := w.outboxRepo.MarkAsPublished(ctx, msg.ID); err != nil {
			w.log.ErrorContext(ctx, "Failed to mark message as published", zap.String("outbox_id", msg.ID), zap.Error(err))
		}
		metrics.RecordOutboxPublished(ctx, msg.EventType)
		return
	}

	cause := result.Err
	if result.LastError != nil {
		cause = result.LastError
	}
	span.RecordError(cause)

	deadLettered := msg.Exhausted()
	w.log.ErrorContext(ctx, "Failed to publish outbox message",
		zap.String("outbox_id", msg.ID),
		zap.String("event_type", msg.EventType),
		zap.Int("attempt", msg.RetryCount+1),
		zap.Int("max_retries", msg.MaxRetries),
		zap.Bool("dead_lettered", deadLettered),
		zap.Error(cause),
	)
	if err := w.outboxRepo.MarkAsFailed(ctx, msg.ID, cause.Error()); err != nil {
		w.log.ErrorContext(ctx, "Failed to mark message as failed", zap.String("outbox_id", msg.ID), zap.Error(err))
	}
	if deadLettered {
		w.deadLetter(ctx, msg, cause)
	}
	metrics.RecordOutboxFailed(ctx, msg.EventType, deadLettered)
}

func (w *OutboxWorker) deadLetter(ctx context.Context, msg *domain.OutboxMessage, cause error) {
	now := time.Now()
	dlqMsg := &retry.DLQMessage{
		ID:             msg.ID,
		OriginalTopic:  msg.Topic,
		OriginalKey:    msg.PartitionKey,
		Payload:        msg.Payload,
		Headers:        map[string]string{"event_type": msg.EventType, "aggregate_id": msg.AggregateID},
		Error:          cause.Error(),
		Attempts:       msg.RetryCount + 1,
		FirstAttemptAt: msg.CreatedAt,
		LastAttemptAt:  now,
	}
	if err := w.dlq.PublishToDLQ(ctx, dlqMsg); err != nil {
		w.log.ErrorContext(ctx, "Failed to publish to DLQ",
			zap.String("outbox_id", msg.ID),
			zap.String("dlq_topic", w.dlq.DLQTopic(msg.Topic)),
			zap.Error(err),
		)
	}
}

func (w *OutboxWorker) cleanup(ctx context.Context) {
	deleted, err := w.outboxRepo.DeletePublished(ctx, w.config.CleanupRetentionDays)
	if err != nil {
		w.log.ErrorContext(ctx, "Failed to cleanup old messages", zap.Error(err))
		return
	}
	if deleted > 0 {
		w.log.Info("Cleaned up old published messages", zap.Int64("deleted", deleted))
	}
}

// publishMessage publishes a message to Kafka with the trace context in its headers
func (w *OutboxWorker) publishMessage(ctx context.Context, msg *domain.OutboxMessage) error {
	headers := map[string]string{
		"event_type":     msg.EventType,
		"aggregate_type": msg.AggregateType,
		"aggregate_id":   msg.AggregateID,
		"content_type":   "application/json",
		"source":         "outbox-worker",
	}
	telemetry.InjectHeaders(ctx, headers)

	return w.producer.Produce(ctx, &kafka.Message{
		Topic:     msg.Topic,
		Key:       []byte(msg.PartitionKey),
		Value:     msg.Payload,
		Headers:   headers,
		Timestamp: time.Now(),
	})
}
