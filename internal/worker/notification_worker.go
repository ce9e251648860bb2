package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/prohmpiriya/gym-booking/internal/domain"
	"github.com/prohmpiriya/gym-booking/internal/metrics"
	"github.com/prohmpiriya/gym-booking/pkg/kafka"
	"github.com/prohmpiriya/gym-booking/pkg/logger"
	"github.com/prohmpiriya/gym-booking/pkg/retry"
	"github.com/prohmpiriya/gym-booking/pkg/telemetry"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// NotificationChannel is the Redis pub/sub channel a member's client subscribes to
func NotificationChannel(userID string) string {
	return "notifications:" + userID
}

// RecordConsumer is satisfied by *kafka.Consumer
type RecordConsumer interface {
	Poll(ctx context.Context) ([]*kafka.Record, error)
	CommitRecords(ctx context.Context, records []*kafka.Record) error
	Close()
}

// Publisher is satisfied by *pkgredis.Client
type Publisher interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

// Notification is what a member's client receives on its channel
type Notification struct {
	Type       domain.BookingEventType `json:"type"`
	BookingID  string                  `json:"booking_id"`
	ScheduleID string                  `json:"schedule_id"`
	ClassName  string                  `json:"class_name,omitempty"`
	StartTime  string                  `json:"start_time,omitempty"`
}

// NotificationWorker pushes booking events to per-user Redis channels.
// Offsets are committed after every batch, including records that were dead-lettered.
type NotificationWorker struct {
	consumer  RecordConsumer
	publisher Publisher
	dlq       *retry.DLQHandler
	backoff   *retry.Retrier
	log       *logger.Logger
	mu        sync.Mutex
	running   bool
}

// NewNotificationWorker creates a notification worker. dlq may be nil.
func NewNotificationWorker(consumer RecordConsumer, publisher Publisher, dlq retry.DLQPublisher, retryConfig *retry.Config) *NotificationWorker {
	if dlq == nil {
		dlq = retry.NoOpDLQPublisher{}
	}
	if retryConfig == nil {
		retryConfig = retry.DefaultConfig()
	}
	w := &NotificationWorker{
		consumer:  consumer,
		publisher: publisher,
		backoff:   retry.New(retryConfig),
		log:       logger.Get(),
	}
	w.dlq = retry.NewDLQHandler(dlq, retryConfig, func(msg *retry.DLQMessage) {
		w.log.Warn("Moving notification to DLQ",
			zap.String("topic", msg.OriginalTopic),
			zap.String("key", msg.OriginalKey),
			zap.Int("attempts", msg.Attempts),
			zap.String("error", msg.Error),
		)
	})
	return w
}

// Run polls until ctx is done or the consumer is closed
func (w *NotificationWorker) Run(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return fmt.Errorf("notification worker already running")
	}
	w.running = true
	w.mu.Unlock()

	defer func() {
		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
	}()

	w.log.Info("Starting notification worker")
	failures := 0
	for {
		records, err := w.consumer.Poll(ctx)
		if err != nil {
			if errors.Is(err, kafka.ErrClientClosed) || ctx.Err() != nil {
				w.log.Info("Notification worker stopped")
				return nil
			}
			wait := w.backoff.Backoff(failures)
			failures++
			w.log.ErrorContext(ctx, "Failed to poll booking events",
				zap.Int("consecutive_failures", failures),
				zap.Duration("backoff", wait),
				zap.Error(err),
			)
			if !sleepCtx(ctx, wait) {
				w.log.Info("Notification worker stopped")
				return nil
			}
			continue
		}
		failures = 0
		if len(records) == 0 {
			continue
		}
		w.processBatch(ctx, records)
	}
}

func (w *NotificationWorker) processBatch(ctx context.Context, records []*kafka.Record) {
	for _, r := range records {
		if err := w.handleRecord(ctx, r); err != nil {
			w.log.ErrorContext(ctx, "Failed to push notification",
				zap.String("topic", r.Topic),
				zap.Int64("offset", r.Offset),
				zap.Error(err),
			)
		}
	}
	if err := w.consumer.CommitRecords(ctx, records); err != nil {
		w.log.ErrorContext(ctx, "Failed to commit offsets", zap.Error(err))
	}
}

func (w *NotificationWorker) handleRecord(ctx context.Context, r *kafka.Record) error {
	headers := make(map[string]string, len(r.Headers))
	for _, h := range r.Headers {
		headers[h.Key] = string(h.Value)
	}
	ctx = telemetry.ExtractHeaders(ctx, headers)
	ctx, span := telemetry.StartSpan(ctx, "worker.notification.push")
	defer span.End()

	msgCtx := &retry.MessageContext{
		ID:      kafka.HeaderValue(r, "aggregate_id"),
		Topic:   r.Topic,
		Key:     string(r.Key),
		Payload: r.Value,
		Headers: headers,
	}

	err := w.dlq.ProcessWithDLQ(ctx, msgCtx, func(ctx context.Context) error {
		var event domain.BookingEvent
		if err := json.Unmarshal(r.Value, &event); err != nil {
			return retry.Permanent(fmt.Errorf("failed to decode booking event: %w", err))
		}
		if event.UserID == "" {
			return retry.Permanent(errors.New("booking event without user_id"))
		}
		span.SetAttributes(
			attribute.String("user_id", event.UserID),
			attribute.String("event_type", string(event.EventType)),
		)
		return w.push(ctx, &event)
	})
	if err != nil {
		span.RecordError(err)
	}
	return err
}

func (w *NotificationWorker) push(ctx context.Context, event *domain.BookingEvent) error {
	n := Notification{
		Type:       event.EventType,
		BookingID:  event.BookingID,
		ScheduleID: event.ScheduleID,
		ClassName:  event.ClassName,
	}
	if !event.StartTime.IsZero() {
		n.StartTime = event.StartTime.Format(time.RFC3339)
	}
	data, err := json.Marshal(n)
	if err != nil {
		return retry.Permanent(err)
	}
	if err := w.publisher.Publish(ctx, NotificationChannel(event.UserID), data).Err(); err != nil {
		return fmt.Errorf("failed to publish notification: %w", err)
	}
	metrics.RecordNotificationPushed(ctx, string(event.EventType))
	return nil
}

// sleepCtx waits for d and reports false if ctx ended first
func sleepCtx(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
