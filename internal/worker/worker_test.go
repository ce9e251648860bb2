package worker

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/prohmpiriya/gym-booking/internal/domain"
	"github.com/prohmpiriya/gym-booking/pkg/kafka"
	"github.com/prohmpiriya/gym-booking/pkg/retry"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fastRetry = &retry.Config{MaxRetries: 1, InitialInterval: time.Millisecond, MaxInterval: time.Millisecond, Multiplier: 1}

type fakeOutboxRepo struct {
	mu        sync.Mutex
	pending   []*domain.OutboxMessage
	failed    []*domain.OutboxMessage
	published []string
	failures  map[string]string
	retention int
}

func (f *fakeOutboxRepo) CreateTx(ctx context.Context, tx pgx.Tx, msg *domain.OutboxMessage) error {
	return nil
}

func (f *fakeOutboxRepo) GetPendingMessages(ctx context.Context, limit int, lease time.Duration) ([]*domain.OutboxMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := f.pending
	f.pending = nil
	return out, nil
}

func (f *fakeOutboxRepo) GetFailedMessages(ctx context.Context, limit int, retryAfter time.Duration) ([]*domain.OutboxMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := f.failed
	f.failed = nil
	return out, nil
}

func (f *fakeOutboxRepo) MarkAsPublished(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.published = append(f.published, id)
	return nil
}

func (f *fakeOutboxRepo) MarkAsFailed(ctx context.Context, id string, errMsg string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failures == nil {
		f.failures = map[string]string{}
	}
	f.failures[id] = errMsg
	return nil
}

func (f *fakeOutboxRepo) DeletePublished(ctx context.Context, olderThanDays int) (int64, error) {
	f.retention = olderThanDays
	return 3, nil
}

type fakeProducer struct {
	mu       sync.Mutex
	messages []*kafka.Message
	failFor  map[string]bool
}

func (f *fakeProducer) Produce(ctx context.Context, msg *kafka.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failFor[string(msg.Key)] {
		return errors.New("broker not available")
	}
	f.messages = append(f.messages, msg)
	return nil
}

type fakeDLQ struct {
	mu       sync.Mutex
	messages []*retry.DLQMessage
}

func (f *fakeDLQ) PublishToDLQ(ctx context.Context, msg *retry.DLQMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, msg)
	return nil
}

func (f *fakeDLQ) DLQTopic(originalTopic string) string { return originalTopic + ".dlq" }

func outboxMessage(t *testing.T, id, userID string, retryCount int) *domain.OutboxMessage {
	t.Helper()
	msg, err := domain.NewOutboxMessage(domain.AggregateBooking, "b-"+id, string(domain.BookingEventCreated),
		domain.TopicBookingEvents, userID, map[string]string{"booking_id": "b-" + id})
	require.NoError(t, err)
	msg.ID = id
	msg.RetryCount = retryCount
	return msg
}

func newTestOutboxWorker(repo *fakeOutboxRepo, producer *fakeProducer, dlq *fakeDLQ) *OutboxWorker {
	cfg := DefaultOutboxWorkerConfig()
	cfg.PublishRetry = fastRetry
	return NewOutboxWorker(repo, producer, dlq, cfg)
}

func TestOutboxWorker_PublishesPendingMessages(t *testing.T) {
	repo := &fakeOutboxRepo{pending: []*domain.OutboxMessage{
		outboxMessage(t, "m1", "user-a", 0),
		outboxMessage(t, "m2", "user-b", 0),
	}}
	producer := &fakeProducer{}
	w := newTestOutboxWorker(repo, producer, &fakeDLQ{})

	w.processPendingMessages(context.Background())

	assert.Equal(t, []string{"m1", "m2"}, repo.published)
	require.Len(t, producer.messages, 2)
	first := producer.messages[0]
	assert.Equal(t, domain.TopicBookingEvents, first.Topic)
	assert.Equal(t, "user-a", string(first.Key))
	assert.Equal(t, "booking.created", first.Headers["event_type"])
	assert.Equal(t, "b-m1", first.Headers["aggregate_id"])
}

func TestOutboxWorker_FailureAndDeadLetter(t *testing.T) {
	repo := &fakeOutboxRepo{failed: []*domain.OutboxMessage{
		outboxMessage(t, "retry-me", "user-down", 1),
		outboxMessage(t, "give-up", "user-down", domain.DefaultOutboxMaxRetries-1),
		outboxMessage(t, "fine", "user-up", 2),
	}}
	producer := &fakeProducer{failFor: map[string]bool{"user-down": true}}
	dlq := &fakeDLQ{}
	w := newTestOutboxWorker(repo, producer, dlq)

	w.processFailedMessages(context.Background())

	assert.Equal(t, []string{"fine"}, repo.published)
	assert.Contains(t, repo.failures["retry-me"], "broker not available")
	assert.Contains(t, repo.failures, "give-up")

	require.Len(t, dlq.messages, 1)
	dead := dlq.messages[0]
	assert.Equal(t, "give-up", dead.ID)
	assert.Equal(t, domain.TopicBookingEvents, dead.OriginalTopic)
	assert.Equal(t, "user-down", dead.OriginalKey)
	assert.Equal(t, domain.DefaultOutboxMaxRetries, dead.Attempts)
	assert.JSONEq(t, `{"booking_id":"b-give-up"}`, string(dead.Payload))
}

func TestOutboxWorker_Cleanup(t *testing.T) {
	repo := &fakeOutboxRepo{}
	cfg := DefaultOutboxWorkerConfig()
	cfg.CleanupRetentionDays = 14
	w := NewOutboxWorker(repo, &fakeProducer{}, nil, cfg)

	w.cleanup(context.Background())

	assert.Equal(t, 14, repo.retention)
}

func TestOutboxWorker_StartStop(t *testing.T) {
	repo := &fakeOutboxRepo{pending: []*domain.OutboxMessage{outboxMessage(t, "m1", "user-a", 0)}}
	cfg := DefaultOutboxWorkerConfig()
	cfg.PollInterval = 5 * time.Millisecond
	cfg.PublishRetry = fastRetry
	w := NewOutboxWorker(repo, &fakeProducer{}, nil, cfg)

	require.NoError(t, w.Start(context.Background()))
	assert.Error(t, w.Start(context.Background()))

	assert.Eventually(t, func() bool {
		repo.mu.Lock()
		defer repo.mu.Unlock()
		return len(repo.published) == 1
	}, time.Second, 5*time.Millisecond)

	w.Stop()
	w.Stop()
}

func TestNewOutboxWorker_Defaults(t *testing.T) {
	w := NewOutboxWorker(nil, nil, nil, &OutboxWorkerConfig{PollInterval: time.Second, BatchSize: 10})

	assert.Equal(t, 30*time.Second, w.config.Lease)
	assert.NotNil(t, w.config.PublishRetry)
	assert.IsType(t, retry.NoOpDLQPublisher{}, w.dlq)
}

type fakeConsumer struct {
	mu        sync.Mutex
	batches   [][]*kafka.Record
	committed []*kafka.Record
	pollErrs  []error
	polls     int
}

func (f *fakeConsumer) Poll(ctx context.Context) ([]*kafka.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.polls++
	if len(f.pollErrs) > 0 {
		err := f.pollErrs[0]
		f.pollErrs = f.pollErrs[1:]
		return nil, err
	}
	if len(f.batches) == 0 {
		return nil, kafka.ErrClientClosed
	}
	batch := f.batches[0]
	f.batches = f.batches[1:]
	return batch, nil
}

func (f *fakeConsumer) CommitRecords(ctx context.Context, records []*kafka.Record) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.committed = append(f.committed, records...)
	return nil
}

func (f *fakeConsumer) Close() {}

type fakePublisher struct {
	mu       sync.Mutex
	channels []string
	payloads []string
	err      error
}

func (f *fakePublisher) Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return redis.NewIntResult(0, f.err)
	}
	f.channels = append(f.channels, channel)
	f.payloads = append(f.payloads, string(message.([]byte)))
	return redis.NewIntResult(1, nil)
}

func bookingRecord(t *testing.T, event *domain.BookingEvent) *kafka.Record {
	t.Helper()
	data, err := json.Marshal(event)
	require.NoError(t, err)
	return &kafka.Record{Topic: domain.TopicBookingEvents, Key: []byte(event.UserID), Value: data}
}

func TestNotificationWorker_PushesToUserChannel(t *testing.T) {
	event := &domain.BookingEvent{
		EventType:  domain.BookingEventCancelled,
		BookingID:  "b-1",
		UserID:     "user-a",
		ScheduleID: "s-1",
		ClassName:  "Morning Flow",
		StartTime:  time.Date(2026, 11, 3, 7, 30, 0, 0, time.UTC),
	}
	consumer := &fakeConsumer{batches: [][]*kafka.Record{{bookingRecord(t, event)}}}
	publisher := &fakePublisher{}
	w := NewNotificationWorker(consumer, publisher, &fakeDLQ{}, fastRetry)

	require.NoError(t, w.Run(context.Background()))

	assert.Equal(t, []string{"notifications:user-a"}, publisher.channels)
	assert.JSONEq(t, `{"type":"booking.cancelled","booking_id":"b-1","schedule_id":"s-1","class_name":"Morning Flow","start_time":"2026-11-03T07:30:00Z"}`, publisher.payloads[0])
	assert.Len(t, consumer.committed, 1)
}

func TestNotificationWorker_DeadLettersBadRecords(t *testing.T) {
	tests := []struct {
		name         string
		record       func(t *testing.T) *kafka.Record
		publishErr   error
		wantAttempts int
	}{
		{
			name: "malformed payload is not retried",
			record: func(t *testing.T) *kafka.Record {
				return &kafka.Record{Topic: domain.TopicBookingEvents, Value: []byte("{not json")}
			},
			wantAttempts: 1,
		},
		{
			name: "missing user is not retried",
			record: func(t *testing.T) *kafka.Record {
				return bookingRecord(t, &domain.BookingEvent{BookingID: "b-2"})
			},
			wantAttempts: 1,
		},
		{
			name: "redis failure is retried then dead-lettered",
			record: func(t *testing.T) *kafka.Record {
				return bookingRecord(t, &domain.BookingEvent{BookingID: "b-3", UserID: "user-b"})
			},
			publishErr:   errors.New("redis: connection refused"),
			wantAttempts: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			consumer := &fakeConsumer{batches: [][]*kafka.Record{{tt.record(t)}}}
			dlq := &fakeDLQ{}
			w := NewNotificationWorker(consumer, &fakePublisher{err: tt.publishErr}, dlq, fastRetry)

			require.NoError(t, w.Run(context.Background()))

			require.Len(t, dlq.messages, 1)
			assert.Equal(t, tt.wantAttempts, dlq.messages[0].Attempts)
			assert.Equal(t, domain.TopicBookingEvents, dlq.messages[0].OriginalTopic)
			assert.Len(t, consumer.committed, 1, "dead-lettered records are still committed")
		})
	}
}

func TestNotificationWorker_BacksOffOnPollErrors(t *testing.T) {
	brokerDown := errors.New("broker unavailable")
	consumer := &fakeConsumer{pollErrs: []error{brokerDown, brokerDown, brokerDown}}
	cfg := &retry.Config{InitialInterval: 20 * time.Millisecond, MaxInterval: 20 * time.Millisecond, Multiplier: 1}
	w := NewNotificationWorker(consumer, &fakePublisher{}, nil, cfg)

	start := time.Now()
	require.NoError(t, w.Run(context.Background()))

	assert.Equal(t, 4, consumer.polls)
	assert.GreaterOrEqual(t, time.Since(start), 60*time.Millisecond)
}

func TestNotificationWorker_StopsDuringBackoff(t *testing.T) {
	consumer := &fakeConsumer{pollErrs: []error{errors.New("broker unavailable")}}
	cfg := &retry.Config{InitialInterval: time.Hour, MaxInterval: time.Hour, Multiplier: 1}
	w := NewNotificationWorker(consumer, &fakePublisher{}, nil, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	assert.Eventually(t, func() bool {
		consumer.mu.Lock()
		defer consumer.mu.Unlock()
		return consumer.polls == 1
	}, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("worker did not stop while backing off")
	}
	assert.Equal(t, 1, consumer.polls)
}
