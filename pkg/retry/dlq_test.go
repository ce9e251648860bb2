package retry

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type producedMessage struct {
	topic   string
	key     string
	value   interface{}
	headers map[string]string
}

type mockProducer struct {
	messages []producedMessage
	err      error
}

func (m *mockProducer) ProduceJSON(ctx context.Context, topic, key string, value interface{}, headers map[string]string) error {
	if m.err != nil {
		return m.err
	}
	m.messages = append(m.messages, producedMessage{topic, key, value, headers})
	return nil
}

func TestKafkaDLQPublisher_PublishToDLQ(t *testing.T) {
	producer := &mockProducer{}
	pub := NewKafkaDLQPublisher(producer, &DLQConfig{TopicSuffix: ".dlq", Source: "outbox-worker"})

	msg := &DLQMessage{
		ID:            "msg-1",
		OriginalTopic: "booking-events",
		OriginalKey:   "booking-1",
		Payload:       json.RawMessage(`{"booking_id":"booking-1"}`),
		Headers:       map[string]string{"event_type": "booking.created"},
		Error:         "broker unavailable",
		Attempts:      5,
	}

	require.NoError(t, pub.PublishToDLQ(context.Background(), msg))
	require.Len(t, producer.messages, 1)

	sent := producer.messages[0]
	assert.Equal(t, "booking-events.dlq", sent.topic)
	assert.Equal(t, "booking-1", sent.key)
	assert.Equal(t, "5", sent.headers["attempts"])
	assert.Equal(t, "booking.created", sent.headers["original_event_type"])
	assert.Equal(t, "outbox-worker", msg.Source)
	assert.False(t, msg.MovedToDLQAt.IsZero())
}

func TestKafkaDLQPublisher_Errors(t *testing.T) {
	pub := NewKafkaDLQPublisher(&mockProducer{err: errors.New("down")}, nil)

	assert.Error(t, pub.PublishToDLQ(context.Background(), nil))
	assert.Error(t, pub.PublishToDLQ(context.Background(), &DLQMessage{OriginalTopic: "t"}))
	assert.Equal(t, "t.dlq", pub.DLQTopic("t"))
}

type recordingDLQ struct {
	NoOpDLQPublisher
	got []*DLQMessage
	err error
}

func (r *recordingDLQ) PublishToDLQ(ctx context.Context, msg *DLQMessage) error {
	r.got = append(r.got, msg)
	return r.err
}

func TestDLQHandler_ProcessWithDLQ(t *testing.T) {
	cfg := &Config{MaxRetries: 2, InitialInterval: time.Millisecond, MaxInterval: 2 * time.Millisecond}
	msgCtx := &MessageContext{ID: "m1", Topic: "booking-events", Key: "k"}

	t.Run("success never dead-letters", func(t *testing.T) {
		dlq := &recordingDLQ{}
		h := NewDLQHandler(dlq, cfg, nil)

		err := h.ProcessWithDLQ(context.Background(), msgCtx, func(ctx context.Context) error { return nil })
		assert.NoError(t, err)
		assert.Empty(t, dlq.got)
	})

	t.Run("exhausted retries dead-letter with cause", func(t *testing.T) {
		dlq := &recordingDLQ{}
		var callbackCalled bool
		h := NewDLQHandler(dlq, cfg, func(*DLQMessage) { callbackCalled = true })

		cause := errors.New("redis down")
		err := h.ProcessWithDLQ(context.Background(), msgCtx, func(ctx context.Context) error { return cause })

		assert.ErrorIs(t, err, cause)
		assert.True(t, callbackCalled)
		require.Len(t, dlq.got, 1)
		assert.Equal(t, 3, dlq.got[0].Attempts)
		assert.Equal(t, "redis down", dlq.got[0].Error)
	})

	t.Run("permanent error dead-letters after one attempt", func(t *testing.T) {
		dlq := &recordingDLQ{}
		h := NewDLQHandler(dlq, cfg, nil)

		calls := 0
		_ = h.ProcessWithDLQ(context.Background(), msgCtx, func(ctx context.Context) error {
			calls++
			return Permanent(errors.New("malformed"))
		})

		assert.Equal(t, 1, calls)
		require.Len(t, dlq.got, 1)
		assert.Equal(t, "malformed", dlq.got[0].Error)
	})

	t.Run("dlq failure is reported", func(t *testing.T) {
		dlq := &recordingDLQ{err: errors.New("kafka down")}
		h := NewDLQHandler(dlq, cfg, nil)

		err := h.ProcessWithDLQ(context.Background(), msgCtx, func(ctx context.Context) error { return errors.New("x") })
		assert.ErrorContains(t, err, "failed to publish to DLQ")
	})
}
