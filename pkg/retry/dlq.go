package retry

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// DLQMessage is the envelope written to a dead letter topic
type DLQMessage struct {
	ID             string            `json:"id"`
	OriginalTopic  string            `json:"original_topic"`
	OriginalKey    string            `json:"original_key"`
	Payload        json.RawMessage   `json:"payload"`
	Headers        map[string]string `json:"headers,omitempty"`
	Error          string            `json:"error"`
	Attempts       int               `json:"attempts"`
	FirstAttemptAt time.Time         `json:"first_attempt_at"`
	LastAttemptAt  time.Time         `json:"last_attempt_at"`
	MovedToDLQAt   time.Time         `json:"moved_to_dlq_at"`
	Source         string            `json:"source"`
}

// DLQPublisher publishes messages that exhausted their retries
type DLQPublisher interface {
	PublishToDLQ(ctx context.Context, msg *DLQMessage) error
	DLQTopic(originalTopic string) string
}

// JSONProducer is satisfied by *kafka.Producer
type JSONProducer interface {
	ProduceJSON(ctx context.Context, topic, key string, value interface{}, headers map[string]string) error
}

// DLQConfig names dead letter topics and the publishing service
type DLQConfig struct {
	TopicSuffix string
	Source      string
}

// DefaultDLQConfig appends ".dlq" to the original topic
func DefaultDLQConfig() *DLQConfig {
	return &DLQConfig{TopicSuffix: ".dlq", Source: "unknown"}
}

// KafkaDLQPublisher writes DLQ envelopes to Kafka
type KafkaDLQPublisher struct {
	producer JSONProducer
	config   *DLQConfig
}

// NewKafkaDLQPublisher creates a Kafka-backed DLQ publisher
func NewKafkaDLQPublisher(producer JSONProducer, config *DLQConfig) *KafkaDLQPublisher {
	if config == nil {
		config = DefaultDLQConfig()
	}
	return &KafkaDLQPublisher{producer: producer, config: config}
}

// PublishToDLQ stamps msg and sends it keyed by the original key
func (p *KafkaDLQPublisher) PublishToDLQ(ctx context.Context, msg *DLQMessage) error {
	if msg == nil {
		return fmt.Errorf("DLQ message cannot be nil")
	}

	msg.MovedToDLQAt = time.Now()
	msg.Source = p.config.Source

	headers := map[string]string{
		"content_type":   "application/json",
		"original_topic": msg.OriginalTopic,
		"error":          msg.Error,
		"attempts":       strconv.Itoa(msg.Attempts),
		"source":         msg.Source,
	}
	for k, v := range msg.Headers {
		headers["original_"+k] = v
	}

	return p.producer.ProduceJSON(ctx, p.DLQTopic(msg.OriginalTopic), msg.OriginalKey, msg, headers)
}

// DLQTopic returns the dead letter topic for originalTopic
func (p *KafkaDLQPublisher) DLQTopic(originalTopic string) string {
	return originalTopic + p.config.TopicSuffix
}

// DLQHandler retries an operation and dead-letters the message when retries run out
type DLQHandler struct {
	retrier   *Retrier
	publisher DLQPublisher
	onDLQ     func(msg *DLQMessage)
}

// NewDLQHandler creates a handler. onDLQ may be nil.
func NewDLQHandler(publisher DLQPublisher, retryConfig *Config, onDLQ func(msg *DLQMessage)) *DLQHandler {
	return &DLQHandler{
		retrier:   New(retryConfig),
		publisher: publisher,
		onDLQ:     onDLQ,
	}
}

// MessageContext identifies the message being processed
type MessageContext struct {
	ID      string
	Topic   string
	Key     string
	Payload json.RawMessage
	Headers map[string]string
}

// ProcessWithDLQ runs op with retries. On final failure the message is published
// to the DLQ and the operation error is returned.
func (h *DLQHandler) ProcessWithDLQ(ctx context.Context, msgCtx *MessageContext, op Operation) error {
	first := time.Now()

	result := h.retrier.Do(ctx, op)
	if result.Err == nil {
		return nil
	}
	if result.Err == ErrContextCanceled {
		return result.Err
	}

	cause := result.Err
	if result.LastError != nil {
		cause = result.LastError
	}

	dlqMsg := &DLQMessage{
		ID:             msgCtx.ID,
		OriginalTopic:  msgCtx.Topic,
		OriginalKey:    msgCtx.Key,
		Payload:        msgCtx.Payload,
		Headers:        msgCtx.Headers,
		Error:          cause.Error(),
		Attempts:       result.Attempts,
		FirstAttemptAt: first,
		LastAttemptAt:  time.Now(),
	}

	if h.onDLQ != nil {
		h.onDLQ(dlqMsg)
	}

	if err := h.publisher.PublishToDLQ(ctx, dlqMsg); err != nil {
		return fmt.Errorf("failed to publish to DLQ: %w (original error: %v)", err, cause)
	}
	return cause
}

// NoOpDLQPublisher drops messages, used when Kafka is unavailable
type NoOpDLQPublisher struct{}

// PublishToDLQ does nothing
func (NoOpDLQPublisher) PublishToDLQ(context.Context, *DLQMessage) error { return nil }

// DLQTopic returns originalTopic with the default suffix
func (NoOpDLQPublisher) DLQTopic(originalTopic string) string { return originalTopic + ".dlq" }
