package kafka

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"
)

// ErrClientClosed is returned by Poll after Close
var ErrClientClosed = errors.New("kafka client closed")

// ConsumerConfig holds consumer group settings
type ConsumerConfig struct {
	Brokers          []string
	GroupID          string
	Topics           []string
	ClientID         string
	MaxRetries       int
	RetryInterval    time.Duration
	SessionTimeout   time.Duration
	RebalanceTimeout time.Duration
}

// Consumer is a consumer-group member with manual offset commits
type Consumer struct {
	client *kgo.Client
	config *ConsumerConfig
}

// NewConsumer joins the consumer group and verifies connectivity
func NewConsumer(ctx context.Context, cfg *ConsumerConfig) (*Consumer, error) {
	if cfg == nil || len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("kafka brokers are required")
	}
	if cfg.GroupID == "" || len(cfg.Topics) == 0 {
		return nil, fmt.Errorf("consumer group and topics are required")
	}
	if cfg.SessionTimeout == 0 {
		cfg.SessionTimeout = 30 * time.Second
	}
	if cfg.RebalanceTimeout == 0 {
		cfg.RebalanceTimeout = 60 * time.Second
	}

	opts := []kgo.Opt{
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.ConsumerGroup(cfg.GroupID),
		kgo.ConsumeTopics(cfg.Topics...),
		kgo.ClientID(cfg.ClientID),
		kgo.DisableAutoCommit(),
		kgo.SessionTimeout(cfg.SessionTimeout),
		kgo.RebalanceTimeout(cfg.RebalanceTimeout),
	}
	if cfg.RetryInterval > 0 {
		interval := cfg.RetryInterval
		opts = append(opts, kgo.RetryBackoffFn(func(int) time.Duration { return interval }))
	}

	client, err := kgo.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka client: %w", err)
	}

	if err := client.Ping(ctx); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping Kafka: %w", err)
	}

	return &Consumer{client: client, config: cfg}, nil
}

// Poll blocks until records are available or ctx ends
func (c *Consumer) Poll(ctx context.Context) ([]*Record, error) {
	fetches := c.client.PollFetches(ctx)
	if fetches.IsClientClosed() {
		return nil, ErrClientClosed
	}
	if errs := fetches.Errors(); len(errs) > 0 {
		first := errs[0]
		return nil, fmt.Errorf("fetch error: topic=%s, partition=%d: %w", first.Topic, first.Partition, first.Err)
	}
	return fetches.Records(), nil
}

// CommitRecords commits offsets for processed records
func (c *Consumer) CommitRecords(ctx context.Context, records []*Record) error {
	return c.client.CommitRecords(ctx, records...)
}

// Close leaves the group and closes the client
func (c *Consumer) Close() {
	c.client.Close()
}
