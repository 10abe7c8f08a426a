package kafka

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/haiphamcoder/tracehub/internal/domain"
)

// Consumer wraps a consumer-group reader. Offsets are committed explicitly
// by the caller once a record's outcome is durable, preserving at-least-once
// delivery upstream of indexing.
type Consumer struct {
	reader *kafka.Reader
	topic  string
	logger *slog.Logger
}

// NewConsumer creates a consumer-group reader for the given topic.
func NewConsumer(brokers []string, groupID, topic string, logger *slog.Logger) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		GroupID:        groupID,
		Topic:          topic,
		MinBytes:       1,
		MaxBytes:       10 << 20, // 10MB
		MaxWait:        1 * time.Second,
		CommitInterval: 0, // synchronous commits only
	})

	return &Consumer{
		reader: reader,
		topic:  topic,
		logger: logger.With("component", "kafka_consumer", "topic", topic, "group", groupID),
	}
}

// Fetch blocks until the next record is available. It does not advance the
// committed offset.
func (c *Consumer) Fetch(ctx context.Context) (domain.Record, error) {
	msg, err := c.reader.FetchMessage(ctx)
	if err != nil {
		return domain.Record{}, fmt.Errorf("failed to fetch from %s: %w", c.topic, err)
	}

	return domain.Record{
		Key:       msg.Key,
		Value:     msg.Value,
		Partition: msg.Partition,
		Offset:    msg.Offset,
	}, nil
}

// Commit marks the record as processed, advancing the group's committed
// offset for its partition past the record.
func (c *Consumer) Commit(ctx context.Context, rec domain.Record) error {
	msg := kafka.Message{
		Topic:     c.topic,
		Partition: rec.Partition,
		Offset:    rec.Offset,
	}

	if err := c.reader.CommitMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to commit offset %d on partition %d: %w", rec.Offset, rec.Partition, err)
	}
	return nil
}

// Close leaves the consumer group and releases the reader.
func (c *Consumer) Close() error {
	return c.reader.Close()
}
