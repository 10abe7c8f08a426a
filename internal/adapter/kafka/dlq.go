package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/haiphamcoder/tracehub/internal/domain"
)

// deadLetterEnvelope preserves the original record alongside the failure
// reason so dead-lettered events stay inspectable.
type deadLetterEnvelope struct {
	Payload   json.RawMessage `json:"payload"`
	Partition int             `json:"partition"`
	Offset    int64           `json:"offset"`
	Reason    string          `json:"reason"`
	FailedAt  time.Time       `json:"failedAt"`
}

// DeadLetterPublisher routes unprocessable records to the dead-letter topic.
type DeadLetterPublisher struct {
	writer *kafka.Writer
	logger *slog.Logger
}

// NewDeadLetterPublisher creates a publisher for the DLQ topic.
func NewDeadLetterPublisher(brokers []string, topic string, logger *slog.Logger) *DeadLetterPublisher {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
	}

	return &DeadLetterPublisher{
		writer: writer,
		logger: logger.With("component", "kafka_dlq", "topic", topic),
	}
}

// Send wraps the record in a dead-letter envelope and publishes it. The
// original payload is carried verbatim even when it is not valid JSON.
func (d *DeadLetterPublisher) Send(ctx context.Context, rec domain.Record, reason string) error {
	payload := rec.Value
	if !json.Valid(payload) {
		quoted, err := json.Marshal(string(payload))
		if err != nil {
			return fmt.Errorf("failed to quote dead-letter payload: %w", err)
		}
		payload = quoted
	}

	envelope, err := json.Marshal(deadLetterEnvelope{
		Payload:   payload,
		Partition: rec.Partition,
		Offset:    rec.Offset,
		Reason:    reason,
		FailedAt:  time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal dead-letter envelope: %w", err)
	}

	msg := kafka.Message{Key: rec.Key, Value: envelope}
	if err := d.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to publish to dead-letter topic: %w", err)
	}

	d.logger.Warn("record moved to dead-letter topic",
		"partition", rec.Partition, "offset", rec.Offset, "reason", reason)
	return nil
}

// Close flushes and closes the underlying writer.
func (d *DeadLetterPublisher) Close() error {
	return d.writer.Close()
}
