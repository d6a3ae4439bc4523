package events

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

// readWait bounds a single fetch so Poll returns a short batch instead of
// blocking until the bus has traffic.
const readWait = 250 * time.Millisecond

// KafkaConsumer reads the activity and registration topics the engine
// accrues trust from. One group reader covers all subscribed topics; offsets
// commit on read, so a handler failure is logged and skipped rather than
// replayed (activity deltas are deduplicated by event id anyway).
type KafkaConsumer struct {
	reader *kafka.Reader
}

func NewKafkaConsumer(brokers []string, groupID string, topics []string) (*KafkaConsumer, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("kafka consumer requires at least one broker")
	}
	if groupID == "" {
		return nil, fmt.Errorf("kafka consumer requires group id")
	}
	if len(topics) == 0 {
		return nil, fmt.Errorf("kafka consumer requires at least one topic")
	}
	return &KafkaConsumer{
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers:        brokers,
			GroupID:        groupID,
			GroupTopics:    topics,
			MinBytes:       1,
			MaxBytes:       10e6,
			MaxWait:        500 * time.Millisecond,
			CommitInterval: time.Second,
		}),
	}, nil
}

func (c *KafkaConsumer) Poll(ctx context.Context, max int) ([]Message, error) {
	if max <= 0 {
		max = 1
	}
	batch := make([]Message, 0, max)
	for len(batch) < max {
		readCtx, cancel := context.WithTimeout(ctx, readWait)
		msg, err := c.reader.ReadMessage(readCtx)
		cancel()
		if errors.Is(err, context.DeadlineExceeded) {
			// Drained whatever was buffered; hand back what we have.
			return batch, nil
		}
		if errors.Is(err, context.Canceled) {
			return batch, ctx.Err()
		}
		if err != nil {
			return batch, err
		}
		batch = append(batch, Message{Topic: msg.Topic, Payload: msg.Value})
	}
	return batch, nil
}

func (c *KafkaConsumer) Close() error {
	return c.reader.Close()
}
