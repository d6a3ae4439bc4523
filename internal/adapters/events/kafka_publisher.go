package events

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"
)

// KafkaPublisher fans trust events out to the platform bus. Event types map
// to topics through topicByEvent so topic names stay a deployment concern;
// an unmapped event type publishes to a topic of the same name.
type KafkaPublisher struct {
	logger       *slog.Logger
	writer       *kafka.Writer
	topicByEvent map[string]string
}

func NewKafkaPublisher(logger *slog.Logger, brokers []string, topicByEvent map[string]string) (*KafkaPublisher, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("kafka publisher requires at least one broker")
	}
	return &KafkaPublisher{
		logger: logger,
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			RequiredAcks: kafka.RequireAll,
			Balancer:     &kafka.Hash{},
			BatchTimeout: 100 * time.Millisecond,
			WriteTimeout: 10 * time.Second,
		},
		topicByEvent: topicByEvent,
	}, nil
}

// Publish keys messages by user id so every event for one user lands on one
// partition and consumers see that user's tier history in order.
func (p *KafkaPublisher) Publish(ctx context.Context, eventType string, payload []byte, partitionKey string) error {
	topic := eventType
	if mapped, ok := p.topicByEvent[eventType]; ok && mapped != "" {
		topic = mapped
	}
	err := p.writer.WriteMessages(ctx, kafka.Message{
		Topic: topic,
		Key:   []byte(partitionKey),
		Value: payload,
		Time:  time.Now().UTC(),
	})
	if err != nil {
		p.logger.WarnContext(ctx, "kafka publish failed",
			"module", "events.kafka_publisher",
			"layer", "adapter",
			"operation", "publish",
			"outcome", "failure",
			"event_type", eventType,
			"topic", topic,
			"error", err,
		)
		return fmt.Errorf("publish %s to %s: %w", eventType, topic, err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
