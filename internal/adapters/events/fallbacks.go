package events

import (
	"context"
	"log/slog"
)

// LoggingPublisher stands in for the kafka publisher when no brokers are
// configured. Tier-change fan-out degrades to a log line; trust state and
// the outbox rows are unaffected.
type LoggingPublisher struct {
	logger *slog.Logger
}

func NewLoggingPublisher(logger *slog.Logger) *LoggingPublisher {
	return &LoggingPublisher{logger: logger}
}

func (p *LoggingPublisher) Publish(ctx context.Context, eventType string, payload []byte, partitionKey string) error {
	p.logger.InfoContext(ctx, "trust event logged in place of publish",
		"module", "events.fallbacks",
		"layer", "adapter",
		"operation", "publish",
		"outcome", "success",
		"event_type", eventType,
		"partition_key", partitionKey,
		"payload_bytes", len(payload),
	)
	return nil
}

// NoopConsumer is the matching intake stand-in: with no brokers there are no
// activity events, so every poll is empty and accrual simply idles.
type NoopConsumer struct{}

func NewNoopConsumer() *NoopConsumer { return &NoopConsumer{} }

func (NoopConsumer) Poll(_ context.Context, _ int) ([]Message, error) {
	return nil, nil
}
