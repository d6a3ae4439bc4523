package events

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/castcall/platform/services/trust-engine/internal/application"
	"github.com/castcall/platform/services/trust-engine/internal/contracts"
)

type Message struct {
	Topic   string
	Payload []byte
}

type Consumer interface {
	Poll(ctx context.Context, max int) ([]Message, error)
}

type ConsumerWorker struct {
	logger   *slog.Logger
	consumer Consumer
	service  *application.Service
	interval time.Duration
}

func NewConsumerWorker(logger *slog.Logger, consumer Consumer, service *application.Service, interval time.Duration) *ConsumerWorker {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	return &ConsumerWorker{
		logger: logger, consumer: consumer, service: service, interval: interval,
	}
}

func (w *ConsumerWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		if err := w.processOnce(ctx); err != nil && !errors.Is(err, context.Canceled) {
			w.logger.ErrorContext(ctx, "consumer iteration failed",
				"module", "events.consumer_worker",
				"layer", "adapter",
				"operation", "process_once",
				"outcome", "failure",
				"error", err,
			)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (w *ConsumerWorker) processOnce(ctx context.Context) error {
	msgs, err := w.consumer.Poll(ctx, 50)
	if err != nil {
		return err
	}
	for _, msg := range msgs {
		eventID, data := unwrapEnvelope(msg.Payload)
		var handleErr error
		switch msg.Topic {
		case "casting.job_posted":
			handleErr = w.service.HandleJobPosted(ctx, eventID, data)
		case "casting.application_reviewed":
			handleErr = w.service.HandleApplicationReviewed(ctx, eventID, data)
		case "user.profile_updated":
			handleErr = w.service.HandleProfileUpdated(ctx, eventID, data)
		case "user.registered":
			handleErr = w.service.HandleUserRegistered(ctx, eventID, data)
		default:
			continue
		}
		if handleErr != nil {
			w.logger.WarnContext(ctx, "failed to handle event",
				"topic", msg.Topic,
				"event_id", eventID,
				"error", handleErr,
			)
		}
	}
	return nil
}

// unwrapEnvelope extracts the event id and data payload. Producers that skip
// the envelope get their raw payload passed through with no dedup id.
func unwrapEnvelope(payload []byte) (string, []byte) {
	var envelope contracts.EventEnvelope
	if err := json.Unmarshal(payload, &envelope); err != nil || len(envelope.Data) == 0 {
		return "", payload
	}
	return envelope.EventID, envelope.Data
}
