package events

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/castcall/platform/services/trust-engine/internal/ports"
)

// OutboxWorker drains trust_outbox rows onto the bus. Rows are committed by
// the same transaction as the state change that produced them, so a publish
// failure only ever delays fan-out; MarkFailed keeps the row eligible for
// the next sweep with its retry count bumped.
type OutboxWorker struct {
	logger    *slog.Logger
	outbox    ports.OutboxRepository
	publisher ports.EventPublisher
	interval  time.Duration
	batchSize int
}

func NewOutboxWorker(logger *slog.Logger, outbox ports.OutboxRepository, publisher ports.EventPublisher, interval time.Duration, batchSize int) *OutboxWorker {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	if batchSize <= 0 {
		batchSize = 100
	}
	return &OutboxWorker{
		logger: logger, outbox: outbox, publisher: publisher, interval: interval, batchSize: batchSize,
	}
}

func (w *OutboxWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		if err := w.sweep(ctx); err != nil && !errors.Is(err, context.Canceled) {
			w.logger.ErrorContext(ctx, "outbox sweep failed",
				"module", "events.outbox_worker",
				"layer", "adapter",
				"operation", "sweep",
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

func (w *OutboxWorker) sweep(ctx context.Context) error {
	records, err := w.outbox.FetchUnpublished(ctx, w.batchSize)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return nil
	}
	now := time.Now().UTC()
	published, failed := 0, 0
	for _, rec := range records {
		if err := w.publisher.Publish(ctx, rec.EventType, rec.Payload, rec.PartitionKey); err != nil {
			_ = w.outbox.MarkFailed(ctx, rec.OutboxID, err.Error(), now)
			failed++
			continue
		}
		_ = w.outbox.MarkPublished(ctx, rec.OutboxID, now)
		published++
	}
	w.logger.InfoContext(ctx, "outbox sweep completed",
		"module", "events.outbox_worker",
		"layer", "adapter",
		"operation", "sweep",
		"outcome", "success",
		"published", published,
		"failed", failed,
	)
	return nil
}
