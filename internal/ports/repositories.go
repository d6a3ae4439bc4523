package ports

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/castcall/platform/services/trust-engine/internal/domain"
)

type CreateTrustRecordParams struct {
	UserID        uuid.UUID
	Role          domain.Role
	EmailVerified bool
	CreatedAt     time.Time
}

// CompletionUpdateParams carries a talent recomputation. ImpliedTier is the
// score-implied tier; the store must preserve a stored VERIFIED/FEATURED tier
// rather than overwrite it.
type CompletionUpdateParams struct {
	UserID        uuid.UUID
	Score         int
	ImpliedTier   domain.Tier
	EmailVerified bool
	UpdatedAt     time.Time
}

// OverrideMutation describes the state change an override applies. Exactly the
// fields relevant to the action type are set.
type OverrideMutation struct {
	ActionType       domain.ActionType
	Score            *int
	Tier             *domain.Tier
	Restriction      *domain.Restriction
	ClearRestriction bool
	AddFlag          string
	RemoveFlag       string
	UpdatedAt        time.Time
}

type TrustRecordRepository interface {
	Create(ctx context.Context, params CreateTrustRecordParams) (domain.TrustRecord, error)
	GetByUserID(ctx context.Context, userID uuid.UUID) (domain.TrustRecord, error)
	// ApplyDelta adds points to the stored score and clamps to [0,100] in a
	// single atomic statement; the director tier is re-derived in the same
	// statement so concurrent deltas can never drop an update.
	ApplyDelta(ctx context.Context, userID uuid.UUID, points int, updatedAt time.Time) (domain.TrustRecord, error)
	// UpdateCompletion replaces a talent's completion score and applies the
	// never-downgrade tier rule in store.
	UpdateCompletion(ctx context.Context, params CompletionUpdateParams) (domain.TrustRecord, error)
	// ApplyOverride commits the mutation and its audit entry in one
	// transaction, the audit row written first so a partial failure leaves a
	// record of intent rather than an unexplained state change.
	ApplyOverride(ctx context.Context, userID uuid.UUID, mutation OverrideMutation, entry domain.AuditEntry) (domain.TrustRecord, error)
}

type AuditLogRepository interface {
	// Append inserts one immutable entry. There is no update or delete.
	Append(ctx context.Context, entry domain.AuditEntry) error
	// ListByTarget returns entries newest-first.
	ListByTarget(ctx context.Context, targetUserID uuid.UUID, limit int) ([]domain.AuditEntry, error)
}

type OutboxEvent struct {
	EventID       uuid.UUID
	EventType     string
	PartitionKey  string
	Payload       []byte
	SchemaVersion string
	OccurredAt    time.Time
}

type OutboxRecord struct {
	OutboxID     uuid.UUID
	EventType    string
	PartitionKey string
	Payload      []byte
	RetryCount   int
	PublishedAt  *time.Time
	FirstSeenAt  time.Time
}

type OutboxRepository interface {
	Enqueue(ctx context.Context, event OutboxEvent) error
	FetchUnpublished(ctx context.Context, limit int) ([]OutboxRecord, error)
	MarkPublished(ctx context.Context, outboxID uuid.UUID, at time.Time) error
	MarkFailed(ctx context.Context, outboxID uuid.UUID, errMsg string, at time.Time) error
}

// EventDedupStore gives activity events at-most-once semantics: a delta is
// only applied for event ids not seen within the TTL window.
type EventDedupStore interface {
	// MarkIfNew records the event id and returns true if it was not already
	// present; false means the event is a duplicate and must be dropped.
	MarkIfNew(ctx context.Context, eventID string, ttl time.Duration) (bool, error)
	// Forget releases a claimed event id so a redelivery can be processed
	// again, used when the work behind a fresh claim failed.
	Forget(ctx context.Context, eventID string) error
}
