package application

import (
	"time"

	"github.com/google/uuid"

	"github.com/castcall/platform/services/trust-engine/internal/domain"
	"github.com/castcall/platform/services/trust-engine/internal/ports"
)

type Config struct {
	ServiceName     string
	EventDedupTTL   time.Duration
	HistoryPageSize int
}

// Actor identifies the authenticated caller of an operation.
type Actor struct {
	UserID    uuid.UUID
	Role      domain.Role
	RequestID string
}

type OverrideInput struct {
	TargetUserID uuid.UUID
	ActionType   domain.ActionType
	Before       domain.StateSnapshot
	After        domain.StateSnapshot
	Reason       string
	Metadata     map[string]any
}

// OverrideResult returns the post-mutation record. Warning is set when the
// state mutation committed but the audit trail could not be confirmed; the
// admin caller must see that as degraded success, never silence.
type OverrideResult struct {
	Record  domain.TrustRecord
	EntryID uuid.UUID
	Warning string
}

type RestrictionInput struct {
	TargetUserID uuid.UUID
	Kind         domain.RestrictionKind
	Reason       string
	ExpiresAt    *time.Time
}

type TrustSnapshot struct {
	UserID      uuid.UUID            `json:"user_id"`
	Role        domain.Role          `json:"role"`
	Score       int                  `json:"score"`
	Tier        domain.Tier          `json:"tier"`
	Capability  domain.CapabilitySet `json:"capability"`
	Restriction *domain.Restriction  `json:"restriction,omitempty"`
	Flags       []string             `json:"flags,omitempty"`
}

type CompletionReport struct {
	UserID   uuid.UUID   `json:"user_id"`
	Score    int         `json:"score"`
	Complete bool        `json:"complete"`
	Missing  []string    `json:"missing_fields"`
	Tier     domain.Tier `json:"tier"`
}

type JobCreationDecision struct {
	Allowed           bool `json:"allowed"`
	MaxActiveJobs     int  `json:"max_active_jobs"`
	CurrentActiveJobs int  `json:"current_active_jobs"`
}

type BulkReviewInput struct {
	DirectorID     uuid.UUID
	Action         string // "shortlist" or "reject"
	ApplicationIDs []uuid.UUID
}

type BulkReviewResult struct {
	Updated int    `json:"updated"`
	Status  string `json:"status"`
}

type ApplicationSubmissionDecision struct {
	Allowed   bool `json:"allowed"`
	Score     int  `json:"score"`
	Threshold int  `json:"threshold"`
}

type Service struct {
	cfg Config

	records ports.TrustRecordRepository
	audit   ports.AuditLogRepository
	outbox  ports.OutboxRepository
	dedup   ports.EventDedupStore

	identity     ports.IdentityReader
	profiles     ports.ProfileReader
	jobs         ports.JobsReader
	applications ports.ApplicationsWriter

	nowFn func() time.Time
}

type Dependencies struct {
	Config       Config
	Records      ports.TrustRecordRepository
	Audit        ports.AuditLogRepository
	Outbox       ports.OutboxRepository
	Dedup        ports.EventDedupStore
	Identity     ports.IdentityReader
	Profiles     ports.ProfileReader
	Jobs         ports.JobsReader
	Applications ports.ApplicationsWriter
}

func NewService(deps Dependencies) *Service {
	cfg := deps.Config
	if cfg.ServiceName == "" {
		cfg.ServiceName = "trust-engine"
	}
	if cfg.EventDedupTTL <= 0 {
		cfg.EventDedupTTL = 7 * 24 * time.Hour
	}
	if cfg.HistoryPageSize <= 0 {
		cfg.HistoryPageSize = 50
	}
	return &Service{
		cfg:          cfg,
		records:      deps.Records,
		audit:        deps.Audit,
		outbox:       deps.Outbox,
		dedup:        deps.Dedup,
		identity:     deps.Identity,
		profiles:     deps.Profiles,
		jobs:         deps.Jobs,
		applications: deps.Applications,
		nowFn:        func() time.Time { return time.Now().UTC() },
	}
}
