package postgres

import (
	"time"

	"github.com/google/uuid"
)

type trustRecordModel struct {
	UserID        uuid.UUID `gorm:"column:user_id;type:uuid;primaryKey"`
	Role          string    `gorm:"column:role"`
	Score         int       `gorm:"column:score"`
	Tier          string    `gorm:"column:tier"`
	Restriction   *string   `gorm:"column:restriction;type:jsonb"`
	Flags         string    `gorm:"column:flags;type:jsonb"`
	EmailVerified bool      `gorm:"column:email_verified"`
	CreatedAt     time.Time `gorm:"column:created_at"`
	UpdatedAt     time.Time `gorm:"column:updated_at"`
}

func (trustRecordModel) TableName() string { return "trust_records" }

type auditEntryModel struct {
	EntryID      uuid.UUID `gorm:"column:entry_id;type:uuid;primaryKey"`
	ActorID      uuid.UUID `gorm:"column:actor_id"`
	ActorRole    string    `gorm:"column:actor_role"`
	TargetUserID uuid.UUID `gorm:"column:target_user_id"`
	TargetRole   string    `gorm:"column:target_role"`
	ActionType   string    `gorm:"column:action_type"`
	BeforeState  string    `gorm:"column:before_state;type:jsonb"`
	AfterState   string    `gorm:"column:after_state;type:jsonb"`
	Reason       string    `gorm:"column:reason"`
	Metadata     *string   `gorm:"column:metadata;type:jsonb"`
	CreatedAt    time.Time `gorm:"column:created_at"`
}

func (auditEntryModel) TableName() string { return "trust_audit_log" }

type trustOutboxModel struct {
	OutboxID      uuid.UUID  `gorm:"column:outbox_id;type:uuid;primaryKey"`
	EventType     string     `gorm:"column:event_type"`
	PartitionKey  string     `gorm:"column:partition_key"`
	Payload       string     `gorm:"column:payload;type:jsonb"`
	SchemaVersion string     `gorm:"column:schema_version"`
	RetryCount    int        `gorm:"column:retry_count"`
	LastError     *string    `gorm:"column:last_error"`
	LastErrorAt   *time.Time `gorm:"column:last_error_at"`
	PublishedAt   *time.Time `gorm:"column:published_at"`
	CreatedAt     time.Time  `gorm:"column:created_at"`
}

func (trustOutboxModel) TableName() string { return "trust_outbox" }
