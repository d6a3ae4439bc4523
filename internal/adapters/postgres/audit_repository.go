package postgres

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/castcall/platform/services/trust-engine/internal/domain"
	"github.com/castcall/platform/services/trust-engine/internal/ports"
)

type auditLogRepository struct {
	db *gorm.DB
}

func NewAuditLogRepository(db *gorm.DB) ports.AuditLogRepository {
	return &auditLogRepository{db: db}
}

func (r *auditLogRepository) Append(ctx context.Context, entry domain.AuditEntry) error {
	row, err := toAuditModel(entry)
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).Create(&row).Error
}

func (r *auditLogRepository) ListByTarget(ctx context.Context, targetUserID uuid.UUID, limit int) ([]domain.AuditEntry, error) {
	var rows []auditEntryModel
	err := r.db.WithContext(ctx).
		Where("target_user_id = ?", targetUserID).
		Order("created_at desc").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	entries := make([]domain.AuditEntry, 0, len(rows))
	for _, row := range rows {
		entry, err := toDomainAuditEntry(row)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}
