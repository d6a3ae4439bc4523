package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/castcall/platform/services/trust-engine/internal/domain"
	"github.com/castcall/platform/services/trust-engine/internal/ports"
)

type trustRecordRepository struct {
	db *gorm.DB
}

func NewTrustRecordRepository(db *gorm.DB) ports.TrustRecordRepository {
	return &trustRecordRepository{db: db}
}

func (r *trustRecordRepository) Create(ctx context.Context, params ports.CreateTrustRecordParams) (domain.TrustRecord, error) {
	row := trustRecordModel{
		UserID:        params.UserID,
		Role:          string(params.Role),
		Score:         0,
		Tier:          string(domain.LowestTier(params.Role)),
		Flags:         "[]",
		EmailVerified: params.EmailVerified,
		CreatedAt:     params.CreatedAt,
		UpdatedAt:     params.CreatedAt,
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) || errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.TrustRecord{}, fmt.Errorf("%w: trust record exists for %s", domain.ErrConflict, params.UserID)
		}
		return domain.TrustRecord{}, err
	}
	return toDomainRecord(row)
}

func (r *trustRecordRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (domain.TrustRecord, error) {
	var row trustRecordModel
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.TrustRecord{}, fmt.Errorf("%w: no trust record for %s", domain.ErrNotFound, userID)
	}
	if err != nil {
		return domain.TrustRecord{}, err
	}
	return toDomainRecord(row)
}

// ApplyDelta adds and clamps in one statement, deriving the director tier
// from the clamped score in the same statement. Concurrent deltas serialize
// on the row; no read-modify-write window exists.
func (r *trustRecordRepository) ApplyDelta(ctx context.Context, userID uuid.UUID, points int, updatedAt time.Time) (domain.TrustRecord, error) {
	var row trustRecordModel
	err := r.db.WithContext(ctx).Raw(`
		UPDATE trust_records
		SET score = LEAST(?, GREATEST(?, score + ?)),
		    tier = CASE
		        WHEN LEAST(?, GREATEST(?, score + ?)) >= ? THEN ?
		        WHEN LEAST(?, GREATEST(?, score + ?)) >= ? THEN ?
		        ELSE ?
		    END,
		    updated_at = ?
		WHERE user_id = ? AND role = ?
		RETURNING *`,
		domain.MaxScore, domain.MinScore, points,
		domain.MaxScore, domain.MinScore, points, domain.DirectorVerifiedThreshold, string(domain.TierVerified),
		domain.MaxScore, domain.MinScore, points, domain.DirectorTrustedThreshold, string(domain.TierTrusted),
		string(domain.TierNew),
		updatedAt, userID, string(domain.RoleDirector),
	).Scan(&row).Error
	if err != nil {
		return domain.TrustRecord{}, err
	}
	if row.UserID == uuid.Nil {
		return domain.TrustRecord{}, fmt.Errorf("%w: no director trust record for %s", domain.ErrNotFound, userID)
	}
	return toDomainRecord(row)
}

// UpdateCompletion replaces the talent completion score. The tier only moves
// up: implied COMPLETE upgrades a BASIC row, implied BASIC leaves a COMPLETE
// row alone, and VERIFIED/FEATURED rows are never touched.
func (r *trustRecordRepository) UpdateCompletion(ctx context.Context, params ports.CompletionUpdateParams) (domain.TrustRecord, error) {
	var row trustRecordModel
	err := r.db.WithContext(ctx).Raw(`
		UPDATE trust_records
		SET score = ?,
		    email_verified = ?,
		    tier = CASE
		        WHEN tier IN (?, ?) THEN tier
		        WHEN ? = ? THEN ?
		        ELSE tier
		    END,
		    updated_at = ?
		WHERE user_id = ? AND role = ?
		RETURNING *`,
		params.Score, params.EmailVerified,
		string(domain.TierVerified), string(domain.TierFeatured),
		string(params.ImpliedTier), string(domain.TierComplete), string(domain.TierComplete),
		params.UpdatedAt, params.UserID, string(domain.RoleTalent),
	).Scan(&row).Error
	if err != nil {
		return domain.TrustRecord{}, err
	}
	if row.UserID == uuid.Nil {
		return domain.TrustRecord{}, fmt.Errorf("%w: no talent trust record for %s", domain.ErrNotFound, params.UserID)
	}
	return toDomainRecord(row)
}

// ApplyOverride commits the audit entry and the state mutation in one
// transaction. The audit insert comes first; if the mutation fails the whole
// transaction rolls back, so no state change ever lands without its entry.
func (r *trustRecordRepository) ApplyOverride(ctx context.Context, userID uuid.UUID, mutation ports.OverrideMutation, entry domain.AuditEntry) (domain.TrustRecord, error) {
	var out domain.TrustRecord
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		auditRow, err := toAuditModel(entry)
		if err != nil {
			return err
		}
		if err := tx.Create(&auditRow).Error; err != nil {
			return err
		}

		var row trustRecordModel
		if err := tx.Raw(`SELECT * FROM trust_records WHERE user_id = ? FOR UPDATE`, userID).Scan(&row).Error; err != nil {
			return err
		}
		if row.UserID == uuid.Nil {
			return fmt.Errorf("%w: no trust record for %s", domain.ErrNotFound, userID)
		}
		record, err := toDomainRecord(row)
		if err != nil {
			return err
		}
		mutated, err := applyMutation(record, mutation)
		if err != nil {
			return err
		}

		restriction, err := encodeRestriction(mutated.Restriction)
		if err != nil {
			return err
		}
		flags, err := encodeFlags(mutated.Flags)
		if err != nil {
			return err
		}
		updates := map[string]any{
			"score":       mutated.Score,
			"tier":        string(mutated.Tier),
			"restriction": restriction,
			"flags":       flags,
			"updated_at":  mutation.UpdatedAt,
		}
		if err := tx.Model(&trustRecordModel{}).Where("user_id = ?", userID).Updates(updates).Error; err != nil {
			return err
		}
		mutated.UpdatedAt = mutation.UpdatedAt
		out = mutated
		return nil
	})
	if err != nil {
		return domain.TrustRecord{}, err
	}
	return out, nil
}

func applyMutation(record domain.TrustRecord, mutation ports.OverrideMutation) (domain.TrustRecord, error) {
	switch mutation.ActionType {
	case domain.ActionScoreOverride:
		record.Score = domain.ClampScore(*mutation.Score)
		if record.Role == domain.RoleDirector {
			record.Tier = domain.ResolveDirectorTier(record.Score)
		}
	case domain.ActionTierChange:
		record.Tier = *mutation.Tier
	case domain.ActionRestrictionApplied:
		record.Restriction = mutation.Restriction
	case domain.ActionRestrictionRemoved:
		record.Restriction = nil
	case domain.ActionFlagAdded:
		if !record.HasFlag(mutation.AddFlag) {
			record.Flags = append(record.Flags, mutation.AddFlag)
		}
	case domain.ActionFlagRemoved:
		kept := record.Flags[:0]
		for _, flag := range record.Flags {
			if flag != mutation.RemoveFlag {
				kept = append(kept, flag)
			}
		}
		record.Flags = kept
	default:
		return domain.TrustRecord{}, fmt.Errorf("%w: unsupported mutation %q", domain.ErrInvalidInput, mutation.ActionType)
	}
	return record, nil
}
