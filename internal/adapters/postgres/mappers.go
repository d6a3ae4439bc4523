package postgres

import (
	"encoding/json"
	"fmt"

	"github.com/castcall/platform/services/trust-engine/internal/domain"
)

func toDomainRecord(row trustRecordModel) (domain.TrustRecord, error) {
	record := domain.TrustRecord{
		UserID:        row.UserID,
		Role:          domain.Role(row.Role),
		Score:         row.Score,
		Tier:          domain.Tier(row.Tier),
		EmailVerified: row.EmailVerified,
		CreatedAt:     row.CreatedAt,
		UpdatedAt:     row.UpdatedAt,
	}
	if row.Restriction != nil && *row.Restriction != "" {
		var restriction domain.Restriction
		if err := json.Unmarshal([]byte(*row.Restriction), &restriction); err != nil {
			return domain.TrustRecord{}, fmt.Errorf("decode restriction for %s: %w", row.UserID, err)
		}
		record.Restriction = &restriction
	}
	if row.Flags != "" {
		if err := json.Unmarshal([]byte(row.Flags), &record.Flags); err != nil {
			return domain.TrustRecord{}, fmt.Errorf("decode flags for %s: %w", row.UserID, err)
		}
	}
	return record, nil
}

func encodeRestriction(restriction *domain.Restriction) (*string, error) {
	if restriction == nil {
		return nil, nil
	}
	raw, err := json.Marshal(restriction)
	if err != nil {
		return nil, fmt.Errorf("encode restriction: %w", err)
	}
	encoded := string(raw)
	return &encoded, nil
}

func encodeFlags(flags []string) (string, error) {
	if len(flags) == 0 {
		return "[]", nil
	}
	raw, err := json.Marshal(flags)
	if err != nil {
		return "", fmt.Errorf("encode flags: %w", err)
	}
	return string(raw), nil
}

func toAuditModel(entry domain.AuditEntry) (auditEntryModel, error) {
	before, err := json.Marshal(entry.Before)
	if err != nil {
		return auditEntryModel{}, fmt.Errorf("encode before state: %w", err)
	}
	after, err := json.Marshal(entry.After)
	if err != nil {
		return auditEntryModel{}, fmt.Errorf("encode after state: %w", err)
	}
	row := auditEntryModel{
		EntryID:      entry.ID,
		ActorID:      entry.ActorID,
		ActorRole:    string(entry.ActorRole),
		TargetUserID: entry.TargetUserID,
		TargetRole:   string(entry.TargetRole),
		ActionType:   string(entry.ActionType),
		BeforeState:  string(before),
		AfterState:   string(after),
		Reason:       entry.Reason,
		CreatedAt:    entry.CreatedAt,
	}
	if len(entry.Metadata) > 0 {
		meta, err := json.Marshal(entry.Metadata)
		if err != nil {
			return auditEntryModel{}, fmt.Errorf("encode metadata: %w", err)
		}
		encoded := string(meta)
		row.Metadata = &encoded
	}
	return row, nil
}

func toDomainAuditEntry(row auditEntryModel) (domain.AuditEntry, error) {
	entry := domain.AuditEntry{
		ID:           row.EntryID,
		ActorID:      row.ActorID,
		ActorRole:    domain.Role(row.ActorRole),
		TargetUserID: row.TargetUserID,
		TargetRole:   domain.Role(row.TargetRole),
		ActionType:   domain.ActionType(row.ActionType),
		Reason:       row.Reason,
		CreatedAt:    row.CreatedAt,
	}
	if row.BeforeState != "" {
		if err := json.Unmarshal([]byte(row.BeforeState), &entry.Before); err != nil {
			return domain.AuditEntry{}, fmt.Errorf("decode before state for %s: %w", row.EntryID, err)
		}
	}
	if row.AfterState != "" {
		if err := json.Unmarshal([]byte(row.AfterState), &entry.After); err != nil {
			return domain.AuditEntry{}, fmt.Errorf("decode after state for %s: %w", row.EntryID, err)
		}
	}
	if row.Metadata != nil && *row.Metadata != "" {
		if err := json.Unmarshal([]byte(*row.Metadata), &entry.Metadata); err != nil {
			return domain.AuditEntry{}, fmt.Errorf("decode metadata for %s: %w", row.EntryID, err)
		}
	}
	return entry, nil
}
