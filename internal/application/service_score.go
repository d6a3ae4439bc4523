package application

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/castcall/platform/services/trust-engine/internal/domain"
	"github.com/castcall/platform/services/trust-engine/internal/ports"
)

// GetTrustSnapshot resolves score, effective tier and the capability set at
// call time. Callers must not retain the capability set beyond the current
// logical operation.
func (s *Service) GetTrustSnapshot(ctx context.Context, userID uuid.UUID) (TrustSnapshot, error) {
	record, err := s.records.GetByUserID(ctx, userID)
	if err != nil {
		return TrustSnapshot{}, err
	}
	return s.snapshotOf(record), nil
}

func (s *Service) snapshotOf(record domain.TrustRecord) TrustSnapshot {
	tier := domain.ResolveTier(record.Role, record.Tier, record.Score, record.EmailVerified)
	snap := TrustSnapshot{
		UserID:     record.UserID,
		Role:       record.Role,
		Score:      record.Score,
		Tier:       tier,
		Capability: domain.ResolveCapabilities(tier),
		Flags:      record.Flags,
	}
	if record.Restriction.Active(s.nowFn()) {
		snap.Restriction = record.Restriction
	}
	return snap
}

// ApplyActivityDelta adds a signed delta to a director's trust score in
// response to an activity event. eventID, when set, is checked against the
// dedup store first so a redelivered event never double-counts.
func (s *Service) ApplyActivityDelta(ctx context.Context, userID uuid.UUID, points int, eventID string) (TrustSnapshot, error) {
	record, err := s.records.GetByUserID(ctx, userID)
	if err != nil {
		return TrustSnapshot{}, err
	}
	if record.Role != domain.RoleDirector {
		return TrustSnapshot{}, fmt.Errorf("%w: activity deltas apply to directors only", domain.ErrInvalidInput)
	}
	marked := false
	if strings.TrimSpace(eventID) != "" && s.dedup != nil {
		fresh, err := s.dedup.MarkIfNew(ctx, eventID, s.cfg.EventDedupTTL)
		if err != nil {
			return TrustSnapshot{}, err
		}
		if !fresh {
			return s.snapshotOf(record), nil
		}
		marked = true
	}
	previousTier := domain.ResolveDirectorTier(record.Score)
	updated, err := s.records.ApplyDelta(ctx, userID, points, s.nowFn())
	if err != nil {
		// Release the dedup claim so a redelivery can retry; otherwise the
		// delta would be lost for the whole TTL window.
		if marked {
			if forgetErr := s.dedup.Forget(ctx, eventID); forgetErr != nil {
				slog.WarnContext(ctx, "failed to release event dedup claim",
					"event_id", eventID, "error", forgetErr)
			}
		}
		return TrustSnapshot{}, err
	}
	if tier := domain.ResolveDirectorTier(updated.Score); tier != previousTier {
		s.enqueueTierChanged(ctx, updated, previousTier, tier)
		s.recordTierTransition(ctx, updated, previousTier, tier)
	}
	return s.snapshotOf(updated), nil
}

// RecomputeTalentCompletion fully recomputes a talent's completion score from
// profile field presence. It is not an accrual: the same profile always
// produces the same score. Recomputation auto-upgrades BASIC to COMPLETE once
// the threshold is crossed and the email is verified, and never touches a
// manually elevated tier.
func (s *Service) RecomputeTalentCompletion(ctx context.Context, userID uuid.UUID) (CompletionReport, error) {
	record, err := s.records.GetByUserID(ctx, userID)
	if err != nil {
		return CompletionReport{}, err
	}
	if record.Role != domain.RoleTalent {
		return CompletionReport{}, fmt.Errorf("%w: completion is a talent concept", domain.ErrInvalidInput)
	}

	identity, err := s.identity.GetIdentity(ctx, userID)
	if err != nil {
		return CompletionReport{}, err
	}
	profile, err := s.profiles.GetProfileSnapshot(ctx, userID)
	if err != nil {
		return CompletionReport{}, err
	}

	result := domain.ComputeCompletion(domain.TalentProfile{
		HasPhoto:           profile.HasPhoto,
		FullName:           profile.FullName,
		EmailVerified:      identity.EmailVerified,
		Phone:              profile.Phone,
		Bio:                profile.Bio,
		PrimaryRole:        profile.PrimaryRole,
		SkillCount:         profile.SkillCount,
		ExperienceCount:    profile.ExperienceCount,
		PortfolioItemCount: profile.PortfolioItemCount,
	})

	implied := domain.TierBasic
	if result.Complete && identity.EmailVerified {
		implied = domain.TierComplete
	}
	previousTier := record.Tier
	updated, err := s.records.UpdateCompletion(ctx, ports.CompletionUpdateParams{
		UserID:        userID,
		Score:         result.Score,
		ImpliedTier:   implied,
		EmailVerified: identity.EmailVerified,
		UpdatedAt:     s.nowFn(),
	})
	if err != nil {
		return CompletionReport{}, err
	}
	if updated.Tier != previousTier {
		s.enqueueTierChanged(ctx, updated, previousTier, updated.Tier)
		s.recordTierTransition(ctx, updated, previousTier, updated.Tier)
	}
	return CompletionReport{
		UserID:   userID,
		Score:    result.Score,
		Complete: result.Complete,
		Missing:  result.Missing,
		Tier:     updated.Tier,
	}, nil
}

// GetHistory returns audit entries for a user, newest first.
func (s *Service) GetHistory(ctx context.Context, userID uuid.UUID, limit int) ([]domain.AuditEntry, error) {
	if limit <= 0 || limit > s.cfg.HistoryPageSize {
		limit = s.cfg.HistoryPageSize
	}
	if _, err := s.records.GetByUserID(ctx, userID); err != nil {
		return nil, err
	}
	return s.audit.ListByTarget(ctx, userID, limit)
}

// ProvisionRecord creates the trust record for a newly registered user with
// score 0 and the lowest tier for the role. Creating twice is a no-op.
func (s *Service) ProvisionRecord(ctx context.Context, userID uuid.UUID, role domain.Role, emailVerified bool) (domain.TrustRecord, error) {
	if role != domain.RoleTalent && role != domain.RoleDirector && role != domain.RoleAdmin {
		return domain.TrustRecord{}, fmt.Errorf("%w: unknown role %q", domain.ErrInvalidInput, role)
	}
	record, err := s.records.Create(ctx, ports.CreateTrustRecordParams{
		UserID:        userID,
		Role:          role,
		EmailVerified: emailVerified,
		CreatedAt:     s.nowFn(),
	})
	if err != nil {
		if existing, getErr := s.records.GetByUserID(ctx, userID); getErr == nil {
			return existing, nil
		}
		return domain.TrustRecord{}, err
	}
	return record, nil
}

// recordTierTransition appends an audit entry for a tier change the engine
// derived itself, with no admin actor. Best effort: a failed append never
// rolls back the score update that caused it.
func (s *Service) recordTierTransition(ctx context.Context, record domain.TrustRecord, from, to domain.Tier) {
	if s.audit == nil {
		return
	}
	before, after := from, to
	err := s.audit.Append(ctx, domain.AuditEntry{
		ID:           uuid.New(),
		ActorID:      uuid.Nil,
		ActorRole:    domain.RoleSystem,
		TargetUserID: record.UserID,
		TargetRole:   record.Role,
		ActionType:   domain.ActionTierChange,
		Before:       domain.StateSnapshot{Tier: &before},
		After:        domain.StateSnapshot{Tier: &after},
		Reason:       "tier recalculated from score",
		CreatedAt:    s.nowFn(),
	})
	if err != nil {
		slog.WarnContext(ctx, "failed to record tier transition",
			"user_id", record.UserID, "from", from, "to", to, "error", err)
	}
}

type tierChangedPayload struct {
	UserID   string `json:"user_id"`
	Role     string `json:"role"`
	Score    int    `json:"score"`
	FromTier string `json:"from_tier"`
	ToTier   string `json:"to_tier"`
}

func (s *Service) enqueueTierChanged(ctx context.Context, record domain.TrustRecord, from, to domain.Tier) {
	if s.outbox == nil {
		return
	}
	payload, err := json.Marshal(tierChangedPayload{
		UserID:   record.UserID.String(),
		Role:     string(record.Role),
		Score:    record.Score,
		FromTier: string(from),
		ToTier:   string(to),
	})
	if err != nil {
		slog.WarnContext(ctx, "failed to encode tier_changed event",
			"user_id", record.UserID, "error", err)
		return
	}
	err = s.outbox.Enqueue(ctx, ports.OutboxEvent{
		EventID:       uuid.New(),
		EventType:     "trust.tier_changed",
		PartitionKey:  record.UserID.String(),
		Payload:       payload,
		SchemaVersion: "v1",
		OccurredAt:    s.nowFn(),
	})
	if err != nil {
		slog.WarnContext(ctx, "failed to enqueue tier_changed event",
			"user_id", record.UserID, "error", err)
	}
}
