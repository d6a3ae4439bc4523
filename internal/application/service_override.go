package application

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/castcall/platform/services/trust-engine/internal/domain"
	"github.com/castcall/platform/services/trust-engine/internal/ports"
)

// ApplyOverride performs an administrator mutation of a user's score, tier,
// restriction or flags, bypassing normal accrual. The mutation and its audit
// entry share one commit boundary; the audit row is written first inside the
// transaction so a partial failure records intent. Re-submitting an identical
// override appends a fresh audit entry and leaves state untouched; the trail
// records intent, it does not deduplicate it.
func (s *Service) ApplyOverride(ctx context.Context, actor Actor, input OverrideInput) (OverrideResult, error) {
	if actor.Role != domain.RoleAdmin {
		return OverrideResult{}, fmt.Errorf("%w: override requires ADMIN role", domain.ErrForbidden)
	}
	if err := domain.ValidateReason(input.Reason); err != nil {
		return OverrideResult{}, err
	}
	actionType := domain.NormalizeActionType(string(input.ActionType))
	if actionType == "" || actionType == domain.ActionOther {
		return OverrideResult{}, fmt.Errorf("%w: action type %q is not overridable", domain.ErrInvalidInput, input.ActionType)
	}

	target, err := s.records.GetByUserID(ctx, input.TargetUserID)
	if err != nil {
		return OverrideResult{}, err
	}
	if err := domain.ValidateSnapshots(actionType, target.Role, input.Before, input.After); err != nil {
		return OverrideResult{}, err
	}

	now := s.nowFn()
	mutation, err := buildMutation(actionType, input, now)
	if err != nil {
		return OverrideResult{}, err
	}
	entry := domain.AuditEntry{
		ID:           uuid.New(),
		ActorID:      actor.UserID,
		ActorRole:    actor.Role,
		TargetUserID: target.UserID,
		TargetRole:   target.Role,
		ActionType:   actionType,
		Before:       input.Before,
		After:        input.After,
		Reason:       input.Reason,
		Metadata:     input.Metadata,
		CreatedAt:    now,
	}

	previousTier := target.Tier
	updated, err := s.records.ApplyOverride(ctx, target.UserID, mutation, entry)
	if err != nil {
		return OverrideResult{}, err
	}
	if updated.Tier != previousTier {
		s.enqueueTierChanged(ctx, updated, previousTier, updated.Tier)
	}
	s.enqueueOverrideApplied(ctx, entry)
	return OverrideResult{Record: updated, EntryID: entry.ID}, nil
}

// ApplyRestriction freezes an account or disables messaging. It rides the
// override contract: same actor/reason/audit requirements, but targets the
// restriction sub-record instead of score or tier.
func (s *Service) ApplyRestriction(ctx context.Context, actor Actor, input RestrictionInput) (OverrideResult, error) {
	if actor.Role != domain.RoleAdmin {
		return OverrideResult{}, fmt.Errorf("%w: restriction requires ADMIN role", domain.ErrForbidden)
	}
	target, err := s.records.GetByUserID(ctx, input.TargetUserID)
	if err != nil {
		return OverrideResult{}, err
	}
	restriction := &domain.Restriction{
		Kind:      input.Kind,
		Reason:    input.Reason,
		AppliedBy: actor.UserID,
		AppliedAt: s.nowFn(),
		ExpiresAt: input.ExpiresAt,
	}
	metadata := map[string]any{"kind": string(input.Kind)}
	if input.ExpiresAt != nil {
		metadata["expires_at"] = input.ExpiresAt.UTC().Format(time.RFC3339)
	}
	return s.ApplyOverride(ctx, actor, OverrideInput{
		TargetUserID: input.TargetUserID,
		ActionType:   domain.ActionRestrictionApplied,
		Before:       domain.StateSnapshot{Restriction: target.Restriction},
		After:        domain.StateSnapshot{Restriction: restriction},
		Reason:       input.Reason,
		Metadata:     metadata,
	})
}

// RemoveRestriction lifts the current restriction, if any.
func (s *Service) RemoveRestriction(ctx context.Context, actor Actor, targetUserID uuid.UUID, reason string) (OverrideResult, error) {
	if actor.Role != domain.RoleAdmin {
		return OverrideResult{}, fmt.Errorf("%w: restriction requires ADMIN role", domain.ErrForbidden)
	}
	target, err := s.records.GetByUserID(ctx, targetUserID)
	if err != nil {
		return OverrideResult{}, err
	}
	if target.Restriction == nil {
		return OverrideResult{}, fmt.Errorf("%w: no restriction to remove", domain.ErrInvalidInput)
	}
	return s.ApplyOverride(ctx, actor, OverrideInput{
		TargetUserID: targetUserID,
		ActionType:   domain.ActionRestrictionRemoved,
		Before:       domain.StateSnapshot{Restriction: target.Restriction},
		After:        domain.StateSnapshot{},
		Reason:       reason,
	})
}

func buildMutation(actionType domain.ActionType, input OverrideInput, now time.Time) (ports.OverrideMutation, error) {
	mutation := ports.OverrideMutation{ActionType: actionType, UpdatedAt: now}
	switch actionType {
	case domain.ActionScoreOverride:
		mutation.Score = input.After.Score
	case domain.ActionTierChange:
		mutation.Tier = input.After.Tier
	case domain.ActionRestrictionApplied:
		mutation.Restriction = input.After.Restriction
	case domain.ActionRestrictionRemoved:
		mutation.ClearRestriction = true
	case domain.ActionFlagAdded:
		mutation.AddFlag = *input.After.Flag
	case domain.ActionFlagRemoved:
		mutation.RemoveFlag = *input.Before.Flag
	default:
		return ports.OverrideMutation{}, fmt.Errorf("%w: unsupported action type %q", domain.ErrInvalidInput, actionType)
	}
	return mutation, nil
}

type overrideAppliedPayload struct {
	EntryID      string `json:"entry_id"`
	ActorID      string `json:"actor_id"`
	TargetUserID string `json:"target_user_id"`
	ActionType   string `json:"action_type"`
	Reason       string `json:"reason"`
}

func (s *Service) enqueueOverrideApplied(ctx context.Context, entry domain.AuditEntry) {
	if s.outbox == nil {
		return
	}
	payload, err := json.Marshal(overrideAppliedPayload{
		EntryID:      entry.ID.String(),
		ActorID:      entry.ActorID.String(),
		TargetUserID: entry.TargetUserID.String(),
		ActionType:   string(entry.ActionType),
		Reason:       entry.Reason,
	})
	if err != nil {
		slog.WarnContext(ctx, "failed to encode override_applied event",
			"entry_id", entry.ID, "error", err)
		return
	}
	err = s.outbox.Enqueue(ctx, ports.OutboxEvent{
		EventID:       uuid.New(),
		EventType:     "trust.override_applied",
		PartitionKey:  entry.TargetUserID.String(),
		Payload:       payload,
		SchemaVersion: "v1",
		OccurredAt:    entry.CreatedAt,
	})
	if err != nil {
		slog.WarnContext(ctx, "failed to enqueue override_applied event",
			"entry_id", entry.ID, "error", err)
	}
}
