package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type ActionType string

const (
	ActionTierChange         ActionType = "TIER_CHANGE"
	ActionScoreOverride      ActionType = "SCORE_OVERRIDE"
	ActionRestrictionApplied ActionType = "RESTRICTION_APPLIED"
	ActionRestrictionRemoved ActionType = "RESTRICTION_REMOVED"
	ActionFlagAdded          ActionType = "FLAG_ADDED"
	ActionFlagRemoved        ActionType = "FLAG_REMOVED"
	ActionOther              ActionType = "OTHER"
)

func NormalizeActionType(raw string) ActionType {
	switch ActionType(strings.ToUpper(strings.TrimSpace(raw))) {
	case ActionTierChange:
		return ActionTierChange
	case ActionScoreOverride:
		return ActionScoreOverride
	case ActionRestrictionApplied:
		return ActionRestrictionApplied
	case ActionRestrictionRemoved:
		return ActionRestrictionRemoved
	case ActionFlagAdded:
		return ActionFlagAdded
	case ActionFlagRemoved:
		return ActionFlagRemoved
	case ActionOther:
		return ActionOther
	default:
		return ""
	}
}

// StateSnapshot is the tagged before/after payload of an audit entry. Exactly
// the fields relevant to the entry's ActionType are set; ValidateSnapshots
// enforces the shape so the log stays machine-checkable instead of free-form
// JSON.
type StateSnapshot struct {
	Score       *int         `json:"score,omitempty"`
	Tier        *Tier        `json:"tier,omitempty"`
	Restriction *Restriction `json:"restriction,omitempty"`
	Flag        *string      `json:"flag,omitempty"`
}

// AuditEntry is append-only. Entries are never edited or deleted; they are the
// sole source of historical truth independent of current record state.
type AuditEntry struct {
	ID           uuid.UUID      `json:"id"`
	ActorID      uuid.UUID      `json:"actor_id"`
	ActorRole    Role           `json:"actor_role"`
	TargetUserID uuid.UUID      `json:"target_user_id"`
	TargetRole   Role           `json:"target_role"`
	ActionType   ActionType     `json:"action_type"`
	Before       StateSnapshot  `json:"before"`
	After        StateSnapshot  `json:"after"`
	Reason       string         `json:"reason"`
	Metadata     map[string]any `json:"metadata,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
}

// ValidateReason rejects empty or whitespace-only reasons. A privileged
// mutation without a reason is not recordable.
func ValidateReason(reason string) error {
	if strings.TrimSpace(reason) == "" {
		return fmt.Errorf("%w: reason is required", ErrInvalidInput)
	}
	return nil
}

// ValidateSnapshots checks that before/after are well-formed for the action
// type: SCORE_OVERRIDE carries in-range scores, TIER_CHANGE carries tiers
// valid for the target role, restriction actions carry restriction payloads,
// flag actions carry flag names.
func ValidateSnapshots(actionType ActionType, targetRole Role, before, after StateSnapshot) error {
	switch actionType {
	case ActionScoreOverride:
		if before.Score == nil || after.Score == nil {
			return fmt.Errorf("%w: score override requires before and after scores", ErrInvalidInput)
		}
		for _, s := range []int{*before.Score, *after.Score} {
			if s < MinScore || s > MaxScore {
				return fmt.Errorf("%w: score %d out of range [%d,%d]", ErrInvalidInput, s, MinScore, MaxScore)
			}
		}
	case ActionTierChange:
		// Director tier is rederived from score at every read, so a stored
		// tier override would never take effect. Admins adjust directors
		// through SCORE_OVERRIDE instead.
		if targetRole == RoleDirector {
			return fmt.Errorf("%w: director tier follows the trust score, use a score override", ErrInvalidInput)
		}
		if before.Tier == nil || after.Tier == nil {
			return fmt.Errorf("%w: tier change requires before and after tiers", ErrInvalidInput)
		}
		if !ValidTierForRole(targetRole, *after.Tier) {
			return fmt.Errorf("%w: tier %q not valid for role %q", ErrInvalidInput, *after.Tier, targetRole)
		}
	case ActionRestrictionApplied:
		if after.Restriction == nil {
			return fmt.Errorf("%w: restriction payload required", ErrInvalidInput)
		}
		switch after.Restriction.Kind {
		case RestrictionAccountFreeze, RestrictionMessagingDisabled:
		default:
			return fmt.Errorf("%w: unknown restriction kind %q", ErrInvalidInput, after.Restriction.Kind)
		}
	case ActionRestrictionRemoved:
		if before.Restriction == nil {
			return fmt.Errorf("%w: restriction removal requires the removed restriction", ErrInvalidInput)
		}
	case ActionFlagAdded, ActionFlagRemoved:
		snap := after
		if actionType == ActionFlagRemoved {
			snap = before
		}
		if snap.Flag == nil || strings.TrimSpace(*snap.Flag) == "" {
			return fmt.Errorf("%w: flag name required", ErrInvalidInput)
		}
	case ActionOther:
	default:
		return fmt.Errorf("%w: unknown action type %q", ErrInvalidInput, actionType)
	}
	return nil
}
