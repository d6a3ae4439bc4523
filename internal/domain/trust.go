package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleTalent   Role = "TALENT"
	RoleDirector Role = "DIRECTOR"
	RoleAdmin    Role = "ADMIN"

	// RoleSystem is never assigned to a user; it marks audit entries the
	// engine writes for itself, such as derived tier transitions.
	RoleSystem Role = "SYSTEM"
)

func NormalizeRole(raw string) Role {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "TALENT":
		return RoleTalent
	case "DIRECTOR":
		return RoleDirector
	case "ADMIN":
		return RoleAdmin
	default:
		return ""
	}
}

type Tier string

const (
	// Director tiers, derived purely from the trust score.
	TierNew     Tier = "NEW"
	TierTrusted Tier = "TRUSTED"

	// Talent tiers. BASIC and COMPLETE follow the completion score;
	// VERIFIED and FEATURED are only ever set by an admin override.
	TierBasic    Tier = "BASIC"
	TierComplete Tier = "COMPLETE"
	TierFeatured Tier = "FEATURED"

	// TierVerified is shared: top director tier (score-derived) and the
	// manually-reviewed talent tier.
	TierVerified Tier = "VERIFIED"
)

const (
	MinScore = 0
	MaxScore = 100

	DirectorTrustedThreshold  = 30
	DirectorVerifiedThreshold = 70

	// Activity deltas applied to a director's trust score.
	DeltaJobPosted           = 2
	DeltaApplicationReviewed = 1
)

type RestrictionKind string

const (
	RestrictionAccountFreeze     RestrictionKind = "account_freeze"
	RestrictionMessagingDisabled RestrictionKind = "messaging_disabled"
)

type Restriction struct {
	Kind      RestrictionKind `json:"kind"`
	Reason    string          `json:"reason"`
	AppliedBy uuid.UUID       `json:"applied_by"`
	AppliedAt time.Time       `json:"applied_at"`
	ExpiresAt *time.Time      `json:"expires_at,omitempty"`
}

// Active reports whether the restriction is still in force at the given time.
// An expired restriction is treated as absent everywhere it is consulted.
func (r *Restriction) Active(now time.Time) bool {
	if r == nil {
		return false
	}
	return r.ExpiresAt == nil || r.ExpiresAt.After(now)
}

// TrustRecord is the engine-owned per-user row. Score carries the director
// trust score or the talent completion score depending on Role; no other
// subsystem writes Score, Tier, Restriction or Flags.
type TrustRecord struct {
	UserID        uuid.UUID    `json:"user_id"`
	Role          Role         `json:"role"`
	Score         int          `json:"score"`
	Tier          Tier         `json:"tier"`
	Restriction   *Restriction `json:"restriction,omitempty"`
	Flags         []string     `json:"flags,omitempty"`
	EmailVerified bool         `json:"email_verified"`
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`
}

func (r TrustRecord) HasFlag(flag string) bool {
	for _, f := range r.Flags {
		if f == flag {
			return true
		}
	}
	return false
}

// LowestTier is the tier a freshly created record starts in.
func LowestTier(role Role) Tier {
	if role == RoleTalent {
		return TierBasic
	}
	return TierNew
}

func ClampScore(score int) int {
	if score < MinScore {
		return MinScore
	}
	if score > MaxScore {
		return MaxScore
	}
	return score
}

// ResolveDirectorTier is a pure function of the trust score.
func ResolveDirectorTier(score int) Tier {
	switch {
	case score >= DirectorVerifiedThreshold:
		return TierVerified
	case score >= DirectorTrustedThreshold:
		return TierTrusted
	default:
		return TierNew
	}
}

// talentTierRank orders talent tiers for the monotone-floor rule.
var talentTierRank = map[Tier]int{
	TierBasic:    0,
	TierComplete: 1,
	TierVerified: 2,
	TierFeatured: 3,
}

// ResolveTalentTier applies the monotone-floor rule: the effective tier is the
// max of the stored tier and the score-implied tier. The score can imply at
// most COMPLETE; VERIFIED and FEATURED require manual review via an override,
// and a stored elevated tier is never pulled down by a dropping score. Unlike
// director tiers this is not a pure function of score.
func ResolveTalentTier(stored Tier, score int, emailVerified bool) Tier {
	implied := TierBasic
	if score >= CompletionThreshold && emailVerified {
		implied = TierComplete
	}
	if talentTierRank[implied] > talentTierRank[stored] {
		return implied
	}
	if _, ok := talentTierRank[stored]; !ok {
		return implied
	}
	return stored
}

// ResolveTier dispatches on role. Directors get the pure score function,
// talents the floor-with-ceiling rule.
func ResolveTier(role Role, stored Tier, score int, emailVerified bool) Tier {
	if role == RoleTalent {
		return ResolveTalentTier(stored, score, emailVerified)
	}
	return ResolveDirectorTier(score)
}

func ValidTierForRole(role Role, tier Tier) bool {
	switch role {
	case RoleDirector:
		return tier == TierNew || tier == TierTrusted || tier == TierVerified
	case RoleTalent:
		_, ok := talentTierRank[tier]
		return ok
	default:
		return false
	}
}
