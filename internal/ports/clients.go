package ports

import (
	"context"

	"github.com/google/uuid"
)

// IdentitySummary is what the identity subsystem supplies on demand.
type IdentitySummary struct {
	UserID        uuid.UUID
	Role          string
	EmailVerified bool
}

type IdentityReader interface {
	GetIdentity(ctx context.Context, userID uuid.UUID) (IdentitySummary, error)
}

// ProfileSnapshot mirrors the talent profile fields the completion score is
// computed from.
type ProfileSnapshot struct {
	UserID             uuid.UUID
	HasPhoto           bool
	FullName           string
	Phone              string
	Bio                string
	PrimaryRole        string
	SkillCount         int
	ExperienceCount    int
	PortfolioItemCount int
}

type ProfileReader interface {
	GetProfileSnapshot(ctx context.Context, userID uuid.UUID) (ProfileSnapshot, error)
}

type JobsReader interface {
	// CountOpenJobs returns the director's currently-open job count at call
	// time; enforcement never works from a cached figure.
	CountOpenJobs(ctx context.Context, directorID uuid.UUID) (int, error)
}

type ApplicationStatusUpdate struct {
	ApplicationID uuid.UUID
	Status        string
}

type ApplicationsWriter interface {
	// BulkUpdateStatus applies every update or none; partial application of a
	// validated batch is not acceptable.
	BulkUpdateStatus(ctx context.Context, directorID uuid.UUID, updates []ApplicationStatusUpdate) error
}

type AuthClaims struct {
	UserID string
	Email  string
	Role   string
}

type TokenVerifier interface {
	ParseAndValidate(raw string) (AuthClaims, error)
}

type EventPublisher interface {
	Publish(ctx context.Context, eventType string, payload []byte, partitionKey string) error
}
