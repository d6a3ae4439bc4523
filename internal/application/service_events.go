package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/castcall/platform/services/trust-engine/internal/domain"
)

type jobPostedEvent struct {
	JobID      string `json:"job_id"`
	DirectorID string `json:"director_id"`
}

type applicationReviewedEvent struct {
	ApplicationID string `json:"application_id"`
	DirectorID    string `json:"director_id"`
	Status        string `json:"status"`
}

type profileUpdatedEvent struct {
	UserID string `json:"user_id"`
}

type userRegisteredEvent struct {
	UserID        string `json:"user_id"`
	Role          string `json:"role"`
	EmailVerified bool   `json:"email_verified"`
}

// HandleJobPosted credits the posting director's trust score.
func (s *Service) HandleJobPosted(ctx context.Context, eventID string, payload []byte) error {
	var evt jobPostedEvent
	if err := json.Unmarshal(payload, &evt); err != nil {
		return fmt.Errorf("%w: malformed job_posted payload: %v", domain.ErrInvalidInput, err)
	}
	directorID, err := uuid.Parse(evt.DirectorID)
	if err != nil {
		return fmt.Errorf("%w: job_posted director_id: %v", domain.ErrInvalidInput, err)
	}
	_, err = s.ApplyActivityDelta(ctx, directorID, domain.DeltaJobPosted, eventID)
	return ignoreMissingSubject(err)
}

// HandleApplicationReviewed credits the reviewing director. Only terminal
// review statuses count; an application moved back to pending earns nothing.
func (s *Service) HandleApplicationReviewed(ctx context.Context, eventID string, payload []byte) error {
	var evt applicationReviewedEvent
	if err := json.Unmarshal(payload, &evt); err != nil {
		return fmt.Errorf("%w: malformed application_reviewed payload: %v", domain.ErrInvalidInput, err)
	}
	switch evt.Status {
	case "SHORTLISTED", "REJECTED", "ACCEPTED":
	default:
		return nil
	}
	directorID, err := uuid.Parse(evt.DirectorID)
	if err != nil {
		return fmt.Errorf("%w: application_reviewed director_id: %v", domain.ErrInvalidInput, err)
	}
	_, err = s.ApplyActivityDelta(ctx, directorID, domain.DeltaApplicationReviewed, eventID)
	return ignoreMissingSubject(err)
}

// HandleProfileUpdated recomputes a talent's completion score. Non-talent
// subjects are skipped, not failed, since the profile topic carries every
// role. No dedup: a full recompute is idempotent, so redelivery is harmless.
func (s *Service) HandleProfileUpdated(ctx context.Context, _ string, payload []byte) error {
	var evt profileUpdatedEvent
	if err := json.Unmarshal(payload, &evt); err != nil {
		return fmt.Errorf("%w: malformed profile_updated payload: %v", domain.ErrInvalidInput, err)
	}
	userID, err := uuid.Parse(evt.UserID)
	if err != nil {
		return fmt.Errorf("%w: profile_updated user_id: %v", domain.ErrInvalidInput, err)
	}
	_, err = s.RecomputeTalentCompletion(ctx, userID)
	if errors.Is(err, domain.ErrInvalidInput) || errors.Is(err, domain.ErrNotFound) {
		return nil
	}
	return err
}

// HandleUserRegistered provisions the trust record for a new account.
func (s *Service) HandleUserRegistered(ctx context.Context, _ string, payload []byte) error {
	var evt userRegisteredEvent
	if err := json.Unmarshal(payload, &evt); err != nil {
		return fmt.Errorf("%w: malformed user_registered payload: %v", domain.ErrInvalidInput, err)
	}
	userID, err := uuid.Parse(evt.UserID)
	if err != nil {
		return fmt.Errorf("%w: user_registered user_id: %v", domain.ErrInvalidInput, err)
	}
	role := domain.NormalizeRole(evt.Role)
	if role == "" {
		return fmt.Errorf("%w: user_registered role %q", domain.ErrInvalidInput, evt.Role)
	}
	_, err = s.ProvisionRecord(ctx, userID, role, evt.EmailVerified)
	return err
}

// ignoreMissingSubject drops activity events whose subject has no trust
// record yet. Registration and activity events can race on first delivery;
// the delta is lost but the account recovers on its next activity.
func ignoreMissingSubject(err error) error {
	if errors.Is(err, domain.ErrNotFound) {
		return nil
	}
	return err
}
