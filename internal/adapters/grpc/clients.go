package grpc

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/castcall/platform/services/trust-engine/internal/ports"
)

func endpointFailing(endpoint string) bool {
	return strings.Contains(strings.ToLower(strings.TrimSpace(endpoint)), "fail")
}

type identityClient struct{ endpoint string }

type profileClient struct{ endpoint string }

type jobsClient struct{ endpoint string }

type applicationsClient struct{ endpoint string }

func NewIdentityClient(endpoint string) ports.IdentityReader {
	return &identityClient{endpoint: endpoint}
}
func NewProfileClient(endpoint string) ports.ProfileReader { return &profileClient{endpoint: endpoint} }
func NewJobsClient(endpoint string) ports.JobsReader       { return &jobsClient{endpoint: endpoint} }
func NewApplicationsClient(endpoint string) ports.ApplicationsWriter {
	return &applicationsClient{endpoint: endpoint}
}

func (c *identityClient) GetIdentity(_ context.Context, userID uuid.UUID) (ports.IdentitySummary, error) {
	if endpointFailing(c.endpoint) {
		return ports.IdentitySummary{}, errors.New("identity upstream unavailable")
	}
	return ports.IdentitySummary{UserID: userID, Role: "TALENT", EmailVerified: true}, nil
}

func (c *profileClient) GetProfileSnapshot(_ context.Context, userID uuid.UUID) (ports.ProfileSnapshot, error) {
	if endpointFailing(c.endpoint) {
		return ports.ProfileSnapshot{}, errors.New("profile upstream unavailable")
	}
	return ports.ProfileSnapshot{
		UserID:             userID,
		HasPhoto:           true,
		FullName:           "Alex Moreau",
		Phone:              "+33123456789",
		Bio:                "Stage and screen performer.",
		PrimaryRole:        "actor",
		SkillCount:         4,
		ExperienceCount:    2,
		PortfolioItemCount: 3,
	}, nil
}

func (c *jobsClient) CountOpenJobs(_ context.Context, _ uuid.UUID) (int, error) {
	if endpointFailing(c.endpoint) {
		return 0, errors.New("jobs upstream unavailable")
	}
	return 1, nil
}

func (c *applicationsClient) BulkUpdateStatus(_ context.Context, _ uuid.UUID, updates []ports.ApplicationStatusUpdate) error {
	if endpointFailing(c.endpoint) {
		return errors.New("applications upstream unavailable")
	}
	_ = updates
	return nil
}
