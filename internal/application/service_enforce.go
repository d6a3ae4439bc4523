package application

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/castcall/platform/services/trust-engine/internal/domain"
	"github.com/castcall/platform/services/trust-engine/internal/ports"
)

// AuthorizeJobCreation decides whether a director may open another job. The
// limit comes from the capability set resolved at call time and the open job
// count comes from the jobs subsystem, never from a cache.
func (s *Service) AuthorizeJobCreation(ctx context.Context, directorID uuid.UUID) (JobCreationDecision, error) {
	record, err := s.records.GetByUserID(ctx, directorID)
	if err != nil {
		return JobCreationDecision{}, err
	}
	if record.Role != domain.RoleDirector {
		return JobCreationDecision{}, fmt.Errorf("%w: job creation applies to directors only", domain.ErrInvalidInput)
	}
	if r := record.Restriction; r.Active(s.nowFn()) && r.Kind == domain.RestrictionAccountFreeze {
		return JobCreationDecision{}, fmt.Errorf("%w: account is frozen", domain.ErrForbidden)
	}

	snap := s.snapshotOf(record)
	current, err := s.jobs.CountOpenJobs(ctx, directorID)
	if err != nil {
		return JobCreationDecision{}, err
	}
	decision := JobCreationDecision{
		Allowed:           current < snap.Capability.MaxActiveJobs,
		MaxActiveJobs:     snap.Capability.MaxActiveJobs,
		CurrentActiveJobs: current,
	}
	if !decision.Allowed {
		return decision, domain.NewEnforcementError(domain.ErrLimitReached,
			"active job limit reached for current tier", current, snap.Capability.MaxActiveJobs)
	}
	return decision, nil
}

// BulkReviewApplications shortlists or rejects a batch of applications in one
// action. The batch is validated up front and applied all-or-nothing; a
// director whose tier lacks the bulk capability is denied before anything is
// written.
func (s *Service) BulkReviewApplications(ctx context.Context, input BulkReviewInput) (BulkReviewResult, error) {
	action := strings.ToLower(strings.TrimSpace(input.Action))
	var status string
	switch action {
	case "shortlist":
		status = "SHORTLISTED"
	case "reject":
		status = "REJECTED"
	default:
		return BulkReviewResult{}, fmt.Errorf("%w: bulk action must be shortlist or reject", domain.ErrInvalidInput)
	}
	if len(input.ApplicationIDs) == 0 {
		return BulkReviewResult{}, fmt.Errorf("%w: empty application batch", domain.ErrInvalidInput)
	}

	record, err := s.records.GetByUserID(ctx, input.DirectorID)
	if err != nil {
		return BulkReviewResult{}, err
	}
	if record.Role != domain.RoleDirector {
		return BulkReviewResult{}, fmt.Errorf("%w: bulk review applies to directors only", domain.ErrInvalidInput)
	}
	if r := record.Restriction; r.Active(s.nowFn()) && r.Kind == domain.RestrictionAccountFreeze {
		return BulkReviewResult{}, fmt.Errorf("%w: account is frozen", domain.ErrForbidden)
	}

	snap := s.snapshotOf(record)
	allowed := snap.Capability.CanBulkShortlist
	if action == "reject" {
		allowed = snap.Capability.CanBulkReject
	}
	if !allowed {
		return BulkReviewResult{}, fmt.Errorf("%w: bulk %s requires a higher tier", domain.ErrActionNotAllowed, action)
	}

	updates := make([]ports.ApplicationStatusUpdate, 0, len(input.ApplicationIDs))
	seen := make(map[uuid.UUID]struct{}, len(input.ApplicationIDs))
	for _, id := range input.ApplicationIDs {
		if id == uuid.Nil {
			return BulkReviewResult{}, fmt.Errorf("%w: batch contains an empty application id", domain.ErrInvalidInput)
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		updates = append(updates, ports.ApplicationStatusUpdate{ApplicationID: id, Status: status})
	}
	if err := s.applications.BulkUpdateStatus(ctx, input.DirectorID, updates); err != nil {
		return BulkReviewResult{}, err
	}
	return BulkReviewResult{Updated: len(updates), Status: status}, nil
}

// AuthorizeApplicationSubmission gates talent job applications on profile
// completion. The threshold applies to every talent regardless of tier; a
// manually elevated tier does not waive it.
func (s *Service) AuthorizeApplicationSubmission(ctx context.Context, talentID uuid.UUID) (ApplicationSubmissionDecision, error) {
	record, err := s.records.GetByUserID(ctx, talentID)
	if err != nil {
		return ApplicationSubmissionDecision{}, err
	}
	if record.Role != domain.RoleTalent {
		return ApplicationSubmissionDecision{}, fmt.Errorf("%w: application submission applies to talent only", domain.ErrInvalidInput)
	}
	if r := record.Restriction; r.Active(s.nowFn()) && r.Kind == domain.RestrictionAccountFreeze {
		return ApplicationSubmissionDecision{}, fmt.Errorf("%w: account is frozen", domain.ErrForbidden)
	}

	decision := ApplicationSubmissionDecision{
		Allowed:   record.Score >= domain.CompletionThreshold,
		Score:     record.Score,
		Threshold: domain.CompletionThreshold,
	}
	if !decision.Allowed {
		return decision, domain.NewEnforcementError(domain.ErrProfileIncomplete,
			"profile completion below required threshold", record.Score, domain.CompletionThreshold)
	}
	return decision, nil
}
