package unit

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/castcall/platform/services/trust-engine/internal/application"
	"github.com/castcall/platform/services/trust-engine/internal/domain"
	"github.com/castcall/platform/services/trust-engine/internal/ports"
)

// memStores backs every port with in-memory state so service behavior can be
// exercised without postgres, redis or kafka.
type memStores struct {
	mu      sync.Mutex
	records map[uuid.UUID]domain.TrustRecord
	audit   []domain.AuditEntry
	outbox  []ports.OutboxEvent
	dedup   map[string]bool

	identity ports.IdentitySummary
	profile  ports.ProfileSnapshot
	openJobs int
	batches  [][]ports.ApplicationStatusUpdate
	batchErr error
	deltaErr error
}

func newMemStores() *memStores {
	return &memStores{
		records: make(map[uuid.UUID]domain.TrustRecord),
		dedup:   make(map[string]bool),
	}
}

func (m *memStores) Create(_ context.Context, params ports.CreateTrustRecordParams) (domain.TrustRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.records[params.UserID]; ok {
		return domain.TrustRecord{}, fmt.Errorf("%w: exists", domain.ErrConflict)
	}
	record := domain.TrustRecord{
		UserID:        params.UserID,
		Role:          params.Role,
		Score:         0,
		Tier:          domain.LowestTier(params.Role),
		EmailVerified: params.EmailVerified,
		CreatedAt:     params.CreatedAt,
		UpdatedAt:     params.CreatedAt,
	}
	m.records[params.UserID] = record
	return record, nil
}

func (m *memStores) GetByUserID(_ context.Context, userID uuid.UUID) (domain.TrustRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	record, ok := m.records[userID]
	if !ok {
		return domain.TrustRecord{}, fmt.Errorf("%w: no trust record", domain.ErrNotFound)
	}
	return record, nil
}

func (m *memStores) ApplyDelta(_ context.Context, userID uuid.UUID, points int, updatedAt time.Time) (domain.TrustRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.deltaErr != nil {
		return domain.TrustRecord{}, m.deltaErr
	}
	record, ok := m.records[userID]
	if !ok || record.Role != domain.RoleDirector {
		return domain.TrustRecord{}, fmt.Errorf("%w: no director trust record", domain.ErrNotFound)
	}
	record.Score = domain.ClampScore(record.Score + points)
	record.Tier = domain.ResolveDirectorTier(record.Score)
	record.UpdatedAt = updatedAt
	m.records[userID] = record
	return record, nil
}

func (m *memStores) UpdateCompletion(_ context.Context, params ports.CompletionUpdateParams) (domain.TrustRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	record, ok := m.records[params.UserID]
	if !ok || record.Role != domain.RoleTalent {
		return domain.TrustRecord{}, fmt.Errorf("%w: no talent trust record", domain.ErrNotFound)
	}
	record.Score = params.Score
	record.EmailVerified = params.EmailVerified
	if record.Tier != domain.TierVerified && record.Tier != domain.TierFeatured && params.ImpliedTier == domain.TierComplete {
		record.Tier = domain.TierComplete
	}
	record.UpdatedAt = params.UpdatedAt
	m.records[params.UserID] = record
	return record, nil
}

func (m *memStores) ApplyOverride(_ context.Context, userID uuid.UUID, mutation ports.OverrideMutation, entry domain.AuditEntry) (domain.TrustRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	record, ok := m.records[userID]
	if !ok {
		return domain.TrustRecord{}, fmt.Errorf("%w: no trust record", domain.ErrNotFound)
	}
	m.audit = append(m.audit, entry)
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
		kept := make([]string, 0, len(record.Flags))
		for _, flag := range record.Flags {
			if flag != mutation.RemoveFlag {
				kept = append(kept, flag)
			}
		}
		record.Flags = kept
	}
	record.UpdatedAt = mutation.UpdatedAt
	m.records[userID] = record
	return record, nil
}

func (m *memStores) Append(_ context.Context, entry domain.AuditEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.audit = append(m.audit, entry)
	return nil
}

func (m *memStores) ListByTarget(_ context.Context, targetUserID uuid.UUID, limit int) ([]domain.AuditEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.AuditEntry, 0, limit)
	for i := len(m.audit) - 1; i >= 0 && len(out) < limit; i-- {
		if m.audit[i].TargetUserID == targetUserID {
			out = append(out, m.audit[i])
		}
	}
	return out, nil
}

func (m *memStores) Enqueue(_ context.Context, event ports.OutboxEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.outbox = append(m.outbox, event)
	return nil
}

func (m *memStores) FetchUnpublished(_ context.Context, limit int) ([]ports.OutboxRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]ports.OutboxRecord, 0, limit)
	for _, ev := range m.outbox {
		if len(out) == limit {
			break
		}
		out = append(out, ports.OutboxRecord{OutboxID: ev.EventID, EventType: ev.EventType, PartitionKey: ev.PartitionKey, Payload: ev.Payload, FirstSeenAt: ev.OccurredAt})
	}
	return out, nil
}

func (m *memStores) MarkPublished(_ context.Context, _ uuid.UUID, _ time.Time) error { return nil }

func (m *memStores) MarkFailed(_ context.Context, _ uuid.UUID, _ string, _ time.Time) error {
	return nil
}

func (m *memStores) MarkIfNew(_ context.Context, eventID string, _ time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.dedup[eventID] {
		return false, nil
	}
	m.dedup[eventID] = true
	return true, nil
}

func (m *memStores) Forget(_ context.Context, eventID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.dedup, eventID)
	return nil
}

func (m *memStores) GetIdentity(_ context.Context, _ uuid.UUID) (ports.IdentitySummary, error) {
	return m.identity, nil
}

func (m *memStores) GetProfileSnapshot(_ context.Context, _ uuid.UUID) (ports.ProfileSnapshot, error) {
	return m.profile, nil
}

func (m *memStores) CountOpenJobs(_ context.Context, _ uuid.UUID) (int, error) {
	return m.openJobs, nil
}

func (m *memStores) BulkUpdateStatus(_ context.Context, _ uuid.UUID, updates []ports.ApplicationStatusUpdate) error {
	if m.batchErr != nil {
		return m.batchErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.batches = append(m.batches, updates)
	return nil
}

func (m *memStores) seed(record domain.TrustRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[record.UserID] = record
}

func (m *memStores) outboxTypes() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	types := make([]string, 0, len(m.outbox))
	for _, ev := range m.outbox {
		types = append(types, ev.EventType)
	}
	return types
}

func newTestService() (*application.Service, *memStores) {
	stores := newMemStores()
	svc := application.NewService(application.Dependencies{
		Config:       application.Config{ServiceName: "trust-engine-test"},
		Records:      stores,
		Audit:        stores,
		Outbox:       stores,
		Dedup:        stores,
		Identity:     stores,
		Profiles:     stores,
		Jobs:         stores,
		Applications: stores,
	})
	return svc, stores
}

func seedDirector(stores *memStores, score int) uuid.UUID {
	id := uuid.New()
	stores.seed(domain.TrustRecord{
		UserID: id,
		Role:   domain.RoleDirector,
		Score:  score,
		Tier:   domain.ResolveDirectorTier(score),
	})
	return id
}

func seedTalent(stores *memStores, score int, tier domain.Tier, emailVerified bool) uuid.UUID {
	id := uuid.New()
	stores.seed(domain.TrustRecord{
		UserID:        id,
		Role:          domain.RoleTalent,
		Score:         score,
		Tier:          tier,
		EmailVerified: emailVerified,
	})
	return id
}

func adminActor() application.Actor {
	return application.Actor{UserID: uuid.New(), Role: domain.RoleAdmin}
}

func TestProvisionRecordIdempotent(t *testing.T) {
	svc, _ := newTestService()
	userID := uuid.New()

	first, err := svc.ProvisionRecord(context.Background(), userID, domain.RoleDirector, false)
	if err != nil {
		t.Fatalf("first provision error: %v", err)
	}
	if first.Tier != domain.TierNew || first.Score != 0 {
		t.Fatalf("expected fresh NEW record, got %+v", first)
	}
	second, err := svc.ProvisionRecord(context.Background(), userID, domain.RoleDirector, false)
	if err != nil {
		t.Fatalf("second provision error: %v", err)
	}
	if second.UserID != first.UserID {
		t.Fatalf("expected same record on replay")
	}
}

func TestApplyDeltaCrossesTierAndEmitsEvent(t *testing.T) {
	svc, stores := newTestService()
	directorID := seedDirector(stores, 28)

	snap, err := svc.ApplyActivityDelta(context.Background(), directorID, domain.DeltaJobPosted, "evt-1")
	if err != nil {
		t.Fatalf("ApplyActivityDelta error: %v", err)
	}
	if snap.Score != 30 || snap.Tier != domain.TierTrusted {
		t.Fatalf("expected 30/TRUSTED, got %d/%s", snap.Score, snap.Tier)
	}
	types := stores.outboxTypes()
	if len(types) != 1 || types[0] != "trust.tier_changed" {
		t.Fatalf("expected one tier_changed event, got %v", types)
	}
	entries, _ := stores.ListByTarget(context.Background(), directorID, 10)
	if len(entries) != 1 || entries[0].ActionType != domain.ActionTierChange {
		t.Fatalf("expected one TIER_CHANGE audit entry, got %+v", entries)
	}
	if entries[0].ActorID != uuid.Nil || *entries[0].After.Tier != domain.TierTrusted {
		t.Fatalf("expected system-actor transition to TRUSTED, got %+v", entries[0])
	}
}

func TestApplyDeltaClampsAtBounds(t *testing.T) {
	svc, stores := newTestService()
	directorID := seedDirector(stores, 99)

	snap, err := svc.ApplyActivityDelta(context.Background(), directorID, 10, "")
	if err != nil {
		t.Fatalf("ApplyActivityDelta error: %v", err)
	}
	if snap.Score != 100 {
		t.Fatalf("expected clamp at 100, got %d", snap.Score)
	}

	low := seedDirector(stores, 1)
	snap, err = svc.ApplyActivityDelta(context.Background(), low, -10, "")
	if err != nil {
		t.Fatalf("ApplyActivityDelta error: %v", err)
	}
	if snap.Score != 0 {
		t.Fatalf("expected clamp at 0, got %d", snap.Score)
	}
}

func TestApplyDeltaDeduplicatesEvents(t *testing.T) {
	svc, stores := newTestService()
	directorID := seedDirector(stores, 10)

	for i := 0; i < 3; i++ {
		if _, err := svc.ApplyActivityDelta(context.Background(), directorID, 2, "evt-dup"); err != nil {
			t.Fatalf("ApplyActivityDelta error: %v", err)
		}
	}
	record, _ := stores.GetByUserID(context.Background(), directorID)
	if record.Score != 12 {
		t.Fatalf("expected redeliveries to count once, score %d", record.Score)
	}
}

func TestApplyDeltaConcurrentDeliveries(t *testing.T) {
	svc, stores := newTestService()
	directorID := seedDirector(stores, 0)

	const deliveries = 30
	var wg sync.WaitGroup
	errs := make(chan error, deliveries)
	for i := 0; i < deliveries; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_, err := svc.ApplyActivityDelta(context.Background(), directorID, domain.DeltaJobPosted, fmt.Sprintf("evt-concurrent-%d", n))
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("ApplyActivityDelta error: %v", err)
		}
	}

	record, _ := stores.GetByUserID(context.Background(), directorID)
	if record.Score != deliveries*domain.DeltaJobPosted {
		t.Fatalf("lost update under concurrency: expected %d, got %d", deliveries*domain.DeltaJobPosted, record.Score)
	}
	if record.Tier != domain.TierTrusted {
		t.Fatalf("expected TRUSTED at score %d, got %s", record.Score, record.Tier)
	}
}

func TestApplyDeltaRedeliverableAfterStoreFailure(t *testing.T) {
	svc, stores := newTestService()
	directorID := seedDirector(stores, 10)

	stores.deltaErr = errors.New("trust store unavailable")
	if _, err := svc.ApplyActivityDelta(context.Background(), directorID, 2, "evt-flaky"); err == nil {
		t.Fatalf("expected store failure to surface")
	}

	stores.deltaErr = nil
	if _, err := svc.ApplyActivityDelta(context.Background(), directorID, 2, "evt-flaky"); err != nil {
		t.Fatalf("ApplyActivityDelta error: %v", err)
	}
	record, _ := stores.GetByUserID(context.Background(), directorID)
	if record.Score != 12 {
		t.Fatalf("failed delivery must stay retryable, score %d", record.Score)
	}
}

func TestOverrideRequiresAdmin(t *testing.T) {
	svc, stores := newTestService()
	directorID := seedDirector(stores, 10)
	score := 80

	_, err := svc.ApplyOverride(context.Background(), application.Actor{UserID: uuid.New(), Role: domain.RoleDirector}, application.OverrideInput{
		TargetUserID: directorID,
		ActionType:   domain.ActionScoreOverride,
		Before:       domain.StateSnapshot{Score: intPtr(10)},
		After:        domain.StateSnapshot{Score: &score},
		Reason:       "should not work",
	})
	if !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestRestrictionRequiresAdmin(t *testing.T) {
	svc, stores := newTestService()
	director := application.Actor{UserID: uuid.New(), Role: domain.RoleDirector}

	// The role gate fires before any lookup: an unknown target must not
	// leak record existence through a different error.
	_, err := svc.ApplyRestriction(context.Background(), director, application.RestrictionInput{
		TargetUserID: uuid.New(),
		Kind:         domain.RestrictionAccountFreeze,
		Reason:       "should not work",
	})
	if !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden for non-admin apply, got %v", err)
	}

	talentID := seedTalent(stores, 80, domain.TierComplete, true)
	_, err = svc.RemoveRestriction(context.Background(), director, talentID, "should not work")
	if !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden for non-admin remove, got %v", err)
	}
	entries, _ := stores.ListByTarget(context.Background(), talentID, 10)
	if len(entries) != 0 {
		t.Fatalf("denied restriction calls must not write audit entries, got %d", len(entries))
	}
}

func TestDirectorTierOverrideRejected(t *testing.T) {
	svc, stores := newTestService()
	directorID := seedDirector(stores, 40)

	_, err := svc.ApplyOverride(context.Background(), adminActor(), application.OverrideInput{
		TargetUserID: directorID,
		ActionType:   domain.ActionTierChange,
		Before:       domain.StateSnapshot{Tier: tierPtr(domain.TierTrusted)},
		After:        domain.StateSnapshot{Tier: tierPtr(domain.TierVerified)},
		Reason:       "boost a favourite director",
	})
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected director tier override to be rejected, got %v", err)
	}
	record, _ := stores.GetByUserID(context.Background(), directorID)
	if record.Tier != domain.TierTrusted {
		t.Fatalf("rejected override must not change tier, got %s", record.Tier)
	}
	entries, _ := stores.ListByTarget(context.Background(), directorID, 10)
	if len(entries) != 0 {
		t.Fatalf("rejected override must not write audit entries, got %d", len(entries))
	}
}

func TestOverrideEmptyReasonLeavesNoTrace(t *testing.T) {
	svc, stores := newTestService()
	directorID := seedDirector(stores, 10)
	score := 80

	_, err := svc.ApplyOverride(context.Background(), adminActor(), application.OverrideInput{
		TargetUserID: directorID,
		ActionType:   domain.ActionScoreOverride,
		Before:       domain.StateSnapshot{Score: intPtr(10)},
		After:        domain.StateSnapshot{Score: &score},
		Reason:       "   ",
	})
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	record, _ := stores.GetByUserID(context.Background(), directorID)
	if record.Score != 10 {
		t.Fatalf("rejected override must not change state, score %d", record.Score)
	}
	entries, _ := stores.ListByTarget(context.Background(), directorID, 10)
	if len(entries) != 0 {
		t.Fatalf("rejected override must not write audit entries, got %d", len(entries))
	}
}

func TestScoreOverridePairsAuditWithMutation(t *testing.T) {
	svc, stores := newTestService()
	directorID := seedDirector(stores, 10)
	after := 80

	result, err := svc.ApplyOverride(context.Background(), adminActor(), application.OverrideInput{
		TargetUserID: directorID,
		ActionType:   domain.ActionScoreOverride,
		Before:       domain.StateSnapshot{Score: intPtr(10)},
		After:        domain.StateSnapshot{Score: &after},
		Reason:       "manual fraud review cleared",
	})
	if err != nil {
		t.Fatalf("ApplyOverride error: %v", err)
	}
	if result.Record.Score != 80 || result.Record.Tier != domain.TierVerified {
		t.Fatalf("expected 80/VERIFIED, got %d/%s", result.Record.Score, result.Record.Tier)
	}
	entries, _ := stores.ListByTarget(context.Background(), directorID, 10)
	if len(entries) != 1 || entries[0].ActionType != domain.ActionScoreOverride {
		t.Fatalf("expected one SCORE_OVERRIDE entry, got %+v", entries)
	}
	if entries[0].ID != result.EntryID {
		t.Fatalf("result entry id must match the stored entry")
	}
	types := stores.outboxTypes()
	if len(types) != 2 {
		t.Fatalf("expected tier_changed and override_applied events, got %v", types)
	}
}

func TestRestrictionLifecycle(t *testing.T) {
	svc, stores := newTestService()
	talentID := seedTalent(stores, 80, domain.TierComplete, true)
	admin := adminActor()

	_, err := svc.ApplyRestriction(context.Background(), admin, application.RestrictionInput{
		TargetUserID: talentID,
		Kind:         domain.RestrictionAccountFreeze,
		Reason:       "payment chargebacks under review",
	})
	if err != nil {
		t.Fatalf("ApplyRestriction error: %v", err)
	}
	snap, err := svc.GetTrustSnapshot(context.Background(), talentID)
	if err != nil {
		t.Fatalf("GetTrustSnapshot error: %v", err)
	}
	if snap.Restriction == nil || snap.Restriction.Kind != domain.RestrictionAccountFreeze {
		t.Fatalf("expected active freeze in snapshot, got %+v", snap.Restriction)
	}

	_, err = svc.RemoveRestriction(context.Background(), admin, talentID, "review complete")
	if err != nil {
		t.Fatalf("RemoveRestriction error: %v", err)
	}
	snap, _ = svc.GetTrustSnapshot(context.Background(), talentID)
	if snap.Restriction != nil {
		t.Fatalf("expected restriction removed, got %+v", snap.Restriction)
	}
	entries, _ := stores.ListByTarget(context.Background(), talentID, 10)
	if len(entries) != 2 {
		t.Fatalf("expected apply+remove audit entries, got %d", len(entries))
	}
}

func TestExpiredRestrictionTreatedAsAbsent(t *testing.T) {
	svc, stores := newTestService()
	past := time.Now().UTC().Add(-time.Hour)
	talentID := uuid.New()
	stores.seed(domain.TrustRecord{
		UserID: talentID,
		Role:   domain.RoleTalent,
		Score:  80,
		Tier:   domain.TierComplete,
		Restriction: &domain.Restriction{
			Kind:      domain.RestrictionAccountFreeze,
			AppliedBy: uuid.New(),
			ExpiresAt: &past,
		},
		EmailVerified: true,
	})

	snap, err := svc.GetTrustSnapshot(context.Background(), talentID)
	if err != nil {
		t.Fatalf("GetTrustSnapshot error: %v", err)
	}
	if snap.Restriction != nil {
		t.Fatalf("expired restriction must not surface, got %+v", snap.Restriction)
	}
	if _, err := svc.AuthorizeApplicationSubmission(context.Background(), talentID); err != nil {
		t.Fatalf("expired freeze must not block submission: %v", err)
	}
}

func TestJobCreationLimitForNewDirector(t *testing.T) {
	svc, stores := newTestService()
	directorID := seedDirector(stores, 5)
	stores.openJobs = 2

	_, err := svc.AuthorizeJobCreation(context.Background(), directorID)
	if !errors.Is(err, domain.ErrLimitReached) {
		t.Fatalf("expected ErrLimitReached, got %v", err)
	}
	var enforcement *domain.EnforcementError
	if !errors.As(err, &enforcement) {
		t.Fatalf("expected EnforcementError, got %T", err)
	}
	if enforcement.Current != 2 || enforcement.Limit != 2 {
		t.Fatalf("expected current=2 limit=2, got %+v", enforcement)
	}

	stores.openJobs = 1
	decision, err := svc.AuthorizeJobCreation(context.Background(), directorID)
	if err != nil {
		t.Fatalf("AuthorizeJobCreation error: %v", err)
	}
	if !decision.Allowed || decision.MaxActiveJobs != 2 {
		t.Fatalf("expected allowed under limit, got %+v", decision)
	}
}

func TestFrozenDirectorCannotCreateJobs(t *testing.T) {
	svc, stores := newTestService()
	directorID := uuid.New()
	stores.seed(domain.TrustRecord{
		UserID:      directorID,
		Role:        domain.RoleDirector,
		Score:       50,
		Tier:        domain.TierTrusted,
		Restriction: &domain.Restriction{Kind: domain.RestrictionAccountFreeze, AppliedBy: uuid.New()},
	})

	_, err := svc.AuthorizeJobCreation(context.Background(), directorID)
	if !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden for frozen account, got %v", err)
	}
}

func TestBulkReviewCapabilityGate(t *testing.T) {
	svc, stores := newTestService()
	newDirector := seedDirector(stores, 5)
	ids := []uuid.UUID{uuid.New(), uuid.New(), uuid.New(), uuid.New(), uuid.New()}

	_, err := svc.BulkReviewApplications(context.Background(), application.BulkReviewInput{
		DirectorID:     newDirector,
		Action:         "shortlist",
		ApplicationIDs: ids,
	})
	if !errors.Is(err, domain.ErrActionNotAllowed) {
		t.Fatalf("expected ErrActionNotAllowed for NEW director, got %v", err)
	}
	if len(stores.batches) != 0 {
		t.Fatalf("denied bulk action must not write anything")
	}

	trusted := seedDirector(stores, 45)
	result, err := svc.BulkReviewApplications(context.Background(), application.BulkReviewInput{
		DirectorID:     trusted,
		Action:         "shortlist",
		ApplicationIDs: ids,
	})
	if err != nil {
		t.Fatalf("BulkReviewApplications error: %v", err)
	}
	if result.Updated != 5 || result.Status != "SHORTLISTED" {
		t.Fatalf("expected 5 SHORTLISTED, got %+v", result)
	}
	if len(stores.batches) != 1 || len(stores.batches[0]) != 5 {
		t.Fatalf("expected one batch of 5 updates, got %v", stores.batches)
	}
}

func TestBulkReviewAtomicOnWriterFailure(t *testing.T) {
	svc, stores := newTestService()
	trusted := seedDirector(stores, 45)
	stores.batchErr = errors.New("applications upstream unavailable")

	_, err := svc.BulkReviewApplications(context.Background(), application.BulkReviewInput{
		DirectorID:     trusted,
		Action:         "reject",
		ApplicationIDs: []uuid.UUID{uuid.New(), uuid.New()},
	})
	if err == nil {
		t.Fatalf("expected writer failure to surface")
	}
	if len(stores.batches) != 0 {
		t.Fatalf("failed batch must not be recorded")
	}
}

func TestApplicationSubmissionCompletionGate(t *testing.T) {
	svc, stores := newTestService()
	incomplete := seedTalent(stores, 55, domain.TierBasic, true)

	_, err := svc.AuthorizeApplicationSubmission(context.Background(), incomplete)
	if !errors.Is(err, domain.ErrProfileIncomplete) {
		t.Fatalf("expected ErrProfileIncomplete, got %v", err)
	}
	var enforcement *domain.EnforcementError
	if !errors.As(err, &enforcement) || enforcement.Current != 55 || enforcement.Limit != domain.CompletionThreshold {
		t.Fatalf("expected current=55 limit=%d, got %v", domain.CompletionThreshold, err)
	}

	// A manually elevated tier does not waive the completion gate.
	elevated := seedTalent(stores, 40, domain.TierVerified, true)
	if _, err := svc.AuthorizeApplicationSubmission(context.Background(), elevated); !errors.Is(err, domain.ErrProfileIncomplete) {
		t.Fatalf("expected VERIFIED talent below threshold to be blocked, got %v", err)
	}

	complete := seedTalent(stores, 70, domain.TierComplete, true)
	decision, err := svc.AuthorizeApplicationSubmission(context.Background(), complete)
	if err != nil {
		t.Fatalf("AuthorizeApplicationSubmission error: %v", err)
	}
	if !decision.Allowed || decision.Threshold != domain.CompletionThreshold {
		t.Fatalf("expected allowed at threshold, got %+v", decision)
	}
}

func TestRecomputeTalentCompletion(t *testing.T) {
	svc, stores := newTestService()
	talentID := seedTalent(stores, 0, domain.TierBasic, true)
	stores.identity = ports.IdentitySummary{UserID: talentID, Role: "TALENT", EmailVerified: true}
	stores.profile = ports.ProfileSnapshot{
		UserID:      talentID,
		HasPhoto:    true,
		FullName:    "Jane Delacroix",
		Bio:         "Character actor.",
		PrimaryRole: "actor",
		SkillCount:  3,
	}

	report, err := svc.RecomputeTalentCompletion(context.Background(), talentID)
	if err != nil {
		t.Fatalf("RecomputeTalentCompletion error: %v", err)
	}
	if report.Score != 70 || !report.Complete {
		t.Fatalf("expected 70/complete, got %+v", report)
	}
	if report.Tier != domain.TierComplete {
		t.Fatalf("expected upgrade to COMPLETE, got %s", report.Tier)
	}

	// Emptying the bio drops the score but never the tier.
	stores.profile.Bio = ""
	report, err = svc.RecomputeTalentCompletion(context.Background(), talentID)
	if err != nil {
		t.Fatalf("RecomputeTalentCompletion error: %v", err)
	}
	if report.Score != 55 {
		t.Fatalf("expected 55, got %d", report.Score)
	}
	if report.Tier != domain.TierComplete {
		t.Fatalf("completion drop must not downgrade tier, got %s", report.Tier)
	}
}

func TestGetHistoryNewestFirst(t *testing.T) {
	svc, stores := newTestService()
	directorID := seedDirector(stores, 10)
	admin := adminActor()

	for _, target := range []int{40, 60, 80} {
		score := target
		if _, err := svc.ApplyOverride(context.Background(), admin, application.OverrideInput{
			TargetUserID: directorID,
			ActionType:   domain.ActionScoreOverride,
			Before:       domain.StateSnapshot{Score: intPtr(10)},
			After:        domain.StateSnapshot{Score: &score},
			Reason:       "stepped adjustment",
		}); err != nil {
			t.Fatalf("ApplyOverride error: %v", err)
		}
	}

	entries, err := svc.GetHistory(context.Background(), directorID, 10)
	if err != nil {
		t.Fatalf("GetHistory error: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	if *entries[0].After.Score != 80 || *entries[2].After.Score != 40 {
		t.Fatalf("expected newest-first ordering, got %d then %d", *entries[0].After.Score, *entries[2].After.Score)
	}

	if _, err := svc.GetHistory(context.Background(), uuid.New(), 10); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown target, got %v", err)
	}
}

func TestHandleUserRegisteredProvisions(t *testing.T) {
	svc, stores := newTestService()
	userID := uuid.New()
	payload := []byte(fmt.Sprintf(`{"user_id":%q,"role":"director","email_verified":false}`, userID))

	if err := svc.HandleUserRegistered(context.Background(), "evt-reg-1", payload); err != nil {
		t.Fatalf("HandleUserRegistered error: %v", err)
	}
	record, err := stores.GetByUserID(context.Background(), userID)
	if err != nil {
		t.Fatalf("expected record provisioned: %v", err)
	}
	if record.Role != domain.RoleDirector || record.Tier != domain.TierNew {
		t.Fatalf("unexpected provisioned record %+v", record)
	}
	// Replay must not fail.
	if err := svc.HandleUserRegistered(context.Background(), "evt-reg-1", payload); err != nil {
		t.Fatalf("replayed registration error: %v", err)
	}
}

func TestHandleJobPostedCreditsDirector(t *testing.T) {
	svc, stores := newTestService()
	directorID := seedDirector(stores, 10)
	payload := []byte(fmt.Sprintf(`{"job_id":%q,"director_id":%q}`, uuid.New(), directorID))

	if err := svc.HandleJobPosted(context.Background(), "evt-job-1", payload); err != nil {
		t.Fatalf("HandleJobPosted error: %v", err)
	}
	record, _ := stores.GetByUserID(context.Background(), directorID)
	if record.Score != 10+domain.DeltaJobPosted {
		t.Fatalf("expected job posting credit, score %d", record.Score)
	}

	// Missing subject is dropped, not failed.
	orphan := []byte(fmt.Sprintf(`{"job_id":%q,"director_id":%q}`, uuid.New(), uuid.New()))
	if err := svc.HandleJobPosted(context.Background(), "evt-job-2", orphan); err != nil {
		t.Fatalf("expected missing subject to be dropped, got %v", err)
	}
}

func intPtr(v int) *int { return &v }

func tierPtr(v domain.Tier) *domain.Tier { return &v }
