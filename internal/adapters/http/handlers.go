package http

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/castcall/platform/services/trust-engine/internal/application"
	"github.com/castcall/platform/services/trust-engine/internal/contracts"
	"github.com/castcall/platform/services/trust-engine/internal/domain"
)

func (h *Handler) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, err := bearerTokenFromHeader(r.Header.Get("Authorization"))
		if err != nil {
			writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid or missing credentials")
			return
		}
		claims, err := h.verifier.ParseAndValidate(raw)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid or missing credentials")
			return
		}
		next.ServeHTTP(w, r.WithContext(contextWithClaims(r.Context(), claims)))
	})
}

func (h *Handler) actorFromRequest(r *http.Request) (application.Actor, bool) {
	claims, ok := claimsFromContext(r.Context())
	if !ok {
		return application.Actor{}, false
	}
	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return application.Actor{}, false
	}
	role := domain.NormalizeRole(claims.Role)
	if role == "" {
		return application.Actor{}, false
	}
	return application.Actor{UserID: userID, Role: role, RequestID: requestIDFromContext(r.Context())}, true
}

func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status, code, msg, details := mapDomainError(err)
	writeErrorDetails(w, status, code, msg, requestIDFromContext(r.Context()), details)
}

func pathUserID(r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "user_id"))
	return id, err == nil
}

func (h *Handler) getTrustSnapshot(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathUserID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "user_id must be a uuid")
		return
	}
	snapshot, err := h.service.GetTrustSnapshot(r.Context(), userID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, snapshot)
}

func (h *Handler) getHistory(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathUserID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "user_id must be a uuid")
		return
	}
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "limit must be an integer")
			return
		}
		limit = parsed
	}
	entries, err := h.service.GetHistory(r.Context(), userID, limit)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, entries)
}

func (h *Handler) applyActivityDelta(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathUserID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "user_id must be a uuid")
		return
	}
	var req contracts.ActivityDeltaRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid json body")
		return
	}
	snapshot, err := h.service.ApplyActivityDelta(r.Context(), userID, req.Points, req.EventID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, snapshot)
}

func (h *Handler) recomputeCompletion(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathUserID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "user_id must be a uuid")
		return
	}
	report, err := h.service.RecomputeTalentCompletion(r.Context(), userID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, report)
}

func (h *Handler) authorizeJobCreation(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actorFromRequest(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid or missing credentials")
		return
	}
	decision, err := h.service.AuthorizeJobCreation(r.Context(), actor.UserID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, decision)
}

func (h *Handler) bulkReview(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actorFromRequest(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid or missing credentials")
		return
	}
	var req contracts.BulkReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid json body")
		return
	}
	ids := make([]uuid.UUID, 0, len(req.ApplicationIDs))
	for _, raw := range req.ApplicationIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "application_ids must be uuids")
			return
		}
		ids = append(ids, id)
	}
	result, err := h.service.BulkReviewApplications(r.Context(), application.BulkReviewInput{
		DirectorID:     actor.UserID,
		Action:         req.Action,
		ApplicationIDs: ids,
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, result)
}

func (h *Handler) authorizeApplicationSubmission(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actorFromRequest(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid or missing credentials")
		return
	}
	decision, err := h.service.AuthorizeApplicationSubmission(r.Context(), actor.UserID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, decision)
}

func (h *Handler) applyOverride(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actorFromRequest(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid or missing credentials")
		return
	}
	var req contracts.OverrideRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid json body")
		return
	}
	targetID, err := uuid.Parse(req.TargetUserID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "target_user_id must be a uuid")
		return
	}
	before, err := toDomainSnapshot(req.Before)
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}
	after, err := toDomainSnapshot(req.After)
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}
	result, err := h.service.ApplyOverride(r.Context(), actor, application.OverrideInput{
		TargetUserID: targetID,
		ActionType:   domain.ActionType(req.ActionType),
		Before:       before,
		After:        after,
		Reason:       req.Reason,
		Metadata:     req.Metadata,
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, overrideResponse(result))
}

func (h *Handler) applyRestriction(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actorFromRequest(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid or missing credentials")
		return
	}
	var req contracts.RestrictionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid json body")
		return
	}
	targetID, err := uuid.Parse(req.TargetUserID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "target_user_id must be a uuid")
		return
	}
	var expiresAt *time.Time
	if req.ExpiresAt != nil {
		parsed, parseErr := time.Parse(time.RFC3339, *req.ExpiresAt)
		if parseErr != nil {
			writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "expires_at must be RFC 3339")
			return
		}
		expiresAt = &parsed
	}
	result, err := h.service.ApplyRestriction(r.Context(), actor, application.RestrictionInput{
		TargetUserID: targetID,
		Kind:         domain.RestrictionKind(req.Kind),
		Reason:       req.Reason,
		ExpiresAt:    expiresAt,
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, overrideResponse(result))
}

func (h *Handler) removeRestriction(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actorFromRequest(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid or missing credentials")
		return
	}
	userID, ok := pathUserID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "user_id must be a uuid")
		return
	}
	var req contracts.RemoveRestrictionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid json body")
		return
	}
	result, err := h.service.RemoveRestriction(r.Context(), actor, userID, req.Reason)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, overrideResponse(result))
}

func toDomainSnapshot(snap contracts.StateSnapshot) (domain.StateSnapshot, error) {
	out := domain.StateSnapshot{Score: snap.Score, Flag: snap.Flag}
	if snap.Tier != nil {
		tier := domain.Tier(*snap.Tier)
		out.Tier = &tier
	}
	if snap.Restriction != nil {
		restriction := domain.Restriction{
			Kind:   domain.RestrictionKind(snap.Restriction.Kind),
			Reason: snap.Restriction.Reason,
		}
		if snap.Restriction.AppliedBy != "" {
			appliedBy, err := uuid.Parse(snap.Restriction.AppliedBy)
			if err != nil {
				return domain.StateSnapshot{}, domain.ErrInvalidInput
			}
			restriction.AppliedBy = appliedBy
		}
		if snap.Restriction.AppliedAt != "" {
			appliedAt, err := time.Parse(time.RFC3339, snap.Restriction.AppliedAt)
			if err != nil {
				return domain.StateSnapshot{}, domain.ErrInvalidInput
			}
			restriction.AppliedAt = appliedAt
		}
		if snap.Restriction.ExpiresAt != nil {
			expiresAt, err := time.Parse(time.RFC3339, *snap.Restriction.ExpiresAt)
			if err != nil {
				return domain.StateSnapshot{}, domain.ErrInvalidInput
			}
			restriction.ExpiresAt = &expiresAt
		}
		out.Restriction = &restriction
	}
	return out, nil
}

func overrideResponse(result application.OverrideResult) map[string]any {
	body := map[string]any{
		"entry_id": result.EntryID,
		"record":   result.Record,
	}
	if result.Warning != "" {
		body["warning"] = result.Warning
	}
	return body
}
