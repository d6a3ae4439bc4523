package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/castcall/platform/services/trust-engine/internal/application"
	"github.com/castcall/platform/services/trust-engine/internal/ports"
)

type Handler struct {
	service  *application.Service
	verifier ports.TokenVerifier
}

func NewHandler(service *application.Service, verifier ports.TokenVerifier) *Handler {
	return &Handler{service: service, verifier: verifier}
}

func NewRouter(handler *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(recoverMiddleware)
	r.Use(loggingMiddleware)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) { writeMessage(w, http.StatusOK, "ok") })
	r.Get("/readyz", func(w http.ResponseWriter, _ *http.Request) { writeMessage(w, http.StatusOK, "ready") })

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(handler.authMiddleware)

		r.Route("/trust", func(r chi.Router) {
			r.Get("/{user_id}", handler.getTrustSnapshot)
			r.Get("/{user_id}/history", handler.getHistory)
			r.Post("/{user_id}/activity", handler.applyActivityDelta)
			r.Post("/{user_id}/completion/recompute", handler.recomputeCompletion)
		})

		r.Route("/enforcement", func(r chi.Router) {
			r.Post("/job-creation", handler.authorizeJobCreation)
			r.Post("/bulk-review", handler.bulkReview)
			r.Post("/application-submission", handler.authorizeApplicationSubmission)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Post("/overrides", handler.applyOverride)
			r.Post("/restrictions", handler.applyRestriction)
			r.Delete("/restrictions/{user_id}", handler.removeRestriction)
		})
	})
	return r
}
