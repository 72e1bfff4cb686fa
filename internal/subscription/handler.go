// Waboku.gg | 2026
// handler.go

package subscription

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/aaandroiddd/waboku-api/internal/core"
	"github.com/aaandroiddd/waboku-api/internal/middleware"
)

type Handler struct {
	service   *Service
	resolver  *Resolver
	validator *validator.Validate
}

func NewHandler(service *Service, resolver *Resolver) *Handler {
	return &Handler{
		service:   service,
		resolver:  resolver,
		validator: validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (h *Handler) RegisterWebhookRoutes(
	r chi.Router,
	webhookAuth func(http.Handler) http.Handler,
) {
	r.Route("/webhooks", func(r chi.Router) {
		r.Use(webhookAuth)

		r.Post("/billing", h.BillingWebhook)
	})
}

func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator func(http.Handler) http.Handler,
) {
	r.Route("/subscription", func(r chi.Router) {
		r.Use(authenticator)

		r.Get("/", h.GetMySubscription)
	})
}

func (h *Handler) RegisterAdminRoutes(
	r chi.Router,
	authenticator, adminOnly func(http.Handler) http.Handler,
) {
	r.Route("/admin/reconcile-tiers", func(r chi.Router) {
		r.Use(authenticator)
		r.Use(adminOnly)

		r.Post("/", h.ReconcileTiers)
	})
}

func (h *Handler) BillingWebhook(w http.ResponseWriter, r *http.Request) {
	var evt BillingEvent
	if err := json.NewDecoder(r.Body).Decode(&evt); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(evt); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	sub, err := h.service.ApplyBillingEvent(r.Context(), evt)
	if err != nil {
		if errors.Is(err, core.ErrInvalidInput) {
			core.BadRequest(w, "invalid subscription status")
			return
		}
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, ToSubscriptionResponse(sub))
}

func (h *Handler) GetMySubscription(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	res, err := h.resolver.Resolve(r.Context(), userID)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, res)
}

func (h *Handler) ReconcileTiers(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.ReconcileTiers(r.Context())
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, summary)
}
