// Waboku.gg | 2026
// handler.go

package lifecycle

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/aaandroiddd/waboku-api/internal/core"
	"github.com/aaandroiddd/waboku-api/internal/listing"
)

type Handler struct {
	sweeper *Sweeper
}

func NewHandler(sweeper *Sweeper) *Handler {
	return &Handler{sweeper: sweeper}
}

// RegisterCronRoutes mounts the scheduler-facing endpoints. They sit
// outside the versioned API and are guarded by the cron secret, not
// user auth.
func (h *Handler) RegisterCronRoutes(
	r chi.Router,
	cronAuth func(http.Handler) http.Handler,
) {
	r.Route("/internal/cron", func(r chi.Router) {
		r.Use(cronAuth)

		r.Post("/archive-expired", h.ArchiveExpired)
		r.Post("/cleanup-archived", h.CleanupArchived)
	})
}

// RegisterAdminRoutes mounts the manual fix endpoint under the
// versioned admin surface.
func (h *Handler) RegisterAdminRoutes(
	r chi.Router,
	authenticator, adminOnly func(http.Handler) http.Handler,
) {
	r.Route("/admin/listings", func(r chi.Router) {
		r.Use(authenticator)
		r.Use(adminOnly)

		r.Post("/{listingID}/fix", h.FixListing)
	})
}

// ArchiveExpired sweeps active listings whose window has elapsed.
func (h *Handler) ArchiveExpired(w http.ResponseWriter, r *http.Request) {
	h.runSweep(w, r, listing.StatusActive)
}

// CleanupArchived sweeps archived listings past retention, and
// restores the premium-eligible ones.
func (h *Handler) CleanupArchived(w http.ResponseWriter, r *http.Request) {
	h.runSweep(w, r, listing.StatusArchived)
}

func (h *Handler) runSweep(
	w http.ResponseWriter,
	r *http.Request,
	statusFilter string,
) {
	summary, err := h.sweeper.RunSweep(r.Context(), statusFilter)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, summary)
}

func (h *Handler) FixListing(w http.ResponseWriter, r *http.Request) {
	listingID := chi.URLParam(r, "listingID")

	fix, err := h.sweeper.FixListing(r.Context(), listingID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			core.NotFound(w, "listing")
			return
		}
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, fix)
}
