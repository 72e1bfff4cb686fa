// Waboku.gg | 2026
// handler.go

package listing

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/aaandroiddd/waboku-api/internal/core"
	"github.com/aaandroiddd/waboku-api/internal/middleware"
)

type Handler struct {
	service   *Service
	validator *validator.Validate
}

func NewHandler(service *Service) *Handler {
	return &Handler{
		service:   service,
		validator: validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator, optionalAuth func(http.Handler) http.Handler,
) {
	r.Route("/listings", func(r chi.Router) {
		r.With(optionalAuth).Get("/", h.ListPublic)
		r.With(optionalAuth).Get("/{listingID}", h.GetListing)

		r.Group(func(r chi.Router) {
			r.Use(authenticator)

			r.Post("/", h.CreateListing)
			r.Get("/mine", h.ListMine)
			r.Put("/{listingID}", h.UpdateListing)
			r.Delete("/{listingID}", h.DeleteListing)
			r.Post("/{listingID}/archive", h.ArchiveListing)
			r.Post("/{listingID}/sold", h.MarkSold)
		})
	})
}

func (h *Handler) CreateListing(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req CreateListingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	l, err := h.service.Create(r.Context(), userID, req)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.Created(w, ToListingResponse(l))
}

func (h *Handler) GetListing(w http.ResponseWriter, r *http.Request) {
	listingID := chi.URLParam(r, "listingID")
	requesterID := middleware.GetUserID(r.Context())

	l, err := h.service.GetVisible(r.Context(), listingID, requesterID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			core.NotFound(w, "listing")
			return
		}
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, ToListingResponse(l))
}

func (h *Handler) ListPublic(w http.ResponseWriter, r *http.Request) {
	params := ListListingsParams{
		Page:     parseIntQuery(r, "page", 1),
		PageSize: parseIntQuery(r, "page_size", 20),
		Game:     r.URL.Query().Get("game"),
	}

	listings, total, err := h.service.ListPublic(r.Context(), params)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.Paginated(w, listings, params.Page, params.PageSize, total)
}

func (h *Handler) ListMine(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	params := ListListingsParams{
		Page:     parseIntQuery(r, "page", 1),
		PageSize: parseIntQuery(r, "page_size", 20),
		Status:   r.URL.Query().Get("status"),
	}

	if params.Status != "" && !ValidStatus(params.Status) {
		core.BadRequest(w, "invalid status filter")
		return
	}

	listings, total, err := h.service.ListMine(r.Context(), userID, params)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.Paginated(
		w,
		ToListingResponseList(listings),
		params.Page,
		params.PageSize,
		total,
	)
}

func (h *Handler) UpdateListing(w http.ResponseWriter, r *http.Request) {
	listingID := chi.URLParam(r, "listingID")
	userID := middleware.GetUserID(r.Context())

	var req UpdateListingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	l, err := h.service.UpdateOwned(r.Context(), listingID, userID, req)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	core.OK(w, ToListingResponse(l))
}

func (h *Handler) DeleteListing(w http.ResponseWriter, r *http.Request) {
	listingID := chi.URLParam(r, "listingID")
	userID := middleware.GetUserID(r.Context())

	if err := h.service.DeleteOwned(r.Context(), listingID, userID); err != nil {
		h.writeServiceError(w, err)
		return
	}

	core.NoContent(w)
}

func (h *Handler) ArchiveListing(w http.ResponseWriter, r *http.Request) {
	listingID := chi.URLParam(r, "listingID")
	userID := middleware.GetUserID(r.Context())

	l, err := h.service.ArchiveOwned(r.Context(), listingID, userID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	core.OK(w, ToListingResponse(l))
}

func (h *Handler) MarkSold(w http.ResponseWriter, r *http.Request) {
	listingID := chi.URLParam(r, "listingID")
	userID := middleware.GetUserID(r.Context())

	l, err := h.service.MarkSoldOwned(r.Context(), listingID, userID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	core.OK(w, ToListingResponse(l))
}

func (h *Handler) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, core.ErrNotFound):
		core.NotFound(w, "listing")
	case errors.Is(err, core.ErrForbidden):
		core.Forbidden(w, "you do not own this listing")
	case errors.Is(err, core.ErrConflict):
		core.Conflict(w, "listing is not in a state that allows this action")
	default:
		core.InternalServerError(w, err)
	}
}

func parseIntQuery(r *http.Request, key string, defaultVal int) int {
	val := r.URL.Query().Get(key)
	if val == "" {
		return defaultVal
	}

	parsed, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}

	return parsed
}
