// Waboku.gg | 2026
// handler.go

package favorite

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/aaandroiddd/waboku-api/internal/core"
	"github.com/aaandroiddd/waboku-api/internal/middleware"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator func(http.Handler) http.Handler,
) {
	r.Route("/favorites", func(r chi.Router) {
		r.Use(authenticator)

		r.Get("/", h.ListFavorites)
		r.Post("/{listingID}", h.AddFavorite)
		r.Delete("/{listingID}", h.RemoveFavorite)
	})
}

func (h *Handler) AddFavorite(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	listingID := chi.URLParam(r, "listingID")

	f, err := h.service.AddFavorite(r.Context(), userID, listingID)
	if err != nil {
		switch {
		case errors.Is(err, core.ErrNotFound):
			core.NotFound(w, "listing")
		case core.IsAppError(err):
			core.JSONError(w, err)
		default:
			core.InternalServerError(w, err)
		}
		return
	}

	core.Created(w, ToFavoriteResponse(f))
}

func (h *Handler) RemoveFavorite(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	listingID := chi.URLParam(r, "listingID")

	err := h.service.RemoveFavorite(r.Context(), userID, listingID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			core.NotFound(w, "favorite")
			return
		}
		core.InternalServerError(w, err)
		return
	}

	core.NoContent(w)
}

func (h *Handler) ListFavorites(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	page := parseIntQuery(r, "page", 1)
	pageSize := parseIntQuery(r, "page_size", 20)
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	favorites, total, err := h.service.ListFavorites(
		r.Context(),
		userID,
		page,
		pageSize,
	)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.Paginated(w, ToFavoriteResponseList(favorites), page, pageSize, total)
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
