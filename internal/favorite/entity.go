// Waboku.gg | 2026
// entity.go

package favorite

import (
	"time"
)

type Favorite struct {
	UserID    string    `db:"user_id"`
	ListingID string    `db:"listing_id"`
	CreatedAt time.Time `db:"created_at"`
}

type FavoriteResponse struct {
	UserID    string    `json:"user_id"`
	ListingID string    `json:"listing_id"`
	CreatedAt time.Time `json:"created_at"`
}

func ToFavoriteResponse(f *Favorite) FavoriteResponse {
	return FavoriteResponse{
		UserID:    f.UserID,
		ListingID: f.ListingID,
		CreatedAt: f.CreatedAt,
	}
}

func ToFavoriteResponseList(favorites []Favorite) []FavoriteResponse {
	responses := make([]FavoriteResponse, 0, len(favorites))
	for _, f := range favorites {
		responses = append(responses, ToFavoriteResponse(&f))
	}
	return responses
}
