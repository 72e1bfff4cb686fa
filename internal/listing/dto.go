// Waboku.gg | 2026
// dto.go

package listing

import (
	"time"
)

type CreateListingRequest struct {
	Title       string `json:"title"       validate:"required,min=1,max=200"`
	Description string `json:"description" validate:"max=4000"`
	Game        string `json:"game"        validate:"required,min=1,max=50"`
	CardName    string `json:"card_name"   validate:"required,min=1,max=200"`
	Condition   string `json:"condition"   validate:"required,oneof=mint near_mint lightly_played moderately_played heavily_played damaged"`
	PriceCents  int64  `json:"price_cents" validate:"required,gt=0"`
}

type UpdateListingRequest struct {
	Title       *string `json:"title,omitempty"       validate:"omitempty,min=1,max=200"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=4000"`
	CardName    *string `json:"card_name,omitempty"   validate:"omitempty,min=1,max=200"`
	Condition   *string `json:"condition,omitempty"   validate:"omitempty,oneof=mint near_mint lightly_played moderately_played heavily_played damaged"`
	PriceCents  *int64  `json:"price_cents,omitempty" validate:"omitempty,gt=0"`
}

type ListingResponse struct {
	ID               string     `json:"id"`
	UserID           string     `json:"user_id"`
	Title            string     `json:"title"`
	Description      string     `json:"description"`
	Game             string     `json:"game"`
	CardName         string     `json:"card_name"`
	Condition        string     `json:"condition"`
	PriceCents       int64      `json:"price_cents"`
	Status           string     `json:"status"`
	ExpiresAt        *time.Time `json:"expires_at,omitempty"`
	ArchivedAt       *time.Time `json:"archived_at,omitempty"`
	DeleteAt         *time.Time `json:"delete_at,omitempty"`
	ExpirationReason *string    `json:"expiration_reason,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

type ListListingsParams struct {
	Page     int
	PageSize int
	Game     string
	Status   string
	UserID   string
}

func (p *ListListingsParams) Normalize() {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 {
		p.PageSize = 20
	}
	if p.PageSize > 100 {
		p.PageSize = 100
	}
}

func (p *ListListingsParams) Offset() int {
	return (p.Page - 1) * p.PageSize
}

func ToListingResponse(l *Listing) ListingResponse {
	return ListingResponse{
		ID:               l.ID,
		UserID:           l.UserID,
		Title:            l.Title,
		Description:      l.Description,
		Game:             l.Game,
		CardName:         l.CardName,
		Condition:        l.Condition,
		PriceCents:       l.PriceCents,
		Status:           l.Status,
		ExpiresAt:        l.ExpiresAt,
		ArchivedAt:       l.ArchivedAt,
		DeleteAt:         l.DeleteAt,
		ExpirationReason: l.ExpirationReason,
		CreatedAt:        l.CreatedAt,
		UpdatedAt:        l.UpdatedAt,
	}
}

func ToListingResponseList(listings []Listing) []ListingResponse {
	responses := make([]ListingResponse, 0, len(listings))
	for _, l := range listings {
		responses = append(responses, ToListingResponse(&l))
	}
	return responses
}
