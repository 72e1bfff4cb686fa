// Waboku.gg | 2026
// entity.go

package listing

import (
	"time"
)

// Listing is a card listing. The archival fields (ArchivedAt, DeleteAt,
// TierAtArchival, ExpirationReason) are only meaningful while Status is
// StatusArchived; restoring a listing clears all four.
type Listing struct {
	ID               string     `db:"id"`
	UserID           string     `db:"user_id"`
	Title            string     `db:"title"`
	Description      string     `db:"description"`
	Game             string     `db:"game"`
	CardName         string     `db:"card_name"`
	Condition        string     `db:"condition"`
	PriceCents       int64      `db:"price_cents"`
	Status           string     `db:"status"`
	ExpiresAt        *time.Time `db:"expires_at"`
	ArchivedAt       *time.Time `db:"archived_at"`
	DeleteAt         *time.Time `db:"delete_at"`
	TierAtArchival   *string    `db:"tier_at_archival"`
	ExpirationReason *string    `db:"expiration_reason"`
	CreatedAt        time.Time  `db:"created_at"`
	UpdatedAt        time.Time  `db:"updated_at"`
}

const (
	StatusActive   = "active"
	StatusArchived = "archived"
	StatusSold     = "sold"
	StatusInactive = "inactive"
)

// ReasonExpired marks listings archived by the expiration sweep, as
// opposed to a manual archive. Only expiry-archived listings are
// eligible for restoration when the owner regains premium.
const (
	ReasonExpired = "expired"
	ReasonManual  = "manual"
)

func ValidStatus(status string) bool {
	switch status {
	case StatusActive, StatusArchived, StatusSold, StatusInactive:
		return true
	}
	return false
}

func (l *Listing) IsActive() bool {
	return l.Status == StatusActive
}

func (l *Listing) IsArchived() bool {
	return l.Status == StatusArchived
}

// ArchivedByExpiry reports whether the listing was archived by the
// sweep rather than a manual action.
func (l *Listing) ArchivedByExpiry() bool {
	return l.Status == StatusArchived &&
		l.ExpirationReason != nil &&
		*l.ExpirationReason == ReasonExpired
}
