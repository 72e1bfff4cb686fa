// Waboku.gg | 2026
// entity.go

package subscription

import (
	"time"
)

type Subscription struct {
	UserID               string     `db:"user_id"`
	Status               string     `db:"status"`
	StripeSubscriptionID *string    `db:"stripe_subscription_id"`
	CurrentPeriodEnd     *time.Time `db:"current_period_end"`
	CreatedAt            time.Time  `db:"created_at"`
	UpdatedAt            time.Time  `db:"updated_at"`
}

const (
	StatusNone     = "none"
	StatusActive   = "active"
	StatusCanceled = "canceled"
	StatusPastDue  = "past_due"
)

func ValidStatus(status string) bool {
	switch status {
	case StatusNone, StatusActive, StatusCanceled, StatusPastDue:
		return true
	}
	return false
}

type Tier string

const (
	TierFree    Tier = "free"
	TierPremium Tier = "premium"
)
