// Waboku.gg | 2026
// dto.go

package subscription

import (
	"time"
)

type BillingEvent struct {
	UserID               string     `json:"user_id"                validate:"required,uuid"`
	Status               string     `json:"status"                 validate:"required,oneof=none active canceled past_due"`
	StripeSubscriptionID string     `json:"stripe_subscription_id" validate:"omitempty,max=255"`
	CurrentPeriodEnd     *time.Time `json:"current_period_end,omitempty"`
}

type ReconcileSummary struct {
	Scanned    int       `json:"scanned"`
	Corrected  int       `json:"corrected"`
	Errors     int       `json:"errors"`
	Partial    bool      `json:"partial,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

type SubscriptionResponse struct {
	UserID           string     `json:"user_id"`
	Status           string     `json:"status"`
	Tier             Tier       `json:"tier"`
	CurrentPeriodEnd *time.Time `json:"current_period_end,omitempty"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

func ToSubscriptionResponse(sub *Subscription) SubscriptionResponse {
	return SubscriptionResponse{
		UserID:           sub.UserID,
		Status:           sub.Status,
		Tier:             TierFromRecord(sub, time.Now()),
		CurrentPeriodEnd: sub.CurrentPeriodEnd,
		UpdatedAt:        sub.UpdatedAt,
	}
}
