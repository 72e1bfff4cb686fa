// Waboku.gg | 2026
// resolver.go

package subscription

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aaandroiddd/waboku-api/internal/core"
)

// Resolution carries the effective tier and where it came from, for
// diagnostics in sweep logs and the admin fix endpoint.
type Resolution struct {
	Tier   Tier   `json:"tier"`
	Source string `json:"source"`
}

const (
	SourceSubscription = "subscription"
	SourceDefault      = "default"
)

// Resolver is the single authority for account tier. It is a pure read:
// it never writes a corrected tier back as a side effect. Cached tier
// drift is handled by the explicit reconciliation job instead.
type Resolver struct {
	repo Repository
}

func NewResolver(repo Repository) *Resolver {
	return &Resolver{repo: repo}
}

func (r *Resolver) Resolve(
	ctx context.Context,
	userID string,
) (Resolution, error) {
	if userID == "" {
		return Resolution{}, fmt.Errorf(
			"resolve tier: empty user id: %w",
			core.ErrInvalidInput,
		)
	}

	sub, err := r.repo.GetByUserID(ctx, userID)
	if err != nil {
		// A missing user or subscription record is not an error
		// condition; such accounts are free tier.
		if errors.Is(err, core.ErrNotFound) {
			return Resolution{Tier: TierFree, Source: SourceDefault}, nil
		}
		return Resolution{}, fmt.Errorf("resolve tier: %w", err)
	}

	return Resolution{
		Tier:   TierFromRecord(sub, time.Now()),
		Source: SourceSubscription,
	}, nil
}

// TierFromRecord applies the one tier rule: premium while the
// subscription is active, or canceled but still inside its paid period.
// Every caller that needs a tier goes through this function; no handler
// restates the rule inline.
func TierFromRecord(sub *Subscription, now time.Time) Tier {
	if sub == nil {
		return TierFree
	}

	switch sub.Status {
	case StatusActive:
		return TierPremium
	case StatusCanceled:
		if sub.CurrentPeriodEnd != nil &&
			now.Before(*sub.CurrentPeriodEnd) {
			return TierPremium
		}
	}

	return TierFree
}
