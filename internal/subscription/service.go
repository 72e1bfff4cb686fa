// Waboku.gg | 2026
// service.go

package subscription

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aaandroiddd/waboku-api/internal/core"
)

// TierWriter is the one write path for the cached tier column, owned by
// the user package. The resolver never touches it.
type TierWriter interface {
	SetCachedTier(ctx context.Context, id, tier string) error
}

type Service struct {
	repo   Repository
	tiers  TierWriter
	logger *slog.Logger
}

func NewService(
	repo Repository,
	tiers TierWriter,
	logger *slog.Logger,
) *Service {
	return &Service{
		repo:   repo,
		tiers:  tiers,
		logger: logger,
	}
}

// ApplyBillingEvent ingests a subscription state change from the billing
// provider's webhook. Payment processing itself stays with the vendor;
// this only records status and period end.
func (s *Service) ApplyBillingEvent(
	ctx context.Context,
	evt BillingEvent,
) (*Subscription, error) {
	if !ValidStatus(evt.Status) {
		return nil, fmt.Errorf(
			"apply billing event: invalid status %q: %w",
			evt.Status,
			core.ErrInvalidInput,
		)
	}

	sub := &Subscription{
		UserID:           evt.UserID,
		Status:           evt.Status,
		CurrentPeriodEnd: evt.CurrentPeriodEnd,
	}
	if evt.StripeSubscriptionID != "" {
		sub.StripeSubscriptionID = &evt.StripeSubscriptionID
	}

	if err := s.repo.Upsert(ctx, sub); err != nil {
		return nil, err
	}

	s.logger.Info("subscription updated",
		"user_id", evt.UserID,
		"status", evt.Status,
		"tier", TierFromRecord(sub, time.Now()),
	)

	return sub, nil
}

// ReconcileTiers recomputes the cached tier column from subscription
// state for every user and corrects drift. This is the only code path
// that writes tier, and every correction is logged. It replaces ad hoc
// tier fixups scattered across admin tooling.
func (s *Service) ReconcileTiers(ctx context.Context) (ReconcileSummary, error) {
	const pageSize = 500

	summary := ReconcileSummary{StartedAt: time.Now().UTC()}
	now := time.Now()

	for offset := 0; ; offset += pageSize {
		if err := ctx.Err(); err != nil {
			summary.Partial = true
			break
		}

		rows, err := s.repo.ListWithCachedTier(ctx, pageSize, offset)
		if err != nil {
			return summary, fmt.Errorf("reconcile tiers: %w", err)
		}

		for _, row := range rows {
			summary.Scanned++

			resolved := TierFromRecord(row.Record(), now)
			if string(resolved) == row.CachedTier {
				continue
			}

			if err := s.tiers.SetCachedTier(
				ctx,
				row.UserID,
				string(resolved),
			); err != nil {
				summary.Errors++
				s.logger.Error("tier reconciliation failed",
					"user_id", row.UserID,
					"error", err,
				)
				continue
			}

			summary.Corrected++
			s.logger.Info("tier mismatch corrected",
				"user_id", row.UserID,
				"cached_tier", row.CachedTier,
				"resolved_tier", resolved,
			)
		}

		if len(rows) < pageSize {
			break
		}
	}

	summary.FinishedAt = time.Now().UTC()
	return summary, nil
}
