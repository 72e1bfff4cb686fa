// Waboku.gg | 2026
// executor.go

package lifecycle

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aaandroiddd/waboku-api/internal/listing"
	"github.com/aaandroiddd/waboku-api/internal/subscription"
)

// Cascader removes records that reference a deleted listing.
type Cascader interface {
	DeleteByListing(ctx context.Context, listingID string) (int64, error)
}

// BrowseInvalidator drops cached browse pages after a visible change.
type BrowseInvalidator interface {
	Invalidate(ctx context.Context)
}

// Result reports what a transition actually did. Applied is
// VerdictNoAction when a concurrent sweep won the conditional update;
// CascadeErr carries a failed favorite cleanup that did not undo the
// listing deletion itself.
type Result struct {
	Applied        Verdict
	CascadeDeleted int64
	CascadeErr     error
}

// Executor turns verdicts into database transitions. Each transition
// is a single conditional statement, so two sweeps racing over the
// same listing can never double-apply.
type Executor struct {
	listings listing.Repository
	cascade  Cascader
	browse   BrowseInvalidator
	policy   *Policy
	logger   *slog.Logger
}

func NewExecutor(
	listings listing.Repository,
	cascade Cascader,
	browse BrowseInvalidator,
	policy *Policy,
	logger *slog.Logger,
) *Executor {
	return &Executor{
		listings: listings,
		cascade:  cascade,
		browse:   browse,
		policy:   policy,
		logger:   logger,
	}
}

// Apply executes a single evaluation against one listing. Lost races
// are reported as noAction, not errors.
func (e *Executor) Apply(
	ctx context.Context,
	l *listing.Listing,
	tier subscription.Tier,
	ev Evaluation,
	now time.Time,
) (Result, error) {
	switch ev.Verdict {
	case VerdictArchiveNow:
		return e.archive(ctx, l, tier, ev, now)
	case VerdictDeleteNow:
		return e.delete(ctx, l, ev)
	case VerdictRestoreToActive:
		return e.restore(ctx, l, ev, now)
	case VerdictKeepActive:
		return e.refreshExpiry(ctx, l, tier)
	default:
		return Result{Applied: VerdictNoAction}, nil
	}
}

// refreshExpiry reconciles a kept listing's stored expires_at with the
// owner's current tier. A tier change after creation would otherwise
// leave the stored timestamp stale.
func (e *Executor) refreshExpiry(
	ctx context.Context,
	l *listing.Listing,
	tier subscription.Tier,
) (Result, error) {
	want := l.CreatedAt.Add(e.policy.DurationFor(tier))
	if l.ExpiresAt != nil && l.ExpiresAt.Equal(want) {
		return Result{Applied: VerdictNoAction}, nil
	}

	if err := e.listings.UpdateExpiry(ctx, l.ID, want); err != nil {
		return Result{}, fmt.Errorf("refresh expiry %s: %w", l.ID, err)
	}

	e.logger.Debug("listing expiry reconciled",
		"listing_id", l.ID,
		"tier", tier,
		"expires_at", want,
	)

	return Result{Applied: VerdictNoAction}, nil
}

func (e *Executor) archive(
	ctx context.Context,
	l *listing.Listing,
	tier subscription.Tier,
	ev Evaluation,
	now time.Time,
) (Result, error) {
	ok, err := e.listings.Archive(ctx, l.ID, listing.ArchiveParams{
		ArchivedAt:     now,
		DeleteAt:       now.Add(e.policy.Retention()),
		TierAtArchival: string(tier),
		Reason:         listing.ReasonExpired,
	})
	if err != nil {
		return Result{}, fmt.Errorf("archive listing %s: %w", l.ID, err)
	}
	if !ok {
		return Result{Applied: VerdictNoAction}, nil
	}

	e.logger.Info("listing archived",
		"listing_id", l.ID,
		"tier", tier,
		"reason", ev.Reason,
	)
	e.invalidateBrowse(ctx)

	return Result{Applied: VerdictArchiveNow}, nil
}

func (e *Executor) delete(
	ctx context.Context,
	l *listing.Listing,
	ev Evaluation,
) (Result, error) {
	ok, err := e.listings.DeleteArchived(ctx, l.ID)
	if err != nil {
		return Result{}, fmt.Errorf("delete listing %s: %w", l.ID, err)
	}
	if !ok {
		return Result{Applied: VerdictNoAction}, nil
	}

	res := Result{Applied: VerdictDeleteNow}

	// The listing row is already gone; a cascade failure leaves
	// orphaned favorites for the next sweep but must not roll it back.
	deleted, err := e.cascade.DeleteByListing(ctx, l.ID)
	res.CascadeDeleted = deleted
	if err != nil {
		res.CascadeErr = err
		e.logger.Error("favorite cascade failed",
			"listing_id", l.ID,
			"deleted_before_failure", deleted,
			"error", err,
		)
	}

	e.logger.Info("listing permanently deleted",
		"listing_id", l.ID,
		"reason", ev.Reason,
		"favorites_removed", deleted,
	)
	e.invalidateBrowse(ctx)

	return res, nil
}

func (e *Executor) restore(
	ctx context.Context,
	l *listing.Listing,
	ev Evaluation,
	now time.Time,
) (Result, error) {
	expiresAt := l.CreatedAt.Add(e.policy.DurationFor(subscription.TierPremium))
	if !expiresAt.After(now) {
		expiresAt = now.Add(e.policy.DurationFor(subscription.TierPremium))
	}

	ok, err := e.listings.Restore(ctx, l.ID, expiresAt)
	if err != nil {
		return Result{}, fmt.Errorf("restore listing %s: %w", l.ID, err)
	}
	if !ok {
		return Result{Applied: VerdictNoAction}, nil
	}

	e.logger.Info("listing restored to active",
		"listing_id", l.ID,
		"reason", ev.Reason,
		"expires_at", expiresAt,
	)
	e.invalidateBrowse(ctx)

	return Result{Applied: VerdictRestoreToActive}, nil
}

func (e *Executor) invalidateBrowse(ctx context.Context) {
	if e.browse == nil {
		return
	}
	e.browse.Invalidate(ctx)
}
