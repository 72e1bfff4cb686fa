// Waboku.gg | 2026
// sweep.go

package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aaandroiddd/waboku-api/internal/config"
	"github.com/aaandroiddd/waboku-api/internal/core"
	"github.com/aaandroiddd/waboku-api/internal/listing"
	"github.com/aaandroiddd/waboku-api/internal/subscription"
)

// SweepSummary is the caller-facing report for one sweep run. Errors is
// capped at maxErrors entries; the full detail always goes to logs.
type SweepSummary struct {
	Filter     string    `json:"filter"`
	Scanned    int       `json:"scanned"`
	Archived   int       `json:"archived"`
	Deleted    int       `json:"deleted"`
	Restored   int       `json:"restored"`
	Errors     []string  `json:"errors"`
	Partial    bool      `json:"partial"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// FixResult is the diagnostic returned by a manual single-listing fix.
type FixResult struct {
	ListingID    string                   `json:"listing_id"`
	StatusBefore string                   `json:"status_before"`
	StatusAfter  string                   `json:"status_after"`
	Tier         subscription.Tier        `json:"tier"`
	Verdict      Verdict                  `json:"verdict"`
	Reason       string                   `json:"reason"`
	Applied      Verdict                  `json:"applied"`
	After        *listing.ListingResponse `json:"after,omitempty"`
}

// Sweeper drives the scheduled lifecycle passes over listings.
type Sweeper struct {
	listings  listing.Repository
	tiers     listing.TierResolver
	executor  *Executor
	policy    *Policy
	pageSize  int
	timeout   time.Duration
	maxErrors int
	logger    *slog.Logger
}

func NewSweeper(
	listings listing.Repository,
	tiers listing.TierResolver,
	executor *Executor,
	policy *Policy,
	cfg config.LifecycleConfig,
	logger *slog.Logger,
) *Sweeper {
	return &Sweeper{
		listings:  listings,
		tiers:     tiers,
		executor:  executor,
		policy:    policy,
		pageSize:  cfg.SweepPageSize,
		timeout:   cfg.SweepTimeout,
		maxErrors: cfg.MaxSweepErrors,
		logger:    logger,
	}
}

// RunSweep pages through listings with the given status, evaluates
// each against its owner's current tier, and applies the verdicts. A
// failing listing is recorded and skipped, never fatal; the deadline
// bounds wall-clock time and marks the summary partial when it fires.
func (s *Sweeper) RunSweep(
	ctx context.Context,
	statusFilter string,
) (*SweepSummary, error) {
	if !listing.ValidStatus(statusFilter) {
		return nil, fmt.Errorf("run sweep: %w", core.ErrInvalidInput)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	summary := &SweepSummary{
		Filter:    statusFilter,
		Errors:    []string{},
		StartedAt: time.Now(),
	}

	// Tier resolution hits the subscriptions table; one owner with
	// hundreds of listings should cost one lookup, not hundreds.
	tierCache := make(map[string]subscription.Tier)

	offset := 0
	for {
		if ctx.Err() != nil {
			summary.Partial = true
			break
		}

		page, err := s.listings.ListByStatus(ctx, statusFilter, s.pageSize, offset)
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) ||
				errors.Is(err, context.Canceled) {
				summary.Partial = true
				break
			}
			summary.FinishedAt = time.Now()
			return summary, fmt.Errorf("run sweep: list page: %w", err)
		}

		for i := range page {
			if ctx.Err() != nil {
				summary.Partial = true
				break
			}
			s.sweepOne(ctx, &page[i], tierCache, summary)
		}

		if summary.Partial || len(page) < s.pageSize {
			break
		}
		offset += s.pageSize
	}

	summary.FinishedAt = time.Now()

	s.logger.Info("lifecycle sweep finished",
		"filter", statusFilter,
		"scanned", summary.Scanned,
		"archived", summary.Archived,
		"deleted", summary.Deleted,
		"restored", summary.Restored,
		"errors", len(summary.Errors),
		"partial", summary.Partial,
		"duration", summary.FinishedAt.Sub(summary.StartedAt),
	)

	return summary, nil
}

func (s *Sweeper) sweepOne(
	ctx context.Context,
	l *listing.Listing,
	tierCache map[string]subscription.Tier,
	summary *SweepSummary,
) {
	summary.Scanned++

	tier, ok := tierCache[l.UserID]
	if !ok {
		res, err := s.tiers.Resolve(ctx, l.UserID)
		if err != nil {
			s.recordError(summary, l.ID, fmt.Errorf("resolve tier: %w", err))
			return
		}
		tier = res.Tier
		tierCache[l.UserID] = tier
	}

	now := time.Now()
	ev := s.policy.Evaluate(l, tier, now)

	result, err := s.executor.Apply(ctx, l, tier, ev, now)
	if err != nil {
		// A listing deleted between page load and apply is not a
		// problem; someone else finished the job.
		if errors.Is(err, core.ErrNotFound) {
			return
		}
		s.recordError(summary, l.ID, err)
		return
	}

	if result.CascadeErr != nil {
		s.recordError(
			summary,
			l.ID,
			fmt.Errorf("favorite cascade: %w", result.CascadeErr),
		)
	}

	switch result.Applied {
	case VerdictArchiveNow:
		summary.Archived++
	case VerdictDeleteNow:
		summary.Deleted++
	case VerdictRestoreToActive:
		summary.Restored++
	}
}

func (s *Sweeper) recordError(summary *SweepSummary, listingID string, err error) {
	s.logger.Error("sweep item failed", "listing_id", listingID, "error", err)

	if len(summary.Errors) < s.maxErrors {
		summary.Errors = append(
			summary.Errors,
			fmt.Sprintf("%s: %v", listingID, err),
		)
	}
}

// FixListing runs one evaluate-and-apply cycle against a single
// listing and reports the full diagnostic, for support to unstick a
// listing without waiting for the next scheduled sweep.
func (s *Sweeper) FixListing(
	ctx context.Context,
	listingID string,
) (*FixResult, error) {
	l, err := s.listings.GetByID(ctx, listingID)
	if err != nil {
		return nil, fmt.Errorf("fix listing: %w", err)
	}

	res, err := s.tiers.Resolve(ctx, l.UserID)
	if err != nil {
		return nil, fmt.Errorf("fix listing: %w", err)
	}

	now := time.Now()
	ev := s.policy.Evaluate(l, res.Tier, now)

	result, err := s.executor.Apply(ctx, l, res.Tier, ev, now)
	if err != nil {
		return nil, fmt.Errorf("fix listing: %w", err)
	}

	fix := &FixResult{
		ListingID:    l.ID,
		StatusBefore: l.Status,
		StatusAfter:  l.Status,
		Tier:         res.Tier,
		Verdict:      ev.Verdict,
		Reason:       ev.Reason,
		Applied:      result.Applied,
	}

	if result.Applied == VerdictDeleteNow {
		fix.StatusAfter = "deleted"
		return fix, nil
	}

	after, err := s.listings.GetByID(ctx, listingID)
	if err == nil {
		fix.StatusAfter = after.Status
		resp := listing.ToListingResponse(after)
		fix.After = &resp
	}

	return fix, nil
}
