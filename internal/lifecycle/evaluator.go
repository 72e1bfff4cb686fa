// Waboku.gg | 2026
// evaluator.go

package lifecycle

import (
	"time"

	"github.com/aaandroiddd/waboku-api/internal/listing"
	"github.com/aaandroiddd/waboku-api/internal/subscription"
)

// Verdict is what the evaluator decided should happen to a listing.
type Verdict string

const (
	VerdictKeepActive      Verdict = "keep_active"
	VerdictArchiveNow      Verdict = "archive_now"
	VerdictDeleteNow       Verdict = "delete_now"
	VerdictRestoreToActive Verdict = "restore_to_active"
	VerdictNoAction        Verdict = "no_action"
)

// Evaluation pairs a verdict with a human-readable reason, which ends
// up in sweep logs and fix diagnostics.
type Evaluation struct {
	Verdict Verdict
	Reason  string
}

// Evaluate decides a listing's fate from its stored state, the owner's
// current tier, and the clock. It never touches the database, so the
// same inputs always produce the same verdict.
func (p *Policy) Evaluate(
	l *listing.Listing,
	tier subscription.Tier,
	now time.Time,
) Evaluation {
	switch l.Status {
	case listing.StatusActive:
		return p.evaluateActive(l, tier, now)
	case listing.StatusArchived:
		return p.evaluateArchived(l, tier, now)
	default:
		return Evaluation{
			Verdict: VerdictNoAction,
			Reason:  "status " + l.Status + " is not lifecycle-managed",
		}
	}
}

func (p *Policy) evaluateActive(
	l *listing.Listing,
	tier subscription.Tier,
	now time.Time,
) Evaluation {
	deadline := l.CreatedAt.Add(p.DurationFor(tier))
	if now.After(deadline) {
		return Evaluation{
			Verdict: VerdictArchiveNow,
			Reason:  "active window elapsed for tier " + string(tier),
		}
	}

	return Evaluation{
		Verdict: VerdictKeepActive,
		Reason:  "within active window",
	}
}

func (p *Policy) evaluateArchived(
	l *listing.Listing,
	tier subscription.Tier,
	now time.Time,
) Evaluation {
	// A premium owner whose listing was archived by the expiration
	// sweep gets it back, as long as the premium window still covers
	// it. Manually archived listings stay archived.
	if tier == subscription.TierPremium && l.ArchivedByExpiry() {
		premiumDeadline := l.CreatedAt.Add(p.DurationFor(subscription.TierPremium))
		if !now.After(premiumDeadline) {
			return Evaluation{
				Verdict: VerdictRestoreToActive,
				Reason:  "premium window covers listing archived as expired",
			}
		}
	}

	deleteAt := l.DeleteAt
	if deleteAt == nil && l.ArchivedAt != nil {
		fallback := l.ArchivedAt.Add(p.Retention())
		deleteAt = &fallback
	}

	// Rows from before the archival fields existed carry neither
	// timestamp. Treat them as overdue rather than immortal.
	if deleteAt == nil {
		return Evaluation{
			Verdict: VerdictDeleteNow,
			Reason:  "missing timestamps",
		}
	}

	if now.After(*deleteAt) {
		return Evaluation{
			Verdict: VerdictDeleteNow,
			Reason:  "retention period elapsed",
		}
	}

	return Evaluation{
		Verdict: VerdictNoAction,
		Reason:  "within retention period",
	}
}
