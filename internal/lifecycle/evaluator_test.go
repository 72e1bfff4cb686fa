// Waboku.gg | 2026
// evaluator_test.go

package lifecycle

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/aaandroiddd/waboku-api/internal/config"
	"github.com/aaandroiddd/waboku-api/internal/listing"
	"github.com/aaandroiddd/waboku-api/internal/subscription"
)

func testPolicy() *Policy {
	return NewPolicy(config.LifecycleConfig{
		FreeDuration:     48 * time.Hour,
		PremiumDuration:  720 * time.Hour,
		ArchiveRetention: 168 * time.Hour,
	})
}

func strPtr(s string) *string { return &s }

func timePtr(t time.Time) *time.Time { return &t }

func TestPolicyDurationFor(t *testing.T) {
	p := testPolicy()

	assert.Equal(t, 48*time.Hour, p.DurationFor(subscription.TierFree))
	assert.Equal(t, 720*time.Hour, p.DurationFor(subscription.TierPremium))

	// Garbage tiers must not extend a listing's life.
	assert.Equal(t, 48*time.Hour, p.DurationFor(subscription.Tier("gold")))
	assert.Equal(t, 48*time.Hour, p.DurationFor(subscription.Tier("")))
}

func TestEvaluateActive(t *testing.T) {
	p := testPolicy()
	createdAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		tier    subscription.Tier
		elapsed time.Duration
		want    Verdict
	}{
		{"free within window", subscription.TierFree, 47 * time.Hour, VerdictKeepActive},
		{"free exactly at deadline", subscription.TierFree, 48 * time.Hour, VerdictKeepActive},
		{"free past window", subscription.TierFree, 49 * time.Hour, VerdictArchiveNow},
		{"premium at free deadline", subscription.TierPremium, 49 * time.Hour, VerdictKeepActive},
		{"premium past premium window", subscription.TierPremium, 721 * time.Hour, VerdictArchiveNow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := &listing.Listing{
				Status:    listing.StatusActive,
				CreatedAt: createdAt,
			}

			ev := p.Evaluate(l, tt.tier, createdAt.Add(tt.elapsed))
			assert.Equal(t, tt.want, ev.Verdict)
		})
	}
}

func TestEvaluateArchived(t *testing.T) {
	p := testPolicy()
	createdAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	archivedAt := createdAt.Add(48 * time.Hour)

	tests := []struct {
		name       string
		tier       subscription.Tier
		listing    listing.Listing
		now        time.Time
		want       Verdict
		wantReason string
	}{
		{
			name: "premium restores sweep-archived listing inside window",
			tier: subscription.TierPremium,
			listing: listing.Listing{
				Status:           listing.StatusArchived,
				CreatedAt:        createdAt,
				ArchivedAt:       timePtr(archivedAt),
				DeleteAt:         timePtr(archivedAt.Add(168 * time.Hour)),
				ExpirationReason: strPtr(listing.ReasonExpired),
			},
			now:  archivedAt.Add(time.Hour),
			want: VerdictRestoreToActive,
		},
		{
			name: "premium does not restore manually archived listing",
			tier: subscription.TierPremium,
			listing: listing.Listing{
				Status:           listing.StatusArchived,
				CreatedAt:        createdAt,
				ArchivedAt:       timePtr(archivedAt),
				DeleteAt:         timePtr(archivedAt.Add(168 * time.Hour)),
				ExpirationReason: strPtr(listing.ReasonManual),
			},
			now:  archivedAt.Add(time.Hour),
			want: VerdictNoAction,
		},
		{
			name: "premium past its own window does not restore",
			tier: subscription.TierPremium,
			listing: listing.Listing{
				Status:           listing.StatusArchived,
				CreatedAt:        createdAt,
				ArchivedAt:       timePtr(archivedAt),
				DeleteAt:         timePtr(createdAt.Add(721 * time.Hour)),
				ExpirationReason: strPtr(listing.ReasonExpired),
			},
			now:  createdAt.Add(722 * time.Hour),
			want: VerdictDeleteNow,
		},
		{
			name: "free tier never restores",
			tier: subscription.TierFree,
			listing: listing.Listing{
				Status:           listing.StatusArchived,
				CreatedAt:        createdAt,
				ArchivedAt:       timePtr(archivedAt),
				DeleteAt:         timePtr(archivedAt.Add(168 * time.Hour)),
				ExpirationReason: strPtr(listing.ReasonExpired),
			},
			now:  archivedAt.Add(time.Hour),
			want: VerdictNoAction,
		},
		{
			name: "within retention holds",
			tier: subscription.TierFree,
			listing: listing.Listing{
				Status:     listing.StatusArchived,
				CreatedAt:  createdAt,
				ArchivedAt: timePtr(archivedAt),
				DeleteAt:   timePtr(archivedAt.Add(168 * time.Hour)),
			},
			now:  archivedAt.Add(167 * time.Hour),
			want: VerdictNoAction,
		},
		{
			name: "past delete_at deletes",
			tier: subscription.TierFree,
			listing: listing.Listing{
				Status:     listing.StatusArchived,
				CreatedAt:  createdAt,
				ArchivedAt: timePtr(archivedAt),
				DeleteAt:   timePtr(archivedAt.Add(168 * time.Hour)),
			},
			now:  archivedAt.Add(169 * time.Hour),
			want: VerdictDeleteNow,
		},
		{
			name: "missing delete_at falls back to archived_at plus retention",
			tier: subscription.TierFree,
			listing: listing.Listing{
				Status:     listing.StatusArchived,
				CreatedAt:  createdAt,
				ArchivedAt: timePtr(archivedAt),
			},
			now:  archivedAt.Add(169 * time.Hour),
			want: VerdictDeleteNow,
		},
		{
			name: "missing delete_at within fallback holds",
			tier: subscription.TierFree,
			listing: listing.Listing{
				Status:     listing.StatusArchived,
				CreatedAt:  createdAt,
				ArchivedAt: timePtr(archivedAt),
			},
			now:  archivedAt.Add(100 * time.Hour),
			want: VerdictNoAction,
		},
		{
			name: "both timestamps missing deletes immediately",
			tier: subscription.TierFree,
			listing: listing.Listing{
				Status:    listing.StatusArchived,
				CreatedAt: createdAt,
			},
			now:        archivedAt,
			want:       VerdictDeleteNow,
			wantReason: "missing timestamps",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := tt.listing
			ev := p.Evaluate(&l, tt.tier, tt.now)

			assert.Equal(t, tt.want, ev.Verdict)
			if tt.wantReason != "" {
				assert.Equal(t, tt.wantReason, ev.Reason)
			}
		})
	}
}

func TestEvaluateTerminalStatuses(t *testing.T) {
	p := testPolicy()
	createdAt := time.Now().Add(-1000 * time.Hour)

	for _, status := range []string{listing.StatusSold, listing.StatusInactive} {
		l := &listing.Listing{Status: status, CreatedAt: createdAt}

		ev := p.Evaluate(l, subscription.TierFree, time.Now())
		assert.Equal(t, VerdictNoAction, ev.Verdict, "status %s", status)
	}
}
