// Waboku.gg | 2026
// service_test.go

package subscription

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aaandroiddd/waboku-api/internal/core"
)

type fakeTierWriter struct {
	written map[string]string
	err     error
}

func newFakeTierWriter() *fakeTierWriter {
	return &fakeTierWriter{written: make(map[string]string)}
}

func (f *fakeTierWriter) SetCachedTier(
	_ context.Context,
	id, tier string,
) error {
	if f.err != nil {
		return f.err
	}
	f.written[id] = tier
	return nil
}

func testService(
	repo *fakeSubscriptionRepo,
	tiers *fakeTierWriter,
) *Service {
	return NewService(repo, tiers, slog.New(slog.DiscardHandler))
}

func TestApplyBillingEventUpserts(t *testing.T) {
	repo := &fakeSubscriptionRepo{}
	svc := testService(repo, newFakeTierWriter())

	periodEnd := time.Now().Add(720 * time.Hour)
	sub, err := svc.ApplyBillingEvent(context.Background(), BillingEvent{
		UserID:               "u1",
		Status:               StatusActive,
		StripeSubscriptionID: "sub_123",
		CurrentPeriodEnd:     &periodEnd,
	})
	require.NoError(t, err)

	assert.Equal(t, StatusActive, sub.Status)
	require.NotNil(t, repo.subs["u1"])
	assert.Equal(t, StatusActive, repo.subs["u1"].Status)
}

func TestApplyBillingEventRejectsUnknownStatus(t *testing.T) {
	svc := testService(&fakeSubscriptionRepo{}, newFakeTierWriter())

	_, err := svc.ApplyBillingEvent(context.Background(), BillingEvent{
		UserID: "u1",
		Status: "trialing",
	})
	assert.ErrorIs(t, err, core.ErrInvalidInput)
}

func TestReconcileTiersCorrectsDrift(t *testing.T) {
	future := time.Now().Add(72 * time.Hour)
	past := time.Now().Add(-72 * time.Hour)

	repo := &fakeSubscriptionRepo{
		rows: []CachedTierRow{
			// Cached free but active subscription: should be corrected.
			{
				UserID:     "u1",
				CachedTier: string(TierFree),
				Status:     sql.NullString{String: StatusActive, Valid: true},
			},
			// Cached premium but subscription lapsed: downgraded.
			{
				UserID:     "u2",
				CachedTier: string(TierPremium),
				Status:     sql.NullString{String: StatusCanceled, Valid: true},
				CurrentPeriodEnd: sql.NullTime{
					Time:  past,
					Valid: true,
				},
			},
			// Canceled but inside the paid period: premium is correct.
			{
				UserID:     "u3",
				CachedTier: string(TierPremium),
				Status:     sql.NullString{String: StatusCanceled, Valid: true},
				CurrentPeriodEnd: sql.NullTime{
					Time:  future,
					Valid: true,
				},
			},
			// No subscription record at all: free is correct.
			{UserID: "u4", CachedTier: string(TierFree)},
		},
	}
	tiers := newFakeTierWriter()
	svc := testService(repo, tiers)

	summary, err := svc.ReconcileTiers(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 4, summary.Scanned)
	assert.Equal(t, 2, summary.Corrected)
	assert.Equal(t, 0, summary.Errors)
	assert.False(t, summary.Partial)

	assert.Equal(t, string(TierPremium), tiers.written["u1"])
	assert.Equal(t, string(TierFree), tiers.written["u2"])
	assert.NotContains(t, tiers.written, "u3")
	assert.NotContains(t, tiers.written, "u4")
}

func TestReconcileTiersCountsWriteFailures(t *testing.T) {
	repo := &fakeSubscriptionRepo{
		rows: []CachedTierRow{
			{
				UserID:     "u1",
				CachedTier: string(TierFree),
				Status:     sql.NullString{String: StatusActive, Valid: true},
			},
		},
	}
	tiers := newFakeTierWriter()
	tiers.err = errors.New("users table locked")
	svc := testService(repo, tiers)

	summary, err := svc.ReconcileTiers(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Scanned)
	assert.Equal(t, 0, summary.Corrected)
	assert.Equal(t, 1, summary.Errors)
}
