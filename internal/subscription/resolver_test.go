// Waboku.gg | 2026
// resolver_test.go

package subscription

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aaandroiddd/waboku-api/internal/core"
)

type fakeSubscriptionRepo struct {
	subs map[string]*Subscription
	rows []CachedTierRow
	err  error
}

func (f *fakeSubscriptionRepo) GetByUserID(
	_ context.Context,
	userID string,
) (*Subscription, error) {
	if f.err != nil {
		return nil, f.err
	}
	sub, ok := f.subs[userID]
	if !ok {
		return nil, core.ErrNotFound
	}
	return sub, nil
}

func (f *fakeSubscriptionRepo) Upsert(
	_ context.Context,
	sub *Subscription,
) error {
	if f.err != nil {
		return f.err
	}
	if f.subs == nil {
		f.subs = make(map[string]*Subscription)
	}
	f.subs[sub.UserID] = sub
	return nil
}

func (f *fakeSubscriptionRepo) ListWithCachedTier(
	_ context.Context,
	limit, offset int,
) ([]CachedTierRow, error) {
	if f.err != nil {
		return nil, f.err
	}
	if offset >= len(f.rows) {
		return nil, nil
	}
	end := offset + limit
	if end > len(f.rows) {
		end = len(f.rows)
	}
	return f.rows[offset:end], nil
}

func TestTierFromRecord(t *testing.T) {
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	future := now.Add(72 * time.Hour)
	past := now.Add(-72 * time.Hour)

	tests := []struct {
		name string
		sub  *Subscription
		want Tier
	}{
		{"nil record", nil, TierFree},
		{"active", &Subscription{Status: StatusActive}, TierPremium},
		{
			"active with past period end still premium",
			&Subscription{Status: StatusActive, CurrentPeriodEnd: &past},
			TierPremium,
		},
		{
			"canceled inside paid period",
			&Subscription{Status: StatusCanceled, CurrentPeriodEnd: &future},
			TierPremium,
		},
		{
			"canceled past paid period",
			&Subscription{Status: StatusCanceled, CurrentPeriodEnd: &past},
			TierFree,
		},
		{
			"canceled without period end",
			&Subscription{Status: StatusCanceled},
			TierFree,
		},
		{
			"past due",
			&Subscription{Status: StatusPastDue, CurrentPeriodEnd: &future},
			TierFree,
		},
		{"none", &Subscription{Status: StatusNone}, TierFree},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TierFromRecord(tt.sub, now))
		})
	}
}

func TestResolverMissingRecordIsFreeDefault(t *testing.T) {
	resolver := NewResolver(&fakeSubscriptionRepo{})

	res, err := resolver.Resolve(context.Background(), "u1")
	require.NoError(t, err)

	assert.Equal(t, TierFree, res.Tier)
	assert.Equal(t, SourceDefault, res.Source)
}

func TestResolverActiveSubscription(t *testing.T) {
	resolver := NewResolver(&fakeSubscriptionRepo{
		subs: map[string]*Subscription{
			"u1": {UserID: "u1", Status: StatusActive},
		},
	})

	res, err := resolver.Resolve(context.Background(), "u1")
	require.NoError(t, err)

	assert.Equal(t, TierPremium, res.Tier)
	assert.Equal(t, SourceSubscription, res.Source)
}

func TestResolverEmptyUserID(t *testing.T) {
	resolver := NewResolver(&fakeSubscriptionRepo{})

	_, err := resolver.Resolve(context.Background(), "")
	assert.ErrorIs(t, err, core.ErrInvalidInput)
}

func TestResolverPropagatesStoreErrors(t *testing.T) {
	storeErr := errors.New("connection reset")
	resolver := NewResolver(&fakeSubscriptionRepo{err: storeErr})

	_, err := resolver.Resolve(context.Background(), "u1")
	assert.ErrorIs(t, err, storeErr)
}
