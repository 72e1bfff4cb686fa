// Waboku.gg | 2026
// service_test.go

package listing

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aaandroiddd/waboku-api/internal/core"
	"github.com/aaandroiddd/waboku-api/internal/subscription"
)

type memRepo struct {
	listings map[string]*Listing
}

func newMemRepo() *memRepo {
	return &memRepo{listings: make(map[string]*Listing)}
}

func (r *memRepo) Create(_ context.Context, l *Listing) error {
	l.CreatedAt = time.Now()
	l.UpdatedAt = l.CreatedAt
	cp := *l
	r.listings[l.ID] = &cp
	return nil
}

func (r *memRepo) GetByID(_ context.Context, id string) (*Listing, error) {
	l, ok := r.listings[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	cp := *l
	return &cp, nil
}

func (r *memRepo) Update(_ context.Context, l *Listing) error {
	if _, ok := r.listings[l.ID]; !ok {
		return core.ErrNotFound
	}
	l.UpdatedAt = time.Now()
	cp := *l
	r.listings[l.ID] = &cp
	return nil
}

func (r *memRepo) Delete(_ context.Context, id string) (bool, error) {
	if _, ok := r.listings[id]; !ok {
		return false, nil
	}
	delete(r.listings, id)
	return true, nil
}

func (r *memRepo) List(
	_ context.Context,
	params ListListingsParams,
) ([]Listing, int, error) {
	var out []Listing
	for _, l := range r.listings {
		if params.Status != "" && l.Status != params.Status {
			continue
		}
		if params.UserID != "" && l.UserID != params.UserID {
			continue
		}
		out = append(out, *l)
	}
	return out, len(out), nil
}

func (r *memRepo) ListByStatus(
	_ context.Context,
	status string,
	limit, offset int,
) ([]Listing, error) {
	var out []Listing
	for _, l := range r.listings {
		if l.Status == status {
			out = append(out, *l)
		}
	}
	return out, nil
}

func (r *memRepo) Archive(
	_ context.Context,
	id string,
	p ArchiveParams,
) (bool, error) {
	l, ok := r.listings[id]
	if !ok || l.Status != StatusActive {
		return false, nil
	}
	l.Status = StatusArchived
	l.ArchivedAt = &p.ArchivedAt
	l.DeleteAt = &p.DeleteAt
	l.TierAtArchival = &p.TierAtArchival
	l.ExpirationReason = &p.Reason
	return true, nil
}

func (r *memRepo) Restore(
	_ context.Context,
	id string,
	expiresAt time.Time,
) (bool, error) {
	l, ok := r.listings[id]
	if !ok || l.Status != StatusArchived {
		return false, nil
	}
	l.Status = StatusActive
	l.ExpiresAt = &expiresAt
	l.ArchivedAt = nil
	l.DeleteAt = nil
	l.TierAtArchival = nil
	l.ExpirationReason = nil
	return true, nil
}

func (r *memRepo) DeleteArchived(_ context.Context, id string) (bool, error) {
	l, ok := r.listings[id]
	if !ok || l.Status != StatusArchived {
		return false, nil
	}
	delete(r.listings, id)
	return true, nil
}

func (r *memRepo) MarkSold(_ context.Context, id string) (bool, error) {
	l, ok := r.listings[id]
	if !ok || l.Status != StatusActive {
		return false, nil
	}
	l.Status = StatusSold
	return true, nil
}

func (r *memRepo) UpdateExpiry(
	_ context.Context,
	id string,
	expiresAt time.Time,
) error {
	l, ok := r.listings[id]
	if !ok {
		return core.ErrNotFound
	}
	l.ExpiresAt = &expiresAt
	return nil
}

type stubTiers struct {
	tiers map[string]subscription.Tier
}

func (s *stubTiers) Resolve(
	_ context.Context,
	userID string,
) (subscription.Resolution, error) {
	tier, ok := s.tiers[userID]
	if !ok {
		return subscription.Resolution{
			Tier:   subscription.TierFree,
			Source: subscription.SourceDefault,
		}, nil
	}
	return subscription.Resolution{
		Tier:   tier,
		Source: subscription.SourceSubscription,
	}, nil
}

type stubPolicy struct{}

func (stubPolicy) DurationFor(tier subscription.Tier) time.Duration {
	if tier == subscription.TierPremium {
		return 720 * time.Hour
	}
	return 48 * time.Hour
}

func (stubPolicy) Retention() time.Duration { return 168 * time.Hour }

type stubCascader struct {
	calls []string
}

func (c *stubCascader) DeleteByListing(
	_ context.Context,
	listingID string,
) (int64, error) {
	c.calls = append(c.calls, listingID)
	return 0, nil
}

func newTestService(repo *memRepo, tiers *stubTiers) (*Service, *stubCascader) {
	cascade := &stubCascader{}
	svc := NewService(
		repo,
		tiers,
		stubPolicy{},
		cascade,
		nil,
		slog.New(slog.DiscardHandler),
	)
	return svc, cascade
}

func createReq() CreateListingRequest {
	return CreateListingRequest{
		Title:      "Black Lotus",
		Game:       "mtg",
		CardName:   "Black Lotus",
		Condition:  "near_mint",
		PriceCents: 1_000_000,
	}
}

func TestCreateSetsExpiryFromTier(t *testing.T) {
	repo := newMemRepo()
	svc, _ := newTestService(repo, &stubTiers{
		tiers: map[string]subscription.Tier{
			"premium-user": subscription.TierPremium,
		},
	})

	free, err := svc.Create(context.Background(), "free-user", createReq())
	require.NoError(t, err)
	require.NotNil(t, free.ExpiresAt)
	assert.WithinDuration(
		t,
		time.Now().Add(48*time.Hour),
		*free.ExpiresAt,
		time.Minute,
	)

	premium, err := svc.Create(context.Background(), "premium-user", createReq())
	require.NoError(t, err)
	require.NotNil(t, premium.ExpiresAt)
	assert.WithinDuration(
		t,
		time.Now().Add(720*time.Hour),
		*premium.ExpiresAt,
		time.Minute,
	)
}

func TestGetVisibleHidesArchivedFromOthers(t *testing.T) {
	repo := newMemRepo()
	svc, _ := newTestService(repo, &stubTiers{})

	l, err := svc.Create(context.Background(), "owner", createReq())
	require.NoError(t, err)

	_, err = svc.ArchiveOwned(context.Background(), l.ID, "owner")
	require.NoError(t, err)

	_, err = svc.GetVisible(context.Background(), l.ID, "someone-else")
	assert.ErrorIs(t, err, core.ErrNotFound)

	_, err = svc.GetVisible(context.Background(), l.ID, "")
	assert.ErrorIs(t, err, core.ErrNotFound)

	got, err := svc.GetVisible(context.Background(), l.ID, "owner")
	require.NoError(t, err)
	assert.Equal(t, StatusArchived, got.Status)
}

func TestArchiveOwnedRecordsManualReason(t *testing.T) {
	repo := newMemRepo()
	svc, _ := newTestService(repo, &stubTiers{
		tiers: map[string]subscription.Tier{
			"owner": subscription.TierPremium,
		},
	})

	l, err := svc.Create(context.Background(), "owner", createReq())
	require.NoError(t, err)

	archived, err := svc.ArchiveOwned(context.Background(), l.ID, "owner")
	require.NoError(t, err)

	assert.Equal(t, StatusArchived, archived.Status)
	require.NotNil(t, archived.ExpirationReason)
	assert.Equal(t, ReasonManual, *archived.ExpirationReason)
	require.NotNil(t, archived.TierAtArchival)
	assert.Equal(t, string(subscription.TierPremium), *archived.TierAtArchival)
	require.NotNil(t, archived.DeleteAt)
	assert.Equal(
		t,
		168*time.Hour,
		archived.DeleteAt.Sub(*archived.ArchivedAt),
	)

	// Archiving again is a conflict, not a silent success.
	_, err = svc.ArchiveOwned(context.Background(), l.ID, "owner")
	assert.ErrorIs(t, err, core.ErrConflict)
}

func TestOwnershipIsEnforced(t *testing.T) {
	repo := newMemRepo()
	svc, _ := newTestService(repo, &stubTiers{})

	l, err := svc.Create(context.Background(), "owner", createReq())
	require.NoError(t, err)

	_, err = svc.ArchiveOwned(context.Background(), l.ID, "intruder")
	assert.ErrorIs(t, err, core.ErrForbidden)

	err = svc.DeleteOwned(context.Background(), l.ID, "intruder")
	assert.ErrorIs(t, err, core.ErrForbidden)

	_, err = svc.MarkSoldOwned(context.Background(), l.ID, "intruder")
	assert.ErrorIs(t, err, core.ErrForbidden)
}

func TestDeleteOwnedCascadesFavorites(t *testing.T) {
	repo := newMemRepo()
	svc, cascade := newTestService(repo, &stubTiers{})

	l, err := svc.Create(context.Background(), "owner", createReq())
	require.NoError(t, err)

	err = svc.DeleteOwned(context.Background(), l.ID, "owner")
	require.NoError(t, err)

	assert.Equal(t, []string{l.ID}, cascade.calls)
	_, err = repo.GetByID(context.Background(), l.ID)
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestMarkSoldOnlyFromActive(t *testing.T) {
	repo := newMemRepo()
	svc, _ := newTestService(repo, &stubTiers{})

	l, err := svc.Create(context.Background(), "owner", createReq())
	require.NoError(t, err)

	sold, err := svc.MarkSoldOwned(context.Background(), l.ID, "owner")
	require.NoError(t, err)
	assert.Equal(t, StatusSold, sold.Status)

	_, err = svc.MarkSoldOwned(context.Background(), l.ID, "owner")
	assert.ErrorIs(t, err, core.ErrConflict)
}
