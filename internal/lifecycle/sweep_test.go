// Waboku.gg | 2026
// sweep_test.go

package lifecycle

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aaandroiddd/waboku-api/internal/config"
	"github.com/aaandroiddd/waboku-api/internal/core"
	"github.com/aaandroiddd/waboku-api/internal/listing"
	"github.com/aaandroiddd/waboku-api/internal/subscription"
)

// fakeListingRepo mirrors the conditional-update semantics of the real
// repository over an in-memory map.
type fakeListingRepo struct {
	listings map[string]*listing.Listing
}

func newFakeListingRepo(ls ...*listing.Listing) *fakeListingRepo {
	repo := &fakeListingRepo{listings: make(map[string]*listing.Listing)}
	for _, l := range ls {
		cp := *l
		repo.listings[l.ID] = &cp
	}
	return repo
}

func (r *fakeListingRepo) Create(_ context.Context, l *listing.Listing) error {
	cp := *l
	r.listings[l.ID] = &cp
	return nil
}

func (r *fakeListingRepo) GetByID(
	_ context.Context,
	id string,
) (*listing.Listing, error) {
	l, ok := r.listings[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	cp := *l
	return &cp, nil
}

func (r *fakeListingRepo) Update(_ context.Context, l *listing.Listing) error {
	if _, ok := r.listings[l.ID]; !ok {
		return core.ErrNotFound
	}
	cp := *l
	r.listings[l.ID] = &cp
	return nil
}

func (r *fakeListingRepo) Delete(_ context.Context, id string) (bool, error) {
	if _, ok := r.listings[id]; !ok {
		return false, nil
	}
	delete(r.listings, id)
	return true, nil
}

func (r *fakeListingRepo) List(
	_ context.Context,
	_ listing.ListListingsParams,
) ([]listing.Listing, int, error) {
	return nil, 0, nil
}

func (r *fakeListingRepo) ListByStatus(
	_ context.Context,
	status string,
	limit, offset int,
) ([]listing.Listing, error) {
	var ids []string
	for id, l := range r.listings {
		if l.Status == status {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)

	var page []listing.Listing
	for i := offset; i < len(ids) && len(page) < limit; i++ {
		page = append(page, *r.listings[ids[i]])
	}
	return page, nil
}

func (r *fakeListingRepo) Archive(
	_ context.Context,
	id string,
	p listing.ArchiveParams,
) (bool, error) {
	l, ok := r.listings[id]
	if !ok || l.Status != listing.StatusActive {
		return false, nil
	}
	l.Status = listing.StatusArchived
	l.ArchivedAt = &p.ArchivedAt
	l.DeleteAt = &p.DeleteAt
	l.TierAtArchival = &p.TierAtArchival
	l.ExpirationReason = &p.Reason
	return true, nil
}

func (r *fakeListingRepo) Restore(
	_ context.Context,
	id string,
	expiresAt time.Time,
) (bool, error) {
	l, ok := r.listings[id]
	if !ok || l.Status != listing.StatusArchived {
		return false, nil
	}
	l.Status = listing.StatusActive
	l.ExpiresAt = &expiresAt
	l.ArchivedAt = nil
	l.DeleteAt = nil
	l.TierAtArchival = nil
	l.ExpirationReason = nil
	return true, nil
}

func (r *fakeListingRepo) DeleteArchived(
	_ context.Context,
	id string,
) (bool, error) {
	l, ok := r.listings[id]
	if !ok || l.Status != listing.StatusArchived {
		return false, nil
	}
	delete(r.listings, id)
	return true, nil
}

func (r *fakeListingRepo) MarkSold(_ context.Context, id string) (bool, error) {
	l, ok := r.listings[id]
	if !ok || l.Status != listing.StatusActive {
		return false, nil
	}
	l.Status = listing.StatusSold
	return true, nil
}

func (r *fakeListingRepo) UpdateExpiry(
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

type fakeTierResolver struct {
	tiers map[string]subscription.Tier
	calls map[string]int
	err   error
}

func newFakeTierResolver(tiers map[string]subscription.Tier) *fakeTierResolver {
	return &fakeTierResolver{tiers: tiers, calls: make(map[string]int)}
}

func (f *fakeTierResolver) Resolve(
	_ context.Context,
	userID string,
) (subscription.Resolution, error) {
	f.calls[userID]++
	if f.err != nil {
		return subscription.Resolution{}, f.err
	}

	tier, ok := f.tiers[userID]
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

type fakeCascader struct {
	deleted map[string]int64
	err     error
}

func newFakeCascader() *fakeCascader {
	return &fakeCascader{deleted: make(map[string]int64)}
}

func (f *fakeCascader) DeleteByListing(
	_ context.Context,
	listingID string,
) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	f.deleted[listingID] = 3
	return 3, nil
}

func testSweeper(
	repo *fakeListingRepo,
	tiers *fakeTierResolver,
	cascade *fakeCascader,
) *Sweeper {
	cfg := config.LifecycleConfig{
		FreeDuration:     48 * time.Hour,
		PremiumDuration:  720 * time.Hour,
		ArchiveRetention: 168 * time.Hour,
		SweepPageSize:    2,
		SweepTimeout:     25 * time.Second,
		CascadeBatchSize: 500,
		MaxSweepErrors:   3,
	}
	logger := slog.New(slog.DiscardHandler)
	policy := NewPolicy(cfg)
	executor := NewExecutor(repo, cascade, nil, policy, logger)
	return NewSweeper(repo, tiers, executor, policy, cfg, logger)
}

func activeListing(id, userID string, age time.Duration) *listing.Listing {
	createdAt := time.Now().Add(-age)
	expiresAt := createdAt.Add(48 * time.Hour)
	return &listing.Listing{
		ID:        id,
		UserID:    userID,
		Status:    listing.StatusActive,
		CreatedAt: createdAt,
		ExpiresAt: &expiresAt,
	}
}

func archivedListing(
	id, userID, reason string,
	age, sinceArchive time.Duration,
) *listing.Listing {
	l := activeListing(id, userID, age)
	l.Status = listing.StatusArchived
	archivedAt := time.Now().Add(-sinceArchive)
	deleteAt := archivedAt.Add(168 * time.Hour)
	l.ArchivedAt = &archivedAt
	l.DeleteAt = &deleteAt
	l.ExpirationReason = &reason
	return l
}

func TestRunSweepArchivesExpired(t *testing.T) {
	repo := newFakeListingRepo(
		activeListing("l1", "u1", 49*time.Hour),
		activeListing("l2", "u1", 50*time.Hour),
		activeListing("l3", "u2", time.Hour),
	)
	tiers := newFakeTierResolver(nil)
	sweeper := testSweeper(repo, tiers, newFakeCascader())

	summary, err := sweeper.RunSweep(context.Background(), listing.StatusActive)
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Archived)
	assert.Equal(t, 0, summary.Deleted)
	assert.False(t, summary.Partial)
	assert.Empty(t, summary.Errors)

	for _, id := range []string{"l1", "l2"} {
		l, err := repo.GetByID(context.Background(), id)
		require.NoError(t, err)
		assert.Equal(t, listing.StatusArchived, l.Status)
		require.NotNil(t, l.ArchivedAt)
		require.NotNil(t, l.DeleteAt)
		require.NotNil(t, l.TierAtArchival)
		require.NotNil(t, l.ExpirationReason)
		assert.Equal(t, listing.ReasonExpired, *l.ExpirationReason)
		assert.Equal(t, string(subscription.TierFree), *l.TierAtArchival)
		assert.Equal(
			t,
			168*time.Hour,
			l.DeleteAt.Sub(*l.ArchivedAt),
		)
	}

	l3, err := repo.GetByID(context.Background(), "l3")
	require.NoError(t, err)
	assert.Equal(t, listing.StatusActive, l3.Status)
}

func TestRunSweepIsIdempotent(t *testing.T) {
	repo := newFakeListingRepo(
		activeListing("l1", "u1", 49*time.Hour),
		activeListing("l2", "u2", time.Hour),
	)
	sweeper := testSweeper(repo, newFakeTierResolver(nil), newFakeCascader())

	first, err := sweeper.RunSweep(context.Background(), listing.StatusActive)
	require.NoError(t, err)
	assert.Equal(t, 1, first.Archived)

	second, err := sweeper.RunSweep(context.Background(), listing.StatusActive)
	require.NoError(t, err)
	assert.Equal(t, 0, second.Archived)
	assert.Equal(t, 1, second.Scanned)
}

func TestRunSweepDeletesPastRetentionAndCascades(t *testing.T) {
	repo := newFakeListingRepo(
		archivedListing("l1", "u1", listing.ReasonExpired, 400*time.Hour, 169*time.Hour),
		archivedListing("l2", "u1", listing.ReasonManual, 400*time.Hour, time.Hour),
	)
	cascade := newFakeCascader()
	sweeper := testSweeper(repo, newFakeTierResolver(nil), cascade)

	summary, err := sweeper.RunSweep(context.Background(), listing.StatusArchived)
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Scanned)
	assert.Equal(t, 1, summary.Deleted)

	_, err = repo.GetByID(context.Background(), "l1")
	assert.ErrorIs(t, err, core.ErrNotFound)
	assert.Equal(t, int64(3), cascade.deleted["l1"])

	l2, err := repo.GetByID(context.Background(), "l2")
	require.NoError(t, err)
	assert.Equal(t, listing.StatusArchived, l2.Status)
}

func TestRunSweepRestoresPremium(t *testing.T) {
	repo := newFakeListingRepo(
		archivedListing("l1", "u1", listing.ReasonExpired, 100*time.Hour, time.Hour),
	)
	tiers := newFakeTierResolver(map[string]subscription.Tier{
		"u1": subscription.TierPremium,
	})
	sweeper := testSweeper(repo, tiers, newFakeCascader())

	summary, err := sweeper.RunSweep(context.Background(), listing.StatusArchived)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Restored)

	l, err := repo.GetByID(context.Background(), "l1")
	require.NoError(t, err)
	assert.Equal(t, listing.StatusActive, l.Status)
	require.NotNil(t, l.ExpiresAt)
	assert.True(t, l.ExpiresAt.After(time.Now()))

	// Restore must clear every archival field, not just the status.
	assert.Nil(t, l.ArchivedAt)
	assert.Nil(t, l.DeleteAt)
	assert.Nil(t, l.TierAtArchival)
	assert.Nil(t, l.ExpirationReason)
}

func TestRunSweepResolvesTierOncePerOwner(t *testing.T) {
	repo := newFakeListingRepo(
		activeListing("l1", "u1", 49*time.Hour),
		activeListing("l2", "u1", 50*time.Hour),
		activeListing("l3", "u1", 51*time.Hour),
	)
	tiers := newFakeTierResolver(nil)
	sweeper := testSweeper(repo, tiers, newFakeCascader())

	_, err := sweeper.RunSweep(context.Background(), listing.StatusActive)
	require.NoError(t, err)

	assert.Equal(t, 1, tiers.calls["u1"])
}

func TestRunSweepReconcilesExpiryAfterTierChange(t *testing.T) {
	// Created under free, owner upgraded to premium: still inside the
	// premium window, so the sweep keeps it and refreshes expires_at.
	l := activeListing("l1", "u1", 49*time.Hour)
	repo := newFakeListingRepo(l)
	tiers := newFakeTierResolver(map[string]subscription.Tier{
		"u1": subscription.TierPremium,
	})
	sweeper := testSweeper(repo, tiers, newFakeCascader())

	summary, err := sweeper.RunSweep(context.Background(), listing.StatusActive)
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Archived)

	got, err := repo.GetByID(context.Background(), "l1")
	require.NoError(t, err)
	assert.Equal(t, listing.StatusActive, got.Status)
	require.NotNil(t, got.ExpiresAt)
	assert.Equal(t, l.CreatedAt.Add(720*time.Hour), *got.ExpiresAt)
}

func TestRunSweepCapsReportedErrors(t *testing.T) {
	listings := []*listing.Listing{
		activeListing("l1", "u1", 49*time.Hour),
		activeListing("l2", "u2", 49*time.Hour),
		activeListing("l3", "u3", 49*time.Hour),
		activeListing("l4", "u4", 49*time.Hour),
		activeListing("l5", "u5", 49*time.Hour),
	}
	repo := newFakeListingRepo(listings...)

	tiers := newFakeTierResolver(nil)
	tiers.err = errors.New("subscription store down")
	sweeper := testSweeper(repo, tiers, newFakeCascader())

	summary, err := sweeper.RunSweep(context.Background(), listing.StatusActive)
	require.NoError(t, err)

	assert.Equal(t, 5, summary.Scanned)
	assert.Equal(t, 0, summary.Archived)
	assert.Len(t, summary.Errors, 3)
}

func TestRunSweepCascadeFailureKeepsDeletion(t *testing.T) {
	repo := newFakeListingRepo(
		archivedListing("l1", "u1", listing.ReasonExpired, 400*time.Hour, 169*time.Hour),
	)
	cascade := newFakeCascader()
	cascade.err = errors.New("favorites table locked")
	sweeper := testSweeper(repo, newFakeTierResolver(nil), cascade)

	summary, err := sweeper.RunSweep(context.Background(), listing.StatusArchived)
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Deleted)
	assert.Len(t, summary.Errors, 1)

	_, err = repo.GetByID(context.Background(), "l1")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestRunSweepRejectsUnknownStatus(t *testing.T) {
	sweeper := testSweeper(
		newFakeListingRepo(),
		newFakeTierResolver(nil),
		newFakeCascader(),
	)

	_, err := sweeper.RunSweep(context.Background(), "pending")
	assert.ErrorIs(t, err, core.ErrInvalidInput)
}

func TestApplyLostRaceIsNoAction(t *testing.T) {
	repo := newFakeListingRepo(
		activeListing("l1", "u1", 49*time.Hour),
	)
	cfg := config.LifecycleConfig{
		FreeDuration:     48 * time.Hour,
		PremiumDuration:  720 * time.Hour,
		ArchiveRetention: 168 * time.Hour,
	}
	policy := NewPolicy(cfg)
	executor := NewExecutor(
		repo,
		newFakeCascader(),
		nil,
		policy,
		slog.New(slog.DiscardHandler),
	)

	l, err := repo.GetByID(context.Background(), "l1")
	require.NoError(t, err)

	now := time.Now()
	ev := policy.Evaluate(l, subscription.TierFree, now)
	require.Equal(t, VerdictArchiveNow, ev.Verdict)

	// Another sweep archives it between evaluate and apply.
	_, err = repo.Archive(context.Background(), "l1", listing.ArchiveParams{
		ArchivedAt:     now,
		DeleteAt:       now.Add(168 * time.Hour),
		TierAtArchival: string(subscription.TierFree),
		Reason:         listing.ReasonExpired,
	})
	require.NoError(t, err)

	result, err := executor.Apply(
		context.Background(),
		l,
		subscription.TierFree,
		ev,
		now,
	)
	require.NoError(t, err)
	assert.Equal(t, VerdictNoAction, result.Applied)
}

func TestFixListingDiagnostic(t *testing.T) {
	repo := newFakeListingRepo(
		activeListing("l1", "u1", 49*time.Hour),
	)
	sweeper := testSweeper(repo, newFakeTierResolver(nil), newFakeCascader())

	fix, err := sweeper.FixListing(context.Background(), "l1")
	require.NoError(t, err)

	assert.Equal(t, listing.StatusActive, fix.StatusBefore)
	assert.Equal(t, listing.StatusArchived, fix.StatusAfter)
	assert.Equal(t, VerdictArchiveNow, fix.Verdict)
	assert.Equal(t, VerdictArchiveNow, fix.Applied)
	require.NotNil(t, fix.After)
	assert.Equal(t, listing.StatusArchived, fix.After.Status)
}

func TestFixListingNotFound(t *testing.T) {
	sweeper := testSweeper(
		newFakeListingRepo(),
		newFakeTierResolver(nil),
		newFakeCascader(),
	)

	_, err := sweeper.FixListing(context.Background(), "nope")
	assert.ErrorIs(t, err, core.ErrNotFound)
}
