// Waboku.gg | 2026
// service_test.go

package favorite

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aaandroiddd/waboku-api/internal/core"
	"github.com/aaandroiddd/waboku-api/internal/listing"
)

type fakeFavoriteRepo struct {
	favorites map[string][]Favorite // listingID -> rows
	batches   []int
}

func newFakeFavoriteRepo() *fakeFavoriteRepo {
	return &fakeFavoriteRepo{favorites: make(map[string][]Favorite)}
}

func (f *fakeFavoriteRepo) seed(listingID string, count int) {
	for i := 0; i < count; i++ {
		f.favorites[listingID] = append(f.favorites[listingID], Favorite{
			UserID:    "user",
			ListingID: listingID,
			CreatedAt: time.Now(),
		})
	}
}

func (f *fakeFavoriteRepo) Add(_ context.Context, fav *Favorite) error {
	for _, existing := range f.favorites[fav.ListingID] {
		if existing.UserID == fav.UserID {
			return core.ErrDuplicateKey
		}
	}
	fav.CreatedAt = time.Now()
	f.favorites[fav.ListingID] = append(f.favorites[fav.ListingID], *fav)
	return nil
}

func (f *fakeFavoriteRepo) Remove(
	_ context.Context,
	userID, listingID string,
) error {
	rows := f.favorites[listingID]
	for i, existing := range rows {
		if existing.UserID == userID {
			f.favorites[listingID] = append(rows[:i], rows[i+1:]...)
			return nil
		}
	}
	return core.ErrNotFound
}

func (f *fakeFavoriteRepo) ListByUser(
	_ context.Context,
	userID string,
	limit, offset int,
) ([]Favorite, int, error) {
	var all []Favorite
	for _, rows := range f.favorites {
		for _, fav := range rows {
			if fav.UserID == userID {
				all = append(all, fav)
			}
		}
	}
	return all, len(all), nil
}

func (f *fakeFavoriteRepo) CountByListing(
	_ context.Context,
	listingID string,
) (int, error) {
	return len(f.favorites[listingID]), nil
}

func (f *fakeFavoriteRepo) DeleteBatchByListing(
	_ context.Context,
	listingID string,
	batchSize int,
) (int64, error) {
	rows := f.favorites[listingID]
	n := batchSize
	if n > len(rows) {
		n = len(rows)
	}
	f.favorites[listingID] = rows[n:]
	f.batches = append(f.batches, n)
	return int64(n), nil
}

type fakeListingSource struct {
	listings map[string]*listing.Listing
}

func (f *fakeListingSource) GetByID(
	_ context.Context,
	id string,
) (*listing.Listing, error) {
	l, ok := f.listings[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	return l, nil
}

func testFavoriteService(
	repo *fakeFavoriteRepo,
	listings *fakeListingSource,
	batchSize int,
) *Service {
	return NewService(repo, listings, batchSize, slog.New(slog.DiscardHandler))
}

func TestDeleteByListingBatches(t *testing.T) {
	repo := newFakeFavoriteRepo()
	repo.seed("l1", 1250)
	svc := testFavoriteService(repo, &fakeListingSource{}, 500)

	total, err := svc.DeleteByListing(context.Background(), "l1")
	require.NoError(t, err)

	assert.Equal(t, int64(1250), total)
	assert.Empty(t, repo.favorites["l1"])

	// 500 + 500 + 250; the short final batch ends the loop.
	assert.Equal(t, []int{500, 500, 250}, repo.batches)
}

func TestDeleteByListingExactMultipleOfBatch(t *testing.T) {
	repo := newFakeFavoriteRepo()
	repo.seed("l1", 1000)
	svc := testFavoriteService(repo, &fakeListingSource{}, 500)

	total, err := svc.DeleteByListing(context.Background(), "l1")
	require.NoError(t, err)

	assert.Equal(t, int64(1000), total)
	// A trailing empty batch confirms nothing was left behind.
	assert.Equal(t, []int{500, 500, 0}, repo.batches)
}

func TestDeleteByListingNoFavorites(t *testing.T) {
	repo := newFakeFavoriteRepo()
	svc := testFavoriteService(repo, &fakeListingSource{}, 500)

	total, err := svc.DeleteByListing(context.Background(), "l1")
	require.NoError(t, err)
	assert.Equal(t, int64(0), total)
}

func TestAddFavoriteRequiresVisibleListing(t *testing.T) {
	repo := newFakeFavoriteRepo()
	listings := &fakeListingSource{
		listings: map[string]*listing.Listing{
			"active":   {ID: "active", Status: listing.StatusActive},
			"archived": {ID: "archived", Status: listing.StatusArchived},
		},
	}
	svc := testFavoriteService(repo, listings, 500)

	fav, err := svc.AddFavorite(context.Background(), "u1", "active")
	require.NoError(t, err)
	assert.Equal(t, "active", fav.ListingID)

	_, err = svc.AddFavorite(context.Background(), "u1", "archived")
	assert.ErrorIs(t, err, core.ErrNotFound)

	_, err = svc.AddFavorite(context.Background(), "u1", "missing")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestAddFavoriteTwiceConflicts(t *testing.T) {
	repo := newFakeFavoriteRepo()
	listings := &fakeListingSource{
		listings: map[string]*listing.Listing{
			"l1": {ID: "l1", Status: listing.StatusActive},
		},
	}
	svc := testFavoriteService(repo, listings, 500)

	_, err := svc.AddFavorite(context.Background(), "u1", "l1")
	require.NoError(t, err)

	_, err = svc.AddFavorite(context.Background(), "u1", "l1")
	require.Error(t, err)
	assert.True(t, core.IsAppError(err))
}
