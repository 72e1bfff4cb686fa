// Waboku.gg | 2026
// service.go

package favorite

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aaandroiddd/waboku-api/internal/core"
	"github.com/aaandroiddd/waboku-api/internal/listing"
)

// ListingSource is the slice of the listing layer favorites need.
type ListingSource interface {
	GetByID(ctx context.Context, id string) (*listing.Listing, error)
}

type Service struct {
	repo      Repository
	listings  ListingSource
	batchSize int
	logger    *slog.Logger
}

func NewService(
	repo Repository,
	listings ListingSource,
	batchSize int,
	logger *slog.Logger,
) *Service {
	return &Service{
		repo:      repo,
		listings:  listings,
		batchSize: batchSize,
		logger:    logger,
	}
}

func (s *Service) AddFavorite(
	ctx context.Context,
	userID, listingID string,
) (*Favorite, error) {
	l, err := s.listings.GetByID(ctx, listingID)
	if err != nil {
		return nil, fmt.Errorf("add favorite: %w", err)
	}

	if !l.IsActive() && l.Status != listing.StatusSold {
		return nil, fmt.Errorf("add favorite: %w", core.ErrNotFound)
	}

	f := &Favorite{
		UserID:    userID,
		ListingID: listingID,
	}

	if err := s.repo.Add(ctx, f); err != nil {
		if errors.Is(err, core.ErrDuplicateKey) {
			return nil, core.ConflictError("listing already favorited")
		}
		return nil, err
	}

	return f, nil
}

func (s *Service) RemoveFavorite(
	ctx context.Context,
	userID, listingID string,
) error {
	return s.repo.Remove(ctx, userID, listingID)
}

func (s *Service) ListFavorites(
	ctx context.Context,
	userID string,
	page, pageSize int,
) ([]Favorite, int, error) {
	offset := (page - 1) * pageSize
	return s.repo.ListByUser(ctx, userID, pageSize, offset)
}

// DeleteByListing purges every favorite pointing at a listing, in
// bounded batches so a heavily favorited listing cannot produce one
// giant statement. Returns the total rows removed.
func (s *Service) DeleteByListing(
	ctx context.Context,
	listingID string,
) (int64, error) {
	var total int64

	for {
		if err := ctx.Err(); err != nil {
			return total, fmt.Errorf("delete favorites by listing: %w", err)
		}

		deleted, err := s.repo.DeleteBatchByListing(ctx, listingID, s.batchSize)
		if err != nil {
			return total, err
		}

		total += deleted
		if deleted < int64(s.batchSize) {
			break
		}
	}

	if total > 0 {
		s.logger.Debug("favorites cascade complete",
			"listing_id", listingID,
			"deleted", total,
		)
	}

	return total, nil
}
