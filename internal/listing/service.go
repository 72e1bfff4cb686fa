// Waboku.gg | 2026
// service.go

package listing

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/aaandroiddd/waboku-api/internal/core"
	"github.com/aaandroiddd/waboku-api/internal/subscription"
)

// DurationPolicy is implemented by the lifecycle policy; the listing
// layer never computes tier windows itself.
type DurationPolicy interface {
	DurationFor(tier subscription.Tier) time.Duration
	Retention() time.Duration
}

type TierResolver interface {
	Resolve(
		ctx context.Context,
		userID string,
	) (subscription.Resolution, error)
}

// Cascader removes records that reference a listing once it is gone.
type Cascader interface {
	DeleteByListing(ctx context.Context, listingID string) (int64, error)
}

type Service struct {
	repo    Repository
	tiers   TierResolver
	policy  DurationPolicy
	cascade Cascader
	cache   *BrowseCache
	logger  *slog.Logger
}

func NewService(
	repo Repository,
	tiers TierResolver,
	policy DurationPolicy,
	cascade Cascader,
	cache *BrowseCache,
	logger *slog.Logger,
) *Service {
	return &Service{
		repo:    repo,
		tiers:   tiers,
		policy:  policy,
		cascade: cascade,
		cache:   cache,
		logger:  logger,
	}
}

func (s *Service) Create(
	ctx context.Context,
	userID string,
	req CreateListingRequest,
) (*Listing, error) {
	if userID == "" {
		return nil, fmt.Errorf("create listing: %w", core.ErrUnauthorized)
	}

	res, err := s.tiers.Resolve(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("create listing: %w", err)
	}

	expiresAt := time.Now().Add(s.policy.DurationFor(res.Tier))

	l := &Listing{
		ID:          uuid.New().String(),
		UserID:      userID,
		Title:       req.Title,
		Description: req.Description,
		Game:        req.Game,
		CardName:    req.CardName,
		Condition:   req.Condition,
		PriceCents:  req.PriceCents,
		Status:      StatusActive,
		ExpiresAt:   &expiresAt,
	}

	if err := s.repo.Create(ctx, l); err != nil {
		return nil, err
	}

	s.invalidateBrowse(ctx)

	return l, nil
}

// GetVisible returns a listing, hiding archived and inactive listings
// from everyone but their owner.
func (s *Service) GetVisible(
	ctx context.Context,
	id, requesterID string,
) (*Listing, error) {
	l, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if l.Status == StatusArchived || l.Status == StatusInactive {
		if requesterID == "" || requesterID != l.UserID {
			return nil, fmt.Errorf("get listing: %w", core.ErrNotFound)
		}
	}

	return l, nil
}

func (s *Service) UpdateOwned(
	ctx context.Context,
	id, userID string,
	req UpdateListingRequest,
) (*Listing, error) {
	l, err := s.ownedListing(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		l.Title = *req.Title
	}
	if req.Description != nil {
		l.Description = *req.Description
	}
	if req.CardName != nil {
		l.CardName = *req.CardName
	}
	if req.Condition != nil {
		l.Condition = *req.Condition
	}
	if req.PriceCents != nil {
		l.PriceCents = *req.PriceCents
	}

	if err := s.repo.Update(ctx, l); err != nil {
		return nil, err
	}

	if l.IsActive() {
		s.invalidateBrowse(ctx)
	}

	return l, nil
}

// DeleteOwned removes a listing at its owner's request and cascades
// favorite cleanup. Cascade failure does not undo the deletion; the
// orphaned favorites are cleaned up by a later sweep of the listing
// they point at.
func (s *Service) DeleteOwned(ctx context.Context, id, userID string) error {
	if _, err := s.ownedListing(ctx, id, userID); err != nil {
		return err
	}

	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return fmt.Errorf("delete listing: %w", core.ErrNotFound)
	}

	if _, err := s.cascade.DeleteByListing(ctx, id); err != nil {
		s.logger.Error("favorite cascade failed",
			"listing_id", id,
			"error", err,
		)
	}

	s.invalidateBrowse(ctx)

	return nil
}

// ArchiveOwned is the manual archive path. It snapshots the owner's
// tier and stamps the retention window just like the sweep does, but
// records a manual reason so the listing is not restoration-eligible.
func (s *Service) ArchiveOwned(
	ctx context.Context,
	id, userID string,
) (*Listing, error) {
	if _, err := s.ownedListing(ctx, id, userID); err != nil {
		return nil, err
	}

	res, err := s.tiers.Resolve(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("archive listing: %w", err)
	}

	now := time.Now()
	archived, err := s.repo.Archive(ctx, id, ArchiveParams{
		ArchivedAt:     now,
		DeleteAt:       now.Add(s.policy.Retention()),
		TierAtArchival: string(res.Tier),
		Reason:         ReasonManual,
	})
	if err != nil {
		return nil, err
	}
	if !archived {
		return nil, fmt.Errorf("archive listing: %w", core.ErrConflict)
	}

	s.invalidateBrowse(ctx)

	return s.repo.GetByID(ctx, id)
}

func (s *Service) MarkSoldOwned(
	ctx context.Context,
	id, userID string,
) (*Listing, error) {
	if _, err := s.ownedListing(ctx, id, userID); err != nil {
		return nil, err
	}

	sold, err := s.repo.MarkSold(ctx, id)
	if err != nil {
		return nil, err
	}
	if !sold {
		return nil, fmt.Errorf("mark listing sold: %w", core.ErrConflict)
	}

	s.invalidateBrowse(ctx)

	return s.repo.GetByID(ctx, id)
}

// ListPublic serves the browse surface: active listings only, with the
// first pages cached in redis.
func (s *Service) ListPublic(
	ctx context.Context,
	params ListListingsParams,
) ([]ListingResponse, int, error) {
	params.Status = StatusActive
	params.UserID = ""
	params.Normalize()

	if s.cache != nil {
		if page, ok := s.cache.Get(ctx, params); ok {
			return page.Listings, page.Total, nil
		}
	}

	listings, total, err := s.repo.List(ctx, params)
	if err != nil {
		return nil, 0, err
	}

	responses := ToListingResponseList(listings)
	if s.cache != nil {
		s.cache.Set(ctx, params, CachedPage{Listings: responses, Total: total})
	}

	return responses, total, nil
}

func (s *Service) ListMine(
	ctx context.Context,
	userID string,
	params ListListingsParams,
) ([]Listing, int, error) {
	if userID == "" {
		return nil, 0, fmt.Errorf("list listings: %w", core.ErrUnauthorized)
	}

	params.UserID = userID
	return s.repo.List(ctx, params)
}

func (s *Service) ownedListing(
	ctx context.Context,
	id, userID string,
) (*Listing, error) {
	l, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if l.UserID != userID {
		return nil, fmt.Errorf("listing ownership: %w", core.ErrForbidden)
	}

	return l, nil
}

func (s *Service) invalidateBrowse(ctx context.Context) {
	if s.cache == nil {
		return
	}
	s.cache.Invalidate(ctx)
}
