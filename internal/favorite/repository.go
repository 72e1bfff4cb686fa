// Waboku.gg | 2026
// repository.go

package favorite

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/aaandroiddd/waboku-api/internal/core"
)

type Repository interface {
	Add(ctx context.Context, f *Favorite) error
	Remove(ctx context.Context, userID, listingID string) error
	ListByUser(
		ctx context.Context,
		userID string,
		limit, offset int,
	) ([]Favorite, int, error)
	CountByListing(ctx context.Context, listingID string) (int, error)
	DeleteBatchByListing(
		ctx context.Context,
		listingID string,
		batchSize int,
	) (int64, error)
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

func (r *repository) Add(ctx context.Context, f *Favorite) error {
	query := `
		INSERT INTO favorites (user_id, listing_id)
		VALUES ($1, $2)
		RETURNING created_at`

	err := r.db.GetContext(ctx, &f.CreatedAt, query, f.UserID, f.ListingID)
	if err != nil {
		if isDuplicateKeyError(err) {
			return fmt.Errorf("add favorite: %w", core.ErrDuplicateKey)
		}
		if isForeignKeyError(err) {
			return fmt.Errorf("add favorite: %w", core.ErrNotFound)
		}
		return fmt.Errorf("add favorite: %w", err)
	}

	return nil
}

func (r *repository) Remove(
	ctx context.Context,
	userID, listingID string,
) error {
	result, err := r.db.ExecContext(
		ctx,
		`DELETE FROM favorites WHERE user_id = $1 AND listing_id = $2`,
		userID,
		listingID,
	)
	if err != nil {
		return fmt.Errorf("remove favorite: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("remove favorite: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("remove favorite: %w", core.ErrNotFound)
	}

	return nil
}

func (r *repository) ListByUser(
	ctx context.Context,
	userID string,
	limit, offset int,
) ([]Favorite, int, error) {
	var total int
	err := r.db.GetContext(
		ctx,
		&total,
		`SELECT COUNT(*) FROM favorites WHERE user_id = $1`,
		userID,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("count favorites: %w", err)
	}

	query := `
		SELECT user_id, listing_id, created_at
		FROM favorites
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`

	var favorites []Favorite
	err = r.db.SelectContext(ctx, &favorites, query, userID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list favorites: %w", err)
	}

	return favorites, total, nil
}

func (r *repository) CountByListing(
	ctx context.Context,
	listingID string,
) (int, error) {
	var total int
	err := r.db.GetContext(
		ctx,
		&total,
		`SELECT COUNT(*) FROM favorites WHERE listing_id = $1`,
		listingID,
	)
	if err != nil {
		return 0, fmt.Errorf("count favorites by listing: %w", err)
	}

	return total, nil
}

// DeleteBatchByListing removes up to batchSize favorite references to a
// listing and reports how many went. Callers loop until it returns
// zero; the bound keeps each statement inside the store's batch limit.
func (r *repository) DeleteBatchByListing(
	ctx context.Context,
	listingID string,
	batchSize int,
) (int64, error) {
	query := `
		DELETE FROM favorites
		WHERE (user_id, listing_id) IN (
			SELECT user_id, listing_id
			FROM favorites
			WHERE listing_id = $1
			LIMIT $2
		)`

	result, err := r.db.ExecContext(ctx, query, listingID, batchSize)
	if err != nil {
		return 0, fmt.Errorf("delete favorites batch: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete favorites batch: %w", err)
	}

	return rows, nil
}

func isDuplicateKeyError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

func isForeignKeyError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23503"
	}
	return false
}
