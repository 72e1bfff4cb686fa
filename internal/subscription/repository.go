// Waboku.gg | 2026
// repository.go

package subscription

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/aaandroiddd/waboku-api/internal/core"
)

type Repository interface {
	GetByUserID(ctx context.Context, userID string) (*Subscription, error)
	Upsert(ctx context.Context, sub *Subscription) error
	ListWithCachedTier(
		ctx context.Context,
		limit, offset int,
	) ([]CachedTierRow, error)
}

// CachedTierRow joins a user's cached tier column with their
// subscription record (if any) for the reconciliation scan.
type CachedTierRow struct {
	UserID           string         `db:"user_id"`
	CachedTier       string         `db:"cached_tier"`
	Status           sql.NullString `db:"status"`
	CurrentPeriodEnd sql.NullTime   `db:"current_period_end"`
}

func (row CachedTierRow) Record() *Subscription {
	if !row.Status.Valid {
		return nil
	}

	sub := &Subscription{
		UserID: row.UserID,
		Status: row.Status.String,
	}
	if row.CurrentPeriodEnd.Valid {
		end := row.CurrentPeriodEnd.Time
		sub.CurrentPeriodEnd = &end
	}
	return sub
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

func (r *repository) GetByUserID(
	ctx context.Context,
	userID string,
) (*Subscription, error) {
	query := `
		SELECT user_id, status, stripe_subscription_id,
		       current_period_end, created_at, updated_at
		FROM subscriptions
		WHERE user_id = $1`

	var sub Subscription
	err := r.db.GetContext(ctx, &sub, query, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get subscription: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get subscription: %w", err)
	}

	return &sub, nil
}

func (r *repository) Upsert(ctx context.Context, sub *Subscription) error {
	query := `
		INSERT INTO subscriptions (
			user_id, status, stripe_subscription_id, current_period_end
		) VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id) DO UPDATE
		SET status = EXCLUDED.status,
		    stripe_subscription_id = EXCLUDED.stripe_subscription_id,
		    current_period_end = EXCLUDED.current_period_end,
		    updated_at = NOW()
		RETURNING created_at, updated_at`

	err := r.db.GetContext(ctx, sub, query,
		sub.UserID,
		sub.Status,
		sub.StripeSubscriptionID,
		sub.CurrentPeriodEnd,
	)
	if err != nil {
		return fmt.Errorf("upsert subscription: %w", err)
	}

	return nil
}

func (r *repository) ListWithCachedTier(
	ctx context.Context,
	limit, offset int,
) ([]CachedTierRow, error) {
	query := `
		SELECT u.id AS user_id, u.tier AS cached_tier,
		       s.status, s.current_period_end
		FROM users u
		LEFT JOIN subscriptions s ON s.user_id = u.id
		WHERE u.deleted_at IS NULL
		ORDER BY u.id
		LIMIT $1 OFFSET $2`

	var rows []CachedTierRow
	if err := r.db.SelectContext(ctx, &rows, query, limit, offset); err != nil {
		return nil, fmt.Errorf("list cached tiers: %w", err)
	}

	return rows, nil
}
