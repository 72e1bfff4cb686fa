// Waboku.gg | 2026
// repository.go

package listing

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aaandroiddd/waboku-api/internal/core"
)

type Repository interface {
	Create(ctx context.Context, l *Listing) error
	GetByID(ctx context.Context, id string) (*Listing, error)
	Update(ctx context.Context, l *Listing) error
	Delete(ctx context.Context, id string) (bool, error)
	List(ctx context.Context, params ListListingsParams) ([]Listing, int, error)
	ListByStatus(
		ctx context.Context,
		status string,
		limit, offset int,
	) ([]Listing, error)

	// Lifecycle transitions. Each is a single conditional update guarded
	// by the listing's current status; a false return means another
	// sweep got there first, which callers treat as a no-op.
	Archive(ctx context.Context, id string, p ArchiveParams) (bool, error)
	Restore(ctx context.Context, id string, expiresAt time.Time) (bool, error)
	DeleteArchived(ctx context.Context, id string) (bool, error)
	MarkSold(ctx context.Context, id string) (bool, error)
	UpdateExpiry(ctx context.Context, id string, expiresAt time.Time) error
}

type ArchiveParams struct {
	ArchivedAt     time.Time
	DeleteAt       time.Time
	TierAtArchival string
	Reason         string
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

const listingColumns = `
	id, user_id, title, description, game, card_name, condition,
	price_cents, status, expires_at, archived_at, delete_at,
	tier_at_archival, expiration_reason, created_at, updated_at`

func (r *repository) Create(ctx context.Context, l *Listing) error {
	query := `
		INSERT INTO listings (
			id, user_id, title, description, game, card_name, condition,
			price_cents, status, expires_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at, updated_at`

	err := r.db.GetContext(ctx, l, query,
		l.ID,
		l.UserID,
		l.Title,
		l.Description,
		l.Game,
		l.CardName,
		l.Condition,
		l.PriceCents,
		l.Status,
		l.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("create listing: %w", err)
	}

	return nil
}

func (r *repository) GetByID(ctx context.Context, id string) (*Listing, error) {
	query := fmt.Sprintf(
		`SELECT %s FROM listings WHERE id = $1`,
		listingColumns,
	)

	var l Listing
	err := r.db.GetContext(ctx, &l, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get listing: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get listing: %w", err)
	}

	return &l, nil
}

func (r *repository) Update(ctx context.Context, l *Listing) error {
	query := `
		UPDATE listings
		SET title = $2, description = $3, card_name = $4, condition = $5,
		    price_cents = $6, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`

	err := r.db.GetContext(ctx, &l.UpdatedAt, query,
		l.ID,
		l.Title,
		l.Description,
		l.CardName,
		l.Condition,
		l.PriceCents,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("update listing: %w", core.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("update listing: %w", err)
	}

	return nil
}

func (r *repository) Delete(ctx context.Context, id string) (bool, error) {
	result, err := r.db.ExecContext(
		ctx,
		`DELETE FROM listings WHERE id = $1`,
		id,
	)
	if err != nil {
		return false, fmt.Errorf("delete listing: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete listing: %w", err)
	}

	return rows > 0, nil
}

func (r *repository) List(
	ctx context.Context,
	params ListListingsParams,
) ([]Listing, int, error) {
	params.Normalize()

	var conditions []string
	var args []any
	argIdx := 1

	if params.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argIdx))
		args = append(args, params.Status)
		argIdx++
	}

	if params.Game != "" {
		conditions = append(conditions, fmt.Sprintf("game = $%d", argIdx))
		args = append(args, params.Game)
		argIdx++
	}

	if params.UserID != "" {
		conditions = append(conditions, fmt.Sprintf("user_id = $%d", argIdx))
		args = append(args, params.UserID)
		argIdx++
	}

	whereClause := "TRUE"
	if len(conditions) > 0 {
		whereClause = strings.Join(conditions, " AND ")
	}

	countQuery := fmt.Sprintf(
		"SELECT COUNT(*) FROM listings WHERE %s",
		whereClause,
	)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count listings: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM listings
		WHERE %s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d`,
		listingColumns, whereClause, argIdx, argIdx+1)

	args = append(args, params.PageSize, params.Offset())

	var listings []Listing
	if err := r.db.SelectContext(ctx, &listings, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list listings: %w", err)
	}

	return listings, total, nil
}

// ListByStatus pages sweep candidates in stable id order so overlapping
// sweeps walk the same sequence.
func (r *repository) ListByStatus(
	ctx context.Context,
	status string,
	limit, offset int,
) ([]Listing, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM listings
		WHERE status = $1
		ORDER BY id
		LIMIT $2 OFFSET $3`,
		listingColumns)

	var listings []Listing
	err := r.db.SelectContext(ctx, &listings, query, status, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list listings by status: %w", err)
	}

	return listings, nil
}

func (r *repository) Archive(
	ctx context.Context,
	id string,
	p ArchiveParams,
) (bool, error) {
	query := `
		UPDATE listings
		SET status = 'archived', archived_at = $2, delete_at = $3,
		    tier_at_archival = $4, expiration_reason = $5,
		    updated_at = NOW()
		WHERE id = $1 AND status = 'active'`

	result, err := r.db.ExecContext(ctx, query,
		id,
		p.ArchivedAt,
		p.DeleteAt,
		p.TierAtArchival,
		p.Reason,
	)
	if err != nil {
		return false, fmt.Errorf("archive listing: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("archive listing: %w", err)
	}

	return rows > 0, nil
}

// Restore reactivates an archived listing and clears every
// archival-specific field; leaving any of them stale would confuse the
// next sweep's drift checks.
func (r *repository) Restore(
	ctx context.Context,
	id string,
	expiresAt time.Time,
) (bool, error) {
	query := `
		UPDATE listings
		SET status = 'active', expires_at = $2,
		    archived_at = NULL, delete_at = NULL,
		    tier_at_archival = NULL, expiration_reason = NULL,
		    updated_at = NOW()
		WHERE id = $1 AND status = 'archived'`

	result, err := r.db.ExecContext(ctx, query, id, expiresAt)
	if err != nil {
		return false, fmt.Errorf("restore listing: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("restore listing: %w", err)
	}

	return rows > 0, nil
}

func (r *repository) DeleteArchived(
	ctx context.Context,
	id string,
) (bool, error) {
	result, err := r.db.ExecContext(
		ctx,
		`DELETE FROM listings WHERE id = $1 AND status = 'archived'`,
		id,
	)
	if err != nil {
		return false, fmt.Errorf("delete archived listing: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete archived listing: %w", err)
	}

	return rows > 0, nil
}

func (r *repository) MarkSold(ctx context.Context, id string) (bool, error) {
	result, err := r.db.ExecContext(
		ctx,
		`UPDATE listings
		 SET status = 'sold', updated_at = NOW()
		 WHERE id = $1 AND status = 'active'`,
		id,
	)
	if err != nil {
		return false, fmt.Errorf("mark listing sold: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("mark listing sold: %w", err)
	}

	return rows > 0, nil
}

func (r *repository) UpdateExpiry(
	ctx context.Context,
	id string,
	expiresAt time.Time,
) error {
	result, err := r.db.ExecContext(
		ctx,
		`UPDATE listings
		 SET expires_at = $2, updated_at = NOW()
		 WHERE id = $1 AND status = 'active'`,
		id,
		expiresAt,
	)
	if err != nil {
		return fmt.Errorf("update listing expiry: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update listing expiry: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("update listing expiry: %w", core.ErrNotFound)
	}

	return nil
}
