// Waboku.gg | 2026
// entity.go

package user

import (
	"time"
)

// User.Tier is a cached denormalization of subscription state kept for
// display and rate limiting. The authoritative tier always comes from
// subscription.Resolver; only the tier reconciliation job writes this
// column back.
type User struct {
	ID           string     `db:"id"`
	Email        string     `db:"email"`
	PasswordHash string     `db:"password_hash"`
	Name         string     `db:"name"`
	Role         string     `db:"role"`
	Tier         string     `db:"tier"`
	TokenVersion int        `db:"token_version"`
	CreatedAt    time.Time  `db:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at"`
	DeletedAt    *time.Time `db:"deleted_at"`
}

func (u *User) IsDeleted() bool {
	return u.DeletedAt != nil
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

const (
	TierFree    = "free"
	TierPremium = "premium"
)
