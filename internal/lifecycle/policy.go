// Waboku.gg | 2026
// policy.go

package lifecycle

import (
	"time"

	"github.com/aaandroiddd/waboku-api/internal/config"
	"github.com/aaandroiddd/waboku-api/internal/subscription"
)

// Policy holds the tier duration windows and the archive retention
// period. It is the single authority for how long a listing lives;
// every component that needs a window asks the policy instead of
// hardcoding hours.
type Policy struct {
	freeDuration     time.Duration
	premiumDuration  time.Duration
	archiveRetention time.Duration
}

func NewPolicy(cfg config.LifecycleConfig) *Policy {
	return &Policy{
		freeDuration:     cfg.FreeDuration,
		premiumDuration:  cfg.PremiumDuration,
		archiveRetention: cfg.ArchiveRetention,
	}
}

// DurationFor returns the active window for a tier. Unknown tiers get
// the free window so a bad cached value can never extend a listing.
func (p *Policy) DurationFor(tier subscription.Tier) time.Duration {
	if tier == subscription.TierPremium {
		return p.premiumDuration
	}
	return p.freeDuration
}

// Retention returns how long an archived listing is kept before it is
// permanently deleted.
func (p *Policy) Retention() time.Duration {
	return p.archiveRetention
}
