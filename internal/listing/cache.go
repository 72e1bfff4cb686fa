// Waboku.gg | 2026
// cache.go

package listing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/aaandroiddd/waboku-api/internal/core"
)

const (
	browseVersionKey = "listings:browse:version"
	browseCacheTTL   = 60 * time.Second
)

// BrowseCache caches public browse pages in redis. Invalidation bumps a
// version counter instead of scanning for keys, so stale pages simply
// age out under their TTL.
type BrowseCache struct {
	redis  *redis.Client
	logger *slog.Logger
}

type CachedPage struct {
	Listings []ListingResponse `json:"listings"`
	Total    int               `json:"total"`
}

func NewBrowseCache(client *redis.Client, logger *slog.Logger) *BrowseCache {
	return &BrowseCache{
		redis:  client,
		logger: logger,
	}
}

func (c *BrowseCache) Get(
	ctx context.Context,
	params ListListingsParams,
) (*CachedPage, bool) {
	key, err := c.pageKey(ctx, params)
	if err != nil {
		return nil, false
	}

	raw, err := c.redis.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("browse cache read failed", "error", err)
		}
		return nil, false
	}

	var page CachedPage
	if err := json.Unmarshal(raw, &page); err != nil {
		c.logger.Warn("browse cache decode failed", "error", err)
		return nil, false
	}

	return &page, true
}

func (c *BrowseCache) Set(
	ctx context.Context,
	params ListListingsParams,
	page CachedPage,
) {
	key, err := c.pageKey(ctx, params)
	if err != nil {
		return
	}

	raw, err := json.Marshal(page)
	if err != nil {
		return
	}

	if err := c.redis.Set(ctx, key, raw, browseCacheTTL).Err(); err != nil {
		c.logger.Warn("browse cache write failed", "error", err)
	}
}

// Invalidate bumps the version counter so every cached page key goes
// cold at once. Lifecycle transitions call this after mutating listing
// visibility.
func (c *BrowseCache) Invalidate(ctx context.Context) {
	err := core.Retry(ctx, core.DefaultRetry, func() error {
		return c.redis.Incr(ctx, browseVersionKey).Err()
	})
	if err != nil {
		c.logger.Warn("browse cache invalidation failed", "error", err)
	}
}

func (c *BrowseCache) pageKey(
	ctx context.Context,
	params ListListingsParams,
) (string, error) {
	version, err := c.redis.Get(ctx, browseVersionKey).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return "", fmt.Errorf("browse cache version: %w", err)
	}

	return fmt.Sprintf(
		"listings:browse:v%d:game=%s:page=%d:size=%d",
		version,
		params.Game,
		params.Page,
		params.PageSize,
	), nil
}
