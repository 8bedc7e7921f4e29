package entitlement

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/liftsync/internal/connectivity"
	"github.com/dmitrijs2005/liftsync/internal/logging"
	"github.com/dmitrijs2005/liftsync/internal/models"
	"github.com/dmitrijs2005/liftsync/internal/repositories/remote"
	"github.com/dmitrijs2005/liftsync/internal/timex"
	"github.com/dmitrijs2005/liftsync/internal/transform"
)

// Source tells where a Lookup answer came from.
type Source string

const (
	SourceRemote Source = "remote"
	SourceCache  Source = "cache"
	SourceNone   Source = "none"
)

// Lookup is the answer of GetEntitlement. Info is nil when the user has no
// valid purchase. Stale is set for cache answers older than
// common.EntitlementStaleAfter; callers may refresh in the background.
type Lookup struct {
	Info   *models.PurchaseInfo
	Source Source
	Stale  bool
}

// Coordinator reads and writes the entitlement of a user through the remote
// store, falling back to the cache.
type Coordinator struct {
	remote remote.Store
	conn   connectivity.Checker
	cache  *Cache
	logger logging.Logger
	now    timex.Clock
}

// NewCoordinator constructs a Coordinator. A nil rs means no remote store is
// configured and every lookup is answered from the cache.
func NewCoordinator(rs remote.Store, conn connectivity.Checker, cache *Cache, l logging.Logger, now timex.Clock) *Coordinator {
	return &Coordinator{
		remote: rs,
		conn:   conn,
		cache:  cache,
		logger: l.With("module", "entitlement"),
		now:    now,
	}
}

func (c *Coordinator) online() bool {
	return c.remote != nil && c.conn.Online()
}

// fetch reads the remote row of userID. A nil info with a nil error means
// the user has no row.
func (c *Coordinator) fetch(ctx context.Context, userID string) (*models.PurchaseInfo, error) {
	rows, err := c.remote.Select(ctx, transform.EntitlementTable, remote.Filter{UserID: userID})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return transform.EntitlementFromRow(rows[0])
}

// GetEntitlement returns the valid purchase of userID, if any. Online, the
// remote row is read and cached as-is; a failed read falls back to the cache.
func (c *Coordinator) GetEntitlement(ctx context.Context, userID string) Lookup {
	if c.online() {
		info, err := c.fetch(ctx, userID)
		if err == nil {
			if err := c.cache.Save(ctx, userID, info); err != nil {
				c.logger.Warn(ctx, "failed to cache entitlement", "user_id", userID, "error", err)
			}
			return Lookup{Info: c.valid(info), Source: SourceRemote}
		}
		c.logger.Warn(ctx, "entitlement fetch failed, using cache", "user_id", userID, "error", err)
	}
	return c.fromCache(ctx, userID)
}

func (c *Coordinator) fromCache(ctx context.Context, userID string) Lookup {
	hit := c.cache.Load(ctx, userID)
	if hit == nil {
		return Lookup{Source: SourceNone}
	}
	return Lookup{Info: c.valid(hit.PurchaseInfo), Source: SourceCache, Stale: hit.Stale}
}

func (c *Coordinator) valid(info *models.PurchaseInfo) *models.PurchaseInfo {
	if IsPurchaseValid(info, c.now.Now()) {
		return info
	}
	return nil
}

// SyncToRemote caches info and, when online, upserts it remotely. The remote
// write is best-effort: failures are logged and not returned.
func (c *Coordinator) SyncToRemote(ctx context.Context, userID string, info *models.PurchaseInfo) error {
	if err := c.cache.Save(ctx, userID, info); err != nil {
		return err
	}
	if info == nil || !c.online() {
		return nil
	}

	row := transform.EntitlementToRow(userID, info, c.now.Now())
	if err := c.remote.Upsert(ctx, transform.EntitlementTable, transform.EntitlementKey, []remote.Row{row}); err != nil {
		c.logger.Warn(ctx, "failed to sync entitlement", "user_id", userID, "error", err)
	}
	return nil
}

// RefreshFromRemote re-reads the remote row of userID and updates the cache.
// Offline it returns nil without consulting the cache.
func (c *Coordinator) RefreshFromRemote(ctx context.Context, userID string) (*models.PurchaseInfo, error) {
	if !c.online() {
		return nil, nil
	}
	info, err := c.fetch(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("refresh entitlement: %w", err)
	}
	if err := c.cache.Save(ctx, userID, info); err != nil {
		return nil, err
	}
	return c.valid(info), nil
}
