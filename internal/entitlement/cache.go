// Package entitlement answers "does this user have access" offline. The
// remote entitlement row is authoritative; a local cache keyed per user
// bridges offline periods within a bounded trust window.
package entitlement

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dmitrijs2005/liftsync/internal/common"
	"github.com/dmitrijs2005/liftsync/internal/logging"
	"github.com/dmitrijs2005/liftsync/internal/models"
	"github.com/dmitrijs2005/liftsync/internal/timex"
)

// KV is the key/value slot the cache persists into.
type KV interface {
	GetValue(ctx context.Context, key string) ([]byte, error)
	SetValue(ctx context.Context, key string, value []byte) error
}

// CachedEntitlement is a cache hit. PurchaseInfo is nil when the user was
// known to have no purchase.
type CachedEntitlement struct {
	UserID       string
	PurchaseInfo *models.PurchaseInfo
	CachedAt     time.Time
	Stale        bool
}

type entry struct {
	UserID       string               `json:"userId"`
	PurchaseInfo *models.PurchaseInfo `json:"purchaseInfo"`
	CachedAt     string               `json:"cachedAt"`
}

// Cache stores the last known purchase of each user.
type Cache struct {
	kv     KV
	logger logging.Logger
	now    timex.Clock
}

// NewCache constructs a Cache over kv.
func NewCache(kv KV, l logging.Logger, now timex.Clock) *Cache {
	return &Cache{kv: kv, logger: l.With("module", "entitlement_cache"), now: now}
}

func cacheKey(userID string) string {
	return "entitlement:" + userID
}

// Save records info, possibly nil, as the current purchase of userID.
func (c *Cache) Save(ctx context.Context, userID string, info *models.PurchaseInfo) error {
	b, err := json.Marshal(entry{
		UserID:       userID,
		PurchaseInfo: info,
		CachedAt:     c.now.Now().UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return fmt.Errorf("encode entitlement cache: %w", err)
	}
	if err := c.kv.SetValue(ctx, cacheKey(userID), b); err != nil {
		return fmt.Errorf("save entitlement cache: %w", err)
	}
	return nil
}

// Load returns the cached entry of userID, or nil on a miss. Entries of
// another user, unreadable entries and entries older than
// common.EntitlementMaxAge are misses; read failures are logged and treated
// as misses too.
func (c *Cache) Load(ctx context.Context, userID string) *CachedEntitlement {
	raw, err := c.kv.GetValue(ctx, cacheKey(userID))
	if err != nil {
		c.logger.Warn(ctx, "entitlement cache unreadable", "user_id", userID, "error", err)
		return nil
	}
	if raw == nil {
		return nil
	}

	var e entry
	if err := json.Unmarshal(raw, &e); err != nil {
		c.logger.Warn(ctx, "entitlement cache corrupt", "user_id", userID, "error", err)
		return nil
	}
	if e.UserID != userID {
		return nil
	}
	cachedAt, err := time.Parse(time.RFC3339Nano, e.CachedAt)
	if err != nil {
		c.logger.Warn(ctx, "entitlement cache has bad timestamp", "user_id", userID, "cached_at", e.CachedAt)
		return nil
	}

	age := c.now.Now().Sub(cachedAt)
	if age > common.EntitlementMaxAge {
		return nil
	}
	return &CachedEntitlement{
		UserID:       e.UserID,
		PurchaseInfo: e.PurchaseInfo,
		CachedAt:     cachedAt,
		Stale:        age > common.EntitlementStaleAfter,
	}
}

// IsPurchaseValid reports whether info grants access at now. Lifetime
// purchases and subscriptions without an expiry never lapse. Unknown
// purchase types grant nothing.
func IsPurchaseValid(info *models.PurchaseInfo, now time.Time) bool {
	if info == nil {
		return false
	}
	switch info.Type {
	case models.PurchaseLifetime:
		return true
	case models.PurchaseSubscription:
		return info.ExpiresAt == nil || info.ExpiresAt.After(now)
	default:
		return false
	}
}
