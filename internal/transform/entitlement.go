package transform

import (
	"fmt"
	"time"

	"github.com/dmitrijs2005/liftsync/internal/models"
	"github.com/dmitrijs2005/liftsync/internal/repositories/remote"
)

// Entitlement table layout. One row per user, keyed by user_id.
const (
	EntitlementTable = "entitlements"
	EntitlementKey   = "user_id"
)

// EntitlementToRow maps a purchase to the remote entitlement row of userID.
func EntitlementToRow(userID string, info *models.PurchaseInfo, now time.Time) remote.Row {
	return remote.Row{
		"user_id":       userID,
		"tier":          info.Tier,
		"purchase_type": string(info.Type),
		"purchased_at":  info.PurchasedAt.UTC(),
		"expires_at":    optTime(info.ExpiresAt),
		"will_renew":    optBool(info.WillRenew),
		"product_id":    optString(info.ProductID),
		"updated_at":    now.UTC(),
	}
}

// EntitlementFromRow maps a remote entitlement row to a purchase.
func EntitlementFromRow(row remote.Row) (*models.PurchaseInfo, error) {
	r := &reader{row: row}
	info := &models.PurchaseInfo{
		Tier:        r.str("tier"),
		Type:        models.PurchaseType(r.str("purchase_type")),
		PurchasedAt: r.time("purchased_at"),
		ExpiresAt:   r.optTime("expires_at"),
		WillRenew:   r.optBool("will_renew"),
		ProductID:   r.str("product_id"),
	}
	if r.err != nil {
		return nil, fmt.Errorf("%s row: %w", EntitlementTable, r.err)
	}
	switch info.Type {
	case models.PurchaseLifetime, models.PurchaseSubscription:
	default:
		return nil, fmt.Errorf("%s row: unknown purchase type %q", EntitlementTable, info.Type)
	}
	return info, nil
}
