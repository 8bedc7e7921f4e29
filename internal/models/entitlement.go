package models

import "time"

// PurchaseType distinguishes one-off and recurring purchases.
type PurchaseType string

const (
	PurchaseLifetime     PurchaseType = "lifetime"
	PurchaseSubscription PurchaseType = "subscription"
)

// PurchaseInfo is the user's purchase tier and its validity window. Times
// serialize as RFC 3339 strings.
type PurchaseInfo struct {
	Tier        string       `json:"tier"`
	Type        PurchaseType `json:"type"`
	PurchasedAt time.Time    `json:"purchasedAt"`
	ExpiresAt   *time.Time   `json:"expiresAt"`
	WillRenew   *bool        `json:"willRenew,omitempty"`
	ProductID   string       `json:"productId,omitempty"`
}
