// Package common contains shared constants and sentinel errors used across
// liftsync components.
package common

import "time"

// ServiceName is the name reported by the health endpoint.
const ServiceName = "liftsync"

// Retry queue policy.
const (
	MaxQueueAttempts = 5
	BaseRetryDelay   = 1 * time.Second
	MaxRetryDelay    = 30 * time.Second
)

// Entitlement cache trust windows.
const (
	EntitlementStaleAfter = 7 * 24 * time.Hour
	EntitlementMaxAge     = 60 * 24 * time.Hour
)

// DefaultSyncInterval is the period of the background full sync.
const DefaultSyncInterval = 5 * time.Minute
