// Package common defines shared constants and sentinel errors used across
// the sync engine, the stores and the entitlement coordinator. Callers should
// use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Sync preconditions. Both short-circuit an operation before any network call.
	ErrNotConfigured = errors.New("not_configured")
	ErrOffline       = errors.New("offline")

	// Validation / item-specific errors.
	ErrUnknownCollection = errors.New("unknown collection")
	ErrUnknownOperation  = errors.New("unknown queue operation")
	ErrRecordMismatch    = errors.New("record does not belong to collection")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")
	ErrNoUserID     = errors.New("no user id")
)
