// Package common defines sentinel errors shared across the terminal and
// server layers. Callers match them with errors.Is.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors.
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")

	// Register errors.
	ErrorClosureNotOpen = errors.New("no open cash closure")
	ErrorClosureUnknown = errors.New("referenced closure not known")
	ErrorClosureOpen    = errors.New("cash closure already open")

	// Sync errors.
	ErrorSyncInFlight = errors.New("sync cycle already in flight")

	// Auth errors.
	ErrInvalidToken = errors.New("invalid token")
	ErrInvalidPIN   = errors.New("invalid pin")
)
