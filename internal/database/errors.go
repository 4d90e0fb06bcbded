// Ledgerline - Lending Webhook Ingestion and Partner Credit Ledger
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ledgerline

package database

import (
	"errors"
	"io"
)

// Sentinel errors returned by the data access layer. Callers match these with
// errors.Is to distinguish business outcomes from genuine store failures.
var (
	// ErrNotFound indicates the requested row does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrDuplicateEntry indicates an insert collided with an existing
	// idempotency or duplicate-check key.
	ErrDuplicateEntry = errors.New("duplicate entry")

	// ErrAlreadyVoid indicates a void was requested for an entry that is
	// already void.
	ErrAlreadyVoid = errors.New("entry already void")

	// ErrInvalidTransition indicates an attribution status update that would
	// move backwards down the status ladder.
	ErrInvalidTransition = errors.New("invalid status transition")
)

// closeQuietly closes a resource and explicitly ignores any error
// Use this for cleanup operations in error paths where Close() errors are not actionable
// Satisfies errcheck linter by explicitly acknowledging the ignored error
func closeQuietly(closer io.Closer) {
	if closer != nil {
		_ = closer.Close() // Explicitly ignore error - cleanup is best-effort
	}
}
