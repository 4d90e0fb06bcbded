// Ledgerline - Lending Webhook Ingestion and Partner Credit Ledger
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ledgerline

// Package models defines the persistent and wire-level data structures shared
// across the database, credit engine and API layers.
package models

import (
	"time"

	"github.com/google/uuid"
)

// Attribution lifecycle statuses. The ladder is monotonic: a later status
// implies every earlier one was reached.
const (
	StatusSubmitted    = "submitted"
	StatusIBVCompleted = "ibv_completed"
	StatusFunded       = "funded"
)

// Credit source types, one per rule. The pair (source_event_id, source_type)
// is the idempotency key of the ledger.
const (
	SourceApplicationSubmitted = "application_submitted"
	SourceIBVCompleted         = "ibv_completed"
	SourceFunded               = "funded"
)

// Attribution is a partner referral attribution: one client application tied
// to the partner whose link produced it. Created and status-transitioned by
// the application flow; the credit engine only ever reads it.
type Attribution struct {
	ID            uuid.UUID `json:"id"`
	PartnerID     string    `json:"partner_id"`
	ApplicationID string    `json:"application_id"`
	Status        string    `json:"status"`
	FundedAmount  float64   `json:"funded_amount,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// CreditEntry is one row of the append-only partner credit ledger.
//
// Invariant: at most one non-void entry exists per
// (SourceEventID, SourceType) pair. Entries are never deleted; an
// administrative reversal sets IsVoid, which excludes the entry from cap sums
// and balances and releases the idempotency key for legitimate re-issuance.
type CreditEntry struct {
	ID            uuid.UUID  `json:"id"`
	PartnerID     string     `json:"partner_id"`
	SourceEventID uuid.UUID  `json:"source_event_id"`
	SourceType    string     `json:"source_type"`
	CreditAmount  int64      `json:"credit_amount"`
	Reason        string     `json:"reason"`
	IsVoid        bool       `json:"is_void"`
	CreatedBy     string     `json:"created_by_system"`
	CreatedAt     time.Time  `json:"created_at"`
	VoidedAt      *time.Time `json:"voided_at,omitempty"`
}

// PartnerBalance is the aggregate a partner sees on their dashboard.
type PartnerBalance struct {
	PartnerID   string `json:"partner_id"`
	Total       int64  `json:"total"`
	WindowTotal int64  `json:"window_total"`
	WindowDays  int    `json:"window_days"`
}

// PartnerEvent is a lightweight tracking event (share, click, ...) reported
// by an authenticated partner. DuplicateCheckKey collapses repeats of the
// same partner/type/day/IP into one row.
type PartnerEvent struct {
	ID                uuid.UUID `json:"id"`
	PartnerID         string    `json:"partner_id"`
	EventType         string    `json:"event_type"`
	IPHash            string    `json:"ip_hash"`
	DuplicateCheckKey string    `json:"duplicate_check_key"`
	CreatedAt         time.Time `json:"created_at"`
}

// AdminUser is a dashboard operator account. Passwords are stored as bcrypt
// hashes only.
type AdminUser struct {
	ID           uuid.UUID `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}
