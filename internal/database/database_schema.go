// Ledgerline - Lending Webhook Ingestion and Partner Credit Ledger
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ledgerline

/*
database_schema.go - Database Schema Management

This file manages the DuckDB database schema including table creation
and index management.

Tables:
  - partner_attributions: referral attributions (one client application per
    row, tied to the originating partner)
  - partner_credit_ledger: append-only credit ledger with a dedup_key column
    enforcing the (source_event_id, source_type) idempotency invariant
  - vopay_webhook_logs: append-only log of every received VoPay delivery
  - partner_events: lightweight partner tracking events with duplicate
    collapsing
  - admin_users: dashboard operator accounts (bcrypt password hashes)

Idempotency Strategy:
DuckDB does not support partial unique indexes, so uniqueness of non-void
ledger entries cannot be expressed as UNIQUE (source_event_id, source_type)
WHERE NOT is_void. Instead dedup_key carries "source_event_id:source_type"
while an entry is active and is rewritten to "void:<entry-id>" when the entry
is voided. The UNIQUE constraint on dedup_key then enforces exactly the
invariant we need and releases the key on void.

Schema Strategy (Pre-Release):
All columns are defined in the initial CREATE TABLE statement. After the
first public release, versioned migrations take over for additive changes.
*/

//nolint:staticcheck // File documentation, not package doc
package database

import (
	"context"
	"fmt"
	"time"
)

// schemaContext returns a context with timeout for schema operations
func schemaContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 60*time.Second)
}

// createTables creates the core database tables
func (db *DB) createTables() error {
	ctx, cancel := schemaContext()
	defer cancel()

	for _, query := range tableCreationQueries() {
		if _, err := db.conn.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to execute query: %s: %w", query, err)
		}
	}

	return nil
}

// tableCreationQueries returns the table creation SQL statements
func tableCreationQueries() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS partner_attributions (
			id UUID PRIMARY KEY,
			partner_id TEXT NOT NULL,
			application_id TEXT NOT NULL UNIQUE,
			status TEXT NOT NULL,
			funded_amount DOUBLE DEFAULT 0,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS partner_credit_ledger (
			id UUID PRIMARY KEY,
			partner_id TEXT NOT NULL,
			source_event_id UUID NOT NULL,
			source_type TEXT NOT NULL,
			credit_amount BIGINT NOT NULL,
			reason TEXT,
			is_void BOOLEAN NOT NULL DEFAULT FALSE,
			created_by_system TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			voided_at TIMESTAMP,
			-- "<source_event_id>:<source_type>" while active,
			-- "void:<id>" after a void releases the idempotency key
			dedup_key VARCHAR NOT NULL UNIQUE
		)`,

		`CREATE TABLE IF NOT EXISTS vopay_webhook_logs (
			id UUID PRIMARY KEY,
			transaction_id TEXT NOT NULL,
			transaction_type TEXT,
			transaction_amount DOUBLE DEFAULT 0,
			status TEXT NOT NULL,
			failure_reason TEXT,
			environment TEXT NOT NULL,
			is_validated BOOLEAN NOT NULL DEFAULT FALSE,
			raw_payload TEXT,
			received_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS partner_events (
			id UUID PRIMARY KEY,
			partner_id TEXT NOT NULL,
			event_type TEXT NOT NULL,
			ip_hash TEXT,
			duplicate_check_key VARCHAR NOT NULL UNIQUE,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS admin_users (
			id UUID PRIMARY KEY,
			username TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			role TEXT NOT NULL DEFAULT 'admin',
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
	}
}

// createIndexes creates indexes for frequent query patterns:
// cap-window sums, balance aggregation, webhook period stats and
// per-partner event rate limiting.
func (db *DB) createIndexes() error {
	ctx, cancel := schemaContext()
	defer cancel()

	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_ledger_partner_created
			ON partner_credit_ledger(partner_id, created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_ledger_source_event
			ON partner_credit_ledger(source_event_id)`,
		`CREATE INDEX IF NOT EXISTS idx_attributions_partner
			ON partner_attributions(partner_id)`,
		`CREATE INDEX IF NOT EXISTS idx_attributions_status
			ON partner_attributions(status)`,
		`CREATE INDEX IF NOT EXISTS idx_webhooks_received
			ON vopay_webhook_logs(received_at)`,
		`CREATE INDEX IF NOT EXISTS idx_webhooks_env_received
			ON vopay_webhook_logs(environment, received_at)`,
		`CREATE INDEX IF NOT EXISTS idx_events_partner_created
			ON partner_events(partner_id, created_at)`,
	}

	for _, query := range indexes {
		if _, err := db.conn.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to create index: %s: %w", query, err)
		}
	}

	return nil
}
