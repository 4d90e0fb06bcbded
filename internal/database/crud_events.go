// Ledgerline - Lending Webhook Ingestion and Partner Credit Ledger
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ledgerline

package database

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/ledgerline/internal/models"
)

// InsertPartnerEvent records a partner tracking event. The UNIQUE
// duplicate_check_key collapses repeats of the same partner/type/day/IP into
// one row; a collision returns ErrDuplicateEntry, which callers treat as a
// silent success.
func (db *DB) InsertPartnerEvent(ctx context.Context, event *models.PartnerEvent) error {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}

	query := `INSERT INTO partner_events (
		id, partner_id, event_type, ip_hash, duplicate_check_key, created_at
	) VALUES (?, ?, ?, ?, ?, ?)
	ON CONFLICT DO NOTHING`

	start := time.Now()
	result, err := db.conn.ExecContext(ctx, query,
		event.ID, event.PartnerID, event.EventType, event.IPHash,
		event.DuplicateCheckKey, event.CreatedAt,
	)
	observe("insert", "partner_events", start, err)
	if err != nil {
		return fmt.Errorf("failed to insert partner event: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check insert result: %w", err)
	}
	if rows == 0 {
		return ErrDuplicateEntry
	}

	return nil
}

// CountPartnerEventsSince counts events for one partner on or after the
// given time. Backs the per-partner sliding-window rate limiter.
func (db *DB) CountPartnerEventsSince(ctx context.Context, partnerID string, since time.Time) (int64, error) {
	query := `SELECT COUNT(*) FROM partner_events WHERE partner_id = ? AND created_at >= ?`

	start := time.Now()
	var count int64
	err := db.conn.QueryRowContext(ctx, query, partnerID, since).Scan(&count)
	observe("select", "partner_events", start, err)
	if err != nil {
		return 0, fmt.Errorf("failed to count partner events: %w", err)
	}

	return count, nil
}
