// Ledgerline - Lending Webhook Ingestion and Partner Credit Ledger
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ledgerline

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/ledgerline/internal/models"
)

// DedupKey builds the ledger idempotency key for an active entry.
func DedupKey(sourceEventID uuid.UUID, sourceType string) string {
	return fmt.Sprintf("%s:%s", sourceEventID, sourceType)
}

// InsertCreditEntry appends a ledger entry with duplicate handling.
//
// Uses INSERT ... ON CONFLICT DO NOTHING (DuckDB-native) against the UNIQUE
// dedup_key column, then checks RowsAffected: zero rows means another entry
// already holds the (source_event_id, source_type) key and ErrDuplicateEntry
// is returned. This makes the insert the single race-safe authority on
// idempotency; callers may pre-check ActiveEntryExists for a cheap fast path
// but must not rely on it.
func (db *DB) InsertCreditEntry(ctx context.Context, entry *models.CreditEntry) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	query := `INSERT INTO partner_credit_ledger (
		id, partner_id, source_event_id, source_type,
		credit_amount, reason, is_void, created_by_system,
		created_at, dedup_key
	) VALUES (?, ?, ?, ?, ?, ?, FALSE, ?, ?, ?)
	ON CONFLICT DO NOTHING`

	start := time.Now()
	result, err := db.conn.ExecContext(ctx, query,
		entry.ID, entry.PartnerID, entry.SourceEventID, entry.SourceType,
		entry.CreditAmount, entry.Reason, entry.CreatedBy,
		entry.CreatedAt, DedupKey(entry.SourceEventID, entry.SourceType),
	)
	observe("insert", "partner_credit_ledger", start, err)
	if err != nil {
		return fmt.Errorf("failed to insert credit entry: %w", err)
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

// ActiveEntryExists reports whether a non-void entry holds the given
// idempotency key.
func (db *DB) ActiveEntryExists(ctx context.Context, sourceEventID uuid.UUID, sourceType string) (bool, error) {
	query := `SELECT COUNT(*) FROM partner_credit_ledger WHERE dedup_key = ?`

	start := time.Now()
	var count int64
	err := db.conn.QueryRowContext(ctx, query, DedupKey(sourceEventID, sourceType)).Scan(&count)
	observe("select", "partner_credit_ledger", start, err)
	if err != nil {
		return false, fmt.Errorf("failed to check entry existence: %w", err)
	}

	return count > 0, nil
}

// WindowTotal sums non-void credits for a partner since the given time.
// Used by the cap enforcer; void entries never count toward the cap.
func (db *DB) WindowTotal(ctx context.Context, partnerID string, since time.Time) (int64, error) {
	query := `SELECT COALESCE(SUM(credit_amount), 0)
		FROM partner_credit_ledger
		WHERE partner_id = ? AND is_void = FALSE AND created_at >= ?`

	start := time.Now()
	var total int64
	err := db.conn.QueryRowContext(ctx, query, partnerID, since).Scan(&total)
	observe("select", "partner_credit_ledger", start, err)
	if err != nil {
		return 0, fmt.Errorf("failed to sum credit window: %w", err)
	}

	return total, nil
}

// GetPartnerBalance returns lifetime and rolling-window totals for a partner.
func (db *DB) GetPartnerBalance(ctx context.Context, partnerID string, windowDays int) (*models.PartnerBalance, error) {
	query := `SELECT
		COALESCE(SUM(credit_amount), 0) AS total,
		COALESCE(SUM(CASE WHEN created_at >= ? THEN credit_amount ELSE 0 END), 0) AS window_total
		FROM partner_credit_ledger
		WHERE partner_id = ? AND is_void = FALSE`

	since := time.Now().UTC().AddDate(0, 0, -windowDays)

	balance := &models.PartnerBalance{
		PartnerID:  partnerID,
		WindowDays: windowDays,
	}
	start := time.Now()
	err := db.conn.QueryRowContext(ctx, query, since, partnerID).Scan(&balance.Total, &balance.WindowTotal)
	observe("select", "partner_credit_ledger", start, err)
	if err != nil {
		return nil, fmt.Errorf("failed to compute partner balance: %w", err)
	}

	return balance, nil
}

// GetCreditEntry fetches a single ledger entry by ID.
func (db *DB) GetCreditEntry(ctx context.Context, id uuid.UUID) (*models.CreditEntry, error) {
	query := `SELECT id, partner_id, source_event_id, source_type,
		credit_amount, reason, is_void, created_by_system, created_at, voided_at
		FROM partner_credit_ledger WHERE id = ?`

	entry := &models.CreditEntry{}
	var reason sql.NullString
	var voidedAt sql.NullTime

	start := time.Now()
	err := db.conn.QueryRowContext(ctx, query, id).Scan(
		&entry.ID, &entry.PartnerID, &entry.SourceEventID, &entry.SourceType,
		&entry.CreditAmount, &reason, &entry.IsVoid, &entry.CreatedBy,
		&entry.CreatedAt, &voidedAt,
	)
	observe("select", "partner_credit_ledger", start, err)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch credit entry: %w", err)
	}

	entry.Reason = reason.String
	if voidedAt.Valid {
		t := voidedAt.Time
		entry.VoidedAt = &t
	}

	return entry, nil
}

// ListCreditEntries returns ledger entries newest first, optionally filtered
// to one partner. Void entries are included; they are part of the audit
// trail.
func (db *DB) ListCreditEntries(ctx context.Context, partnerID string, limit, offset int) ([]models.CreditEntry, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}

	query := `SELECT id, partner_id, source_event_id, source_type,
		credit_amount, reason, is_void, created_by_system, created_at, voided_at
		FROM partner_credit_ledger`
	args := []interface{}{}

	if partnerID != "" {
		query += ` WHERE partner_id = ?`
		args = append(args, partnerID)
	}
	query += ` ORDER BY created_at DESC LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	start := time.Now()
	rows, err := db.conn.QueryContext(ctx, query, args...)
	observe("select", "partner_credit_ledger", start, err)
	if err != nil {
		return nil, fmt.Errorf("failed to list credit entries: %w", err)
	}
	defer closeQuietly(rows)

	var entries []models.CreditEntry
	for rows.Next() {
		var entry models.CreditEntry
		var reason sql.NullString
		var voidedAt sql.NullTime

		if err := rows.Scan(
			&entry.ID, &entry.PartnerID, &entry.SourceEventID, &entry.SourceType,
			&entry.CreditAmount, &reason, &entry.IsVoid, &entry.CreatedBy,
			&entry.CreatedAt, &voidedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan credit entry: %w", err)
		}

		entry.Reason = reason.String
		if voidedAt.Valid {
			t := voidedAt.Time
			entry.VoidedAt = &t
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate credit entries: %w", err)
	}

	return entries, nil
}

// VoidCreditEntry marks an entry void and releases its idempotency key by
// rewriting dedup_key to "void:<id>". The entry stops counting toward caps
// and balances; a legitimate re-issue of the same source event can then
// insert a fresh entry.
//
// Returns ErrNotFound if the entry does not exist and ErrAlreadyVoid if it
// was voided before.
func (db *DB) VoidCreditEntry(ctx context.Context, id uuid.UUID, reason string) error {
	query := `UPDATE partner_credit_ledger
		SET is_void = TRUE,
			voided_at = ?,
			reason = CASE WHEN ? = '' THEN reason ELSE ? END,
			dedup_key = 'void:' || CAST(id AS VARCHAR)
		WHERE id = ? AND is_void = FALSE`

	start := time.Now()
	result, err := db.conn.ExecContext(ctx, query, time.Now().UTC(), reason, reason, id)
	observe("update", "partner_credit_ledger", start, err)
	if err != nil {
		return fmt.Errorf("failed to void credit entry: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check void result: %w", err)
	}
	if rows == 0 {
		// Distinguish missing from already-void for the API error taxonomy
		var isVoid bool
		err := db.conn.QueryRowContext(ctx,
			`SELECT is_void FROM partner_credit_ledger WHERE id = ?`, id).Scan(&isVoid)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to inspect credit entry: %w", err)
		}
		return ErrAlreadyVoid
	}

	return nil
}
