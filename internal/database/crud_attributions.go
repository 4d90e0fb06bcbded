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

// statusRank orders the attribution status ladder. Transitions may only move
// to a strictly higher rank.
var statusRank = map[string]int{
	models.StatusSubmitted:    1,
	models.StatusIBVCompleted: 2,
	models.StatusFunded:       3,
}

// StatusRank returns the position of a status on the ladder, or 0 for an
// unknown status.
func StatusRank(status string) int {
	return statusRank[status]
}

// InsertAttribution creates a new referral attribution. application_id is
// unique; a repeat submission for the same application returns
// ErrDuplicateEntry.
func (db *DB) InsertAttribution(ctx context.Context, attr *models.Attribution) error {
	if attr.ID == uuid.Nil {
		attr.ID = uuid.New()
	}
	now := time.Now().UTC()
	if attr.CreatedAt.IsZero() {
		attr.CreatedAt = now
	}
	attr.UpdatedAt = now
	if attr.Status == "" {
		attr.Status = models.StatusSubmitted
	}

	query := `INSERT INTO partner_attributions (
		id, partner_id, application_id, status, funded_amount, created_at, updated_at
	) VALUES (?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT DO NOTHING`

	start := time.Now()
	result, err := db.conn.ExecContext(ctx, query,
		attr.ID, attr.PartnerID, attr.ApplicationID, attr.Status,
		attr.FundedAmount, attr.CreatedAt, attr.UpdatedAt,
	)
	observe("insert", "partner_attributions", start, err)
	if err != nil {
		return fmt.Errorf("failed to insert attribution: %w", err)
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

// UpdateAttributionStatus advances an attribution up the status ladder.
// Moving sideways or backwards returns ErrInvalidTransition; the row is
// read and updated in one transaction so concurrent transitions cannot
// leapfrog each other.
func (db *DB) UpdateAttributionStatus(ctx context.Context, id uuid.UUID, status string, fundedAmount float64) error {
	newRank := StatusRank(status)
	if newRank == 0 {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidTransition, status)
	}

	start := time.Now()
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var current string
	err = tx.QueryRowContext(ctx,
		`SELECT status FROM partner_attributions WHERE id = ?`, id).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to fetch attribution status: %w", err)
	}

	if newRank <= StatusRank(current) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current, status)
	}

	if status == models.StatusFunded {
		_, err = tx.ExecContext(ctx,
			`UPDATE partner_attributions SET status = ?, funded_amount = ?, updated_at = ? WHERE id = ?`,
			status, fundedAmount, time.Now().UTC(), id)
	} else {
		_, err = tx.ExecContext(ctx,
			`UPDATE partner_attributions SET status = ?, updated_at = ? WHERE id = ?`,
			status, time.Now().UTC(), id)
	}
	if err != nil {
		return fmt.Errorf("failed to update attribution status: %w", err)
	}

	err = tx.Commit()
	observe("update", "partner_attributions", start, err)
	if err != nil {
		return fmt.Errorf("failed to commit status update: %w", err)
	}

	return nil
}

// GetAttribution fetches a single attribution by ID.
func (db *DB) GetAttribution(ctx context.Context, id uuid.UUID) (*models.Attribution, error) {
	query := `SELECT id, partner_id, application_id, status, funded_amount, created_at, updated_at
		FROM partner_attributions WHERE id = ?`

	attr := &models.Attribution{}
	start := time.Now()
	err := db.conn.QueryRowContext(ctx, query, id).Scan(
		&attr.ID, &attr.PartnerID, &attr.ApplicationID, &attr.Status,
		&attr.FundedAmount, &attr.CreatedAt, &attr.UpdatedAt,
	)
	observe("select", "partner_attributions", start, err)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch attribution: %w", err)
	}

	return attr, nil
}

// ListAttributions returns attributions newest first, optionally filtered to
// one partner. The credit engine calls this with partnerID empty to evaluate
// every attribution each run.
func (db *DB) ListAttributions(ctx context.Context, partnerID string, limit, offset int) ([]models.Attribution, error) {
	if limit <= 0 || limit > 1000 {
		limit = 500
	}
	if offset < 0 {
		offset = 0
	}

	query := `SELECT id, partner_id, application_id, status, funded_amount, created_at, updated_at
		FROM partner_attributions`
	args := []interface{}{}

	if partnerID != "" {
		query += ` WHERE partner_id = ?`
		args = append(args, partnerID)
	}
	query += ` ORDER BY created_at DESC LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	start := time.Now()
	rows, err := db.conn.QueryContext(ctx, query, args...)
	observe("select", "partner_attributions", start, err)
	if err != nil {
		return nil, fmt.Errorf("failed to list attributions: %w", err)
	}
	defer closeQuietly(rows)

	var attrs []models.Attribution
	for rows.Next() {
		var attr models.Attribution
		if err := rows.Scan(
			&attr.ID, &attr.PartnerID, &attr.ApplicationID, &attr.Status,
			&attr.FundedAmount, &attr.CreatedAt, &attr.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan attribution: %w", err)
		}
		attrs = append(attrs, attr)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate attributions: %w", err)
	}

	return attrs, nil
}

// ListAllAttributions returns every attribution without pagination. The
// credit engine evaluates the full population each run so that replays of
// earlier statuses are re-derived idempotently.
func (db *DB) ListAllAttributions(ctx context.Context) ([]models.Attribution, error) {
	query := `SELECT id, partner_id, application_id, status, funded_amount, created_at, updated_at
		FROM partner_attributions ORDER BY created_at ASC`

	start := time.Now()
	rows, err := db.conn.QueryContext(ctx, query)
	observe("select", "partner_attributions", start, err)
	if err != nil {
		return nil, fmt.Errorf("failed to list attributions: %w", err)
	}
	defer closeQuietly(rows)

	var attrs []models.Attribution
	for rows.Next() {
		var attr models.Attribution
		if err := rows.Scan(
			&attr.ID, &attr.PartnerID, &attr.ApplicationID, &attr.Status,
			&attr.FundedAmount, &attr.CreatedAt, &attr.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan attribution: %w", err)
		}
		attrs = append(attrs, attr)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate attributions: %w", err)
	}

	return attrs, nil
}
