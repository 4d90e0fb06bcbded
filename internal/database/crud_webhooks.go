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

// InsertWebhookLog appends one received webhook delivery. The log is
// append-only; replays of the same transaction create new rows so the full
// delivery history is preserved.
func (db *DB) InsertWebhookLog(ctx context.Context, log *models.WebhookLog) error {
	if log.ID == uuid.Nil {
		log.ID = uuid.New()
	}
	if log.ReceivedAt.IsZero() {
		log.ReceivedAt = time.Now().UTC()
	}

	query := `INSERT INTO vopay_webhook_logs (
		id, transaction_id, transaction_type, transaction_amount,
		status, failure_reason, environment, is_validated, raw_payload, received_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	start := time.Now()
	_, err := db.conn.ExecContext(ctx, query,
		log.ID, log.TransactionID, log.TransactionType, log.TransactionAmount,
		log.Status, log.FailureReason, log.Environment, log.IsValidated,
		log.RawPayload, log.ReceivedAt,
	)
	observe("insert", "vopay_webhook_logs", start, err)
	if err != nil {
		return fmt.Errorf("failed to insert webhook log: %w", err)
	}

	return nil
}

// webhookCountsSince aggregates production deliveries in [from, to).
// A zero `to` means no upper bound.
func (db *DB) webhookCountsSince(ctx context.Context, from, to time.Time) (models.WebhookStatusCounts, error) {
	query := `SELECT
		COUNT(*),
		COALESCE(SUM(CASE WHEN status = 'successful' THEN 1 ELSE 0 END), 0),
		COALESCE(SUM(CASE WHEN status = 'failed' THEN 1 ELSE 0 END), 0),
		COALESCE(SUM(CASE WHEN status = 'pending' THEN 1 ELSE 0 END), 0),
		COALESCE(SUM(CASE WHEN status = 'in progress' THEN 1 ELSE 0 END), 0),
		COALESCE(SUM(CASE WHEN status = 'cancelled' THEN 1 ELSE 0 END), 0),
		COALESCE(SUM(CASE WHEN status = 'successful' THEN transaction_amount ELSE 0 END), 0)
		FROM vopay_webhook_logs
		WHERE environment = ? AND received_at >= ?`
	args := []interface{}{models.EnvironmentProduction, from}

	if !to.IsZero() {
		query += ` AND received_at < ?`
		args = append(args, to)
	}

	start := time.Now()
	var counts models.WebhookStatusCounts
	err := db.conn.QueryRowContext(ctx, query, args...).Scan(
		&counts.Total, &counts.Successful, &counts.Failed,
		&counts.Pending, &counts.InProgress, &counts.Cancelled,
		&counts.Amount,
	)
	observe("select", "vopay_webhook_logs", start, err)
	if err != nil {
		return counts, fmt.Errorf("failed to aggregate webhook counts: %w", err)
	}

	return counts, nil
}

// GetWebhookStats computes the admin dashboard aggregates. Only production
// deliveries count; sandbox traffic is logged but excluded here.
func (db *DB) GetWebhookStats(ctx context.Context) (*models.WebhookStats, error) {
	now := time.Now().UTC()
	todayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	yesterdayStart := todayStart.AddDate(0, 0, -1)

	stats := &models.WebhookStats{}
	var err error

	if stats.Today, err = db.webhookCountsSince(ctx, todayStart, time.Time{}); err != nil {
		return nil, err
	}
	if stats.Yesterday, err = db.webhookCountsSince(ctx, yesterdayStart, todayStart); err != nil {
		return nil, err
	}
	if stats.Last7d, err = db.webhookCountsSince(ctx, now.AddDate(0, 0, -7), time.Time{}); err != nil {
		return nil, err
	}
	if stats.Last30d, err = db.webhookCountsSince(ctx, now.AddDate(0, 0, -30), time.Time{}); err != nil {
		return nil, err
	}
	if stats.AllTime, err = db.webhookCountsSince(ctx, time.Time{}, time.Time{}); err != nil {
		return nil, err
	}

	return stats, nil
}

// ListWebhookLogs returns recent deliveries newest first, for the admin
// dashboard detail view.
func (db *DB) ListWebhookLogs(ctx context.Context, limit, offset int) ([]models.WebhookLog, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	query := `SELECT id, transaction_id, transaction_type, transaction_amount,
		status, failure_reason, environment, is_validated, raw_payload, received_at
		FROM vopay_webhook_logs ORDER BY received_at DESC LIMIT ? OFFSET ?`

	start := time.Now()
	rows, err := db.conn.QueryContext(ctx, query, limit, offset)
	observe("select", "vopay_webhook_logs", start, err)
	if err != nil {
		return nil, fmt.Errorf("failed to list webhook logs: %w", err)
	}
	defer closeQuietly(rows)

	var logs []models.WebhookLog
	for rows.Next() {
		var log models.WebhookLog
		if err := rows.Scan(
			&log.ID, &log.TransactionID, &log.TransactionType, &log.TransactionAmount,
			&log.Status, &log.FailureReason, &log.Environment, &log.IsValidated,
			&log.RawPayload, &log.ReceivedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan webhook log: %w", err)
		}
		logs = append(logs, log)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate webhook logs: %w", err)
	}

	return logs, nil
}
