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

// UpsertAdminUser creates or updates a dashboard operator account.
// Called at startup to seed the configured admin credentials.
func (db *DB) UpsertAdminUser(ctx context.Context, user *models.AdminUser) error {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	if user.Role == "" {
		user.Role = "admin"
	}

	query := `INSERT INTO admin_users (id, username, password_hash, role, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (username) DO UPDATE SET
			password_hash = EXCLUDED.password_hash,
			role = EXCLUDED.role`

	start := time.Now()
	_, err := db.conn.ExecContext(ctx, query,
		user.ID, user.Username, user.PasswordHash, user.Role, user.CreatedAt,
	)
	observe("insert", "admin_users", start, err)
	if err != nil {
		return fmt.Errorf("failed to upsert admin user: %w", err)
	}

	return nil
}

// GetAdminUserByUsername fetches an operator account for login.
func (db *DB) GetAdminUserByUsername(ctx context.Context, username string) (*models.AdminUser, error) {
	query := `SELECT id, username, password_hash, role, created_at
		FROM admin_users WHERE username = ?`

	user := &models.AdminUser{}
	start := time.Now()
	err := db.conn.QueryRowContext(ctx, query, username).Scan(
		&user.ID, &user.Username, &user.PasswordHash, &user.Role, &user.CreatedAt,
	)
	observe("select", "admin_users", start, err)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch admin user: %w", err)
	}

	return user, nil
}
