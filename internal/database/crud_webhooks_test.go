// Ledgerline - Lending Webhook Ingestion and Partner Credit Ledger
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ledgerline

package database

import (
	"context"
	"testing"
	"time"

	"github.com/tomtom215/ledgerline/internal/models"
)

func insertTestWebhook(t *testing.T, db *DB, status, environment string, amount float64, receivedAt time.Time) {
	t.Helper()

	log := &models.WebhookLog{
		TransactionID:     "TXN-" + status,
		TransactionType:   "eft_funding",
		TransactionAmount: amount,
		Status:            status,
		Environment:       environment,
		IsValidated:       true,
		RawPayload:        `{"Status":"` + status + `"}`,
		ReceivedAt:        receivedAt,
	}
	if err := db.InsertWebhookLog(context.Background(), log); err != nil {
		t.Fatalf("insert webhook log: %v", err)
	}
}

func TestGetWebhookStats_ProductionOnly(t *testing.T) {
	db := setupTestDB(t)
	now := time.Now().UTC()

	insertTestWebhook(t, db, models.WebhookStatusSuccessful, models.EnvironmentProduction, 500, now)
	insertTestWebhook(t, db, models.WebhookStatusFailed, models.EnvironmentProduction, 0, now)
	// Sandbox traffic must not count
	insertTestWebhook(t, db, models.WebhookStatusSuccessful, "sandbox", 999, now)

	stats, err := db.GetWebhookStats(context.Background())
	if err != nil {
		t.Fatalf("GetWebhookStats: %v", err)
	}

	if stats.Today.Total != 2 {
		t.Errorf("Today.Total = %d, want 2", stats.Today.Total)
	}
	if stats.Today.Successful != 1 {
		t.Errorf("Today.Successful = %d, want 1", stats.Today.Successful)
	}
	if stats.Today.Failed != 1 {
		t.Errorf("Today.Failed = %d, want 1", stats.Today.Failed)
	}
	if stats.Today.Amount != 500 {
		t.Errorf("Today.Amount = %v, want 500", stats.Today.Amount)
	}
}

func TestGetWebhookStats_Periods(t *testing.T) {
	db := setupTestDB(t)
	now := time.Now().UTC()
	todayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	insertTestWebhook(t, db, models.WebhookStatusSuccessful, models.EnvironmentProduction, 100, todayStart.Add(time.Hour))
	insertTestWebhook(t, db, models.WebhookStatusSuccessful, models.EnvironmentProduction, 200, todayStart.Add(-12*time.Hour))
	insertTestWebhook(t, db, models.WebhookStatusSuccessful, models.EnvironmentProduction, 300, now.AddDate(0, 0, -10))
	insertTestWebhook(t, db, models.WebhookStatusSuccessful, models.EnvironmentProduction, 400, now.AddDate(0, 0, -60))

	stats, err := db.GetWebhookStats(context.Background())
	if err != nil {
		t.Fatalf("GetWebhookStats: %v", err)
	}

	if stats.Today.Total != 1 {
		t.Errorf("Today.Total = %d, want 1", stats.Today.Total)
	}
	if stats.Yesterday.Total != 1 {
		t.Errorf("Yesterday.Total = %d, want 1", stats.Yesterday.Total)
	}
	if stats.Last7d.Total != 2 {
		t.Errorf("Last7d.Total = %d, want 2", stats.Last7d.Total)
	}
	if stats.Last30d.Total != 3 {
		t.Errorf("Last30d.Total = %d, want 3", stats.Last30d.Total)
	}
	if stats.AllTime.Total != 4 {
		t.Errorf("AllTime.Total = %d, want 4", stats.AllTime.Total)
	}
}

func TestListWebhookLogs(t *testing.T) {
	db := setupTestDB(t)
	now := time.Now().UTC()

	insertTestWebhook(t, db, models.WebhookStatusPending, models.EnvironmentProduction, 100, now.Add(-time.Hour))
	insertTestWebhook(t, db, models.WebhookStatusSuccessful, models.EnvironmentProduction, 100, now)

	logs, err := db.ListWebhookLogs(context.Background(), 10, 0)
	if err != nil {
		t.Fatalf("ListWebhookLogs: %v", err)
	}
	if len(logs) != 2 {
		t.Fatalf("len(logs) = %d, want 2", len(logs))
	}
	if logs[0].Status != models.WebhookStatusSuccessful {
		t.Errorf("logs[0].Status = %q, want newest first", logs[0].Status)
	}
	if logs[0].RawPayload == "" {
		t.Error("RawPayload not persisted")
	}
}
