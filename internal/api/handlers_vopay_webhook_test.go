// Ledgerline - Lending Webhook Ingestion and Partner Credit Ledger
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ledgerline

package api

import (
	"context"
	"crypto/hmac"
	"crypto/sha1" //nolint:gosec // matches the provider's signing scheme
	"encoding/hex"
	"net/http"
	"testing"

	"github.com/goccy/go-json"

	"github.com/tomtom215/ledgerline/internal/models"
)

// signTransaction computes the ValidationKey VoPay would send.
func signTransaction(transactionID, secret string) string {
	mac := hmac.New(sha1.New, []byte(secret))
	mac.Write([]byte(transactionID))
	return hex.EncodeToString(mac.Sum(nil))
}

func testWebhookPayload(transactionID, secret string) models.VoPayWebhook {
	return models.VoPayWebhook{
		Success:           true,
		TransactionType:   "EFT Funding",
		TransactionID:     transactionID,
		TransactionAmount: "1250.00",
		Status:            models.WebhookStatusSuccessful,
		UpdatedAt:         "2026-08-29 12:00:00",
		ValidationKey:     signTransaction(transactionID, secret),
		Environment:       models.EnvironmentProduction,
	}
}

func TestVoPayWebhook_ValidSignature(t *testing.T) {
	handler, db := setupTestHandler(t)
	secret := handler.config.Webhook.SharedSecret

	w := doJSON(t, handler.VoPayWebhook, http.MethodPost, "/api/v1/webhooks/vopay",
		testWebhookPayload("TXN-1001", secret))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body %s)", w.Code, w.Body.String())
	}

	logs, err := db.ListWebhookLogs(context.Background(), 10, 0)
	if err != nil {
		t.Fatalf("Failed to list webhook logs: %v", err)
	}
	if len(logs) != 1 {
		t.Fatalf("logged %d webhooks, want 1", len(logs))
	}
	if !logs[0].IsValidated {
		t.Error("IsValidated = false, want true")
	}
	if logs[0].TransactionAmount != 1250.00 {
		t.Errorf("TransactionAmount = %v, want 1250.00", logs[0].TransactionAmount)
	}
	if logs[0].RawPayload == "" {
		t.Error("RawPayload empty, want verbatim body")
	}
}

func TestVoPayWebhook_InvalidSignature(t *testing.T) {
	handler, db := setupTestHandler(t)

	payload := testWebhookPayload("TXN-1002", "not-the-configured-secret")
	w := doJSON(t, handler.VoPayWebhook, http.MethodPost, "/api/v1/webhooks/vopay", payload)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
	_, _, apiErr := decodeResponse(t, w)
	if apiErr == nil || apiErr.Code != ErrCodeInvalidSignature {
		t.Errorf("error = %+v, want code INVALID_SIGNATURE", apiErr)
	}

	// The delivery is still logged for audit, flagged unvalidated.
	logs, err := db.ListWebhookLogs(context.Background(), 10, 0)
	if err != nil {
		t.Fatalf("Failed to list webhook logs: %v", err)
	}
	if len(logs) != 1 {
		t.Fatalf("logged %d webhooks, want 1", len(logs))
	}
	if logs[0].IsValidated {
		t.Error("IsValidated = true for bad signature, want false")
	}
}

func TestVoPayWebhook_MissingTransactionID(t *testing.T) {
	handler, _ := setupTestHandler(t)

	w := doJSON(t, handler.VoPayWebhook, http.MethodPost, "/api/v1/webhooks/vopay",
		map[string]interface{}{"Status": "successful"})

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestVoPayWebhook_Disabled(t *testing.T) {
	handler, _ := setupTestHandler(t)
	handler.config.Webhook.Enabled = false

	w := doJSON(t, handler.VoPayWebhook, http.MethodPost, "/api/v1/webhooks/vopay",
		testWebhookPayload("TXN-1003", handler.config.Webhook.SharedSecret))

	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404 when ingestion disabled", w.Code)
	}
}

func TestVoPayWebhook_UnparseableAmount(t *testing.T) {
	handler, db := setupTestHandler(t)
	secret := handler.config.Webhook.SharedSecret

	payload := testWebhookPayload("TXN-1004", secret)
	payload.TransactionAmount = "n/a"

	w := doJSON(t, handler.VoPayWebhook, http.MethodPost, "/api/v1/webhooks/vopay", payload)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	logs, err := db.ListWebhookLogs(context.Background(), 10, 0)
	if err != nil {
		t.Fatalf("Failed to list webhook logs: %v", err)
	}
	if len(logs) != 1 || logs[0].TransactionAmount != 0 {
		t.Errorf("unparseable amount should be logged as 0, got %+v", logs)
	}
}

func TestWebhookStats_ProductionOnly(t *testing.T) {
	handler, _ := setupTestHandler(t)
	secret := handler.config.Webhook.SharedSecret

	prod := testWebhookPayload("TXN-2001", secret)
	sandbox := testWebhookPayload("TXN-2002", secret)
	sandbox.Environment = "sandbox"

	for _, p := range []models.VoPayWebhook{prod, sandbox} {
		w := doJSON(t, handler.VoPayWebhook, http.MethodPost, "/api/v1/webhooks/vopay", p)
		if w.Code != http.StatusOK {
			t.Fatalf("ingest status = %d, want 200", w.Code)
		}
	}

	w := doJSON(t, handler.WebhookStats, http.MethodGet, "/api/v1/admin/webhooks/stats", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("stats status = %d, want 200", w.Code)
	}

	_, data, _ := decodeResponse(t, w)
	var stats models.WebhookStats
	if err := json.Unmarshal(data, &stats); err != nil {
		t.Fatalf("Failed to decode stats: %v", err)
	}
	if stats.Today.Total != 1 {
		t.Errorf("Today.Total = %d, want 1 (sandbox excluded)", stats.Today.Total)
	}
	if stats.AllTime.Successful != 1 {
		t.Errorf("AllTime.Successful = %d, want 1", stats.AllTime.Successful)
	}
	if stats.AllTime.Amount != 1250.00 {
		t.Errorf("AllTime.Amount = %v, want 1250.00", stats.AllTime.Amount)
	}
}

func TestListWebhookLogs(t *testing.T) {
	handler, _ := setupTestHandler(t)
	secret := handler.config.Webhook.SharedSecret

	for _, id := range []string{"TXN-3001", "TXN-3002", "TXN-3003"} {
		w := doJSON(t, handler.VoPayWebhook, http.MethodPost, "/api/v1/webhooks/vopay",
			testWebhookPayload(id, secret))
		if w.Code != http.StatusOK {
			t.Fatalf("ingest status = %d, want 200", w.Code)
		}
	}

	w := doJSON(t, handler.ListWebhookLogs, http.MethodGet, "/api/v1/admin/webhooks?limit=2", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list status = %d, want 200", w.Code)
	}

	_, data, _ := decodeResponse(t, w)
	var logs []models.WebhookLog
	if err := json.Unmarshal(data, &logs); err != nil {
		t.Fatalf("Failed to decode logs: %v", err)
	}
	if len(logs) != 2 {
		t.Errorf("returned %d logs, want 2 (limit)", len(logs))
	}
}
