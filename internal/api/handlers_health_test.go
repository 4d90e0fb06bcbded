// Ledgerline - Lending Webhook Ingestion and Partner Credit Ledger
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ledgerline

package api

import (
	"net/http"
	"testing"
	"time"

	"github.com/goccy/go-json"
)

func TestHealth(t *testing.T) {
	handler, _ := setupTestHandler(t)

	w := doJSON(t, handler.Health, http.MethodGet, "/api/v1/health", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	_, data, _ := decodeResponse(t, w)
	var health HealthStatus
	if err := json.Unmarshal(data, &health); err != nil {
		t.Fatalf("Failed to decode health: %v", err)
	}
	if health.Status != "healthy" {
		t.Errorf("Status = %q, want healthy", health.Status)
	}
	if !health.DatabaseConnected {
		t.Error("DatabaseConnected = false, want true")
	}
}

func TestHealthLive_NoDependencies(t *testing.T) {
	// Liveness must answer even with every dependency missing.
	handler := &Handler{config: testConfig(), startTime: time.Now()}

	w := doJSON(t, handler.HealthLive, http.MethodGet, "/api/v1/health/live", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
}

func TestHealthReady_NoDatabase(t *testing.T) {
	handler := &Handler{config: testConfig(), startTime: time.Now()}

	w := doJSON(t, handler.HealthReady, http.MethodGet, "/api/v1/health/ready", nil)
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503 without database", w.Code)
	}
}

func TestHealthReady_WithDatabase(t *testing.T) {
	handler, _ := setupTestHandler(t)

	w := doJSON(t, handler.HealthReady, http.MethodGet, "/api/v1/health/ready", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
}
