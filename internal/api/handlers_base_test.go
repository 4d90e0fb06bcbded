// Ledgerline - Lending Webhook Ingestion and Partner Credit Ledger
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ledgerline

package api

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/ledgerline/internal/auth"
	"github.com/tomtom215/ledgerline/internal/config"
	"github.com/tomtom215/ledgerline/internal/credit"
	"github.com/tomtom215/ledgerline/internal/database"
	"github.com/tomtom215/ledgerline/internal/ratelimit"
)

const testAdminSecret = "test-admin-secret-0123456789abcdef"

// testDBSemaphore serializes DuckDB-backed handler tests; concurrent CGO
// connections are unreliable in CI.
var testDBSemaphore = make(chan struct{}, 1)

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Host:        "127.0.0.1",
			Port:        8080,
			Timeout:     30 * time.Second,
			Environment: "development",
		},
		Database: config.DatabaseConfig{
			Path:      ":memory:",
			MaxMemory: "1GB",
		},
		Security: config.SecurityConfig{
			AdminSecret:    testAdminSecret,
			JWTSecret:      "jwt-test-secret-0123456789abcdef0123",
			SessionTimeout: time.Hour,
			CORSOrigins:    []string{"http://localhost:3000"},
		},
		Webhook: config.WebhookConfig{
			Enabled:      true,
			SharedSecret: "vopay-shared-secret",
		},
		Credit: config.CreditConfig{
			SubmittedAmount:    10,
			IBVCompletedAmount: 15,
			FundedAmount:       50,
			CapAmount:          150,
			CapWindowDays:      30,
			EventsPerHour:      60,
		},
	}
}

// setupTestHandler creates a handler backed by a real in-memory database.
// The hub is left nil; broadcast paths are guarded and covered separately.
func setupTestHandler(t *testing.T) (*Handler, *database.DB) {
	t.Helper()

	testDBSemaphore <- struct{}{}
	t.Cleanup(func() {
		<-testDBSemaphore
	})

	cfg := testConfig()
	db, err := database.New(&cfg.Database)
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("Failed to close test database: %v", err)
		}
	})

	jwtManager, err := auth.NewJWTManager(&cfg.Security)
	if err != nil {
		t.Fatalf("Failed to create JWT manager: %v", err)
	}

	engine := credit.NewEngine(db, &cfg.Credit)
	limiter := ratelimit.New(db, int64(cfg.Credit.EventsPerHour), time.Hour)

	return NewHandler(db, cfg, engine, nil, jwtManager, limiter), db
}

// newJSONRequest builds a request with an optional JSON body.
func newJSONRequest(t *testing.T, method, target string, body interface{}) *http.Request {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("Failed to marshal request body: %v", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// doJSON performs a JSON request against a bare handler func and returns
// the recorder.
func doJSON(t *testing.T, handler http.HandlerFunc, method, target string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	w := httptest.NewRecorder()
	handler(w, newJSONRequest(t, method, target, body))
	return w
}

// decodeResponse unmarshals the standard envelope, leaving Data raw for
// per-test decoding.
func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) (bool, json.RawMessage, *APIError) {
	t.Helper()

	var envelope struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
		Error   *APIError       `json:"error"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("Failed to decode response envelope: %v (body %q)", err, w.Body.String())
	}
	return envelope.Success, envelope.Data, envelope.Error
}
