// Ledgerline - Lending Webhook Ingestion and Partner Credit Ledger
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ledgerline

package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/tomtom215/ledgerline/internal/metrics"
)

func TestRateLimitCustom_RejectsWithEnvelopeAndCountsHit(t *testing.T) {
	m := NewChiMiddleware(&ChiMiddlewareConfig{})

	limited := m.RateLimitCustom(RateLimitConfig{Requests: 1, Window: time.Minute})(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))

	hitsBefore := testutil.ToFloat64(metrics.APIRateLimitHits.WithLabelValues("/api/v1/partners/events"))

	// Same client IP both times; the second request exceeds the limit.
	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/partners/events", nil)
		req.RemoteAddr = "203.0.113.7:41000"
		limited.ServeHTTP(w, req)

		if i == 0 {
			if w.Code != http.StatusOK {
				t.Fatalf("first request status = %d, want 200", w.Code)
			}
			continue
		}

		if w.Code != http.StatusTooManyRequests {
			t.Fatalf("second request status = %d, want 429", w.Code)
		}
		var body struct {
			Success bool      `json:"success"`
			Error   *APIError `json:"error"`
		}
		if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
			t.Fatalf("decode 429 body: %v", err)
		}
		if body.Success {
			t.Error("success = true on rate-limited response")
		}
		if body.Error == nil || body.Error.Code != ErrCodeTooManyRequests {
			t.Errorf("error code = %+v, want %s", body.Error, ErrCodeTooManyRequests)
		}
	}

	hitsAfter := testutil.ToFloat64(metrics.APIRateLimitHits.WithLabelValues("/api/v1/partners/events"))
	if hitsAfter != hitsBefore+1 {
		t.Errorf("rate limit hits delta = %v, want 1", hitsAfter-hitsBefore)
	}
}

func TestRateLimitCustom_DisabledPassesThrough(t *testing.T) {
	m := NewChiMiddleware(&ChiMiddlewareConfig{RateLimitDisabled: true})

	passthrough := m.RateLimitCustom(RateLimitConfig{Requests: 1, Window: time.Minute})(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/v1/health/live", nil)
		req.RemoteAddr = "203.0.113.7:41000"
		passthrough.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Fatalf("request %d status = %d, want 200 with limiting disabled", i, w.Code)
		}
	}
}
