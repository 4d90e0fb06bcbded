// Ledgerline - Lending Webhook Ingestion and Partner Credit Ledger
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ledgerline

package api

import (
	"net/http"
	"time"
)

// HealthStatus is the payload returned by the health endpoint.
type HealthStatus struct {
	Status            string  `json:"status"`
	Version           string  `json:"version"`
	DatabaseConnected bool    `json:"database_connected"`
	WebhooksEnabled   bool    `json:"webhooks_enabled"`
	UptimeSeconds     float64 `json:"uptime_seconds"`
}

// Version is the release version reported by the health endpoint,
// overridden at build time via -ldflags.
var Version = "dev"

// Health reports overall service health: degraded when the database is
// unreachable, healthy otherwise.
// GET /api/v1/health
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	dbConnected := h.db != nil && h.db.Ping(r.Context()) == nil

	status := "healthy"
	if !dbConnected {
		status = "degraded"
	}

	rw.Success(HealthStatus{
		Status:            status,
		Version:           Version,
		DatabaseConnected: dbConnected,
		WebhooksEnabled:   h.config.Webhook.Enabled,
		UptimeSeconds:     time.Since(h.startTime).Seconds(),
	})
}

// HealthLive is a liveness probe: 200 whenever the process is up,
// regardless of dependency state.
// GET /api/v1/health/live
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	rw.Success(map[string]string{"status": "alive"})
}

// HealthReady is a readiness probe: 503 until the database answers.
// GET /api/v1/health/ready
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	if h.db == nil || h.db.Ping(r.Context()) != nil {
		rw.ServiceUnavailable("Database is not ready")
		return
	}

	rw.Success(map[string]string{"status": "ready"})
}
