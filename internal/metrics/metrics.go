// Ledgerline - Lending Webhook Ingestion and Partner Credit Ledger
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ledgerline

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus Metrics Integration for Production Observability
// This package provides instrumentation for:
// - Webhook ingestion (deliveries by status, signature failures)
// - Credit engine runs and per-candidate outcomes
// - Ledger writes and voids
// - Database query performance (DuckDB)
// - API endpoint latency and throughput
// - WebSocket connections

var (
	// Webhook Metrics
	WebhooksReceived = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webhooks_received_total",
			Help: "Total number of webhook deliveries received",
		},
		[]string{"status", "environment"},
	)

	WebhookSignatureFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "webhook_signature_failures_total",
			Help: "Total number of webhook deliveries rejected for invalid signatures",
		},
	)

	// Credit Engine Metrics
	CreditRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "credit_engine_runs_total",
			Help: "Total number of credit engine runs",
		},
		[]string{"mode"}, // "dry_run" or "commit"
	)

	CreditRunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "credit_engine_run_duration_seconds",
			Help:    "Duration of credit engine runs in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	CreditCandidates = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "credit_engine_candidates_total",
			Help: "Total number of credit candidates by terminal outcome",
		},
		[]string{"outcome"}, // "committed", "deduplicated", "capped", "lookup_failed", "write_failed"
	)

	CreditsAwarded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "credits_awarded_total",
			Help: "Total credits written to the ledger",
		},
	)

	// Ledger Metrics
	LedgerVoids = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ledger_voids_total",
			Help: "Total number of ledger entries voided",
		},
	)

	// Database Metrics
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "duckdb_query_duration_seconds",
			Help:    "Duration of DuckDB queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "table"},
	)

	DBQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "duckdb_query_errors_total",
			Help: "Total number of DuckDB query errors",
		},
		[]string{"operation", "table"},
	)

	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of active API requests",
		},
	)

	APIRateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_rate_limit_hits_total",
			Help: "Total number of rate limit rejections",
		},
		[]string{"endpoint"},
	)

	// Partner Event Metrics
	PartnerEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "partner_events_total",
			Help: "Total number of partner tracking events by outcome",
		},
		[]string{"outcome"}, // "recorded", "duplicate", "rate_limited"
	)

	// WebSocket Metrics
	WebSocketConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "websocket_active_connections",
			Help: "Current number of active WebSocket connections",
		},
	)

	WebSocketMessagesSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "websocket_messages_sent_total",
			Help: "Total number of WebSocket messages broadcast to clients",
		},
	)
)

// RecordWebhook records one received webhook delivery
func RecordWebhook(status, environment string) {
	WebhooksReceived.WithLabelValues(status, environment).Inc()
}

// RecordCreditRun records a completed credit engine run
func RecordCreditRun(dryRun bool, duration time.Duration) {
	mode := "commit"
	if dryRun {
		mode = "dry_run"
	}
	CreditRuns.WithLabelValues(mode).Inc()
	CreditRunDuration.Observe(duration.Seconds())
}

// RecordCreditCandidate records the terminal outcome of one credit candidate
func RecordCreditCandidate(outcome string) {
	CreditCandidates.WithLabelValues(outcome).Inc()
}

// RecordDBQuery records a database query metric
func RecordDBQuery(operation, table string, duration time.Duration, err error) {
	DBQueryDuration.WithLabelValues(operation, table).Observe(duration.Seconds())
	if err != nil {
		DBQueryErrors.WithLabelValues(operation, table).Inc()
	}
}

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest tracks active API requests
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}
