// Ledgerline - Lending Webhook Ingestion and Partner Credit Ledger
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ledgerline

package models

import (
	"time"

	"github.com/google/uuid"
)

// Payment webhook transaction statuses as delivered by VoPay.
const (
	WebhookStatusPending    = "pending"
	WebhookStatusInProgress = "in progress"
	WebhookStatusFailed     = "failed"
	WebhookStatusCancelled  = "cancelled"
	WebhookStatusSuccessful = "successful"
)

// EnvironmentProduction marks webhook deliveries from the live VoPay
// environment. Stats endpoints filter to production only so sandbox test
// traffic never skews operator dashboards.
const EnvironmentProduction = "production"

// VoPayWebhook is the payload VoPay posts on every transaction status change.
// Field names follow VoPay's PascalCase wire format.
//
// ValidationKey is a hex HMAC-SHA1 of TransactionID keyed with the shared
// secret configured on the VoPay account.
type VoPayWebhook struct {
	Success           bool   `json:"Success"`
	TransactionType   string `json:"TransactionType"`
	TransactionID     string `json:"TransactionID"`
	TransactionAmount string `json:"TransactionAmount"`
	Status            string `json:"Status"`
	UpdatedAt         string `json:"UpdatedAt"`
	ValidationKey     string `json:"ValidationKey"`
	FailureReason     string `json:"FailureReason,omitempty"`
	Environment       string `json:"Environment"`
}

// WebhookLog is the append-only record of one received webhook delivery.
// The raw payload is retained verbatim for replay and audit.
type WebhookLog struct {
	ID                uuid.UUID `json:"id"`
	TransactionID     string    `json:"transaction_id"`
	TransactionType   string    `json:"transaction_type"`
	TransactionAmount float64   `json:"transaction_amount"`
	Status            string    `json:"status"`
	FailureReason     string    `json:"failure_reason,omitempty"`
	Environment       string    `json:"environment"`
	IsValidated       bool      `json:"is_validated"`
	RawPayload        string    `json:"raw_payload"`
	ReceivedAt        time.Time `json:"received_at"`
}

// WebhookStatusCounts aggregates webhook deliveries by terminal status for
// one reporting period.
type WebhookStatusCounts struct {
	Total      int64   `json:"total"`
	Successful int64   `json:"successful"`
	Failed     int64   `json:"failed"`
	Pending    int64   `json:"pending"`
	InProgress int64   `json:"in_progress"`
	Cancelled  int64   `json:"cancelled"`
	Amount     float64 `json:"amount"`
}

// WebhookStats is the admin dashboard aggregate over standard periods.
// All counts are production-environment only.
type WebhookStats struct {
	Today     WebhookStatusCounts `json:"today"`
	Yesterday WebhookStatusCounts `json:"yesterday"`
	Last7d    WebhookStatusCounts `json:"last_7d"`
	Last30d   WebhookStatusCounts `json:"last_30d"`
	AllTime   WebhookStatusCounts `json:"all_time"`
}
