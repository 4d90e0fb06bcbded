// Ledgerline - Lending Webhook Ingestion and Partner Credit Ledger
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ledgerline

package api

import (
	"crypto/hmac"
	"crypto/sha1" //nolint:gosec // VoPay signs webhooks with HMAC-SHA1
	"encoding/hex"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/tomtom215/ledgerline/internal/logging"
	"github.com/tomtom215/ledgerline/internal/metrics"
	"github.com/tomtom215/ledgerline/internal/models"
)

// VoPayWebhook handles incoming VoPay transaction status notifications.
// POST /api/v1/webhooks/vopay
//
// Every delivery is appended to the webhook log verbatim, validated or not,
// so failed signatures remain auditable. Ingestion never touches the credit
// ledger; the credit engine reads attributions on its own schedule.
//
// Security:
//   - ValidationKey must equal hex(HMAC-SHA1(TransactionID, shared secret))
//   - Comparison uses hmac.Equal
//   - An empty configured secret skips verification (sandbox only)
func (h *Handler) VoPayWebhook(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	if !h.config.Webhook.Enabled {
		rw.NotFound("Webhook ingestion is not enabled")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		rw.BadRequest("Failed to read request body")
		return
	}

	var webhook models.VoPayWebhook
	if err := json.Unmarshal(body, &webhook); err != nil {
		rw.BadRequest("Failed to parse webhook JSON")
		return
	}
	if webhook.TransactionID == "" {
		rw.BadRequest("TransactionID is required")
		return
	}

	validated := true
	if h.config.Webhook.SharedSecret != "" {
		validated = verifyVoPaySignature(webhook.TransactionID, webhook.ValidationKey, h.config.Webhook.SharedSecret)
	}

	amount, err := strconv.ParseFloat(strings.TrimSpace(webhook.TransactionAmount), 64)
	if err != nil {
		amount = 0
		logging.Ctx(r.Context()).Warn().
			Str("transaction_id", logging.Sanitize(webhook.TransactionID)).
			Str("amount", logging.Sanitize(webhook.TransactionAmount)).
			Msg("Unparseable webhook transaction amount")
	}

	log := &models.WebhookLog{
		ID:                uuid.New(),
		TransactionID:     webhook.TransactionID,
		TransactionType:   webhook.TransactionType,
		TransactionAmount: amount,
		Status:            webhook.Status,
		FailureReason:     webhook.FailureReason,
		Environment:       webhook.Environment,
		IsValidated:       validated,
		RawPayload:        string(body),
		ReceivedAt:        time.Now().UTC(),
	}

	if err := h.db.InsertWebhookLog(r.Context(), log); err != nil {
		logging.Ctx(r.Context()).Error().Err(err).
			Str("transaction_id", logging.Sanitize(webhook.TransactionID)).
			Msg("Failed to persist webhook log")
		rw.DatabaseError(err)
		return
	}

	metrics.RecordWebhook(webhook.Status, webhook.Environment)

	if !validated {
		metrics.WebhookSignatureFailures.Inc()
		logging.Ctx(r.Context()).Warn().
			Str("transaction_id", logging.Sanitize(webhook.TransactionID)).
			Str("environment", logging.Sanitize(webhook.Environment)).
			Msg("Webhook signature verification failed")
		rw.Error(http.StatusUnauthorized, ErrCodeInvalidSignature, "Webhook signature verification failed")
		return
	}

	logging.Ctx(r.Context()).Info().
		Str("transaction_id", logging.Sanitize(webhook.TransactionID)).
		Str("status", logging.Sanitize(webhook.Status)).
		Str("environment", logging.Sanitize(webhook.Environment)).
		Msg("Webhook received")

	if h.hub != nil {
		h.hub.BroadcastWebhookReceived(log)
	}

	rw.Success(map[string]interface{}{
		"received":       true,
		"transaction_id": webhook.TransactionID,
	})
}

// verifyVoPaySignature checks a VoPay ValidationKey: the hex HMAC-SHA1 of
// the transaction ID keyed with the account's shared secret.
func verifyVoPaySignature(transactionID, validationKey, secret string) bool {
	mac := hmac.New(sha1.New, []byte(secret))
	mac.Write([]byte(transactionID))
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(strings.ToLower(validationKey)))
}

// WebhookStats returns production-only webhook aggregates for the standard
// dashboard periods (today, yesterday, 7d, 30d, all time).
// GET /api/v1/admin/webhooks/stats
func (h *Handler) WebhookStats(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	stats, err := h.db.GetWebhookStats(r.Context())
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("Failed to compute webhook stats")
		rw.DatabaseError(err)
		return
	}

	rw.Success(stats)
}

// ListWebhookLogs returns recent webhook deliveries, newest first.
// GET /api/v1/admin/webhooks?limit=&offset=
func (h *Handler) ListWebhookLogs(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	limit, offset := parsePagination(r)
	logs, err := h.db.ListWebhookLogs(r.Context(), limit, offset)
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("Failed to list webhook logs")
		rw.DatabaseError(err)
		return
	}

	rw.SuccessWithPagination(logs, &PaginationMeta{
		Count:   len(logs),
		Offset:  offset,
		Limit:   limit,
		HasMore: len(logs) == limit,
	})
}
