// Ledgerline - Lending Webhook Ingestion and Partner Credit Ledger
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ledgerline

package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/tomtom215/ledgerline/internal/database"
	"github.com/tomtom215/ledgerline/internal/logging"
	"github.com/tomtom215/ledgerline/internal/metrics"
	ws "github.com/tomtom215/ledgerline/internal/websocket"
)

// ListCreditEntries returns ledger rows, newest first, optionally filtered
// by partner. Void entries are included; callers filter on is_void.
// GET /api/v1/partners/ledger?partner_id=&limit=&offset=
func (h *Handler) ListCreditEntries(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	limit, offset := parsePagination(r)
	partnerID := r.URL.Query().Get("partner_id")

	entries, err := h.db.ListCreditEntries(r.Context(), partnerID, limit, offset)
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("Failed to list ledger entries")
		rw.DatabaseError(err)
		return
	}

	rw.SuccessWithPagination(entries, &PaginationMeta{
		Count:   len(entries),
		Offset:  offset,
		Limit:   limit,
		HasMore: len(entries) == limit,
	})
}

// GetCreditEntry returns one ledger row by ID.
// GET /api/v1/partners/ledger/{id}
func (h *Handler) GetCreditEntry(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		rw.BadRequest("Invalid ledger entry ID")
		return
	}

	entry, err := h.db.GetCreditEntry(r.Context(), id)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			rw.NotFound("Ledger entry not found")
			return
		}
		rw.DatabaseError(err)
		return
	}

	rw.Success(entry)
}

// VoidCreditEntry reverses a ledger entry. The row is kept for audit but
// stops counting toward cap sums and balances, and its idempotency key is
// released so the credit can be legitimately re-issued.
// POST /api/v1/partners/ledger/{id}/void
func (h *Handler) VoidCreditEntry(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		rw.BadRequest("Invalid ledger entry ID")
		return
	}

	var req VoidEntryRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	if err := h.db.VoidCreditEntry(r.Context(), id, req.Reason); err != nil {
		switch {
		case errors.Is(err, database.ErrNotFound):
			rw.NotFound("Ledger entry not found")
		case errors.Is(err, database.ErrAlreadyVoid):
			rw.Conflict("Ledger entry is already void")
		default:
			logging.Ctx(r.Context()).Error().Err(err).
				Str("entry_id", id.String()).
				Msg("Failed to void ledger entry")
			rw.DatabaseError(err)
		}
		return
	}

	metrics.LedgerVoids.Inc()

	entry, err := h.db.GetCreditEntry(r.Context(), id)
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).
			Str("entry_id", id.String()).
			Msg("Failed to reload voided ledger entry")
		rw.DatabaseError(err)
		return
	}

	logging.Ctx(r.Context()).Info().
		Str("entry_id", id.String()).
		Str("partner_id", logging.Sanitize(entry.PartnerID)).
		Int64("credit_amount", entry.CreditAmount).
		Msg("Ledger entry voided")

	if h.hub != nil {
		h.hub.BroadcastJSON(ws.MessageTypeLedgerEntryVoided, entry)
	}

	rw.Success(entry)
}

// GetPartnerBalance returns a partner's all-time total and rolling-window
// total of non-void credits.
// GET /api/v1/partners/{partnerID}/balance
func (h *Handler) GetPartnerBalance(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	partnerID := chi.URLParam(r, "partnerID")
	if partnerID == "" {
		rw.BadRequest("Partner ID is required")
		return
	}

	balance, err := h.db.GetPartnerBalance(r.Context(), partnerID, h.config.Credit.CapWindowDays)
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).
			Str("partner_id", logging.Sanitize(partnerID)).
			Msg("Failed to compute partner balance")
		rw.DatabaseError(err)
		return
	}

	rw.Success(balance)
}
