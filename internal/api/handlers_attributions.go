// Ledgerline - Lending Webhook Ingestion and Partner Credit Ledger
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ledgerline

package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/tomtom215/ledgerline/internal/database"
	"github.com/tomtom215/ledgerline/internal/logging"
	"github.com/tomtom215/ledgerline/internal/models"
)

// CreateAttribution registers a new referral attribution in submitted state.
// POST /api/v1/partners/attributions
func (h *Handler) CreateAttribution(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var req CreateAttributionRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	attr := &models.Attribution{
		ID:            uuid.New(),
		PartnerID:     req.PartnerID,
		ApplicationID: req.ApplicationID,
		Status:        models.StatusSubmitted,
		CreatedAt:     time.Now().UTC(),
		UpdatedAt:     time.Now().UTC(),
	}

	if err := h.db.InsertAttribution(r.Context(), attr); err != nil {
		if errors.Is(err, database.ErrDuplicateEntry) {
			rw.Conflict("An attribution already exists for this application")
			return
		}
		logging.Ctx(r.Context()).Error().Err(err).Msg("Failed to insert attribution")
		rw.DatabaseError(err)
		return
	}

	logging.Ctx(r.Context()).Info().
		Str("partner_id", logging.Sanitize(req.PartnerID)).
		Str("application_id", logging.Sanitize(req.ApplicationID)).
		Msg("Attribution created")

	rw.Created(attr)
}

// UpdateAttributionStatus advances an attribution up the status ladder.
// PATCH /api/v1/partners/attributions/{id}/status
//
// Transitions are monotonic: submitted -> ibv_completed -> funded. Repeats
// and backwards moves are rejected with 400 INVALID_TRANSITION.
func (h *Handler) UpdateAttributionStatus(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		rw.BadRequest("Invalid attribution ID")
		return
	}

	var req UpdateAttributionStatusRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	if err := h.db.UpdateAttributionStatus(r.Context(), id, req.Status, req.FundedAmount); err != nil {
		switch {
		case errors.Is(err, database.ErrNotFound):
			rw.NotFound("Attribution not found")
		case errors.Is(err, database.ErrInvalidTransition):
			rw.Error(http.StatusBadRequest, ErrCodeInvalidTransition, "Status transition is not allowed")
		default:
			logging.Ctx(r.Context()).Error().Err(err).
				Str("attribution_id", id.String()).
				Msg("Failed to update attribution status")
			rw.DatabaseError(err)
		}
		return
	}

	attr, err := h.db.GetAttribution(r.Context(), id)
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).
			Str("attribution_id", id.String()).
			Msg("Failed to reload attribution after status update")
		rw.DatabaseError(err)
		return
	}

	rw.Success(attr)
}

// GetAttribution returns a single attribution by ID.
// GET /api/v1/partners/attributions/{id}
func (h *Handler) GetAttribution(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		rw.BadRequest("Invalid attribution ID")
		return
	}

	attr, err := h.db.GetAttribution(r.Context(), id)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			rw.NotFound("Attribution not found")
			return
		}
		rw.DatabaseError(err)
		return
	}

	rw.Success(attr)
}

// ListAttributions returns attributions, optionally filtered by partner.
// GET /api/v1/partners/attributions?partner_id=&limit=&offset=
func (h *Handler) ListAttributions(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	limit, offset := parsePagination(r)
	partnerID := r.URL.Query().Get("partner_id")

	attrs, err := h.db.ListAttributions(r.Context(), partnerID, limit, offset)
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("Failed to list attributions")
		rw.DatabaseError(err)
		return
	}

	rw.SuccessWithPagination(attrs, &PaginationMeta{
		Count:   len(attrs),
		Offset:  offset,
		Limit:   limit,
		HasMore: len(attrs) == limit,
	})
}
