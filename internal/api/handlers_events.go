// Ledgerline - Lending Webhook Ingestion and Partner Credit Ledger
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ledgerline

package api

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/ledgerline/internal/database"
	"github.com/tomtom215/ledgerline/internal/logging"
	"github.com/tomtom215/ledgerline/internal/metrics"
	"github.com/tomtom215/ledgerline/internal/models"
)

// RecordPartnerEvent stores a partner tracking event (click, share, visit).
// POST /api/v1/partners/events
//
// Two layers keep this endpoint abuse-resistant: a per-partner hourly rate
// limit backed by the event store, and a duplicate key that collapses
// repeats of the same partner/type/day/IP into one row. Duplicates respond
// with success so clients never retry them.
func (h *Handler) RecordPartnerEvent(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var req PartnerEventRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	if h.eventLimiter != nil {
		allowed, err := h.eventLimiter.Allow(r.Context(), req.PartnerID)
		if err != nil {
			logging.Ctx(r.Context()).Error().Err(err).
				Str("partner_id", logging.Sanitize(req.PartnerID)).
				Msg("Event rate limit check failed")
			rw.DatabaseError(err)
			return
		}
		if !allowed {
			metrics.PartnerEvents.WithLabelValues("rate_limited").Inc()
			rw.TooManyRequests("Event rate limit exceeded for this partner")
			return
		}
	}

	now := time.Now().UTC()
	ipHash := hashIP(clientIP(r))
	event := &models.PartnerEvent{
		ID:        uuid.New(),
		PartnerID: req.PartnerID,
		EventType: req.EventType,
		IPHash:    ipHash,
		DuplicateCheckKey: fmt.Sprintf("%s:%s:%s:%s",
			req.PartnerID, req.EventType, now.Format("2006-01-02"), ipHash),
		CreatedAt: now,
	}

	if err := h.db.InsertPartnerEvent(r.Context(), event); err != nil {
		if errors.Is(err, database.ErrDuplicateEntry) {
			// Same partner/type/day/IP already counted. Report success so
			// clients do not retry.
			metrics.PartnerEvents.WithLabelValues("duplicate").Inc()
			rw.Success(map[string]interface{}{"recorded": false, "duplicate": true})
			return
		}
		logging.Ctx(r.Context()).Error().Err(err).
			Str("partner_id", logging.Sanitize(req.PartnerID)).
			Msg("Failed to record partner event")
		rw.DatabaseError(err)
		return
	}

	metrics.PartnerEvents.WithLabelValues("recorded").Inc()
	rw.Created(map[string]interface{}{"recorded": true, "id": event.ID})
}

// hashIP hashes a client address before storage. Raw IPs never persist.
func hashIP(ip string) string {
	sum := sha256.Sum256([]byte(ip))
	return hex.EncodeToString(sum[:8])
}
