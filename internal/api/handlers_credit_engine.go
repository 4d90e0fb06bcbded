// Ledgerline - Lending Webhook Ingestion and Partner Credit Ledger
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ledgerline

package api

import (
	"net/http"

	"github.com/tomtom215/ledgerline/internal/auth"
	"github.com/tomtom215/ledgerline/internal/credit"
	"github.com/tomtom215/ledgerline/internal/logging"
)

// RunCreditEngine triggers a full credit engine pass over all attributions.
// POST /api/v1/partners/credit-engine
//
// The request must carry the admin shared secret; a mismatch is rejected
// before any attribution is read. With dry_run=true the engine reports what
// it would commit without writing ledger rows.
//
// Per-candidate cap rejections, lookup failures and write failures are
// collected into the response's errors array; the endpoint only returns 500
// when the attribution set cannot be read at all.
func (h *Handler) RunCreditEngine(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var req CreditEngineRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	if !auth.VerifySharedSecret(req.AdminSecret, h.config.Security.AdminSecret) {
		logging.NewSecurityLogger().LogEvent(&logging.SecurityEvent{
			Event:     "credit_engine_secret_rejected",
			IPAddress: r.RemoteAddr,
			Success:   false,
		})
		rw.Forbidden("Invalid admin secret")
		return
	}

	summary, err := h.engine.Run(r.Context(), req.DryRun)
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("Credit engine run failed")
		rw.InternalError("Credit engine run failed")
		return
	}

	if h.hub != nil {
		h.hub.BroadcastCreditRun(summary.DryRun, summary.ProcessedCount, summary.CreditsAwarded, len(summary.Errors))
	}

	// Flat response shape, kept stable for existing callers: the run counters
	// sit beside success rather than under data.
	rw.writeJSON(http.StatusOK, &CreditEngineResponse{
		Success: true,
		Summary: summary,
	})
}

// CreditEngineResponse is the credit engine trigger's response body.
type CreditEngineResponse struct {
	Success bool `json:"success"`
	*credit.Summary
}
