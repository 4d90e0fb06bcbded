// Ledgerline - Lending Webhook Ingestion and Partner Credit Ledger
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ledgerline

package api

import (
	"fmt"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/tomtom215/ledgerline/internal/validation"
)

// maxRequestBodySize bounds JSON request bodies (1 MB).
const maxRequestBodySize = 1 << 20

// CreditEngineRequest triggers a credit engine run.
type CreditEngineRequest struct {
	AdminSecret string `json:"admin_secret" validate:"required"`
	DryRun      bool   `json:"dry_run"`
}

// CreateAttributionRequest registers a new referral attribution.
type CreateAttributionRequest struct {
	PartnerID     string `json:"partner_id" validate:"required,max=64"`
	ApplicationID string `json:"application_id" validate:"required,max=64"`
}

// UpdateAttributionStatusRequest advances an attribution up the status ladder.
type UpdateAttributionStatusRequest struct {
	Status       string  `json:"status" validate:"required,oneof=submitted ibv_completed funded"`
	FundedAmount float64 `json:"funded_amount" validate:"gte=0"`
}

// PartnerEventRequest records a partner tracking event.
type PartnerEventRequest struct {
	PartnerID string `json:"partner_id" validate:"required,max=64"`
	EventType string `json:"event_type" validate:"required,oneof=click share visit"`
}

// VoidEntryRequest reverses a ledger entry.
type VoidEntryRequest struct {
	Reason string `json:"reason" validate:"max=256"`
}

// LoginRequest authenticates a dashboard operator.
type LoginRequest struct {
	Username string `json:"username" validate:"required,max=64"`
	Password string `json:"password" validate:"required,max=256"`
}

// decodeAndValidate decodes a JSON body into dst and runs struct validation.
// Returns false after writing the error response when the request is bad.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	rw := NewResponseWriter(w, r)

	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		rw.BadRequest(fmt.Sprintf("Invalid JSON body: %v", err))
		return false
	}

	if verr := validation.ValidateStruct(dst); verr != nil {
		apiErr := verr.ToAPIError()
		rw.ValidationError(apiErr.Message, apiErr.Details)
		return false
	}

	return true
}
