// Ledgerline - Lending Webhook Ingestion and Partner Credit Ledger
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ledgerline

package api

import (
	"context"

	"github.com/tomtom215/ledgerline/internal/auth"
)

type contextKey string

const claimsContextKey contextKey = "jwt_claims"

// contextWithClaims stores validated operator claims in the request context.
func contextWithClaims(ctx context.Context, claims *auth.Claims) context.Context {
	return context.WithValue(ctx, claimsContextKey, claims)
}

// ClaimsFromContext retrieves operator claims set by RequireJWT.
// Returns nil when the request was not authenticated.
func ClaimsFromContext(ctx context.Context) *auth.Claims {
	claims, _ := ctx.Value(claimsContextKey).(*auth.Claims)
	return claims
}
