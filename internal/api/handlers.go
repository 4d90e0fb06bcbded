// Ledgerline - Lending Webhook Ingestion and Partner Credit Ledger
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ledgerline

package api

import (
	"time"

	"github.com/tomtom215/ledgerline/internal/auth"
	"github.com/tomtom215/ledgerline/internal/config"
	"github.com/tomtom215/ledgerline/internal/credit"
	"github.com/tomtom215/ledgerline/internal/database"
	"github.com/tomtom215/ledgerline/internal/ratelimit"
	ws "github.com/tomtom215/ledgerline/internal/websocket"
)

// Handler contains dependencies for API handlers.
//
// Handler methods are split across multiple files:
//   - handlers.go: Handler struct and constructor (this file)
//   - handlers_credit_engine.go: Credit engine trigger
//   - handlers_vopay_webhook.go: VoPay webhook ingestion and stats
//   - handlers_attributions.go: Attribution CRUD
//   - handlers_ledger.go: Ledger listing, void and balances
//   - handlers_events.go: Partner tracking events
//   - handlers_auth.go: Admin login
//   - handlers_health.go: Health and readiness probes
//   - handlers_websocket.go: WebSocket upgrade
type Handler struct {
	db           *database.DB
	config       *config.Config
	engine       *credit.Engine
	hub          *ws.Hub
	jwtManager   *auth.JWTManager
	eventLimiter *ratelimit.Limiter
	startTime    time.Time
}

// NewHandler creates an API handler wired to all backing services. The
// JWT manager and event limiter may be nil in tests that do not exercise
// authenticated or rate-limited routes.
func NewHandler(db *database.DB, cfg *config.Config, engine *credit.Engine, hub *ws.Hub, jwtManager *auth.JWTManager, eventLimiter *ratelimit.Limiter) *Handler {
	return &Handler{
		db:           db,
		config:       cfg,
		engine:       engine,
		hub:          hub,
		jwtManager:   jwtManager,
		eventLimiter: eventLimiter,
		startTime:    time.Now(),
	}
}
