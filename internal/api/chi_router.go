// Ledgerline - Lending Webhook Ingestion and Partner Credit Ledger
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ledgerline

// Package api provides HTTP routing and handlers using the Chi router.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/ledgerline/internal/middleware"
)

// Router sets up HTTP routes using the Chi router.
type Router struct {
	handler       *Handler
	chiMiddleware *ChiMiddleware
}

// NewRouter creates a router around the given handler and middleware
// factory. A nil chiMW falls back to the secure defaults.
func NewRouter(handler *Handler, chiMW *ChiMiddleware) *Router {
	if chiMW == nil {
		chiMW = NewChiMiddleware(nil)
	}
	return &Router{
		handler:       handler,
		chiMiddleware: chiMW,
	}
}

// SetupChi configures all HTTP routes and returns the root handler.
func (router *Router) SetupChi() http.Handler {
	r := chi.NewRouter()

	// ========================
	// Global Middleware Stack
	// ========================
	// Applied to ALL routes in order
	r.Use(RequestIDWithLogging())      // X-Request-ID header plus logging context
	r.Use(chimiddleware.RealIP)        // Extract real IP from X-Forwarded-For
	r.Use(chimiddleware.Recoverer)     // Recover from panics
	r.Use(router.chiMiddleware.CORS()) // CORS must be global to handle OPTIONS preflight

	// ========================
	// Health Endpoints
	// ========================
	// Permissive rate limiting so monitoring can poll frequently
	r.Route("/api/v1/health", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimitCustom(RateLimitHealth))
		r.Use(APISecurityHeaders())
		r.Get("/live", router.handler.HealthLive)
		r.Get("/ready", router.handler.HealthReady)
		r.Get("/", router.handler.Health)
	})

	// ========================
	// Authentication Endpoints
	// ========================
	// Strictest rate limiting: 5 attempts per 5 minutes per IP
	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Use(APISecurityHeaders())
		r.Use(middleware.PrometheusMetrics)
		r.With(router.chiMiddleware.RateLimitCustom(RateLimitLogin)).Post("/login", router.handler.Login)
	})

	// ========================
	// Webhook Ingestion
	// ========================
	// Permissive limit: VoPay retries aggressively on non-200 responses.
	// Authentication is the HMAC ValidationKey inside the payload.
	r.Route("/api/v1/webhooks", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimitCustom(RateLimitWebhook))
		r.Use(APISecurityHeaders())
		r.Use(middleware.PrometheusMetrics)
		r.Post("/vopay", router.handler.VoPayWebhook)
	})

	// ========================
	// Partner + Ledger Endpoints
	// ========================
	// The credit engine trigger authenticates via the admin shared secret
	// in the request body; everything else in the group requires an
	// operator JWT.
	r.Route("/api/v1/partners", func(r chi.Router) {
		r.Use(APISecurityHeaders())
		r.Use(middleware.PrometheusMetrics)

		r.With(router.chiMiddleware.RateLimitCustom(RateLimitEngine)).Post("/credit-engine", router.handler.RunCreditEngine)

		r.Group(func(r chi.Router) {
			r.Use(router.chiMiddleware.RateLimitCustom(RateLimitRead))
			r.Use(RequireJWT(router.handler.jwtManager))

			r.With(router.chiMiddleware.RateLimitCustom(RateLimitWrite)).Post("/events", router.handler.RecordPartnerEvent)
			r.Get("/{partnerID}/balance", router.handler.GetPartnerBalance)

			r.Route("/attributions", func(r chi.Router) {
				r.Get("/", router.handler.ListAttributions)
				r.With(router.chiMiddleware.RateLimitCustom(RateLimitWrite)).Post("/", router.handler.CreateAttribution)
				r.Get("/{id}", router.handler.GetAttribution)
				r.With(router.chiMiddleware.RateLimitCustom(RateLimitWrite)).Patch("/{id}/status", router.handler.UpdateAttributionStatus)
			})

			r.Route("/ledger", func(r chi.Router) {
				r.Get("/", router.handler.ListCreditEntries)
				r.Get("/{id}", router.handler.GetCreditEntry)
				r.With(router.chiMiddleware.RateLimitCustom(RateLimitWrite)).Post("/{id}/void", router.handler.VoidCreditEntry)
			})
		})
	})

	// ========================
	// Admin Webhook Endpoints
	// ========================
	r.Route("/api/v1/admin", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimitCustom(RateLimitRead))
		r.Use(APISecurityHeaders())
		r.Use(middleware.PrometheusMetrics)
		r.Use(RequireJWT(router.handler.jwtManager))

		r.Get("/webhooks", router.handler.ListWebhookLogs)
		r.Get("/webhooks/stats", router.handler.WebhookStats)
	})

	// ========================
	// Realtime + Observability
	// ========================
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimit())
		r.Get("/ws", router.handler.WebSocket)
	})

	r.Handle("/metrics", promhttp.Handler())

	return r
}
