// Ledgerline - Lending Webhook Ingestion and Partner Credit Ledger
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ledgerline

// Package main is the entry point for the Ledgerline server.
//
// Ledgerline ingests payment-provider webhooks and computes partner referral
// credits from attribution events. Two pipelines share one DuckDB store:
//
//   - Webhook ingestion: VoPay transaction notifications are HMAC-verified
//     and appended to an audit log, with production-only stats for the
//     operator dashboard.
//
//   - Credit engine: an idempotent, cap-enforced pass over all partner
//     attributions that derives ledger credits (+10 submitted, +15 IBV,
//     +50 funded) without ever double-crediting, bounded by a rolling
//     30-day cap per partner.
//
// # Application Architecture
//
// The server initializes components in the following order:
//
//  1. Configuration: environment variables and optional YAML (Koanf v2)
//  2. Logging: structured zerolog output
//  3. Database: DuckDB with schema migration and checkpointing
//  4. Admin user: seeded from ADMIN_USERNAME/ADMIN_PASSWORD if configured
//  5. WebSocket hub: real-time dashboard notifications
//  6. Credit engine, JWT manager, partner event limiter
//  7. HTTP server: Chi-routed REST API plus Prometheus /metrics
//
// # Configuration
//
// Commonly used environment variables:
//
//	HTTP_PORT=8080
//	DUCKDB_PATH=/data/ledgerline.db
//	ADMIN_SECRET=...               # credit engine trigger (32+ chars in prod)
//	JWT_SECRET=...                 # admin dashboard tokens
//	ADMIN_USERNAME=admin
//	ADMIN_PASSWORD=...             # bcrypt-hashed at startup
//	ENABLE_VOPAY_WEBHOOKS=true
//	VOPAY_SHARED_SECRET=...        # VoPay HMAC key
//
// # Signal Handling
//
// The server shuts down gracefully on SIGINT and SIGTERM: it stops accepting
// connections, drains in-flight requests (10s timeout), stops the WebSocket
// hub and checkpoints the database on close.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/ledgerline/internal/api"
	"github.com/tomtom215/ledgerline/internal/auth"
	"github.com/tomtom215/ledgerline/internal/config"
	"github.com/tomtom215/ledgerline/internal/credit"
	"github.com/tomtom215/ledgerline/internal/database"
	"github.com/tomtom215/ledgerline/internal/logging"
	"github.com/tomtom215/ledgerline/internal/models"
	"github.com/tomtom215/ledgerline/internal/ratelimit"
	ws "github.com/tomtom215/ledgerline/internal/websocket"
)

func main() {
	cfg, err := config.LoadWithKoanf()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("environment", cfg.Server.Environment).
		Str("db_path", cfg.Database.Path).
		Bool("webhooks_enabled", cfg.Webhook.Enabled).
		Msg("Starting Ledgerline")

	db, err := database.New(&cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing database")
		}
	}()
	logging.Info().Msg("Database initialized successfully")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := seedAdminUser(ctx, db, cfg); err != nil {
		logging.Fatal().Err(err).Msg("Failed to seed admin user")
	}

	hub := ws.NewHub()
	hubDone := make(chan struct{})
	go func() {
		defer close(hubDone)
		if err := hub.RunWithContext(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("WebSocket hub stopped with error")
		}
	}()
	logging.Info().Msg("WebSocket hub started")

	jwtManager, err := auth.NewJWTManager(&cfg.Security)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize JWT manager")
	}

	engine := credit.NewEngine(db, &cfg.Credit)
	eventLimiter := ratelimit.New(db, int64(cfg.Credit.EventsPerHour), time.Hour)

	handler := api.NewHandler(db, cfg, engine, hub, jwtManager, eventLimiter)
	chiMW := api.NewChiMiddleware(&api.ChiMiddlewareConfig{
		CORSAllowedOrigins:   cfg.Security.CORSOrigins,
		CORSAllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		CORSAllowedHeaders:   []string{"Content-Type", "Authorization"},
		CORSAllowCredentials: false,
		CORSMaxAge:           86400,
		RateLimitRequests:    cfg.Security.RateLimitReqs,
		RateLimitWindow:      cfg.Security.RateLimitWindow,
		RateLimitDisabled:    cfg.Security.RateLimitDisabled,
	})
	if cfg.Security.RateLimitDisabled {
		logging.Warn().Msg("Rate limiting is DISABLED; use only for local testing")
	}

	router := api.NewRouter(handler, chiMW)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router.SetupChi(),
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logging.Info().Str("addr", server.Addr).Msg("HTTP server listening")
		serverErr <- server.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
	case err := <-serverErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Error().Err(err).Msg("HTTP server error")
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logging.Error().Err(err).Msg("HTTP server shutdown error")
	}

	cancel()
	select {
	case <-hubDone:
	case <-time.After(5 * time.Second):
		logging.Warn().Msg("WebSocket hub failed to stop within timeout")
	}

	logging.Info().Msg("Application stopped gracefully")
}

// seedAdminUser creates or updates the configured operator account. A blank
// username/password pair disables seeding; login then requires an account
// created out of band.
func seedAdminUser(ctx context.Context, db *database.DB, cfg *config.Config) error {
	username := cfg.Security.AdminUsername
	password := cfg.Security.AdminPassword
	if username == "" || password == "" {
		logging.Warn().Msg("No admin credentials configured, skipping admin user seed")
		return nil
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}

	user := &models.AdminUser{
		ID:           uuid.New(),
		Username:     username,
		PasswordHash: hash,
		Role:         "admin",
	}
	if err := db.UpsertAdminUser(ctx, user); err != nil {
		return fmt.Errorf("failed to upsert admin user: %w", err)
	}

	logging.Info().Str("username", logging.Sanitize(username)).Msg("Admin user seeded")
	return nil
}
