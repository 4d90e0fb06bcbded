// Ledgerline - Lending Webhook Ingestion and Partner Credit Ledger
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ledgerline

// Package config loads and validates the Ledgerline configuration.
//
// Configuration is layered via Koanf v2 (highest priority wins):
//  1. Environment variables
//  2. Optional YAML config file (config.yaml or CONFIG_PATH)
//  3. Built-in defaults
package config

import (
	"fmt"
	"time"
)

// Config is the root configuration object.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	Security SecurityConfig `koanf:"security"`
	Webhook  WebhookConfig  `koanf:"webhook"`
	Credit   CreditConfig   `koanf:"credit"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host        string        `koanf:"host"`
	Port        int           `koanf:"port"`
	Timeout     time.Duration `koanf:"timeout"`
	Environment string        `koanf:"environment"` // development or production
}

// DatabaseConfig holds DuckDB settings.
type DatabaseConfig struct {
	Path      string `koanf:"path"`
	MaxMemory string `koanf:"max_memory"`
	Threads   int    `koanf:"threads"` // 0 = runtime.NumCPU()
}

// SecurityConfig holds authentication and rate limiting settings.
type SecurityConfig struct {
	// AdminSecret authorizes the credit engine trigger. Compared in
	// constant time; minimum 32 characters in production.
	AdminSecret string `koanf:"admin_secret"`

	// JWTSecret signs admin dashboard tokens (HS256).
	JWTSecret      string        `koanf:"jwt_secret"`
	SessionTimeout time.Duration `koanf:"session_timeout"`

	AdminUsername string `koanf:"admin_username"`
	// AdminPassword is bcrypt-hashed at startup before being stored.
	AdminPassword string `koanf:"admin_password"`

	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`

	CORSOrigins []string `koanf:"cors_origins"`
}

// WebhookConfig holds payment-provider webhook settings.
type WebhookConfig struct {
	Enabled bool `koanf:"enabled"`
	// SharedSecret keys the HMAC-SHA1 ValidationKey check. When empty,
	// signature verification is skipped (sandbox only).
	SharedSecret string `koanf:"shared_secret"`
}

// CreditConfig holds the credit engine business constants.
//
// The defaults reproduce the production rules: +10 on application
// submission, +15 on completed bank verification, +50 on funding, capped at
// 150 credits per partner per trailing 30 days.
type CreditConfig struct {
	SubmittedAmount    int64 `koanf:"submitted_amount"`
	IBVCompletedAmount int64 `koanf:"ibv_completed_amount"`
	FundedAmount       int64 `koanf:"funded_amount"`

	CapAmount     int64 `koanf:"cap_amount"`
	CapWindowDays int   `koanf:"cap_window_days"`

	// EventsPerHour caps partner tracking events per partner.
	EventsPerHour int `koanf:"events_per_hour"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// IsProduction reports whether the server runs in production mode.
// Production mode enforces stricter secret requirements.
func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}

// Validate checks the configuration for values that would make the server
// unsafe or inoperable. Called by LoadWithKoanf after unmarshaling.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("server.timeout must be positive, got %s", c.Server.Timeout)
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}

	if c.Credit.CapAmount <= 0 {
		return fmt.Errorf("credit.cap_amount must be positive, got %d", c.Credit.CapAmount)
	}
	if c.Credit.CapWindowDays <= 0 {
		return fmt.Errorf("credit.cap_window_days must be positive, got %d", c.Credit.CapWindowDays)
	}
	if c.Credit.SubmittedAmount < 0 || c.Credit.IBVCompletedAmount < 0 || c.Credit.FundedAmount < 0 {
		return fmt.Errorf("credit rule amounts must not be negative")
	}

	if c.IsProduction() {
		if len(c.Security.AdminSecret) < 32 {
			return fmt.Errorf("security.admin_secret must be at least 32 characters in production")
		}
		if len(c.Security.JWTSecret) < 32 {
			return fmt.Errorf("security.jwt_secret must be at least 32 characters in production")
		}
		if c.Webhook.Enabled && c.Webhook.SharedSecret == "" {
			return fmt.Errorf("webhook.shared_secret is required when webhooks are enabled in production")
		}
	}

	return nil
}
