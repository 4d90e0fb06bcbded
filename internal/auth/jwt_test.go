// Ledgerline - Lending Webhook Ingestion and Partner Credit Ledger
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ledgerline

package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/tomtom215/ledgerline/internal/config"
)

func testSecurityConfig() *config.SecurityConfig {
	return &config.SecurityConfig{
		JWTSecret:      "test-jwt-secret-at-least-32-characters-long",
		SessionTimeout: time.Hour,
	}
}

func TestNewJWTManager_RequiresSecret(t *testing.T) {
	t.Parallel()

	_, err := NewJWTManager(&config.SecurityConfig{SessionTimeout: time.Hour})
	if err == nil {
		t.Error("NewJWTManager() with empty secret = nil error, want error")
	}
}

func TestJWTManager_RoundTrip(t *testing.T) {
	t.Parallel()

	manager, err := NewJWTManager(testSecurityConfig())
	if err != nil {
		t.Fatalf("NewJWTManager: %v", err)
	}

	token, err := manager.GenerateToken("alice", "admin")
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	claims, err := manager.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if claims.Username != "alice" {
		t.Errorf("Username = %q, want alice", claims.Username)
	}
	if claims.Role != "admin" {
		t.Errorf("Role = %q, want admin", claims.Role)
	}
}

func TestJWTManager_RejectsTamperedToken(t *testing.T) {
	t.Parallel()

	manager, err := NewJWTManager(testSecurityConfig())
	if err != nil {
		t.Fatalf("NewJWTManager: %v", err)
	}

	token, err := manager.GenerateToken("alice", "admin")
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	parts := strings.Split(token, ".")
	tampered := parts[0] + "." + parts[1] + ".invalidsignature"
	if _, err := manager.ValidateToken(tampered); err == nil {
		t.Error("ValidateToken(tampered) = nil error, want error")
	}
}

func TestJWTManager_RejectsExpiredToken(t *testing.T) {
	t.Parallel()

	cfg := testSecurityConfig()
	cfg.SessionTimeout = -time.Hour
	manager, err := NewJWTManager(cfg)
	if err != nil {
		t.Fatalf("NewJWTManager: %v", err)
	}

	token, err := manager.GenerateToken("alice", "admin")
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	if _, err := manager.ValidateToken(token); err == nil {
		t.Error("ValidateToken(expired) = nil error, want error")
	}
}

func TestJWTManager_RejectsWrongSecret(t *testing.T) {
	t.Parallel()

	manager, err := NewJWTManager(testSecurityConfig())
	if err != nil {
		t.Fatalf("NewJWTManager: %v", err)
	}

	other, err := NewJWTManager(&config.SecurityConfig{
		JWTSecret:      "different-jwt-secret-also-32-characters!",
		SessionTimeout: time.Hour,
	})
	if err != nil {
		t.Fatalf("NewJWTManager: %v", err)
	}

	token, err := other.GenerateToken("alice", "admin")
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	if _, err := manager.ValidateToken(token); err == nil {
		t.Error("ValidateToken with wrong secret = nil error, want error")
	}
}
