// Ledgerline - Lending Webhook Ingestion and Partner Credit Ledger
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ledgerline

package api

import (
	"context"
	"net/http"
	"testing"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/tomtom215/ledgerline/internal/auth"
	"github.com/tomtom215/ledgerline/internal/database"
	"github.com/tomtom215/ledgerline/internal/models"
)

func seedAdminUser(t *testing.T, db *database.DB, username, password string) {
	t.Helper()

	hash, err := auth.HashPassword(password)
	if err != nil {
		t.Fatalf("Failed to hash password: %v", err)
	}
	user := &models.AdminUser{
		ID:           uuid.New(),
		Username:     username,
		PasswordHash: hash,
		Role:         "admin",
	}
	if err := db.UpsertAdminUser(context.Background(), user); err != nil {
		t.Fatalf("Failed to seed admin user: %v", err)
	}
}

func TestLogin_Success(t *testing.T) {
	handler, db := setupTestHandler(t)
	seedAdminUser(t, db, "operator", "correct horse battery")

	w := doJSON(t, handler.Login, http.MethodPost, "/api/v1/auth/login",
		LoginRequest{Username: "operator", Password: "correct horse battery"})

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body %s)", w.Code, w.Body.String())
	}

	_, data, _ := decodeResponse(t, w)
	var result struct {
		Token    string `json:"token"`
		Username string `json:"username"`
		Role     string `json:"role"`
	}
	if err := json.Unmarshal(data, &result); err != nil {
		t.Fatalf("Failed to decode login result: %v", err)
	}
	if result.Token == "" {
		t.Fatal("empty token")
	}
	if result.Role != "admin" {
		t.Errorf("role = %q, want admin", result.Role)
	}

	claims, err := handler.jwtManager.ValidateToken(result.Token)
	if err != nil {
		t.Fatalf("issued token failed validation: %v", err)
	}
	if claims.Username != "operator" {
		t.Errorf("claims.Username = %q, want operator", claims.Username)
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	handler, db := setupTestHandler(t)
	seedAdminUser(t, db, "operator", "correct horse battery")

	w := doJSON(t, handler.Login, http.MethodPost, "/api/v1/auth/login",
		LoginRequest{Username: "operator", Password: "wrong"})

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
}

func TestLogin_UnknownUserSameResponse(t *testing.T) {
	handler, db := setupTestHandler(t)
	seedAdminUser(t, db, "operator", "correct horse battery")

	unknown := doJSON(t, handler.Login, http.MethodPost, "/api/v1/auth/login",
		LoginRequest{Username: "nobody", Password: "whatever"})
	wrongPass := doJSON(t, handler.Login, http.MethodPost, "/api/v1/auth/login",
		LoginRequest{Username: "operator", Password: "whatever"})

	if unknown.Code != http.StatusUnauthorized || wrongPass.Code != http.StatusUnauthorized {
		t.Fatalf("statuses = %d / %d, want 401 / 401", unknown.Code, wrongPass.Code)
	}

	_, _, unknownErr := decodeResponse(t, unknown)
	_, _, wrongErr := decodeResponse(t, wrongPass)
	if unknownErr.Message != wrongErr.Message {
		t.Errorf("error messages differ (%q vs %q); endpoint leaks account existence",
			unknownErr.Message, wrongErr.Message)
	}
}

func TestLogin_MissingFields(t *testing.T) {
	handler, _ := setupTestHandler(t)

	w := doJSON(t, handler.Login, http.MethodPost, "/api/v1/auth/login",
		map[string]string{"username": "operator"})

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}
