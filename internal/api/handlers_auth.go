// Ledgerline - Lending Webhook Ingestion and Partner Credit Ledger
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ledgerline

package api

import (
	"errors"
	"net/http"

	"github.com/tomtom215/ledgerline/internal/auth"
	"github.com/tomtom215/ledgerline/internal/database"
	"github.com/tomtom215/ledgerline/internal/logging"
)

// Login authenticates a dashboard operator and issues a JWT.
// POST /api/v1/auth/login
//
// Unknown usernames and wrong passwords produce the same 401 so the
// endpoint cannot be used to enumerate accounts.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	secLog := logging.NewSecurityLogger()

	var req LoginRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	user, err := h.db.GetAdminUserByUsername(r.Context(), req.Username)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			secLog.LogEvent(&logging.SecurityEvent{
				Event:     "login_failed",
				Username:  req.Username,
				IPAddress: r.RemoteAddr,
				Success:   false,
				Error:     "unknown username",
			})
			rw.Unauthorized("Invalid username or password")
			return
		}
		rw.DatabaseError(err)
		return
	}

	if !auth.VerifyPassword(user.PasswordHash, req.Password) {
		secLog.LogEvent(&logging.SecurityEvent{
			Event:     "login_failed",
			Username:  req.Username,
			IPAddress: r.RemoteAddr,
			Success:   false,
			Error:     "wrong password",
		})
		rw.Unauthorized("Invalid username or password")
		return
	}

	token, err := h.jwtManager.GenerateToken(user.Username, user.Role)
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("Failed to generate token")
		rw.InternalError("Failed to generate token")
		return
	}

	secLog.LogEvent(&logging.SecurityEvent{
		Event:     "login_success",
		Username:  user.Username,
		IPAddress: r.RemoteAddr,
		Success:   true,
	})

	rw.Success(map[string]interface{}{
		"token":    token,
		"username": user.Username,
		"role":     user.Role,
	})
}
