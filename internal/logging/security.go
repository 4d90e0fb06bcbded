// Ledgerline - Lending Webhook Ingestion and Partner Credit Ledger
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ledgerline

package logging

import (
	"strings"

	"github.com/rs/zerolog"
)

// maxLoggedValueLen caps user-supplied values in logs so a hostile payload
// cannot flood log storage.
const maxLoggedValueLen = 256

// Sanitize removes control characters from a string to prevent log injection
// and truncates overly long values. All user-provided values (webhook fields,
// partner identifiers, usernames) must pass through this before logging.
func Sanitize(s string) string {
	s = strings.Map(func(r rune) rune {
		if r < 32 || r == 127 {
			return -1
		}
		return r
	}, s)

	if len(s) > maxLoggedValueLen {
		s = s[:maxLoggedValueLen] + "...(truncated)"
	}
	return s
}

// SecurityEvent represents a security-relevant event for audit logging.
type SecurityEvent struct {
	// Event is the type of event (e.g., "login_success", "secret_rejected").
	Event string
	// Username is the user's username (if known).
	Username string
	// IPAddress is the client's IP address.
	IPAddress string
	// Success indicates if the operation was successful.
	Success bool
	// Error is the error message if the operation failed.
	Error string
}

// SecurityLogger provides secure logging for authentication events.
// It automatically sanitizes user-controlled data before logging.
type SecurityLogger struct {
	logger zerolog.Logger
}

// NewSecurityLogger creates a new security logger.
func NewSecurityLogger() *SecurityLogger {
	return &SecurityLogger{
		logger: With().Str("component", "auth").Logger(),
	}
}

// NewSecurityLoggerWithLogger creates a security logger with a custom zerolog logger.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewSecurityLoggerWithLogger(logger zerolog.Logger) *SecurityLogger {
	return &SecurityLogger{
		logger: logger.With().Str("component", "auth").Logger(),
	}
}

// LogEvent logs a security event with automatic sanitization.
func (l *SecurityLogger) LogEvent(event *SecurityEvent) {
	e := l.logger.Info().Str("event", event.Event)

	if event.Success {
		e = e.Str("status", "success")
	} else {
		e = e.Str("status", "failed")
	}
	if event.Username != "" {
		e = e.Str("username", Sanitize(event.Username))
	}
	if event.IPAddress != "" {
		e = e.Str("ip", Sanitize(event.IPAddress))
	}
	if event.Error != "" {
		e = e.Str("error", Sanitize(event.Error))
	}

	e.Msg("security event")
}
