// Ledgerline - Lending Webhook Ingestion and Partner Credit Ledger
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ledgerline

package auth

import "testing"

func TestHashAndVerifyPassword(t *testing.T) {
	t.Parallel()

	hash, err := HashPassword("correct horse battery staple")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}

	if !VerifyPassword(hash, "correct horse battery staple") {
		t.Error("VerifyPassword(correct password) = false, want true")
	}
	if VerifyPassword(hash, "wrong password") {
		t.Error("VerifyPassword(wrong password) = true, want false")
	}
}

func TestHashPassword_RejectsShort(t *testing.T) {
	t.Parallel()

	if _, err := HashPassword("short"); err == nil {
		t.Error("HashPassword(short) = nil error, want error")
	}
}

func TestVerifySharedSecret(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		provided string
		expected string
		want     bool
	}{
		{"match", "s3cret-trigger-key", "s3cret-trigger-key", true},
		{"mismatch", "wrong", "s3cret-trigger-key", false},
		{"empty provided", "", "s3cret-trigger-key", false},
		{"empty expected never matches", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := VerifySharedSecret(tt.provided, tt.expected); got != tt.want {
				t.Errorf("VerifySharedSecret(%q, %q) = %v, want %v", tt.provided, tt.expected, got, tt.want)
			}
		})
	}
}
