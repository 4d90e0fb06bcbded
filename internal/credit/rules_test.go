// Ledgerline - Lending Webhook Ingestion and Partner Credit Ledger
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ledgerline

package credit

import (
	"testing"

	"github.com/google/uuid"

	"github.com/tomtom215/ledgerline/internal/config"
	"github.com/tomtom215/ledgerline/internal/models"
)

func testCreditConfig() *config.CreditConfig {
	return &config.CreditConfig{
		SubmittedAmount:    10,
		IBVCompletedAmount: 15,
		FundedAmount:       50,
		CapAmount:          150,
		CapWindowDays:      30,
	}
}

func TestEvaluator_Candidates(t *testing.T) {
	t.Parallel()

	evaluator := NewEvaluator(testCreditConfig())

	tests := []struct {
		name        string
		status      string
		wantTypes   []string
		wantAmounts []int64
	}{
		{
			name:        "submitted yields one candidate",
			status:      models.StatusSubmitted,
			wantTypes:   []string{models.SourceApplicationSubmitted},
			wantAmounts: []int64{10},
		},
		{
			name:        "ibv_completed yields two candidates",
			status:      models.StatusIBVCompleted,
			wantTypes:   []string{models.SourceApplicationSubmitted, models.SourceIBVCompleted},
			wantAmounts: []int64{10, 15},
		},
		{
			name:        "funded yields all three candidates",
			status:      models.StatusFunded,
			wantTypes:   []string{models.SourceApplicationSubmitted, models.SourceIBVCompleted, models.SourceFunded},
			wantAmounts: []int64{10, 15, 50},
		},
		{
			name:   "unknown status yields none",
			status: "declined",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			attr := &models.Attribution{
				ID:            uuid.New(),
				PartnerID:     "P1",
				ApplicationID: "APP-1",
				Status:        tt.status,
			}

			candidates := evaluator.Candidates(attr)
			if len(candidates) != len(tt.wantTypes) {
				t.Fatalf("len(candidates) = %d, want %d", len(candidates), len(tt.wantTypes))
			}

			for i, cand := range candidates {
				if cand.SourceType != tt.wantTypes[i] {
					t.Errorf("candidate[%d].SourceType = %q, want %q", i, cand.SourceType, tt.wantTypes[i])
				}
				if cand.Amount != tt.wantAmounts[i] {
					t.Errorf("candidate[%d].Amount = %d, want %d", i, cand.Amount, tt.wantAmounts[i])
				}
				if cand.SourceEventID != attr.ID {
					t.Errorf("candidate[%d].SourceEventID = %v, want attribution ID", i, cand.SourceEventID)
				}
				if cand.PartnerID != "P1" {
					t.Errorf("candidate[%d].PartnerID = %q, want P1", i, cand.PartnerID)
				}
			}
		})
	}
}

func TestCandidate_Reason(t *testing.T) {
	t.Parallel()

	cand := Candidate{
		ApplicationID: "APP-42",
		SourceType:    models.SourceFunded,
	}

	want := "funded credit for application APP-42"
	if got := cand.Reason(); got != want {
		t.Errorf("Reason() = %q, want %q", got, want)
	}
}
