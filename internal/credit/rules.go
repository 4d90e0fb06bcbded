// Ledgerline - Lending Webhook Ingestion and Partner Credit Ledger
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ledgerline

// Package credit implements the partner credit engine: rule evaluation over
// referral attributions, idempotent ledger writes and rolling-window cap
// enforcement. Dry-run and commit share one code path so a dry run always
// reports exactly what a commit would do.
package credit

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/tomtom215/ledgerline/internal/config"
	"github.com/tomtom215/ledgerline/internal/logging"
	"github.com/tomtom215/ledgerline/internal/models"
)

// Candidate is one potential ledger entry derived from an attribution.
type Candidate struct {
	PartnerID     string
	ApplicationID string
	SourceEventID uuid.UUID
	SourceType    string
	Amount        int64
}

// Evaluator derives credit candidates from attribution status. The status
// ladder is cumulative: an attribution at "funded" yields candidates for
// every rung below it as well, so credits missed on earlier runs are
// re-derived and the ledger's idempotency guard decides whether each one is
// new.
type Evaluator struct {
	amounts map[string]int64
}

// NewEvaluator builds an evaluator from the configured rule amounts.
func NewEvaluator(cfg *config.CreditConfig) *Evaluator {
	return &Evaluator{
		amounts: map[string]int64{
			models.SourceApplicationSubmitted: cfg.SubmittedAmount,
			models.SourceIBVCompleted:         cfg.IBVCompletedAmount,
			models.SourceFunded:               cfg.FundedAmount,
		},
	}
}

// sourceLadder orders rule source types by the attribution status that
// unlocks them.
var sourceLadder = []string{
	models.SourceApplicationSubmitted,
	models.SourceIBVCompleted,
	models.SourceFunded,
}

// statusDepth maps attribution status to how many rungs of the ladder it
// unlocks.
var statusDepth = map[string]int{
	models.StatusSubmitted:    1,
	models.StatusIBVCompleted: 2,
	models.StatusFunded:       3,
}

// Candidates returns all candidates an attribution's current status entitles
// it to. An unknown status yields no candidates; the attribution is skipped
// rather than failing the whole run.
func (e *Evaluator) Candidates(attr *models.Attribution) []Candidate {
	depth, ok := statusDepth[attr.Status]
	if !ok {
		logging.Warn().
			Str("attribution_id", attr.ID.String()).
			Str("status", attr.Status).
			Msg("Skipping attribution with unknown status")
		return nil
	}

	candidates := make([]Candidate, 0, depth)
	for _, sourceType := range sourceLadder[:depth] {
		candidates = append(candidates, Candidate{
			PartnerID:     attr.PartnerID,
			ApplicationID: attr.ApplicationID,
			SourceEventID: attr.ID,
			SourceType:    sourceType,
			Amount:        e.amounts[sourceType],
		})
	}

	return candidates
}

// Reason renders the human-readable ledger reason for a candidate.
func (c *Candidate) Reason() string {
	return fmt.Sprintf("%s credit for application %s", c.SourceType, c.ApplicationID)
}
