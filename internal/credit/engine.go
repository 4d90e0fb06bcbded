// Ledgerline - Lending Webhook Ingestion and Partner Credit Ledger
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ledgerline

package credit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/ledgerline/internal/config"
	"github.com/tomtom215/ledgerline/internal/database"
	"github.com/tomtom215/ledgerline/internal/logging"
	"github.com/tomtom215/ledgerline/internal/metrics"
	"github.com/tomtom215/ledgerline/internal/models"
)

// createdBySystem tags ledger entries written by the engine.
const createdBySystem = "credit-engine"

// Candidate terminal outcomes, used for metrics labels and logging.
const (
	OutcomeCommitted    = "committed"
	OutcomeDeduplicated = "deduplicated"
	OutcomeCapped       = "capped"
	OutcomeLookupFailed = "lookup_failed"
	OutcomeWriteFailed  = "write_failed"
)

// Store is the persistence surface the engine needs. *database.DB satisfies
// it; tests substitute a fake to inject write failures.
type Store interface {
	ListAllAttributions(ctx context.Context) ([]models.Attribution, error)
	ActiveEntryExists(ctx context.Context, sourceEventID uuid.UUID, sourceType string) (bool, error)
	WindowTotal(ctx context.Context, partnerID string, since time.Time) (int64, error)
	InsertCreditEntry(ctx context.Context, entry *models.CreditEntry) error
}

// RunError reports one candidate that was not committed: rejected by the
// rolling cap, or failed a lookup or write. Errors are collected, never
// fatal: one partner's failure must not block another partner's credits.
type RunError struct {
	PartnerID     string `json:"partner_id"`
	ApplicationID string `json:"application_id"`
	SourceType    string `json:"source_type"`
	Error         string `json:"error"`
}

// Summary is the result of one engine run.
type Summary struct {
	ProcessedCount int        `json:"processed_count"`
	CreditsAwarded int64      `json:"credits_awarded"`
	Errors         []RunError `json:"errors"`
	DryRun         bool       `json:"dry_run"`
}

// Engine drives the credit pipeline: evaluate rules over every attribution,
// guard each candidate against the ledger's idempotency key, enforce the
// rolling cap, and write entries.
type Engine struct {
	store     Store
	evaluator *Evaluator
	cap       int64
	windowDay int
}

// NewEngine builds an engine from configuration.
func NewEngine(store Store, cfg *config.CreditConfig) *Engine {
	return &Engine{
		store:     store,
		evaluator: NewEvaluator(cfg),
		cap:       cfg.CapAmount,
		windowDay: cfg.CapWindowDays,
	}
}

// Run executes one engine pass over all attributions.
//
// Dry-run and commit share this single path; the dryRun flag only suppresses
// the final write. To keep dry-run results identical to what a commit would
// do, would-be-written amounts are accumulated per partner and counted
// against the cap for later candidates, and would-be-written keys suppress
// in-run duplicates. In commit mode the written rows themselves provide both
// effects through fresh store reads.
//
// Only a failure to list attributions is fatal. Per-candidate cap
// rejections, lookup failures and write failures are collected into the
// summary and the run continues; the caller can see which partners hit
// their cap without digging through logs.
func (e *Engine) Run(ctx context.Context, dryRun bool) (*Summary, error) {
	start := time.Now()
	defer func() {
		metrics.RecordCreditRun(dryRun, time.Since(start))
	}()

	attrs, err := e.store.ListAllAttributions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list attributions: %w", err)
	}

	summary := &Summary{
		Errors: []RunError{},
		DryRun: dryRun,
	}

	since := time.Now().UTC().AddDate(0, 0, -e.windowDay)
	pendingSums := map[string]int64{}
	pendingKeys := map[string]bool{}

	for i := range attrs {
		for _, cand := range e.evaluator.Candidates(&attrs[i]) {
			outcome := e.processCandidate(ctx, &cand, dryRun, since, pendingSums, pendingKeys, summary)
			metrics.RecordCreditCandidate(outcome)
		}
	}

	logging.Ctx(ctx).Info().
		Bool("dry_run", dryRun).
		Int("processed_count", summary.ProcessedCount).
		Int64("credits_awarded", summary.CreditsAwarded).
		Int("errors", len(summary.Errors)).
		Dur("duration", time.Since(start)).
		Msg("Credit engine run complete")

	return summary, nil
}

// processCandidate walks one candidate through the pipeline and returns its
// terminal outcome.
func (e *Engine) processCandidate(
	ctx context.Context,
	cand *Candidate,
	dryRun bool,
	since time.Time,
	pendingSums map[string]int64,
	pendingKeys map[string]bool,
	summary *Summary,
) string {
	key := database.DedupKey(cand.SourceEventID, cand.SourceType)

	// Idempotency guard. In dry-run mode entries committed earlier in this
	// run only exist in pendingKeys.
	if dryRun && pendingKeys[key] {
		return OutcomeDeduplicated
	}
	exists, err := e.store.ActiveEntryExists(ctx, cand.SourceEventID, cand.SourceType)
	if err != nil {
		summary.Errors = append(summary.Errors, RunError{
			PartnerID:     cand.PartnerID,
			ApplicationID: cand.ApplicationID,
			SourceType:    cand.SourceType,
			Error:         fmt.Sprintf("idempotency lookup failed: %v", err),
		})
		return OutcomeLookupFailed
	}
	if exists {
		return OutcomeDeduplicated
	}

	// Cap enforcement: the window sum is re-read per candidate so earlier
	// writes in this run count. Acceptance may land exactly on the cap;
	// only exceeding it rejects.
	window, err := e.store.WindowTotal(ctx, cand.PartnerID, since)
	if err != nil {
		summary.Errors = append(summary.Errors, RunError{
			PartnerID:     cand.PartnerID,
			ApplicationID: cand.ApplicationID,
			SourceType:    cand.SourceType,
			Error:         fmt.Sprintf("cap window lookup failed: %v", err),
		})
		return OutcomeLookupFailed
	}
	if window+pendingSums[cand.PartnerID]+cand.Amount > e.cap {
		// An expected business outcome, not a fault, but the caller still
		// needs to see which partners hit their cap.
		summary.Errors = append(summary.Errors, RunError{
			PartnerID:     cand.PartnerID,
			ApplicationID: cand.ApplicationID,
			SourceType:    cand.SourceType,
			Error:         fmt.Sprintf("credit cap of %d per %d days reached", e.cap, e.windowDay),
		})
		logging.Ctx(ctx).Debug().
			Str("partner_id", cand.PartnerID).
			Str("source_type", cand.SourceType).
			Int64("window_total", window+pendingSums[cand.PartnerID]).
			Int64("amount", cand.Amount).
			Int64("cap", e.cap).
			Msg("Credit capped")
		return OutcomeCapped
	}

	if dryRun {
		pendingSums[cand.PartnerID] += cand.Amount
		pendingKeys[key] = true
		summary.ProcessedCount++
		summary.CreditsAwarded += cand.Amount
		return OutcomeCommitted
	}

	entry := &models.CreditEntry{
		PartnerID:     cand.PartnerID,
		SourceEventID: cand.SourceEventID,
		SourceType:    cand.SourceType,
		CreditAmount:  cand.Amount,
		Reason:        cand.Reason(),
		CreatedBy:     createdBySystem,
	}
	err = e.store.InsertCreditEntry(ctx, entry)
	if errors.Is(err, database.ErrDuplicateEntry) {
		// Lost a race with a concurrent run; the credit exists, which is
		// what matters.
		return OutcomeDeduplicated
	}
	if err != nil {
		summary.Errors = append(summary.Errors, RunError{
			PartnerID:     cand.PartnerID,
			ApplicationID: cand.ApplicationID,
			SourceType:    cand.SourceType,
			Error:         fmt.Sprintf("ledger write failed: %v", err),
		})
		return OutcomeWriteFailed
	}

	summary.ProcessedCount++
	summary.CreditsAwarded += cand.Amount
	metrics.CreditsAwarded.Add(float64(cand.Amount))
	return OutcomeCommitted
}
