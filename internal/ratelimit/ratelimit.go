// Ledgerline - Lending Webhook Ingestion and Partner Credit Ledger
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ledgerline

// Package ratelimit implements a store-backed sliding-window limiter for
// partner tracking events. Counting persisted rows instead of in-process
// state keeps the limit correct across restarts and replicas; the HTTP edge
// limiter (go-chi/httprate) still guards raw request volume in front of it.
package ratelimit

import (
	"context"
	"fmt"
	"time"
)

// Counter is the persistence surface the limiter needs. *database.DB
// satisfies it with CountPartnerEventsSince.
type Counter interface {
	CountPartnerEventsSince(ctx context.Context, partnerID string, since time.Time) (int64, error)
}

// Limiter enforces a per-partner event budget over a sliding window.
type Limiter struct {
	counter Counter
	limit   int64
	window  time.Duration
}

// New builds a limiter allowing `limit` events per partner per `window`.
func New(counter Counter, limit int64, window time.Duration) *Limiter {
	return &Limiter{
		counter: counter,
		limit:   limit,
		window:  window,
	}
}

// Allow reports whether the partner may record another event now.
// Fails closed on store errors: an unknown count must not open the gate.
func (l *Limiter) Allow(ctx context.Context, partnerID string) (bool, error) {
	count, err := l.counter.CountPartnerEventsSince(ctx, partnerID, time.Now().UTC().Add(-l.window))
	if err != nil {
		return false, fmt.Errorf("failed to count events for rate limit: %w", err)
	}

	return count < l.limit, nil
}
