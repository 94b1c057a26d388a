// Package cache keeps computed monthly summaries so repeated reads skip the
// range query. Entries are versioned per owner: any write bumps the owner's
// generation and every older entry becomes unreachable.
package cache

import (
	"context"

	"duofinance/internal/ledger"
)

// Version identifies the owner's generation a lookup observed.
type Version int64

// SummaryCache stores summaries by owner and period.
type SummaryCache interface {
	// Get reports whether a summary was found. The returned Version must be
	// passed to Set when the caller computes the summary after a miss.
	Get(ctx context.Context, ownerID string, period ledger.Period) (ledger.Summary, Version, bool, error)
	// Set stores summary under version. An Invalidate after the Get that
	// produced version leaves the entry unreachable.
	Set(ctx context.Context, ownerID string, period ledger.Period, version Version, summary ledger.Summary) error
	// Invalidate drops every cached summary of the owner.
	Invalidate(ctx context.Context, ownerID string) error
}

// Noop never stores anything. It is used when no Redis URL is configured.
type Noop struct{}

func (Noop) Get(context.Context, string, ledger.Period) (ledger.Summary, Version, bool, error) {
	return ledger.Summary{}, 0, false, nil
}

func (Noop) Set(context.Context, string, ledger.Period, Version, ledger.Summary) error { return nil }

func (Noop) Invalidate(context.Context, string) error { return nil }
