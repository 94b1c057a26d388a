package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"duofinance/internal/cache"
	"duofinance/internal/events"
	"duofinance/internal/ledger"
	"duofinance/internal/models"
	"duofinance/internal/store"
)

var errStoreDown = errors.New("store down")

func nopLogger() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}

// recordingPublisher keeps every published event.
type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, e events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

// countingCache is a Noop cache that counts invalidations.
type countingCache struct {
	cache.Noop
	mu            sync.Mutex
	invalidations map[string]int
}

func (c *countingCache) Invalidate(_ context.Context, ownerID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.invalidations == nil {
		c.invalidations = map[string]int{}
	}
	c.invalidations[ownerID]++
	return nil
}

// flakyTransactionStore fails Create from the failAt-th call on (0 based)
// and counts every Create call.
type flakyTransactionStore struct {
	store.TransactionStore
	failAt  int
	creates int
}

func (s *flakyTransactionStore) Create(ctx context.Context, tx *models.Transaction) error {
	defer func() { s.creates++ }()
	if s.failAt >= 0 && s.creates >= s.failAt {
		return errStoreDown
	}
	return s.TransactionStore.Create(ctx, tx)
}

// brokenTransactionStore fails every call.
type brokenTransactionStore struct{ store.TransactionStore }

func (brokenTransactionStore) FindByID(context.Context, string, string) (*models.Transaction, error) {
	return nil, errStoreDown
}

func (brokenTransactionStore) FindByOwner(context.Context, string, store.TransactionFilter) ([]models.Transaction, error) {
	return nil, errStoreDown
}

func (brokenTransactionStore) Delete(context.Context, string, string) error {
	return errStoreDown
}

func expenseRequest(ownerID string) ledger.Request {
	return ledger.Request{
		Description: "Rent",
		Amount:      decimal.NewFromInt(1200),
		Kind:        models.TransactionKindExpense,
		Category:    "Housing",
		OccursOn:    ledger.NewDate(2023, time.January, 1),
		Payer:       models.PayerSelf,
		Owner:       ownerID,
	}
}
