package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"duofinance/internal/events"
	"duofinance/internal/ledger"
	"duofinance/internal/models"
	"duofinance/internal/pagination"
	"duofinance/internal/store"
	"duofinance/internal/testutil"
	"duofinance/internal/uuid"
)

type transactionFixture struct {
	svc       TransactionServicer
	store     *flakyTransactionStore
	cache     *countingCache
	publisher *recordingPublisher
}

func newTransactionFixture(db *gorm.DB) *transactionFixture {
	f := &transactionFixture{
		store:     &flakyTransactionStore{TransactionStore: store.NewTransactionStore(db), failAt: -1},
		cache:     &countingCache{},
		publisher: &recordingPublisher{},
	}
	f.svc = NewTransactionService(f.store, f.cache, f.publisher, nopLogger())
	return f
}

func countTransactions(t *testing.T, db *gorm.DB, ownerID string) int64 {
	t.Helper()
	var n int64
	if err := db.Model(&models.Transaction{}).Where("user_id = ?", ownerID).Count(&n).Error; err != nil {
		t.Fatalf("count transactions: %v", err)
	}
	return n
}

func TestCreateTransactions(t *testing.T) {
	ctx := context.Background()

	t.Run("single_installment", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		f := newTransactionFixture(db)
		user := testutil.CreateTestUser(t, db)

		created, err := f.svc.CreateTransactions(ctx, expenseRequest(user.ID))
		testutil.AssertNoError(t, err)

		if len(created) != 1 {
			t.Fatalf("expected 1 transaction, got %d", len(created))
		}
		if created[0].Description != "Rent" {
			t.Errorf("expected description Rent, got %s", created[0].Description)
		}
		if created[0].RecurrenceGroup != nil {
			t.Errorf("expected no recurrence group, got %s", *created[0].RecurrenceGroup)
		}
		if n := countTransactions(t, db, user.ID); n != 1 {
			t.Errorf("expected 1 stored transaction, got %d", n)
		}
	})

	t.Run("monthly_installments", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		f := newTransactionFixture(db)
		user := testutil.CreateTestUser(t, db)

		req := expenseRequest(user.ID)
		req.Description = "X"
		req.Installments = 3
		req.Frequency = ledger.Monthly

		created, err := f.svc.CreateTransactions(ctx, req)
		testutil.AssertNoError(t, err)

		if len(created) != 3 {
			t.Fatalf("expected the full sequence of 3, got %d", len(created))
		}
		wantDates := []string{"2023-01-01", "2023-02-01", "2023-03-01"}
		wantDesc := []string{"X (1/3)", "X (2/3)", "X (3/3)"}
		for i, tx := range created {
			if got := ledger.FormatDate(tx.OccursOn); got != wantDates[i] {
				t.Errorf("installment %d: expected date %s, got %s", i, wantDates[i], got)
			}
			if tx.Description != wantDesc[i] {
				t.Errorf("installment %d: expected description %q, got %q", i, wantDesc[i], tx.Description)
			}
			if tx.RecurrenceGroup == nil || *tx.RecurrenceGroup != *created[0].RecurrenceGroup {
				t.Errorf("installment %d: recurrence group mismatch", i)
			}
		}

		stored, err := f.store.FindByOwner(ctx, user.ID, store.TransactionFilter{RecurrenceGroup: created[0].RecurrenceGroup})
		testutil.AssertNoError(t, err)
		if len(stored) != 3 {
			t.Errorf("expected 3 stored installments, got %d", len(stored))
		}
	})

	t.Run("publishes_and_invalidates", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		f := newTransactionFixture(db)
		user := testutil.CreateTestUser(t, db)

		req := expenseRequest(user.ID)
		req.Installments = 2
		created, err := f.svc.CreateTransactions(ctx, req)
		testutil.AssertNoError(t, err)

		if f.cache.invalidations[user.ID] != 1 {
			t.Errorf("expected 1 cache invalidation, got %d", f.cache.invalidations[user.ID])
		}
		if len(f.publisher.events) != 1 {
			t.Fatalf("expected 1 event, got %d", len(f.publisher.events))
		}
		event := f.publisher.events[0]
		if event.Type != events.TransactionsCreated {
			t.Errorf("expected %s, got %s", events.TransactionsCreated, event.Type)
		}
		if len(event.TransactionIDs) != 2 || event.TransactionIDs[0] != created[0].ID {
			t.Errorf("unexpected event ids %v", event.TransactionIDs)
		}
		if event.RecurrenceGroup == nil || *event.RecurrenceGroup != *created[0].RecurrenceGroup {
			t.Error("expected event to carry the recurrence group")
		}
	})

	t.Run("income_is_never_shared", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		f := newTransactionFixture(db)
		user := testutil.CreateTestUser(t, db)

		req := expenseRequest(user.ID)
		req.Kind = models.TransactionKindIncome
		req.IsShared = true

		created, err := f.svc.CreateTransactions(ctx, req)
		testutil.AssertNoError(t, err)
		if created[0].IsShared {
			t.Error("expected income to be stored as not shared")
		}
	})

	t.Run("custom_split_persisted", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		f := newTransactionFixture(db)
		user := testutil.CreateTestUser(t, db)

		req := expenseRequest(user.ID)
		req.IsShared = true
		req.Split = models.CustomSplit{Self: decimal.NewFromInt(400), Partner: decimal.NewFromInt(800)}

		created, err := f.svc.CreateTransactions(ctx, req)
		testutil.AssertNoError(t, err)

		stored, err := f.svc.GetTransactionByID(ctx, user.ID, created[0].ID)
		testutil.AssertNoError(t, err)
		split, ok := stored.Split().(models.CustomSplit)
		if !ok {
			t.Fatalf("expected custom split, got %s", stored.Split().Mode())
		}
		testutil.AssertDecimal(t, "self_share", "400", split.Self)
		testutil.AssertDecimal(t, "partner_share", "800", split.Partner)
	})

	t.Run("validation_happens_before_storage", func(t *testing.T) {
		tests := []struct {
			name   string
			mutate func(r *ledger.Request)
		}{
			{name: "missing_description", mutate: func(r *ledger.Request) { r.Description = "" }},
			{name: "zero_amount", mutate: func(r *ledger.Request) { r.Amount = decimal.Zero }},
			{name: "missing_date", mutate: func(r *ledger.Request) { r.OccursOn = time.Time{} }},
			{name: "missing_category", mutate: func(r *ledger.Request) { r.Category = "" }},
			{name: "amount_below_cent", mutate: func(r *ledger.Request) { r.Amount = decimal.RequireFromString("0.001") }},
			{name: "description_too_long_with_suffix", mutate: func(r *ledger.Request) {
				r.Description = strings.Repeat("a", 250)
				r.Installments = 3
			}},
			{name: "custom_split_below_cent", mutate: func(r *ledger.Request) {
				r.Amount = decimal.RequireFromString("100.005")
				r.IsShared = true
				r.Split = models.CustomSplit{Self: decimal.RequireFromString("50.0025"), Partner: decimal.RequireFromString("50.0025")}
			}},
			{name: "split_mismatch", mutate: func(r *ledger.Request) {
				r.IsShared = true
				r.Split = models.CustomSplit{Self: decimal.NewFromInt(1), Partner: decimal.NewFromInt(1)}
			}},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				db := testutil.SetupTestDB(t)
				defer testutil.TeardownTestDB(t, db)
				f := newTransactionFixture(db)
				user := testutil.CreateTestUser(t, db)

				req := expenseRequest(user.ID)
				tt.mutate(&req)

				_, err := f.svc.CreateTransactions(ctx, req)
				testutil.AssertAppError(t, err, "INVALID_INPUT")
				if f.store.creates != 0 {
					t.Errorf("expected no store calls, got %d", f.store.creates)
				}
			})
		}
	})

	t.Run("partial_failure_keeps_prefix", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		f := newTransactionFixture(db)
		f.store.failAt = 2
		user := testutil.CreateTestUser(t, db)

		req := expenseRequest(user.ID)
		req.Installments = 4

		created, err := f.svc.CreateTransactions(ctx, req)
		testutil.AssertAppError(t, err, "PARTIAL_RECURRENCE")

		var partial *PartialCreateError
		if !errors.As(err, &partial) {
			t.Fatalf("expected *PartialCreateError, got %T", err)
		}
		if partial.FailedIndex != 2 || partial.Total != 4 {
			t.Errorf("expected failure at 2 of 4, got %d of %d", partial.FailedIndex, partial.Total)
		}
		if !errors.Is(err, errStoreDown) {
			t.Error("expected the store error to stay reachable")
		}
		if len(created) != 2 || len(partial.CreatedIDs()) != 2 {
			t.Fatalf("expected 2 created installments, got %d", len(created))
		}
		if created[1].Description != "Rent (2/4)" {
			t.Errorf("expected prefix to end with installment 2, got %q", created[1].Description)
		}
		if f.store.creates != 3 {
			t.Errorf("expected creation to stop after the failing call, got %d calls", f.store.creates)
		}
		if n := countTransactions(t, db, user.ID); n != 2 {
			t.Errorf("expected 2 persisted installments without rollback, got %d", n)
		}
		if len(f.publisher.events) != 1 || len(f.publisher.events[0].TransactionIDs) != 2 {
			t.Error("expected the stored prefix to be announced")
		}
	})

	t.Run("single_failure_is_internal", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		f := newTransactionFixture(db)
		f.store.failAt = 0
		user := testutil.CreateTestUser(t, db)

		_, err := f.svc.CreateTransactions(ctx, expenseRequest(user.ID))
		testutil.AssertAppError(t, err, "INTERNAL_ERROR")
		if len(f.publisher.events) != 0 {
			t.Error("expected no event when nothing was stored")
		}
	})
}

func TestGetUserTransactions(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	f := newTransactionFixture(db)
	user := testutil.CreateTestUser(t, db)
	other := testutil.CreateTestUser(t, db)

	testutil.CreateTestTransaction(t, db, user.ID, models.TransactionKindIncome, "100", ledger.NewDate(2024, time.January, 10))
	testutil.CreateTestTransaction(t, db, user.ID, models.TransactionKindExpense, "20", ledger.NewDate(2024, time.January, 31))
	testutil.CreateTestTransaction(t, db, user.ID, models.TransactionKindExpense, "30", ledger.NewDate(2024, time.February, 1))
	testutil.CreateTestTransaction(t, db, other.ID, models.TransactionKindExpense, "40", ledger.NewDate(2024, time.January, 5))

	january := ledger.Period{Year: 2024, Month: time.January}
	expense := models.TransactionKindExpense

	t.Run("all", func(t *testing.T) {
		result, err := f.svc.GetUserTransactions(ctx, user.ID, pagination.PageRequest{}, TransactionFilter{})
		testutil.AssertNoError(t, err)
		if result.TotalItems != 3 {
			t.Errorf("expected 3 items, got %d", result.TotalItems)
		}
		if result.Page != 1 || result.PageSize != pagination.DefaultPageSize {
			t.Errorf("expected default paging, got page %d size %d", result.Page, result.PageSize)
		}
	})

	t.Run("period", func(t *testing.T) {
		result, err := f.svc.GetUserTransactions(ctx, user.ID, pagination.PageRequest{}, TransactionFilter{Period: &january})
		testutil.AssertNoError(t, err)
		if result.TotalItems != 2 {
			t.Errorf("expected 2 January items, got %d", result.TotalItems)
		}
	})

	t.Run("period_and_kind", func(t *testing.T) {
		result, err := f.svc.GetUserTransactions(ctx, user.ID, pagination.PageRequest{}, TransactionFilter{Period: &january, Kind: &expense})
		testutil.AssertNoError(t, err)
		if result.TotalItems != 1 {
			t.Errorf("expected 1 January expense, got %d", result.TotalItems)
		}
	})

	t.Run("paged", func(t *testing.T) {
		result, err := f.svc.GetUserTransactions(ctx, user.ID, pagination.PageRequest{Page: 2, PageSize: 2}, TransactionFilter{})
		testutil.AssertNoError(t, err)
		if len(result.Data) != 1 || result.TotalPages != 2 {
			t.Errorf("expected 1 item on page 2 of 2, got %d items, %d pages", len(result.Data), result.TotalPages)
		}
	})
}

func TestGetTransactionByID(t *testing.T) {
	ctx := context.Background()

	t.Run("found", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		f := newTransactionFixture(db)
		user := testutil.CreateTestUser(t, db)
		tx := testutil.CreateTestTransaction(t, db, user.ID, models.TransactionKindIncome, "10", ledger.NewDate(2024, time.May, 1))

		got, err := f.svc.GetTransactionByID(ctx, user.ID, tx.ID)
		testutil.AssertNoError(t, err)
		if got.ID != tx.ID {
			t.Errorf("expected %s, got %s", tx.ID, got.ID)
		}
	})

	t.Run("not_owned_matches_missing", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		f := newTransactionFixture(db)
		owner := testutil.CreateTestUser(t, db)
		intruder := testutil.CreateTestUser(t, db)
		tx := testutil.CreateTestTransaction(t, db, owner.ID, models.TransactionKindIncome, "10", ledger.NewDate(2024, time.May, 1))

		_, notOwned := f.svc.GetTransactionByID(ctx, intruder.ID, tx.ID)
		_, missing := f.svc.GetTransactionByID(ctx, intruder.ID, uuid.New())

		testutil.AssertAppError(t, notOwned, "TRANSACTION_NOT_FOUND")
		testutil.AssertAppError(t, missing, "TRANSACTION_NOT_FOUND")
		if notOwned.Error() != missing.Error() {
			t.Errorf("expected identical errors, got %q and %q", notOwned, missing)
		}
	})

	t.Run("store_failure", func(t *testing.T) {
		svc := NewTransactionService(brokenTransactionStore{}, &countingCache{}, &recordingPublisher{}, nopLogger())

		_, err := svc.GetTransactionByID(ctx, "owner", "id")
		testutil.AssertAppError(t, err, "INTERNAL_ERROR")
	})
}

func TestUpdateTransaction(t *testing.T) {
	ctx := context.Background()

	t.Run("replaces_and_preserves_identity", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		f := newTransactionFixture(db)
		user := testutil.CreateTestUser(t, db)

		req := expenseRequest(user.ID)
		req.Installments = 2
		created, err := f.svc.CreateTransactions(ctx, req)
		testutil.AssertNoError(t, err)
		original := created[1]

		update := expenseRequest(user.ID)
		update.Description = "Rent adjusted"
		update.Amount = decimal.RequireFromString("1300.50")
		update.IsShared = true
		update.Payer = models.PayerPartner
		update.OccursOn = ledger.NewDate(2023, time.February, 5)

		updated, err := f.svc.UpdateTransaction(ctx, original.ID, update)
		testutil.AssertNoError(t, err)

		if updated.ID != original.ID {
			t.Errorf("expected id %s, got %s", original.ID, updated.ID)
		}
		if updated.RecurrenceGroup == nil || *updated.RecurrenceGroup != *original.RecurrenceGroup {
			t.Error("expected recurrence group to be preserved")
		}

		stored, err := f.svc.GetTransactionByID(ctx, user.ID, original.ID)
		testutil.AssertNoError(t, err)
		if stored.Description != "Rent adjusted" || !stored.IsShared || stored.Payer != models.PayerPartner {
			t.Errorf("unexpected stored transaction: %+v", stored)
		}
		testutil.AssertDecimal(t, "amount", "1300.50", stored.Amount)
		if !stored.CreatedAt.Equal(original.CreatedAt) {
			t.Errorf("expected created_at %v, got %v", original.CreatedAt, stored.CreatedAt)
		}
		if ledger.FormatDate(stored.OccursOn) != "2023-02-05" {
			t.Errorf("expected new date, got %s", ledger.FormatDate(stored.OccursOn))
		}

		last := f.publisher.events[len(f.publisher.events)-1]
		if last.Type != events.TransactionsUpdated {
			t.Errorf("expected update event, got %s", last.Type)
		}
	})

	t.Run("not_owned", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		f := newTransactionFixture(db)
		owner := testutil.CreateTestUser(t, db)
		intruder := testutil.CreateTestUser(t, db)
		tx := testutil.CreateTestTransaction(t, db, owner.ID, models.TransactionKindExpense, "10", ledger.NewDate(2024, time.May, 1))

		_, err := f.svc.UpdateTransaction(ctx, tx.ID, expenseRequest(intruder.ID))
		testutil.AssertAppError(t, err, "TRANSACTION_NOT_FOUND")

		stored, err := f.svc.GetTransactionByID(ctx, owner.ID, tx.ID)
		testutil.AssertNoError(t, err)
		if stored.Description == "Rent" {
			t.Error("transaction should not have been modified")
		}
	})

	t.Run("invalid_input", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		f := newTransactionFixture(db)
		user := testutil.CreateTestUser(t, db)
		tx := testutil.CreateTestTransaction(t, db, user.ID, models.TransactionKindExpense, "10", ledger.NewDate(2024, time.May, 1))

		req := expenseRequest(user.ID)
		req.Amount = decimal.NewFromInt(-1)

		_, err := f.svc.UpdateTransaction(ctx, tx.ID, req)
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})
}

func TestDeleteTransaction(t *testing.T) {
	ctx := context.Background()

	t.Run("deleted", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		f := newTransactionFixture(db)
		user := testutil.CreateTestUser(t, db)
		tx := testutil.CreateTestTransaction(t, db, user.ID, models.TransactionKindExpense, "10", ledger.NewDate(2024, time.May, 1))

		testutil.AssertNoError(t, f.svc.DeleteTransaction(ctx, user.ID, tx.ID))

		_, err := f.svc.GetTransactionByID(ctx, user.ID, tx.ID)
		testutil.AssertAppError(t, err, "TRANSACTION_NOT_FOUND")
		if f.cache.invalidations[user.ID] != 1 {
			t.Error("expected cache invalidation on delete")
		}
		if len(f.publisher.events) != 1 || f.publisher.events[0].Type != events.TransactionsDeleted {
			t.Error("expected a delete event")
		}
	})

	t.Run("not_owned", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		f := newTransactionFixture(db)
		owner := testutil.CreateTestUser(t, db)
		intruder := testutil.CreateTestUser(t, db)
		tx := testutil.CreateTestTransaction(t, db, owner.ID, models.TransactionKindExpense, "10", ledger.NewDate(2024, time.May, 1))

		err := f.svc.DeleteTransaction(ctx, intruder.ID, tx.ID)
		testutil.AssertAppError(t, err, "TRANSACTION_NOT_FOUND")

		if n := countTransactions(t, db, owner.ID); n != 1 {
			t.Errorf("expected transaction to survive, found %d", n)
		}
		if len(f.publisher.events) != 0 {
			t.Error("expected no event for a failed delete")
		}
	})

	t.Run("store_failure", func(t *testing.T) {
		svc := NewTransactionService(brokenTransactionStore{}, &countingCache{}, &recordingPublisher{}, nopLogger())

		err := svc.DeleteTransaction(ctx, "owner", "id")
		testutil.AssertAppError(t, err, "INTERNAL_ERROR")
	})
}
