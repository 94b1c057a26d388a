package services

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"duofinance/internal/cache"
	apperrors "duofinance/internal/errors"
	"duofinance/internal/events"
	"duofinance/internal/ledger"
	"duofinance/internal/models"
	"duofinance/internal/pagination"
	"duofinance/internal/store"
)

// transactionService handles transaction-related business logic.
type transactionService struct {
	transactions store.TransactionStore
	summaries    cache.SummaryCache
	publisher    events.Publisher
	expander     ledger.Expander
	log          *zap.SugaredLogger
}

// NewTransactionService creates a new TransactionServicer.
func NewTransactionService(
	transactions store.TransactionStore,
	summaries cache.SummaryCache,
	publisher events.Publisher,
	log *zap.SugaredLogger,
) TransactionServicer {
	return &transactionService{
		transactions: transactions,
		summaries:    summaries,
		publisher:    publisher,
		expander:     ledger.NewExpander(),
		log:          log,
	}
}

// CreateTransactions validates req, expands it and stores each installment
// in ascending order, one store call per installment. Nothing is retried or
// rolled back.
func (s *transactionService) CreateTransactions(ctx context.Context, req ledger.Request) ([]models.Transaction, error) {
	if err := req.Validate(); err != nil {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error())
	}

	drafts := s.expander.Expand(req)
	created := make([]models.Transaction, 0, len(drafts))

	for i := range drafts {
		if err := s.transactions.Create(ctx, &drafts[i]); err != nil {
			s.log.Errorw("failed to store installment",
				"error", err,
				"user_id", req.Owner,
				"index", i,
				"total", len(drafts),
				"created", len(created))
			s.afterWrite(ctx, events.TransactionsCreated, req.Owner, created)

			if len(drafts) == 1 {
				return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
			return created, &PartialCreateError{
				Created:     created,
				FailedIndex: i,
				Total:       len(drafts),
				Err: apperrors.Wrap(apperrors.ErrPartialRecurrence,
					fmt.Errorf("installment %d of %d: %w", i+1, len(drafts), err)),
			}
		}
		created = append(created, drafts[i])
	}

	s.afterWrite(ctx, events.TransactionsCreated, req.Owner, created)
	return created, nil
}

// GetUserTransactions retrieves a paginated, filtered list of the user's transactions.
func (s *transactionService) GetUserTransactions(ctx context.Context, userID string, page pagination.PageRequest, filter TransactionFilter) (*pagination.PageResponse[models.Transaction], error) {
	page.Defaults()

	txs, total, err := s.transactions.Page(ctx, userID, toStoreFilter(filter), page)
	if err != nil {
		return nil, s.internal("list transactions", err, userID)
	}

	result := pagination.NewPageResponse(txs, page.Page, page.PageSize, total)
	return &result, nil
}

func toStoreFilter(f TransactionFilter) store.TransactionFilter {
	out := store.TransactionFilter{
		Kind:            f.Kind,
		Category:        f.Category,
		IsShared:        f.IsShared,
		RecurrenceGroup: f.RecurrenceGroup,
	}
	if f.Period != nil {
		from, to := f.Period.Bounds()
		out.From, out.To = &from, &to
	}
	return out
}

// GetTransactionByID retrieves a transaction by ID for a specific user
func (s *transactionService) GetTransactionByID(ctx context.Context, userID, transactionID string) (*models.Transaction, error) {
	tx, err := s.transactions.FindByID(ctx, userID, transactionID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperrors.ErrTransactionNotFound
	}
	if err != nil {
		return nil, s.internal("get transaction", err, userID)
	}
	return tx, nil
}

// UpdateTransaction builds a new value from req and replaces the stored
// transaction with it. Id, owner, CreatedAt and RecurrenceGroup carry over.
func (s *transactionService) UpdateTransaction(ctx context.Context, transactionID string, req ledger.Request) (*models.Transaction, error) {
	if err := req.Validate(); err != nil {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error())
	}

	current, err := s.GetTransactionByID(ctx, req.Owner, transactionID)
	if err != nil {
		return nil, err
	}

	payer := req.Payer
	if payer == "" {
		payer = models.PayerSelf
	}
	shared := req.IsShared && req.Kind == models.TransactionKindExpense
	var split models.Split
	if shared {
		split = req.Split
	}

	next := models.Transaction{
		Base: models.Base{
			ID:        current.ID,
			CreatedAt: current.CreatedAt,
		},
		UserID:          current.UserID,
		Description:     req.Description,
		Amount:          req.Amount,
		Kind:            req.Kind,
		Category:        req.Category,
		OccursOn:        ledger.ToDate(req.OccursOn),
		IsShared:        shared,
		Payer:           payer,
		RecurrenceGroup: current.RecurrenceGroup,
	}.WithSplit(split)

	err = s.transactions.Replace(ctx, &next)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperrors.ErrTransactionNotFound
	}
	if err != nil {
		return nil, s.internal("replace transaction", err, req.Owner)
	}

	s.afterWrite(ctx, events.TransactionsUpdated, req.Owner, []models.Transaction{next})
	return &next, nil
}

// DeleteTransaction deletes a transaction owned by the user
func (s *transactionService) DeleteTransaction(ctx context.Context, userID, transactionID string) error {
	err := s.transactions.Delete(ctx, userID, transactionID)
	if errors.Is(err, store.ErrNotFound) {
		return apperrors.ErrTransactionNotFound
	}
	if err != nil {
		return s.internal("delete transaction", err, userID)
	}

	s.afterWrite(ctx, events.TransactionsDeleted, userID, []models.Transaction{{Base: models.Base{ID: transactionID}}})
	return nil
}

// afterWrite drops cached summaries and announces the change. Failures are
// logged; the write itself has already succeeded.
func (s *transactionService) afterWrite(ctx context.Context, kind events.Type, userID string, txs []models.Transaction) {
	if len(txs) == 0 {
		return
	}

	if err := s.summaries.Invalidate(ctx, userID); err != nil {
		s.log.Warnw("failed to invalidate summary cache", "error", err, "user_id", userID)
	}

	ids := make([]string, len(txs))
	for i, tx := range txs {
		ids[i] = tx.ID
	}
	event := events.New(kind, userID, ids...)
	event.RecurrenceGroup = txs[0].RecurrenceGroup

	if err := s.publisher.Publish(ctx, event); err != nil {
		s.log.Warnw("failed to publish transaction event", "error", err, "type", kind, "user_id", userID)
	}
}

func (s *transactionService) internal(op string, err error, userID string) error {
	s.log.Errorw("transaction store failure", "op", op, "error", err, "user_id", userID)
	return apperrors.Wrap(apperrors.ErrInternalServer, err)
}
