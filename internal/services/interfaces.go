package services

import (
	"context"

	"duofinance/internal/ledger"
	"duofinance/internal/models"
	"duofinance/internal/pagination"
)

// UserServicer defines the contract for user-related business logic.
type UserServicer interface {
	CreateUser(ctx context.Context, email, password, name string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	VerifyPassword(user *models.User, password string) bool
	RecordLogin(ctx context.Context, userID string) error
}

// CategoryServicer defines the contract for category-related business logic.
type CategoryServicer interface {
	// ListCategories seeds the default set the first time an owner has none.
	ListCategories(ctx context.Context, userID string) ([]models.Category, error)
	CreateCategory(ctx context.Context, userID, name string, kind models.CategoryKind) (*models.Category, error)
	GetCategoryByID(ctx context.Context, userID, categoryID string) (*models.Category, error)
	DeleteCategory(ctx context.Context, userID, categoryID string) error
}

// TransactionFilter holds optional filter parameters for listing transactions.
type TransactionFilter struct {
	Period          *ledger.Period
	Kind            *models.TransactionKind
	Category        *string
	IsShared        *bool
	RecurrenceGroup *string
}

// TransactionServicer defines the contract for transaction-related business logic.
type TransactionServicer interface {
	// CreateTransactions expands req into its installments and stores them in
	// order. On a storage failure it returns a *PartialCreateError holding the
	// installments that were already stored.
	CreateTransactions(ctx context.Context, req ledger.Request) ([]models.Transaction, error)
	GetUserTransactions(ctx context.Context, userID string, page pagination.PageRequest, filter TransactionFilter) (*pagination.PageResponse[models.Transaction], error)
	GetTransactionByID(ctx context.Context, userID, transactionID string) (*models.Transaction, error)
	// UpdateTransaction replaces the transaction with the values of req.
	// Installments, Frequency and RecurrenceGroup of req are ignored.
	UpdateTransaction(ctx context.Context, transactionID string, req ledger.Request) (*models.Transaction, error)
	DeleteTransaction(ctx context.Context, userID, transactionID string) error
}

// SummaryServicer computes the monthly summary and settlement.
type SummaryServicer interface {
	GetSummary(ctx context.Context, userID string, period ledger.Period) (*ledger.Summary, error)
}

// AuditServicer defines the contract for audit logging.
type AuditServicer interface {
	Log(userID, action, resourceType, resourceID, ipAddress string, changes map[string]any)
}
