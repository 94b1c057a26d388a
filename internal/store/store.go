// Package store persists transactions and categories through GORM. Every
// lookup is scoped by owner: a record that belongs to someone else is
// indistinguishable from one that does not exist.
package store

import (
	"context"
	"errors"
	"time"

	"duofinance/internal/models"
	"duofinance/internal/pagination"
)

// ErrNotFound is returned when no record matches the id and owner.
var ErrNotFound = errors.New("record not found")

// TransactionFilter narrows a transaction listing. Nil fields are ignored.
type TransactionFilter struct {
	// From is inclusive and To exclusive, both calendar dates.
	From            *time.Time
	To              *time.Time
	Kind            *models.TransactionKind
	Category        *string
	IsShared        *bool
	RecurrenceGroup *string
}

// TransactionStore is the persistence collaborator of the transaction use cases.
type TransactionStore interface {
	// Create stores tx with the id it already carries.
	Create(ctx context.Context, tx *models.Transaction) error
	FindByID(ctx context.Context, ownerID, id string) (*models.Transaction, error)
	// FindByOwner returns every matching transaction ordered by date.
	FindByOwner(ctx context.Context, ownerID string, filter TransactionFilter) ([]models.Transaction, error)
	// Page returns one page of matching transactions, newest first, and the total count.
	Page(ctx context.Context, ownerID string, filter TransactionFilter, page pagination.PageRequest) ([]models.Transaction, int64, error)
	// Replace overwrites every mutable column of an existing transaction.
	// ID, owner and CreatedAt are never changed.
	Replace(ctx context.Context, tx *models.Transaction) error
	Delete(ctx context.Context, ownerID, id string) error
}

// CategoryStore is the persistence collaborator of the category use cases.
type CategoryStore interface {
	Create(ctx context.Context, category *models.Category) error
	// CreateBatch stores all categories or none.
	CreateBatch(ctx context.Context, categories []models.Category) error
	FindByOwner(ctx context.Context, ownerID string) ([]models.Category, error)
	FindByID(ctx context.Context, ownerID, id string) (*models.Category, error)
	ExistsByName(ctx context.Context, ownerID, name string) (bool, error)
	Delete(ctx context.Context, ownerID, id string) error
}
