package store

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"duofinance/internal/models"
	"duofinance/internal/pagination"
)

type transactionStore struct {
	db *gorm.DB
}

// NewTransactionStore creates a GORM backed TransactionStore.
func NewTransactionStore(db *gorm.DB) TransactionStore {
	return &transactionStore{db: db}
}

func (s *transactionStore) Create(ctx context.Context, tx *models.Transaction) error {
	return s.db.WithContext(ctx).Create(tx).Error
}

func (s *transactionStore) FindByID(ctx context.Context, ownerID, id string) (*models.Transaction, error) {
	var tx models.Transaction
	err := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, ownerID).
		First(&tx).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &tx, nil
}

func (s *transactionStore) FindByOwner(ctx context.Context, ownerID string, filter TransactionFilter) ([]models.Transaction, error) {
	q := s.db.WithContext(ctx).Model(&models.Transaction{}).Where("user_id = ?", ownerID)
	q = applyTransactionFilter(q, filter)

	var txs []models.Transaction
	if err := q.Order("occurs_on ASC, id ASC").Find(&txs).Error; err != nil {
		return nil, err
	}
	return txs, nil
}

func (s *transactionStore) Page(ctx context.Context, ownerID string, filter TransactionFilter, page pagination.PageRequest) ([]models.Transaction, int64, error) {
	page.Defaults()

	base := s.db.WithContext(ctx).Model(&models.Transaction{}).Where("user_id = ?", ownerID)
	base = applyTransactionFilter(base, filter)

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var txs []models.Transaction
	if err := base.Scopes(pagination.Paginate(page)).
		Order("occurs_on DESC, id DESC").
		Find(&txs).Error; err != nil {
		return nil, 0, err
	}
	return txs, total, nil
}

func (s *transactionStore) Replace(ctx context.Context, tx *models.Transaction) error {
	tx.UpdatedAt = s.db.NowFunc()
	res := s.db.WithContext(ctx).
		Model(&models.Transaction{}).
		Where("id = ? AND user_id = ?", tx.ID, tx.UserID).
		Select("*").
		Omit("id", "user_id", "created_at", "deleted_at").
		Updates(tx)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *transactionStore) Delete(ctx context.Context, ownerID, id string) error {
	res := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, ownerID).
		Delete(&models.Transaction{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func applyTransactionFilter(q *gorm.DB, f TransactionFilter) *gorm.DB {
	if f.From != nil {
		q = q.Where("occurs_on >= ?", *f.From)
	}
	if f.To != nil {
		q = q.Where("occurs_on < ?", *f.To)
	}
	if f.Kind != nil {
		q = q.Where("kind = ?", *f.Kind)
	}
	if f.Category != nil {
		q = q.Where("category = ?", *f.Category)
	}
	if f.IsShared != nil {
		q = q.Where("is_shared = ?", *f.IsShared)
	}
	if f.RecurrenceGroup != nil {
		q = q.Where("recurrence_group = ?", *f.RecurrenceGroup)
	}
	return q
}
