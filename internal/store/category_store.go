package store

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"duofinance/internal/models"
)

type categoryStore struct {
	db *gorm.DB
}

// NewCategoryStore creates a GORM backed CategoryStore.
func NewCategoryStore(db *gorm.DB) CategoryStore {
	return &categoryStore{db: db}
}

func (s *categoryStore) Create(ctx context.Context, category *models.Category) error {
	return s.db.WithContext(ctx).Create(category).Error
}

func (s *categoryStore) CreateBatch(ctx context.Context, categories []models.Category) error {
	if len(categories) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(&categories).Error
	})
}

func (s *categoryStore) FindByOwner(ctx context.Context, ownerID string) ([]models.Category, error) {
	var categories []models.Category
	err := s.db.WithContext(ctx).
		Where("user_id = ?", ownerID).
		Order("kind ASC, name ASC").
		Find(&categories).Error
	if err != nil {
		return nil, err
	}
	return categories, nil
}

func (s *categoryStore) FindByID(ctx context.Context, ownerID, id string) (*models.Category, error) {
	var category models.Category
	err := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, ownerID).
		First(&category).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &category, nil
}

func (s *categoryStore) ExistsByName(ctx context.Context, ownerID, name string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&models.Category{}).
		Where("user_id = ? AND LOWER(name) = ?", ownerID, strings.ToLower(strings.TrimSpace(name))).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *categoryStore) Delete(ctx context.Context, ownerID, id string) error {
	res := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, ownerID).
		Delete(&models.Category{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
