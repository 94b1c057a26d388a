package services

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	apperrors "duofinance/internal/errors"
	"duofinance/internal/models"
	"duofinance/internal/store"
)

// DefaultCategories is the set created for an owner on their first listing.
var DefaultCategories = []struct {
	Name string
	Kind models.CategoryKind
}{
	{"Salary", models.CategoryKindIncome},
	{"Investments", models.CategoryKindIncome},
	{"Other", models.CategoryKindIncome},
	{"Food", models.CategoryKindExpense},
	{"Housing", models.CategoryKindExpense},
	{"Transport", models.CategoryKindExpense},
	{"Leisure", models.CategoryKindExpense},
	{"Health", models.CategoryKindExpense},
	{"Education", models.CategoryKindExpense},
	{"Bills", models.CategoryKindExpense},
	{"Shopping", models.CategoryKindExpense},
}

const maxCategoryNameLength = 100

// categoryService handles category-related business logic.
type categoryService struct {
	categories store.CategoryStore
	log        *zap.SugaredLogger
	seeding    singleflight.Group
}

// NewCategoryService creates a new CategoryServicer.
func NewCategoryService(categories store.CategoryStore, log *zap.SugaredLogger) CategoryServicer {
	return &categoryService{categories: categories, log: log}
}

// ListCategories returns the owner's categories, seeding the defaults when
// there are none. Concurrent first listings share a single seed.
func (s *categoryService) ListCategories(ctx context.Context, userID string) ([]models.Category, error) {
	existing, err := s.categories.FindByOwner(ctx, userID)
	if err != nil {
		return nil, s.internal("list categories", err, userID)
	}
	if len(existing) > 0 {
		return existing, nil
	}

	// Every caller in the flight shares the seed; it outlives the first
	// caller's cancellation.
	seedCtx := context.WithoutCancel(ctx)
	v, err, _ := s.seeding.Do(userID, func() (any, error) {
		// Another caller may have finished seeding between the read above and
		// acquiring the flight.
		current, err := s.categories.FindByOwner(seedCtx, userID)
		if err != nil {
			return nil, err
		}
		if len(current) > 0 {
			return current, nil
		}

		seed := make([]models.Category, len(DefaultCategories))
		for i, c := range DefaultCategories {
			seed[i] = models.Category{UserID: userID, Name: c.Name, Kind: c.Kind}
		}
		if err := s.categories.CreateBatch(seedCtx, seed); err != nil {
			return nil, err
		}
		s.log.Infow("Seeded default categories", "user_id", userID, "count", len(seed))
		return s.categories.FindByOwner(seedCtx, userID)
	})
	if err != nil {
		return nil, s.internal("seed categories", err, userID)
	}
	return v.([]models.Category), nil
}

// CreateCategory creates a new category
func (s *categoryService) CreateCategory(ctx context.Context, userID, name string, kind models.CategoryKind) (*models.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "category name is required")
	}
	if len(name) > maxCategoryNameLength {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "category name is too long")
	}
	if kind != models.CategoryKindIncome && kind != models.CategoryKindExpense {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "kind must be income or expense")
	}

	exists, err := s.categories.ExistsByName(ctx, userID, name)
	if err != nil {
		return nil, s.internal("check category name", err, userID)
	}
	if exists {
		return nil, apperrors.ErrDuplicateCategory
	}

	category := &models.Category{UserID: userID, Name: name, Kind: kind}
	if err := s.categories.Create(ctx, category); err != nil {
		return nil, s.internal("create category", err, userID)
	}
	return category, nil
}

// GetCategoryByID retrieves a category by ID for a specific user
func (s *categoryService) GetCategoryByID(ctx context.Context, userID, categoryID string) (*models.Category, error) {
	category, err := s.categories.FindByID(ctx, userID, categoryID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperrors.ErrCategoryNotFound
	}
	if err != nil {
		return nil, s.internal("get category", err, userID)
	}
	return category, nil
}

// DeleteCategory removes a category. Transactions keep their category text.
func (s *categoryService) DeleteCategory(ctx context.Context, userID, categoryID string) error {
	err := s.categories.Delete(ctx, userID, categoryID)
	if errors.Is(err, store.ErrNotFound) {
		return apperrors.ErrCategoryNotFound
	}
	if err != nil {
		return s.internal("delete category", err, userID)
	}
	return nil
}

func (s *categoryService) internal(op string, err error, userID string) error {
	s.log.Errorw("category store failure", "op", op, "error", err, "user_id", userID)
	return apperrors.Wrap(apperrors.ErrInternalServer, err)
}
