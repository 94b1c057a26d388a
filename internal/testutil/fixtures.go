package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"duofinance/internal/models"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// TestPassword is the plain-text password of every fixture user.
const TestPassword = "password123"

// CreateTestUser creates a user with a hashed password and unique email.
func CreateTestUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	email := fmt.Sprintf("user%d@test.com", nextID())
	return CreateTestUserWithEmail(t, db, email)
}

// CreateTestUserWithEmail creates a user with the given email.
func CreateTestUserWithEmail(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(TestPassword), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := &models.User{
		Email:    email,
		Password: string(hash),
		Name:     "Test User",
		IsActive: true,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateTestCategory creates a category with a unique name.
func CreateTestCategory(t *testing.T, db *gorm.DB, userID string, kind models.CategoryKind) *models.Category {
	t.Helper()

	category := &models.Category{
		UserID: userID,
		Name:   fmt.Sprintf("Test Category %d", nextID()),
		Kind:   kind,
	}
	if err := db.Create(category).Error; err != nil {
		t.Fatalf("failed to create test category: %v", err)
	}
	return category
}

// CreateTestTransaction creates a non-shared transaction paid by the owner.
func CreateTestTransaction(t *testing.T, db *gorm.DB, userID string, kind models.TransactionKind, amount string, occursOn time.Time) *models.Transaction {
	t.Helper()

	tx := &models.Transaction{
		UserID:      userID,
		Description: fmt.Sprintf("Test Transaction %d", nextID()),
		Amount:      decimal.RequireFromString(amount),
		Kind:        kind,
		Category:    "Other",
		OccursOn:    occursOn,
		Payer:       models.PayerSelf,
	}
	if err := db.Create(tx).Error; err != nil {
		t.Fatalf("failed to create test transaction: %v", err)
	}
	return tx
}

// CreateTestSharedExpense creates a shared expense split with the given split.
func CreateTestSharedExpense(t *testing.T, db *gorm.DB, userID string, amount string, payer models.Payer, split models.Split, occursOn time.Time) *models.Transaction {
	t.Helper()

	tx := models.Transaction{
		UserID:      userID,
		Description: fmt.Sprintf("Shared Expense %d", nextID()),
		Amount:      decimal.RequireFromString(amount),
		Kind:        models.TransactionKindExpense,
		Category:    "Housing",
		OccursOn:    occursOn,
		IsShared:    true,
		Payer:       payer,
	}.WithSplit(split)
	if err := db.Create(&tx).Error; err != nil {
		t.Fatalf("failed to create shared expense: %v", err)
	}
	return &tx
}
