package models

// CategoryKind represents whether a category groups income or expenses
type CategoryKind string

const (
	CategoryKindIncome  CategoryKind = "income"
	CategoryKindExpense CategoryKind = "expense"
)

// Category represents a transaction category owned by a single user.
type Category struct {
	Base
	UserID string       `gorm:"type:uuid;not null;index" json:"user_id"`
	Name   string       `gorm:"not null" json:"name"`
	Kind   CategoryKind `gorm:"not null" json:"kind"`
}
