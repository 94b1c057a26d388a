package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionKind represents the direction of a transaction
type TransactionKind string

const (
	TransactionKindIncome  TransactionKind = "income"
	TransactionKindExpense TransactionKind = "expense"
)

// Payer identifies which household member fronted the money
type Payer string

const (
	PayerSelf    Payer = "self"
	PayerPartner Payer = "partner"
)

// Transaction represents a single dated income or expense record.
// Amount is always the full amount, never a pre-divided share.
type Transaction struct {
	Base
	UserID          string          `gorm:"type:uuid;not null;index" json:"user_id"`
	Description     string          `gorm:"not null" json:"description"`
	Amount          decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"amount"`
	Kind            TransactionKind `gorm:"not null" json:"kind"`
	Category        string          `json:"category"`
	OccursOn        time.Time       `gorm:"type:date;not null;index" json:"occurs_on"`
	IsShared        bool            `gorm:"not null;default:false" json:"is_shared"`
	Payer           Payer           `gorm:"not null;default:'self'" json:"payer"`
	RecurrenceGroup *string         `gorm:"type:uuid;index" json:"recurrence_group,omitempty"`

	// Split columns; read through Split().
	SplitMode    SplitMode           `gorm:"size:16" json:"-"`
	SelfShare    decimal.NullDecimal `gorm:"type:numeric(14,2)" json:"-"`
	PartnerShare decimal.NullDecimal `gorm:"type:numeric(14,2)" json:"-"`
}

// IsSharedExpense reports whether the transaction takes part in settlement.
// Income is never shared, whatever the stored flag says.
func (t Transaction) IsSharedExpense() bool {
	return t.Kind == TransactionKindExpense && t.IsShared
}

// Split returns how the transaction is divided. Records without custom
// split columns fall back to the equal split.
func (t Transaction) Split() Split {
	if t.SplitMode == SplitModeCustom && t.SelfShare.Valid && t.PartnerShare.Valid {
		return CustomSplit{Self: t.SelfShare.Decimal, Partner: t.PartnerShare.Decimal}
	}
	return EqualSplit{}
}

// WithSplit returns a copy of t carrying the given split. Only custom splits
// are persisted; an equal or nil split clears the split columns.
func (t Transaction) WithSplit(s Split) Transaction {
	if custom, ok := s.(CustomSplit); ok {
		t.SplitMode = SplitModeCustom
		t.SelfShare = decimal.NewNullDecimal(custom.Self)
		t.PartnerShare = decimal.NewNullDecimal(custom.Partner)
		return t
	}
	t.SplitMode = ""
	t.SelfShare = decimal.NullDecimal{}
	t.PartnerShare = decimal.NullDecimal{}
	return t
}
