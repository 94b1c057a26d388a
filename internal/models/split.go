package models

import "github.com/shopspring/decimal"

// SplitMode names the variant of a Split
type SplitMode string

const (
	SplitModeEqual  SplitMode = "equal"
	SplitModeCustom SplitMode = "custom"
)

var two = decimal.NewFromInt(2)

// Split divides a shared expense between self and partner.
// Implementations are EqualSplit and CustomSplit.
type Split interface {
	Mode() SplitMode
	Shares(amount decimal.Decimal) (self, partner decimal.Decimal)
}

// EqualSplit halves the amount.
type EqualSplit struct{}

// Mode implements Split.
func (EqualSplit) Mode() SplitMode { return SplitModeEqual }

// Shares implements Split.
func (EqualSplit) Shares(amount decimal.Decimal) (decimal.Decimal, decimal.Decimal) {
	half := amount.Div(two)
	return half, half
}

// CustomSplit carries explicit shares that must add up to the amount.
type CustomSplit struct {
	Self    decimal.Decimal
	Partner decimal.Decimal
}

// Mode implements Split.
func (CustomSplit) Mode() SplitMode { return SplitModeCustom }

// Shares implements Split. The amount is ignored; the stored shares win.
func (c CustomSplit) Shares(decimal.Decimal) (decimal.Decimal, decimal.Decimal) {
	return c.Self, c.Partner
}

// Covers reports whether the shares add up to amount.
func (c CustomSplit) Covers(amount decimal.Decimal) bool {
	return c.Self.Add(c.Partner).Equal(amount)
}
