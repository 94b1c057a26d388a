package ledger

import (
	"github.com/shopspring/decimal"

	"duofinance/internal/models"
)

// Direction states who owes whom after a period.
type Direction string

const (
	PartnerOwesSelf Direction = "partner_owes_self"
	SelfOwesPartner Direction = "self_owes_partner"
	Settled         Direction = "settled"
)

// Summary aggregates one period of transactions.
type Summary struct {
	TotalIncome decimal.Decimal `json:"total_income"`
	// TotalExpense counts only the part of each expense the owner is
	// responsible for.
	TotalExpense   decimal.Decimal `json:"total_expense"`
	CurrentBalance decimal.Decimal `json:"current_balance"`

	// Gross amounts of shared expenses grouped by who paid.
	SelfPaidShared    decimal.Decimal `json:"self_paid_shared"`
	PartnerPaidShared decimal.Decimal `json:"partner_paid_shared"`

	PartnerOwesSelf decimal.Decimal `json:"partner_owes_self"`
	SelfOwesPartner decimal.Decimal `json:"self_owes_partner"`
	// NetBalance is positive when the partner owes the owner.
	NetBalance decimal.Decimal `json:"net_balance"`

	HasSharedTransactions bool `json:"has_shared_transactions"`
}

// Direction derives the settlement direction from NetBalance.
func (s Summary) Direction() Direction {
	switch s.NetBalance.Sign() {
	case 1:
		return PartnerOwesSelf
	case -1:
		return SelfOwesPartner
	}
	return Settled
}

// SettlementAmount is the absolute amount to transfer.
func (s Summary) SettlementAmount() decimal.Decimal {
	return s.NetBalance.Abs()
}

// Summarize computes the period summary. The input must already be limited to
// one owner and one period. Decimal addition is exact, so the result does not
// depend on the order of txs.
func Summarize(txs []models.Transaction) Summary {
	var s Summary

	for _, tx := range txs {
		if tx.IsShared {
			s.HasSharedTransactions = true
		}

		switch tx.Kind {
		case models.TransactionKindIncome:
			s.TotalIncome = s.TotalIncome.Add(tx.Amount)

		case models.TransactionKindExpense:
			if !tx.IsShared {
				s.TotalExpense = s.TotalExpense.Add(tx.Amount)
				continue
			}

			selfShare, partnerShare := tx.Split().Shares(tx.Amount)
			s.TotalExpense = s.TotalExpense.Add(selfShare)

			if tx.Payer == models.PayerPartner {
				s.PartnerPaidShared = s.PartnerPaidShared.Add(tx.Amount)
				s.SelfOwesPartner = s.SelfOwesPartner.Add(selfShare)
			} else {
				s.SelfPaidShared = s.SelfPaidShared.Add(tx.Amount)
				s.PartnerOwesSelf = s.PartnerOwesSelf.Add(partnerShare)
			}
		}
	}

	s.CurrentBalance = s.TotalIncome.Sub(s.TotalExpense)
	s.NetBalance = s.PartnerOwesSelf.Sub(s.SelfOwesPartner)
	return s
}
