package ledger

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"duofinance/internal/models"
	"duofinance/internal/uuid"
)

// Frequency is the spacing between installments.
type Frequency string

const (
	Weekly  Frequency = "weekly"
	Monthly Frequency = "monthly"
	Yearly  Frequency = "yearly"
)

// MaxInstallments bounds a single recurring request.
const MaxInstallments = 360

// Storage limits. Descriptions are counted in characters and include the
// installment suffix; money keeps two decimal places.
const (
	MaxDescriptionLength = 255
	MaxCategoryLength    = 100
	MoneyScale           = 2
)

// MaxAmount is the largest value a money column holds.
var MaxAmount = decimal.RequireFromString("999999999999.99")

var (
	ErrEmptyDescription = errors.New("description is required")
	ErrLongDescription  = fmt.Errorf("description cannot exceed %d characters including the installment suffix", MaxDescriptionLength)
	ErrInvalidAmount    = errors.New("amount must be greater than zero")
	ErrAmountTooLarge   = fmt.Errorf("amount cannot exceed %s", MaxAmount)
	ErrAmountPrecision  = fmt.Errorf("amounts cannot have more than %d decimal places", MoneyScale)
	ErrInvalidKind      = errors.New("kind must be income or expense")
	ErrEmptyCategory    = errors.New("category is required")
	ErrLongCategory     = fmt.Errorf("category cannot exceed %d characters", MaxCategoryLength)
	ErrMissingDate      = errors.New("date is required")
	ErrMissingOwner     = errors.New("owner is required")
	ErrInvalidPayer     = errors.New("payer must be self or partner")
	ErrTooManyInstalls  = fmt.Errorf("installments cannot exceed %d", MaxInstallments)
	ErrNegativeShare    = errors.New("split shares cannot be negative")
	ErrSplitMismatch    = errors.New("split shares must add up to the amount")
)

// Request is one logical transaction as entered by the user, before expansion.
type Request struct {
	Description string
	Amount      decimal.Decimal
	Kind        models.TransactionKind
	Category    string
	OccursOn    time.Time
	IsShared    bool
	Payer       models.Payer
	Owner       string

	// Split is nil or EqualSplit for the default 50/50 division.
	Split models.Split

	// Installments below 2 produce a single transaction.
	Installments int
	// Frequency defaults to Monthly when empty.
	Frequency Frequency

	// RecurrenceGroup is kept as given; otherwise one is generated for
	// multi-installment requests.
	RecurrenceGroup *string
}

// Validate checks the request before anything is generated or stored.
func (r Request) Validate() error {
	if strings.TrimSpace(r.Description) == "" {
		return ErrEmptyDescription
	}
	if n := utf8.RuneCountInString(r.Description) + len(installmentSuffix(r.Installments, r.Installments)); n > MaxDescriptionLength {
		return ErrLongDescription
	}
	if !r.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	if r.Amount.GreaterThan(MaxAmount) {
		return ErrAmountTooLarge
	}
	if !fitsMoneyScale(r.Amount) {
		return ErrAmountPrecision
	}
	if r.Kind != models.TransactionKindIncome && r.Kind != models.TransactionKindExpense {
		return ErrInvalidKind
	}
	if strings.TrimSpace(r.Category) == "" {
		return ErrEmptyCategory
	}
	if utf8.RuneCountInString(r.Category) > MaxCategoryLength {
		return ErrLongCategory
	}
	if r.OccursOn.IsZero() {
		return ErrMissingDate
	}
	if r.Owner == "" {
		return ErrMissingOwner
	}
	switch r.Payer {
	case "", models.PayerSelf, models.PayerPartner:
	default:
		return ErrInvalidPayer
	}
	if r.Installments > MaxInstallments {
		return ErrTooManyInstalls
	}
	if custom, ok := r.Split.(models.CustomSplit); ok && r.Kind == models.TransactionKindExpense && r.IsShared {
		if custom.Self.IsNegative() || custom.Partner.IsNegative() {
			return ErrNegativeShare
		}
		if !fitsMoneyScale(custom.Self) || !fitsMoneyScale(custom.Partner) {
			return ErrAmountPrecision
		}
		if !custom.Covers(r.Amount) {
			return ErrSplitMismatch
		}
	}
	return nil
}

func fitsMoneyScale(d decimal.Decimal) bool {
	return d.Equal(d.Truncate(MoneyScale))
}

// installmentSuffix is appended to the description of installment i of n.
// It is empty for single transactions.
func installmentSuffix(i, n int) string {
	if n <= 1 {
		return ""
	}
	return fmt.Sprintf(" (%d/%d)", i, n)
}

// Advance moves start forward by i steps of freq using calendar arithmetic.
// Month and year steps follow time.AddDate normalization, so Jan 31 plus one
// month lands on Mar 2 or 3. An unrecognized frequency leaves start unchanged.
func Advance(start time.Time, freq Frequency, i int) time.Time {
	switch freq {
	case Weekly:
		return start.AddDate(0, 0, 7*i)
	case Monthly:
		return start.AddDate(0, i, 0)
	case Yearly:
		return start.AddDate(i, 0, 0)
	}
	return start
}

// Expander turns requests into concrete transactions. The clock and the id
// source are fields so expansion stays deterministic under test.
type Expander struct {
	NewID func() string
	Now   func() time.Time
}

// NewExpander returns an Expander using UUIDv7 ids and the wall clock.
func NewExpander() Expander {
	return Expander{NewID: uuid.New, Now: time.Now}
}

// Expand returns the installments for req in ascending order. It assumes req
// passed Validate. Every record gets its own id; all records of a
// multi-installment request share one recurrence group.
func (e Expander) Expand(req Request) []models.Transaction {
	installments := req.Installments
	if installments < 1 {
		installments = 1
	}
	frequency := req.Frequency
	if frequency == "" {
		frequency = Monthly
	}

	group := req.RecurrenceGroup
	if installments > 1 && group == nil {
		id := e.NewID()
		group = &id
	}

	payer := req.Payer
	if payer == "" {
		payer = models.PayerSelf
	}

	shared := req.IsShared && req.Kind == models.TransactionKindExpense
	var split models.Split
	if shared {
		split = req.Split
	}

	start := ToDate(req.OccursOn)
	createdAt := e.Now().UTC()

	out := make([]models.Transaction, 0, installments)
	for i := 0; i < installments; i++ {
		description := req.Description + installmentSuffix(i+1, installments)

		tx := models.Transaction{
			Base:            models.Base{ID: e.NewID(), CreatedAt: createdAt},
			UserID:          req.Owner,
			Description:     description,
			Amount:          req.Amount,
			Kind:            req.Kind,
			Category:        req.Category,
			OccursOn:        Advance(start, frequency, i),
			IsShared:        shared,
			Payer:           payer,
			RecurrenceGroup: group,
		}
		out = append(out, tx.WithSplit(split))
	}
	return out
}
