// Package validator provides custom validation functions for Gin's binding engine.
package validator

import (
	"reflect"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"duofinance/internal/ledger"
	"duofinance/internal/models"
)

// Register registers all custom validators with the Gin binding engine.
func Register() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		Apply(v)
	}
}

// Apply installs the custom tags and the decimal type func on v.
func Apply(v *validator.Validate) {
	v.RegisterCustomTypeFunc(decimalValue, decimal.Decimal{})
	_ = v.RegisterValidation("transaction_kind", validateTransactionKind)
	_ = v.RegisterValidation("category_kind", validateCategoryKind)
	_ = v.RegisterValidation("payer", validatePayer)
	_ = v.RegisterValidation("frequency", validateFrequency)
	_ = v.RegisterValidation("split_mode", validateSplitMode)
}

// decimalValue lets numeric tags such as gt=0 apply to decimal amounts.
func decimalValue(field reflect.Value) interface{} {
	if d, ok := field.Interface().(decimal.Decimal); ok {
		f, _ := d.Float64()
		return f
	}
	return nil
}

func validateTransactionKind(fl validator.FieldLevel) bool {
	switch models.TransactionKind(fl.Field().String()) {
	case models.TransactionKindIncome, models.TransactionKindExpense:
		return true
	}
	return false
}

func validateCategoryKind(fl validator.FieldLevel) bool {
	switch models.CategoryKind(fl.Field().String()) {
	case models.CategoryKindIncome, models.CategoryKindExpense:
		return true
	}
	return false
}

func validatePayer(fl validator.FieldLevel) bool {
	switch models.Payer(fl.Field().String()) {
	case models.PayerSelf, models.PayerPartner:
		return true
	}
	return false
}

func validateFrequency(fl validator.FieldLevel) bool {
	switch ledger.Frequency(fl.Field().String()) {
	case ledger.Weekly, ledger.Monthly, ledger.Yearly:
		return true
	}
	return false
}

func validateSplitMode(fl validator.FieldLevel) bool {
	switch models.SplitMode(fl.Field().String()) {
	case models.SplitModeEqual, models.SplitModeCustom:
		return true
	}
	return false
}
