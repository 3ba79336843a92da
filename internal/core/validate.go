package core

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("notblank", validateNotBlank)
	_ = v.RegisterValidation("transaction_type", validateTransactionType)
	_ = v.RegisterValidation("payment_method", validatePaymentMethod)
	_ = v.RegisterValidation("palette_color", validatePaletteColor)
	v.RegisterStructValidation(validateCategoryForType, TransactionInput{})
	return v
}

func validateNotBlank(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}

func validateTransactionType(fl validator.FieldLevel) bool {
	return TransactionType(fl.Field().String()).Valid()
}

func validatePaymentMethod(fl validator.FieldLevel) bool {
	return PaymentMethod(fl.Field().String()).Valid()
}

func validatePaletteColor(fl validator.FieldLevel) bool {
	return IsPaletteColor(fl.Field().String())
}

func validateCategoryForType(sl validator.StructLevel) {
	in := sl.Current().Interface().(TransactionInput)
	if !IsKnownCategory(in.Type, in.Category) {
		sl.ReportError(in.Category, "Category", "Category", "category_for_type", "")
	}
}

// fieldErrors maps struct fields to the sentinel reported when they fail,
// in reporting priority.
type fieldErrors []struct {
	field string
	err   error
}

var (
	transactionFieldErrors = fieldErrors{
		{"Amount", ErrInvalidAmount},
		{"Type", ErrInvalidType},
		{"PaymentMethod", ErrInvalidPaymentMethod},
		{"Category", ErrUnknownCategory},
	}
	goalFieldErrors = fieldErrors{
		{"Name", ErrEmptyName},
		{"TargetAmount", ErrInvalidTarget},
		{"CurrentAmount", ErrInvalidCurrent},
		{"Color", ErrInvalidColor},
	}
)

// check validates s and returns the sentinel of the highest priority failed
// field, so callers can match with errors.Is.
func check(s any, priority fieldErrors) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	failed := make(map[string]bool, len(verrs))
	for _, fe := range verrs {
		failed[fe.StructField()] = true
	}
	for _, p := range priority {
		if failed[p.field] {
			return p.err
		}
	}
	return verrs
}
