package finance

import "errors"

var (
	ErrCurrencyNotFound       = errors.New("currency not found")
	ErrCategoryNotFound       = errors.New("category not found")
	ErrCostCenterNotFound     = errors.New("cost center not found")
	ErrPayerNotFound          = errors.New("payer not found")
	ErrEntryNotFound          = errors.New("entry not found")
	ErrTransactionNotFound    = errors.New("transaction not found")
	ErrTransactionAlreadyPaid = errors.New("transaction already paid")
	ErrValidation             = errors.New("invalid input")
)
