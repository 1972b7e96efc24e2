package domain

import (
	"errors"
	"fmt"
)

// DomainError represents a business logic error
type DomainError struct {
	Code    string
	Message string
	Err     error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error for errors.Is/As support
func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is matches any DomainError carrying the same code, so constructed errors
// compare equal to the sentinels below.
func (e *DomainError) Is(target error) bool {
	var t *DomainError
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// Retryable is implemented by infrastructure errors that know whether a retry can help.
type Retryable interface {
	IsRetryable() bool
}

// Domain validation errors
const (
	ErrCodeInvalidTransition     = "INVALID_TRANSITION"
	ErrCodeInvalidState          = "INVALID_STATE"
	ErrCodeInvalidAmount         = "INVALID_AMOUNT"
	ErrCodeInvalidCurrency       = "INVALID_CURRENCY"
	ErrCodeUnsupportedCurrency   = "UNSUPPORTED_CURRENCY"
	ErrCodeMissingRequiredField  = "MISSING_REQUIRED_FIELD"
	ErrCodeRefundExceedsOriginal = "REFUND_EXCEEDS_ORIGINAL"
	ErrCodeTransactionNotFound   = "TRANSACTION_NOT_FOUND"
	ErrCodeDuplicateTransaction  = "DUPLICATE_TRANSACTION"
)

var (
	ErrInvalidTransition     = &DomainError{Code: ErrCodeInvalidTransition, Message: "invalid transition"}
	ErrInvalidState          = &DomainError{Code: ErrCodeInvalidState, Message: "invalid state"}
	ErrInvalidAmount         = &DomainError{Code: ErrCodeInvalidAmount, Message: "invalid amount"}
	ErrInvalidCurrency       = &DomainError{Code: ErrCodeInvalidCurrency, Message: "invalid currency"}
	ErrUnsupportedCurrency   = &DomainError{Code: ErrCodeUnsupportedCurrency, Message: "unsupported currency"}
	ErrMissingRequiredField  = &DomainError{Code: ErrCodeMissingRequiredField, Message: "missing required field"}
	ErrRefundExceedsOriginal = &DomainError{Code: ErrCodeRefundExceedsOriginal, Message: "refund exceeds original amount"}
	ErrTransactionNotFound   = &DomainError{Code: ErrCodeTransactionNotFound, Message: "transaction not found"}
	ErrDuplicateTransaction  = &DomainError{Code: ErrCodeDuplicateTransaction, Message: "duplicate transaction id"}
)

func NewMissingRequiredFieldError(field string) *DomainError {
	return &DomainError{
		Code:    ErrCodeMissingRequiredField,
		Message: fmt.Sprintf("%s is required", field),
	}
}

func NewInvalidStateError(current TransactionStatus, expected TransactionStatus) *DomainError {
	return &DomainError{
		Code:    ErrCodeInvalidState,
		Message: fmt.Sprintf("invalid state: transaction is %s, expected %s", current, expected),
	}
}

func NewInvalidAmountError(amount string) *DomainError {
	return &DomainError{
		Code:    ErrCodeInvalidAmount,
		Message: fmt.Sprintf("invalid amount %s: must be greater than zero", amount),
	}
}

func NewInvalidCurrencyError(currency string) *DomainError {
	return &DomainError{
		Code:    ErrCodeInvalidCurrency,
		Message: fmt.Sprintf("invalid currency %q: expected a 3-letter code", currency),
	}
}

func NewUnsupportedCurrencyError(currency, gateway string) *DomainError {
	return &DomainError{
		Code:    ErrCodeUnsupportedCurrency,
		Message: fmt.Sprintf("currency %s is not supported by %s", currency, gateway),
	}
}

func NewRefundExceedsOriginalError(requested, original string) *DomainError {
	return &DomainError{
		Code:    ErrCodeRefundExceedsOriginal,
		Message: fmt.Sprintf("refund amount %s exceeds original amount %s", requested, original),
	}
}

func NewInvalidTransitionError(from, to TransactionStatus) *DomainError {
	return &DomainError{
		Code:    ErrCodeInvalidTransition,
		Message: fmt.Sprintf("cannot transition from %s to %s", from, to),
	}
}

func NewTransactionNotFoundError(id string) *DomainError {
	return &DomainError{
		Code:    ErrCodeTransactionNotFound,
		Message: fmt.Sprintf("transaction %s not found", id),
	}
}

func NewDuplicateTransactionError(transactionID string) *DomainError {
	return &DomainError{
		Code:    ErrCodeDuplicateTransaction,
		Message: fmt.Sprintf("transaction id %s already exists", transactionID),
	}
}

// IsErrorCode checks if an error is a DomainError with a specific code
func IsErrorCode(err error, code string) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code == code
	}
	return false
}
