package apperrors

import (
	"errors"
	"fmt"
)

// Generic failures shared by every layer.
var (
	ErrNotFound        = errors.New("resource not found")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrValidation      = errors.New("validation failed")
	ErrAlreadyExists   = errors.New("resource already exists")
	ErrConflict        = errors.New("resource conflict")
	ErrDatabase        = errors.New("database error")
	ErrInternalServer  = errors.New("internal server error")
	ErrUnauthorized    = errors.New("unauthorized")
)

// Loan and penalty rule violations.
var (
	ErrInvalidScheduleInput   = errors.New("invalid schedule input")
	ErrInvalidPaymentAmount   = errors.New("invalid payment amount")
	ErrNoDueInstallment       = errors.New("no due installment for loan")
	ErrLoanNotPayable         = errors.New("loan does not accept payments")
	ErrOverpayment            = errors.New("payment exceeds amount due")
	ErrAlreadyCleared         = errors.New("loan is already cleared")
	ErrInsufficientPermission = errors.New("insufficient permission")
	ErrPenaltyNotPending      = errors.New("penalty is not pending")
)

// ValidationError names the request field that was rejected.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation failed: " + e.Message
	}
	return fmt.Sprintf("validation failed for field '%s': %s", e.Field, e.Message)
}

func NewValidationError(field, message string) error {
	return fmt.Errorf("%w: %w", ErrValidation, &ValidationError{Field: field, Message: message})
}

// NewScheduleInputError reports a rejected schedule term. It matches both
// ErrInvalidScheduleInput and ErrValidation.
func NewScheduleInputError(field, message string) error {
	return fmt.Errorf("%w: %w", ErrInvalidScheduleInput, NewValidationError(field, message))
}

// FieldOf returns the offending field of a validation failure anywhere in
// err's chain, or "".
func FieldOf(err error) string {
	var v *ValidationError
	if errors.As(err, &v) {
		return v.Field
	}
	return ""
}
