package apperrors

import (
	"errors"
	"fmt"
)

// ErrNotFound indicates that a requested resource could not be found.
var ErrNotFound = errors.New("resource not found")

// ErrValidation indicates that input data failed validation checks.
var ErrValidation = errors.New("validation error")

// ErrDuplicate indicates that an attempt was made to create a resource that already exists.
var ErrDuplicate = errors.New("resource already exists")

// ErrInvalidAmount indicates a non-positive amount or one with more than two decimal places.
var ErrInvalidAmount = errors.New("invalid amount")

// ErrSelfTransfer indicates a transfer whose origin and destination are the same account.
var ErrSelfTransfer = errors.New("cannot transfer to the same account")

// ErrInsufficientFunds indicates that applying a debit would make a balance negative.
var ErrInsufficientFunds = errors.New("insufficient funds")

// ErrSourceNotFound and ErrDestinationNotFound identify the missing side of a transfer.
// Both wrap ErrNotFound so callers that do not care about the side can match on it.
var (
	ErrSourceNotFound      = fmt.Errorf("source account: %w", ErrNotFound)
	ErrDestinationNotFound = fmt.Errorf("destination account: %w", ErrNotFound)
)

// ErrBalanceLimit indicates that applying a credit would push a balance above domain.MaxAmount.
var ErrBalanceLimit = errors.New("balance limit exceeded")

// ErrInvalidToken indicates a missing or unknown session token.
var ErrInvalidToken = errors.New("invalid session token")

// ErrTokenExpired indicates a session token older than the session window.
var ErrTokenExpired = errors.New("session token expired")

// ErrInvalidCredentials indicates a login with the wrong secret.
var ErrInvalidCredentials = errors.New("invalid credentials")

// ErrNothingToUpdate indicates a profile update that carried no fields.
var ErrNothingToUpdate = errors.New("nothing to update")

// AppError wraps an infrastructure failure with a status-like code and a message
// that is safe to log alongside the request.
type AppError struct {
	Code    int
	Message string
	Err     error
}

// NewAppError creates an AppError. err may be nil.
func NewAppError(code int, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}

func (e *AppError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

func (e *AppError) Unwrap() error {
	return e.Err
}
