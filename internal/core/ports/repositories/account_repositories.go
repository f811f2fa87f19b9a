package repositories

import (
	"context"
	"time"

	"github.com/SscSPs/pix_backend/internal/core/domain"
	"github.com/shopspring/decimal"
)

// AccountReader defines read operations for account data
type AccountReader interface {
	// FindAccountByCPF retrieves the current snapshot of an account, or apperrors.ErrNotFound.
	FindAccountByCPF(ctx context.Context, cpf string) (*domain.Account, error)
}

// AccountWriter defines write operations for account data
type AccountWriter interface {
	// CreateAccount atomically checks for and inserts a new account.
	// It returns apperrors.ErrDuplicate when the CPF is already present.
	CreateAccount(ctx context.Context, account domain.Account) error

	// UpdateAccountProfile applies a partial update; nil fields are left untouched.
	UpdateAccountProfile(ctx context.Context, cpf string, name *string, secret *string, now time.Time) error

	// AdjustBalance atomically applies balance += delta and returns the new balance.
	// It returns apperrors.ErrInsufficientFunds if the result would be negative.
	AdjustBalance(ctx context.Context, cpf string, delta decimal.Decimal, now time.Time) (decimal.Decimal, error)
}

// AccountRepositoryFacade combines all account-related repository interfaces
type AccountRepositoryFacade interface {
	AccountReader
	AccountWriter
}
