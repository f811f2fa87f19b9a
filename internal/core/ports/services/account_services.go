package services

import (
	"context"

	"github.com/SscSPs/pix_backend/internal/core/domain"
	"github.com/SscSPs/pix_backend/internal/dto"
)

// AccountReaderSvc defines read operations for account data
type AccountReaderSvc interface {
	// GetAccount retrieves the current snapshot of the account identified by cpf.
	GetAccount(ctx context.Context, cpf string) (*domain.Account, error)

	// Authenticate returns the account when secret matches, apperrors.ErrNotFound for an
	// unknown CPF and apperrors.ErrInvalidCredentials for a wrong secret.
	Authenticate(ctx context.Context, cpf string, secret string) (*domain.Account, error)
}

// AccountWriterSvc defines write operations for account data
type AccountWriterSvc interface {
	// CreateAccount persists a new account with a zero balance.
	CreateAccount(ctx context.Context, req dto.CreateUserRequest) (*domain.Account, error)

	// UpdateAccount changes the name and/or secret of an existing account.
	UpdateAccount(ctx context.Context, cpf string, req dto.UpdateUserRequest) error
}

// AccountSvcFacade combines all account-related service interfaces
type AccountSvcFacade interface {
	AccountReaderSvc
	AccountWriterSvc
}
