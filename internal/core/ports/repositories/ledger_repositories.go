package repositories

import (
	"context"

	"github.com/SscSPs/pix_backend/internal/core/domain"
)

// LedgerWriter applies transfers. The debit, the credit and the transaction record
// commit together or not at all.
type LedgerWriter interface {
	// ApplyTransfer locks both accounts, checks existence and funds, moves the amount and
	// appends the record. The returned transaction carries the store-generated ID.
	// Errors: apperrors.ErrSourceNotFound, apperrors.ErrDestinationNotFound,
	// apperrors.ErrInsufficientFunds.
	ApplyTransfer(ctx context.Context, transfer domain.Transaction) (*domain.Transaction, error)
}

// TransactionReader defines read operations for the transaction log
type TransactionReader interface {
	// ListTransactionsByCPF returns every transaction where cpf is origin or destination,
	// newest first, joined with both parties' names.
	ListTransactionsByCPF(ctx context.Context, cpf string, filter domain.TransactionFilter) ([]domain.TransactionDetail, error)
}

// LedgerRepositoryFacade combines the transaction log interfaces
type LedgerRepositoryFacade interface {
	LedgerWriter
	TransactionReader
}
