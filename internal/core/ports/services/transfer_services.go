package services

import (
	"context"

	"github.com/SscSPs/pix_backend/internal/core/domain"
	"github.com/shopspring/decimal"
)

// TransferSvcFacade is the ledger engine: transfers, deposits and the transaction history.
type TransferSvcFacade interface {
	// Transfer moves amount from sourceCPF to destCPF as one atomic unit and returns the
	// recorded transaction.
	Transfer(ctx context.Context, sourceCPF string, destCPF string, amount decimal.Decimal) (*domain.Transaction, error)

	// Deposit increases the balance of cpf and returns the new balance. No transaction is recorded.
	Deposit(ctx context.Context, cpf string, amount decimal.Decimal) (decimal.Decimal, error)

	// ListTransactions returns the transactions cpf took part in, newest first.
	ListTransactions(ctx context.Context, cpf string, filter domain.TransactionFilter) ([]domain.TransactionDetail, error)
}
