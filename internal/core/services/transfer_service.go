package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/SscSPs/pix_backend/internal/apperrors"
	"github.com/SscSPs/pix_backend/internal/core/domain"
	portsrepo "github.com/SscSPs/pix_backend/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/pix_backend/internal/core/ports/services"
	"github.com/shopspring/decimal"
)

// transferService is the ledger engine over the account and transaction stores.
type transferService struct {
	BaseService
	accountRepo portsrepo.AccountWriter
	ledgerRepo  portsrepo.LedgerRepositoryFacade
}

// NewTransferService creates the ledger engine. accountRepo and ledgerRepo must share the
// same backing store.
func NewTransferService(accountRepo portsrepo.AccountWriter, ledgerRepo portsrepo.LedgerRepositoryFacade, options ...ServiceOption) portssvc.TransferSvcFacade {
	o := buildOptions(options)
	return &transferService{
		BaseService: BaseService{clock: o.clock},
		accountRepo: accountRepo,
		ledgerRepo:  ledgerRepo,
	}
}

var _ portssvc.TransferSvcFacade = (*transferService)(nil)

func (s *transferService) Transfer(ctx context.Context, sourceCPF string, destCPF string, amount decimal.Decimal) (*domain.Transaction, error) {
	if err := domain.ValidateAmount(amount); err != nil {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrInvalidAmount, err)
	}
	if sourceCPF == destCPF {
		return nil, apperrors.ErrSelfTransfer
	}

	now := s.Now()
	transfer := domain.Transaction{
		OriginCPF:      sourceCPF,
		DestinationCPF: destCPF,
		Amount:         amount,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := transfer.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
	}

	tx, err := s.ledgerRepo.ApplyTransfer(ctx, transfer)
	if err != nil {
		if isLedgerRejection(err) {
			s.LogDebug(ctx, "Transfer rejected",
				slog.String("origin_cpf", sourceCPF),
				slog.String("destination_cpf", destCPF),
				slog.String("reason", err.Error()))
			return nil, err
		}
		s.LogError(ctx, err, "Failed to apply transfer",
			slog.String("origin_cpf", sourceCPF),
			slog.String("destination_cpf", destCPF))
		return nil, fmt.Errorf("failed to apply transfer: %w", err)
	}

	s.LogInfo(ctx, "Transfer applied",
		slog.Int64("transaction_id", tx.ID),
		slog.String("origin_cpf", sourceCPF),
		slog.String("destination_cpf", destCPF),
		slog.String("amount", amount.StringFixed(domain.MoneyScale)))
	return tx, nil
}

func isLedgerRejection(err error) bool {
	return errors.Is(err, apperrors.ErrNotFound) ||
		errors.Is(err, apperrors.ErrInsufficientFunds) ||
		errors.Is(err, apperrors.ErrBalanceLimit) ||
		errors.Is(err, apperrors.ErrSelfTransfer)
}

func (s *transferService) Deposit(ctx context.Context, cpf string, amount decimal.Decimal) (decimal.Decimal, error) {
	if err := domain.ValidateAmount(amount); err != nil {
		return decimal.Zero, fmt.Errorf("%w: %w", apperrors.ErrInvalidAmount, err)
	}

	balance, err := s.accountRepo.AdjustBalance(ctx, cpf, amount, s.Now())
	if err != nil {
		if !isLedgerRejection(err) {
			s.LogError(ctx, err, "Failed to apply deposit", slog.String("cpf", cpf))
		}
		return decimal.Zero, err
	}

	s.LogInfo(ctx, "Deposit applied",
		slog.String("cpf", cpf),
		slog.String("amount", amount.StringFixed(domain.MoneyScale)))
	return balance, nil
}

func (s *transferService) ListTransactions(ctx context.Context, cpf string, filter domain.TransactionFilter) ([]domain.TransactionDetail, error) {
	list, err := s.ledgerRepo.ListTransactionsByCPF(ctx, cpf, filter)
	if err != nil {
		s.LogError(ctx, err, "Failed to list transactions", slog.String("cpf", cpf))
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	return list, nil
}
