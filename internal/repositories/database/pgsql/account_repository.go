package pgsql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/SscSPs/pix_backend/internal/apperrors"
	"github.com/SscSPs/pix_backend/internal/core/domain"
	"github.com/SscSPs/pix_backend/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

const accountColumns = `cpf, name, secret, balance, created_at, updated_at`

func scanAccount(row pgx.Row) (*domain.Account, error) {
	var m models.Account
	if err := row.Scan(&m.CPF, &m.Name, &m.Secret, &m.Balance, &m.CreatedAt, &m.UpdatedAt); err != nil {
		return nil, err
	}
	acc := m.ToDomain()
	return &acc, nil
}

// FindAccountByCPF retrieves an account by its CPF.
func (s *Store) FindAccountByCPF(ctx context.Context, cpf string) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE cpf = $1;`
	acc, err := scanAccount(s.Pool.QueryRow(ctx, query, cpf))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find account %s: %w", cpf, err)
	}
	return acc, nil
}

// CreateAccount inserts a new account. The conflict clause makes the existence check and
// the insert a single statement.
func (s *Store) CreateAccount(ctx context.Context, account domain.Account) error {
	m := models.FromDomainAccount(account)
	query := `
		INSERT INTO accounts (cpf, name, secret, balance, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (cpf) DO NOTHING;
	`
	tag, err := s.Pool.Exec(ctx, query, m.CPF, m.Name, m.Secret, m.Balance, m.CreatedAt, m.UpdatedAt)
	if err != nil {
		if pgErrorCode(err) == codeUniqueViolation {
			return fmt.Errorf("%w: account %s", apperrors.ErrDuplicate, m.CPF)
		}
		return fmt.Errorf("failed to save account %s: %w", m.CPF, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: account %s", apperrors.ErrDuplicate, m.CPF)
	}
	return nil
}

// UpdateAccountProfile changes name and/or secret; NULL parameters keep the stored value.
func (s *Store) UpdateAccountProfile(ctx context.Context, cpf string, name *string, secret *string, now time.Time) error {
	query := `
		UPDATE accounts
		SET name = COALESCE($2, name), secret = COALESCE($3, secret), updated_at = $4
		WHERE cpf = $1;
	`
	tag, err := s.Pool.Exec(ctx, query, cpf, name, secret, now)
	if err != nil {
		return fmt.Errorf("failed to update account %s: %w", cpf, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// AdjustBalance applies delta in one conditional statement, keeping the balance within
// zero and domain.MaxAmount.
func (s *Store) AdjustBalance(ctx context.Context, cpf string, delta decimal.Decimal, now time.Time) (decimal.Decimal, error) {
	query := `
		UPDATE accounts
		SET balance = balance + $2, updated_at = $3
		WHERE cpf = $1 AND balance + $2 BETWEEN 0 AND $4
		RETURNING balance;
	`
	var balance decimal.Decimal
	err := s.Pool.QueryRow(ctx, query, cpf, delta, now, domain.MaxAmount).Scan(&balance)
	if err == nil {
		return balance, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return decimal.Zero, fmt.Errorf("failed to adjust balance of %s: %w", cpf, err)
	}

	if _, findErr := s.FindAccountByCPF(ctx, cpf); findErr != nil {
		return decimal.Zero, findErr
	}
	if delta.IsPositive() {
		return decimal.Zero, apperrors.ErrBalanceLimit
	}
	return decimal.Zero, apperrors.ErrInsufficientFunds
}
