package pgsql

import (
	"context"
	"fmt"

	"github.com/SscSPs/pix_backend/internal/apperrors"
	"github.com/SscSPs/pix_backend/internal/core/domain"
	"github.com/SscSPs/pix_backend/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// ApplyTransfer locks both rows in CPF order, checks funds and writes the debit, the credit
// and the record in one batch. Deadlocks and serialization failures retry the whole unit.
func (s *Store) ApplyTransfer(ctx context.Context, transfer domain.Transaction) (*domain.Transaction, error) {
	result := transfer
	err := s.InTx(ctx, func(tx pgx.Tx) error {
		balances, err := lockBalances(ctx, tx, transfer.OriginCPF, transfer.DestinationCPF)
		if err != nil {
			return err
		}
		srcBalance, ok := balances[transfer.OriginCPF]
		if !ok {
			return apperrors.ErrSourceNotFound
		}
		dstBalance, ok := balances[transfer.DestinationCPF]
		if !ok {
			return apperrors.ErrDestinationNotFound
		}
		if srcBalance.LessThan(transfer.Amount) {
			return apperrors.ErrInsufficientFunds
		}
		if dstBalance.Add(transfer.Amount).GreaterThan(domain.MaxAmount) {
			return apperrors.ErrBalanceLimit
		}

		batch := &pgx.Batch{}
		batch.Queue(`UPDATE accounts SET balance = balance - $2, updated_at = $3 WHERE cpf = $1;`,
			transfer.OriginCPF, transfer.Amount, transfer.CreatedAt)
		batch.Queue(`UPDATE accounts SET balance = balance + $2, updated_at = $3 WHERE cpf = $1;`,
			transfer.DestinationCPF, transfer.Amount, transfer.CreatedAt)
		batch.Queue(`
			INSERT INTO transactions (origin_cpf, destination_cpf, amount, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id;`,
			transfer.OriginCPF, transfer.DestinationCPF, transfer.Amount, transfer.CreatedAt, transfer.UpdatedAt)

		br := tx.SendBatch(ctx, batch)
		for i := 0; i < 2; i++ {
			tag, err := br.Exec()
			if err != nil {
				_ = br.Close()
				if pgErrorCode(err) == codeCheckViolation {
					return apperrors.ErrInsufficientFunds
				}
				return fmt.Errorf("failed to apply balance change: %w", err)
			}
			if tag.RowsAffected() != 1 {
				_ = br.Close()
				return fmt.Errorf("%w: balance change matched %d rows", apperrors.ErrNotFound, tag.RowsAffected())
			}
		}
		if err := br.QueryRow().Scan(&result.ID); err != nil {
			_ = br.Close()
			return fmt.Errorf("failed to insert transaction record: %w", err)
		}
		return br.Close()
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func lockBalances(ctx context.Context, tx pgx.Tx, cpfs ...string) (map[string]decimal.Decimal, error) {
	rows, err := tx.Query(ctx, `
		SELECT cpf, balance
		FROM accounts
		WHERE cpf = ANY($1)
		ORDER BY cpf
		FOR UPDATE;`, cpfs)
	if err != nil {
		return nil, fmt.Errorf("failed to lock accounts: %w", err)
	}
	defer rows.Close()

	balances := make(map[string]decimal.Decimal, len(cpfs))
	for rows.Next() {
		var cpf string
		var balance decimal.Decimal
		if err := rows.Scan(&cpf, &balance); err != nil {
			return nil, fmt.Errorf("failed to scan locked account: %w", err)
		}
		balances[cpf] = balance
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating locked accounts: %w", err)
	}
	return balances, nil
}

// ListTransactionsByCPF returns transactions where cpf is either party, newest first.
func (s *Store) ListTransactionsByCPF(ctx context.Context, cpf string, filter domain.TransactionFilter) ([]domain.TransactionDetail, error) {
	query := `
		SELECT t.id, t.origin_cpf, t.destination_cpf, t.amount, t.created_at, t.updated_at,
		       o.name, d.name
		FROM transactions t
		JOIN accounts o ON o.cpf = t.origin_cpf
		JOIN accounts d ON d.cpf = t.destination_cpf
		WHERE (t.origin_cpf = $1 OR t.destination_cpf = $1)
		  AND ($2::timestamptz IS NULL OR t.created_at >= $2)
		  AND ($3::timestamptz IS NULL OR t.created_at <= $3)
		ORDER BY t.created_at DESC, t.id DESC;
	`
	rows, err := s.Pool.Query(ctx, query, cpf, filter.From, filter.To)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions of %s: %w", cpf, err)
	}
	defer rows.Close()

	details := make([]domain.TransactionDetail, 0)
	for rows.Next() {
		var m models.TransactionDetail
		if err := rows.Scan(&m.ID, &m.OriginCPF, &m.DestinationCPF, &m.Amount, &m.CreatedAt, &m.UpdatedAt,
			&m.OriginName, &m.DestinationName); err != nil {
			return nil, fmt.Errorf("failed to scan transaction row: %w", err)
		}
		details = append(details, m.ToDomain())
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transaction rows: %w", err)
	}
	return details, nil
}
