// Package sqlite provides the SQLite-backed ledger store.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/SscSPs/pix_backend/internal/apperrors"
	"github.com/SscSPs/pix_backend/internal/core/domain"
	portsrepo "github.com/SscSPs/pix_backend/internal/core/ports/repositories"
	"github.com/SscSPs/pix_backend/internal/models"
	"github.com/SscSPs/pix_backend/pkg/database"
	"github.com/shopspring/decimal"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"
)

// Store persists accounts and the transaction log in SQLite. Money is stored as integer
// cents and timestamps as Unix milliseconds. The handle has a single connection, so a
// transaction holds it exclusively and must not call back into the pool.
type Store struct {
	sqlDB *sql.DB
}

var _ portsrepo.LedgerStore = (*Store)(nil)

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Open opens the database at path (or database.MemorySQLitePath) and applies migrations.
func Open(ctx context.Context, path string) (*Store, error) {
	sqlDB, err := database.OpenSQLite(ctx, path)
	if err != nil {
		return nil, err
	}
	if err := RunMigrations(sqlDB); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Ping checks the handle.
func (s *Store) Ping(ctx context.Context) error {
	return s.sqlDB.PingContext(ctx)
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

func isConstraint(err error, codes ...int) bool {
	var sqliteErr *msqlite.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	for _, code := range codes {
		if sqliteErr.Code() == code {
			return true
		}
	}
	return false
}

// FindAccountByCPF retrieves an account by its CPF.
func (s *Store) FindAccountByCPF(ctx context.Context, cpf string) (*domain.Account, error) {
	var m models.Account
	var cents, createdAt, updatedAt int64
	err := s.sqlDB.QueryRowContext(ctx,
		`SELECT cpf, name, secret, balance_cents, created_at, updated_at FROM accounts WHERE cpf = ?`,
		cpf,
	).Scan(&m.CPF, &m.Name, &m.Secret, &cents, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find account %s: %w", cpf, err)
	}
	m.Balance = domain.FromCents(cents)
	m.CreatedAt = fromMillis(createdAt)
	m.UpdatedAt = fromMillis(updatedAt)
	acc := m.ToDomain()
	return &acc, nil
}

// CreateAccount inserts a new account unless the CPF is taken.
func (s *Store) CreateAccount(ctx context.Context, account domain.Account) error {
	m := models.FromDomainAccount(account)
	balanceCents, err := centsOf(m.Balance)
	if err != nil {
		return err
	}
	res, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO accounts (cpf, name, secret, balance_cents, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT (cpf) DO NOTHING`,
		m.CPF, m.Name, m.Secret, balanceCents, toMillis(m.CreatedAt), toMillis(m.UpdatedAt),
	)
	if err != nil {
		if isConstraint(err, sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE) {
			return fmt.Errorf("%w: account %s", apperrors.ErrDuplicate, m.CPF)
		}
		return fmt.Errorf("failed to save account %s: %w", m.CPF, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read insert result: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: account %s", apperrors.ErrDuplicate, m.CPF)
	}
	return nil
}

// UpdateAccountProfile changes name and/or secret; NULL parameters keep the stored value.
func (s *Store) UpdateAccountProfile(ctx context.Context, cpf string, name *string, secret *string, now time.Time) error {
	res, err := s.sqlDB.ExecContext(ctx,
		`UPDATE accounts
		 SET name = COALESCE(?, name), secret = COALESCE(?, secret), updated_at = ?
		 WHERE cpf = ?`,
		nullString(name), nullString(secret), toMillis(now), cpf,
	)
	if err != nil {
		return fmt.Errorf("failed to update account %s: %w", cpf, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read update result: %w", err)
	}
	if n == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func nullString(v *string) sql.NullString {
	if v == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *v, Valid: true}
}

// maxCents is domain.MaxAmount in cents. Sums of two values in range stay inside int64.
var maxCents = domain.ToCents(domain.MaxAmount)

// centsOf converts amount to cents, refusing anything ToCents would not represent exactly.
func centsOf(amount decimal.Decimal) (int64, error) {
	if amount.Abs().GreaterThan(domain.MaxAmount) {
		return 0, fmt.Errorf("%w: %w", apperrors.ErrInvalidAmount, domain.ErrAmountTooLarge)
	}
	return domain.ToCents(amount), nil
}

// AdjustBalance applies delta with a conditional update so the balance stays within
// zero and domain.MaxAmount.
func (s *Store) AdjustBalance(ctx context.Context, cpf string, delta decimal.Decimal, now time.Time) (decimal.Decimal, error) {
	deltaCents, err := centsOf(delta)
	if err != nil {
		return decimal.Zero, err
	}
	var cents int64
	err = s.sqlDB.QueryRowContext(ctx,
		`UPDATE accounts
		 SET balance_cents = balance_cents + ?, updated_at = ?
		 WHERE cpf = ? AND balance_cents + ? BETWEEN 0 AND ?
		 RETURNING balance_cents`,
		deltaCents, toMillis(now), cpf, deltaCents, maxCents,
	).Scan(&cents)
	if err == nil {
		return domain.FromCents(cents), nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return decimal.Zero, fmt.Errorf("failed to adjust balance of %s: %w", cpf, err)
	}
	if _, findErr := s.FindAccountByCPF(ctx, cpf); findErr != nil {
		return decimal.Zero, findErr
	}
	if deltaCents > 0 {
		return decimal.Zero, apperrors.ErrBalanceLimit
	}
	return decimal.Zero, apperrors.ErrInsufficientFunds
}

// ApplyTransfer runs the debit, the credit and the insert in one transaction.
func (s *Store) ApplyTransfer(ctx context.Context, transfer domain.Transaction) (*domain.Transaction, error) {
	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to begin transaction", err)
	}
	defer func() { _ = tx.Rollback() }()

	amount, err := centsOf(transfer.Amount)
	if err != nil {
		return nil, err
	}
	srcBalance, err := balanceInTx(ctx, tx, transfer.OriginCPF)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.ErrSourceNotFound
		}
		return nil, err
	}
	dstBalance, err := balanceInTx(ctx, tx, transfer.DestinationCPF)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.ErrDestinationNotFound
		}
		return nil, err
	}
	if srcBalance < amount {
		return nil, apperrors.ErrInsufficientFunds
	}
	if dstBalance+amount > maxCents {
		return nil, apperrors.ErrBalanceLimit
	}

	at := toMillis(transfer.CreatedAt)
	if _, err := tx.ExecContext(ctx,
		`UPDATE accounts SET balance_cents = balance_cents - ?, updated_at = ? WHERE cpf = ?`,
		amount, at, transfer.OriginCPF); err != nil {
		if isConstraint(err, sqlite3lib.SQLITE_CONSTRAINT_CHECK) {
			return nil, apperrors.ErrInsufficientFunds
		}
		return nil, fmt.Errorf("failed to debit %s: %w", transfer.OriginCPF, err)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE accounts SET balance_cents = balance_cents + ?, updated_at = ? WHERE cpf = ?`,
		amount, at, transfer.DestinationCPF); err != nil {
		return nil, fmt.Errorf("failed to credit %s: %w", transfer.DestinationCPF, err)
	}
	res, err := tx.ExecContext(ctx,
		`INSERT INTO transactions (origin_cpf, destination_cpf, amount_cents, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)`,
		transfer.OriginCPF, transfer.DestinationCPF, amount, at, toMillis(transfer.UpdatedAt))
	if err != nil {
		return nil, fmt.Errorf("failed to insert transaction record: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to read transaction id: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, apperrors.NewAppError(500, "failed to commit transaction", err)
	}
	result := transfer
	result.ID = id
	return &result, nil
}

func balanceInTx(ctx context.Context, tx *sql.Tx, cpf string) (int64, error) {
	var cents int64
	err := tx.QueryRowContext(ctx, `SELECT balance_cents FROM accounts WHERE cpf = ?`, cpf).Scan(&cents)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, apperrors.ErrNotFound
		}
		return 0, fmt.Errorf("failed to read balance of %s: %w", cpf, err)
	}
	return cents, nil
}

// ListTransactionsByCPF returns transactions where cpf is either party, newest first.
func (s *Store) ListTransactionsByCPF(ctx context.Context, cpf string, filter domain.TransactionFilter) ([]domain.TransactionDetail, error) {
	var from, to sql.NullInt64
	if filter.From != nil {
		from = sql.NullInt64{Int64: toMillis(*filter.From), Valid: true}
	}
	if filter.To != nil {
		to = sql.NullInt64{Int64: toMillis(*filter.To), Valid: true}
	}

	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT t.id, t.origin_cpf, t.destination_cpf, t.amount_cents, t.created_at, t.updated_at,
		        o.name, d.name
		 FROM transactions t
		 JOIN accounts o ON o.cpf = t.origin_cpf
		 JOIN accounts d ON d.cpf = t.destination_cpf
		 WHERE (t.origin_cpf = ? OR t.destination_cpf = ?)
		   AND (? IS NULL OR t.created_at >= ?)
		   AND (? IS NULL OR t.created_at <= ?)
		 ORDER BY t.created_at DESC, t.id DESC`,
		cpf, cpf, from, from, to, to,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions of %s: %w", cpf, err)
	}
	defer rows.Close()

	details := make([]domain.TransactionDetail, 0)
	for rows.Next() {
		var m models.TransactionDetail
		var cents, createdAt, updatedAt int64
		if err := rows.Scan(&m.ID, &m.OriginCPF, &m.DestinationCPF, &cents, &createdAt, &updatedAt,
			&m.OriginName, &m.DestinationName); err != nil {
			return nil, fmt.Errorf("failed to scan transaction row: %w", err)
		}
		m.Amount = domain.FromCents(cents)
		m.CreatedAt = fromMillis(createdAt)
		m.UpdatedAt = fromMillis(updatedAt)
		details = append(details, m.ToDomain())
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transaction rows: %w", err)
	}
	return details, nil
}
