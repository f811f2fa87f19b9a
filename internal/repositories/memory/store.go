package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/SscSPs/pix_backend/internal/apperrors"
	"github.com/SscSPs/pix_backend/internal/core/domain"
	portsrepo "github.com/SscSPs/pix_backend/internal/core/ports/repositories"
	"github.com/shopspring/decimal"
)

// accountEntry guards a single account. Balance changes take the entry lock; transfers
// take both entries' locks in CPF order.
type accountEntry struct {
	mu      sync.Mutex
	account domain.Account
}

// Store is an in-process ledger store. Accounts are never removed, so an entry pointer
// stays valid once it has been read from the index.
type Store struct {
	indexMu  sync.RWMutex
	accounts map[string]*accountEntry

	logMu  sync.RWMutex
	log    []domain.Transaction
	nextID int64
}

var _ portsrepo.LedgerStore = (*Store)(nil)

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{accounts: make(map[string]*accountEntry)}
}

func (s *Store) entry(cpf string) (*accountEntry, bool) {
	s.indexMu.RLock()
	defer s.indexMu.RUnlock()
	e, ok := s.accounts[cpf]
	return e, ok
}

// FindAccountByCPF returns a snapshot of the account.
func (s *Store) FindAccountByCPF(ctx context.Context, cpf string) (*domain.Account, error) {
	e, ok := s.entry(cpf)
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	e.mu.Lock()
	acc := e.account
	e.mu.Unlock()
	return &acc, nil
}

// CreateAccount inserts the account unless its CPF is already taken.
func (s *Store) CreateAccount(ctx context.Context, account domain.Account) error {
	s.indexMu.Lock()
	defer s.indexMu.Unlock()
	if _, exists := s.accounts[account.CPF]; exists {
		return fmt.Errorf("%w: account %s", apperrors.ErrDuplicate, account.CPF)
	}
	s.accounts[account.CPF] = &accountEntry{account: account}
	return nil
}

// UpdateAccountProfile changes name and/or secret; nil fields are kept.
func (s *Store) UpdateAccountProfile(ctx context.Context, cpf string, name *string, secret *string, now time.Time) error {
	e, ok := s.entry(cpf)
	if !ok {
		return apperrors.ErrNotFound
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if name != nil {
		e.account.Name = *name
	}
	if secret != nil {
		e.account.Secret = *secret
	}
	e.account.LastUpdatedAt = now
	return nil
}

// AdjustBalance applies delta under the account lock.
func (s *Store) AdjustBalance(ctx context.Context, cpf string, delta decimal.Decimal, now time.Time) (decimal.Decimal, error) {
	e, ok := s.entry(cpf)
	if !ok {
		return decimal.Zero, apperrors.ErrNotFound
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	next := e.account.Balance.Add(delta)
	if next.IsNegative() {
		return e.account.Balance, apperrors.ErrInsufficientFunds
	}
	if next.GreaterThan(domain.MaxAmount) {
		return e.account.Balance, apperrors.ErrBalanceLimit
	}
	e.account.Balance = next
	e.account.LastUpdatedAt = now
	return next, nil
}

// ApplyTransfer moves the amount and appends the record while holding both account locks,
// so no observer sees the debit without the credit and the record.
func (s *Store) ApplyTransfer(ctx context.Context, transfer domain.Transaction) (*domain.Transaction, error) {
	src, ok := s.entry(transfer.OriginCPF)
	if !ok {
		return nil, apperrors.ErrSourceNotFound
	}
	dst, ok := s.entry(transfer.DestinationCPF)
	if !ok {
		return nil, apperrors.ErrDestinationNotFound
	}
	if src == dst {
		return nil, apperrors.ErrSelfTransfer
	}

	first, second := src, dst
	if transfer.DestinationCPF < transfer.OriginCPF {
		first, second = dst, src
	}
	first.mu.Lock()
	defer first.mu.Unlock()
	second.mu.Lock()
	defer second.mu.Unlock()

	if src.account.Balance.LessThan(transfer.Amount) {
		return nil, apperrors.ErrInsufficientFunds
	}
	if dst.account.Balance.Add(transfer.Amount).GreaterThan(domain.MaxAmount) {
		return nil, apperrors.ErrBalanceLimit
	}

	src.account.Balance = src.account.Balance.Sub(transfer.Amount)
	src.account.LastUpdatedAt = transfer.CreatedAt
	dst.account.Balance = dst.account.Balance.Add(transfer.Amount)
	dst.account.LastUpdatedAt = transfer.CreatedAt

	s.logMu.Lock()
	s.nextID++
	transfer.ID = s.nextID
	s.log = append(s.log, transfer)
	s.logMu.Unlock()

	return &transfer, nil
}

// ListTransactionsByCPF returns the records involving cpf, newest first.
func (s *Store) ListTransactionsByCPF(ctx context.Context, cpf string, filter domain.TransactionFilter) ([]domain.TransactionDetail, error) {
	s.logMu.RLock()
	matched := make([]domain.Transaction, 0)
	for _, tx := range s.log {
		if tx.OriginCPF != cpf && tx.DestinationCPF != cpf {
			continue
		}
		if !filter.Matches(tx.CreatedAt) {
			continue
		}
		matched = append(matched, tx)
	}
	s.logMu.RUnlock()

	sort.SliceStable(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].ID > matched[j].ID
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	details := make([]domain.TransactionDetail, 0, len(matched))
	for _, tx := range matched {
		details = append(details, domain.TransactionDetail{
			Transaction: tx,
			Sender:      domain.TransactionParty{Name: s.nameOf(tx.OriginCPF), CPF: tx.OriginCPF},
			Receiver:    domain.TransactionParty{Name: s.nameOf(tx.DestinationCPF), CPF: tx.DestinationCPF},
		})
	}
	return details, nil
}

func (s *Store) nameOf(cpf string) string {
	e, ok := s.entry(cpf)
	if !ok {
		return ""
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.account.Name
}

// Ping always succeeds.
func (s *Store) Ping(ctx context.Context) error { return nil }

// Close is a no-op.
func (s *Store) Close() error { return nil }
