package pgsql

import (
	"context"

	portsrepo "github.com/SscSPs/pix_backend/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store is the PostgreSQL ledger store. Accounts and the transaction log share one pool so
// a transfer commits as one database transaction.
type Store struct {
	BaseRepository
}

var _ portsrepo.LedgerStore = (*Store)(nil)

// NewStore wraps an open pool. The schema must already be migrated.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{BaseRepository: BaseRepository{Pool: pool}}
}

// Ping checks the pool can reach the database.
func (s *Store) Ping(ctx context.Context) error {
	return s.Pool.Ping(ctx)
}

// Close closes the pool.
func (s *Store) Close() error {
	s.Pool.Close()
	return nil
}
