package repositories

// LedgerStore is a backing store that owns both the accounts and the transaction log,
// so a transfer can be applied as one atomic unit across them.
type LedgerStore interface {
	AccountRepositoryFacade
	LedgerRepositoryFacade
	StoreLifecycle
}

// RepositoryProvider holds all repository interfaces needed by services.
// This makes passing dependencies to the service container constructor cleaner.
type RepositoryProvider struct {
	AccountRepo AccountRepositoryFacade
	LedgerRepo  LedgerRepositoryFacade
	SessionRepo SessionRepository
}

// NewRepositoryProvider builds a provider over a single ledger store and a session store.
func NewRepositoryProvider(store LedgerStore, sessions SessionRepository) RepositoryProvider {
	return RepositoryProvider{
		AccountRepo: store,
		LedgerRepo:  store,
		SessionRepo: sessions,
	}
}
