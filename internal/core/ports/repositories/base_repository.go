package repositories

import "context"

// StoreLifecycle is implemented by every backing store that owns a connection handle.
type StoreLifecycle interface {
	// Ping checks that the backing store is reachable.
	Ping(ctx context.Context) error

	// Close releases the underlying handle.
	Close() error
}
