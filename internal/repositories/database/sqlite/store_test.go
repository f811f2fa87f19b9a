package sqlite_test

import (
	"context"
	"testing"

	portsrepo "github.com/SscSPs/pix_backend/internal/core/ports/repositories"
	"github.com/SscSPs/pix_backend/internal/repositories/database/sqlite"
	"github.com/SscSPs/pix_backend/internal/repositories/storetest"
	"github.com/SscSPs/pix_backend/pkg/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

func TestSQLiteLedgerStore(t *testing.T) {
	suite.Run(t, &storetest.LedgerStoreSuite{
		NewStore: func() portsrepo.LedgerStore {
			store, err := sqlite.Open(context.Background(), database.MemorySQLitePath)
			require.NoError(t, err)
			return store
		},
	})
}

func TestOpen_ReopensMigratedFile(t *testing.T) {
	ctx := context.Background()
	path := t.TempDir() + "/pix.db"

	store, err := sqlite.Open(ctx, path)
	require.NoError(t, err)
	require.NoError(t, store.Close())

	store, err = sqlite.Open(ctx, path)
	require.NoError(t, err)
	defer store.Close()
	assert.NoError(t, store.Ping(ctx))
}
