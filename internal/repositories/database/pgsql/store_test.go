package pgsql_test

import (
	"context"
	"os"
	"testing"

	portsrepo "github.com/SscSPs/pix_backend/internal/core/ports/repositories"
	"github.com/SscSPs/pix_backend/internal/repositories/database/pgsql"
	"github.com/SscSPs/pix_backend/internal/repositories/storetest"
	"github.com/SscSPs/pix_backend/pkg/database"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

// TestPostgresLedgerStore needs a disposable database in TEST_DATABASE_URL; its tables are
// truncated before every test.
func TestPostgresLedgerStore(t *testing.T) {
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	_, err := pgsql.RunMigrations(dbURL)
	require.NoError(t, err)

	suite.Run(t, &storetest.LedgerStoreSuite{
		NewStore: func() portsrepo.LedgerStore {
			ctx := context.Background()
			pool, err := database.NewPgxPool(ctx, dbURL)
			require.NoError(t, err)
			_, err = pool.Exec(ctx, `TRUNCATE transactions, accounts RESTART IDENTITY;`)
			require.NoError(t, err)
			return pgsql.NewStore(pool)
		},
	})
}
