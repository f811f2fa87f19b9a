package memory_test

import (
	"testing"

	portsrepo "github.com/SscSPs/pix_backend/internal/core/ports/repositories"
	"github.com/SscSPs/pix_backend/internal/repositories/memory"
	"github.com/SscSPs/pix_backend/internal/repositories/storetest"
	"github.com/stretchr/testify/suite"
)

func TestMemoryLedgerStore(t *testing.T) {
	suite.Run(t, &storetest.LedgerStoreSuite{
		NewStore: func() portsrepo.LedgerStore { return memory.NewStore() },
	})
}
