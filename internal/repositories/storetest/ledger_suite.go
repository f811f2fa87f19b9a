// Package storetest holds the behaviour every ledger store must share, run against
// each backend from its own package tests.
package storetest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/SscSPs/pix_backend/internal/apperrors"
	"github.com/SscSPs/pix_backend/internal/core/domain"
	portsrepo "github.com/SscSPs/pix_backend/internal/core/ports/repositories"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

// LedgerStoreSuite exercises a LedgerStore. NewStore is called before every test and must
// return an empty store.
type LedgerStoreSuite struct {
	suite.Suite
	NewStore func() portsrepo.LedgerStore

	store portsrepo.LedgerStore
	ctx   context.Context
	now   time.Time
}

func (s *LedgerStoreSuite) SetupTest() {
	s.store = s.NewStore()
	s.ctx = context.Background()
	s.now = time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
}

func (s *LedgerStoreSuite) TearDownTest() {
	if s.store != nil {
		s.NoError(s.store.Close())
	}
}

func (s *LedgerStoreSuite) seed(cpf, name string, balance string) {
	err := s.store.CreateAccount(s.ctx, domain.Account{
		CPF:         cpf,
		Name:        name,
		Secret:      "segredo",
		Balance:     decimal.RequireFromString(balance),
		AuditFields: domain.AuditFields{CreatedAt: s.now, LastUpdatedAt: s.now},
	})
	s.Require().NoError(err)
}

func (s *LedgerStoreSuite) balance(cpf string) decimal.Decimal {
	acc, err := s.store.FindAccountByCPF(s.ctx, cpf)
	s.Require().NoError(err)
	return acc.Balance
}

func (s *LedgerStoreSuite) transfer(from, to, amount string, at time.Time) (*domain.Transaction, error) {
	return s.store.ApplyTransfer(s.ctx, domain.Transaction{
		OriginCPF:      from,
		DestinationCPF: to,
		Amount:         decimal.RequireFromString(amount),
		CreatedAt:      at,
		UpdatedAt:      at,
	})
}

func (s *LedgerStoreSuite) TestCreateAndFind() {
	s.seed("11111111111", "Maria Silva", "0")

	acc, err := s.store.FindAccountByCPF(s.ctx, "11111111111")
	s.Require().NoError(err)
	s.Equal("Maria Silva", acc.Name)
	s.Equal("segredo", acc.Secret)
	s.True(acc.Balance.IsZero())

	_, err = s.store.FindAccountByCPF(s.ctx, "99999999999")
	s.ErrorIs(err, apperrors.ErrNotFound)
}

func (s *LedgerStoreSuite) TestCreateDuplicate() {
	s.seed("11111111111", "Maria Silva", "0")

	err := s.store.CreateAccount(s.ctx, domain.Account{CPF: "11111111111", Name: "Outra Pessoa", Secret: "outra1"})
	s.ErrorIs(err, apperrors.ErrDuplicate)

	acc, err := s.store.FindAccountByCPF(s.ctx, "11111111111")
	s.Require().NoError(err)
	s.Equal("Maria Silva", acc.Name)
}

func (s *LedgerStoreSuite) TestConcurrentCreateSameCPF() {
	const workers = 8
	var wg sync.WaitGroup
	results := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results <- s.store.CreateAccount(s.ctx, domain.Account{
				CPF:  "22222222222",
				Name: fmt.Sprintf("Pessoa %d", i),
			})
		}(i)
	}
	wg.Wait()
	close(results)

	created := 0
	for err := range results {
		if err == nil {
			created++
			continue
		}
		s.ErrorIs(err, apperrors.ErrDuplicate)
	}
	s.Equal(1, created)
}

func (s *LedgerStoreSuite) TestUpdateProfile() {
	s.seed("11111111111", "Maria Silva", "10.00")
	later := s.now.Add(time.Hour)
	name := "Nova Silva"

	s.Require().NoError(s.store.UpdateAccountProfile(s.ctx, "11111111111", &name, nil, later))

	acc, err := s.store.FindAccountByCPF(s.ctx, "11111111111")
	s.Require().NoError(err)
	s.Equal("Nova Silva", acc.Name)
	s.Equal("segredo", acc.Secret)
	s.True(acc.Balance.Equal(decimal.RequireFromString("10.00")))

	secret := "trocada"
	s.Require().NoError(s.store.UpdateAccountProfile(s.ctx, "11111111111", nil, &secret, later))
	acc, err = s.store.FindAccountByCPF(s.ctx, "11111111111")
	s.Require().NoError(err)
	s.Equal("Nova Silva", acc.Name)
	s.Equal("trocada", acc.Secret)

	err = s.store.UpdateAccountProfile(s.ctx, "99999999999", &name, nil, later)
	s.ErrorIs(err, apperrors.ErrNotFound)
}

func (s *LedgerStoreSuite) TestAdjustBalance() {
	s.seed("11111111111", "Maria Silva", "0")

	bal, err := s.store.AdjustBalance(s.ctx, "11111111111", decimal.RequireFromString("1500.00"), s.now)
	s.Require().NoError(err)
	s.True(bal.Equal(decimal.RequireFromString("1500.00")))

	_, err = s.store.AdjustBalance(s.ctx, "11111111111", decimal.RequireFromString("-1500.01"), s.now)
	s.ErrorIs(err, apperrors.ErrInsufficientFunds)
	s.True(s.balance("11111111111").Equal(decimal.RequireFromString("1500.00")))

	_, err = s.store.AdjustBalance(s.ctx, "99999999999", decimal.RequireFromString("1"), s.now)
	s.ErrorIs(err, apperrors.ErrNotFound)
}

func (s *LedgerStoreSuite) TestBalanceLimit() {
	s.seed("11111111111", "Maria Silva", "9999999999999989.99")
	s.seed("22222222222", "Joao Souza", "100.00")

	bal, err := s.store.AdjustBalance(s.ctx, "11111111111", decimal.RequireFromString("10.00"), s.now)
	s.Require().NoError(err)
	s.True(bal.Equal(domain.MaxAmount), "got %s", bal)
	s.True(s.balance("11111111111").Equal(domain.MaxAmount))

	_, err = s.store.AdjustBalance(s.ctx, "11111111111", decimal.RequireFromString("0.01"), s.now)
	s.ErrorIs(err, apperrors.ErrBalanceLimit)

	// 2^64 + 100 cents: must never be applied as a wrapped value.
	_, err = s.store.AdjustBalance(s.ctx, "22222222222", decimal.RequireFromString("184467440737095517.16"), s.now)
	s.Error(err)
	s.True(s.balance("22222222222").Equal(decimal.RequireFromString("100.00")))

	_, err = s.transfer("22222222222", "11111111111", "1.00", s.now)
	s.ErrorIs(err, apperrors.ErrBalanceLimit)
	s.True(s.balance("11111111111").Equal(domain.MaxAmount))
	s.True(s.balance("22222222222").Equal(decimal.RequireFromString("100.00")))

	list, err := s.store.ListTransactionsByCPF(s.ctx, "22222222222", domain.TransactionFilter{})
	s.Require().NoError(err)
	s.Empty(list)

	tx, err := s.transfer("11111111111", "22222222222", "5000000000000000.00", s.now)
	s.Require().NoError(err)
	s.True(tx.Amount.Equal(decimal.RequireFromString("5000000000000000.00")))
	s.True(s.balance("22222222222").Equal(decimal.RequireFromString("5000000000000100.00")))

	list, err = s.store.ListTransactionsByCPF(s.ctx, "22222222222", domain.TransactionFilter{})
	s.Require().NoError(err)
	s.Require().Len(list, 1)
	s.True(list[0].Amount.Equal(tx.Amount), "recorded %s", list[0].Amount)
}

func (s *LedgerStoreSuite) TestApplyTransfer() {
	s.seed("11111111111", "Maria Silva", "1500.00")
	s.seed("22222222222", "Joao Souza", "0")

	tx, err := s.transfer("11111111111", "22222222222", "300.00", s.now)
	s.Require().NoError(err)
	s.Positive(tx.ID)
	s.True(tx.Amount.Equal(decimal.RequireFromString("300.00")))

	s.True(s.balance("11111111111").Equal(decimal.RequireFromString("1200.00")))
	s.True(s.balance("22222222222").Equal(decimal.RequireFromString("300.00")))

	next, err := s.transfer("22222222222", "11111111111", "0.01", s.now.Add(time.Second))
	s.Require().NoError(err)
	s.Greater(next.ID, tx.ID)
}

func (s *LedgerStoreSuite) TestApplyTransferRejectionsLeaveNoTrace() {
	s.seed("11111111111", "Maria Silva", "100.00")
	s.seed("22222222222", "Joao Souza", "0")

	_, err := s.transfer("11111111111", "22222222222", "100.01", s.now)
	s.ErrorIs(err, apperrors.ErrInsufficientFunds)

	_, err = s.transfer("99999999999", "22222222222", "1.00", s.now)
	s.ErrorIs(err, apperrors.ErrSourceNotFound)

	_, err = s.transfer("11111111111", "99999999999", "1.00", s.now)
	s.ErrorIs(err, apperrors.ErrDestinationNotFound)

	s.True(s.balance("11111111111").Equal(decimal.RequireFromString("100.00")))
	s.True(s.balance("22222222222").IsZero())

	list, err := s.store.ListTransactionsByCPF(s.ctx, "11111111111", domain.TransactionFilter{})
	s.Require().NoError(err)
	s.Empty(list)
}

func (s *LedgerStoreSuite) TestExactBalanceTransfer() {
	s.seed("11111111111", "Maria Silva", "42.50")
	s.seed("22222222222", "Joao Souza", "0")

	_, err := s.transfer("11111111111", "22222222222", "42.50", s.now)
	s.Require().NoError(err)
	s.True(s.balance("11111111111").IsZero())
	s.True(s.balance("22222222222").Equal(decimal.RequireFromString("42.50")))
}

func (s *LedgerStoreSuite) TestConcurrentTransfersNeverOverdraw() {
	s.seed("11111111111", "Maria Silva", "100.00")
	s.seed("22222222222", "Joao Souza", "0")

	const workers = 20
	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.transfer("11111111111", "22222222222", "10.00", s.now)
			if err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
				return
			}
			s.ErrorIs(err, apperrors.ErrInsufficientFunds)
		}()
	}
	wg.Wait()

	s.Equal(10, succeeded)
	s.True(s.balance("11111111111").IsZero())
	s.True(s.balance("22222222222").Equal(decimal.RequireFromString("100.00")))

	list, err := s.store.ListTransactionsByCPF(s.ctx, "11111111111", domain.TransactionFilter{})
	s.Require().NoError(err)
	s.Len(list, 10)
}

func (s *LedgerStoreSuite) TestOpposingTransfersConserveTotal() {
	s.seed("11111111111", "Maria Silva", "500.00")
	s.seed("22222222222", "Joao Souza", "500.00")

	var wg sync.WaitGroup
	for i := 0; i < 25; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, _ = s.transfer("11111111111", "22222222222", "7.00", s.now)
		}()
		go func() {
			defer wg.Done()
			_, _ = s.transfer("22222222222", "11111111111", "3.00", s.now)
		}()
	}
	wg.Wait()

	a := s.balance("11111111111")
	b := s.balance("22222222222")
	s.True(a.Add(b).Equal(decimal.RequireFromString("1000.00")))
	s.False(a.IsNegative())
	s.False(b.IsNegative())
}

func (s *LedgerStoreSuite) TestListTransactions() {
	s.seed("11111111111", "Maria Silva", "1000.00")
	s.seed("22222222222", "Joao Souza", "1000.00")
	s.seed("33333333333", "Ana Pereira", "1000.00")

	day1 := s.now
	day2 := s.now.Add(24 * time.Hour)
	day3 := s.now.Add(48 * time.Hour)
	_, err := s.transfer("11111111111", "22222222222", "10.00", day1)
	s.Require().NoError(err)
	_, err = s.transfer("22222222222", "11111111111", "20.00", day2)
	s.Require().NoError(err)
	_, err = s.transfer("22222222222", "33333333333", "30.00", day3)
	s.Require().NoError(err)

	list, err := s.store.ListTransactionsByCPF(s.ctx, "11111111111", domain.TransactionFilter{})
	s.Require().NoError(err)
	s.Require().Len(list, 2)
	s.True(list[0].Amount.Equal(decimal.RequireFromString("20.00")))
	s.Equal("Joao Souza", list[0].Sender.Name)
	s.Equal("Maria Silva", list[0].Receiver.Name)
	s.True(list[1].Amount.Equal(decimal.RequireFromString("10.00")))
	s.True(list[0].CreatedAt.Equal(day2))

	from := day2.Add(-time.Hour)
	list, err = s.store.ListTransactionsByCPF(s.ctx, "22222222222", domain.TransactionFilter{From: &from})
	s.Require().NoError(err)
	s.Len(list, 2)

	to := day2.Add(time.Hour)
	list, err = s.store.ListTransactionsByCPF(s.ctx, "22222222222", domain.TransactionFilter{From: &from, To: &to})
	s.Require().NoError(err)
	s.Require().Len(list, 1)
	s.Equal("11111111111", list[0].DestinationCPF)

	list, err = s.store.ListTransactionsByCPF(s.ctx, "44444444444", domain.TransactionFilter{})
	s.Require().NoError(err)
	s.Empty(list)
}

func (s *LedgerStoreSuite) TestPing() {
	s.NoError(s.store.Ping(s.ctx))
}
