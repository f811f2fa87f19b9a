package services_test

import (
	"context"
	"sync"
	"testing"

	"github.com/SscSPs/pix_backend/internal/apperrors"
	"github.com/SscSPs/pix_backend/internal/core/domain"
	"github.com/SscSPs/pix_backend/internal/core/services"
	"github.com/SscSPs/pix_backend/internal/repositories/memory"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLedger(t *testing.T, balances map[string]string) (*memory.Store, func(cpf string) decimal.Decimal) {
	t.Helper()
	store := memory.NewStore()
	for cpf, bal := range balances {
		require.NoError(t, store.CreateAccount(context.Background(), domain.Account{
			CPF:     cpf,
			Name:    "Titular " + cpf[:3],
			Secret:  "segredo",
			Balance: decimal.RequireFromString(bal),
		}))
	}
	balanceOf := func(cpf string) decimal.Decimal {
		acc, err := store.FindAccountByCPF(context.Background(), cpf)
		require.NoError(t, err)
		return acc.Balance
	}
	return store, balanceOf
}

func TestTransfer_MovesFundsAndRecords(t *testing.T) {
	store, balanceOf := newLedger(t, map[string]string{"11111111111": "1500.00", "22222222222": "0"})
	svc := services.NewTransferService(store, store, services.WithClock(fixedClock))
	ctx := context.Background()

	tx, err := svc.Transfer(ctx, "11111111111", "22222222222", decimal.RequireFromString("300.00"))
	require.NoError(t, err)
	assert.Positive(t, tx.ID)
	assert.True(t, tx.CreatedAt.Equal(fixedNow))

	assert.True(t, balanceOf("11111111111").Equal(decimal.RequireFromString("1200.00")))
	assert.True(t, balanceOf("22222222222").Equal(decimal.RequireFromString("300.00")))

	for _, cpf := range []string{"11111111111", "22222222222"} {
		list, err := svc.ListTransactions(ctx, cpf, domain.TransactionFilter{})
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, tx.ID, list[0].ID)
		assert.Equal(t, "11111111111", list[0].Sender.CPF)
		assert.Equal(t, "22222222222", list[0].Receiver.CPF)
	}
}

func TestTransfer_RejectionsHaveNoSideEffects(t *testing.T) {
	store, balanceOf := newLedger(t, map[string]string{"11111111111": "100.00", "22222222222": "50.00"})
	svc := services.NewTransferService(store, store)
	ctx := context.Background()

	cases := []struct {
		name    string
		src     string
		dst     string
		amount  string
		wantErr error
	}{
		{"zero amount", "11111111111", "22222222222", "0", apperrors.ErrInvalidAmount},
		{"negative amount", "11111111111", "22222222222", "-5.00", apperrors.ErrInvalidAmount},
		{"three decimals", "11111111111", "22222222222", "1.005", apperrors.ErrInvalidAmount},
		{"above limit", "11111111111", "22222222222", "10000000000000000.00", domain.ErrAmountTooLarge},
		{"malformed destination", "11111111111", "2222222222a", "1.00", apperrors.ErrValidation},
		{"self transfer", "11111111111", "11111111111", "1.00", apperrors.ErrSelfTransfer},
		{"insufficient funds", "11111111111", "22222222222", "100.01", apperrors.ErrInsufficientFunds},
		{"missing destination", "11111111111", "99999999999", "1.00", apperrors.ErrDestinationNotFound},
		{"missing source", "99999999999", "22222222222", "1.00", apperrors.ErrSourceNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Transfer(ctx, tc.src, tc.dst, decimal.RequireFromString(tc.amount))
			assert.ErrorIs(t, err, tc.wantErr)
		})
	}

	assert.True(t, balanceOf("11111111111").Equal(decimal.RequireFromString("100.00")))
	assert.True(t, balanceOf("22222222222").Equal(decimal.RequireFromString("50.00")))
	list, err := svc.ListTransactions(ctx, "11111111111", domain.TransactionFilter{})
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestTransfer_ConcurrentDebitsNeverOverdraw(t *testing.T) {
	// 95.00 allows exactly floor(95/10) = 9 transfers of 10.00.
	store, balanceOf := newLedger(t, map[string]string{"11111111111": "95.00", "22222222222": "0"})
	svc := services.NewTransferService(store, store)
	ctx := context.Background()

	const workers = 30
	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.Transfer(ctx, "11111111111", "22222222222", decimal.RequireFromString("10.00")); err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 9, succeeded)
	assert.True(t, balanceOf("11111111111").Equal(decimal.RequireFromString("5.00")))
	assert.True(t, balanceOf("22222222222").Equal(decimal.RequireFromString("90.00")))
}

func TestTransfer_ConservesTotalAcrossAccounts(t *testing.T) {
	cpfs := []string{"11111111111", "22222222222", "33333333333", "44444444444"}
	store, balanceOf := newLedger(t, map[string]string{
		cpfs[0]: "250.00", cpfs[1]: "250.00", cpfs[2]: "250.00", cpfs[3]: "250.00",
	})
	svc := services.NewTransferService(store, store)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			src := cpfs[i%len(cpfs)]
			dst := cpfs[(i*7+1)%len(cpfs)]
			_, _ = svc.Transfer(ctx, src, dst, decimal.NewFromInt(int64(i%13+1)))
		}(i)
	}
	wg.Wait()

	total := decimal.Zero
	for _, cpf := range cpfs {
		bal := balanceOf(cpf)
		assert.False(t, bal.IsNegative())
		total = total.Add(bal)
	}
	assert.True(t, total.Equal(decimal.RequireFromString("1000.00")), "total %s", total)
}

func TestDeposit(t *testing.T) {
	store, balanceOf := newLedger(t, map[string]string{"11111111111": "0"})
	svc := services.NewTransferService(store, store)
	ctx := context.Background()

	bal, err := svc.Deposit(ctx, "11111111111", decimal.RequireFromString("1500.00"))
	require.NoError(t, err)
	assert.True(t, bal.Equal(decimal.RequireFromString("1500.00")))
	assert.True(t, balanceOf("11111111111").Equal(bal))

	_, err = svc.Deposit(ctx, "11111111111", decimal.Zero)
	assert.ErrorIs(t, err, apperrors.ErrInvalidAmount)

	_, err = svc.Deposit(ctx, "11111111111", decimal.RequireFromString("184467440737095517.16"))
	assert.ErrorIs(t, err, apperrors.ErrInvalidAmount)
	assert.ErrorIs(t, err, domain.ErrAmountTooLarge)
	assert.True(t, balanceOf("11111111111").Equal(decimal.RequireFromString("1500.00")))

	_, err = svc.Deposit(ctx, "99999999999", decimal.RequireFromString("1.00"))
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	list, err := svc.ListTransactions(ctx, "11111111111", domain.TransactionFilter{})
	require.NoError(t, err)
	assert.Empty(t, list, "deposits are not recorded as transactions")
}
