package domain_test

import (
	"testing"
	"time"

	"github.com/SscSPs/pix_backend/internal/core/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestTransaction_Validate(t *testing.T) {
	now := time.Now().UTC()

	tests := []struct {
		name    string
		tx      domain.Transaction
		wantErr bool
		errMsg  string
	}{
		{
			name: "valid transfer",
			tx: domain.Transaction{
				OriginCPF:      "11111111111",
				DestinationCPF: "22222222222",
				Amount:         decimal.RequireFromString("300.00"),
				CreatedAt:      now,
				UpdatedAt:      now,
			},
		},
		{
			name: "same origin and destination",
			tx: domain.Transaction{
				OriginCPF:      "11111111111",
				DestinationCPF: "11111111111",
				Amount:         decimal.RequireFromString("1"),
			},
			wantErr: true,
			errMsg:  "origin and destination must differ",
		},
		{
			name: "zero amount",
			tx: domain.Transaction{
				OriginCPF:      "11111111111",
				DestinationCPF: "22222222222",
				Amount:         decimal.Zero,
			},
			wantErr: true,
			errMsg:  "amount must be positive",
		},
		{
			name: "three decimal places",
			tx: domain.Transaction{
				OriginCPF:      "11111111111",
				DestinationCPF: "22222222222",
				Amount:         decimal.RequireFromString("1.005"),
			},
			wantErr: true,
			errMsg:  "more than 2 decimal places",
		},
		{
			name: "short origin cpf",
			tx: domain.Transaction{
				OriginCPF:      "111",
				DestinationCPF: "22222222222",
				Amount:         decimal.RequireFromString("1"),
			},
			wantErr: true,
			errMsg:  "origin CPF",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.tx.Validate()
			if tt.wantErr {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestTransactionFilter_Matches(t *testing.T) {
	from := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 3, 31, 23, 59, 59, 0, time.UTC)

	open := domain.TransactionFilter{}
	assert.True(t, open.Matches(from.AddDate(-10, 0, 0)))

	bounded := domain.TransactionFilter{From: &from, To: &to}
	assert.True(t, bounded.Matches(from))
	assert.True(t, bounded.Matches(to))
	assert.False(t, bounded.Matches(from.Add(-time.Second)))
	assert.False(t, bounded.Matches(to.Add(time.Second)))
}

func TestIsValidCPF(t *testing.T) {
	assert.True(t, domain.IsValidCPF("12345678901"))
	assert.False(t, domain.IsValidCPF("1234567890"))
	assert.False(t, domain.IsValidCPF("123.456.789-01"))
	assert.False(t, domain.IsValidCPF("1234567890a"))
}

func TestCents(t *testing.T) {
	assert.Equal(t, int64(150000), domain.ToCents(decimal.RequireFromString("1500.00")))
	assert.Equal(t, int64(1), domain.ToCents(decimal.RequireFromString("0.01")))
	assert.True(t, decimal.RequireFromString("12.34").Equal(domain.FromCents(1234)))
}

func TestSession_IsExpired(t *testing.T) {
	issued := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	s := domain.Session{Token: "t", CPF: "11111111111", IssuedAt: issued}

	assert.False(t, s.IsExpired(issued.Add(domain.DefaultSessionTTL), domain.DefaultSessionTTL))
	assert.True(t, s.IsExpired(issued.Add(domain.DefaultSessionTTL+time.Nanosecond), domain.DefaultSessionTTL))
}

func TestValidateAmount_Limit(t *testing.T) {
	assert.NoError(t, domain.ValidateAmount(domain.MaxAmount))
	assert.ErrorIs(t, domain.ValidateAmount(domain.MaxAmount.Add(decimal.RequireFromString("0.01"))), domain.ErrAmountTooLarge)
	assert.ErrorIs(t, domain.ValidateAmount(decimal.RequireFromString("184467440737095517.16")), domain.ErrAmountTooLarge)
	assert.Equal(t, int64(999999999999999999), domain.ToCents(domain.MaxAmount))
}
