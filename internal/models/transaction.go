package models

import (
	"github.com/SscSPs/pix_backend/internal/core/domain"
	"github.com/shopspring/decimal"
)

// Transaction is a row of the transactions table.
type Transaction struct {
	ID             int64           `db:"id"`
	OriginCPF      string          `db:"origin_cpf"`
	DestinationCPF string          `db:"destination_cpf"`
	Amount         decimal.Decimal `db:"amount"`
	AuditFields
}

// TransactionDetail is a transaction row joined with the names of both parties.
type TransactionDetail struct {
	Transaction
	OriginName      string `db:"origin_name"`
	DestinationName string `db:"destination_name"`
}

// ToDomain converts the row to a domain transaction.
func (m Transaction) ToDomain() domain.Transaction {
	return domain.Transaction{
		ID:             m.ID,
		OriginCPF:      m.OriginCPF,
		DestinationCPF: m.DestinationCPF,
		Amount:         m.Amount,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
}

// ToDomain converts the joined row to a domain transaction detail.
func (m TransactionDetail) ToDomain() domain.TransactionDetail {
	return domain.TransactionDetail{
		Transaction: m.Transaction.ToDomain(),
		Sender:      domain.TransactionParty{Name: m.OriginName, CPF: m.OriginCPF},
		Receiver:    domain.TransactionParty{Name: m.DestinationName, CPF: m.DestinationCPF},
	}
}
