package domain

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// Transaction is one immutable transfer record between two accounts.
type Transaction struct {
	ID             int64           `json:"id"` // Store-generated
	OriginCPF      string          `json:"originCPF"`
	DestinationCPF string          `json:"destinationCPF"`
	Amount         decimal.Decimal `json:"amount"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"` // Set once, equal to CreatedAt
}

// Validate checks the invariants every persisted transaction must hold.
func (t Transaction) Validate() error {
	if !IsValidCPF(t.OriginCPF) {
		return errors.New("origin CPF must have 11 digits")
	}
	if !IsValidCPF(t.DestinationCPF) {
		return errors.New("destination CPF must have 11 digits")
	}
	if t.OriginCPF == t.DestinationCPF {
		return errors.New("origin and destination must differ")
	}
	return ValidateAmount(t.Amount)
}

// TransactionParty is the public view of one side of a transaction.
type TransactionParty struct {
	Name string `json:"name"`
	CPF  string `json:"cpf"`
}

// TransactionDetail is a transaction joined with the names of both parties.
type TransactionDetail struct {
	Transaction
	Sender   TransactionParty `json:"sender"`
	Receiver TransactionParty `json:"receiver"`
}

// TransactionFilter narrows a transaction listing by creation time. Nil bounds are open.
type TransactionFilter struct {
	From *time.Time // inclusive
	To   *time.Time // inclusive
}

// Matches reports whether createdAt falls within the filter bounds.
func (f TransactionFilter) Matches(createdAt time.Time) bool {
	if f.From != nil && createdAt.Before(*f.From) {
		return false
	}
	if f.To != nil && createdAt.After(*f.To) {
		return false
	}
	return true
}
