package models

import (
	"time"

	"github.com/SscSPs/pix_backend/internal/core/domain"
	"github.com/shopspring/decimal"
)

// AuditFields holds the row timestamps shared by every table.
type AuditFields struct {
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// Account is a row of the accounts table.
type Account struct {
	CPF     string          `db:"cpf"`
	Name    string          `db:"name"`
	Secret  string          `db:"secret"`
	Balance decimal.Decimal `db:"balance"`
	AuditFields
}

// FromDomainAccount converts a domain account to its row form.
func FromDomainAccount(d domain.Account) Account {
	return Account{
		CPF:     d.CPF,
		Name:    d.Name,
		Secret:  d.Secret,
		Balance: d.Balance,
		AuditFields: AuditFields{
			CreatedAt: d.CreatedAt,
			UpdatedAt: d.LastUpdatedAt,
		},
	}
}

// ToDomain converts the row to a domain account.
func (m Account) ToDomain() domain.Account {
	return domain.Account{
		CPF:     m.CPF,
		Name:    m.Name,
		Secret:  m.Secret,
		Balance: m.Balance,
		AuditFields: domain.AuditFields{
			CreatedAt:     m.CreatedAt,
			LastUpdatedAt: m.UpdatedAt,
		},
	}
}
