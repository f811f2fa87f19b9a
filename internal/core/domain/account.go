package domain

import (
	"github.com/shopspring/decimal"
)

// CPFLength is the exact number of digits of an account identifier.
const CPFLength = 11

// Name and secret length bounds, inclusive.
const (
	MinNameLength   = 6
	MaxNameLength   = 120
	MinSecretLength = 6
	MaxSecretLength = 120
)

// Account represents a customer account keyed by its CPF.
// This is the primary representation used by services.
type Account struct {
	CPF     string          `json:"cpf"`  // Natural primary key, immutable
	Name    string          `json:"name"` // Display name
	Secret  string          `json:"-"`    // Login secret, plain or bcrypt hash
	Balance decimal.Decimal `json:"balance"`
	AuditFields
}

// IsValidCPF reports whether s is exactly CPFLength ASCII digits.
func IsValidCPF(s string) bool {
	if len(s) != CPFLength {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
