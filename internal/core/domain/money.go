package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// MoneyScale is the number of decimal places carried by every amount and balance.
const MoneyScale = 2

// MaxAmount is the largest amount or balance any store can hold: NUMERIC(18,2), and well
// inside int64 cents.
var MaxAmount = decimal.RequireFromString("9999999999999999.99")

// ErrAmountTooLarge reports an amount above MaxAmount.
var ErrAmountTooLarge = errors.New("amount above limit")

// ValidateAmount checks that amount is strictly positive, at most MaxAmount and has at most
// MoneyScale decimals.
func ValidateAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return fmt.Errorf("amount must be positive, got %s", amount.String())
	}
	if amount.GreaterThan(MaxAmount) {
		return fmt.Errorf("%w: %s", ErrAmountTooLarge, amount.String())
	}
	if !amount.Round(MoneyScale).Equal(amount) {
		return fmt.Errorf("amount %s has more than %d decimal places", amount.String(), MoneyScale)
	}
	return nil
}

// ToCents converts a two-decimal amount to its integer number of cents.
func ToCents(amount decimal.Decimal) int64 {
	return amount.Shift(MoneyScale).Round(0).IntPart()
}

// FromCents converts an integer number of cents back to a decimal amount.
func FromCents(cents int64) decimal.Decimal {
	return decimal.New(cents, -MoneyScale)
}
