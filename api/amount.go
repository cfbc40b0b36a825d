package api

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Amount is a monetary value in cents, the unit the API uses on the wire.
type Amount int64

// NewAmount converts a decimal value in currency units into cents.
// Sub-cent precision is rejected rather than rounded.
func NewAmount(value decimal.Decimal) (Amount, error) {
	cents := value.Shift(2)
	if !cents.Equal(cents.Truncate(0)) {
		return 0, fmt.Errorf("%w: %s has sub-cent precision", ErrInvalidAmount, value.String())
	}

	if !cents.IsPositive() && !cents.IsZero() {
		return 0, fmt.Errorf("%w: %s is negative", ErrInvalidAmount, value.String())
	}

	return Amount(cents.IntPart()), nil
}

// Decimal returns the amount in currency units.
func (a Amount) Decimal() decimal.Decimal {
	return decimal.New(int64(a), -2)
}

func (a Amount) String() string {
	return a.Decimal().StringFixed(2)
}
