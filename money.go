package sproutbank

import (
	"math"

	"github.com/shopspring/decimal"
)

// Monetary values carry exactly two fractional digits. Every arithmetic
// step rounds to the nearest cent, half away from zero, before the result
// is used further; balance snapshots stored on transactions depend on
// rounding after each individual operation, not once at the end.

// Round2 rounds a monetary value to two decimal places, half away from zero.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// ValidAmount reports whether d is acceptable as a deposit or withdrawal
// amount: strictly positive, and at least half a cent so it does not
// round to zero.
func ValidAmount(d decimal.Decimal) error {
	if !d.IsPositive() {
		return ErrInvalidAmount
	}
	if Round2(d).IsZero() {
		return ErrInvalidAmount
	}
	return nil
}

// ValidRate reports whether d is acceptable as a per-period interest rate.
func ValidRate(d decimal.Decimal) error {
	if d.IsNegative() {
		return ErrInvalidRate
	}
	return nil
}

// AmountFromFloat converts a float into a monetary amount, rejecting NaN
// and ±Inf before decimal conversion (decimal.NewFromFloat panics on
// non-finite input).
func AmountFromFloat(f float64) (decimal.Decimal, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return decimal.Zero, ErrInvalidAmount
	}
	d := decimal.NewFromFloat(f)
	if err := ValidAmount(d); err != nil {
		return decimal.Zero, err
	}
	return d, nil
}
