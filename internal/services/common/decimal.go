package common

import "github.com/shopspring/decimal"

var ratioMax = decimal.RequireFromString("9.99")

// TwoDecimalPlaces reports whether d fits the wire format for prices and
// ratios: at most two digits after the decimal point.
func TwoDecimalPlaces(d decimal.Decimal) bool {
	return d.Exponent() >= -2 || d.Equal(d.Truncate(2))
}

// ValidPrice checks a positive two-decimal price value.
func ValidPrice(d decimal.Decimal) bool {
	return d.IsPositive() && TwoDecimalPlaces(d)
}

// ValidRatio checks a company policy ratio: single-digit integer part,
// two decimal places, non-negative (0.00-9.99).
func ValidRatio(d decimal.Decimal) bool {
	if d.IsNegative() || d.GreaterThan(ratioMax) {
		return false
	}
	return TwoDecimalPlaces(d)
}
