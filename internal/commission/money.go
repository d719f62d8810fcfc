package commission

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// The helpers below are stateless unit conversions with ordinary half-up
// rounding. That rounding is deliberately different from the half-to-even
// rule used for commission division.

var hundred = decimal.NewFromInt(100)

// DollarsToCents converts a major-unit amount to minor units, half up.
func DollarsToCents(dollars float64) int64 {
	return decimal.NewFromFloat(dollars).Mul(hundred).Round(0).IntPart()
}

// CentsToDollars converts minor units to a major-unit amount.
func CentsToDollars(cents int64) float64 {
	f, _ := decimal.NewFromInt(cents).Div(hundred).Float64()
	return f
}

// PercentageToBasisPoints converts a percentage (10.5 = 10.5%) to basis
// points, half up.
func PercentageToBasisPoints(percentage float64) int64 {
	return decimal.NewFromFloat(percentage).Mul(hundred).Round(0).IntPart()
}

// BasisPointsToPercentage converts basis points to a percentage.
func BasisPointsToPercentage(basisPoints int64) float64 {
	f, _ := decimal.NewFromInt(basisPoints).Div(hundred).Float64()
	return f
}

// FormatCurrency renders a minor-unit amount with the currency's symbol, or
// the code as a prefix when no symbol is known.
func FormatCurrency(cents int64, currency string) string {
	amount := decimal.NewFromInt(cents).Div(hundred).StringFixed(2)

	switch currency {
	case "USD":
		return "$" + amount
	case "EUR":
		return "€" + amount
	case "GBP":
		return "£" + amount
	default:
		return fmt.Sprintf("%s %s", currency, amount)
	}
}
