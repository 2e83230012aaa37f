package expense

import "github.com/shopspring/decimal"

var half = decimal.RequireFromString("0.5")

// RoundMoney rounds half up to two decimal places, floor(x*100+0.5)/100.
// Halves always move towards positive infinity, so -0.005 becomes 0.
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Shift(2).Add(half).Floor().Shift(-2)
}

// formatAmount renders an amount the way it appears in breakdown text
func formatAmount(d decimal.Decimal) string {
	return d.String()
}
