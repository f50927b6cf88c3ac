package billing

import "github.com/shopspring/decimal"

// Monetary helpers shared by the totals calculator. Percentages are carried
// as 0-100 values and divided by 100 at the point of use; nothing here
// rounds. Display rounding to two decimals belongs to the rendering layer
// and must never feed back into dependent calculations.

// LineAmount returns quantity * rate for a single line item.
func LineAmount(quantity, rate decimal.Decimal) decimal.Decimal {
	return quantity.Mul(rate)
}

// PercentOf returns amount * percent / 100.
func PercentOf(amount, percent decimal.Decimal) decimal.Decimal {
	return amount.Mul(percent).Div(decimal.NewFromInt(100))
}
