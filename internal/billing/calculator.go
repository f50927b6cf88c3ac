package billing

import "github.com/shopspring/decimal"

// Discount types accepted on invoices.
const (
	DiscountPercentage = "percentage"
	DiscountFixed      = "fixed"
)

// LineItem is the calculator's view of a billable entry.
type LineItem struct {
	Description string
	Quantity    decimal.Decimal
	Rate        decimal.Decimal
}

// Discount is an optional percentage-of-subtotal or fixed reduction applied
// before tax. A discount with only a type or only a value is treated as no
// discount at all rather than rejected; callers relying on that leniency
// include partial update merges.
type Discount struct {
	Type  *string
	Value *decimal.Decimal
}

// Totals holds the derived financial snapshot of an invoice.
type Totals struct {
	Subtotal       decimal.Decimal
	DiscountAmount decimal.Decimal
	TaxAmount      decimal.Decimal
	Total          decimal.Decimal
}

// Subtotal sums quantity * rate over all line items. An empty list yields
// zero.
func Subtotal(items []LineItem) decimal.Decimal {
	sum := decimal.Zero
	for _, item := range items {
		sum = sum.Add(LineAmount(item.Quantity, item.Rate))
	}
	return sum
}

// DiscountAmount resolves the discount against a subtotal. Absent or partial
// discounts resolve to zero. A fixed discount is taken at face value even
// when it exceeds the subtotal; the resulting negative taxable amount is
// deliberately not clamped here.
func DiscountAmount(subtotal decimal.Decimal, discount *Discount) decimal.Decimal {
	if discount == nil || discount.Type == nil || discount.Value == nil {
		return decimal.Zero
	}
	if *discount.Type == DiscountPercentage {
		return PercentOf(subtotal, *discount.Value)
	}
	return *discount.Value
}

// ComputeTotals derives the full totals snapshot from line items, a tax rate
// expressed as a 0-100 percentage, and an optional discount. It is a pure
// function: no state, no failure modes, identical inputs always produce
// identical output. Tax is computed from the unrounded discounted subtotal.
func ComputeTotals(items []LineItem, taxRatePercent decimal.Decimal, discount *Discount) Totals {
	subtotal := Subtotal(items)
	discountAmount := DiscountAmount(subtotal, discount)
	taxable := subtotal.Sub(discountAmount)
	taxAmount := PercentOf(taxable, taxRatePercent)

	return Totals{
		Subtotal:       subtotal,
		DiscountAmount: discountAmount,
		TaxAmount:      taxAmount,
		Total:          taxable.Add(taxAmount),
	}
}
