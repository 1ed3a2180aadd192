// Package pricing implements the deterministic price computation shared by
// catalog display, cart totals and order totals. Every caller must go through
// this package: the staged two-decimal rounding compounds, and cart display
// and the persisted order total have to agree to the cent.
package pricing

import (
	"github.com/shopspring/decimal"
)

// VATRate is the fixed value-added tax rate applied at the tax stage (21%).
var VATRate = decimal.NewFromFloat(0.21)

var (
	one     = decimal.NewFromInt(1)
	hundred = decimal.NewFromInt(100)
)

// Breakdown is the staged result of a price computation. It is a value
// object and is never persisted.
type Breakdown struct {
	List       decimal.Decimal
	Discounted decimal.Decimal
	Final      decimal.Decimal
	VATApplied bool
}

// ComputeBreakdown computes the staged price breakdown.
//
// Stage order is fixed: discount first, markup second, VAT last. Each stage
// is rounded to two decimals before it feeds the next multiplication; the
// ordering and per-stage rounding are part of the contract, not an
// implementation detail.
func ComputeBreakdown(listPrice, discountPct, markupPct decimal.Decimal, applyVAT bool) Breakdown {
	discounted := listPrice.Mul(one.Sub(discountPct.Div(hundred))).Round(2)

	final := discounted.Mul(one.Add(markupPct.Div(hundred))).Round(2)

	if applyVAT {
		final = final.Mul(one.Add(VATRate)).Round(2)
	}

	return Breakdown{
		List:       listPrice,
		Discounted: discounted,
		Final:      final,
		VATApplied: applyVAT,
	}
}

// OrderTotals holds the amounts persisted on a finalized order.
type OrderTotals struct {
	Subtotal       decimal.Decimal
	DiscountAmount decimal.Decimal
	TaxAmount      decimal.Decimal
	Total          decimal.Decimal
}

// ComputeOrderTotals applies the order-total rule: client discount on the
// subtotal, then VAT on the discounted subtotal at the fixed rate.
//
// VAT is applied unconditionally here, independent of the per-client
// "applies VAT" flag that catalog and cart rendering honor. A client whose
// displayed prices omit VAT is still invoiced with it once the order is
// finalized, so a finalized total can exceed the cart preview for such
// clients. Do not unify the two paths without a product decision.
func ComputeOrderTotals(subtotal, discountPct decimal.Decimal) OrderTotals {
	discountAmount := subtotal.Mul(discountPct.Div(hundred)).Round(2)
	discounted := subtotal.Sub(discountAmount)
	taxAmount := discounted.Mul(VATRate).Round(2)

	return OrderTotals{
		Subtotal:       subtotal,
		DiscountAmount: discountAmount,
		TaxAmount:      taxAmount,
		Total:          discounted.Add(taxAmount),
	}
}
