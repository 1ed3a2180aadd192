package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func d(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

func TestComputeBreakdown_StagedRounding(t *testing.T) {
	b := ComputeBreakdown(d("1000"), d("10"), d("20"), false)

	assert.True(t, b.Discounted.Equal(d("900.00")), "discounted = %s", b.Discounted)
	assert.True(t, b.Final.Equal(d("1080.00")), "final = %s", b.Final)
	assert.False(t, b.VATApplied)
}

func TestComputeBreakdown_WithVAT(t *testing.T) {
	b := ComputeBreakdown(d("1000"), d("10"), d("20"), true)

	assert.True(t, b.Discounted.Equal(d("900.00")), "discounted = %s", b.Discounted)
	assert.True(t, b.Final.Equal(d("1306.80")), "final = %s", b.Final)
	assert.True(t, b.VATApplied)
}

func TestComputeBreakdown_RoundsEachStage(t *testing.T) {
	// 33.33 * 0.85 = 28.3305 -> 28.33 before the markup stage,
	// 28.33 * 1.10 = 31.163 -> 31.16 before the VAT stage,
	// 31.16 * 1.21 = 37.7036 -> 37.70.
	b := ComputeBreakdown(d("33.33"), d("15"), d("10"), true)

	assert.True(t, b.Discounted.Equal(d("28.33")), "discounted = %s", b.Discounted)
	assert.True(t, b.Final.Equal(d("37.70")), "final = %s", b.Final)
}

func TestComputeBreakdown_ZeroDiscountZeroMarkup(t *testing.T) {
	b := ComputeBreakdown(d("59.90"), decimal.Zero, decimal.Zero, false)

	assert.True(t, b.Discounted.Equal(d("59.90")))
	assert.True(t, b.Final.Equal(d("59.90")))
}

func TestComputeOrderTotals_AlwaysTaxed(t *testing.T) {
	// The order rule taxes the post-discount subtotal unconditionally;
	// there is no applyVAT parameter on purpose.
	totals := ComputeOrderTotals(d("200.00"), d("10"))

	assert.True(t, totals.DiscountAmount.Equal(d("20.00")), "discount = %s", totals.DiscountAmount)
	assert.True(t, totals.TaxAmount.Equal(d("37.80")), "tax = %s", totals.TaxAmount)
	assert.True(t, totals.Total.Equal(d("217.80")), "total = %s", totals.Total)
}

func TestComputeOrderTotals_NoDiscount(t *testing.T) {
	totals := ComputeOrderTotals(d("100.00"), decimal.Zero)

	assert.True(t, totals.DiscountAmount.IsZero())
	assert.True(t, totals.TaxAmount.Equal(d("21.00")))
	assert.True(t, totals.Total.Equal(d("121.00")))
}
