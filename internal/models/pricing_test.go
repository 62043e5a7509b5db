package models

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestProductProfit(t *testing.T) {
	p := Product{Price: dec("100"), Cost: dec("60")}
	assert.True(t, p.Profit().Equal(dec("40")), "got %s", p.Profit())
}

func TestProductMarginPercent(t *testing.T) {
	p := Product{Price: dec("100"), Cost: dec("60")}
	assert.True(t, p.MarginPercent().Equal(dec("66.67")), "got %s", p.MarginPercent())
}

func TestProductMarginPercentZeroCost(t *testing.T) {
	p := Product{Price: dec("100"), Cost: decimal.Zero}
	assert.True(t, p.MarginPercent().IsZero())

	p.Cost = dec("-5")
	assert.True(t, p.MarginPercent().IsZero())
}

func TestProductPriceDiff(t *testing.T) {
	competitor := dec("120")
	p := Product{Price: dec("100"), CompetitorPrice: &competitor}

	diff := p.PriceDiff()
	require.NotNil(t, diff)
	assert.True(t, diff.Equal(dec("-20")), "got %s", diff)
}

func TestProductPriceDiffNoCompetitor(t *testing.T) {
	p := Product{Price: dec("100")}
	assert.Nil(t, p.PriceDiff())
}

func TestProductPriceDiffTiedPriceIsZeroNotNil(t *testing.T) {
	competitor := dec("100")
	p := Product{Price: dec("100"), CompetitorPrice: &competitor}

	diff := p.PriceDiff()
	require.NotNil(t, diff)
	assert.True(t, diff.IsZero())
}

func TestRoundingHalfToEven(t *testing.T) {
	// .125 rounds down to the even digit, .135 rounds up to it
	p := Product{Price: dec("10.125"), Cost: dec("10")}
	assert.Equal(t, "0.12", p.Profit().StringFixed(2))

	p.Price = dec("10.135")
	assert.Equal(t, "0.14", p.Profit().StringFixed(2))
}

func twoProductBundle(discount string) Bundle {
	return Bundle{
		Discount: dec(discount),
		Items: []BundleItem{
			{Quantity: 2, Product: &Product{Price: dec("50"), Cost: dec("30")}},
			{Quantity: 1, Product: &Product{Price: dec("30"), Cost: dec("18")}},
		},
	}
}

func TestBundleTotalPriceIgnoresQuantity(t *testing.T) {
	// each distinct product counts once, regardless of its quantity
	b := twoProductBundle("0")
	assert.Equal(t, "80.00", b.TotalPrice().StringFixed(2))
}

func TestBundleTotalPriceWithDiscount(t *testing.T) {
	b := twoProductBundle("10")
	assert.Equal(t, "72.00", b.TotalPrice().StringFixed(2))
}

func TestBundleTotalPriceWeighted(t *testing.T) {
	b := twoProductBundle("10")
	// (50*2 + 30*1) * 0.9
	assert.Equal(t, "117.00", b.TotalPriceWeighted().StringFixed(2))
}

func TestBundleTotalCost(t *testing.T) {
	b := twoProductBundle("10")
	assert.Equal(t, "48.00", b.TotalCost().StringFixed(2))
	assert.Equal(t, "78.00", b.TotalCostWeighted().StringFixed(2))
}

func TestBundleProfitAndMargin(t *testing.T) {
	b := twoProductBundle("10")
	assert.Equal(t, "24.00", b.Profit().StringFixed(2))
	assert.Equal(t, "50.00", b.MarginPercent().StringFixed(2))
}

func TestBundleMarginPercentZeroCost(t *testing.T) {
	b := Bundle{
		Items: []BundleItem{
			{Quantity: 1, Product: &Product{Price: dec("10"), Cost: decimal.Zero}},
		},
	}
	assert.True(t, b.MarginPercent().IsZero())
}

func TestBundleSkipsUnloadedProducts(t *testing.T) {
	b := Bundle{
		Items: []BundleItem{
			{Quantity: 1, Product: &Product{Price: dec("10"), Cost: dec("5")}},
			{Quantity: 1, Product: nil},
		},
	}
	assert.Equal(t, "10.00", b.TotalPrice().StringFixed(2))
	assert.Equal(t, "5.00", b.TotalCost().StringFixed(2))
}

func TestBundlePricingIdempotent(t *testing.T) {
	b := twoProductBundle("10")
	first := b.TotalPrice()
	second := b.TotalPrice()
	assert.True(t, first.Equal(second))
}

func TestNewBundleViewWeightedFlag(t *testing.T) {
	b := twoProductBundle("10")

	plain := NewBundleView(b, false)
	assert.Equal(t, "72.00", plain.TotalPrice.StringFixed(2))
	assert.Equal(t, "48.00", plain.TotalCost.StringFixed(2))

	weighted := NewBundleView(b, true)
	assert.Equal(t, "117.00", weighted.TotalPrice.StringFixed(2))
	assert.Equal(t, "78.00", weighted.TotalCost.StringFixed(2))
	assert.Equal(t, "39.00", weighted.Profit.StringFixed(2))
	assert.Equal(t, "50.00", weighted.MarginPercent.StringFixed(2))
}

func TestNewProductView(t *testing.T) {
	competitor := dec("110")
	p := Product{Price: dec("100"), Cost: dec("60"), CompetitorPrice: &competitor}

	view := NewProductView(p)
	assert.Equal(t, "40.00", view.Profit.StringFixed(2))
	assert.Equal(t, "66.67", view.MarginPercent.StringFixed(2))
	require.NotNil(t, view.PriceDiff)
	assert.Equal(t, "-10.00", view.PriceDiff.StringFixed(2))
}
