package models

import "github.com/shopspring/decimal"

// Derived pricing metrics. All of these are pure functions of the current
// record state, recomputed on every call and rounded to 2 decimal places
// with banker's rounding (half to even), the policy used across the service
// for currency values.

var hundred = decimal.NewFromInt(100)

// Profit returns the per-unit profit (price minus cost)
func (p *Product) Profit() decimal.Decimal {
	return p.Price.Sub(p.Cost).RoundBank(2)
}

// MarginPercent returns the margin as a percentage of cost. A zero or
// negative cost yields 0 rather than an error.
func (p *Product) MarginPercent() decimal.Decimal {
	if !p.Cost.IsPositive() {
		return decimal.Zero
	}
	return p.Price.Sub(p.Cost).Div(p.Cost).Mul(hundred).RoundBank(2)
}

// PriceDiff returns our price minus the competitor's tracked price; negative
// means we are cheaper. Returns nil when no competitor price is tracked —
// callers must not conflate that with a tied price of 0.
func (p *Product) PriceDiff() *decimal.Decimal {
	if p.CompetitorPrice == nil {
		return nil
	}
	diff := p.Price.Sub(*p.CompetitorPrice)
	return &diff
}

// TotalPrice returns the bundle price after discount. Each distinct product
// in the bundle counts once regardless of its BundleItem quantity; see
// TotalPriceWeighted for the quantity-aware variant.
func (b *Bundle) TotalPrice() decimal.Decimal {
	total := decimal.Zero
	for _, item := range b.Items {
		if item.Product != nil {
			total = total.Add(item.Product.Price)
		}
	}
	return b.applyDiscount(total).RoundBank(2)
}

// TotalCost returns the summed cost of the bundle's distinct products
func (b *Bundle) TotalCost() decimal.Decimal {
	total := decimal.Zero
	for _, item := range b.Items {
		if item.Product != nil {
			total = total.Add(item.Product.Cost)
		}
	}
	return total.RoundBank(2)
}

// TotalPriceWeighted returns the discounted bundle price with each product
// multiplied by its quantity in the bundle
func (b *Bundle) TotalPriceWeighted() decimal.Decimal {
	total := decimal.Zero
	for _, item := range b.Items {
		if item.Product != nil {
			total = total.Add(item.Product.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
		}
	}
	return b.applyDiscount(total).RoundBank(2)
}

// TotalCostWeighted returns the bundle cost with quantities factored in
func (b *Bundle) TotalCostWeighted() decimal.Decimal {
	total := decimal.Zero
	for _, item := range b.Items {
		if item.Product != nil {
			total = total.Add(item.Product.Cost.Mul(decimal.NewFromInt(int64(item.Quantity))))
		}
	}
	return total.RoundBank(2)
}

// Profit returns the bundle profit (total price minus total cost)
func (b *Bundle) Profit() decimal.Decimal {
	return b.TotalPrice().Sub(b.TotalCost()).RoundBank(2)
}

// MarginPercent returns the bundle margin as a percentage of total cost,
// or 0 when the bundle has no cost basis
func (b *Bundle) MarginPercent() decimal.Decimal {
	cost := b.TotalCost()
	if !cost.IsPositive() {
		return decimal.Zero
	}
	return b.TotalPrice().Sub(cost).Div(cost).Mul(hundred).RoundBank(2)
}

func (b *Bundle) applyDiscount(total decimal.Decimal) decimal.Decimal {
	if b.Discount.IsPositive() {
		return total.Mul(hundred.Sub(b.Discount)).Div(hundred)
	}
	return total
}
