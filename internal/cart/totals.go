package cart

import "github.com/shopspring/decimal"

var (
	freeShippingThreshold = decimal.NewFromInt(100)
	flatShippingRate      = decimal.NewFromInt(10)
	taxRate               = decimal.NewFromFloat(0.15)
)

// ComputeTotals derives the price summary for a list of active items.
// Shipping and tax are rounded independently before the final sum, so the
// total is the sum of already-rounded components. Inputs are assumed to be
// validated (non-negative price and quantity); see ParseItems.
func ComputeTotals(items []Item) Totals {
	if len(items) == 0 {
		zero := decimal.Zero.StringFixed(2)
		return Totals{ItemsPrice: zero, ShippingPrice: zero, TaxPrice: zero, TotalPrice: zero}
	}

	itemsPrice := decimal.Zero
	for _, it := range items {
		line := decimal.NewFromFloat(it.Price).Mul(decimal.NewFromInt(int64(it.Quantity)))
		itemsPrice = itemsPrice.Add(line)
	}
	itemsPrice = itemsPrice.Round(2)

	shippingPrice := flatShippingRate
	if itemsPrice.GreaterThan(freeShippingThreshold) {
		shippingPrice = decimal.Zero
	}
	shippingPrice = shippingPrice.Round(2)

	taxPrice := taxRate.Mul(itemsPrice).Round(2)
	totalPrice := itemsPrice.Add(shippingPrice).Add(taxPrice).Round(2)

	return Totals{
		ItemsPrice:    itemsPrice.StringFixed(2),
		ShippingPrice: shippingPrice.StringFixed(2),
		TaxPrice:      taxPrice.StringFixed(2),
		TotalPrice:    totalPrice.StringFixed(2),
	}
}
