// Package pricing computes order money fields from cart snapshots.
// All arithmetic is decimal; float64 only appears at the storage boundary.
package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/oakmart/storefront/internal/models"
)

var (
	taxRate               = decimal.NewFromFloat(0.15)
	freeShippingThreshold = decimal.NewFromInt(200)
	flatShipping          = decimal.NewFromInt(25)
)

type Totals struct {
	ItemsPrice    decimal.Decimal
	Discount      decimal.Decimal
	TaxPrice      decimal.Decimal
	ShippingPrice decimal.Decimal
	TotalPrice    decimal.Decimal
}

// Subtotal sums snapshot price * quantity over cart lines. Live catalog
// prices are deliberately not consulted.
func Subtotal(items []models.CartItem) decimal.Decimal {
	sum := decimal.Zero
	for _, it := range items {
		line := decimal.NewFromFloat(it.Price).Mul(decimal.NewFromInt(int64(it.Quantity)))
		sum = sum.Add(line)
	}
	return sum
}

// Compute derives tax, shipping and total from the items subtotal and an
// already-validated discount. Tax is a flat 15% and shipping is free above
// 200, both applied to the discounted items price. The discount never drives
// the items price below zero.
func Compute(itemsPrice, discount decimal.Decimal) Totals {
	if discount.GreaterThan(itemsPrice) {
		discount = itemsPrice
	}
	base := itemsPrice.Sub(discount)

	tax := base.Mul(taxRate).Round(2)

	shipping := flatShipping
	if base.GreaterThan(freeShippingThreshold) {
		shipping = decimal.Zero
	}

	return Totals{
		ItemsPrice:    itemsPrice.Round(2),
		Discount:      discount.Round(2),
		TaxPrice:      tax,
		ShippingPrice: shipping,
		TotalPrice:    base.Add(tax).Add(shipping).Round(2),
	}
}
