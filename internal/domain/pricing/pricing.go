// internal/domain/pricing/pricing.go
package pricing

import (
	"github.com/shopspring/decimal"
)

// Policy holds the tax and shipping rules applied to a checkout
type Policy struct {
	TaxRate               decimal.Decimal
	ShippingFlatRate      decimal.Decimal
	FreeShippingThreshold decimal.Decimal
}

// DefaultPolicy is 8% tax and a flat $10 shipping fee waived above $100
var DefaultPolicy = Policy{
	TaxRate:               decimal.RequireFromString("0.08"),
	ShippingFlatRate:      decimal.NewFromInt(10),
	FreeShippingThreshold: decimal.NewFromInt(100),
}

// Summary is the price breakdown of a checkout
type Summary struct {
	Subtotal       decimal.Decimal `json:"subtotal"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	TaxAmount      decimal.Decimal `json:"tax_amount"`
	ShippingAmount decimal.Decimal `json:"shipping_amount"`
	TotalAmount    decimal.Decimal `json:"total_amount"`
}

// Shipping returns the shipping fee for a raw (undiscounted) subtotal
func (p Policy) Shipping(subtotal decimal.Decimal) decimal.Decimal {
	if subtotal.GreaterThan(p.FreeShippingThreshold) {
		return decimal.Zero
	}
	return p.ShippingFlatRate
}

// Tax returns the tax owed on the discounted subtotal
func (p Policy) Tax(subtotal, discount decimal.Decimal) decimal.Decimal {
	return subtotal.Sub(discount).Mul(p.TaxRate)
}

// Calculate prices a subtotal and an already computed discount.
// Tax is charged on the discounted amount while the free shipping
// threshold looks at the raw subtotal.
func (p Policy) Calculate(subtotal, discount decimal.Decimal) Summary {
	tax := p.Tax(subtotal, discount)
	shipping := p.Shipping(subtotal)

	return Summary{
		Subtotal:       subtotal,
		DiscountAmount: discount,
		TaxAmount:      tax,
		ShippingAmount: shipping,
		TotalAmount:    subtotal.Sub(discount).Add(tax).Add(shipping),
	}
}

// Round returns the summary rounded to cents with the total recomputed
// from the rounded parts, so a stored breakdown always adds up.
func (s Summary) Round() Summary {
	r := Summary{
		Subtotal:       s.Subtotal.Round(2),
		DiscountAmount: s.DiscountAmount.Round(2),
		TaxAmount:      s.TaxAmount.Round(2),
		ShippingAmount: s.ShippingAmount.Round(2),
	}
	r.TotalAmount = r.Subtotal.Sub(r.DiscountAmount).Add(r.TaxAmount).Add(r.ShippingAmount)
	return r
}
