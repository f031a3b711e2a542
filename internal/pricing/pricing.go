// Package pricing computes kit prices, savings and discount percentages.
// Everything here is a pure function of its inputs; no I/O, no state.
package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/leoviajar/wc-upsell/internal/domain"
)

var hundred = decimal.NewFromInt(100)

// Quote is the full pricing breakdown for one tier of one product.
type Quote struct {
	KitPrice        decimal.Decimal `json:"kit_price"`
	UnitPrice       decimal.Decimal `json:"unit_price"`
	RegularTotal    decimal.Decimal `json:"regular_total"`
	Savings         decimal.Decimal `json:"savings"`
	DiscountPercent decimal.Decimal `json:"discount_percentage"`
}

// QuoteTier prices a tier against the product's regular unit price.
//
// A tier with a non-positive quantity yields the regular price with no
// discount: the caller gets a usable quote instead of an error. A zero
// regular price yields a 0% discount.
func QuoteTier(regularUnitPrice decimal.Decimal, tier domain.KitTier) Quote {
	if tier.Quantity <= 0 {
		return Quote{
			KitPrice:        regularUnitPrice,
			UnitPrice:       regularUnitPrice,
			RegularTotal:    regularUnitPrice,
			Savings:         decimal.Zero,
			DiscountPercent: decimal.Zero,
		}
	}

	qty := decimal.NewFromInt(int64(tier.Quantity))
	regularTotal := regularUnitPrice.Mul(qty)

	savings := regularTotal.Sub(tier.Price)
	if savings.IsNegative() {
		savings = decimal.Zero
	}

	percent := decimal.Zero
	if savings.IsPositive() && regularTotal.IsPositive() {
		percent = savings.Div(regularTotal).Mul(hundred).Round(2)
	}

	return Quote{
		KitPrice:        tier.Price,
		UnitPrice:       tier.UnitPrice(),
		RegularTotal:    regularTotal,
		Savings:         savings,
		DiscountPercent: percent,
	}
}
