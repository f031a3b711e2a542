package kit

import (
	"context"
	"log"

	"github.com/shopspring/decimal"

	"github.com/leoviajar/wc-upsell/internal/domain"
)

// TierSource supplies a product's enabled tiers, ascending by quantity.
// Consumers define this interface, not the catalog implementation.
type TierSource interface {
	ListEnabled(ctx context.Context, productID int64) ([]domain.KitTier, error)
}

// Consolidator re-resolves and applies a single effective unit price to
// every line of each kit group. It must run before totals are computed, on
// every recalculation pass, and is idempotent: running it twice over an
// unchanged cart yields the same prices.
type Consolidator struct {
	tiers TierSource
}

func NewConsolidator(tiers TierSource) *Consolidator {
	return &Consolidator{tiers: tiers}
}

// Consolidate walks the cart's kit groups and overwrites each member's unit
// price with the price resolved for the group's combined quantity. This
// overwrites any price set by the add path; the consolidation pass is the
// single source of truth at recalculation time.
//
// A failed or empty tier lookup leaves that group's prices untouched; the
// shopper keeps the last applied price rather than seeing an error.
func (c *Consolidator) Consolidate(ctx context.Context, cart *domain.Cart) {
	for _, group := range GroupsOf(cart) {
		tiers, err := c.tiers.ListEnabled(ctx, group.Key.ProductID)
		if err != nil {
			log.Printf("consolidate: tier lookup failed for product %d: %v", group.Key.ProductID, err)
			continue
		}
		if len(tiers) == 0 {
			continue
		}

		unitPrice, ok := ResolveUnitPrice(group.TotalQuantity(), tiers)
		if !ok {
			continue
		}

		for _, line := range group.Lines {
			line.UnitPrice = unitPrice
		}
	}
}

// ResolveUnitPrice selects the effective per-unit price for a kit group of
// totalQuantity units, given the product's enabled tiers.
//
// Selection policy: the matching tier is the one with the largest quantity
// not exceeding the total. An exact match prices at tier price over tier
// quantity. A total above the matched tier prices the overflow units at the
// tier's own unit rate (the blend below collapses to that rate; it is kept
// in this form so the rounding path stays the defined behavior). A total
// below the smallest tier falls back to the largest tier's unit economics,
// the closest available discount, never the regular price.
func ResolveUnitPrice(totalQuantity int, tiers []domain.KitTier) (decimal.Decimal, bool) {
	var matching, max *domain.KitTier
	for i := range tiers {
		t := &tiers[i]
		if t.Quantity <= totalQuantity && (matching == nil || t.Quantity > matching.Quantity) {
			matching = t
		}
		if max == nil || t.Quantity > max.Quantity {
			max = t
		}
	}

	switch {
	case matching != nil && totalQuantity == matching.Quantity:
		return matching.UnitPrice(), true
	case matching != nil && totalQuantity > matching.Quantity:
		extra := decimal.NewFromInt(int64(totalQuantity - matching.Quantity))
		perUnit := matching.UnitPrice()
		blended := matching.Price.Add(extra.Mul(perUnit)).Div(decimal.NewFromInt(int64(totalQuantity)))
		return blended, true
	case max != nil:
		return max.UnitPrice(), true
	default:
		return decimal.Zero, false
	}
}
