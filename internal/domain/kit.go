package domain

import (
	"sort"

	"github.com/shopspring/decimal"
)

// KitTier is one configured bulk-purchase level for a product:
// "buy Quantity units for Price total".
type KitTier struct {
	Quantity   int             `json:"quantity"`
	Price      decimal.Decimal `json:"price"`
	BadgeText  string          `json:"badge_text,omitempty"`
	BadgeColor string          `json:"badge_color,omitempty"`
	Enabled    bool            `json:"enabled"`
}

// UnitPrice returns Price/Quantity, or zero when Quantity is not positive.
func (t KitTier) UnitPrice() decimal.Decimal {
	if t.Quantity <= 0 {
		return decimal.Zero
	}
	return t.Price.Div(decimal.NewFromInt(int64(t.Quantity)))
}

// KitSet is the ordered tier configuration owned by one product. Tiers are
// kept sorted ascending by quantity, at most one tier per quantity.
type KitSet struct {
	Tiers []KitTier `json:"tiers"`
}

// FindByQuantity returns the tier with an exact quantity match.
func (s KitSet) FindByQuantity(quantity int) (KitTier, bool) {
	for _, t := range s.Tiers {
		if t.Quantity == quantity {
			return t, true
		}
	}
	return KitTier{}, false
}

// Upsert adds the tier or replaces the existing tier with the same quantity,
// then restores ascending order.
func (s *KitSet) Upsert(tier KitTier) {
	for i := range s.Tiers {
		if s.Tiers[i].Quantity == tier.Quantity {
			s.Tiers[i] = tier
			s.sortAscending()
			return
		}
	}
	s.Tiers = append(s.Tiers, tier)
	s.sortAscending()
}

// Remove deletes the tier with the exact quantity. Returns false when no
// such tier exists.
func (s *KitSet) Remove(quantity int) bool {
	for i, t := range s.Tiers {
		if t.Quantity == quantity {
			s.Tiers = append(s.Tiers[:i], s.Tiers[i+1:]...)
			return true
		}
	}
	return false
}

// Enabled returns the enabled tiers, preserving ascending quantity order.
func (s KitSet) Enabled() []KitTier {
	var enabled []KitTier
	for _, t := range s.Tiers {
		if t.Enabled {
			enabled = append(enabled, t)
		}
	}
	return enabled
}

// MinimumQuantity is the smallest enabled tier quantity, or 0 when the
// product has no enabled tiers.
func (s KitSet) MinimumQuantity() int {
	min := 0
	for _, t := range s.Tiers {
		if !t.Enabled {
			continue
		}
		if min == 0 || t.Quantity < min {
			min = t.Quantity
		}
	}
	return min
}

func (s *KitSet) sortAscending() {
	sort.Slice(s.Tiers, func(i, j int) bool {
		return s.Tiers[i].Quantity < s.Tiers[j].Quantity
	})
}
