// Package kit holds the cart-side kit logic: deriving kit groups from cart
// lines, consolidating group prices on recalculation, and enforcing the
// minimum-quantity floor.
package kit

import (
	"github.com/leoviajar/wc-upsell/internal/domain"
)

// Group is the derived set of cart lines fulfilling one kit purchase.
// It is never persisted; it is rebuilt from the cart on every pass. The
// line pointers alias the cart's own slice so price updates apply in place.
type Group struct {
	Key   domain.GroupKey
	Lines []*domain.CartLine
}

// TotalQuantity is the sum of member quantities. This is the quantity fed
// into tier resolution.
func (g *Group) TotalQuantity() int {
	total := 0
	for _, l := range g.Lines {
		total += l.Quantity
	}
	return total
}

// GroupsOf collects the kit groups present in the cart, in first-seen line
// order. Lines without a group token are ignored.
func GroupsOf(cart *domain.Cart) []*Group {
	var groups []*Group
	index := make(map[domain.GroupKey]*Group)

	for i := range cart.Lines {
		line := &cart.Lines[i]
		key, ok := line.GroupKey()
		if !ok {
			continue
		}
		g, seen := index[key]
		if !seen {
			g = &Group{Key: key}
			index[key] = g
			groups = append(groups, g)
		}
		g.Lines = append(g.Lines, line)
	}

	return groups
}

// GroupFor returns the group containing the given line key, or nil when the
// line does not exist or is not part of a kit.
func GroupFor(cart *domain.Cart, lineKey string) *Group {
	line := cart.Line(lineKey)
	if line == nil {
		return nil
	}
	key, ok := line.GroupKey()
	if !ok {
		return nil
	}
	for _, g := range GroupsOf(cart) {
		if g.Key == key {
			return g
		}
	}
	return nil
}
