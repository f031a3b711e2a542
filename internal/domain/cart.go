package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// GroupKey identifies one kit purchase inside a cart. Lines belong to the
// same kit group only when both the product and the token match; membership
// is never inferred from other field equality.
type GroupKey struct {
	ProductID int64
	Token     string
}

// NewGroupToken mints the opaque token shared by every line of one kit
// purchase. Assigned once at add time, never changed.
func NewGroupToken() string {
	return uuid.New().String()
}

// TierSnapshot is the tier data captured when the kit was added to the cart.
// It is display-only; live prices come from the consolidation pass.
type TierSnapshot struct {
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
	BadgeText string          `json:"badge_text,omitempty"`
}

// CartLine is one line item in a shopper's cart. Kit lines carry a group
// token and a tier snapshot; plain lines carry neither.
type CartLine struct {
	Key         string            `json:"key"`
	ProductID   int64             `json:"product_id"`
	VariationID int64             `json:"variation_id,omitempty"`
	Attributes  map[string]string `json:"attributes,omitempty"`
	Quantity    int               `json:"quantity"`
	UnitPrice   decimal.Decimal   `json:"unit_price"`
	GroupToken  string            `json:"group_token,omitempty"`
	Kit         *TierSnapshot     `json:"kit,omitempty"`
	AddedAt     time.Time         `json:"added_at"`
}

// NewLineKey mints a cart line key.
func NewLineKey() string {
	return uuid.New().String()
}

// GroupKey returns the line's kit group key, or false for plain lines.
func (l CartLine) GroupKey() (GroupKey, bool) {
	if l.GroupToken == "" {
		return GroupKey{}, false
	}
	return GroupKey{ProductID: l.ProductID, Token: l.GroupToken}, true
}

// Cart is one shopper session's cart. It is private session state mutated
// synchronously within a single request.
type Cart struct {
	SessionID string     `json:"session_id"`
	Lines     []CartLine `json:"lines"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// Line returns a pointer to the line with the given key, or nil.
func (c *Cart) Line(key string) *CartLine {
	for i := range c.Lines {
		if c.Lines[i].Key == key {
			return &c.Lines[i]
		}
	}
	return nil
}

// RemoveLine deletes the line with the given key, preserving order.
// Returns the removed line, or false when the key is unknown.
func (c *Cart) RemoveLine(key string) (CartLine, bool) {
	for i, l := range c.Lines {
		if l.Key == key {
			c.Lines = append(c.Lines[:i], c.Lines[i+1:]...)
			return l, true
		}
	}
	return CartLine{}, false
}

// Clone deep-copies the cart so callers can keep a pre-mutation snapshot.
func (c *Cart) Clone() *Cart {
	cp := *c
	cp.Lines = make([]CartLine, len(c.Lines))
	copy(cp.Lines, c.Lines)
	for i := range cp.Lines {
		if c.Lines[i].Kit != nil {
			snap := *c.Lines[i].Kit
			cp.Lines[i].Kit = &snap
		}
		if c.Lines[i].Attributes != nil {
			attrs := make(map[string]string, len(c.Lines[i].Attributes))
			for k, v := range c.Lines[i].Attributes {
				attrs[k] = v
			}
			cp.Lines[i].Attributes = attrs
		}
	}
	return &cp
}
