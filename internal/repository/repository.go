package repository

import (
	"context"
	"errors"

	"github.com/leoviajar/wc-upsell/internal/domain"
)

var (
	ErrCartNotFound   = errors.New("cart not found")
	ErrKitSetNotFound = errors.New("kit set not found")
)

// KitSetRepository persists each product's tier configuration as a single
// attached blob: the whole set is replaced on every write, never patched
// tier by tier.
// Consumers define this interface, not the MongoDB implementation.
type KitSetRepository interface {
	Get(ctx context.Context, productID int64) (domain.KitSet, error)
	Put(ctx context.Context, productID int64, set domain.KitSet) error
	Remove(ctx context.Context, productID int64) error
}

// CartRepository persists session carts. The cart is written back whole;
// the host session layer's last-write-wins semantics apply.
type CartRepository interface {
	GetCart(ctx context.Context, sessionID string) (*domain.Cart, error)
	UpsertCart(ctx context.Context, cart *domain.Cart) error
	DeleteCart(ctx context.Context, sessionID string) error
}
