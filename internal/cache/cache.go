package cache

import (
	"context"
	"errors"

	"github.com/leoviajar/wc-upsell/internal/domain"
)

// TierCache caches a product's enabled tiers between catalog reads.
type TierCache interface {
	Get(ctx context.Context, productID int64) ([]domain.KitTier, error)
	Set(ctx context.Context, productID int64, tiers []domain.KitTier) error
	Delete(ctx context.Context, productID int64) error
}

var ErrCacheMiss = errors.New("cache miss")
