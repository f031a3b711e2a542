package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/leoviajar/wc-upsell/internal/cache"
	"github.com/leoviajar/wc-upsell/internal/domain"
	"github.com/leoviajar/wc-upsell/internal/repository"
)

const defaultBadgeColor = "#000000"

// CatalogService manages each product's kit tier configuration. Reads on
// the shopper path go through the cache; admin mutations rewrite the whole
// set atomically and invalidate the product's cache entry.
type CatalogService struct {
	repo  repository.KitSetRepository
	cache cache.TierCache
	sfg   singleflight.Group // Prevents cache stampede
}

func NewCatalogService(repo repository.KitSetRepository, cache cache.TierCache) *CatalogService {
	return &CatalogService{
		repo:  repo,
		cache: cache,
	}
}

// ListTiers returns every configured tier ascending by quantity, enabled or
// not. Admin path; always reads the store.
func (s *CatalogService) ListTiers(ctx context.Context, productID int64) ([]domain.KitTier, error) {
	set, err := s.repo.Get(ctx, productID)
	if err != nil {
		if errors.Is(err, repository.ErrKitSetNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return set.Tiers, nil
}

// FindTier returns the tier with an exact quantity match.
func (s *CatalogService) FindTier(ctx context.Context, productID int64, quantity int) (domain.KitTier, error) {
	set, err := s.repo.Get(ctx, productID)
	if err != nil {
		if errors.Is(err, repository.ErrKitSetNotFound) {
			return domain.KitTier{}, ErrTierNotFound
		}
		return domain.KitTier{}, err
	}
	tier, ok := set.FindByQuantity(quantity)
	if !ok {
		return domain.KitTier{}, ErrTierNotFound
	}
	return tier, nil
}

// SaveTier validates and upserts one tier, re-sorts the set ascending and
// persists the whole set in one write. Returns the tier as persisted,
// defaults applied.
func (s *CatalogService) SaveTier(ctx context.Context, productID int64, tier domain.KitTier) (domain.KitTier, error) {
	if tier.Quantity <= 0 {
		return domain.KitTier{}, ErrInvalidQuantity
	}
	if tier.Price.IsNegative() {
		return domain.KitTier{}, ErrInvalidPrice
	}
	if tier.BadgeColor == "" {
		tier.BadgeColor = defaultBadgeColor
	}

	set, err := s.repo.Get(ctx, productID)
	if err != nil && !errors.Is(err, repository.ErrKitSetNotFound) {
		return domain.KitTier{}, fmt.Errorf("failed to load kit set: %w", err)
	}

	set.Upsert(tier)

	if err := s.repo.Put(ctx, productID, set); err != nil {
		return domain.KitTier{}, fmt.Errorf("failed to save kit set: %w", err)
	}

	s.invalidateCache(productID)
	return tier, nil
}

// DeleteTier removes the exact-quantity tier and re-persists the set.
func (s *CatalogService) DeleteTier(ctx context.Context, productID int64, quantity int) error {
	set, err := s.repo.Get(ctx, productID)
	if err != nil {
		if errors.Is(err, repository.ErrKitSetNotFound) {
			return ErrTierNotFound
		}
		return fmt.Errorf("failed to load kit set: %w", err)
	}

	if !set.Remove(quantity) {
		return ErrTierNotFound
	}

	if err := s.repo.Put(ctx, productID, set); err != nil {
		return fmt.Errorf("failed to save kit set: %w", err)
	}

	s.invalidateCache(productID)
	return nil
}

// ListEnabled returns the product's enabled tiers ascending by quantity,
// empty when none are configured. Shopper path: cache-aside with
// singleflight so concurrent misses trigger one store read.
func (s *CatalogService) ListEnabled(ctx context.Context, productID int64) ([]domain.KitTier, error) {
	v, err, _ := s.sfg.Do(fmt.Sprintf("tiers:%d", productID), func() (interface{}, error) {
		tiers, err := s.cache.Get(ctx, productID)
		if err == nil {
			return tiers, nil
		}

		if !errors.Is(err, cache.ErrCacheMiss) {
			log.Printf("tier cache get error: %v", err) // log cache error but continue
		}

		set, errGet := s.repo.Get(ctx, productID)
		if errGet != nil {
			if errors.Is(errGet, repository.ErrKitSetNotFound) {
				return []domain.KitTier(nil), nil
			}
			return nil, errGet
		}

		enabled := set.Enabled()

		// set cache
		go func() {
			ctxSet, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			if errSet := s.cache.Set(ctxSet, productID, enabled); errSet != nil {
				log.Printf("tier cache set error: %v", errSet)
			}
		}()

		return enabled, nil
	})

	if err != nil {
		return nil, err
	}

	return v.([]domain.KitTier), nil
}

// MinimumQuantity is the smallest enabled tier quantity for the product, or
// 0 when no enabled tiers exist. This is the floor below which a kit group
// may not shrink.
func (s *CatalogService) MinimumQuantity(ctx context.Context, productID int64) (int, error) {
	tiers, err := s.ListEnabled(ctx, productID)
	if err != nil {
		return 0, err
	}
	return domain.KitSet{Tiers: tiers}.MinimumQuantity(), nil
}

func (s *CatalogService) invalidateCache(productID int64) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.cache.Delete(ctx, productID); err != nil {
		log.Printf("tier cache invalidate error: %v", err)
	}
}
