package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/leoviajar/wc-upsell/internal/domain"
	"github.com/leoviajar/wc-upsell/internal/kit"
	"github.com/leoviajar/wc-upsell/internal/repository"
)

// Catalog is the tier lookup surface the cart side depends on.
// Consumers define this interface, not the catalog implementation.
type Catalog interface {
	FindTier(ctx context.Context, productID int64, quantity int) (domain.KitTier, error)
	ListEnabled(ctx context.Context, productID int64) ([]domain.KitTier, error)
	MinimumQuantity(ctx context.Context, productID int64) (int, error)
}

// VariationSelection is one per-unit variant choice inside a kit purchase.
type VariationSelection struct {
	VariationID int64
	Attributes  map[string]string
}

// AddKitRequest adds one kit purchase to the cart: the selected tier
// quantity plus, for variable products, one variation selection per unit.
type AddKitRequest struct {
	ProductID  int64
	Quantity   int
	Variations []VariationSelection
}

// CartService owns every mutation path of a shopper's cart and keeps kit
// groups consistent across all of them: add, quantity update, partial
// removal, wholesale replace and checkout validation.
type CartService struct {
	carts        repository.CartRepository
	catalog      Catalog
	consolidator *kit.Consolidator
}

func NewCartService(carts repository.CartRepository, catalog Catalog, consolidator *kit.Consolidator) *CartService {
	return &CartService{
		carts:        carts,
		catalog:      catalog,
		consolidator: consolidator,
	}
}

// GetCart returns the session's cart with kit prices consolidated for
// display. A missing cart is an empty cart, not an error.
func (s *CartService) GetCart(ctx context.Context, sessionID string) (*domain.Cart, error) {
	cart, err := s.loadOrEmpty(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	s.consolidator.Consolidate(ctx, cart)
	return cart, nil
}

// AddKit resolves the selected tier and adds the kit's lines to the cart,
// all tagged with one freshly minted group token and the tier snapshot.
// For variable products one line is added per selected variation; the
// selection count must equal the tier quantity. Nothing is applied on
// validation failure.
func (s *CartService) AddKit(ctx context.Context, sessionID string, req AddKitRequest) (*domain.Cart, error) {
	if req.Quantity <= 0 {
		return nil, ErrInvalidQuantity
	}

	tier, err := s.catalog.FindTier(ctx, req.ProductID, req.Quantity)
	if err != nil {
		return nil, err
	}
	if !tier.Enabled {
		return nil, ErrTierNotFound
	}
	if len(req.Variations) > 0 && len(req.Variations) != req.Quantity {
		return nil, ErrVariationCount
	}

	cart, err := s.loadOrEmpty(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	unitPrice := tier.UnitPrice()
	token := domain.NewGroupToken()
	now := time.Now()
	snapshot := domain.TierSnapshot{
		Quantity:  tier.Quantity,
		Price:     tier.Price,
		BadgeText: tier.BadgeText,
	}

	if len(req.Variations) > 0 {
		for _, v := range req.Variations {
			snap := snapshot
			cart.Lines = append(cart.Lines, domain.CartLine{
				Key:         domain.NewLineKey(),
				ProductID:   req.ProductID,
				VariationID: v.VariationID,
				Attributes:  v.Attributes,
				Quantity:    1,
				UnitPrice:   unitPrice,
				GroupToken:  token,
				Kit:         &snap,
				AddedAt:     now,
			})
		}
	} else {
		cart.Lines = append(cart.Lines, domain.CartLine{
			Key:        domain.NewLineKey(),
			ProductID:  req.ProductID,
			Quantity:   req.Quantity,
			UnitPrice:  unitPrice,
			GroupToken: token,
			Kit:        &snapshot,
			AddedAt:    now,
		})
	}

	s.consolidator.Consolidate(ctx, cart)

	if err := s.carts.UpsertCart(ctx, cart); err != nil {
		return nil, fmt.Errorf("failed to persist cart: %w", err)
	}

	return cart, nil
}

// ValidateQuantityChange is the pre-commit minimum-quantity check: it
// computes the group total as it would be after changing one member and
// rejects the change when the result falls below the product's floor.
func (s *CartService) ValidateQuantityChange(ctx context.Context, cart *domain.Cart, lineKey string, quantity int) error {
	if cart.Line(lineKey) == nil {
		return ErrLineNotFound
	}

	group := kit.GroupFor(cart, lineKey)
	if group == nil {
		return nil // plain line, no floor to enforce
	}

	minimum, err := s.catalog.MinimumQuantity(ctx, group.Key.ProductID)
	if err != nil {
		return fmt.Errorf("failed to resolve minimum quantity: %w", err)
	}

	if kit.EvaluateGroup(kit.ProjectedTotal(group, lineKey, quantity), minimum) == kit.GroupInvalid {
		return ErrBelowMinimum
	}
	return nil
}

// UpdateLineQuantity changes one line's quantity. The change is validated
// before commit; a violating request is rejected with the cart untouched.
// This is also the direct quantity-change API entry point.
func (s *CartService) UpdateLineQuantity(ctx context.Context, sessionID, lineKey string, quantity int) (*domain.Cart, error) {
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}

	cart, err := s.carts.GetCart(ctx, sessionID)
	if err != nil {
		if errors.Is(err, repository.ErrCartNotFound) {
			return nil, ErrLineNotFound
		}
		return nil, err
	}

	if err := s.ValidateQuantityChange(ctx, cart, lineKey, quantity); err != nil {
		return nil, err
	}

	cart.Line(lineKey).Quantity = quantity
	s.consolidator.Consolidate(ctx, cart)

	if err := s.carts.UpsertCart(ctx, cart); err != nil {
		return nil, fmt.Errorf("failed to persist cart: %w", err)
	}

	return cart, nil
}

// RemoveLine deletes one line. When the line belonged to a kit group and
// the surviving members no longer reach the product's minimum, the whole
// group is removed rather than left permanently invalid, and an
// informational notice (not an error) is attached.
func (s *CartService) RemoveLine(ctx context.Context, sessionID, lineKey string) (*domain.Cart, *domain.NoticeList, error) {
	cart, err := s.carts.GetCart(ctx, sessionID)
	if err != nil {
		if errors.Is(err, repository.ErrCartNotFound) {
			return nil, nil, ErrLineNotFound
		}
		return nil, nil, err
	}

	// Capture the line before removal; it is no longer queryable after.
	removed, ok := cart.RemoveLine(lineKey)
	if !ok {
		return nil, nil, ErrLineNotFound
	}

	notices := &domain.NoticeList{}

	if groupKey, isKit := removed.GroupKey(); isKit {
		if err := s.cascadeIfBelowMinimum(ctx, cart, groupKey, notices); err != nil {
			return nil, nil, err
		}
	}

	s.consolidator.Consolidate(ctx, cart)

	if err := s.carts.UpsertCart(ctx, cart); err != nil {
		return nil, nil, fmt.Errorf("failed to persist cart: %w", err)
	}

	return cart, notices, nil
}

func (s *CartService) cascadeIfBelowMinimum(ctx context.Context, cart *domain.Cart, groupKey domain.GroupKey, notices *domain.NoticeList) error {
	var survivors *kit.Group
	for _, g := range kit.GroupsOf(cart) {
		if g.Key == groupKey {
			survivors = g
			break
		}
	}
	if survivors == nil {
		return nil // last member removed, group already fully gone
	}

	minimum, err := s.catalog.MinimumQuantity(ctx, groupKey.ProductID)
	if err != nil {
		return fmt.Errorf("failed to resolve minimum quantity: %w", err)
	}
	if kit.EvaluateGroup(survivors.TotalQuantity(), minimum) == kit.GroupValid {
		return nil
	}

	// Collect keys before removing: removal shifts the cart's line slice
	// and the group holds pointers into it.
	keys := make([]string, 0, len(survivors.Lines))
	for _, line := range survivors.Lines {
		keys = append(keys, line.Key)
	}
	for _, key := range keys {
		cart.RemoveLine(key)
	}
	notices.Add(domain.Notice{
		Code:     "kit_removed",
		Message:  fmt.Sprintf("The remaining kit items fell below the minimum of %d units and were removed from your cart.", minimum),
		Blocking: false,
	})
	return nil
}

// ReplaceCart replaces the cart contents wholesale (the host cart
// container's full-contents replace). Because this path carries mutations
// that bypassed per-line validation, the post-commit safety net applies:
// a kit group pushed below its floor has quantity changes rolled back to
// the previously stored values, and loses its surviving members when the
// replacement removed lines outright, followed by a forced
// re-consolidation.
func (s *CartService) ReplaceCart(ctx context.Context, sessionID string, lines []domain.CartLine) (*domain.Cart, *domain.NoticeList, error) {
	for _, line := range lines {
		if line.Quantity <= 0 {
			return nil, nil, ErrInvalidQuantity
		}
	}

	prior, err := s.loadOrEmpty(ctx, sessionID)
	if err != nil {
		return nil, nil, err
	}

	cart := &domain.Cart{
		SessionID: sessionID,
		Lines:     lines,
		CreatedAt: prior.CreatedAt,
	}

	s.consolidator.Consolidate(ctx, cart)
	notices := s.revertBelowMinimum(ctx, cart, prior)

	if err := s.carts.UpsertCart(ctx, cart); err != nil {
		return nil, nil, fmt.Errorf("failed to persist cart: %w", err)
	}

	return cart, notices, nil
}

// revertBelowMinimum repairs kit groups the replacement left below their
// floor. Quantity changes are rolled back to the previously stored values
// with a blocking notice. A group whose members were removed outright has
// no quantity to restore, so its survivors are removed too, with the same
// informational notice the direct removal path emits. Either repair forces
// a re-consolidation.
func (s *CartService) revertBelowMinimum(ctx context.Context, cart, prior *domain.Cart) *domain.NoticeList {
	notices := &domain.NoticeList{}
	changed := false
	var cascaded []string

	for _, g := range kit.GroupsOf(cart) {
		minimum, err := s.catalog.MinimumQuantity(ctx, g.Key.ProductID)
		if err != nil {
			log.Printf("minimum quantity lookup failed for product %d: %v", g.Key.ProductID, err)
			continue
		}
		if kit.EvaluateGroup(g.TotalQuantity(), minimum) == kit.GroupValid {
			continue
		}

		for _, line := range g.Lines {
			if p := prior.Line(line.Key); p != nil && p.Quantity != line.Quantity {
				line.Quantity = p.Quantity
				changed = true
			}
		}

		if kit.EvaluateGroup(g.TotalQuantity(), minimum) == kit.GroupValid {
			notices.Add(domain.Notice{
				Code:     "kit_minimum_quantity",
				Message:  fmt.Sprintf("This kit requires at least %d units.", minimum),
				Blocking: true,
			})
			continue
		}

		// Still below the floor after the rollback: the missing quantity
		// left with removed lines. The group must not persist invalid.
		for _, line := range g.Lines {
			cascaded = append(cascaded, line.Key)
		}
		notices.Add(domain.Notice{
			Code:     "kit_removed",
			Message:  fmt.Sprintf("The remaining kit items fell below the minimum of %d units and were removed from your cart.", minimum),
			Blocking: false,
		})
	}

	for _, key := range cascaded {
		cart.RemoveLine(key)
		changed = true
	}

	if changed {
		s.consolidator.Consolidate(ctx, cart)
	}
	return notices
}

// ValidateCheckout inspects every kit group once and attaches a blocking
// notice for each group below its minimum. Checkout cannot proceed while
// any blocking notice is attached.
func (s *CartService) ValidateCheckout(ctx context.Context, cart *domain.Cart) *domain.NoticeList {
	notices := &domain.NoticeList{}

	if len(cart.Lines) == 0 {
		notices.Add(domain.Notice{
			Code:     "empty_cart",
			Message:  "Your cart is empty.",
			Blocking: true,
		})
		return notices
	}

	checked := make(map[domain.GroupKey]struct{})
	minByProduct := make(map[int64]int)

	for _, g := range kit.GroupsOf(cart) {
		if _, done := checked[g.Key]; done {
			continue
		}
		checked[g.Key] = struct{}{}

		minimum, ok := minByProduct[g.Key.ProductID]
		if !ok {
			m, err := s.catalog.MinimumQuantity(ctx, g.Key.ProductID)
			if err != nil {
				log.Printf("minimum quantity lookup failed for product %d: %v", g.Key.ProductID, err)
				continue
			}
			minimum = m
			minByProduct[g.Key.ProductID] = m
		}

		if kit.EvaluateGroup(g.TotalQuantity(), minimum) == kit.GroupInvalid {
			notices.Add(domain.Notice{
				Code:     "kit_minimum_quantity",
				Message:  fmt.Sprintf("A kit in your cart is below its minimum of %d units.", minimum),
				Blocking: true,
			})
		}
	}

	return notices
}

func (s *CartService) loadOrEmpty(ctx context.Context, sessionID string) (*domain.Cart, error) {
	cart, err := s.carts.GetCart(ctx, sessionID)
	if err != nil {
		if errors.Is(err, repository.ErrCartNotFound) {
			now := time.Now()
			return &domain.Cart{
				SessionID: sessionID,
				CreatedAt: now,
				UpdatedAt: now,
			}, nil
		}
		return nil, err
	}
	return cart, nil
}
