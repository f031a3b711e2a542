package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/leoviajar/wc-upsell/internal/domain"
	"github.com/leoviajar/wc-upsell/internal/pricing"
)

// KitCatalogAPI is the catalog surface the tier handlers depend on.
type KitCatalogAPI interface {
	ListTiers(ctx context.Context, productID int64) ([]domain.KitTier, error)
	FindTier(ctx context.Context, productID int64, quantity int) (domain.KitTier, error)
	SaveTier(ctx context.Context, productID int64, tier domain.KitTier) (domain.KitTier, error)
	DeleteTier(ctx context.Context, productID int64, quantity int) error
	ListEnabled(ctx context.Context, productID int64) ([]domain.KitTier, error)
}

type KitHandler struct {
	catalog KitCatalogAPI
	timeout time.Duration
}

func NewKitHandler(catalog KitCatalogAPI, timeout time.Duration) *KitHandler {
	return &KitHandler{
		catalog: catalog,
		timeout: timeout,
	}
}

type SaveTierRequestDTO struct {
	Quantity   int    `json:"quantity"`
	Price      string `json:"price"`
	BadgeText  string `json:"badge_text"`
	BadgeColor string `json:"badge_color"`
	Enabled    *bool  `json:"enabled"`
}

// ListTiers returns every configured tier for the product, admin view.
func (h *KitHandler) ListTiers(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	productID, ok := productIDFromURL(w, r)
	if !ok {
		return
	}

	tiers, err := h.catalog.ListTiers(ctx, productID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{"tiers": tiers})
}

// SaveTier upserts one tier by quantity.
func (h *KitHandler) SaveTier(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	productID, ok := productIDFromURL(w, r)
	if !ok {
		return
	}

	var req SaveTierRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	price, err := decimal.NewFromString(req.Price)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_price", "price must be a decimal number")
		return
	}

	enabled := true
	if req.Enabled != nil {
		enabled = *req.Enabled
	}

	tier := domain.KitTier{
		Quantity:   req.Quantity,
		Price:      price,
		BadgeText:  req.BadgeText,
		BadgeColor: req.BadgeColor,
		Enabled:    enabled,
	}

	saved, err := h.catalog.SaveTier(ctx, productID, tier)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, saved)
}

// DeleteTier removes the exact-quantity tier.
func (h *KitHandler) DeleteTier(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	productID, ok := productIDFromURL(w, r)
	if !ok {
		return
	}
	quantity, ok := quantityFromURL(w, r)
	if !ok {
		return
	}

	if err := h.catalog.DeleteTier(ctx, productID, quantity); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListEnabled returns the tiers offered to shoppers on the product page.
func (h *KitHandler) ListEnabled(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	productID, ok := productIDFromURL(w, r)
	if !ok {
		return
	}

	tiers, err := h.catalog.ListEnabled(ctx, productID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{"tiers": tiers})
}

// TierPricing returns the display pricing breakdown for one tier against
// the product's regular price, supplied by the host renderer.
func (h *KitHandler) TierPricing(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	productID, ok := productIDFromURL(w, r)
	if !ok {
		return
	}
	quantity, ok := quantityFromURL(w, r)
	if !ok {
		return
	}

	regularPrice, err := decimal.NewFromString(r.URL.Query().Get("regular_price"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_regular_price", "regular_price must be a decimal number")
		return
	}

	tier, err := h.catalog.FindTier(ctx, productID, quantity)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, pricing.QuoteTier(regularPrice, tier))
}

func productIDFromURL(w http.ResponseWriter, r *http.Request) (int64, bool) {
	productID, err := strconv.ParseInt(chi.URLParam(r, "productID"), 10, 64)
	if err != nil || productID <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product id must be a positive integer")
		return 0, false
	}
	return productID, true
}

func quantityFromURL(w http.ResponseWriter, r *http.Request) (int, bool) {
	quantity, err := strconv.Atoi(chi.URLParam(r, "quantity"))
	if err != nil || quantity <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_quantity", "quantity must be a positive integer")
		return 0, false
	}
	return quantity, true
}
