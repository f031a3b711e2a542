package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/leoviajar/wc-upsell/internal/domain"
	"github.com/leoviajar/wc-upsell/internal/service"
)

// CartAPI is the cart surface the handlers depend on.
type CartAPI interface {
	GetCart(ctx context.Context, sessionID string) (*domain.Cart, error)
	AddKit(ctx context.Context, sessionID string, req service.AddKitRequest) (*domain.Cart, error)
	UpdateLineQuantity(ctx context.Context, sessionID, lineKey string, quantity int) (*domain.Cart, error)
	RemoveLine(ctx context.Context, sessionID, lineKey string) (*domain.Cart, *domain.NoticeList, error)
	ReplaceCart(ctx context.Context, sessionID string, lines []domain.CartLine) (*domain.Cart, *domain.NoticeList, error)
}

type CartHandler struct {
	cart    CartAPI
	timeout time.Duration
}

func NewCartHandler(cart CartAPI, timeout time.Duration) *CartHandler {
	return &CartHandler{
		cart:    cart,
		timeout: timeout,
	}
}

type AddKitRequestDTO struct {
	ProductID  int64                   `json:"product_id"`
	Quantity   int                     `json:"quantity"`
	Variations []VariationSelectionDTO `json:"variations,omitempty"`
}

type VariationSelectionDTO struct {
	VariationID int64             `json:"variation_id"`
	Attributes  map[string]string `json:"attributes,omitempty"`
}

type UpdateQuantityRequestDTO struct {
	Quantity int `json:"quantity"`
}

type ReplaceCartRequestDTO struct {
	Lines []ReplaceLineDTO `json:"lines"`
}

type ReplaceLineDTO struct {
	Key         string            `json:"key"`
	ProductID   int64             `json:"product_id"`
	VariationID int64             `json:"variation_id,omitempty"`
	Attributes  map[string]string `json:"attributes,omitempty"`
	Quantity    int               `json:"quantity"`
	UnitPrice   string            `json:"unit_price"`
	GroupToken  string            `json:"group_token,omitempty"`
	Kit         *TierSnapshotDTO  `json:"kit,omitempty"`
}

type TierSnapshotDTO struct {
	Quantity  int    `json:"quantity"`
	Price     string `json:"price"`
	BadgeText string `json:"badge_text,omitempty"`
}

type CartResponseDTO struct {
	Cart    *domain.Cart    `json:"cart"`
	Notices []domain.Notice `json:"notices,omitempty"`
}

func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	sessionID := getSessionID(r.Context())
	if sessionID == "" {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing session")
		return
	}

	cart, err := h.cart.GetCart(ctx, sessionID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, CartResponseDTO{Cart: cart})
}

func (h *CartHandler) AddKit(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	sessionID := getSessionID(r.Context())
	if sessionID == "" {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing session")
		return
	}

	var req AddKitRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.ProductID <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id must be positive")
		return
	}
	if req.Quantity <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_quantity", "quantity must be positive")
		return
	}

	addReq := service.AddKitRequest{
		ProductID: req.ProductID,
		Quantity:  req.Quantity,
	}
	for _, v := range req.Variations {
		addReq.Variations = append(addReq.Variations, service.VariationSelection{
			VariationID: v.VariationID,
			Attributes:  v.Attributes,
		})
	}

	cart, err := h.cart.AddKit(ctx, sessionID, addReq)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, CartResponseDTO{Cart: cart})
}

func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	sessionID := getSessionID(r.Context())
	if sessionID == "" {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing session")
		return
	}
	lineKey := chi.URLParam(r, "lineKey")

	var req UpdateQuantityRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	cart, err := h.cart.UpdateLineQuantity(ctx, sessionID, lineKey, req.Quantity)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, CartResponseDTO{Cart: cart})
}

func (h *CartHandler) RemoveLine(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	sessionID := getSessionID(r.Context())
	if sessionID == "" {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing session")
		return
	}
	lineKey := chi.URLParam(r, "lineKey")

	cart, notices, err := h.cart.RemoveLine(ctx, sessionID, lineKey)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, CartResponseDTO{Cart: cart, Notices: notices.All()})
}

// ReplaceCart swaps the whole cart contents and reports any rolled-back
// kit mutations through notices.
func (h *CartHandler) ReplaceCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	sessionID := getSessionID(r.Context())
	if sessionID == "" {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing session")
		return
	}

	var req ReplaceCartRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	lines, err := linesFromDTO(req.Lines)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	cart, notices, errReplace := h.cart.ReplaceCart(ctx, sessionID, lines)
	if errReplace != nil {
		handleServiceError(w, errReplace)
		return
	}

	respondJSON(w, http.StatusOK, CartResponseDTO{Cart: cart, Notices: notices.All()})
}

func linesFromDTO(dtos []ReplaceLineDTO) ([]domain.CartLine, error) {
	lines := make([]domain.CartLine, 0, len(dtos))
	for _, dto := range dtos {
		if dto.Quantity <= 0 {
			return nil, service.ErrInvalidQuantity
		}
		unitPrice, err := decimal.NewFromString(dto.UnitPrice)
		if err != nil {
			return nil, err
		}
		line := domain.CartLine{
			Key:         dto.Key,
			ProductID:   dto.ProductID,
			VariationID: dto.VariationID,
			Attributes:  dto.Attributes,
			Quantity:    dto.Quantity,
			UnitPrice:   unitPrice,
			GroupToken:  dto.GroupToken,
			AddedAt:     time.Now(),
		}
		if dto.Kit != nil {
			price, err := decimal.NewFromString(dto.Kit.Price)
			if err != nil {
				return nil, err
			}
			line.Kit = &domain.TierSnapshot{
				Quantity:  dto.Kit.Quantity,
				Price:     price,
				BadgeText: dto.Kit.BadgeText,
			}
		}
		lines = append(lines, line)
	}
	return lines, nil
}
