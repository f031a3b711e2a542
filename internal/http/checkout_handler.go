package http

import (
	"context"
	"net/http"
	"time"

	"github.com/leoviajar/wc-upsell/internal/domain"
)

// CheckoutAPI is the checkout validation surface the handler depends on.
type CheckoutAPI interface {
	GetCart(ctx context.Context, sessionID string) (*domain.Cart, error)
	ValidateCheckout(ctx context.Context, cart *domain.Cart) *domain.NoticeList
}

type CheckoutHandler struct {
	cart    CheckoutAPI
	timeout time.Duration
}

func NewCheckoutHandler(cart CheckoutAPI, timeout time.Duration) *CheckoutHandler {
	return &CheckoutHandler{
		cart:    cart,
		timeout: timeout,
	}
}

type ValidateCheckoutResponseDTO struct {
	Valid   bool            `json:"valid"`
	Notices []domain.Notice `json:"notices,omitempty"`
}

// Validate runs checkout-time validation over the session's cart. Any
// blocking notice means checkout cannot proceed.
func (h *CheckoutHandler) Validate(w http.ResponseWriter, r *http.Request) {
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

	notices := h.cart.ValidateCheckout(ctx, cart)
	resp := ValidateCheckoutResponseDTO{
		Valid:   !notices.HasBlocking(),
		Notices: notices.All(),
	}

	status := http.StatusOK
	if !resp.Valid {
		status = http.StatusConflict
	}
	respondJSON(w, status, resp)
}
