package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/leoviajar/wc-upsell/internal/domain"
)

type checkoutAPIMock struct {
	cart    *domain.Cart
	notices *domain.NoticeList
	err     error
}

func (c checkoutAPIMock) GetCart(ctx context.Context, sessionID string) (*domain.Cart, error) {
	if c.err != nil {
		return nil, c.err
	}
	return c.cart, nil
}

func (c checkoutAPIMock) ValidateCheckout(ctx context.Context, cart *domain.Cart) *domain.NoticeList {
	if c.notices != nil {
		return c.notices
	}
	return &domain.NoticeList{}
}

func TestValidate_CartOK(t *testing.T) {
	handler := NewCheckoutHandler(checkoutAPIMock{cart: sampleCart()}, 5*time.Second)

	recorder := httptest.NewRecorder()
	request := withSession(httptest.NewRequest("POST", "/checkout/validate", nil))

	handler.Validate(recorder, request)

	if recorder.Code != http.StatusOK {
		t.Errorf("Expected status code %d, got %d", http.StatusOK, recorder.Code)
	}

	var response ValidateCheckoutResponseDTO
	if err := json.NewDecoder(recorder.Body).Decode(&response); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if !response.Valid {
		t.Error("Expected valid checkout")
	}
}

func TestValidate_BlockingNotice(t *testing.T) {
	notices := &domain.NoticeList{}
	notices.Add(domain.Notice{Code: "kit_minimum_quantity", Message: "below minimum", Blocking: true})

	handler := NewCheckoutHandler(checkoutAPIMock{cart: sampleCart(), notices: notices}, 5*time.Second)

	recorder := httptest.NewRecorder()
	request := withSession(httptest.NewRequest("POST", "/checkout/validate", nil))

	handler.Validate(recorder, request)

	if recorder.Code != http.StatusConflict {
		t.Errorf("Expected status code %d, got %d", http.StatusConflict, recorder.Code)
	}

	var response ValidateCheckoutResponseDTO
	if err := json.NewDecoder(recorder.Body).Decode(&response); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if response.Valid {
		t.Error("Expected invalid checkout")
	}
	if len(response.Notices) != 1 || response.Notices[0].Code != "kit_minimum_quantity" {
		t.Errorf("Expected a 'kit_minimum_quantity' notice, got %+v", response.Notices)
	}
}

func TestValidate_Unauthorized(t *testing.T) {
	handler := NewCheckoutHandler(checkoutAPIMock{}, 5*time.Second)

	recorder := httptest.NewRecorder()
	request := httptest.NewRequest("POST", "/checkout/validate", nil)
	// No session in context

	handler.Validate(recorder, request)

	if recorder.Code != http.StatusUnauthorized {
		t.Errorf("Expected status code %d, got %d", http.StatusUnauthorized, recorder.Code)
	}
}
