package service

import "errors"

var (
	ErrInvalidQuantity = errors.New("quantity must be greater than zero")
	ErrInvalidPrice    = errors.New("price cannot be negative")
	ErrTierNotFound    = errors.New("kit tier not found")
	ErrLineNotFound    = errors.New("cart line not found")
	ErrBelowMinimum    = errors.New("kit quantity cannot go below the minimum for this product")
	ErrVariationCount  = errors.New("variation selections must match the kit quantity")
)
