package domain

import "errors"

var (
	ErrEmptyCart        = errors.New("invalid_cart_empty")
	ErrInvalidQuantity  = errors.New("invalid_cart_quantity")
	ErrProductNotFound  = errors.New("invalid_cart_product")
	ErrProductInactive  = errors.New("invalid_cart_product_inactive")
	ErrCurrencyMismatch = errors.New("invalid_cart_currency")
)
