package domain

import "errors"

var (
	ErrNotFound          = errors.New("order_not_found")
	ErrInvalidTransition = errors.New("order_invalid_transition")
	ErrEmptyOrder        = errors.New("order_empty")
)
