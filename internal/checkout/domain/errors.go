package domain

import "errors"

var (
	ErrInvalidRequest = errors.New("invalid_checkout_request")
	ErrProcessor      = errors.New("processor_error")
)
