package domain

import "errors"

var (
	ErrNotFound           = errors.New("tenant_not_found")
	ErrMerchantNotPayable = errors.New("merchant_not_payable")
	ErrInvalidAccount     = errors.New("invalid_payment_account")
)
