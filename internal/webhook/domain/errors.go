package domain

import "errors"

var (
	ErrInvalidSignature      = errors.New("webhook: invalid signature")
	ErrInvalidPayload        = errors.New("webhook: invalid payload")
	ErrEventAlreadyProcessed = errors.New("webhook: event already processed")
)
