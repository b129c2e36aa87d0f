package domain

import "errors"

var (
	ErrNotFound           = errors.New("not found")
	ErrValidation         = errors.New("validation failed")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrSlotUnavailable    = errors.New("slot is not offered by provider")
	ErrSlotTaken          = errors.New("slot already booked")
	ErrInvalidTransition  = errors.New("invalid state transition")
	ErrPaymentFailed      = errors.New("payment authorization failed")
	ErrRateLimited        = errors.New("rate limited")
	ErrInsightUnavailable = errors.New("insight generation unavailable")
)
