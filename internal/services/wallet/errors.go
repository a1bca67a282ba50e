package wallet

import domain "coursepay/internal/errors"

// Service errors, re-exported from the domain taxonomy so callers can match
// on them without importing two packages.
var (
	ErrAccountNotFound     = domain.ErrAccountNotFound
	ErrAccountExists       = domain.ErrAccountExists
	ErrAccountInactive     = domain.ErrAccountInactive
	ErrAccountFrozen       = domain.ErrAccountFrozen
	ErrInsufficientBalance = domain.ErrInsufficientBalance
	ErrInvalidAmount       = domain.ErrInvalidAmount
	ErrUnsupportedCurrency = domain.ErrUnsupportedCurrency
	ErrUnavailable         = domain.ErrUnavailable
	ErrConsistency         = domain.ErrConsistency
)
