// Package errors defines the closed set of domain error variants the wallet
// exposes. Every error carries a stable machine-readable code so callers can
// distinguish expected business outcomes from system failures.
package errors

import "errors"

// DomainError is a business-rule failure with a stable code. Domain errors
// are deterministic given current state and must never be retried.
type DomainError struct {
	Code    string
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

// As unwraps err into a *DomainError if one is in the chain.
func As(err error) (*DomainError, bool) {
	var derr *DomainError
	if errors.As(err, &derr) {
		return derr, true
	}
	return nil, false
}

// CodeOf returns the domain code of err, or empty when err is not a domain
// error.
func CodeOf(err error) string {
	if derr, ok := As(err); ok {
		return derr.Code
	}
	return ""
}
