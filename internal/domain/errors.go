package domain

import "errors"

// Business-rule failures surfaced to callers as distinct outcomes. Services
// wrap these with fmt.Errorf("%w: ...") and handlers map them to HTTP codes
// with errors.Is. Storage failures are never translated into any of these.
var (
	ErrDuplicateIdentity  = errors.New("duplicate identity")
	ErrValidationFailed   = errors.New("validation failed")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTokenExpired       = errors.New("token expired")
	ErrAccountNotUsable   = errors.New("account not usable")
	ErrNotFound           = errors.New("not found")
)
