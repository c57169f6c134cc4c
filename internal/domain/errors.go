package domain

import "errors"

// Sentinel errors for domain-level error discrimination.
// Services wrap these so handlers can map to HTTP status codes without leaking infrastructure details.
var (
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrBadRequest   = errors.New("bad request")

	// Verification-specific errors are kept distinct so clients can
	// prompt "resend" (expired) vs "retype" (wrong or already used).
	ErrInvalidCode    = errors.New("invalid code")
	ErrCodeExpired    = errors.New("code expired")
	ErrDeliveryFailed = errors.New("delivery failed")
)
