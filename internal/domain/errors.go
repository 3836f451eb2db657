package domain

import "errors"

// Sentinel errors for domain-level error discrimination.
// Services wrap these so the dispatcher can map failures to user-facing
// messages without leaking infrastructure details.
var (
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrBadRequest   = errors.New("bad request")
	ErrValidation   = errors.New("validation failed")
	ErrUnavailable  = errors.New("upstream unavailable")
)

// Retryable is the shared retry predicate for outbound calls: client
// mistakes (bad request, validation) are final, everything else — timeouts,
// 5xx, network errors — may be transient.
func Retryable(err error) bool {
	return !errors.Is(err, ErrBadRequest) && !errors.Is(err, ErrValidation)
}
