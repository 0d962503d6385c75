package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for domain-level error discrimination. Services wrap these
// so handlers can map them to the client-facing error codes without leaking
// infrastructure details.
var (
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrBadRequest   = errors.New("bad request")

	// sendAuthCode failures
	ErrNoEmail         = errors.New("no email")
	ErrNotRegistered   = errors.New("not registered")
	ErrAccessDenied    = errors.New("access denied")
	ErrAccessPending   = errors.New("access pending")
	ErrRateLimited     = errors.New("rate limited")
	ErrTooManyRequests = errors.New("too many requests")
	ErrEmailFailed     = errors.New("email failed")

	// verifyAuthCode failures
	ErrMissingInput = errors.New("missing input")
	ErrMaxAttempts  = errors.New("max attempts")
	ErrInvalidCode  = errors.New("invalid code")
	ErrCodeExpired  = errors.New("code expired")
)

// InvalidCodeError reports a wrong code along with how many attempts remain
// before the record is locked. errors.Is(err, ErrInvalidCode) holds.
type InvalidCodeError struct {
	AttemptsLeft int
}

func (e *InvalidCodeError) Error() string {
	return fmt.Sprintf("invalid code (%d attempts left)", e.AttemptsLeft)
}

func (e *InvalidCodeError) Is(target error) bool { return target == ErrInvalidCode }

// ErrorCode maps a service error to the wire-level error code understood by
// the dashboard frontend. Unknown errors collapse to SYSTEM_ERROR so raw
// details never reach the client.
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrNoEmail):
		return "NO_EMAIL"
	case errors.Is(err, ErrNotRegistered):
		return "NOT_REGISTERED"
	case errors.Is(err, ErrAccessDenied):
		return "ACCESS_DENIED"
	case errors.Is(err, ErrAccessPending):
		return "ACCESS_PENDING"
	case errors.Is(err, ErrRateLimited):
		return "RATE_LIMITED"
	case errors.Is(err, ErrTooManyRequests):
		return "TOO_MANY_REQUESTS"
	case errors.Is(err, ErrEmailFailed):
		return "EMAIL_FAILED"
	case errors.Is(err, ErrMissingInput):
		return "MISSING_INPUT"
	case errors.Is(err, ErrMaxAttempts):
		return "MAX_ATTEMPTS"
	case errors.Is(err, ErrInvalidCode):
		return "INVALID_CODE"
	case errors.Is(err, ErrCodeExpired):
		return "CODE_EXPIRED"
	default:
		return "SYSTEM_ERROR"
	}
}
