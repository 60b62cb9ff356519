package service

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrInvalidCredentials is returned uniformly for unknown email and wrong
	// password so callers cannot enumerate accounts.
	ErrInvalidCredentials = errors.New("invalid_credentials")

	// ErrInvalidOrExpiredOtp covers both a wrong code and a lapsed window.
	// The two failure modes are never distinguished to the caller.
	ErrInvalidOrExpiredOtp = errors.New("invalid_or_expired_otp")

	// ErrPasswordChangeRequired means a temporary password is still active
	// and login must supply a replacement.
	ErrPasswordChangeRequired = errors.New("password_change_required")

	ErrWeakPassword   = errors.New("weak_password")
	ErrDuplicateEmail = errors.New("duplicate_email")

	ErrTokenNotFound = errors.New("refresh_token_not_found")
	ErrTokenExpired  = errors.New("refresh_token_expired")

	// ErrTokenMismatch means the presented refresh token exists but is no
	// longer the principal's current session token (superseded by a later
	// login or revoked by logout).
	ErrTokenMismatch = errors.New("refresh_token_mismatch")

	ErrForbidden = errors.New("forbidden")

	// ErrStoreUnavailable wraps collaborator failures. It is surfaced as a
	// generic server error and never retried transparently.
	ErrStoreUnavailable = errors.New("store_unavailable")
)

// ValidationError reports malformed or missing caller input. No state changes
// when one is returned.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func validationErrorf(format string, args ...any) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// RateLimitedError is returned when an OTP resend is requested while an
// earlier code is still live. Wait is the time until that code lapses.
type RateLimitedError struct {
	Wait time.Duration
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("rate_limited: retry in %ds", int(e.Wait.Seconds()))
}

func storeErr(err error) error {
	return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
}
