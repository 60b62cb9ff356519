package domain

import "time"

// OTP is an ephemeral login challenge. At most one active code exists per
// principal; issuance deactivates any predecessor.
type OTP struct {
	ID          string
	PrincipalID string
	Code        string // 6 decimal digits, leading zeros preserved
	ExpiresAt   time.Time
	Active      bool
	CreatedAt   time.Time
}

// Expired reports whether the code's window has lapsed at the given instant.
// Expiry is checked lazily here; nothing sweeps codes proactively.
func (o OTP) Expired(now time.Time) bool {
	return now.After(o.ExpiresAt)
}
