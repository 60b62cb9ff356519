package domain

import "time"

// RefreshToken models the stored refresh token record. The raw token is
// opaque to clients and only its SHA-256 fingerprint is persisted.
type RefreshToken struct {
	ID          string
	PrincipalID string
	TokenHash   string // deterministic fingerprint (base64url SHA-256)
	ExpiresAt   time.Time
	Active      bool
	CreatedAt   time.Time
}

// SessionPayload is returned on successful OTP verification: everything the
// client needs to act on behalf of the principal.
type SessionPayload struct {
	AccessToken  string        `json:"accessToken"`
	RefreshToken string        `json:"refreshToken"`
	Principal    Profile       `json:"user"`
	Permissions  PermissionSet `json:"permissions"`
	Scope        Scope         `json:"scope"`

	// MailWarning is set when the session was established but a notification
	// could not be delivered. State is never rolled back for mail failures.
	MailWarning string `json:"mailWarning,omitempty"`
}
