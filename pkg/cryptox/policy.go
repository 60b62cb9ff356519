package cryptox

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"unicode"
)

// tempPasswordBytes is the entropy behind a generated temporary password.
// Hex-encoded, so the issued credential is twice this many characters.
const tempPasswordBytes = 12

// ValidatePasswordStrength reports whether a candidate password satisfies the
// policy: at least 8 characters with at least one lowercase letter, one
// uppercase letter and one digit. The candidate is never truncated or
// normalised; it either passes as supplied or fails.
func ValidatePasswordStrength(candidate string) bool {
	if len(candidate) < 8 {
		return false
	}

	var hasLower, hasUpper, hasDigit bool
	for _, r := range candidate {
		switch {
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	return hasLower && hasUpper && hasDigit
}

// GenerateTempPassword returns a fresh temporary password built from
// cryptographic randomness. It carries no relation to any principal
// attribute, so it cannot be predicted from profile data.
func GenerateTempPassword() (string, error) {
	buf := make([]byte, tempPasswordBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate temporary password: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
