package jwtx

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// Signer signs access-token claims with Ed25519. A single signing key is
// sufficient here; the refresh side of the session model is opaque and
// store-backed, so key rotation just means restarting with a new key and
// letting short-lived access tokens lapse.
type Signer struct {
	key ed25519.PrivateKey
	pub ed25519.PublicKey
}

// NewSigner loads an Ed25519 private key from PEM bytes (PKCS8).
func NewSigner(pemKey []byte) (*Signer, error) {
	block, _ := pem.Decode(pemKey)
	if block == nil {
		return nil, errors.New("jwtx: invalid PEM for Ed25519 key")
	}
	if block.Type != "PRIVATE KEY" {
		return nil, fmt.Errorf("jwtx: expected PRIVATE KEY, got %q (Ed25519 requires PKCS8)", block.Type)
	}

	priv, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("jwtx: parse PKCS8: %w", err)
	}

	key, ok := priv.(ed25519.PrivateKey)
	if !ok {
		return nil, errors.New("jwtx: not Ed25519 private key")
	}

	return &Signer{key: key, pub: key.Public().(ed25519.PublicKey)}, nil
}

// NewEphemeralSigner generates a throwaway Ed25519 keypair. Outstanding
// access tokens do not survive a process restart in this mode.
func NewEphemeralSigner() (*Signer, error) {
	_, key, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("jwtx: generate Ed25519 key: %w", err)
	}
	return &Signer{key: key, pub: key.Public().(ed25519.PublicKey)}, nil
}

// Sign takes claims and turns them into a signed JWT string.
func (s *Signer) Sign(claims Claims) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims).SignedString(s.key)
}

// Public returns the verification key for this signer.
func (s *Signer) Public() ed25519.PublicKey { return s.pub }
