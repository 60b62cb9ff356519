package service

import (
	"context"
	"errors"
	"time"

	"github.com/loancollect/ldts/internal/ldts/domain"
	"github.com/loancollect/ldts/internal/ldts/store"
	"github.com/loancollect/ldts/pkg/cryptox"
	"github.com/loancollect/ldts/pkg/idx"
	"github.com/loancollect/ldts/pkg/jwtx"
)

// TokenService mints signed access tokens and manages opaque refresh tokens.
// Refresh tokens are persisted only as SHA-256 fingerprints; the raw value
// exists solely in the response to the client.
type TokenService struct {
	Signer     *jwtx.Signer
	Store      store.Store
	Issuer     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration

	// Now is the clock. Overridable in tests; defaults to time.Now.
	Now func() time.Time
}

func (s *TokenService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *TokenService) accessTTL() time.Duration {
	if s.AccessTTL > 0 {
		return s.AccessTTL
	}
	return jwtx.DefaultAccessTokenTTL
}

func (s *TokenService) refreshTTL() time.Duration {
	if s.RefreshTTL > 0 {
		return s.RefreshTTL
	}
	return jwtx.DefaultRefreshTokenTTL
}

// IssueSession mints an access/refresh pair for a freshly verified principal.
// The stored refresh token replaces any prior one in the same transaction,
// so a new login invalidates a concurrently held older session. Last login
// wins; one active session per principal.
func (s *TokenService) IssueSession(ctx context.Context, p domain.Principal) (access, refresh string, err error) {
	now := s.now()

	claims := jwtx.NewAccessClaims(p.ID, p.Email, p.UserType, s.accessTTL(), s.Issuer, now)
	access, err = s.Signer.Sign(claims)
	if err != nil {
		return "", "", err
	}

	refresh, err = cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return "", "", err
	}

	record := domain.RefreshToken{
		ID:          idx.New().String(),
		PrincipalID: p.ID,
		TokenHash:   cryptox.FingerprintToken(refresh),
		ExpiresAt:   now.Add(s.refreshTTL()),
		Active:      true,
		CreatedAt:   now,
	}

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.RefreshTokens().DeactivateRefreshTokens(ctx, p.ID); err != nil {
			return err
		}
		return tx.RefreshTokens().CreateRefreshToken(ctx, record)
	})
	if err != nil {
		return "", "", storeErr(err)
	}
	return access, refresh, nil
}

// Rotate exchanges a refresh token for a new access token. The refresh token
// itself is not rotated; the session model is sliding access, static refresh.
func (s *TokenService) Rotate(ctx context.Context, refreshToken string) (string, error) {
	hash := cryptox.FingerprintToken(refreshToken)

	record, err := s.Store.RefreshTokens().GetRefreshTokenByHash(ctx, hash)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", ErrTokenNotFound
		}
		return "", storeErr(err)
	}

	if s.now().After(record.ExpiresAt) {
		return "", ErrTokenExpired
	}
	if !record.Active {
		// The row exists but was superseded by a later login or a logout.
		// Stale-token replay gets its own error kind.
		return "", ErrTokenMismatch
	}

	p, err := s.Store.Principals().GetPrincipalByID(ctx, record.PrincipalID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", ErrTokenNotFound
		}
		return "", storeErr(err)
	}

	claims := jwtx.NewAccessClaims(p.ID, p.Email, p.UserType, s.accessTTL(), s.Issuer, s.now())
	return s.Signer.Sign(claims)
}

// Revoke deactivates the principal's refresh token and OTP state. Used on
// logout.
func (s *TokenService) Revoke(ctx context.Context, principalID string) error {
	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.RefreshTokens().DeactivateRefreshTokens(ctx, principalID); err != nil {
			return err
		}
		return tx.Otps().DeactivateOtps(ctx, principalID)
	})
	if err != nil {
		return storeErr(err)
	}
	return nil
}
