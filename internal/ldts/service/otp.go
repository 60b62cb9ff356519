package service

import (
	"context"
	"errors"
	"time"

	"github.com/loancollect/ldts/internal/ldts/domain"
	"github.com/loancollect/ldts/internal/ldts/store"
	"github.com/loancollect/ldts/pkg/cryptox"
	"github.com/loancollect/ldts/pkg/idx"
)

const (
	// OtpDigits is the code length. Leading zeros are preserved, so the code
	// space is the full 000000-999999 range.
	OtpDigits = 6

	// OtpTTL is the verification window. Expiry is checked lazily at verify
	// time; nothing sweeps stale codes.
	OtpTTL = 5 * time.Minute
)

// OtpService generates, verifies and consumes login one-time codes. At most
// one active code exists per principal at any time.
type OtpService struct {
	Store store.Store

	// Now is the clock. Overridable in tests; defaults to time.Now.
	Now func() time.Time
}

func (s *OtpService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Issue creates a fresh code for the principal, deactivating any predecessor
// in the same transaction so two concurrent issuances cannot leave two live
// codes. Returns the plaintext code for the mail dispatch.
func (s *OtpService) Issue(ctx context.Context, principalID string) (string, error) {
	code, err := cryptox.GenerateNumericCode(OtpDigits)
	if err != nil {
		return "", err
	}

	now := s.now()
	otp := domain.OTP{
		ID:          idx.New().String(),
		PrincipalID: principalID,
		Code:        code,
		ExpiresAt:   now.Add(OtpTTL),
		Active:      true,
		CreatedAt:   now,
	}

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Otps().DeactivateOtps(ctx, principalID); err != nil {
			return err
		}
		return tx.Otps().CreateOtp(ctx, otp)
	})
	if err != nil {
		return "", storeErr(err)
	}
	return code, nil
}

// Verify checks the presented code against the active one. It fails closed:
// no active code, a wrong code and a lapsed window all return false. Failed
// attempts do not consume the code, so retry within the window is allowed.
func (s *OtpService) Verify(ctx context.Context, principalID, code string) (bool, error) {
	active, err := s.Store.Otps().GetActiveOtp(ctx, principalID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return false, nil
		}
		return false, storeErr(err)
	}

	if active.Expired(s.now()) {
		return false, nil
	}
	return active.Code == code, nil
}

// Consume deactivates the principal's active code, releasing the slot.
func (s *OtpService) Consume(ctx context.Context, principalID string) error {
	if err := s.Store.Otps().DeactivateOtps(ctx, principalID); err != nil {
		return storeErr(err)
	}
	return nil
}

// ResendGuard rejects re-issuance while an unexpired code is still live,
// reporting how long the caller must wait. A missing or expired code allows
// a fresh issue.
func (s *OtpService) ResendGuard(ctx context.Context, principalID string) error {
	active, err := s.Store.Otps().GetActiveOtp(ctx, principalID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		return storeErr(err)
	}

	now := s.now()
	if active.Expired(now) {
		return nil
	}
	return &RateLimitedError{Wait: active.ExpiresAt.Sub(now)}
}
