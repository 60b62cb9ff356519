package service

import (
	"context"
	"testing"
	"time"

	"github.com/loancollect/ldts/internal/ldts/domain"
	"github.com/loancollect/ldts/internal/ldts/store/drivers/sqlite"
	"github.com/loancollect/ldts/pkg/cryptox"
	"github.com/loancollect/ldts/pkg/idx"
	"github.com/stretchr/testify/require"
)

func newTestOtp(t *testing.T) (*OtpService, *testClock, string) {
	t.Helper()

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())

	now := time.Now()
	principal := domain.Principal{
		ID:           idx.New().String(),
		Firstname:    "Test",
		Lastname:     "Principal",
		Email:        "otp@gmail.com",
		PasswordHash: "unused",
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	require.NoError(t, st.Principals().CreatePrincipal(context.Background(), principal))

	clock := &testClock{now: now}
	return &OtpService{Store: st, Now: clock.Now}, clock, principal.ID
}

func TestOtpRoundTrip(t *testing.T) {
	otp, clock, principalID := newTestOtp(t)
	ctx := context.Background()

	code, err := otp.Issue(ctx, principalID)
	require.NoError(t, err)
	require.Len(t, code, OtpDigits)

	t.Run("correct code verifies", func(t *testing.T) {
		ok, err := otp.Verify(ctx, principalID, code)
		require.NoError(t, err)
		require.True(t, ok)
	})

	t.Run("wrong code fails without consuming", func(t *testing.T) {
		wrong := "000000"
		if wrong == code {
			wrong = "000001"
		}
		ok, err := otp.Verify(ctx, principalID, wrong)
		require.NoError(t, err)
		require.False(t, ok)

		ok, err = otp.Verify(ctx, principalID, code)
		require.NoError(t, err)
		require.True(t, ok)
	})

	t.Run("correct code fails after the window", func(t *testing.T) {
		clock.advance(OtpTTL + time.Second)
		ok, err := otp.Verify(ctx, principalID, code)
		require.NoError(t, err)
		require.False(t, ok)
	})
}

func TestOtpSingleActiveCode(t *testing.T) {
	otp, _, principalID := newTestOtp(t)
	ctx := context.Background()

	first, err := otp.Issue(ctx, principalID)
	require.NoError(t, err)
	second, err := otp.Issue(ctx, principalID)
	require.NoError(t, err)

	// Issuing again deactivated the first code even if the digits differ.
	if first != second {
		ok, err := otp.Verify(ctx, principalID, first)
		require.NoError(t, err)
		require.False(t, ok)
	}

	ok, err := otp.Verify(ctx, principalID, second)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestOtpConsumeReleasesSlot(t *testing.T) {
	otp, _, principalID := newTestOtp(t)
	ctx := context.Background()

	code, err := otp.Issue(ctx, principalID)
	require.NoError(t, err)
	require.NoError(t, otp.Consume(ctx, principalID))

	ok, err := otp.Verify(ctx, principalID, code)
	require.NoError(t, err)
	require.False(t, ok)

	// A fresh issue is allowed immediately after consumption.
	require.NoError(t, otp.ResendGuard(ctx, principalID))
}

func TestOtpResendGuard(t *testing.T) {
	otp, clock, principalID := newTestOtp(t)
	ctx := context.Background()

	t.Run("no code means no wait", func(t *testing.T) {
		require.NoError(t, otp.ResendGuard(ctx, principalID))
	})

	t.Run("live code reports remaining wait", func(t *testing.T) {
		_, err := otp.Issue(ctx, principalID)
		require.NoError(t, err)

		clock.advance(2 * time.Minute)

		err = otp.ResendGuard(ctx, principalID)
		var rl *RateLimitedError
		require.ErrorAs(t, err, &rl)
		require.Equal(t, OtpTTL-2*time.Minute, rl.Wait)
	})

	t.Run("lapsed code allows re-issue", func(t *testing.T) {
		clock.advance(OtpTTL)
		require.NoError(t, otp.ResendGuard(ctx, principalID))
	})
}

func TestGenerateNumericCodeShape(t *testing.T) {
	t.Parallel()

	for range 50 {
		code, err := cryptox.GenerateNumericCode(OtpDigits)
		require.NoError(t, err)
		require.Len(t, code, OtpDigits)
		for _, c := range code {
			require.True(t, c >= '0' && c <= '9')
		}
	}
}
