package service

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/loancollect/ldts/internal/ldts/domain"
	"github.com/loancollect/ldts/internal/ldts/store/drivers/sqlite"
	"github.com/loancollect/ldts/pkg/cryptox"
	"github.com/loancollect/ldts/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

// fakeNotifier captures outbound mail so tests can read the plaintext
// credentials that real deployments only ever see in an inbox.
type fakeNotifier struct {
	tempPasswords map[string]string
	otps          map[string]string
	fail          bool
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{
		tempPasswords: make(map[string]string),
		otps:          make(map[string]string),
	}
}

func (n *fakeNotifier) SendTempPassword(_ context.Context, to, _, tempPassword string) error {
	if n.fail {
		return errors.New("smtp unavailable")
	}
	n.tempPasswords[to] = tempPassword
	return nil
}

func (n *fakeNotifier) SendOtp(_ context.Context, to, _, code string) error {
	if n.fail {
		return errors.New("smtp unavailable")
	}
	n.otps[to] = code
	return nil
}

// testClock lets tests move time forward past OTP and token windows.
type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time { return c.now }

func (c *testClock) advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestAuth(t *testing.T) (*AuthService, *fakeNotifier, *testClock) {
	t.Helper()

	cryptox.SetPepperPath(filepath.Join(t.TempDir(), "pepper"))

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())

	signer, err := jwtx.NewEphemeralSigner()
	require.NoError(t, err)

	clock := &testClock{now: time.Now()}
	otp := &OtpService{Store: st, Now: clock.Now}
	tokens := &TokenService{
		Signer: signer,
		Store:  st,
		Issuer: "ldts-test",
		Now:    clock.Now,
	}
	notifier := newFakeNotifier()

	auth := &AuthService{
		Store:    st,
		Otp:      otp,
		Tokens:   tokens,
		Notifier: notifier,
		Now:      clock.Now,
	}
	return auth, notifier, clock
}

func register(t *testing.T, auth *AuthService, notifier *fakeNotifier, req RegisterRequest) string {
	t.Helper()
	res, err := auth.Register(context.Background(), req)
	require.NoError(t, err)
	require.NotEmpty(t, res.PrincipalID)
	require.NotEmpty(t, notifier.tempPasswords[req.Email])
	return res.PrincipalID
}

func TestRegisterValidation(t *testing.T) {
	auth, _, _ := newTestAuth(t)
	ctx := context.Background()

	t.Run("requires name and email", func(t *testing.T) {
		_, err := auth.Register(ctx, RegisterRequest{Firstname: "Jane"})
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
	})

	t.Run("rejects domains outside the allow list", func(t *testing.T) {
		_, err := auth.Register(ctx, RegisterRequest{
			Firstname: "Jane", Lastname: "Doe", Email: "jane@example.com",
		})
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
	})

	t.Run("rejects unknown userType and role", func(t *testing.T) {
		_, err := auth.Register(ctx, RegisterRequest{
			Firstname: "Jane", Lastname: "Doe", Email: "jane@gmail.com", UserType: "ROOT",
		})
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)

		_, err = auth.Register(ctx, RegisterRequest{
			Firstname: "Jane", Lastname: "Doe", Email: "jane@gmail.com", Role: "KING",
		})
		require.ErrorAs(t, err, &verr)
	})

	t.Run("rejects duplicate email", func(t *testing.T) {
		req := RegisterRequest{Firstname: "Jane", Lastname: "Doe", Email: "dup@gmail.com"}
		_, err := auth.Register(ctx, req)
		require.NoError(t, err)

		_, err = auth.Register(ctx, req)
		require.ErrorIs(t, err, ErrDuplicateEmail)
	})
}

func TestRegisterMailFailureIsWarningOnly(t *testing.T) {
	auth, notifier, _ := newTestAuth(t)
	notifier.fail = true

	res, err := auth.Register(context.Background(), RegisterRequest{
		Firstname: "Jane", Lastname: "Doe", Email: "jane@gmail.com",
	})
	require.NoError(t, err)
	require.NotEmpty(t, res.MailWarning)

	// The principal exists despite the failed dispatch.
	_, err = auth.Store.Principals().GetPrincipalByEmail(context.Background(), "jane@gmail.com")
	require.NoError(t, err)
}

func TestLoginTemporaryPasswordFlow(t *testing.T) {
	auth, notifier, _ := newTestAuth(t)
	ctx := context.Background()

	register(t, auth, notifier, RegisterRequest{
		Firstname: "Jane", Lastname: "Doe", Email: "jane@gmail.com",
	})
	tempPassword := notifier.tempPasswords["jane@gmail.com"]

	t.Run("temp password without replacement is blocked", func(t *testing.T) {
		_, err := auth.Login(ctx, "jane@gmail.com", tempPassword, "")
		require.ErrorIs(t, err, ErrPasswordChangeRequired)
		require.Empty(t, notifier.otps["jane@gmail.com"])
	})

	t.Run("weak replacement is rejected", func(t *testing.T) {
		_, err := auth.Login(ctx, "jane@gmail.com", tempPassword, "short1A")
		require.ErrorIs(t, err, ErrWeakPassword)
	})

	t.Run("strong replacement applies and issues otp", func(t *testing.T) {
		res, err := auth.Login(ctx, "jane@gmail.com", tempPassword, "Abcdef12")
		require.NoError(t, err)
		require.True(t, res.OtpSent)
		require.Len(t, notifier.otps["jane@gmail.com"], OtpDigits)
	})

	t.Run("next login uses the new password", func(t *testing.T) {
		_, err := auth.Login(ctx, "jane@gmail.com", tempPassword, "")
		require.ErrorIs(t, err, ErrInvalidCredentials)

		res, err := auth.Login(ctx, "jane@gmail.com", "Abcdef12", "")
		require.NoError(t, err)
		require.True(t, res.OtpSent)
	})
}

func TestLoginUniformFailure(t *testing.T) {
	auth, notifier, _ := newTestAuth(t)
	ctx := context.Background()

	register(t, auth, notifier, RegisterRequest{
		Firstname: "Jane", Lastname: "Doe", Email: "jane@gmail.com",
	})

	_, unknownErr := auth.Login(ctx, "nobody@gmail.com", "whatever1A", "")
	_, wrongErr := auth.Login(ctx, "jane@gmail.com", "whatever1A", "")

	// Unknown email and wrong password must be indistinguishable.
	require.ErrorIs(t, unknownErr, ErrInvalidCredentials)
	require.ErrorIs(t, wrongErr, ErrInvalidCredentials)
}

// loginAndVerify walks a registered principal through the temp password
// replacement and OTP challenge, returning the established session.
func loginAndVerify(t *testing.T, auth *AuthService, notifier *fakeNotifier, email string) domain.SessionPayload {
	t.Helper()
	ctx := context.Background()

	tempPassword := notifier.tempPasswords[email]
	_, err := auth.Login(ctx, email, tempPassword, "Abcdef12")
	require.NoError(t, err)

	session, err := auth.VerifyOtp(ctx, email, notifier.otps[email])
	require.NoError(t, err)
	return session
}

func TestEndToEndDepartmentFallback(t *testing.T) {
	auth, notifier, _ := newTestAuth(t)

	register(t, auth, notifier, RegisterRequest{
		Firstname: "Jane", Lastname: "Doe", Email: "jane@gmail.com",
	})

	session := loginAndVerify(t, auth, notifier, "jane@gmail.com")

	require.NotEmpty(t, session.AccessToken)
	require.NotEmpty(t, session.RefreshToken)
	require.Equal(t, "Jane", session.Principal.Firstname)

	// No role and no department: fallback lands on the restrictive set.
	require.Equal(t, domain.ViewOnlySet(), session.Permissions)
	require.Equal(t, domain.ScopeNone, session.Scope.Level)
}

func TestVerifyOtpFailures(t *testing.T) {
	auth, notifier, clock := newTestAuth(t)
	ctx := context.Background()

	register(t, auth, notifier, RegisterRequest{
		Firstname: "Jane", Lastname: "Doe", Email: "jane@gmail.com",
	})
	tempPassword := notifier.tempPasswords["jane@gmail.com"]
	_, err := auth.Login(ctx, "jane@gmail.com", tempPassword, "Abcdef12")
	require.NoError(t, err)
	code := notifier.otps["jane@gmail.com"]

	t.Run("wrong code fails and leaves the challenge live", func(t *testing.T) {
		wrong := "000000"
		if wrong == code {
			wrong = "000001"
		}
		_, err := auth.VerifyOtp(ctx, "jane@gmail.com", wrong)
		require.ErrorIs(t, err, ErrInvalidOrExpiredOtp)

		// Retry with the right code still works within the window.
		session, err := auth.VerifyOtp(ctx, "jane@gmail.com", code)
		require.NoError(t, err)
		require.NotEmpty(t, session.AccessToken)
	})

	t.Run("consumed code cannot be replayed", func(t *testing.T) {
		_, err := auth.VerifyOtp(ctx, "jane@gmail.com", code)
		require.ErrorIs(t, err, ErrInvalidOrExpiredOtp)
	})

	t.Run("expired code fails even when correct", func(t *testing.T) {
		_, err := auth.Login(ctx, "jane@gmail.com", "Abcdef12", "")
		require.NoError(t, err)
		code := notifier.otps["jane@gmail.com"]

		clock.advance(OtpTTL + time.Second)

		_, err = auth.VerifyOtp(ctx, "jane@gmail.com", code)
		require.ErrorIs(t, err, ErrInvalidOrExpiredOtp)
	})
}

func TestRefreshRotation(t *testing.T) {
	auth, notifier, clock := newTestAuth(t)
	ctx := context.Background()

	register(t, auth, notifier, RegisterRequest{
		Firstname: "Jane", Lastname: "Doe", Email: "jane@gmail.com",
	})
	session := loginAndVerify(t, auth, notifier, "jane@gmail.com")

	t.Run("rotates access while refresh stays valid", func(t *testing.T) {
		clock.advance(time.Second)
		first, err := auth.Refresh(ctx, session.RefreshToken)
		require.NoError(t, err)
		require.NotEmpty(t, first)
		require.NotEqual(t, session.AccessToken, first)

		// Static refresh token: a second rotation with the same token works.
		clock.advance(time.Second)
		second, err := auth.Refresh(ctx, session.RefreshToken)
		require.NoError(t, err)
		require.NotEqual(t, first, second)
	})

	t.Run("unknown token is NotFound", func(t *testing.T) {
		_, err := auth.Refresh(ctx, "not-a-real-token")
		require.ErrorIs(t, err, ErrTokenNotFound)
	})

	t.Run("missing token is a validation error", func(t *testing.T) {
		_, err := auth.Refresh(ctx, "  ")
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
	})

	t.Run("new login supersedes the old session", func(t *testing.T) {
		_, err := auth.Login(ctx, "jane@gmail.com", "Abcdef12", "")
		require.NoError(t, err)
		next, err := auth.VerifyOtp(ctx, "jane@gmail.com", notifier.otps["jane@gmail.com"])
		require.NoError(t, err)

		_, err = auth.Refresh(ctx, session.RefreshToken)
		require.ErrorIs(t, err, ErrTokenMismatch)

		_, err = auth.Refresh(ctx, next.RefreshToken)
		require.NoError(t, err)
		session = next
	})

	t.Run("expired token is Expired", func(t *testing.T) {
		clock.advance(jwtx.DefaultRefreshTokenTTL + time.Hour)
		_, err := auth.Refresh(ctx, session.RefreshToken)
		require.ErrorIs(t, err, ErrTokenExpired)
	})
}

func TestLogoutRevokesSessionAndOtp(t *testing.T) {
	auth, notifier, _ := newTestAuth(t)
	ctx := context.Background()

	register(t, auth, notifier, RegisterRequest{
		Firstname: "Jane", Lastname: "Doe", Email: "jane@gmail.com",
	})
	session := loginAndVerify(t, auth, notifier, "jane@gmail.com")

	// Leave a live OTP on the account, then log out.
	_, err := auth.Login(ctx, "jane@gmail.com", "Abcdef12", "")
	require.NoError(t, err)
	code := notifier.otps["jane@gmail.com"]

	require.NoError(t, auth.Logout(ctx, "jane@gmail.com", session.RefreshToken))

	_, err = auth.Refresh(ctx, session.RefreshToken)
	require.ErrorIs(t, err, ErrTokenMismatch)

	_, err = auth.VerifyOtp(ctx, "jane@gmail.com", code)
	require.ErrorIs(t, err, ErrInvalidOrExpiredOtp)

	t.Run("stale token cannot log out twice", func(t *testing.T) {
		err := auth.Logout(ctx, "jane@gmail.com", session.RefreshToken)
		require.ErrorIs(t, err, ErrTokenMismatch)
	})

	t.Run("unknown token is rejected", func(t *testing.T) {
		err := auth.Logout(ctx, "jane@gmail.com", "never-issued")
		require.ErrorIs(t, err, ErrTokenNotFound)
	})
}

func TestResendOtpGuard(t *testing.T) {
	auth, notifier, clock := newTestAuth(t)
	ctx := context.Background()

	register(t, auth, notifier, RegisterRequest{
		Firstname: "Jane", Lastname: "Doe", Email: "jane@gmail.com",
	})
	tempPassword := notifier.tempPasswords["jane@gmail.com"]
	_, err := auth.Login(ctx, "jane@gmail.com", tempPassword, "Abcdef12")
	require.NoError(t, err)

	t.Run("resend while a code is live is rate limited", func(t *testing.T) {
		_, err := auth.ResendOtp(ctx, "jane@gmail.com")
		var rl *RateLimitedError
		require.ErrorAs(t, err, &rl)
		require.Greater(t, rl.Wait, time.Duration(0))
	})

	t.Run("resend after expiry issues a fresh code", func(t *testing.T) {
		stale := notifier.otps["jane@gmail.com"]
		clock.advance(OtpTTL + time.Second)

		res, err := auth.ResendOtp(ctx, "jane@gmail.com")
		require.NoError(t, err)
		require.True(t, res.OtpSent)

		fresh := notifier.otps["jane@gmail.com"]
		require.Len(t, fresh, OtpDigits)

		// Only the fresh code verifies.
		_, err = auth.VerifyOtp(ctx, "jane@gmail.com", stale)
		require.ErrorIs(t, err, ErrInvalidOrExpiredOtp)
		_, err = auth.VerifyOtp(ctx, "jane@gmail.com", fresh)
		require.NoError(t, err)
	})
}

func TestChangePassword(t *testing.T) {
	auth, notifier, _ := newTestAuth(t)
	ctx := context.Background()

	register(t, auth, notifier, RegisterRequest{
		Firstname: "Jane", Lastname: "Doe", Email: "jane@gmail.com",
	})
	loginAndVerify(t, auth, notifier, "jane@gmail.com")

	t.Run("wrong current password is rejected", func(t *testing.T) {
		err := auth.ChangePassword(ctx, "jane@gmail.com", "nope1234A", "Qwerty12")
		require.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("weak replacement is rejected", func(t *testing.T) {
		err := auth.ChangePassword(ctx, "jane@gmail.com", "Abcdef12", "alllower1")
		require.ErrorIs(t, err, ErrWeakPassword)
	})

	t.Run("valid change takes effect", func(t *testing.T) {
		require.NoError(t, auth.ChangePassword(ctx, "jane@gmail.com", "Abcdef12", "Qwerty12"))

		_, err := auth.Login(ctx, "jane@gmail.com", "Abcdef12", "")
		require.ErrorIs(t, err, ErrInvalidCredentials)
		_, err = auth.Login(ctx, "jane@gmail.com", "Qwerty12", "")
		require.NoError(t, err)
	})
}
