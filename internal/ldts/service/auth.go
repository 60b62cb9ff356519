package service

import (
	"context"
	"errors"
	"log/slog"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/loancollect/ldts/internal/ldts/domain"
	"github.com/loancollect/ldts/internal/ldts/store"
	"github.com/loancollect/ldts/pkg/cryptox"
	"github.com/loancollect/ldts/pkg/idx"
	"github.com/loancollect/ldts/pkg/slogx"
)

// DefaultAllowedEmailDomains is the registration allow-list applied when the
// orchestrator is constructed without an explicit one.
var DefaultAllowedEmailDomains = []string{
	"gmail.com",
	"yahoo.com",
	"phillifeassurance.onmicrosoft.com",
}

var emailLocalPart = regexp.MustCompile(`^[\w.-]+$`)

// Notifier delivers out-of-band credentials. Fire-and-forget from the
// orchestrator's perspective: failures are reported as warnings on the
// result, never retried and never rolled back into committed state.
type Notifier interface {
	SendTempPassword(ctx context.Context, to, name, tempPassword string) error
	SendOtp(ctx context.Context, to, lastname, code string) error
}

// AuthService is the orchestrator tying credentials, OTP challenges and
// session tokens together across register, login, verify, refresh and
// logout.
type AuthService struct {
	Store    store.Store
	Otp      *OtpService
	Tokens   *TokenService
	Notifier Notifier

	// AllowedEmailDomains overrides DefaultAllowedEmailDomains when non-nil.
	AllowedEmailDomains []string

	// Now is the clock. Overridable in tests; defaults to time.Now.
	Now func() time.Time
}

func (s *AuthService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *AuthService) allowedDomains() []string {
	if s.AllowedEmailDomains != nil {
		return s.AllowedEmailDomains
	}
	return DefaultAllowedEmailDomains
}

// RegisterRequest carries the caller-supplied registration fields. Only
// firstname, lastname and email are required; organisational identifiers are
// optional and only matter as permission and scope fallbacks.
type RegisterRequest struct {
	Firstname    string `json:"firstname"`
	Middlename   string `json:"middlename"`
	Lastname     string `json:"lastname"`
	Suffix       string `json:"suffix"`
	Email        string `json:"email"`
	Mobile       string `json:"mobile"`
	UserType     string `json:"userType"`
	Role         string `json:"role"`
	AgentCode    string `json:"agentCode"`
	DepartmentID *int64 `json:"departmentId"`
	RegionID     *int64 `json:"regionId"`
	DivisionID   *int64 `json:"divisionId"`
}

// RegisterResult reports the created principal. The temporary password is
// dispatched by mail exactly once and never returned through the API.
type RegisterResult struct {
	PrincipalID string `json:"principalId"`
	MailWarning string `json:"mailWarning,omitempty"`
}

// Register creates a principal with a freshly generated temporary password
// and mustChangePassword set. The plaintext credential leaves the system
// only through the Notifier.
func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (RegisterResult, error) {
	l := slogx.FromContext(ctx)

	req.Firstname = strings.TrimSpace(req.Firstname)
	req.Lastname = strings.TrimSpace(req.Lastname)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.UserType = strings.TrimSpace(req.UserType)
	req.Role = strings.TrimSpace(req.Role)

	if req.Firstname == "" || req.Lastname == "" || req.Email == "" {
		return RegisterResult{}, validationErrorf("missing required fields")
	}
	if !s.emailAllowed(req.Email) {
		return RegisterResult{}, validationErrorf("invalid domain address")
	}
	if req.UserType != "" && !isKnownUserType(req.UserType) {
		return RegisterResult{}, validationErrorf("invalid userType")
	}
	if req.Role != "" && !slices.Contains(domain.ValidRoles, req.Role) {
		return RegisterResult{}, validationErrorf("invalid role")
	}

	tempPassword, err := cryptox.GenerateTempPassword()
	if err != nil {
		return RegisterResult{}, err
	}
	hash, err := cryptox.HashPassword(tempPassword)
	if err != nil {
		return RegisterResult{}, err
	}

	now := s.now()
	p := domain.Principal{
		ID:                 idx.New().String(),
		Firstname:          req.Firstname,
		Middlename:         strings.TrimSpace(req.Middlename),
		Lastname:           req.Lastname,
		Suffix:             strings.TrimSpace(req.Suffix),
		Email:              req.Email,
		Mobile:             strings.TrimSpace(req.Mobile),
		UserType:           req.UserType,
		Role:               req.Role,
		AgentCode:          strings.TrimSpace(req.AgentCode),
		DepartmentID:       req.DepartmentID,
		RegionID:           req.RegionID,
		DivisionID:         req.DivisionID,
		PasswordHash:       hash,
		MustChangePassword: true,
		Active:             true,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	if err := s.Store.Principals().CreatePrincipal(ctx, p); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return RegisterResult{}, ErrDuplicateEmail
		}
		return RegisterResult{}, storeErr(err)
	}

	result := RegisterResult{PrincipalID: p.ID}
	if err := s.Notifier.SendTempPassword(ctx, p.Email, p.Lastname, tempPassword); err != nil {
		l.Warn("temporary password mail failed",
			slog.String("principal_id", p.ID), slog.Any("error", err))
		result.MailWarning = "temporary password could not be delivered"
	}

	l.Info("principal registered", slog.String("principal_id", p.ID))
	return result, nil
}

// LoginResult reports the OTP dispatch. Tokens are never issued at login;
// they come only from VerifyOtp.
type LoginResult struct {
	OtpSent     bool   `json:"otpSent"`
	MailWarning string `json:"mailWarning,omitempty"`
}

// Login verifies email+password and issues an OTP challenge. A principal
// still on a temporary password must supply newPassword in the same call;
// the replacement is applied atomically before the challenge is issued.
// A failed login never changes state.
func (s *AuthService) Login(ctx context.Context, email, password, newPassword string) (LoginResult, error) {
	l := slogx.FromContext(ctx)
	email = strings.ToLower(strings.TrimSpace(email))

	if email == "" || password == "" {
		return LoginResult{}, validationErrorf("email and password are required")
	}

	p, err := s.Store.Principals().GetPrincipalByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// Uniform failure; unknown email and wrong password are
			// indistinguishable to the caller.
			return LoginResult{}, ErrInvalidCredentials
		}
		return LoginResult{}, storeErr(err)
	}

	if err := cryptox.VerifyPassword(password, p.PasswordHash); err != nil {
		l.Info("login failed", slog.String("principal_id", p.ID))
		return LoginResult{}, ErrInvalidCredentials
	}

	if p.MustChangePassword {
		if newPassword == "" {
			return LoginResult{}, ErrPasswordChangeRequired
		}
		if !cryptox.ValidatePasswordStrength(newPassword) {
			return LoginResult{}, ErrWeakPassword
		}
		newHash, err := cryptox.HashPassword(newPassword)
		if err != nil {
			return LoginResult{}, err
		}
		if err := s.Store.Principals().UpdatePasswordHash(ctx, p.ID, newHash); err != nil {
			return LoginResult{}, storeErr(err)
		}
		l.Info("temporary password replaced", slog.String("principal_id", p.ID))
	}

	code, err := s.Otp.Issue(ctx, p.ID)
	if err != nil {
		return LoginResult{}, err
	}

	result := LoginResult{OtpSent: true}
	if err := s.Notifier.SendOtp(ctx, p.Email, p.Lastname, code); err != nil {
		l.Warn("otp mail failed", slog.String("principal_id", p.ID), slog.Any("error", err))
		result.MailWarning = "one-time code could not be delivered"
	}

	l.Info("otp issued", slog.String("principal_id", p.ID))
	return result, nil
}

// VerifyOtp checks and consumes the principal's active code, then issues the
// session: tokens, profile, permissions and scope. A failed verification
// leaves the code live for retry within its window.
func (s *AuthService) VerifyOtp(ctx context.Context, email, code string) (domain.SessionPayload, error) {
	l := slogx.FromContext(ctx)
	email = strings.ToLower(strings.TrimSpace(email))

	if email == "" || code == "" {
		return domain.SessionPayload{}, validationErrorf("email and otp are required")
	}

	p, err := s.Store.Principals().GetPrincipalByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.SessionPayload{}, ErrInvalidCredentials
		}
		return domain.SessionPayload{}, storeErr(err)
	}

	ok, err := s.Otp.Verify(ctx, p.ID, code)
	if err != nil {
		return domain.SessionPayload{}, err
	}
	if !ok {
		// Wrong code and lapsed window are deliberately indistinct.
		return domain.SessionPayload{}, ErrInvalidOrExpiredOtp
	}

	if err := s.Otp.Consume(ctx, p.ID); err != nil {
		return domain.SessionPayload{}, err
	}

	access, refresh, err := s.Tokens.IssueSession(ctx, p)
	if err != nil {
		return domain.SessionPayload{}, err
	}

	l.Info("session established", slog.String("principal_id", p.ID))
	return domain.SessionPayload{
		AccessToken:  access,
		RefreshToken: refresh,
		Principal:    domain.ProfileOf(p),
		Permissions:  ResolvePermissions(p),
		Scope:        ResolveScope(p),
	}, nil
}

// Refresh exchanges a refresh token for a new access token. Passwords are
// never re-checked here.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (string, error) {
	if strings.TrimSpace(refreshToken) == "" {
		return "", validationErrorf("refresh token is required")
	}
	return s.Tokens.Rotate(ctx, refreshToken)
}

// Logout revokes the principal's session and OTP state. The caller must
// present the refresh token currently on record; a stale or foreign token is
// rejected, not silently ignored.
func (s *AuthService) Logout(ctx context.Context, email, refreshToken string) error {
	l := slogx.FromContext(ctx)
	email = strings.ToLower(strings.TrimSpace(email))

	if email == "" || strings.TrimSpace(refreshToken) == "" {
		return validationErrorf("email and refresh token are required")
	}

	p, err := s.Store.Principals().GetPrincipalByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrInvalidCredentials
		}
		return storeErr(err)
	}

	record, err := s.Store.RefreshTokens().GetRefreshTokenByHash(ctx, cryptox.FingerprintToken(refreshToken))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrTokenNotFound
		}
		return storeErr(err)
	}
	if record.PrincipalID != p.ID || !record.Active {
		return ErrTokenMismatch
	}

	if err := s.Tokens.Revoke(ctx, p.ID); err != nil {
		return err
	}

	l.Info("session revoked", slog.String("principal_id", p.ID))
	return nil
}

// ResendOtp issues a fresh code once the previous one has lapsed. While an
// unexpired code is live the request is rate limited with the remaining wait.
func (s *AuthService) ResendOtp(ctx context.Context, email string) (LoginResult, error) {
	l := slogx.FromContext(ctx)
	email = strings.ToLower(strings.TrimSpace(email))

	if email == "" {
		return LoginResult{}, validationErrorf("email is required")
	}

	p, err := s.Store.Principals().GetPrincipalByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return LoginResult{}, ErrInvalidCredentials
		}
		return LoginResult{}, storeErr(err)
	}

	if err := s.Otp.ResendGuard(ctx, p.ID); err != nil {
		return LoginResult{}, err
	}

	code, err := s.Otp.Issue(ctx, p.ID)
	if err != nil {
		return LoginResult{}, err
	}

	result := LoginResult{OtpSent: true}
	if err := s.Notifier.SendOtp(ctx, p.Email, p.Lastname, code); err != nil {
		l.Warn("otp mail failed", slog.String("principal_id", p.ID), slog.Any("error", err))
		result.MailWarning = "one-time code could not be delivered"
	}
	return result, nil
}

// ChangePassword replaces a principal's password after verifying the current
// one. Also clears a pending mustChangePassword flag.
func (s *AuthService) ChangePassword(ctx context.Context, email, oldPassword, newPassword string) error {
	email = strings.ToLower(strings.TrimSpace(email))

	if email == "" || oldPassword == "" || newPassword == "" {
		return validationErrorf("email, old password and new password are required")
	}

	p, err := s.Store.Principals().GetPrincipalByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrInvalidCredentials
		}
		return storeErr(err)
	}

	if err := cryptox.VerifyPassword(oldPassword, p.PasswordHash); err != nil {
		return ErrInvalidCredentials
	}
	if !cryptox.ValidatePasswordStrength(newPassword) {
		return ErrWeakPassword
	}

	newHash, err := cryptox.HashPassword(newPassword)
	if err != nil {
		return err
	}
	if err := s.Store.Principals().UpdatePasswordHash(ctx, p.ID, newHash); err != nil {
		return storeErr(err)
	}
	return nil
}

func (s *AuthService) emailAllowed(email string) bool {
	at := strings.LastIndex(email, "@")
	if at <= 0 || at == len(email)-1 {
		return false
	}
	local, domainPart := email[:at], email[at+1:]
	if !emailLocalPart.MatchString(local) {
		return false
	}
	return slices.Contains(s.allowedDomains(), domainPart)
}
