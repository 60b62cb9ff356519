package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/loancollect/ldts/internal/ldts/metrics"
	"github.com/loancollect/ldts/internal/ldts/service"
	"github.com/loancollect/ldts/pkg/httpx"
)

// AuthHandler exposes the authentication lifecycle over HTTP.
type AuthHandler struct {
	Auth *service.AuthService
}

type loginRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	NewPassword string `json:"newPassword,omitempty"`
}

type verifyOtpRequest struct {
	Email string `json:"email"`
	Otp   string `json:"otp"`
}

type emailRequest struct {
	Email string `json:"email"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type logoutRequest struct {
	Email        string `json:"email"`
	RefreshToken string `json:"refreshToken"`
}

type changePasswordRequest struct {
	Email       string `json:"email"`
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "Malformed request body")
		return false
	}
	return true
}

// Register godoc
//
//	@Summary		Register a principal
//	@Description	Creates a principal with a temporary password dispatched by mail.
//	@Description	The plaintext credential is never returned through the API.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		service.RegisterRequest	true	"registration fields"
//	@Success		201		{object}	httpx.Response{data=service.RegisterResult}
//	@Failure		400		{object}	httpx.Response
//	@Failure		429		{object}	httpx.Response
//	@Router			/v1/auth/register [post]
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req service.RegisterRequest
	if !decode(w, r, &req) {
		return
	}

	res, err := h.Auth.Register(r.Context(), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.WriteOK(w, http.StatusCreated, "User registered, temporary password sent via email", res)
}

// Login godoc
//
//	@Summary		Log in with email and password
//	@Description	Verifies credentials and issues an OTP challenge by mail. Accounts on a
//	@Description	temporary password must include newPassword in the same call. No tokens
//	@Description	are issued here.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		loginRequest	true	"credentials"
//	@Success		200		{object}	httpx.Response{data=service.LoginResult}
//	@Failure		400		{object}	httpx.Response
//	@Failure		401		{object}	httpx.Response
//	@Failure		403		{object}	httpx.Response
//	@Router			/v1/auth/login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decode(w, r, &req) {
		return
	}

	res, err := h.Auth.Login(r.Context(), req.Email, req.Password, req.NewPassword)
	if err != nil {
		metrics.ObserveLogin("failure")
		writeServiceError(w, err)
		return
	}
	metrics.ObserveLogin("success")
	httpx.WriteOK(w, http.StatusOK, "OTP sent via email", res)
}

// VerifyOtp godoc
//
//	@Summary		Verify the login OTP
//	@Description	Consumes the active code and returns the full session payload:
//	@Description	tokens, profile, permissions and scope.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		verifyOtpRequest	true	"email and code"
//	@Success		200		{object}	httpx.Response{data=domain.SessionPayload}
//	@Failure		401		{object}	httpx.Response
//	@Router			/v1/auth/otp/verify [post]
func (h *AuthHandler) VerifyOtp(w http.ResponseWriter, r *http.Request) {
	var req verifyOtpRequest
	if !decode(w, r, &req) {
		return
	}

	session, err := h.Auth.VerifyOtp(r.Context(), req.Email, req.Otp)
	if err != nil {
		metrics.ObserveOtpVerification("failure")
		writeServiceError(w, err)
		return
	}
	metrics.ObserveOtpVerification("success")
	httpx.WriteOK(w, http.StatusOK, "Login successful", session)
}

// ResendOtp godoc
//
//	@Summary		Resend the login OTP
//	@Description	Issues a fresh code once the previous one has lapsed. While a code is
//	@Description	still live the request is rejected with the remaining wait seconds.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		emailRequest	true	"email"
//	@Success		200		{object}	httpx.Response{data=service.LoginResult}
//	@Failure		429		{object}	httpx.Response
//	@Router			/v1/auth/otp/resend [post]
func (h *AuthHandler) ResendOtp(w http.ResponseWriter, r *http.Request) {
	var req emailRequest
	if !decode(w, r, &req) {
		return
	}

	res, err := h.Auth.ResendOtp(r.Context(), req.Email)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.WriteOK(w, http.StatusOK, "OTP sent via email", res)
}

// Refresh godoc
//
//	@Summary		Rotate the access token
//	@Description	Exchanges a refresh token for a new access token. The refresh token
//	@Description	itself is not rotated.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		refreshRequest	true	"refresh token"
//	@Success		200		{object}	httpx.Response
//	@Failure		401		{object}	httpx.Response
//	@Failure		404		{object}	httpx.Response
//	@Router			/v1/auth/refresh [post]
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if !decode(w, r, &req) {
		return
	}

	access, err := h.Auth.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		metrics.ObserveTokenRotation("failure")
		writeServiceError(w, err)
		return
	}
	metrics.ObserveTokenRotation("success")
	httpx.WriteOK(w, http.StatusOK, "Access token refreshed", map[string]string{
		"accessToken": access,
	})
}

// Logout godoc
//
//	@Summary		Log out
//	@Description	Revokes the session. The caller must present the refresh token
//	@Description	currently on record; a stale or foreign token is rejected.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		logoutRequest	true	"email and refresh token"
//	@Success		200		{object}	httpx.Response
//	@Failure		401		{object}	httpx.Response
//	@Failure		404		{object}	httpx.Response
//	@Router			/v1/auth/logout [post]
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	var req logoutRequest
	if !decode(w, r, &req) {
		return
	}

	if err := h.Auth.Logout(r.Context(), req.Email, req.RefreshToken); err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.WriteOK(w, http.StatusOK, "Logged out", nil)
}

// ChangePassword godoc
//
//	@Summary		Change password
//	@Description	Replaces the password after verifying the current one.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		changePasswordRequest	true	"old and new password"
//	@Success		200		{object}	httpx.Response
//	@Failure		400		{object}	httpx.Response
//	@Failure		401		{object}	httpx.Response
//	@Security		BearerAuth
//	@Router			/v1/auth/password [post]
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req changePasswordRequest
	if !decode(w, r, &req) {
		return
	}

	if err := h.Auth.ChangePassword(r.Context(), req.Email, req.OldPassword, req.NewPassword); err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.WriteOK(w, http.StatusOK, "Password updated", nil)
}

// writeServiceError maps the service error taxonomy onto HTTP statuses and
// the canonical envelope. Messages stay deliberately coarse; they never
// reveal which of several failure modes occurred.
func writeServiceError(w http.ResponseWriter, err error) {
	var verr *service.ValidationError
	var rl *service.RateLimitedError

	switch {
	case errors.As(err, &verr):
		httpx.WriteError(w, http.StatusBadRequest, verr.Message)
	case errors.As(err, &rl):
		seconds := int(rl.Wait.Seconds())
		w.Header().Set("Retry-After", strconv.Itoa(seconds))
		httpx.WriteJSON(w, http.StatusTooManyRequests, httpx.Response{
			Message: "OTP already sent, try again later",
			Data:    map[string]int{"retry_after_seconds": seconds},
		})
	case errors.Is(err, service.ErrInvalidCredentials):
		httpx.WriteError(w, http.StatusUnauthorized, "Invalid credentials")
	case errors.Is(err, service.ErrInvalidOrExpiredOtp):
		httpx.WriteError(w, http.StatusUnauthorized, "Invalid or expired OTP")
	case errors.Is(err, service.ErrPasswordChangeRequired):
		httpx.WriteError(w, http.StatusForbidden, "Password change required")
	case errors.Is(err, service.ErrWeakPassword):
		httpx.WriteError(w, http.StatusBadRequest, "Password does not meet the strength policy")
	case errors.Is(err, service.ErrDuplicateEmail):
		httpx.WriteError(w, http.StatusBadRequest, "Email already registered")
	case errors.Is(err, service.ErrTokenNotFound):
		httpx.WriteError(w, http.StatusNotFound, "Refresh token not found")
	case errors.Is(err, service.ErrTokenExpired):
		httpx.WriteError(w, http.StatusUnauthorized, "Refresh token expired")
	case errors.Is(err, service.ErrTokenMismatch):
		httpx.WriteError(w, http.StatusUnauthorized, "Refresh token no longer valid")
	case errors.Is(err, service.ErrForbidden):
		httpx.WriteError(w, http.StatusForbidden, "Not allowed")
	case errors.Is(err, service.ErrNoReports):
		httpx.WriteError(w, http.StatusNotFound, "No reports found")
	default:
		httpx.WriteError(w, http.StatusInternalServerError, "Server error")
	}
}
