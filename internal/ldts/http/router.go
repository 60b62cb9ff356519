package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/loancollect/ldts/internal/ldts/metrics"
	"github.com/loancollect/ldts/internal/ldts/service"
	"github.com/loancollect/ldts/internal/ldts/store"
	"github.com/loancollect/ldts/pkg/httpx"
	"github.com/loancollect/ldts/pkg/jwtx"
	"github.com/loancollect/ldts/pkg/slogx"

	_ "github.com/loancollect/ldts/api/ldts" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	verifier     jwtx.Verifier
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	store          store.Store
	AuthService    *service.AuthService
	PastDueService *service.PastDueService
}

func NewRouter(
	verifier jwtx.Verifier,
	buildVersion string,
	st store.Store,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		verifier:     verifier,
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		logger:       logger,
	}

	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
		metrics.Instrument,
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerAuth()
	r.registerPastDue()
	r.registerSystem()

	r.Mux.Handle("/swagger/", httpSwagger.Handler())
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			Loan Due Tracking Service API
//	@version		0.1.0
//	@description	Back office API for loan collection: password + OTP login, token
//	@description	lifecycle, and scope-filtered past-due report import/export.
//
//	@license.name	MIT
//	@license.url	https://opensource.org/licenses/MIT
//
//	@host						localhost:8080
//	@BasePath					/
//
//	@schemes					http https
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				JWT access token. Format: "Bearer {token}".
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerAuth() {
	h := &AuthHandler{Auth: r.AuthService}

	// Credential-bearing endpoints get the strict profile to slow brute force.
	r.Mux.Handle("POST /v1/auth/register",
		httpx.Chain(http.HandlerFunc(h.Register), httpx.RateLimitByIP(httpx.ModerateLimit)))
	r.Mux.Handle("POST /v1/auth/login",
		httpx.Chain(http.HandlerFunc(h.Login), httpx.RateLimitByIP(httpx.StrictLimit)))
	r.Mux.Handle("POST /v1/auth/otp/verify",
		httpx.Chain(http.HandlerFunc(h.VerifyOtp), httpx.RateLimitByIP(httpx.StrictLimit)))
	r.Mux.Handle("POST /v1/auth/otp/resend",
		httpx.Chain(http.HandlerFunc(h.ResendOtp), httpx.RateLimitByIP(httpx.StrictLimit)))
	r.Mux.Handle("POST /v1/auth/refresh",
		httpx.Chain(http.HandlerFunc(h.Refresh), httpx.RateLimitByIP(httpx.ModerateLimit)))
	r.Mux.Handle("POST /v1/auth/logout",
		httpx.Chain(http.HandlerFunc(h.Logout), httpx.RateLimitByIP(httpx.ModerateLimit)))
	r.Mux.Handle("POST /v1/auth/password",
		httpx.Chain(http.HandlerFunc(h.ChangePassword),
			httpx.AuthnMiddleware(r.verifier),
			httpx.RateLimitByIP(httpx.StrictLimit)))
}

func (r *Router) registerPastDue() {
	h := &PastDueHandler{PastDue: r.PastDueService, Store: r.store}

	r.Mux.Handle("GET /v1/pastdue",
		httpx.Chain(http.HandlerFunc(h.List),
			httpx.AuthnMiddleware(r.verifier),
			httpx.RateLimitByIP(httpx.LenientLimit)))
	r.Mux.Handle("POST /v1/pastdue/import",
		httpx.Chain(http.HandlerFunc(h.Import),
			httpx.AuthnMiddleware(r.verifier),
			httpx.RateLimitByIP(httpx.ModerateLimit)))
	r.Mux.Handle("GET /v1/pastdue/export",
		httpx.Chain(http.HandlerFunc(h.Export),
			httpx.AuthnMiddleware(r.verifier),
			httpx.RateLimitByIP(httpx.ModerateLimit)))
}

func (r *Router) registerSystem() {
	r.Mux.Handle("GET /livez", LivezHandler(r.startTime, r.buildVersion))
	r.Mux.Handle("GET /readyz", ReadyzHandler(r.startTime, r.buildVersion, r.store))
	r.Mux.Handle("GET /metrics", metrics.Handler())
}
