package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/aussiebroadwan/otpgate/internal/otp/access"
	"github.com/aussiebroadwan/otpgate/internal/otp/domain"
	"github.com/aussiebroadwan/otpgate/internal/otp/service"
	"github.com/aussiebroadwan/otpgate/internal/otp/session"
	"github.com/aussiebroadwan/otpgate/internal/otp/store"
	"github.com/aussiebroadwan/otpgate/pkg/httpx"
	"github.com/aussiebroadwan/otpgate/pkg/slogx"
	"github.com/go-chi/chi/v5"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux chi.Router

	buildVersion    string
	startTime       time.Time
	logger          *slog.Logger
	credentialLimit httpx.RateLimitConfig

	store    store.Store
	sessions session.Store
	gate     access.Gate

	OTPService   *service.OTPService
	UserService  *service.UserService
	AdminService *service.AdminService
}

func NewRouter(
	buildVersion string,
	st store.Store,
	sessions session.Store,
	credentialLimit httpx.RateLimitConfig,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:             chi.NewRouter(),
		buildVersion:    buildVersion,
		startTime:       time.Now(),
		logger:          logger,
		credentialLimit: credentialLimit,
		store:           st,
		sessions:        sessions,
		gate:            access.Gate{Sessions: sessions},
	}

	r.Mux.Use(slogx.HTTPMiddleware(r.logger))
	r.Mux.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		httpx.WriteError(w, http.StatusNotFound, "not_found", "no such endpoint")
	})
	r.Mux.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		httpx.WriteError(w, http.StatusMethodNotAllowed, "invalid_request", "method not allowed")
	})
	return r
}

func (r *Router) ApplyRoutes() {
	r.registerSystem()
	r.registerAccounts()
	r.registerOTP()
	r.registerAdmin()
}

// ServeHTTP implements http.Handler for Router.
//
//	@title						otpgate API
//	@version					0.1.0
//	@description				Issues, delivers and validates one-time confirmation codes behind role-gated session tokens.
//	@BasePath					/
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Session token from /v1/login. Format: "Bearer {token}".
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.Mux.ServeHTTP(w, req)
}

func (r *Router) registerSystem() {
	r.Mux.Get("/livez", LivezHandler(r.startTime, r.buildVersion))
	r.Mux.Get("/readyz", ReadyzHandler(r.startTime, r.buildVersion, r.store, r.sessions))
}

func (r *Router) registerAccounts() {
	h := &AccountHandler{UserService: r.UserService}

	// Credential endpoints are metered by IP + username to slow guessing.
	limited := r.Mux.With(httpx.RateLimitByIPAndField(r.credentialLimit, "username"))
	limited.Post("/v1/register", h.HandleRegister)
	limited.Post("/v1/login", h.HandleLogin)

	r.Mux.With(r.gate.Require(domain.RoleUser)).Post("/v1/logout", h.HandleLogout)
}

func (r *Router) registerOTP() {
	h := &OTPHandler{OTPService: r.OTPService}

	r.Mux.Route("/v1/otp", func(otp chi.Router) {
		otp.Use(r.gate.Require(domain.RoleUser))
		otp.Post("/generate", h.HandleGenerate)
		otp.Post("/validate", h.HandleValidate)
	})
}

func (r *Router) registerAdmin() {
	h := &AdminHandler{AdminService: r.AdminService}

	r.Mux.Route("/v1/admin", func(admin chi.Router) {
		admin.Use(r.gate.Require(domain.RoleAdmin))
		admin.Get("/config", h.HandleGetConfig)
		admin.Patch("/config", h.HandleUpdateConfig)
		admin.Get("/users", h.HandleListUsers)
		admin.Delete("/users/{id}", h.HandleDeleteUser)
		admin.Get("/users/{id}/otps", h.HandleListUserOTPs)
	})
}
