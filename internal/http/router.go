package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/instasora/user-service/internal/auth"
	"github.com/instasora/user-service/internal/config"
	"github.com/instasora/user-service/internal/http/features/oauth2"
	"github.com/instasora/user-service/internal/http/features/users"
	"github.com/instasora/user-service/internal/http/middleware"
	"github.com/instasora/user-service/internal/httputil"
	"github.com/instasora/user-service/internal/service"
)

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Logger          *slog.Logger
	UserService     *service.UserService
	TokenService    *auth.TokenService
	OAuth2Service   *auth.OAuth2Service
	RateLimitConfig config.RateLimitConfig
	SecurityHeaders config.SecurityHeadersConfig
	Validation      config.ValidationConfig
	SecureCookies   bool
}

// NewRouter creates a new HTTP router with all routes registered.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recover(cfg.Logger))
	r.Use(middleware.Logging(cfg.Logger))
	r.Use(middleware.SecurityHeaders(cfg.SecurityHeaders))
	r.Use(middleware.RequestSizeLimit(cfg.Validation.MaxRequestBodySize))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		httputil.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	rateLimiters := middleware.CreateRateLimiters(cfg.RateLimitConfig, cfg.Logger)

	usersHandler := users.NewHandler(cfg.Logger, cfg.UserService)

	r.Route("/api/v1/user", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(rateLimiters["auth"])
			r.Post("/register", usersHandler.Register)
			r.Post("/login", usersHandler.Login)
		})
		r.Group(func(r chi.Router) {
			r.Use(rateLimiters["reset"])
			r.Post("/forgot-password", usersHandler.ForgotPassword)
			r.Post("/reset-password", usersHandler.ResetPassword)
		})
		r.With(rateLimiters["verify"]).Get("/verify-email", usersHandler.VerifyEmail)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.TokenService))
			r.Use(rateLimiters["profile"])
			r.Get("/profile", usersHandler.Profile)
			r.Put("/profile", usersHandler.UpdateProfile)
			r.Post("/change-password", usersHandler.ChangePassword)
		})
	})

	// OAuth2 routes (if any provider is configured)
	if cfg.OAuth2Service != nil && len(cfg.OAuth2Service.Providers()) > 0 {
		oauthHandler := oauth2.NewHandler(cfg.Logger, cfg.OAuth2Service, cfg.UserService, cfg.SecureCookies)
		r.Group(func(r chi.Router) {
			r.Use(rateLimiters["auth"])
			r.Get("/oauth2/authorize/{provider}", oauthHandler.Authorize)
			r.Get("/oauth2/callback/{provider}", oauthHandler.Callback)
		})
		r.Get("/oauth2/redirect", oauthHandler.Redirect)
	}

	return r
}
