package oauth2

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/instasora/user-service/internal/auth"
	"github.com/instasora/user-service/internal/domain"
	"github.com/instasora/user-service/internal/httputil"
	"github.com/instasora/user-service/internal/service"
)

const (
	stateCookieName = "oauth2_state"
	stateCookieTTL  = 600 // seconds
)

// Handler drives the OAuth2 authorization-code flow against configured
// providers.
type Handler struct {
	logger        *slog.Logger
	oauth         *auth.OAuth2Service
	users         *service.UserService
	secureCookies bool
}

// NewHandler creates a new OAuth2 handler.
func NewHandler(logger *slog.Logger, oauth *auth.OAuth2Service, users *service.UserService, secureCookies bool) *Handler {
	return &Handler{
		logger:        logger,
		oauth:         oauth,
		users:         users,
		secureCookies: secureCookies,
	}
}

// Authorize starts the flow: stores a CSRF state in a short-lived cookie
// and redirects to the provider's consent page.
// GET /oauth2/authorize/{provider}
func (h *Handler) Authorize(w http.ResponseWriter, r *http.Request) {
	provider := chi.URLParam(r, "provider")
	state := uuid.NewString()

	authURL, err := h.oauth.AuthCodeURL(provider, state)
	if err != nil {
		if errors.Is(err, auth.ErrUnknownProvider) {
			httputil.Error(w, http.StatusNotFound, "unknown provider")
			return
		}
		h.logger.Error("failed to build authorization url", "error", err, "provider", provider)
		httputil.Error(w, http.StatusInternalServerError, "authorization failed")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    state,
		Path:     "/oauth2",
		MaxAge:   stateCookieTTL,
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, authURL, http.StatusFound)
}

// Callback completes the flow: verifies the CSRF state, exchanges the
// code, resolves the local user and redirects to the token endpoint.
// GET /oauth2/callback/{provider}
func (h *Handler) Callback(w http.ResponseWriter, r *http.Request) {
	provider := chi.URLParam(r, "provider")
	query := r.URL.Query()

	if errParam := query.Get("error"); errParam != "" {
		httputil.Error(w, http.StatusBadRequest, errParam)
		return
	}

	state := query.Get("state")
	cookie, err := r.Cookie(stateCookieName)
	if err != nil || state == "" || cookie.Value != state {
		httputil.Error(w, http.StatusBadRequest, "invalid or expired state")
		return
	}

	// State is single-use
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    "",
		Path:     "/oauth2",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})

	code := query.Get("code")
	if code == "" {
		httputil.Error(w, http.StatusBadRequest, "missing authorization code")
		return
	}

	claims, err := h.oauth.FetchClaims(r.Context(), provider, code)
	if err != nil {
		if errors.Is(err, auth.ErrUnknownProvider) {
			httputil.Error(w, http.StatusNotFound, "unknown provider")
			return
		}
		h.logger.Error("failed to fetch provider claims", "error", err, "provider", provider)
		httputil.Error(w, http.StatusInternalServerError, "failed to exchange code")
		return
	}

	token, err := h.users.CompleteOAuth2(r.Context(), provider, claims)
	if err != nil {
		if errors.Is(err, domain.ErrIdentityLinked) {
			httputil.Error(w, http.StatusConflict, "account already linked to a different identity")
			return
		}
		h.logger.Error("oauth2 login failed", "error", err, "provider", provider)
		httputil.Error(w, http.StatusInternalServerError, "authentication failed")
		return
	}

	http.Redirect(w, r, "/oauth2/redirect?token="+url.QueryEscape(token), http.StatusFound)
}

// Redirect is the final hop of the flow; it hands the bearer token to the
// client as JSON.
// GET /oauth2/redirect
func (h *Handler) Redirect(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		httputil.Error(w, http.StatusBadRequest, "missing token")
		return
	}
	httputil.JSON(w, http.StatusOK, map[string]string{"token": token})
}
