package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	googleAuthURL   = "https://accounts.google.com/o/oauth2/v2/auth"
	googleTokenURL  = "https://oauth2.googleapis.com/token"
	googleIssuer    = "https://accounts.google.com"
	googleIssuerAlt = "accounts.google.com"

	githubAuthURL  = "https://github.com/login/oauth/authorize"
	githubTokenURL = "https://github.com/login/oauth/access_token"
	githubUserURL  = "https://api.github.com/user"
)

// ProviderConfig holds the OAuth2 client settings for one upstream
// identity provider.
type ProviderConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
	AuthURL      string
	TokenURL     string
	UserInfoURL  string
	Scopes       string

	// Issuers are the accepted `iss` values for providers that return an
	// OpenID Connect ID token. Empty means ID tokens are not accepted.
	Issuers []string
}

// GoogleProvider returns the provider config for Google OAuth.
func GoogleProvider(clientID, clientSecret, redirectURI string) ProviderConfig {
	return ProviderConfig{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURI:  redirectURI,
		AuthURL:      googleAuthURL,
		TokenURL:     googleTokenURL,
		Scopes:       "openid email profile",
		Issuers:      []string{googleIssuer, googleIssuerAlt},
	}
}

// GitHubProvider returns the provider config for GitHub OAuth.
func GitHubProvider(clientID, clientSecret, redirectURI string) ProviderConfig {
	return ProviderConfig{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURI:  redirectURI,
		AuthURL:      githubAuthURL,
		TokenURL:     githubTokenURL,
		UserInfoURL:  githubUserURL,
		Scopes:       "read:user user:email",
	}
}

// ErrUnknownProvider is returned for a provider name with no configuration.
var ErrUnknownProvider = errors.New("unknown oauth2 provider")

// OAuth2Service drives the authorization-code flow against configured
// providers and hands back the provider's raw claim set for adapter
// normalization.
type OAuth2Service struct {
	providers  map[string]ProviderConfig
	httpClient *http.Client
}

// NewOAuth2Service creates an OAuth2 service. The timeout bounds every
// upstream token-exchange and userinfo call.
func NewOAuth2Service(providers map[string]ProviderConfig, timeout time.Duration) *OAuth2Service {
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &OAuth2Service{
		providers:  providers,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Providers returns the configured provider names.
func (s *OAuth2Service) Providers() []string {
	names := make([]string, 0, len(s.providers))
	for name := range s.providers {
		names = append(names, name)
	}
	return names
}

// AuthCodeURL builds the provider's authorization URL for a flow carrying
// the given CSRF state.
func (s *OAuth2Service) AuthCodeURL(provider, state string) (string, error) {
	cfg, ok := s.providers[provider]
	if !ok {
		return "", ErrUnknownProvider
	}
	params := url.Values{
		"client_id":     {cfg.ClientID},
		"redirect_uri":  {cfg.RedirectURI},
		"response_type": {"code"},
		"scope":         {cfg.Scopes},
		"state":         {state},
	}
	return cfg.AuthURL + "?" + params.Encode(), nil
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	IDToken     string `json:"id_token"`
	TokenType   string `json:"token_type"`
}

// FetchClaims exchanges an authorization code and returns the provider's
// raw claim set: the ID-token claims for OpenID providers, the userinfo
// document for the rest.
func (s *OAuth2Service) FetchClaims(ctx context.Context, provider, code string) (map[string]any, error) {
	cfg, ok := s.providers[provider]
	if !ok {
		return nil, ErrUnknownProvider
	}

	token, err := s.exchangeCode(ctx, cfg, code)
	if err != nil {
		return nil, err
	}

	if token.IDToken != "" && len(cfg.Issuers) > 0 {
		return s.idTokenClaims(cfg, token.IDToken)
	}
	if cfg.UserInfoURL != "" {
		return s.userInfo(ctx, cfg, token.AccessToken)
	}
	return nil, fmt.Errorf("provider %s returned no identity", provider)
}

// exchangeCode trades an authorization code for tokens.
func (s *OAuth2Service) exchangeCode(ctx context.Context, cfg ProviderConfig, code string) (*tokenResponse, error) {
	data := url.Values{
		"code":          {code},
		"client_id":     {cfg.ClientID},
		"client_secret": {cfg.ClientSecret},
		"redirect_uri":  {cfg.RedirectURI},
		"grant_type":    {"authorization_code"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, cfg.TokenURL, strings.NewReader(data.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("token exchange failed: %s", string(body))
	}

	var token tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
		return nil, err
	}
	return &token, nil
}

// idTokenClaims extracts the claims of an OpenID Connect ID token after
// checking issuer, audience and expiry.
func (s *OAuth2Service) idTokenClaims(cfg ProviderConfig, idToken string) (map[string]any, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(idToken, claims); err != nil {
		return nil, fmt.Errorf("parse id token: %w", err)
	}

	issuer, _ := claims.GetIssuer()
	validIssuer := false
	for _, iss := range cfg.Issuers {
		if issuer == iss {
			validIssuer = true
			break
		}
	}
	if !validIssuer {
		return nil, fmt.Errorf("invalid issuer: %s", issuer)
	}

	audience, _ := claims.GetAudience()
	validAudience := false
	for _, aud := range audience {
		if aud == cfg.ClientID {
			validAudience = true
			break
		}
	}
	if !validAudience {
		return nil, errors.New("invalid audience")
	}

	expiry, err := claims.GetExpirationTime()
	if err != nil || expiry == nil || expiry.Before(time.Now()) {
		return nil, errors.New("id token expired")
	}

	return claims, nil
}

// userInfo fetches the provider's user document with the access token.
func (s *OAuth2Service) userInfo(ctx context.Context, cfg ProviderConfig, accessToken string) (map[string]any, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, cfg.UserInfoURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("userinfo request failed: %s", string(body))
	}

	var claims map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&claims); err != nil {
		return nil, err
	}
	return claims, nil
}
