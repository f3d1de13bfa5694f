package oauth2

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/instasora/user-service/internal/auth"
	"github.com/instasora/user-service/internal/domain"
	"github.com/instasora/user-service/internal/service"
)

// stubStore embeds the interface so only the methods the flow touches
// need real implementations.
type stubStore struct {
	service.UserStore
	created *domain.User
}

func (s *stubStore) GetByProvider(context.Context, string, string) (*domain.User, error) {
	if s.created != nil {
		return s.created, nil
	}
	return nil, domain.ErrUserNotFound
}

func (s *stubStore) GetByEmail(context.Context, string) (*domain.User, error) {
	return nil, domain.ErrUserNotFound
}

func (s *stubStore) Create(_ context.Context, u *domain.User) error {
	u.ID = 7
	s.created = u
	return nil
}

type stubHasher struct{}

func (stubHasher) Hash(string) (string, error) { return "h", nil }
func (stubHasher) Verify(string, string) bool  { return false }

func newTestHandler(t *testing.T, providers map[string]auth.ProviderConfig) (*Handler, *stubStore) {
	t.Helper()
	store := &stubStore{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	tokens := auth.NewTokenService(auth.TokenConfig{Secret: []byte("secret"), TTL: time.Minute})
	users := service.NewUserService(service.Config{}, store, stubHasher{}, tokens, nil, logger)
	oauth := auth.NewOAuth2Service(providers, time.Second)
	return NewHandler(logger, oauth, users, false), store
}

func githubTestProviders(serverURL string) map[string]auth.ProviderConfig {
	return map[string]auth.ProviderConfig{
		auth.ProviderGitHub: {
			ClientID:     "cid",
			ClientSecret: "csec",
			RedirectURI:  "http://localhost/oauth2/callback/github",
			AuthURL:      serverURL + "/authorize",
			TokenURL:     serverURL + "/token",
			UserInfoURL:  serverURL + "/user",
			Scopes:       "read:user user:email",
		},
	}
}

func routeParam(r *http.Request, key, value string) *http.Request {
	ctx := chi.NewRouteContext()
	ctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, ctx))
}

func TestAuthorize(t *testing.T) {
	h, _ := newTestHandler(t, githubTestProviders("https://example.com"))

	req := routeParam(httptest.NewRequest("GET", "/oauth2/authorize/github", nil), "provider", "github")
	w := httptest.NewRecorder()
	h.Authorize(w, req)

	require.Equal(t, http.StatusFound, w.Code)

	location, err := url.Parse(w.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "cid", location.Query().Get("client_id"))
	assert.NotEmpty(t, location.Query().Get("state"))

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, stateCookieName, cookies[0].Name)
	assert.Equal(t, location.Query().Get("state"), cookies[0].Value)
	assert.True(t, cookies[0].HttpOnly)
}

func TestAuthorize_UnknownProvider(t *testing.T) {
	h, _ := newTestHandler(t, githubTestProviders("https://example.com"))

	req := routeParam(httptest.NewRequest("GET", "/oauth2/authorize/twitter", nil), "provider", "twitter")
	w := httptest.NewRecorder()
	h.Authorize(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCallback_StateMismatch(t *testing.T) {
	h, _ := newTestHandler(t, githubTestProviders("https://example.com"))

	req := routeParam(httptest.NewRequest("GET", "/oauth2/callback/github?state=abc&code=xyz", nil), "provider", "github")
	req.AddCookie(&http.Cookie{Name: stateCookieName, Value: "different"})
	w := httptest.NewRecorder()
	h.Callback(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCallback_MissingStateCookie(t *testing.T) {
	h, _ := newTestHandler(t, githubTestProviders("https://example.com"))

	req := routeParam(httptest.NewRequest("GET", "/oauth2/callback/github?state=abc&code=xyz", nil), "provider", "github")
	w := httptest.NewRecorder()
	h.Callback(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCallback_ProviderError(t *testing.T) {
	h, _ := newTestHandler(t, githubTestProviders("https://example.com"))

	req := routeParam(httptest.NewRequest("GET", "/oauth2/callback/github?error=access_denied", nil), "provider", "github")
	w := httptest.NewRecorder()
	h.Callback(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "access_denied")
}

func TestCallback_FullFlow(t *testing.T) {
	// Fake GitHub: token endpoint plus userinfo document.
	provider := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/token":
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"access_token":"at-1","token_type":"bearer"}`))
		case "/user":
			if r.Header.Get("Authorization") != "Bearer at-1" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"id":42,"email":"alice@example.com","name":"Alice Smith"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer provider.Close()

	h, store := newTestHandler(t, githubTestProviders(provider.URL))

	req := routeParam(httptest.NewRequest("GET", "/oauth2/callback/github?state=abc&code=xyz", nil), "provider", "github")
	req.AddCookie(&http.Cookie{Name: stateCookieName, Value: "abc"})
	w := httptest.NewRecorder()
	h.Callback(w, req)

	require.Equal(t, http.StatusFound, w.Code, w.Body.String())
	location := w.Header().Get("Location")
	assert.True(t, strings.HasPrefix(location, "/oauth2/redirect?token="), location)

	require.NotNil(t, store.created)
	assert.Equal(t, "alice", store.created.Username)
	assert.Equal(t, "Alice", store.created.FirstName)
	assert.True(t, store.created.Enabled)
}

func TestRedirect(t *testing.T) {
	h, _ := newTestHandler(t, nil)

	req := httptest.NewRequest("GET", "/oauth2/redirect?token=tok-1", nil)
	w := httptest.NewRecorder()
	h.Redirect(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "tok-1", body["token"])

	// Missing token
	w = httptest.NewRecorder()
	h.Redirect(w, httptest.NewRequest("GET", "/oauth2/redirect", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
