package httpx

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/fiberq/fiberq-web/internal/domain/auth"
)

func newTestRouter(t *testing.T, svc AuthServiceInterface) (http.Handler, *seenRequest) {
	t.Helper()
	backend, seen := newBackend(t)
	pages := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("page " + LocaleFromContext(r.Context()) + " " + r.URL.Path))
	})
	static := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("asset"))
	})
	return NewRouter(RouterServices{
		Auth:    svc,
		Backend: backend,
		Pages:   pages,
		Static:  static,
		Locales: LocaleRouterConfig{
			Supported:  []string{"en", "sr"},
			Default:    "en",
			CookieName: "NEXT_LOCALE",
		},
		BaseURL:       "https://fiberq.example.com",
		AuthRateLimit: RateLimitConfig{RequestsPerSecond: 100, Burst: 100},
	}), seen
}

func serve(h http.Handler, method, path string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestRouter_SignedOutGoesToSignInBeforeLocale(t *testing.T) {
	h, _ := newTestRouter(t, &fakeAuthService{})

	for _, p := range []string{"/", "/projects", "/en/projects"} {
		w := serve(h, http.MethodGet, p)
		require.Equal(t, http.StatusFound, w.Code, p)
		loc, err := url.Parse(w.Header().Get("Location"))
		require.NoError(t, err)
		assert.Equal(t, domainauth.SignInPath, loc.Path, p)
	}
}

func TestRouter_SignedInPagesFlowThroughLocaleRouting(t *testing.T) {
	svc := signedIn(domainauth.SessionView{UserID: "u1", BearerToken: "tok", Roles: []string{"engineer"}})
	h, _ := newTestRouter(t, svc)

	w := serve(h, http.MethodGet, "/projects", sessionCookie())
	assert.Equal(t, http.StatusTemporaryRedirect, w.Code)
	assert.Equal(t, "/en/projects", w.Header().Get("Location"))

	w = serve(h, http.MethodGet, "/en", sessionCookie())
	assert.Equal(t, "/en/projects", w.Header().Get("Location"))

	w = serve(h, http.MethodGet, "/sr/projects", sessionCookie())
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "page sr /sr/projects", w.Body.String())

	assert.Equal(t, int32(3), svc.lookups.Load(), "one store read per request")
}

func TestRouter_AdminPagesRequireAdmin(t *testing.T) {
	engineer := signedIn(domainauth.SessionView{UserID: "u1", Roles: []string{"engineer"}})
	h, _ := newTestRouter(t, engineer)
	assert.Equal(t, http.StatusForbidden, serve(h, http.MethodGet, "/en/users", sessionCookie()).Code)

	admin := signedIn(domainauth.SessionView{UserID: "u2", Roles: []string{"admin"}})
	h, _ = newTestRouter(t, admin)
	assert.Equal(t, http.StatusOK, serve(h, http.MethodGet, "/en/users", sessionCookie()).Code)
}

func TestRouter_ProxiesAPIWithBearer(t *testing.T) {
	svc := signedIn(domainauth.SessionView{UserID: "u1", BearerToken: "raw-token"})
	h, seen := newTestRouter(t, svc)

	w := serve(h, http.MethodGet, "/api/projects", sessionCookie())
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "/projects", seen.path)
	assert.Equal(t, "Bearer raw-token", seen.auth)
}

func TestRouter_UnauthenticatedAPIIsNotRedirected(t *testing.T) {
	h, seen := newTestRouter(t, &fakeAuthService{})

	w := serve(h, http.MethodGet, "/api/projects")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "/projects", seen.path)
	assert.Empty(t, seen.auth)
}

func TestRouter_AuthNamespace(t *testing.T) {
	h, seen := newTestRouter(t, &fakeAuthService{})

	w := serve(h, http.MethodGet, "/api/auth/session")
	assert.JSONEq(t, `{"authenticated":false}`, w.Body.String())

	w = serve(h, http.MethodGet, "/api/auth/signin")
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Contains(t, w.Header().Get("Location"), "https://idp.example.com/auth")

	w = serve(h, http.MethodGet, "/api/auth/unknown")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Empty(t, seen.path, "auth namespace is never proxied")
}

func TestRouter_StaticAndHealthSkipTheGate(t *testing.T) {
	svc := &fakeAuthService{}
	h, _ := newTestRouter(t, svc)

	w := serve(h, http.MethodGet, "/static/app.css")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "asset", w.Body.String())

	w = serve(h, http.MethodGet, "/healthz")
	assert.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, int32(0), svc.lookups.Load())
}

func TestNewRouter_RequiresAuth(t *testing.T) {
	assert.Panics(t, func() { NewRouter(RouterServices{}) })
}
