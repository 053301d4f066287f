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

type seenRequest struct {
	path   string
	query  string
	auth   string
	cookie string
}

func newBackend(t *testing.T) (*url.URL, *seenRequest) {
	t.Helper()
	seen := &seenRequest{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen.path = r.URL.Path
		seen.query = r.URL.RawQuery
		seen.auth = r.Header.Get("Authorization")
		seen.cookie = r.Header.Get("Cookie")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	t.Cleanup(srv.Close)
	u, err := url.Parse(srv.URL)
	require.NoError(t, err)
	return u, seen
}

func TestAPIProxy_AttachesRawBearer(t *testing.T) {
	target, seen := newBackend(t)
	svc := signedIn(domainauth.SessionView{UserID: "u1", BearerToken: "raw.provider.token"})

	req := httptest.NewRequest(http.MethodGet, "/api/projects/7?include=tasks", nil)
	req.AddCookie(sessionCookie())
	w := httptest.NewRecorder()
	withSession(svc, NewAPIProxy(target, nil)).ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "/projects/7", seen.path)
	assert.Equal(t, "include=tasks", seen.query)
	assert.Equal(t, "Bearer raw.provider.token", seen.auth)
	assert.Empty(t, seen.cookie)
	assert.JSONEq(t, `{"ok":true}`, w.Body.String())
}

func TestAPIProxy_SignedOutForwardsWithoutAuthorization(t *testing.T) {
	target, seen := newBackend(t)

	req := httptest.NewRequest(http.MethodGet, "/api/projects", nil)
	req.Header.Set("Authorization", "Bearer forged")
	w := httptest.NewRecorder()
	withSession(&fakeAuthService{}, NewAPIProxy(target, nil)).ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "/projects", seen.path)
	assert.Empty(t, seen.auth)
}

func TestAPIProxy_BackendDown(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	target, err := url.Parse(srv.URL)
	require.NoError(t, err)
	srv.Close()

	w := httptest.NewRecorder()
	NewAPIProxy(target, nil).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/projects", nil))

	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), "backend_unavailable")
}

func TestAPIOnly_RejectsAuthNamespace(t *testing.T) {
	w := httptest.NewRecorder()
	apiOnly(okHandler()).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/auth/whatever", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestStripAPIPrefix(t *testing.T) {
	assert.Equal(t, "/projects", stripAPIPrefix("/api/projects"))
	assert.Equal(t, "/", stripAPIPrefix("/api"))
	assert.Equal(t, "/", stripAPIPrefix("/api/"))
}
