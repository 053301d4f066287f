package httpx

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/fiberq/fiberq-web/internal/domain/auth"
)

func TestSessionFromContext_ResolvesOncePerRequest(t *testing.T) {
	svc := signedIn(domainauth.SessionView{UserID: "u1", BearerToken: "tok"})

	var first, second domainauth.SessionView
	h := withSession(svc, http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		var ok bool
		first, ok = SessionFromContext(r.Context())
		require.True(t, ok)
		second, ok = SessionFromContext(r.Context())
		require.True(t, ok)
	}))

	req := httptest.NewRequest(http.MethodGet, "/en/projects", nil)
	req.AddCookie(sessionCookie())
	h.ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, "u1", first.UserID)
	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), svc.lookups.Load())
}

func TestSessionFromContext_NoCookieSkipsStore(t *testing.T) {
	svc := signedIn(domainauth.SessionView{UserID: "u1"})

	h := withSession(svc, http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		assert.False(t, IsAuthenticated(r))
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, int32(0), svc.lookups.Load())
}

func TestSessionFromContext_LookupErrorIsUnauthenticated(t *testing.T) {
	svc := &fakeAuthService{
		getSessionFunc: func(context.Context, string) (domainauth.SessionView, error) {
			return domainauth.SessionView{}, errors.New("redis down")
		},
	}

	h := withSession(svc, http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		_, ok := SessionFromContext(r.Context())
		assert.False(t, ok)
	}))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(sessionCookie())
	h.ServeHTTP(httptest.NewRecorder(), req)
}

func TestSessionFromContext_WithoutMiddleware(t *testing.T) {
	_, ok := SessionFromContext(context.Background())
	assert.False(t, ok)
}

func TestLocaleContext(t *testing.T) {
	assert.Empty(t, LocaleFromContext(context.Background()))

	ctx := SetLocaleInContext(context.Background(), "sr")
	assert.Equal(t, "sr", LocaleFromContext(ctx))

	assert.Equal(t, context.Background(), SetLocaleInContext(context.Background(), ""))
}
