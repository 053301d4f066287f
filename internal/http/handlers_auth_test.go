package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/fiberq/fiberq-web/internal/domain/auth"
	"github.com/fiberq/fiberq-web/internal/service"
)

func TestAuthHandlers_SignIn_SetsFlowCookies(t *testing.T) {
	var gotRedirect string
	svc := &fakeAuthService{
		beginLoginFunc: func(_ context.Context, redirectURL string) (*service.BeginLoginResult, error) {
			gotRedirect = redirectURL
			return &service.BeginLoginResult{AuthURL: "https://idp.example.com/auth", State: "s1", Nonce: "n1"}, nil
		},
	}
	h := &AuthHandlers{Svc: svc}

	req := httptest.NewRequest(http.MethodGet,
		"/api/auth/signin?callbackUrl=https%3A%2F%2Ffiberq.example.com%2Fen%2Fprojects%3Ftab%3D1", nil)
	w := httptest.NewRecorder()
	h.SignIn(w, req)

	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "https://idp.example.com/auth", w.Header().Get("Location"))
	assert.Equal(t, "/en/projects?tab=1", gotRedirect)

	resp := w.Result()
	defer resp.Body.Close()
	cookies := resp.Cookies()
	require.Len(t, cookies, 3)
	assert.Equal(t, "s1", findCookie(cookies, oauthStateCookieName).Value)
	assert.Equal(t, "n1", findCookie(cookies, oauthNonceCookieName).Value)
	redirect := findCookie(cookies, postLoginRedirectName)
	require.NotNil(t, redirect)
	assert.Equal(t, "/en/projects?tab=1", redirect.Value)
	assert.True(t, redirect.HttpOnly)
	assert.Equal(t, oauthCookieMaxAgeInSec, redirect.MaxAge)
}

func TestAuthHandlers_SignIn_DefaultsToRoot(t *testing.T) {
	var gotRedirect string
	svc := &fakeAuthService{
		beginLoginFunc: func(_ context.Context, redirectURL string) (*service.BeginLoginResult, error) {
			gotRedirect = redirectURL
			return &service.BeginLoginResult{AuthURL: "https://idp.example.com/auth", State: "s", Nonce: "n"}, nil
		},
	}
	h := &AuthHandlers{Svc: svc}

	h.SignIn(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/auth/signin?callbackUrl=%2F%2Fevil.com", nil))
	assert.Equal(t, "/", gotRedirect)
}

func TestAuthHandlers_SignIn_BeginError(t *testing.T) {
	svc := &fakeAuthService{
		beginLoginFunc: func(context.Context, string) (*service.BeginLoginResult, error) {
			return nil, errors.New("provider down")
		},
	}
	h := &AuthHandlers{Svc: svc}

	w := httptest.NewRecorder()
	h.SignIn(w, httptest.NewRequest(http.MethodGet, "/api/auth/signin", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "login_failed")
}

func callbackRequest(query string, cookies ...*http.Cookie) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/api/auth/callback"+query, nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	return req
}

func TestAuthHandlers_Callback_Validation(t *testing.T) {
	state := &http.Cookie{Name: oauthStateCookieName, Value: "s1"}
	nonce := &http.Cookie{Name: oauthNonceCookieName, Value: "n1"}

	tests := []struct {
		name    string
		req     *http.Request
		errCode string
	}{
		{name: "provider error", req: callbackRequest("?error=access_denied"), errCode: "provider_error"},
		{name: "missing code", req: callbackRequest("?state=s1", state, nonce), errCode: "missing_code"},
		{name: "missing state", req: callbackRequest("?code=c", state, nonce), errCode: "missing_state"},
		{name: "state mismatch", req: callbackRequest("?code=c&state=other", state, nonce), errCode: "invalid_state"},
		{name: "no state cookie", req: callbackRequest("?code=c&state=s1", nonce), errCode: "invalid_state"},
		{name: "no nonce cookie", req: callbackRequest("?code=c&state=s1", state), errCode: "missing_nonce"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := &AuthHandlers{Svc: &fakeAuthService{}}
			w := httptest.NewRecorder()
			h.Callback(w, tt.req)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, w.Body.String(), tt.errCode)
		})
	}
}

func TestAuthHandlers_Callback_Success(t *testing.T) {
	var got service.CompleteLoginInput
	svc := &fakeAuthService{
		completeLoginFunc: func(_ context.Context, in service.CompleteLoginInput) (*service.CompleteLoginResult, error) {
			got = in
			return &service.CompleteLoginResult{Session: domainauth.SessionRecord{
				ID:               "new-session",
				SessionExpiresAt: time.Now().Add(24 * time.Hour),
			}}, nil
		},
	}
	h := &AuthHandlers{Svc: svc, CookieDomain: "fiberq.example.com"}

	req := callbackRequest("?code=c1&state=s1",
		&http.Cookie{Name: oauthStateCookieName, Value: "s1"},
		&http.Cookie{Name: oauthNonceCookieName, Value: "n1"},
		&http.Cookie{Name: postLoginRedirectName, Value: "/en/projects"},
	)
	w := httptest.NewRecorder()
	h.Callback(w, req)

	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/en/projects", w.Header().Get("Location"))
	assert.Equal(t, service.CompleteLoginInput{Code: "c1", State: "s1", Nonce: "n1"}, got)

	resp := w.Result()
	defer resp.Body.Close()
	sess := findCookie(resp.Cookies(), sessionCookieName)
	require.NotNil(t, sess)
	assert.Equal(t, "new-session", sess.Value)
	assert.Equal(t, "fiberq.example.com", sess.Domain)
	assert.True(t, sess.HttpOnly)
	assert.Greater(t, sess.MaxAge, 0)
	assert.Equal(t, -1, findCookie(resp.Cookies(), oauthStateCookieName).MaxAge)
	assert.Equal(t, -1, findCookie(resp.Cookies(), oauthNonceCookieName).MaxAge)
}

func TestAuthHandlers_Callback_CompleteError(t *testing.T) {
	svc := &fakeAuthService{
		completeLoginFunc: func(context.Context, service.CompleteLoginInput) (*service.CompleteLoginResult, error) {
			return nil, errors.New("invalid nonce")
		},
	}
	h := &AuthHandlers{Svc: svc}

	w := httptest.NewRecorder()
	h.Callback(w, callbackRequest("?code=c&state=s1",
		&http.Cookie{Name: oauthStateCookieName, Value: "s1"},
		&http.Cookie{Name: oauthNonceCookieName, Value: "n1"},
	))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "login_completion_failed")
}

func TestAuthHandlers_SignOut(t *testing.T) {
	t.Run("redirects to provider end session", func(t *testing.T) {
		var gotID, gotPost string
		svc := &fakeAuthService{
			logoutFunc: func(_ context.Context, id, post string) (*service.LogoutResult, error) {
				gotID, gotPost = id, post
				return &service.LogoutResult{EndSessionURL: "https://idp.example.com/logout?id_token_hint=x"}, nil
			},
		}
		h := &AuthHandlers{Svc: svc, PostLogoutRedirectURL: "https://fiberq.example.com/"}

		req := httptest.NewRequest(http.MethodPost, "/api/auth/signout", nil)
		req.AddCookie(sessionCookie())
		w := httptest.NewRecorder()
		h.SignOut(w, req)

		require.Equal(t, http.StatusFound, w.Code)
		assert.Equal(t, "https://idp.example.com/logout?id_token_hint=x", w.Header().Get("Location"))
		assert.Equal(t, "sid", gotID)
		assert.Equal(t, "https://fiberq.example.com/", gotPost)

		resp := w.Result()
		defer resp.Body.Close()
		assert.Equal(t, -1, findCookie(resp.Cookies(), sessionCookieName).MaxAge)
	})

	t.Run("falls back to root", func(t *testing.T) {
		h := &AuthHandlers{Svc: &fakeAuthService{}}
		req := httptest.NewRequest(http.MethodGet, "/api/auth/signout", nil)
		req.AddCookie(sessionCookie())
		w := httptest.NewRecorder()
		h.SignOut(w, req)

		assert.Equal(t, http.StatusFound, w.Code)
		assert.Equal(t, "/", w.Header().Get("Location"))
	})

	t.Run("logout failure still clears cookie", func(t *testing.T) {
		svc := &fakeAuthService{
			logoutFunc: func(context.Context, string, string) (*service.LogoutResult, error) {
				return nil, errors.New("redis down")
			},
		}
		h := &AuthHandlers{Svc: svc}
		req := httptest.NewRequest(http.MethodGet, "/api/auth/signout", nil)
		req.AddCookie(sessionCookie())
		w := httptest.NewRecorder()
		h.SignOut(w, req)

		assert.Equal(t, "/", w.Header().Get("Location"))
		resp := w.Result()
		defer resp.Body.Close()
		assert.NotNil(t, findCookie(resp.Cookies(), sessionCookieName))
	})

	t.Run("json clients get the target", func(t *testing.T) {
		h := &AuthHandlers{Svc: &fakeAuthService{}}
		req := httptest.NewRequest(http.MethodPost, "/api/auth/signout", nil)
		req.Header.Set("Accept", "application/json")
		w := httptest.NewRecorder()
		h.SignOut(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		var body map[string]string
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, "/", body["redirect_to"])
	})
}

func TestAuthHandlers_Session(t *testing.T) {
	t.Run("signed in", func(t *testing.T) {
		svc := signedIn(domainauth.SessionView{
			UserID:      "u1",
			BearerToken: "raw-access",
			Roles:       []string{"engineer"},
			Error:       domainauth.RefreshTokenError,
		})
		h := &AuthHandlers{Svc: svc}

		req := httptest.NewRequest(http.MethodGet, "/api/auth/session", nil)
		req.AddCookie(sessionCookie())
		w := httptest.NewRecorder()
		withSession(svc, http.HandlerFunc(h.Session)).ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		var body map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, true, body["authenticated"])
		assert.Equal(t, "raw-access", body["access_token"])
		assert.Equal(t, domainauth.RefreshTokenError, body["error"])
		assert.NotContains(t, body, "refresh_token")
	})

	t.Run("stale cookie is cleared", func(t *testing.T) {
		svc := &fakeAuthService{}
		h := &AuthHandlers{Svc: svc}

		req := httptest.NewRequest(http.MethodGet, "/api/auth/session", nil)
		req.AddCookie(&http.Cookie{Name: sessionCookieName, Value: "gone"})
		w := httptest.NewRecorder()
		withSession(svc, http.HandlerFunc(h.Session)).ServeHTTP(w, req)

		assert.JSONEq(t, `{"authenticated":false}`, w.Body.String())
		resp := w.Result()
		defer resp.Body.Close()
		assert.Equal(t, -1, findCookie(resp.Cookies(), sessionCookieName).MaxAge)
	})
}

func TestAuthHandlers_UserInfo(t *testing.T) {
	t.Run("returns provider claims", func(t *testing.T) {
		svc := signedIn(domainauth.SessionView{UserID: "u1", BearerToken: "tok"})
		h := &AuthHandlers{Svc: svc}

		req := httptest.NewRequest(http.MethodGet, "/api/auth/userinfo", nil)
		req.AddCookie(sessionCookie())
		w := httptest.NewRecorder()
		withSession(svc, http.HandlerFunc(h.UserInfo)).ServeHTTP(w, req)

		assert.JSONEq(t, `{"sub":"u1"}`, w.Body.String())
	})

	t.Run("failure yields null", func(t *testing.T) {
		svc := signedIn(domainauth.SessionView{UserID: "u1", BearerToken: "tok"})
		svc.userInfoFunc = func(context.Context, domainauth.SessionView) (map[string]any, error) {
			return nil, errors.New("401 from provider")
		}
		h := &AuthHandlers{Svc: svc}

		req := httptest.NewRequest(http.MethodGet, "/api/auth/userinfo", nil)
		req.AddCookie(sessionCookie())
		w := httptest.NewRecorder()
		withSession(svc, http.HandlerFunc(h.UserInfo)).ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "null\n", w.Body.String())
	})

	t.Run("signed out yields null", func(t *testing.T) {
		svc := &fakeAuthService{}
		h := &AuthHandlers{Svc: svc}
		w := httptest.NewRecorder()
		withSession(svc, http.HandlerFunc(h.UserInfo)).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/auth/userinfo", nil))
		assert.Equal(t, "null\n", w.Body.String())
	})
}
