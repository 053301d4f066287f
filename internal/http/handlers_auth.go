package httpx

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	domainauth "github.com/fiberq/fiberq-web/internal/domain/auth"
	"github.com/fiberq/fiberq-web/internal/service"
)

// AuthServiceInterface defines the auth service operations used by the HTTP layer.
type AuthServiceInterface interface {
	SessionResolver
	BeginLogin(ctx context.Context, redirectURL string) (*service.BeginLoginResult, error)
	CompleteLogin(ctx context.Context, input service.CompleteLoginInput) (*service.CompleteLoginResult, error)
	UserInfo(ctx context.Context, view domainauth.SessionView) (map[string]any, error)
	Logout(ctx context.Context, sessionID, postLogoutRedirect string) (*service.LogoutResult, error)
}

// AuthHandlers provides HTTP handlers for the /api/auth namespace.
type AuthHandlers struct {
	Svc                   AuthServiceInterface
	CookieDomain          string
	PostLogoutRedirectURL string
	Logger                *slog.Logger
}

func (h *AuthHandlers) logger() *slog.Logger {
	if h != nil && h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

// SignIn starts the authorization code flow.
// GET /api/auth/signin?callbackUrl=<optional_url>.
func (h *AuthHandlers) SignIn(w http.ResponseWriter, r *http.Request) {
	redirectURI := safeRedirectFromURL(r.URL.Query().Get(callbackURLParam))
	if redirectURI == "" {
		redirectURI = "/"
	}

	result, err := h.Svc.BeginLogin(r.Context(), redirectURI)
	if err != nil {
		WriteError(w, ErrorParams{
			Code:    http.StatusInternalServerError,
			ErrCode: "login_failed",
			Err:     err,
		})
		return
	}

	h.setOAuthCookies(w, r, oauthCookieParams{State: result.State, Nonce: result.Nonce, RedirectURI: redirectURI})
	http.Redirect(w, r, result.AuthURL, http.StatusFound)
}

// Callback completes the authorization code flow.
// GET /api/auth/callback?code=<code>&state=<state>.
func (h *AuthHandlers) Callback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if providerErr := q.Get("error"); providerErr != "" {
		h.logger().WarnContext(r.Context(), "provider returned error",
			"error", providerErr,
			"description", q.Get("error_description"))
		WriteError(w, ErrorParams{
			Code:    http.StatusBadRequest,
			ErrCode: "provider_error",
			Err:     errors.New(providerErr),
		})
		return
	}

	code := q.Get("code")
	state := q.Get("state")
	if code == "" {
		WriteError(w, ErrorParams{
			Code:    http.StatusBadRequest,
			ErrCode: "missing_code",
			Err:     errors.New("authorization code is required"),
		})
		return
	}
	if state == "" {
		WriteError(w, ErrorParams{
			Code:    http.StatusBadRequest,
			ErrCode: "missing_state",
			Err:     errors.New("state parameter is required"),
		})
		return
	}

	stateCookie, err := r.Cookie(oauthStateCookieName)
	if err != nil || stateCookie.Value != state {
		WriteError(w, ErrorParams{
			Code:    http.StatusBadRequest,
			ErrCode: "invalid_state",
			Err:     errors.New("invalid or missing state parameter"),
		})
		return
	}
	nonceCookie, err := r.Cookie(oauthNonceCookieName)
	if err != nil {
		WriteError(w, ErrorParams{
			Code:    http.StatusBadRequest,
			ErrCode: "missing_nonce",
			Err:     errors.New("missing nonce parameter"),
		})
		return
	}

	result, err := h.Svc.CompleteLogin(r.Context(), service.CompleteLoginInput{
		Code:  code,
		State: state,
		Nonce: nonceCookie.Value,
	})
	if err != nil {
		h.logger().WarnContext(r.Context(), "login completion failed", "error", err)
		WriteError(w, ErrorParams{
			Code:    http.StatusInternalServerError,
			ErrCode: "login_completion_failed",
			Err:     err,
		})
		return
	}

	h.setSessionCookie(w, r, result.Session)
	h.clearCookie(w, r, oauthStateCookieName)
	h.clearCookie(w, r, oauthNonceCookieName)

	http.Redirect(w, r, h.getPostLoginRedirect(w, r), http.StatusFound)
}

// SignOut deletes the server-side session and hands the browser to the provider's logout page.
// GET|POST /api/auth/signout.
func (h *AuthHandlers) SignOut(w http.ResponseWriter, r *http.Request) {
	target := "/"
	if c, err := r.Cookie(sessionCookieName); err == nil {
		res, logoutErr := h.Svc.Logout(r.Context(), c.Value, h.PostLogoutRedirectURL)
		switch {
		case logoutErr != nil:
			h.logger().WarnContext(r.Context(), "logout failed", "error", logoutErr)
		case res.EndSessionURL != "":
			target = res.EndSessionURL
		}
	}

	h.clearCookie(w, r, sessionCookieName)

	isAJAX := strings.Contains(r.Header.Get("Accept"), "application/json") ||
		strings.EqualFold(r.Header.Get("X-Requested-With"), "XMLHttpRequest")
	if isAJAX {
		WriteJSON(w, http.StatusOK, map[string]string{
			"status":      "success",
			"redirect_to": target,
		})
		return
	}

	http.Redirect(w, r, target, http.StatusFound)
}

type sessionResponse struct {
	Authenticated bool `json:"authenticated"`
	*domainauth.SessionView
}

// Session returns the materialized session of the caller.
// GET /api/auth/session.
func (h *AuthHandlers) Session(w http.ResponseWriter, r *http.Request) {
	view, ok := SessionFromContext(r.Context())
	if !ok {
		if _, err := r.Cookie(sessionCookieName); err == nil {
			h.clearCookie(w, r, sessionCookieName)
		}
		WriteJSON(w, http.StatusOK, sessionResponse{Authenticated: false})
		return
	}

	WriteJSON(w, http.StatusOK, sessionResponse{Authenticated: true, SessionView: &view})
}

// UserInfo proxies the provider userinfo endpoint for the caller.
// Any failure yields a JSON null body.
// GET /api/auth/userinfo.
func (h *AuthHandlers) UserInfo(w http.ResponseWriter, r *http.Request) {
	view, ok := SessionFromContext(r.Context())
	if !ok {
		WriteJSON(w, http.StatusOK, nil)
		return
	}

	info, err := h.Svc.UserInfo(r.Context(), view)
	if err != nil {
		h.logger().DebugContext(r.Context(), "userinfo fetch failed", "error", err)
		WriteJSON(w, http.StatusOK, nil)
		return
	}
	WriteJSON(w, http.StatusOK, info)
}

// clearCookie clears a cookie by setting it to expire immediately.
// It mirrors key attributes (Secure, Path, Domain, SameSite) used when setting cookies
// to maximize compatibility across browsers during deletion.
func (h *AuthHandlers) clearCookie(w http.ResponseWriter, r *http.Request, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		Domain:   h.CookieDomain,
		HttpOnly: true,
		Secure:   isSecureRequest(r),
		MaxAge:   -1,
		Expires:  time.Unix(0, 0).UTC(),
		SameSite: http.SameSiteLaxMode,
	})
}

type oauthCookieParams struct {
	State       string
	Nonce       string
	RedirectURI string
}

// setOAuthCookies stores OAuth state, nonce, and the post-login redirect in short-lived cookies.
func (h *AuthHandlers) setOAuthCookies(w http.ResponseWriter, r *http.Request, p oauthCookieParams) {
	for name, value := range map[string]string{
		oauthStateCookieName:  p.State,
		oauthNonceCookieName:  p.Nonce,
		postLoginRedirectName: p.RedirectURI,
	} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    value,
			Path:     "/",
			Domain:   h.CookieDomain,
			HttpOnly: true,
			Secure:   isSecureRequest(r),
			SameSite: http.SameSiteLaxMode,
			MaxAge:   oauthCookieMaxAgeInSec,
		})
	}
}

// setSessionCookie writes the session cookie; it lives as long as the session itself.
func (h *AuthHandlers) setSessionCookie(w http.ResponseWriter, r *http.Request, s domainauth.SessionRecord) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    s.ID,
		Path:     "/",
		Domain:   h.CookieDomain,
		HttpOnly: true,
		Secure:   isSecureRequest(r),
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(time.Until(s.SessionExpiresAt).Seconds()),
	})
}

// getPostLoginRedirect returns the post-login redirect URL and clears the cookie.
func (h *AuthHandlers) getPostLoginRedirect(w http.ResponseWriter, r *http.Request) string {
	redirectURI := "/"
	if c, err := r.Cookie(postLoginRedirectName); err == nil {
		redirectURI = safeRedirectPath(c.Value)
		h.clearCookie(w, r, postLoginRedirectName)
	}
	return redirectURI
}
