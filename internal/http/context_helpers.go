package httpx

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"

	domainauth "github.com/fiberq/fiberq-web/internal/domain/auth"
	"github.com/fiberq/fiberq-web/internal/service"
)

// SessionResolver turns a session cookie value into its current view, refreshing tokens as needed.
type SessionResolver interface {
	GetSessionView(ctx context.Context, sessionID string) (domainauth.SessionView, error)
}

// sessionKey is an unexported context key type to avoid collisions across packages.
type sessionKey struct{}

// sessionMemo resolves the request's session at most once, on first use.
// Requests that never ask for the session never touch the store.
type sessionMemo struct {
	once     sync.Once
	resolver SessionResolver
	id       string
	logger   *slog.Logger

	view domainauth.SessionView
	ok   bool
}

func (m *sessionMemo) resolve(ctx context.Context) (domainauth.SessionView, bool) {
	m.once.Do(func() {
		if m.id == "" || m.resolver == nil {
			return
		}
		view, err := m.resolver.GetSessionView(ctx, m.id)
		if err != nil {
			if !errors.Is(err, service.ErrSessionNotFound) && !errors.Is(err, service.ErrSessionExpired) {
				m.logger.WarnContext(ctx, "resolve session failed", "error", err)
			}
			return
		}
		m.view, m.ok = view, true
	})
	return m.view, m.ok
}

// withSessionMemo returns a child context carrying a lazy session lookup for sessionID.
func withSessionMemo(ctx context.Context, m *sessionMemo) context.Context {
	return context.WithValue(ctx, sessionKey{}, m)
}

// SessionFromContext returns the request's session view and whether the request is authenticated.
// A view whose refresh failed still counts as authenticated; check Usable before trusting its token.
func SessionFromContext(ctx context.Context) (domainauth.SessionView, bool) {
	m, ok := ctx.Value(sessionKey{}).(*sessionMemo)
	if !ok || m == nil {
		return domainauth.SessionView{}, false
	}
	return m.resolve(ctx)
}

// IsAuthenticated reports whether r carries a session cookie that resolves to a stored session.
func IsAuthenticated(r *http.Request) bool {
	_, ok := SessionFromContext(r.Context())
	return ok
}

type localeKey struct{}

// SetLocaleInContext returns a child context carrying the active locale.
func SetLocaleInContext(ctx context.Context, locale string) context.Context {
	if locale == "" {
		return ctx
	}
	return context.WithValue(ctx, localeKey{}, locale)
}

// LocaleFromContext returns the locale chosen by LocaleRouter, or "" outside locale routes.
func LocaleFromContext(ctx context.Context) string {
	if l, ok := ctx.Value(localeKey{}).(string); ok {
		return l
	}
	return ""
}
