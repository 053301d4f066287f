package httpx

import (
	"context"
	"net/http"
	"sync/atomic"

	domainauth "github.com/fiberq/fiberq-web/internal/domain/auth"
	"github.com/fiberq/fiberq-web/internal/service"
)

// fakeAuthService is a test double for service.AuthService.
type fakeAuthService struct {
	beginLoginFunc    func(ctx context.Context, redirectURL string) (*service.BeginLoginResult, error)
	completeLoginFunc func(ctx context.Context, input service.CompleteLoginInput) (*service.CompleteLoginResult, error)
	getSessionFunc    func(ctx context.Context, sessionID string) (domainauth.SessionView, error)
	userInfoFunc      func(ctx context.Context, view domainauth.SessionView) (map[string]any, error)
	logoutFunc        func(ctx context.Context, sessionID, postLogoutRedirect string) (*service.LogoutResult, error)

	lookups atomic.Int32
}

func (f *fakeAuthService) BeginLogin(ctx context.Context, redirectURL string) (*service.BeginLoginResult, error) {
	if f.beginLoginFunc != nil {
		return f.beginLoginFunc(ctx, redirectURL)
	}
	return &service.BeginLoginResult{
		AuthURL: "https://idp.example.com/auth?state=test-state&nonce=test-nonce",
		State:   "test-state",
		Nonce:   "test-nonce",
	}, nil
}

func (f *fakeAuthService) CompleteLogin(
	ctx context.Context,
	input service.CompleteLoginInput,
) (*service.CompleteLoginResult, error) {
	if f.completeLoginFunc != nil {
		return f.completeLoginFunc(ctx, input)
	}
	return &service.CompleteLoginResult{Session: domainauth.SessionRecord{ID: "test-session-id", UserID: "test-user"}}, nil
}

func (f *fakeAuthService) GetSessionView(ctx context.Context, sessionID string) (domainauth.SessionView, error) {
	f.lookups.Add(1)
	if f.getSessionFunc != nil {
		return f.getSessionFunc(ctx, sessionID)
	}
	return domainauth.SessionView{}, service.ErrSessionNotFound
}

func (f *fakeAuthService) UserInfo(ctx context.Context, view domainauth.SessionView) (map[string]any, error) {
	if f.userInfoFunc != nil {
		return f.userInfoFunc(ctx, view)
	}
	return map[string]any{"sub": view.UserID}, nil
}

func (f *fakeAuthService) Logout(
	ctx context.Context,
	sessionID, postLogoutRedirect string,
) (*service.LogoutResult, error) {
	if f.logoutFunc != nil {
		return f.logoutFunc(ctx, sessionID, postLogoutRedirect)
	}
	return &service.LogoutResult{}, nil
}

// signedIn returns a fake whose only valid session id is "sid" with the given view.
func signedIn(view domainauth.SessionView) *fakeAuthService {
	return &fakeAuthService{
		getSessionFunc: func(_ context.Context, id string) (domainauth.SessionView, error) {
			if id != "sid" {
				return domainauth.SessionView{}, service.ErrSessionNotFound
			}
			return view, nil
		},
	}
}

// withSession wraps h in ResolveSession so handlers can read the memo.
func withSession(svc SessionResolver, h http.Handler) http.Handler {
	return ResolveSession(svc, nil)(h)
}

func sessionCookie() *http.Cookie {
	return &http.Cookie{Name: sessionCookieName, Value: "sid"}
}

func findCookie(cookies []*http.Cookie, name string) *http.Cookie {
	for _, c := range cookies {
		if c.Name == name {
			return c
		}
	}
	return nil
}
