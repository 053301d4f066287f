package ports

// Package ports defines interfaces (hexagonal ports) for auth-related behavior.
// Implementations live in internal/adapters; orchestration in internal/service.

import (
	"context"
	"errors"

	domainauth "github.com/fiberq/fiberq-web/internal/domain/auth"
)

// BeginInput carries inputs for initiating an auth flow.
type BeginInput struct {
	RedirectURL string
}

// AuthProvider initiates and completes an authentication flow against an IdP.
type AuthProvider interface {
	// Begin starts the login flow and returns the provider auth URL, an opaque state, and a nonce.
	Begin(ctx context.Context, in BeginInput) (authURL, state, nonce string, err error)

	// Exchange completes the login flow, verifying state and nonce, and returns the authenticated identity
	// together with the raw provider tokens.
	Exchange(ctx context.Context, in ExchangeInput) (domainauth.Identity, error)
}

// ExchangeInput groups parameters for the code/token exchange.
type ExchangeInput struct {
	Code  string
	State string
	Nonce string
}

// TokenRefresher performs a grant_type=refresh_token exchange with the provider.
// Any non-success outcome is returned as an error; callers convert it to session state.
type TokenRefresher interface {
	Refresh(ctx context.Context, refreshToken string) (domainauth.TokenResponse, error)
}

// EndSessionURLBuilder builds the provider logout URL for RP-initiated logout.
// An empty result means the provider advertises no end-session endpoint.
type EndSessionURLBuilder interface {
	EndSessionURL(idToken, postLogoutRedirect string) string
}

// UserInfoFetcher reads the provider userinfo endpoint with a bearer token.
type UserInfoFetcher interface {
	UserInfo(ctx context.Context, accessToken string) (map[string]any, error)
}

// ErrSessionNotFound is matched (errors.Is) by store errors for missing sessions.
var ErrSessionNotFound = errors.New("session not found")

// SessionStore persists and retrieves session records.
// Get returns an error matching ErrSessionNotFound when id is unknown.
type SessionStore interface {
	Save(ctx context.Context, rec domainauth.SessionRecord) error
	Get(ctx context.Context, id string) (domainauth.SessionRecord, error)
	Delete(ctx context.Context, id string) error
}

// RoleExtractor derives application roles from a claims map. Implementations must be total.
type RoleExtractor interface {
	Extract(claims map[string]any) []string
}

// LoginRecorder notifies the backend of a completed sign-in.
type LoginRecorder interface {
	RecordLogin(ctx context.Context, accessToken string) error
}
