package auth

// Package auth contains domain-level types for authentication and sessions.
// It is pure and free of framework/adapter concerns.

import "time"

// Role represents a FiberQ authorization role.
// Roles arrive as provider group claims carrying RolePrefix; the stored form is the bare name.
type Role string

const (
	RoleAdmin          Role = "admin"
	RoleProjectManager Role = "project_manager"
	RoleEngineer       Role = "engineer"
	RoleFieldWorker    Role = "field_worker"
)

// RefreshTokenError is the sentinel stored in SessionRecord.Error after a failed refresh.
const RefreshTokenError = "RefreshTokenError"

// Identity represents the authenticated principal returned by an IdP after a code exchange.
// Token fields hold the raw provider-issued values.
type Identity struct {
	UserID       string
	Email        string
	Name         string
	AccessToken  string
	RefreshToken string
	IDToken      string
	ExpiresAt    time.Time      // absolute expiry of AccessToken
	IDClaims     map[string]any // verified ID token claims, may be nil
}

// TokenResponse is the subset of a token endpoint response the refresh protocol consumes.
// Empty RefreshToken/IDToken mean the provider did not return them.
type TokenResponse struct {
	AccessToken  string
	RefreshToken string
	IDToken      string
	ExpiresIn    time.Duration
}

// SessionRecord is the server-side token store entry for one signed-in browser.
// It is owned by the session store and mutated only at sign-in and by the refresh protocol.
type SessionRecord struct {
	ID           string   `json:"id"`
	UserID       string   `json:"user_id"`
	Email        string   `json:"email"`
	Name         string   `json:"name"`
	AccessToken  string   `json:"access_token"`
	RefreshToken string   `json:"refresh_token"`
	IDToken      string   `json:"id_token"`
	ExpiresAt    int64    `json:"expires_at"` // seconds since epoch
	Roles        []string `json:"roles"`
	Error        string   `json:"error,omitempty"`

	CreatedAt        time.Time `json:"created_at"`
	SessionExpiresAt time.Time `json:"session_expires_at"`
}

// RefreshState names the positions of the lazy token refresh state machine.
type RefreshState string

const (
	StateFresh         RefreshState = "fresh"
	StateStale         RefreshState = "stale"
	StateRefreshing    RefreshState = "refreshing"
	StateRefreshed     RefreshState = "refreshed"
	StateRefreshFailed RefreshState = "refresh_failed"
)

// State reports whether the access token is still usable at now.
// A zero ExpiresAt never goes stale.
func (s SessionRecord) State(now time.Time) RefreshState {
	if s.ExpiresAt != 0 && now.Unix() >= s.ExpiresAt {
		return StateStale
	}
	return StateFresh
}

// HasError reports whether the last refresh attempt failed.
func (s SessionRecord) HasError() bool { return s.Error != "" }

// SessionView is the externally visible projection of a SessionRecord.
// It never carries the refresh token.
type SessionView struct {
	UserID      string   `json:"user_id"`
	Email       string   `json:"email,omitempty"`
	Name        string   `json:"name,omitempty"`
	BearerToken string   `json:"access_token"`
	IDToken     string   `json:"id_token,omitempty"`
	Roles       []string `json:"roles"`
	Error       string   `json:"error,omitempty"`
}

// Materialize projects the record into a SessionView without mutating it.
func (s SessionRecord) Materialize() SessionView {
	roles := make([]string, len(s.Roles))
	copy(roles, s.Roles)
	return SessionView{
		UserID:      s.UserID,
		Email:       s.Email,
		Name:        s.Name,
		BearerToken: s.AccessToken,
		IDToken:     s.IDToken,
		Roles:       roles,
		Error:       s.Error,
	}
}

// Usable reports whether callers may send BearerToken to the backend.
func (v SessionView) Usable() bool { return v.BearerToken != "" && v.Error == "" }
