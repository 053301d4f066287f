package config

import (
	"fmt"
	"strings"
	"time"
)

// AuthMode represents the authentication mode for the application.
type AuthMode string

const (
	// AuthModeOAuth uses OAuth/OIDC for authentication.
	AuthModeOAuth AuthMode = "oauth"
	// AuthModeMock uses mock/dev authentication (for development only).
	AuthModeMock AuthMode = "mock"
)

// UnmarshalText implements encoding.TextUnmarshaler for AuthMode.
func (a *AuthMode) UnmarshalText(text []byte) error {
	v := strings.ToLower(string(text))
	switch v {
	case "oauth", "mock":
		*a = AuthMode(v)
		return nil
	default:
		return fmt.Errorf("invalid AuthMode: %q (valid options: oauth, mock)", v)
	}
}

// OAuthConfig contains OAuth/OIDC configuration.
type OAuthConfig struct {
	ClientID     string `env:"CLIENT_ID"     envDefault:"fiberq-web"`
	ClientSecret string `env:"CLIENT_SECRET"`
	RedirectURL  string `env:"REDIRECT_URL"  envDefault:"http://localhost:8080/api/auth/callback"`
	Scope        string `env:"SCOPE"         envDefault:"openid profile email groups"`
	// DiscoveryURL is the issuer (or its .well-known document URL), e.g. https://idm.example.com/oauth2/openid/fiberq-web.
	DiscoveryURL string `env:"DISCOVERY_URL"`
	// TokenURL overrides the discovered token endpoint, e.g. https://idm.example.com/oauth2/token.
	TokenURL string `env:"TOKEN_URL"`
	// PostLogoutRedirectURL is sent as post_logout_redirect_uri on sign-out.
	PostLogoutRedirectURL string `env:"POST_LOGOUT_REDIRECT_URL" envDefault:"http://localhost:8080/"`
}

// DevAuthConfig controls mock/dev authentication identity.
// Used when AUTH_MODE=mock for development and testing.
type DevAuthConfig struct {
	UserID   string        `env:"USER_ID"   envDefault:"dev-user"`
	Email    string        `env:"EMAIL"     envDefault:"dev@example.com"`
	Name     string        `env:"NAME"      envDefault:"Dev User"`
	Roles    []string      `env:"ROLES"     envDefault:"admin"          envSeparator:";"`
	TokenTTL time.Duration `env:"TOKEN_TTL" envDefault:"1h"`
}

// AuthConfig groups all authentication-related configuration.
type AuthConfig struct {
	// Mode determines which authentication provider to use.
	Mode AuthMode `env:"AUTH_MODE" envDefault:"oauth"`

	// OAuth configuration (used when Mode=oauth).
	OAuth OAuthConfig `envPrefix:"OAUTH_"`

	// DevAuth configuration (used when Mode=mock).
	DevAuth DevAuthConfig `envPrefix:"DEV_AUTH_"`

	// RolePrefix marks provider groups that are FiberQ roles.
	RolePrefix string `env:"AUTH_ROLE_PREFIX" envDefault:"fiberq_"`

	// RoleClaimPath is a JMESPath expression selecting the group list; empty means "groups".
	RoleClaimPath string `env:"AUTH_ROLE_CLAIM_PATH"`

	// RefreshTimeout bounds each refresh_token exchange.
	RefreshTimeout time.Duration `env:"AUTH_REFRESH_TIMEOUT" envDefault:"5s"`

	// SessionMaxAge is how long a session lives after sign-in.
	SessionMaxAge time.Duration `env:"AUTH_SESSION_MAX_AGE" envDefault:"720h"`
}

const (
	minRefreshTimeout = 500 * time.Millisecond
	maxRefreshTimeout = 30 * time.Second
)

// Sanitize applies guardrails to auth configuration values.
func (a *AuthConfig) Sanitize() {
	if a.RefreshTimeout < minRefreshTimeout {
		a.RefreshTimeout = minRefreshTimeout
	}
	if a.RefreshTimeout > maxRefreshTimeout {
		a.RefreshTimeout = maxRefreshTimeout
	}
	if a.SessionMaxAge <= 0 {
		a.SessionMaxAge = 30 * 24 * time.Hour
	}
	a.RoleClaimPath = strings.TrimSpace(a.RoleClaimPath)
	if a.DevAuth.TokenTTL < time.Minute {
		a.DevAuth.TokenTTL = time.Minute
	}
}
