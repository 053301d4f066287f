package devauth

// Package devauth provides a config-driven AuthProvider for local development.
// It mints HS256 tokens shaped like the real provider's so role extraction,
// lazy refresh and sign-out all run without an identity provider.

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	domainauth "github.com/fiberq/fiberq-web/internal/domain/auth"
	"github.com/fiberq/fiberq-web/internal/ports"
)

const (
	defaultTokenTTL = time.Hour
	issuer          = "fiberq-devauth"
	tokenUseClaim   = "token_use"
)

// CallbackPath is where Begin sends the browser back to.
const CallbackPath = "/api/auth/callback"

var (
	_ ports.AuthProvider         = (*Provider)(nil)
	_ ports.TokenRefresher       = (*Provider)(nil)
	_ ports.EndSessionURLBuilder = (*Provider)(nil)
	_ ports.UserInfoFetcher      = (*Provider)(nil)
)

// ErrInvalidToken is returned when a token was not minted by this provider.
var ErrInvalidToken = errors.New("dev auth: invalid token")

// Config controls the dev auth provider behavior.
// UserID and Email are required; Roles are bare role names and may be empty.
type Config struct {
	UserID     string
	Email      string
	Name       string
	Roles      []string
	RolePrefix string        // default domainauth.RolePrefix
	TokenTTL   time.Duration // access token lifetime, default 1h
	SigningKey []byte        // random per process when empty
}

// Provider implements the auth ports for local development.
// Begin short-circuits the OAuth flow by redirecting straight to our own callback.
type Provider struct {
	cfg Config
	key []byte

	mu    sync.Mutex
	nonce map[string]string // state -> nonce, so Exchange can echo the nonce into the id token
}

// NewProvider constructs a dev auth provider from Config.
func NewProvider(cfg Config) (*Provider, error) {
	if cfg.UserID == "" {
		return nil, errors.New("dev auth: UserID is required")
	}
	if cfg.Email == "" {
		return nil, errors.New("dev auth: Email is required")
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = defaultTokenTTL
	}
	if cfg.RolePrefix == "" {
		cfg.RolePrefix = domainauth.RolePrefix
	}
	if cfg.Name == "" {
		cfg.Name = cfg.UserID
	}
	cfg.Roles = append([]string(nil), cfg.Roles...)

	key := cfg.SigningKey
	if len(key) == 0 {
		key = make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			return nil, fmt.Errorf("dev auth: generate signing key: %w", err)
		}
	}
	return &Provider{cfg: cfg, key: key, nonce: make(map[string]string)}, nil
}

// Begin returns a local callback URL and cryptographically secure state and nonce.
func (p *Provider) Begin(_ context.Context, _ ports.BeginInput) (string, string, string, error) {
	state, err := randomString(24)
	if err != nil {
		return "", "", "", fmt.Errorf("generate state: %w", err)
	}
	nonce, err := randomString(24)
	if err != nil {
		return "", "", "", fmt.Errorf("generate nonce: %w", err)
	}
	p.mu.Lock()
	p.nonce[state] = nonce
	p.mu.Unlock()

	q := url.Values{}
	q.Set("code", "dev")
	q.Set("state", state)
	return CallbackPath + "?" + q.Encode(), state, nonce, nil
}

// Exchange ignores the code and returns the configured identity with freshly minted tokens.
// State is checked by the handler; the nonce must match the one issued by Begin when known.
func (p *Provider) Exchange(_ context.Context, in ports.ExchangeInput) (domainauth.Identity, error) {
	p.mu.Lock()
	issued, known := p.nonce[in.State]
	delete(p.nonce, in.State)
	p.mu.Unlock()
	if known && issued != in.Nonce {
		return domainauth.Identity{}, errors.New("dev auth: invalid nonce")
	}

	now := time.Now()
	access, err := p.mint(p.claims(now, "access"))
	if err != nil {
		return domainauth.Identity{}, err
	}
	refresh, err := p.mint(p.refreshClaims(now))
	if err != nil {
		return domainauth.Identity{}, err
	}
	idClaims := p.claims(now, "id")
	idClaims["nonce"] = in.Nonce
	idToken, err := p.mint(idClaims)
	if err != nil {
		return domainauth.Identity{}, err
	}

	return domainauth.Identity{
		UserID:       p.cfg.UserID,
		Email:        p.cfg.Email,
		Name:         p.cfg.Name,
		AccessToken:  access,
		RefreshToken: refresh,
		IDToken:      idToken,
		ExpiresAt:    now.Add(p.cfg.TokenTTL),
		IDClaims:     map[string]any(idClaims),
	}, nil
}

// Refresh validates a refresh token minted by Exchange and issues a new access token.
// The refresh token is not rotated.
func (p *Provider) Refresh(_ context.Context, refreshToken string) (domainauth.TokenResponse, error) {
	claims, err := p.parse(refreshToken)
	if err != nil {
		return domainauth.TokenResponse{}, err
	}
	if use, _ := claims[tokenUseClaim].(string); use != "refresh" {
		return domainauth.TokenResponse{}, ErrInvalidToken
	}

	access, err := p.mint(p.claims(time.Now(), "access"))
	if err != nil {
		return domainauth.TokenResponse{}, err
	}
	return domainauth.TokenResponse{AccessToken: access, ExpiresIn: p.cfg.TokenTTL}, nil
}

// EndSessionURL returns "" because there is no provider session to end.
func (p *Provider) EndSessionURL(string, string) string { return "" }

// UserInfo returns the claims of an access token minted by this provider.
func (p *Provider) UserInfo(_ context.Context, accessToken string) (map[string]any, error) {
	claims, err := p.parse(accessToken)
	if err != nil {
		return nil, err
	}
	return map[string]any(claims), nil
}

func (p *Provider) claims(now time.Time, use string) jwt.MapClaims {
	groups := make([]string, 0, len(p.cfg.Roles))
	for _, r := range p.cfg.Roles {
		groups = append(groups, p.cfg.RolePrefix+r)
	}
	claims := jwt.MapClaims{
		"iss":                issuer,
		"sub":                p.cfg.UserID,
		"aud":                issuer,
		"email":              p.cfg.Email,
		"name":               p.cfg.Name,
		"preferred_username": p.cfg.UserID,
		tokenUseClaim:        use,
		"iat":                now.Unix(),
		"exp":                now.Add(p.cfg.TokenTTL).Unix(),
	}
	claims[domainauth.GroupsClaim] = groups
	return claims
}

func (p *Provider) refreshClaims(now time.Time) jwt.MapClaims {
	jti, _ := randomString(16)
	return jwt.MapClaims{
		"iss":         issuer,
		"sub":         p.cfg.UserID,
		tokenUseClaim: "refresh",
		"iat":         now.Unix(),
		"jti":         jti,
	}
}

func (p *Provider) mint(claims jwt.MapClaims) (string, error) {
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(p.key)
	if err != nil {
		return "", fmt.Errorf("dev auth: sign token: %w", err)
	}
	return s, nil
}

func (p *Provider) parse(raw string) (jwt.MapClaims, error) {
	if raw == "" {
		return nil, ErrInvalidToken
	}
	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return p.key, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithIssuer(issuer))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	return claims, nil
}

func randomString(n int) (string, error) {
	if n <= 0 {
		return "", nil
	}
	// Compute number of random bytes needed to produce at least n base64 URL chars
	bLen := (n*3 + 3) / 4
	b := make([]byte, bLen)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	s := base64.RawURLEncoding.EncodeToString(b)
	for len(s) < n {
		extra := make([]byte, 1)
		if _, err := rand.Read(extra); err != nil {
			return "", err
		}
		s += base64.RawURLEncoding.EncodeToString(extra)
	}
	return s[:n], nil
}
