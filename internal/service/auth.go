package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	domainauth "github.com/fiberq/fiberq-web/internal/domain/auth"
	"github.com/fiberq/fiberq-web/internal/observability/statsd"
	"github.com/fiberq/fiberq-web/internal/ports"
)

const (
	defaultSessionMaxAge      = 30 * 24 * time.Hour
	defaultRecordLoginTimeout = 5 * time.Second
)

var (
	// ErrSessionNotFound is returned when the session id resolves to no record.
	ErrSessionNotFound = ports.ErrSessionNotFound
	// ErrSessionExpired is returned when the session outlived its maximum age.
	ErrSessionExpired = errors.New("session expired")
)

// AuthServiceConfig holds tunables for AuthService.
type AuthServiceConfig struct {
	SessionMaxAge      time.Duration // default 30 days
	RecordLoginTimeout time.Duration // default 5s
}

// AuthServiceOptions groups dependencies for AuthService.
type AuthServiceOptions struct {
	Provider  ports.AuthProvider   // Required
	Refresher ports.TokenRefresher // Required
	Sessions  ports.SessionStore   // Required
	Roles     ports.RoleExtractor  // Required

	EndSession ports.EndSessionURLBuilder // Optional: RP-initiated logout
	UserInfo   ports.UserInfoFetcher      // Optional
	Recorder   ports.LoginRecorder        // Optional: login-event notification

	Config  AuthServiceConfig
	Logger  *slog.Logger // Optional: structured logger
	Metrics statsd.Sink  // Optional
}

// AuthService orchestrates sign-in, lazy token refresh, and sign-out.
// Sessions live in a shared store, so concurrent refreshes of one session are collapsed.
type AuthService struct {
	provider   ports.AuthProvider
	sessions   ports.SessionStore
	roles      ports.RoleExtractor
	endSession ports.EndSessionURLBuilder
	userInfo   ports.UserInfoFetcher
	recorder   ports.LoginRecorder

	refresh *TokenRefresh
	flight  singleflight.Group
	pending sync.WaitGroup

	cfg    AuthServiceConfig
	logger *slog.Logger
	now    func() time.Time
}

// NewAuthService constructs a new AuthService.
func NewAuthService(opts AuthServiceOptions) *AuthService {
	if opts.Provider == nil {
		panic("AuthProvider is required")
	}
	if opts.Sessions == nil {
		panic("SessionStore is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	cfg := opts.Config
	if cfg.SessionMaxAge <= 0 {
		cfg.SessionMaxAge = defaultSessionMaxAge
	}
	if cfg.RecordLoginTimeout <= 0 {
		cfg.RecordLoginTimeout = defaultRecordLoginTimeout
	}

	return &AuthService{
		provider:   opts.Provider,
		sessions:   opts.Sessions,
		roles:      opts.Roles,
		endSession: opts.EndSession,
		userInfo:   opts.UserInfo,
		recorder:   opts.Recorder,
		refresh: NewTokenRefresh(TokenRefreshOptions{
			Refresher: opts.Refresher,
			Roles:     opts.Roles,
			Logger:    logger,
			Metrics:   opts.Metrics,
		}),
		cfg:    cfg,
		logger: logger,
		now:    time.Now,
	}
}

// BeginLoginResult contains the result of beginning a login flow.
type BeginLoginResult struct {
	AuthURL string
	State   string
	Nonce   string
}

// BeginLogin initiates an authentication flow and returns the provider auth URL with state and nonce.
func (s *AuthService) BeginLogin(ctx context.Context, redirectURL string) (*BeginLoginResult, error) {
	if redirectURL == "" {
		return nil, errors.New("redirect URL is required")
	}

	authURL, state, nonce, err := s.provider.Begin(ctx, ports.BeginInput{RedirectURL: redirectURL})
	if err != nil {
		return nil, fmt.Errorf("begin auth flow: %w", err)
	}

	return &BeginLoginResult{
		AuthURL: authURL,
		State:   state,
		Nonce:   nonce,
	}, nil
}

// CompleteLoginInput groups parameters for completing a login flow.
type CompleteLoginInput struct {
	Code  string
	State string
	Nonce string
}

// CompleteLoginResult contains the result of completing a login flow.
type CompleteLoginResult struct {
	Session domainauth.SessionRecord
}

// CompleteLogin exchanges the code for provider tokens, extracts roles, and persists a new session.
// The backend is notified of the sign-in in the background; that call never affects the result.
func (s *AuthService) CompleteLogin(ctx context.Context, input CompleteLoginInput) (*CompleteLoginResult, error) {
	if input.Code == "" {
		return nil, errors.New("authorization code is required")
	}
	if input.State == "" {
		return nil, errors.New("state parameter is required")
	}
	if input.Nonce == "" {
		return nil, errors.New("nonce parameter is required")
	}

	identity, err := s.provider.Exchange(ctx, ports.ExchangeInput{
		Code:  input.Code,
		State: input.State,
		Nonce: input.Nonce,
	})
	if err != nil {
		return nil, fmt.Errorf("exchange authorization code: %w", err)
	}

	now := s.now()
	rec := domainauth.SessionRecord{
		ID:               generateSessionID(),
		UserID:           identity.UserID,
		Email:            identity.Email,
		Name:             identity.Name,
		AccessToken:      identity.AccessToken,
		RefreshToken:     identity.RefreshToken,
		IDToken:          identity.IDToken,
		Roles:            s.signInRoles(identity),
		CreatedAt:        now,
		SessionExpiresAt: now.Add(s.cfg.SessionMaxAge),
	}
	if !identity.ExpiresAt.IsZero() {
		rec.ExpiresAt = identity.ExpiresAt.Unix()
	}

	if saveErr := s.sessions.Save(ctx, rec); saveErr != nil {
		return nil, fmt.Errorf("save session: %w", saveErr)
	}

	s.recordLogin(rec)

	return &CompleteLoginResult{Session: rec}, nil
}

// signInRoles prefers the ID token claims and falls back to the access token.
func (s *AuthService) signInRoles(identity domainauth.Identity) []string {
	claims := identity.IDClaims
	if len(claims) == 0 {
		claims = domainauth.DecodeClaims(identity.IDToken)
	}
	if roles := s.roles.Extract(claims); len(roles) > 0 {
		return roles
	}
	return s.roles.Extract(domainauth.DecodeClaims(identity.AccessToken))
}

func (s *AuthService) recordLogin(rec domainauth.SessionRecord) {
	if s.recorder == nil || rec.AccessToken == "" {
		return
	}
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		defer func() {
			if r := recover(); r != nil {
				s.logger.Error("record login panicked", "session_id", rec.ID, "panic", r)
			}
		}()
		ctx, cancel := context.WithTimeout(context.Background(), s.cfg.RecordLoginTimeout)
		defer cancel()
		if err := s.recorder.RecordLogin(ctx, rec.AccessToken); err != nil {
			s.logger.Debug("record login failed", "user_id", rec.UserID, "error", err)
		}
	}()
}

// Wait blocks until background login notifications finish or ctx ends.
func (s *AuthService) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.pending.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// GetSession loads a session and applies the lazy refresh check.
// A failed refresh is not an error: the record comes back with Error set.
func (s *AuthService) GetSession(ctx context.Context, sessionID string) (domainauth.SessionRecord, error) {
	rec, err := s.load(ctx, sessionID)
	if err != nil {
		return domainauth.SessionRecord{}, err
	}
	if rec.State(s.now()) != domainauth.StateStale {
		return rec, nil
	}

	v, err, _ := s.flight.Do(sessionID, func() (any, error) {
		return s.refreshStored(context.WithoutCancel(ctx), sessionID)
	})
	if err != nil {
		return domainauth.SessionRecord{}, err
	}
	out, _ := v.(domainauth.SessionRecord)
	out.Roles = cloneRoles(out.Roles)
	return out, nil
}

// refreshStored re-reads the record so a caller that lost the race to another
// instance sees its result instead of spending the refresh token again.
func (s *AuthService) refreshStored(ctx context.Context, sessionID string) (domainauth.SessionRecord, error) {
	cur, err := s.load(ctx, sessionID)
	if err != nil {
		return domainauth.SessionRecord{}, err
	}
	next, state := s.refresh.Apply(ctx, cur)
	if state == domainauth.StateFresh {
		return cur, nil
	}
	if saveErr := s.sessions.Save(ctx, next); saveErr != nil {
		s.logger.WarnContext(ctx, "persist refreshed session failed",
			"session_id", sessionID,
			"state", string(state),
			"error", saveErr)
	}
	return next, nil
}

func (s *AuthService) load(ctx context.Context, sessionID string) (domainauth.SessionRecord, error) {
	if sessionID == "" {
		return domainauth.SessionRecord{}, ErrSessionNotFound
	}
	rec, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return domainauth.SessionRecord{}, fmt.Errorf("get session: %w", err)
	}
	if !rec.SessionExpiresAt.IsZero() && s.now().After(rec.SessionExpiresAt) {
		if deleteErr := s.sessions.Delete(ctx, sessionID); deleteErr != nil {
			return domainauth.SessionRecord{}, errors.Join(ErrSessionExpired, fmt.Errorf("delete session: %w", deleteErr))
		}
		return domainauth.SessionRecord{}, ErrSessionExpired
	}
	return rec, nil
}

// GetSessionView resolves the session and returns its external projection.
func (s *AuthService) GetSessionView(ctx context.Context, sessionID string) (domainauth.SessionView, error) {
	rec, err := s.GetSession(ctx, sessionID)
	if err != nil {
		return domainauth.SessionView{}, err
	}
	return rec.Materialize(), nil
}

// UserInfo fetches provider profile claims for view's bearer token.
func (s *AuthService) UserInfo(ctx context.Context, view domainauth.SessionView) (map[string]any, error) {
	if s.userInfo == nil {
		return nil, errors.New("user info is not supported by the provider")
	}
	if view.BearerToken == "" {
		return nil, errors.New("session has no bearer token")
	}
	return s.userInfo.UserInfo(ctx, view.BearerToken)
}

// LogoutResult carries where the browser should go after sign-out.
type LogoutResult struct {
	// EndSessionURL is the provider logout URL, empty when the provider has none.
	EndSessionURL string
}

// Logout removes a session and builds the provider end-session URL from its ID token.
func (s *AuthService) Logout(ctx context.Context, sessionID, postLogoutRedirect string) (*LogoutResult, error) {
	res := &LogoutResult{}
	if sessionID == "" {
		return res, nil
	}

	rec, err := s.sessions.Get(ctx, sessionID)
	if err != nil && !errors.Is(err, ErrSessionNotFound) {
		s.logger.WarnContext(ctx, "load session for logout failed", "error", err)
	}

	if deleteErr := s.sessions.Delete(ctx, sessionID); deleteErr != nil {
		return nil, fmt.Errorf("delete session: %w", deleteErr)
	}

	if s.endSession != nil && err == nil && rec.IDToken != "" {
		res.EndSessionURL = s.endSession.EndSessionURL(rec.IDToken, postLogoutRedirect)
	}
	return res, nil
}

// generateSessionID creates a cryptographically secure random session ID.
func generateSessionID() string {
	// Use UUID for session ID - it's URL-safe and has good entropy
	return uuid.New().String()
}
