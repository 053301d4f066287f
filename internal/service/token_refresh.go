package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	domainauth "github.com/fiberq/fiberq-web/internal/domain/auth"
	"github.com/fiberq/fiberq-web/internal/observability/statsd"
	"github.com/fiberq/fiberq-web/internal/ports"
)

// errShortExpiry rejects token responses whose lifetime would not move ExpiresAt forward.
var errShortExpiry = errors.New("token response expires_in below one second")

// TokenRefreshOptions groups dependencies for TokenRefresh.
type TokenRefreshOptions struct {
	Refresher ports.TokenRefresher // Required
	Roles     ports.RoleExtractor  // Required
	Logger    *slog.Logger         // Optional: structured logger
	Metrics   statsd.Sink          // Optional: refresh outcome counters
}

// TokenRefresh runs the lazy refresh protocol against a single session record.
// It never returns an error: every failure is folded into SessionRecord.Error.
type TokenRefresh struct {
	refresher ports.TokenRefresher
	roles     ports.RoleExtractor
	logger    *slog.Logger
	metrics   statsd.Sink
	now       func() time.Time
}

// NewTokenRefresh constructs a TokenRefresh.
func NewTokenRefresh(opts TokenRefreshOptions) *TokenRefresh {
	if opts.Refresher == nil {
		panic("TokenRefresher is required")
	}
	if opts.Roles == nil {
		panic("RoleExtractor is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &TokenRefresh{
		refresher: opts.Refresher,
		roles:     opts.Roles,
		logger:    logger,
		metrics:   opts.Metrics,
		now:       time.Now,
	}
}

// Apply refreshes rec when its access token is stale at the current time.
// It returns the resulting record and one of StateFresh (nothing to do),
// StateRefreshed or StateRefreshFailed. rec itself is never mutated.
func (t *TokenRefresh) Apply(ctx context.Context, rec domainauth.SessionRecord) (domainauth.SessionRecord, domainauth.RefreshState) {
	start := t.now()
	if rec.State(start) != domainauth.StateStale {
		return rec, domainauth.StateFresh
	}

	resp, err := t.refresher.Refresh(ctx, rec.RefreshToken)
	if err == nil && resp.ExpiresIn < time.Second {
		err = errShortExpiry
	}
	if err != nil {
		t.logger.WarnContext(ctx, "token refresh failed",
			"session_id", rec.ID,
			"user_id", rec.UserID,
			"error", err)
		failed := rec
		failed.Roles = cloneRoles(rec.Roles)
		failed.Error = domainauth.RefreshTokenError
		t.observe(domainauth.StateRefreshFailed, start)
		return failed, domainauth.StateRefreshFailed
	}

	next := rec
	next.AccessToken = resp.AccessToken
	next.ExpiresAt = start.Add(resp.ExpiresIn).Unix()
	if resp.RefreshToken != "" {
		next.RefreshToken = resp.RefreshToken
	}
	if resp.IDToken != "" {
		next.IDToken = resp.IDToken
	}
	// An empty extraction means the new token carries no role claims this round.
	if roles := t.roles.Extract(domainauth.DecodeClaims(resp.AccessToken)); len(roles) > 0 {
		next.Roles = roles
	} else {
		next.Roles = cloneRoles(rec.Roles)
	}
	next.Error = ""

	t.logger.DebugContext(ctx, "token refreshed",
		"session_id", rec.ID,
		"expires_at", next.ExpiresAt)
	t.observe(domainauth.StateRefreshed, start)
	return next, domainauth.StateRefreshed
}

func (t *TokenRefresh) observe(state domainauth.RefreshState, start time.Time) {
	if t.metrics == nil {
		return
	}
	tags := map[string]string{"outcome": string(state)}
	t.metrics.Count("auth.token_refresh", 1, tags)
	t.metrics.Timing("auth.token_refresh.duration", t.now().Sub(start), tags)
}

func cloneRoles(roles []string) []string {
	if roles == nil {
		return nil
	}
	out := make([]string, len(roles))
	copy(out, roles)
	return out
}
