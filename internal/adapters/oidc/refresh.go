package oidc

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/oauth2"

	domainauth "github.com/fiberq/fiberq-web/internal/domain/auth"
	"github.com/fiberq/fiberq-web/internal/ports"
)

const defaultRefreshTimeout = 5 * time.Second

var (
	// ErrNoRefreshToken is returned when the session holds no refresh token.
	ErrNoRefreshToken = errors.New("no refresh token")
	// ErrRefreshRejected wraps non-success responses from the token endpoint.
	ErrRefreshRejected = errors.New("refresh rejected by provider")
	// ErrMalformedTokenResponse is returned when a success response lacks a usable expiry.
	ErrMalformedTokenResponse = errors.New("malformed token response")
)

var _ ports.TokenRefresher = (*Refresher)(nil)

// RefresherConfig configures a Refresher.
type RefresherConfig struct {
	ClientID     string
	ClientSecret string
	TokenURL     string
	Timeout      time.Duration // default 5s
	HTTPClient   *http.Client
	// Breaker overrides the circuit breaker settings; zero value uses defaults.
	Breaker gobreaker.Settings
}

// Refresher performs grant_type=refresh_token exchanges. Client credentials
// travel in the form body. Calls go through a circuit breaker so a provider
// outage fails fast instead of holding every page render for the full timeout.
type Refresher struct {
	config     *oauth2.Config
	httpClient *http.Client
	timeout    time.Duration
	breaker    *gobreaker.CircuitBreaker
}

// NewRefresher constructs a Refresher.
func NewRefresher(cfg RefresherConfig) *Refresher {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultRefreshTimeout
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	settings := cfg.Breaker
	if settings.Name == "" {
		settings.Name = "oidc-token-refresh"
	}
	if settings.Timeout == 0 {
		settings.Timeout = 30 * time.Second
	}
	if settings.ReadyToTrip == nil {
		settings.ReadyToTrip = func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		}
	}
	if settings.IsSuccessful == nil {
		// A rejected refresh token is the user's problem, not a provider outage.
		settings.IsSuccessful = func(err error) bool {
			var rerr *oauth2.RetrieveError
			if errors.As(err, &rerr) && rerr.Response != nil {
				return rerr.Response.StatusCode < http.StatusInternalServerError
			}
			return err == nil || errors.Is(err, ErrMalformedTokenResponse)
		}
	}

	return &Refresher{
		config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Endpoint: oauth2.Endpoint{
				TokenURL:  cfg.TokenURL,
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		httpClient: httpClient,
		timeout:    timeout,
		breaker:    gobreaker.NewCircuitBreaker(settings),
	}
}

// Refresh exchanges refreshToken for a new access token.
// RefreshToken and IDToken in the result are empty when the provider did not rotate them.
func (r *Refresher) Refresh(ctx context.Context, refreshToken string) (domainauth.TokenResponse, error) {
	if refreshToken == "" {
		return domainauth.TokenResponse{}, ErrNoRefreshToken
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	ctx = context.WithValue(ctx, oauth2.HTTPClient, r.httpClient)

	out, err := r.breaker.Execute(func() (any, error) {
		return r.exchange(ctx, refreshToken)
	})
	if err != nil {
		var rerr *oauth2.RetrieveError
		if errors.As(err, &rerr) {
			return domainauth.TokenResponse{}, fmt.Errorf("%w: %w", ErrRefreshRejected, err)
		}
		return domainauth.TokenResponse{}, fmt.Errorf("refresh token: %w", err)
	}
	resp, ok := out.(domainauth.TokenResponse)
	if !ok {
		return domainauth.TokenResponse{}, ErrMalformedTokenResponse
	}
	return resp, nil
}

func (r *Refresher) exchange(ctx context.Context, refreshToken string) (domainauth.TokenResponse, error) {
	// An already-expired token forces the token source to hit the endpoint.
	src := r.config.TokenSource(ctx, &oauth2.Token{
		RefreshToken: refreshToken,
		Expiry:       time.Unix(1, 0),
	})
	tok, err := src.Token()
	if err != nil {
		return domainauth.TokenResponse{}, err
	}
	if tok.AccessToken == "" || tok.Expiry.IsZero() {
		return domainauth.TokenResponse{}, ErrMalformedTokenResponse
	}
	expiresIn := time.Until(tok.Expiry).Round(time.Second)
	if expiresIn <= 0 {
		return domainauth.TokenResponse{}, ErrMalformedTokenResponse
	}

	resp := domainauth.TokenResponse{
		AccessToken: tok.AccessToken,
		ExpiresIn:   expiresIn,
	}
	// x/oauth2 echoes the old refresh token back when none was returned.
	if tok.RefreshToken != "" && tok.RefreshToken != refreshToken {
		resp.RefreshToken = tok.RefreshToken
	}
	if idToken, ok := tok.Extra("id_token").(string); ok {
		resp.IDToken = idToken
	}
	return resp, nil
}

// State reports the circuit breaker state, for health output.
func (r *Refresher) State() string {
	return r.breaker.State().String()
}
