package bootstrap

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/fiberq/fiberq-web/config"
	"github.com/fiberq/fiberq-web/internal/adapters/authroles"
	"github.com/fiberq/fiberq-web/internal/adapters/backend"
	"github.com/fiberq/fiberq-web/internal/adapters/devauth"
	"github.com/fiberq/fiberq-web/internal/adapters/oidc"
	redisadapter "github.com/fiberq/fiberq-web/internal/adapters/redis"
	"github.com/fiberq/fiberq-web/internal/observability/statsd"
	"github.com/fiberq/fiberq-web/internal/ports"
	"github.com/fiberq/fiberq-web/internal/service"
)

// AuthConfig contains configuration for the auth service.
type AuthConfig struct {
	Auth        config.AuthConfig
	Redis       config.RedisConfig
	RedisClient redis.UniversalClient
	// Backend receives login notifications. Optional.
	Backend *backend.Client
	// Metrics receives token refresh outcomes. Optional.
	Metrics statsd.Sink
	Logger  *slog.Logger
}

// identityProvider is what both auth modes supply.
type identityProvider interface {
	ports.AuthProvider
	ports.TokenRefresher
	ports.EndSessionURLBuilder
	ports.UserInfoFetcher
}

// BuildAuthService creates the auth service for the configured auth mode.
// The gateway cannot serve pages without it, so every misconfiguration is an error.
func BuildAuthService(cfg AuthConfig) (*service.AuthService, error) {
	if cfg.RedisClient == nil {
		return nil, errors.New("auth service requires a redis client")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	roles, err := authroles.NewClaimRoleExtractor(cfg.Auth.RolePrefix, cfg.Auth.RoleClaimPath)
	if err != nil {
		return nil, fmt.Errorf("build role extractor: %w", err)
	}

	var prov identityProvider
	switch cfg.Auth.Mode {
	case config.AuthModeMock:
		prov, err = buildDevAuthProvider(cfg.Auth)
	case config.AuthModeOAuth:
		prov, err = buildOIDCProvider(cfg.Auth)
	default:
		err = fmt.Errorf("unsupported auth mode %q", cfg.Auth.Mode)
	}
	if err != nil {
		return nil, err
	}
	logger.Info("auth provider configured", "mode", string(cfg.Auth.Mode))

	opts := service.AuthServiceOptions{
		Provider:   prov,
		Refresher:  prov,
		Sessions:   redisadapter.NewSessionStoreWithPrefix(cfg.RedisClient, cfg.Redis.KeyPrefix),
		Roles:      roles,
		EndSession: prov,
		UserInfo:   prov,
		Config: service.AuthServiceConfig{
			SessionMaxAge: cfg.Auth.SessionMaxAge,
		},
		Logger:  logger,
		Metrics: cfg.Metrics,
	}
	if cfg.Backend != nil {
		opts.Recorder = cfg.Backend
	}
	return service.NewAuthService(opts), nil
}

func buildDevAuthProvider(auth config.AuthConfig) (*devauth.Provider, error) {
	prov, err := devauth.NewProvider(devauth.Config{
		UserID:     auth.DevAuth.UserID,
		Email:      auth.DevAuth.Email,
		Name:       auth.DevAuth.Name,
		Roles:      auth.DevAuth.Roles,
		RolePrefix: auth.RolePrefix,
		TokenTTL:   auth.DevAuth.TokenTTL,
	})
	if err != nil {
		return nil, fmt.Errorf("create dev auth provider: %w", err)
	}
	return prov, nil
}

func buildOIDCProvider(auth config.AuthConfig) (*oidc.Provider, error) {
	oauth := auth.OAuth
	if oauth.DiscoveryURL == "" || oauth.ClientID == "" || oauth.ClientSecret == "" {
		return nil, fmt.Errorf("oauth mode requires discovery url, client id and client secret "+
			"(discovery_url_empty=%t client_id_empty=%t client_secret_empty=%t)",
			oauth.DiscoveryURL == "", oauth.ClientID == "", oauth.ClientSecret == "")
	}

	prov, err := oidc.NewProvider(oidc.ProviderConfig{
		ClientID:       oauth.ClientID,
		ClientSecret:   oauth.ClientSecret,
		RedirectURL:    oauth.RedirectURL,
		Scope:          oauth.Scope,
		DiscoveryURL:   oauth.DiscoveryURL,
		TokenURL:       oauth.TokenURL,
		RefreshTimeout: auth.RefreshTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("create oidc provider: %w", err)
	}
	return prov, nil
}
