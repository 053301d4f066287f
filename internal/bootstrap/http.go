package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/publicsuffix"

	"github.com/fiberq/fiberq-web/config"
	httpx "github.com/fiberq/fiberq-web/internal/http"
	"github.com/fiberq/fiberq-web/internal/observability/statsd"
	"github.com/fiberq/fiberq-web/internal/service"
)

// HTTPServerConfig contains configuration for the HTTP server.
type HTTPServerConfig struct {
	Config  *config.AppConfig
	Auth    *service.AuthService
	Backend *url.URL
	Metrics statsd.Sink // Optional
	Logger  *slog.Logger
}

// BuildHTTPHandler wires the gateway router from configuration.
func BuildHTTPHandler(cfg *HTTPServerConfig) (http.Handler, error) {
	if cfg == nil || cfg.Config == nil || cfg.Auth == nil {
		return nil, errors.New("http server requires config and auth service")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	appCfg := cfg.Config

	if err := validateCookieDomain(appCfg.HTTP.CookieDomain, appCfg.HTTP.BaseURL); err != nil {
		return nil, err
	}

	pages, err := pagesHandler(appCfg.HTTP.PagesUpstreamURL)
	if err != nil {
		return nil, err
	}

	return httpx.NewRouter(httpx.RouterServices{
		Auth:    cfg.Auth,
		Backend: cfg.Backend,
		Pages:   pages,
		Static:  pages,
		Locales: httpx.LocaleRouterConfig{
			Supported:  appCfg.Locale.Supported,
			Default:    appCfg.Locale.Default,
			CookieName: appCfg.Locale.CookieName,
		},
		BaseURL:               appCfg.HTTP.BaseURL,
		CookieDomain:          appCfg.HTTP.CookieDomain,
		PostLogoutRedirectURL: appCfg.Auth.OAuth.PostLogoutRedirectURL,
		AuthRateLimit: httpx.RateLimitConfig{
			RequestsPerSecond: appCfg.HTTP.AuthRateLimit,
			Burst:             appCfg.HTTP.AuthRateBurst,
		},
		Logger:  logger,
		Metrics: cfg.Metrics,
	}), nil
}

// validateCookieDomain rejects domains browsers would silently refuse: public
// suffixes such as "co.uk", and domains the public origin does not belong to.
func validateCookieDomain(domain, baseURL string) error {
	d := strings.TrimPrefix(strings.ToLower(strings.TrimSpace(domain)), ".")
	if d == "" {
		return nil
	}
	if d != "localhost" && net.ParseIP(d) == nil {
		if _, err := publicsuffix.EffectiveTLDPlusOne(d); err != nil {
			return fmt.Errorf("cookie domain %q is a public suffix: %w", domain, err)
		}
	}
	u, err := url.Parse(baseURL)
	if err != nil || u.Hostname() == "" {
		return nil
	}
	host := strings.ToLower(u.Hostname())
	if host != d && !strings.HasSuffix(host, "."+d) {
		return fmt.Errorf("cookie domain %q does not cover base url host %q", domain, host)
	}
	return nil
}

// pagesHandler forwards page and asset requests to the renderer, or returns nil when none is configured.
//
//nolint:ireturn // nil handler means "no renderer".
func pagesHandler(upstream string) (http.Handler, error) {
	if upstream == "" {
		return nil, nil
	}
	u, err := url.Parse(upstream)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid pages upstream url %q", upstream)
	}
	return httputil.NewSingleHostReverseProxy(u), nil
}

// StartHTTPServer creates and starts the HTTP server.
// Returns the server instance for graceful shutdown.
func StartHTTPServer(cfg *HTTPServerConfig) (*http.Server, error) {
	handler, err := BuildHTTPHandler(cfg)
	if err != nil {
		return nil, err
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return startServer(logger, handler, cfg.Config.HTTP.Addr), nil
}

func startServer(logger *slog.Logger, handler http.Handler, addr string) *http.Server {
	// Guard against empty addr to avoid listening on Go default
	if addr == "" {
		addr = ":8080"
	}

	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		logger.Info("starting HTTP server", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server failed", "error", err)
		}
	}()

	return server
}

// ShutdownConfig contains dependencies for HTTP server shutdown.
type ShutdownConfig struct {
	Context context.Context
	Server  *http.Server
	Auth    *service.AuthService
	Timeout time.Duration
	Logger  *slog.Logger
}

// ShutdownHTTPServer stops accepting requests, then waits for pending login notifications.
func ShutdownHTTPServer(cfg ShutdownConfig) error {
	if cfg.Server == nil {
		return nil
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	logger.Info("shutting down HTTP server")

	shutdownCtx, cancel := context.WithTimeout(cfg.Context, timeout)
	defer cancel()

	if err := cfg.Server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	if cfg.Auth != nil {
		if err := cfg.Auth.Wait(shutdownCtx); err != nil {
			logger.Warn("pending login notifications abandoned", "error", err)
		}
	}

	logger.Info("HTTP server stopped")
	return nil
}
