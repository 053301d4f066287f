package httpx

import (
	"log/slog"
	"net/http"
	"net/url"

	domainauth "github.com/fiberq/fiberq-web/internal/domain/auth"
	"github.com/fiberq/fiberq-web/internal/observability/statsd"
)

// RouterServices holds everything the HTTP router needs.
type RouterServices struct {
	Auth AuthServiceInterface
	// Backend is the FiberQ REST API origin that /api/* is proxied to.
	Backend *url.URL

	// Pages renders locale-prefixed pages. Optional: 404 when nil.
	Pages http.Handler
	// Static serves /static/ assets. Optional.
	Static http.Handler

	Locales LocaleRouterConfig

	BaseURL               string
	CookieDomain          string
	PostLogoutRedirectURL string
	AuthRateLimit         RateLimitConfig

	Logger  *slog.Logger
	Metrics statsd.Sink // Optional
}

// NewRouter creates the gateway handler.
// Middleware order matters: the session memo must exist before the gate,
// and the gate runs before the mux hands pages to locale routing.
func NewRouter(services RouterServices) http.Handler {
	if services.Auth == nil {
		panic("auth service is required")
	}
	logger := services.Logger
	if logger == nil {
		logger = slog.Default()
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", healthHandler)
	if services.Static != nil {
		mux.Handle("GET /static/", services.Static)
	}

	authHandlers := &AuthHandlers{
		Svc:                   services.Auth,
		CookieDomain:          services.CookieDomain,
		PostLogoutRedirectURL: services.PostLogoutRedirectURL,
		Logger:                logger,
	}
	limit := RateLimit(services.AuthRateLimit, IPKeyExtractor, logger)
	mux.Handle("GET /api/auth/signin", limit(http.HandlerFunc(authHandlers.SignIn)))
	mux.Handle("GET /api/auth/callback", limit(http.HandlerFunc(authHandlers.Callback)))
	mux.Handle("GET /api/auth/signout", limit(http.HandlerFunc(authHandlers.SignOut)))
	mux.Handle("POST /api/auth/signout", limit(http.HandlerFunc(authHandlers.SignOut)))
	mux.Handle("GET /api/auth/session", limit(http.HandlerFunc(authHandlers.Session)))
	mux.Handle("GET /api/auth/userinfo", limit(http.HandlerFunc(authHandlers.UserInfo)))
	mux.Handle(domainauth.AuthNamespace+"/", limit(http.NotFoundHandler()))

	if services.Backend != nil {
		mux.Handle(domainauth.APINamespace, apiOnly(NewAPIProxy(services.Backend, logger)))
	}

	pages := services.Pages
	if pages == nil {
		pages = http.NotFoundHandler()
	}
	pageMux := http.NewServeMux()
	admin := RequireRole(services.BaseURL, domainauth.RoleAdmin)
	pageMux.Handle("/{locale}/users", admin(pages))
	pageMux.Handle("/{locale}/users/", admin(pages))
	pageMux.Handle("/", pages)

	localeCfg := services.Locales
	localeCfg.Pages = pageMux
	if localeCfg.Logger == nil {
		localeCfg.Logger = logger
	}
	mux.Handle("/", NewLocaleRouter(localeCfg))

	var handler http.Handler = mux
	handler = Gate(GateConfig{BaseURL: services.BaseURL, Logger: logger, Metrics: services.Metrics})(handler)
	handler = ResolveSession(services.Auth, logger)(handler)
	handler = Logging(logger)(handler)
	handler = Recover(logger)(handler)
	return handler
}
