package config

import (
	"strings"
	"time"
)

// HTTPConfig contains HTTP server configuration.
type HTTPConfig struct {
	// Addr is the address to bind the HTTP server to.
	Addr string `env:"HTTP_ADDR" envDefault:":8080"`

	// BaseURL is the public origin of the application (e.g., "https://fiberq.example.com").
	BaseURL string `env:"APP_BASE_URL" envDefault:"http://localhost:8080"`

	// CookieDomain is the domain for session cookies.
	// Leave empty to use the request domain.
	CookieDomain string `env:"APP_COOKIE_DOMAIN" envDefault:""`

	// AuthRateLimit is the sustained per-IP request rate on /api/auth/*, in requests per second.
	AuthRateLimit float64 `env:"HTTP_AUTH_RATE_LIMIT" envDefault:"5"`

	// AuthRateBurst is the per-IP burst allowance on /api/auth/*.
	AuthRateBurst int `env:"HTTP_AUTH_RATE_BURST" envDefault:"20"`

	// PagesUpstreamURL is the page renderer that locale-prefixed pages and /static/ are forwarded to.
	// Empty disables page serving (404).
	PagesUpstreamURL string `env:"PAGES_UPSTREAM_URL" envDefault:""`

	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

// Sanitize applies guardrails to HTTP configuration values.
func (h *HTTPConfig) Sanitize() {
	h.BaseURL = strings.TrimRight(strings.TrimSpace(h.BaseURL), "/")
	h.PagesUpstreamURL = strings.TrimRight(strings.TrimSpace(h.PagesUpstreamURL), "/")
	if h.AuthRateLimit <= 0 {
		h.AuthRateLimit = 5
	}
	if h.AuthRateBurst < 1 {
		h.AuthRateBurst = 1
	}
	if h.ShutdownTimeout <= 0 {
		h.ShutdownTimeout = 10 * time.Second
	}
}

// BackendConfig points at the FiberQ REST API.
type BackendConfig struct {
	// InternalURL is the in-cluster API origin used for proxying and login notifications.
	InternalURL string `env:"INTERNAL_API_URL" envDefault:"http://api:8000"`

	// Timeout bounds calls made by the gateway itself (not proxied requests).
	Timeout time.Duration `env:"INTERNAL_API_TIMEOUT" envDefault:"5s"`
}

// Sanitize applies guardrails to backend configuration values.
func (b *BackendConfig) Sanitize() {
	b.InternalURL = strings.TrimRight(strings.TrimSpace(b.InternalURL), "/")
	if b.InternalURL == "" {
		b.InternalURL = "http://api:8000"
	}
	if b.Timeout <= 0 {
		b.Timeout = 5 * time.Second
	}
}
