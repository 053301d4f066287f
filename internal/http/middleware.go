package httpx

import (
	"log/slog"
	"net/http"
	"net/url"
	"runtime/debug"
	"strings"
	"time"

	domainauth "github.com/fiberq/fiberq-web/internal/domain/auth"
	"github.com/fiberq/fiberq-web/internal/observability/statsd"
)

// Logging returns a middleware that logs HTTP requests and responses.
func Logging(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			const defaultHTTPStatus = 200
			ww := &respWriter{ResponseWriter: w, status: defaultHTTPStatus}
			next.ServeHTTP(ww, r)
			logger.Info("http",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", ww.status),
				slog.Duration("duration", time.Since(start)),
			)
		})
	}
}

type respWriter struct {
	http.ResponseWriter
	status int
}

func (w *respWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// Unwrap lets http.ResponseController reach the underlying writer (flushes from the API proxy).
func (w *respWriter) Unwrap() http.ResponseWriter { return w.ResponseWriter }

// Recover returns a middleware that recovers from panics and logs them.
func Recover(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					if err == http.ErrAbortHandler {
						panic(err)
					}
					logger.Error("panic",
						slog.Any("error", err),
						slog.String("path", r.URL.Path),
						slog.String("method", r.Method),
						slog.String("stack", string(debug.Stack())))
					http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// ResolveSession attaches a lazy, memoized session lookup to every request.
// The store is read at most once per request and only if something asks.
func ResolveSession(resolver SessionResolver, logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			m := &sessionMemo{resolver: resolver, logger: logger}
			if c, err := r.Cookie(sessionCookieName); err == nil {
				m.id = c.Value
			}
			next.ServeHTTP(w, r.WithContext(withSessionMemo(r.Context(), m)))
		})
	}
}

// GateConfig configures the request gate.
type GateConfig struct {
	// BaseURL is the public origin used in sign-in redirects. Derived from the request when empty.
	BaseURL string
	Logger  *slog.Logger
	Metrics statsd.Sink // Optional: counts decisions
}

// Gate settles authentication for page requests before locale routing runs.
// Paths outside the gate (static assets, files, /healthz) pass straight through;
// the auth and API namespaces are never redirected.
func Gate(cfg GateConfig) func(http.Handler) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			path := r.URL.Path
			if !domainauth.GateApplies(path) {
				next.ServeHTTP(w, r)
				return
			}

			// The session is only resolved when the outcome depends on it.
			decision := domainauth.Decide(path, false)
			if decision == domainauth.RedirectToSignIn && IsAuthenticated(r) {
				decision = domainauth.Decide(path, true)
			}

			if cfg.Metrics != nil {
				cfg.Metrics.Count("http.gate", 1, map[string]string{"decision": decision.String()})
			}

			if decision == domainauth.RedirectToSignIn {
				logger.DebugContext(r.Context(), "gate redirect", "path", path)
				redirectToSignIn(w, r, cfg.BaseURL)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireRole returns a middleware that admits sessions holding at least one of roles.
// Unauthenticated requests are sent to sign-in; authenticated ones without a role get 403.
func RequireRole(baseURL string, roles ...domainauth.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			view, ok := SessionFromContext(r.Context())
			if !ok {
				redirectToSignIn(w, r, baseURL)
				return
			}
			if !domainauth.HasAnyRole(view.Roles, roles...) {
				showAccessDenied(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// redirectToSignIn sends the browser to the sign-in endpoint with the current URL as callbackUrl.
func redirectToSignIn(w http.ResponseWriter, r *http.Request, baseURL string) {
	origin := requestOrigin(r, baseURL)
	q := url.Values{}
	q.Set(callbackURLParam, origin+safeRedirectPath(r.URL.RequestURI()))
	http.Redirect(w, r, origin+domainauth.SignInPath+"?"+q.Encode(), http.StatusFound)
}

// requestOrigin returns the configured public origin, or scheme://host of r.
func requestOrigin(r *http.Request, baseURL string) string {
	if baseURL != "" {
		return strings.TrimRight(baseURL, "/")
	}
	scheme := "http"
	if isSecureRequest(r) {
		scheme = "https"
	}
	return scheme + "://" + r.Host
}

func isSecureRequest(r *http.Request) bool {
	return r.TLS != nil || strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https")
}

// safeRedirectFromURL keeps only the path and query of raw so redirects stay within the app.
func safeRedirectFromURL(raw string) string {
	if raw == "" {
		return ""
	}

	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}

	// Reject scheme-relative or host-only references.
	if u.Host != "" && !u.IsAbs() {
		return ""
	}

	if u.IsAbs() {
		return safeRedirectPath(u.RequestURI())
	}

	return safeRedirectPath(raw)
}

// safeRedirectPath ensures the provided redirect is a same-origin relative path
// starting with "/" and not an absolute URL. Returns "/" when invalid.
func safeRedirectPath(candidate string) string {
	if candidate == "" {
		return "/"
	}
	u, err := url.Parse(candidate)
	if err != nil || u.IsAbs() || u.Host != "" || !strings.HasPrefix(u.Path, "/") {
		return "/"
	}
	return candidate
}

// showAccessDenied shows an access denied page for browser requests.
func showAccessDenied(w http.ResponseWriter, _ *http.Request) {
	http.Error(w, "Access Denied: You don't have permission to access this resource", http.StatusForbidden)
}
