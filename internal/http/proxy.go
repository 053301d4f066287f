package httpx

import (
	"errors"
	"log/slog"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"

	domainauth "github.com/fiberq/fiberq-web/internal/domain/auth"
)

// apiPrefix is stripped before forwarding; the backend serves its routes from its root.
const apiPrefix = "/api"

// NewAPIProxy forwards /api/* (minus /api/auth/*) to the backend at target.
// The raw provider access token of the request's session is attached as a bearer token;
// requests without a session go out with no Authorization header and the backend decides.
func NewAPIProxy(target *url.URL, logger *slog.Logger) http.Handler {
	if target == nil {
		panic("proxy target is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.Out.URL.Path = stripAPIPrefix(pr.In.URL.Path)
			pr.Out.URL.RawPath = ""
			pr.SetURL(target)
			pr.SetXForwarded()

			pr.Out.Header.Del("Authorization")
			pr.Out.Header.Del("Cookie")
			if view, ok := SessionFromContext(pr.In.Context()); ok && view.BearerToken != "" {
				pr.Out.Header.Set("Authorization", "Bearer "+view.BearerToken)
			}
		},
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			logger.WarnContext(r.Context(), "backend proxy failed",
				"path", r.URL.Path,
				"error", err)
			WriteError(w, ErrorParams{
				Code:    http.StatusBadGateway,
				ErrCode: "backend_unavailable",
				Err:     errors.New("backend unavailable"),
			})
		},
	}
}

// apiOnly rejects the auth namespace so a mux fallback can never proxy it.
func apiOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if domainauth.IsAuthPath(r.URL.Path) {
			http.NotFound(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func stripAPIPrefix(path string) string {
	rest := strings.TrimPrefix(path, apiPrefix)
	if rest == "" {
		return "/"
	}
	return rest
}
