package httpx

import (
	"log/slog"
	"net/http"
	"slices"
	"strings"

	"golang.org/x/text/language"

	domainauth "github.com/fiberq/fiberq-web/internal/domain/auth"
)

// LocaleRouterConfig configures LocaleRouter.
type LocaleRouterConfig struct {
	Supported  []string // locale path prefixes, e.g. "en", "sr"
	Default    string
	CookieName string
	Pages      http.Handler // serves locale-prefixed page paths
	Logger     *slog.Logger
}

// LocaleRouter puts every page under a /<locale> prefix.
// It only ever sees requests the gate already let through.
type LocaleRouter struct {
	supported  []string
	def        string
	cookieName string
	matcher    language.Matcher
	pages      http.Handler
	logger     *slog.Logger
}

// NewLocaleRouter builds a LocaleRouter. Default leads the matcher so it wins
// whenever the client expresses no usable preference.
func NewLocaleRouter(cfg LocaleRouterConfig) *LocaleRouter {
	if cfg.Pages == nil {
		panic("Pages handler is required")
	}
	supported := slices.Clone(cfg.Supported)
	if len(supported) == 0 {
		supported = []string{"en"}
	}
	def := cfg.Default
	if !slices.Contains(supported, def) {
		def = supported[0]
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	ordered := append([]string{def}, slices.DeleteFunc(slices.Clone(supported), func(s string) bool { return s == def })...)
	tags := make([]language.Tag, 0, len(ordered))
	for _, s := range ordered {
		tags = append(tags, language.Make(s))
	}

	return &LocaleRouter{
		supported:  ordered,
		def:        def,
		cookieName: cfg.CookieName,
		matcher:    language.NewMatcher(tags),
		pages:      cfg.Pages,
		logger:     logger,
	}
}

func (lr *LocaleRouter) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	locale, rest := lr.splitLocale(r.URL.Path)
	if locale == "" {
		target := "/" + lr.Negotiate(r) + strings.TrimSuffix(r.URL.Path, "/")
		if r.URL.RawQuery != "" {
			target += "?" + r.URL.RawQuery
		}
		http.Redirect(w, r, target, http.StatusTemporaryRedirect)
		return
	}

	if rest == "" || rest == "/" {
		view, _ := SessionFromContext(r.Context())
		http.Redirect(w, r, "/"+locale+domainauth.DefaultRedirect(view.Roles), http.StatusTemporaryRedirect)
		return
	}

	lr.pages.ServeHTTP(w, r.WithContext(SetLocaleInContext(r.Context(), locale)))
}

// splitLocale returns the locale prefix of path (if supported) and the remainder.
func (lr *LocaleRouter) splitLocale(path string) (string, string) {
	trimmed := strings.TrimPrefix(path, "/")
	seg, rest, _ := strings.Cut(trimmed, "/")
	if !slices.Contains(lr.supported, strings.ToLower(seg)) {
		return "", path
	}
	if rest == "" {
		return strings.ToLower(seg), ""
	}
	return strings.ToLower(seg), "/" + rest
}

// Negotiate picks a locale from the locale cookie, then Accept-Language, then the default.
func (lr *LocaleRouter) Negotiate(r *http.Request) string {
	if lr.cookieName != "" {
		if c, err := r.Cookie(lr.cookieName); err == nil {
			if v := strings.ToLower(c.Value); slices.Contains(lr.supported, v) {
				return v
			}
		}
	}

	accept := r.Header.Get("Accept-Language")
	if accept == "" {
		return lr.def
	}
	tags, _, err := language.ParseAcceptLanguage(accept)
	if err != nil || len(tags) == 0 {
		lr.logger.Debug("unparseable Accept-Language", "value", accept, "error", err)
		return lr.def
	}
	_, idx, conf := lr.matcher.Match(tags...)
	if conf == language.No {
		return lr.def
	}
	return lr.supported[idx]
}
