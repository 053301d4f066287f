package auth

import "strings"

// Paths the request gate treats specially.
const (
	AuthNamespace = "/api/auth"
	APINamespace  = "/api/"
	SignInPath    = "/api/auth/signin"
)

// GateDecision is the outcome of the per-request gate.
type GateDecision int

const (
	// PassthroughToLocaleRouting hands an authenticated page request to locale routing.
	PassthroughToLocaleRouting GateDecision = iota
	// PassthroughUnchecked serves the request without a page-level auth check.
	PassthroughUnchecked
	// RedirectToSignIn sends the browser to SignInPath.
	RedirectToSignIn
)

func (d GateDecision) String() string {
	switch d {
	case PassthroughToLocaleRouting:
		return "passthrough_to_locale_routing"
	case PassthroughUnchecked:
		return "passthrough_unchecked"
	case RedirectToSignIn:
		return "redirect_to_signin"
	default:
		return "unknown"
	}
}

// Decide applies the gate rules in order. Authentication is settled here,
// before locale routing ever sees the request; reversing the two sends
// signed-out users into locale redirects instead of sign-in.
func Decide(path string, authenticated bool) GateDecision {
	switch {
	case IsAuthPath(path):
		return PassthroughUnchecked
	case strings.HasPrefix(path, APINamespace):
		return PassthroughUnchecked
	case !authenticated:
		return RedirectToSignIn
	default:
		return PassthroughToLocaleRouting
	}
}

// IsAuthPath reports whether path belongs to the sign-in/sign-out/callback flow.
func IsAuthPath(path string) bool {
	return path == AuthNamespace || strings.HasPrefix(path, AuthNamespace+"/")
}

// GateApplies reports whether the gate should run for path at all.
// Static assets, files with an extension and internal endpoints bypass it.
func GateApplies(path string) bool {
	if strings.HasPrefix(path, "/static/") || path == "/healthz" {
		return false
	}
	last := path[strings.LastIndex(path, "/")+1:]
	return !strings.Contains(last, ".")
}
