package httpx

// Cookie names shared by the sign-in handlers and the session middleware.
const (
	sessionCookieName      = "session_id"
	oauthStateCookieName   = "oauth_state"
	oauthNonceCookieName   = "oauth_nonce"
	postLoginRedirectName  = "post_login_redirect"
	oauthCookieMaxAgeInSec = 600 // 10 minutes
)

// callbackURLParam carries the page a signed-out user was heading to.
const callbackURLParam = "callbackUrl"
