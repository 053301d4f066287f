package auth

import "slices"

// HasAnyRole reports whether roles contains at least one of required.
// An empty required list matches everyone.
func HasAnyRole(roles []string, required ...Role) bool {
	if len(required) == 0 {
		return true
	}
	for _, r := range required {
		if slices.Contains(roles, string(r)) {
			return true
		}
	}
	return false
}

// DefaultRedirect returns the landing page for a signed-in user.
func DefaultRedirect(roles []string) string {
	if HasAnyRole(roles, RoleAdmin) {
		return "/users"
	}
	return "/projects"
}
