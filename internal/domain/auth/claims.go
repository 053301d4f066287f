package auth

import (
	"encoding/json"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// RolePrefix marks provider groups that are FiberQ roles.
const RolePrefix = "fiberq_"

// GroupsClaim is the claim carrying provider group membership.
const GroupsClaim = "groups"

// ExtractRoles derives FiberQ roles from the groups claim.
// Missing or non-array claims yield an empty list. Never fails.
func ExtractRoles(claims map[string]any) []string {
	return ExtractRolesWithPrefix(claims, RolePrefix)
}

// ExtractRolesWithPrefix is ExtractRoles for a configurable namespace prefix.
func ExtractRolesWithPrefix(claims map[string]any, prefix string) []string {
	return RolesFromGroups(StringSlice(claims[GroupsClaim]), prefix)
}

// RolesFromGroups keeps groups carrying prefix and strips it, preserving order.
func RolesFromGroups(groups []string, prefix string) []string {
	roles := make([]string, 0, len(groups))
	for _, g := range groups {
		if strings.HasPrefix(g, prefix) {
			roles = append(roles, strings.TrimPrefix(g, prefix))
		}
	}
	return roles
}

// StringSlice returns the string elements of v when v is a sequence.
// Non-string elements are skipped; anything that is not a sequence yields nil.
func StringSlice(v any) []string {
	switch vals := v.(type) {
	case []string:
		return append([]string(nil), vals...)
	case []any:
		out := make([]string, 0, len(vals))
		for _, item := range vals {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

var segmentDecoder = jwt.NewParser()

// DecodeClaims returns the payload of a compact JWT without verifying it.
// Signatures are checked by the provider during exchange and by the backend on use.
// Any malformed input yields an empty map.
func DecodeClaims(token string) map[string]any {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return map[string]any{}
	}
	raw, err := segmentDecoder.DecodeSegment(strings.TrimRight(parts[1], "="))
	if err != nil {
		return map[string]any{}
	}
	var claims map[string]any
	if err := json.Unmarshal(raw, &claims); err != nil || claims == nil {
		return map[string]any{}
	}
	return claims
}
