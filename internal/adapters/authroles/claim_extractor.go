package authroles

import (
	"fmt"
	"strings"

	jmespath "github.com/jmespath-community/go-jmespath"

	domainauth "github.com/fiberq/fiberq-web/internal/domain/auth"
)

// ClaimRoleExtractor turns provider claims into FiberQ roles.
// With no custom path it reads the "groups" claim; otherwise a JMESPath
// expression (e.g. "realm_access.roles") selects the group list.
type ClaimRoleExtractor struct {
	prefix string
	path   jmespath.JMESPath
}

// NewClaimRoleExtractor validates the optional JMESPath expression up front so
// Extract never has to report an error.
func NewClaimRoleExtractor(prefix, path string) (*ClaimRoleExtractor, error) {
	if prefix == "" {
		prefix = domainauth.RolePrefix
	}
	e := &ClaimRoleExtractor{prefix: prefix}

	path = strings.TrimSpace(path)
	if path == "" || path == domainauth.GroupsClaim {
		return e, nil
	}
	compiled, err := jmespath.Compile(path)
	if err != nil {
		return nil, fmt.Errorf("compile role claim path %q: %w", path, err)
	}
	e.path = compiled
	return e, nil
}

func (e *ClaimRoleExtractor) Extract(claims map[string]any) []string {
	if e.path == nil {
		return domainauth.ExtractRolesWithPrefix(claims, e.prefix)
	}
	if claims == nil {
		return []string{}
	}
	selected, err := e.path.Search(claims)
	if err != nil {
		return []string{}
	}
	return domainauth.RolesFromGroups(domainauth.StringSlice(selected), e.prefix)
}
