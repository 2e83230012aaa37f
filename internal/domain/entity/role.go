package entity

import (
	"fmt"
	"strings"
)

// Role identifies who is submitting an expense and selects the rate table.
type Role string

const (
	RoleMR      Role = "mr"
	RoleManager Role = "manager"
	RoleAdmin   Role = "admin"
)

// Roles lists every known role. Switches over Role must cover all of them.
var Roles = []Role{RoleMR, RoleManager, RoleAdmin}

// ParseRole converts user input into a Role
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if !r.IsValid() {
		return "", fmt.Errorf("unknown role: %q", s)
	}
	return r, nil
}

// IsValid returns true if the role is one of the known roles
func (r Role) IsValid() bool {
	for _, known := range Roles {
		if r == known {
			return true
		}
	}
	return false
}

// String returns the string representation of the role
func (r Role) String() string {
	return string(r)
}

// UnhandledRole is used by exhaustive switches to fail loudly when a new role
// is added without a matching case.
func UnhandledRole(r Role) string {
	return fmt.Sprintf("unhandled role: %q", string(r))
}
