package rbac

import (
	"fmt"
	"strings"
)

// Role represents the portal role assigned to an account at authentication time.
type Role string

// Closed set of portal roles.
const (
	RoleCitoyen               Role = "CITOYEN"
	RoleDelegation            Role = "DELEGATION"
	RoleAutoriteLocale        Role = "AUTORITE_LOCALE"
	RoleCoordinateurActivites Role = "COORDINATEUR_ACTIVITES"
	RoleAdmin                 Role = "ADMIN"
	RoleSuperAdmin            Role = "SUPER_ADMIN"
	RoleGouverneur            Role = "GOUVERNEUR"
)

// allRoles fixes the declaration order used for bit positions and listings.
var allRoles = [...]Role{
	RoleCitoyen,
	RoleDelegation,
	RoleAutoriteLocale,
	RoleCoordinateurActivites,
	RoleAdmin,
	RoleSuperAdmin,
	RoleGouverneur,
}

// Roles returns every known role in declaration order.
func Roles() []Role {
	out := make([]Role, len(allRoles))
	copy(out, allRoles[:])
	return out
}

// ParseRole converts a raw value into a Role, rejecting unknown names.
func ParseRole(raw string) (Role, error) {
	candidate := Role(strings.ToUpper(strings.TrimSpace(raw)))
	if candidate.Valid() {
		return candidate, nil
	}
	return "", fmt.Errorf("rbac: unknown role %q", raw)
}

// Valid reports whether r belongs to the closed role set.
func (r Role) Valid() bool {
	return r.bit() != 0
}

func (r Role) bit() RoleSet {
	for i, known := range allRoles {
		if known == r {
			return 1 << uint(i)
		}
	}
	return 0
}

// RoleSet is an immutable set of roles.
type RoleSet uint16

// NewRoleSet builds a set from the given roles. Unknown roles are ignored.
func NewRoleSet(roles ...Role) RoleSet {
	var set RoleSet
	for _, r := range roles {
		set |= r.bit()
	}
	return set
}

// Contains reports whether r is a member of the set.
func (s RoleSet) Contains(r Role) bool {
	bit := r.bit()
	return bit != 0 && s&bit != 0
}

// Empty reports whether the set has no members.
func (s RoleSet) Empty() bool {
	return s == 0
}

// Roles lists members in declaration order.
func (s RoleSet) Roles() []Role {
	out := make([]Role, 0, len(allRoles))
	for i, r := range allRoles {
		if s&(1<<uint(i)) != 0 {
			out = append(out, r)
		}
	}
	return out
}

// String renders the set as a comma separated list, e.g. "ADMIN, SUPER_ADMIN".
func (s RoleSet) String() string {
	roles := s.Roles()
	names := make([]string, len(roles))
	for i, r := range roles {
		names[i] = string(r)
	}
	return strings.Join(names, ", ")
}
