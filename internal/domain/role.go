package domain

import (
	"fmt"
	"strings"
)

// Role enumerates staff roles in canonical serialization.
type Role string

const (
	RoleSuperAdmin      Role = "super_admin"
	RoleRestaurantAdmin Role = "restaurant_admin"
	RoleHost            Role = "host"
)

// legacyLabels maps display labels from earlier console iterations to
// the canonical role values.
var legacyLabels = map[string]Role{
	"super admin":      RoleSuperAdmin,
	"superadmin":       RoleSuperAdmin,
	"restaurant admin": RoleRestaurantAdmin,
	"host":             RoleHost,
}

// ParseRole normalizes a role string, accepting canonical values and
// legacy display labels.
func ParseRole(s string) (Role, error) {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RoleSuperAdmin:
		return RoleSuperAdmin, nil
	case RoleRestaurantAdmin:
		return RoleRestaurantAdmin, nil
	case RoleHost:
		return RoleHost, nil
	}
	if role, ok := legacyLabels[strings.ToLower(strings.TrimSpace(s))]; ok {
		return role, nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

// Scoped reports whether the role requires a restaurant/branch association.
func (r Role) Scoped() bool {
	return r != RoleSuperAdmin
}

// DisplayLabel returns the human-facing label for the role.
func (r Role) DisplayLabel() string {
	switch r {
	case RoleSuperAdmin:
		return "Super Admin"
	case RoleRestaurantAdmin:
		return "Restaurant Admin"
	case RoleHost:
		return "Host"
	}
	return string(r)
}

// UnmarshalJSON accepts canonical values and legacy labels.
func (r *Role) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	role, err := ParseRole(s)
	if err != nil {
		return err
	}
	*r = role
	return nil
}
