package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Role enumerates the account types of the platform.
type Role string

const (
	RoleDonor        Role = "donor"
	RoleOrganisation Role = "organisation"
	RoleFieldOfficer Role = "field_officer"
	RoleAdmin        Role = "admin"
)

// ErrUnknownRole is returned when a role string is not one of the known roles.
var ErrUnknownRole = errors.New("unknown role")

// Roles lists every role in display order.
func Roles() []Role {
	return []Role{RoleDonor, RoleOrganisation, RoleFieldOfficer, RoleAdmin}
}

// ParseRole converts a wire value into a Role.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownRole, s)
	}
	return r, nil
}

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleDonor, RoleOrganisation, RoleFieldOfficer, RoleAdmin:
		return true
	}
	return false
}

// Dashboard returns the dashboard route for the role.
func (r Role) Dashboard() (string, error) {
	switch r {
	case RoleDonor:
		return "/dashboard/donor", nil
	case RoleOrganisation:
		return "/dashboard/organisation", nil
	case RoleFieldOfficer:
		return "/dashboard/field-officer", nil
	case RoleAdmin:
		return "/dashboard/admin", nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownRole, string(r))
}

// Label is a human readable role name.
func (r Role) Label() string {
	switch r {
	case RoleDonor:
		return "Donor"
	case RoleOrganisation:
		return "Organisation"
	case RoleFieldOfficer:
		return "Field Officer"
	case RoleAdmin:
		return "Admin"
	}
	return string(r)
}
