package enums

import (
	"fmt"
	"strings"
)

// Role is the access level the store backend assigns to a user (hak_akses).
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleKasir   Role = "kasir"
	RolePemilik Role = "pemilik"
)

var validRoles = []Role{
	RoleAdmin,
	RoleKasir,
	RolePemilik,
}

// String implements fmt.Stringer.
func (r Role) String() string {
	return string(r)
}

// IsValid reports whether the value is a known Role.
func (r Role) IsValid() bool {
	for _, candidate := range validRoles {
		if candidate == r {
			return true
		}
	}
	return false
}

// CanSell reports whether the role may operate the register.
func (r Role) CanSell() bool {
	return r == RoleAdmin || r == RoleKasir
}

// CanManage reports whether the role may administer catalog and users.
func (r Role) CanManage() bool {
	return r == RoleAdmin
}

// CanViewReports reports whether the role may read reports and statistics.
func (r Role) CanViewReports() bool {
	return r == RoleAdmin || r == RolePemilik
}

// ParseRole converts raw input into a Role.
func ParseRole(value string) (Role, error) {
	normalized := Role(strings.ToLower(strings.TrimSpace(value)))
	for _, candidate := range validRoles {
		if candidate == normalized {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid role %q", value)
}
