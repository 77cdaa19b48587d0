package model

import "fmt"

// Role is the closed set of roles a user can hold.
type Role string

const (
	RoleAdmin         Role = "Admin"
	RoleLibraryMember Role = "LibraryMember"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleLibraryMember:
		return true
	}
	return false
}

// ParseRole converts a claim or query value into a Role.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.Valid() {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return r, nil
}

func (r Role) String() string {
	return string(r)
}
