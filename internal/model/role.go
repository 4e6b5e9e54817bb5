package model

import "fmt"

// Role is the closed set of account roles carried in tokens and stored on users.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Capability names an action gated by role.
type Capability int

const (
	CapManageCatalog Capability = iota + 1 // delete products, import, remove images
	CapManageUsers                         // create, list and delete any user
)

// Authorizer answers capability checks. Role and token claims implement it.
type Authorizer interface {
	Can(cap Capability) bool
}

var roleCapabilities = map[Role][]Capability{
	RoleUser:  nil,
	RoleAdmin: {CapManageCatalog, CapManageUsers},
}

// ParseRole converts a raw string into a Role, rejecting unknown values.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if _, ok := roleCapabilities[r]; !ok {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return r, nil
}

func (r Role) Can(cap Capability) bool {
	for _, c := range roleCapabilities[r] {
		if c == cap {
			return true
		}
	}
	return false
}

func (r Role) String() string { return string(r) }
