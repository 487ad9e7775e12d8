package domain

import dErrors "landverify/pkg/domain-errors"

// Role is the marketplace role carried by the auth principal.
// Only sellers list land, so only sellers run the verification pipeline.
type Role string

const (
	RoleSeller Role = "seller"
	RoleBuyer  Role = "buyer"
	RoleAdmin  Role = "admin"
)

var validRoles = map[Role]bool{
	RoleSeller: true,
	RoleBuyer:  true,
	RoleAdmin:  true,
}

// ParseRole constructs a Role from a token claim.
func ParseRole(s string) (Role, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "role cannot be empty")
	}
	r := Role(s)
	if !validRoles[r] {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid role")
	}
	return r, nil
}

func (r Role) String() string { return string(r) }
