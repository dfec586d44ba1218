package enums

import "fmt"

// UserRole is the role an identity holds on the platform.
type UserRole string

const (
	UserRoleClaimant   UserRole = "Claimant"
	UserRoleRespondent UserRole = "Respondent"
	UserRoleArbitrator UserRole = "Arbitrator"
	UserRoleAdmin      UserRole = "Admin"
)

var validUserRoles = []UserRole{
	UserRoleClaimant,
	UserRoleRespondent,
	UserRoleArbitrator,
	UserRoleAdmin,
}

// String implements fmt.Stringer.
func (r UserRole) String() string {
	return string(r)
}

// IsValid reports whether the value is a known UserRole.
func (r UserRole) IsValid() bool {
	for _, candidate := range validUserRoles {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseUserRole converts raw input into a UserRole.
func ParseUserRole(value string) (UserRole, error) {
	for _, candidate := range validUserRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid user role %q", value)
}
