package enums

import "fmt"

// Role describes the access level carried in a user's JWT claims.
type Role string

const (
	RoleAdmin       Role = "admin"
	RoleManager     Role = "manager"
	RoleVesselOwner Role = "vessel_owner"
	RoleProcessor   Role = "processor"
)

var validRoles = []Role{
	RoleAdmin,
	RoleManager,
	RoleVesselOwner,
	RoleProcessor,
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

// AtLeast reports whether the role meets the required level. Roles order as
// admin > manager > vessel_owner = processor.
func (r Role) AtLeast(required Role) bool {
	rank := map[Role]int{
		RoleAdmin:       3,
		RoleManager:     2,
		RoleVesselOwner: 1,
		RoleProcessor:   1,
	}
	return rank[r] >= rank[required] && rank[r] > 0
}

// ParseRole converts the raw string to Role.
func ParseRole(value string) (Role, error) {
	for _, candidate := range validRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid role %q", value)
}
