package domain

import "strings"

// Role is the organization-level role of an actor.
type Role string

const (
	RoleSuperAdmin Role = "SUPER_ADMIN"
	RoleAdmin      Role = "ADMIN"
	RoleMember     Role = "MEMBER"
	RoleReadOnly   Role = "READONLY"
)

// ParseRole normalizes the role strings carried in tokens ("admin", "ADMIN",
// "super-admin", ...). Unknown roles get read-only access.
func ParseRole(raw string) Role {
	key := strings.ToUpper(strings.TrimSpace(raw))
	key = strings.NewReplacer("-", "_", " ", "_").Replace(key)
	switch key {
	case "SUPER_ADMIN", "SUPERADMIN":
		return RoleSuperAdmin
	case "ADMIN", "ADMINISTRATOR":
		return RoleAdmin
	case "MEMBER", "USER", "REQUESTER":
		return RoleMember
	default:
		return RoleReadOnly
	}
}

// IsAdmin reports whether the role may decide on funding requests and edit the ledger.
func (r Role) IsAdmin() bool {
	return r == RoleAdmin || r == RoleSuperAdmin
}

// CanRequest reports whether the role may create and submit funding requests.
func (r Role) CanRequest() bool {
	return r.IsAdmin() || r == RoleMember
}

// Actor identifies who is performing an operation.
type Actor struct {
	UserID string `json:"userID"`
	Name   string `json:"name"`
	Role   Role   `json:"role"`
}
