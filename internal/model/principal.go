package model

import "github.com/google/uuid"

type UserRole string

const (
	UserRoleCitizen    UserRole = "CITIZEN"
	UserRoleAdmin      UserRole = "ADMIN"
	UserRoleSuperAdmin UserRole = "SUPER_ADMIN"
)

func (r UserRole) Valid() bool {
	switch r {
	case UserRoleCitizen, UserRoleAdmin, UserRoleSuperAdmin:
		return true
	default:
		return false
	}
}

// Principal is the verified caller identity attached to a request.
type Principal struct {
	UserID uuid.UUID
	Role   UserRole
	ZoneID *uint
}

func (p Principal) IsCitizen() bool {
	return p.Role == UserRoleCitizen
}

func (p Principal) IsAdmin() bool {
	return p.Role == UserRoleAdmin
}

func (p Principal) IsSuperAdmin() bool {
	return p.Role == UserRoleSuperAdmin
}

// IsOfficial reports whether the caller reviews complaints (zone admin or super admin).
func (p Principal) IsOfficial() bool {
	return p.IsAdmin() || p.IsSuperAdmin()
}
