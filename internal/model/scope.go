package model

import (
	"errors"

	"github.com/google/uuid"
)

var ErrScopeUnsupported = errors.New("principal role is not allowed")

type ScopeType string

const (
	ScopeAll   ScopeType = "ALL"
	ScopeZone  ScopeType = "ZONE"
	ScopeOwner ScopeType = "OWNER"
	ScopeNone  ScopeType = "NONE"
)

// Scope restricts which complaints a caller may observe or mutate.
// The set of implementations is closed to this package.
type Scope interface {
	Type() ScopeType
	Matches(c *Complaint) bool
	isScope()
}

// UnrestrictedScope sees every complaint.
type UnrestrictedScope struct{}

func (UnrestrictedScope) Type() ScopeType { return ScopeAll }

func (UnrestrictedScope) Matches(c *Complaint) bool { return c != nil }

func (UnrestrictedScope) isScope() {}

// ZoneScope sees complaints whose owner currently belongs to ZoneID.
type ZoneScope struct {
	ZoneID uint
}

func (ZoneScope) Type() ScopeType { return ScopeZone }

func (s ZoneScope) Matches(c *Complaint) bool {
	if c == nil {
		return false
	}
	zoneID := c.OwnerZoneID()
	return zoneID != nil && *zoneID == s.ZoneID
}

func (ZoneScope) isScope() {}

// OwnerScope sees only complaints filed by UserID.
type OwnerScope struct {
	UserID uuid.UUID
}

func (OwnerScope) Type() ScopeType { return ScopeOwner }

func (s OwnerScope) Matches(c *Complaint) bool {
	return c != nil && s.UserID != uuid.Nil && c.UserID == s.UserID
}

func (OwnerScope) isScope() {}

// NoneScope sees nothing. Admin accounts without a zone resolve to it.
type NoneScope struct{}

func (NoneScope) Type() ScopeType { return ScopeNone }

func (NoneScope) Matches(*Complaint) bool { return false }

func (NoneScope) isScope() {}

func ResolveScope(principal Principal) (Scope, error) {
	switch principal.Role {
	case UserRoleSuperAdmin:
		return UnrestrictedScope{}, nil
	case UserRoleAdmin:
		if principal.ZoneID == nil {
			return NoneScope{}, nil
		}
		return ZoneScope{ZoneID: *principal.ZoneID}, nil
	case UserRoleCitizen:
		return OwnerScope{UserID: principal.UserID}, nil
	default:
		return nil, ErrScopeUnsupported
	}
}
