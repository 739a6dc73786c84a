package repository

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"complaint-service/internal/model"
)

// applyScopeFilter expects the query to join users as u on the complaint owner.
func applyScopeFilter(query *gorm.DB, scope model.Scope) *gorm.DB {
	switch s := scope.(type) {
	case model.UnrestrictedScope:
		return query
	case model.ZoneScope:
		return query.Where("u.zone_id = ?", s.ZoneID)
	case model.OwnerScope:
		if s.UserID == uuid.Nil {
			return query.Where("1=0")
		}
		return query.Where("complaints.user_id = ?", s.UserID)
	default:
		return query.Where("1=0")
	}
}
