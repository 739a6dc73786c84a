package repository

import (
	"context"

	"gorm.io/gorm"

	"complaint-service/internal/model"
)

type ZoneRepository struct {
	db *gorm.DB
}

func NewZoneRepository(db *gorm.DB) *ZoneRepository {
	return &ZoneRepository{db: db}
}

func (r *ZoneRepository) List(ctx context.Context) ([]model.Zone, error) {
	var zones []model.Zone
	if err := r.db.WithContext(ctx).
		Order("name ASC").
		Find(&zones).Error; err != nil {
		return nil, err
	}
	return zones, nil
}

func (r *ZoneRepository) GetByID(ctx context.Context, id uint) (*model.Zone, error) {
	var zone model.Zone
	if err := r.db.WithContext(ctx).First(&zone, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &zone, nil
}
