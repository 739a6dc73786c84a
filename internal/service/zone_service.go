package service

import (
	"context"

	"complaint-service/internal/model"
	"complaint-service/internal/repository"
)

type ZoneService struct {
	zoneRepo *repository.ZoneRepository
}

func NewZoneService(zoneRepo *repository.ZoneRepository) *ZoneService {
	return &ZoneService{zoneRepo: zoneRepo}
}

func (s *ZoneService) List(ctx context.Context) ([]model.Zone, error) {
	zones, err := s.zoneRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	if zones == nil {
		zones = []model.Zone{}
	}
	return zones, nil
}
