package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

// The upsert is a single statement so concurrent callers serialize on the (zone_id, year) row.
const nextSequenceSQL = `INSERT INTO complaint_sequences (zone_id, year, current_value)
VALUES (?, ?, 1)
ON CONFLICT (zone_id, year)
DO UPDATE SET current_value = complaint_sequences.current_value + 1
RETURNING current_value`

type SequenceRepository struct {
	db *gorm.DB
}

func NewSequenceRepository(db *gorm.DB) *SequenceRepository {
	return &SequenceRepository{db: db}
}

// Next returns the next number for the zone and year, starting at 1.
// Numbers are committed immediately and never handed out twice, even if the caller fails later.
func (r *SequenceRepository) Next(ctx context.Context, zoneID uint, year int) (int, error) {
	var value int
	if err := r.db.WithContext(ctx).
		Raw(nextSequenceSQL, zoneID, year).
		Scan(&value).Error; err != nil {
		return 0, err
	}
	if value <= 0 {
		return 0, fmt.Errorf("sequence for zone %d year %d returned %d", zoneID, year, value)
	}
	return value, nil
}
