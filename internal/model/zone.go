package model

// Zone is an administrative subdivision (Prabhag). Zones are seeded outside this service.
type Zone struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Name        string `gorm:"type:varchar(100);not null;uniqueIndex" json:"name"`
	Code        string `gorm:"type:varchar(10);not null;uniqueIndex" json:"code"`
	Description string `gorm:"type:text" json:"description"`
}

func (Zone) TableName() string {
	return "zones"
}
