package model

// ComplaintSequence holds the last number issued for a zone in a calendar year.
type ComplaintSequence struct {
	ZoneID       uint `gorm:"primaryKey;autoIncrement:false"`
	Year         int  `gorm:"primaryKey;autoIncrement:false"`
	CurrentValue int  `gorm:"not null"`
}

func (ComplaintSequence) TableName() string {
	return "complaint_sequences"
}
