package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type User struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Role         UserRole  `gorm:"type:varchar(32);not null" json:"role"`
	FullName     string    `gorm:"type:varchar(255);not null" json:"full_name"`
	MobileNumber string    `gorm:"type:varchar(15);not null;uniqueIndex" json:"mobile_number"`
	Email        string    `gorm:"type:varchar(255);not null;uniqueIndex" json:"email"`
	Address      string    `gorm:"type:text" json:"address"`
	PinCode      string    `gorm:"type:varchar(10)" json:"pin_code"`
	IsActive     bool      `gorm:"not null;default:true" json:"is_active"`
	ZoneID       *uint     `json:"zone_id"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	Zone *Zone `gorm:"foreignKey:ZoneID" json:"zone,omitempty"`
}

func (User) TableName() string {
	return "users"
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}
