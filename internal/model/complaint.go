package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ComplaintStatus string

const (
	ComplaintStatusPending    ComplaintStatus = "PENDING"
	ComplaintStatusInProgress ComplaintStatus = "IN_PROGRESS"
	ComplaintStatusResolved   ComplaintStatus = "RESOLVED"
)

func (s ComplaintStatus) Valid() bool {
	switch s {
	case ComplaintStatusPending, ComplaintStatusInProgress, ComplaintStatusResolved:
		return true
	default:
		return false
	}
}

// Terminal reports whether no transition leaves the status.
func (s ComplaintStatus) Terminal() bool {
	return s == ComplaintStatusResolved
}

var complaintTransitions = map[ComplaintStatus][]ComplaintStatus{
	ComplaintStatusPending:    {ComplaintStatusInProgress, ComplaintStatusResolved},
	ComplaintStatusInProgress: {ComplaintStatusResolved},
}

// CanTransition reports whether the lifecycle allows moving from s to next.
// No-op and backward moves are not transitions.
func (s ComplaintStatus) CanTransition(next ComplaintStatus) bool {
	for _, allowed := range complaintTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

type ComplaintCategory string

const (
	ComplaintCategoryRoadDamage           ComplaintCategory = "ROAD_DAMAGE"
	ComplaintCategoryStreetLight          ComplaintCategory = "STREET_LIGHT"
	ComplaintCategoryGarbageCollection    ComplaintCategory = "GARBAGE_COLLECTION"
	ComplaintCategoryWaterSupply          ComplaintCategory = "WATER_SUPPLY"
	ComplaintCategoryDrainage             ComplaintCategory = "DRAINAGE"
	ComplaintCategoryIllegalConstruction  ComplaintCategory = "ILLEGAL_CONSTRUCTION"
	ComplaintCategoryNoisePollution       ComplaintCategory = "NOISE_POLLUTION"
	ComplaintCategoryPublicPropertyDamage ComplaintCategory = "PUBLIC_PROPERTY_DAMAGE"
	ComplaintCategoryOther                ComplaintCategory = "OTHER"
)

func (c ComplaintCategory) Valid() bool {
	switch c {
	case ComplaintCategoryRoadDamage,
		ComplaintCategoryStreetLight,
		ComplaintCategoryGarbageCollection,
		ComplaintCategoryWaterSupply,
		ComplaintCategoryDrainage,
		ComplaintCategoryIllegalConstruction,
		ComplaintCategoryNoisePollution,
		ComplaintCategoryPublicPropertyDamage,
		ComplaintCategoryOther:
		return true
	default:
		return false
	}
}

type Complaint struct {
	ID              uuid.UUID         `gorm:"type:uuid;primaryKey" json:"id"`
	UserID          uuid.UUID         `gorm:"type:uuid;not null;index" json:"user_id"`
	ComplaintNumber string            `gorm:"type:varchar(64);not null;uniqueIndex" json:"complaint_number"`
	Title           string            `gorm:"type:varchar(255);not null" json:"title"`
	Description     string            `gorm:"type:text;not null" json:"description"`
	Category        ComplaintCategory `gorm:"type:complaint_category;not null" json:"category"`
	Status          ComplaintStatus   `gorm:"type:complaint_status;not null;default:'PENDING';index" json:"status"`
	Latitude        *float64          `gorm:"type:numeric(10,8)" json:"latitude"`
	Longitude       *float64          `gorm:"type:numeric(11,8)" json:"longitude"`
	LocationNote    string            `gorm:"type:text" json:"location_note"`
	CreatedAt       time.Time         `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt       time.Time         `gorm:"autoUpdateTime" json:"updated_at"`

	Owner       *User                `gorm:"foreignKey:UserID" json:"-"`
	Attachments []Attachment         `gorm:"foreignKey:ComplaintID;constraint:OnDelete:CASCADE" json:"-"`
	History     []ComplaintStatusLog `gorm:"foreignKey:ComplaintID;constraint:OnDelete:CASCADE" json:"-"`
}

func (Complaint) TableName() string {
	return "complaints"
}

func (c *Complaint) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// OwnerZoneID is the owner's current zone, nil when the owner is not loaded or has none.
func (c *Complaint) OwnerZoneID() *uint {
	if c.Owner == nil {
		return nil
	}
	return c.Owner.ZoneID
}
