package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	ContentTypeJPEG = "image/jpeg"
	ContentTypePNG  = "image/png"
	ContentTypeWEBP = "image/webp"

	// MaxAttachmentBytes is the per-file payload limit (2 MiB).
	MaxAttachmentBytes = 2 * 1024 * 1024
)

var allowedContentTypes = map[string]struct{}{
	ContentTypeJPEG: {},
	ContentTypePNG:  {},
	ContentTypeWEBP: {},
}

func AllowedContentType(contentType string) bool {
	_, ok := allowedContentTypes[contentType]
	return ok
}

// Attachment is the metadata row of an image; the payload lives in the content store under ID.
type Attachment struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ComplaintID uuid.UUID `gorm:"type:uuid;not null;index" json:"complaint_id"`
	ContentType string    `gorm:"type:varchar(50);not null" json:"content_type"`
	FileName    string    `gorm:"type:varchar(255);not null" json:"file_name"`
	FileSize    int64     `gorm:"not null" json:"file_size"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`

	Complaint *Complaint `gorm:"foreignKey:ComplaintID" json:"-"`
}

func (Attachment) TableName() string {
	return "complaint_attachments"
}

func (a *Attachment) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

// AttachmentContent is the payload row used when blobs are kept in the database.
type AttachmentContent struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	ContentType string    `gorm:"type:varchar(50);not null"`
	Data        []byte    `gorm:"not null"`
	CreatedAt   time.Time `gorm:"autoCreateTime"`
}

func (AttachmentContent) TableName() string {
	return "attachment_contents"
}
