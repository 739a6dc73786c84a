package model

import (
	"time"

	"github.com/google/uuid"
)

type AttachmentRef struct {
	ID          uuid.UUID `json:"id"`
	URL         string    `json:"url"`
	ContentType string    `json:"content_type"`
	FileName    string    `json:"file_name"`
	FileSize    int64     `json:"file_size"`
}

type ComplaintSummary struct {
	ID              uuid.UUID         `json:"id"`
	ComplaintNumber string            `json:"complaint_number"`
	Title           string            `json:"title"`
	Description     string            `json:"description"`
	Category        ComplaintCategory `json:"category"`
	Status          ComplaintStatus   `json:"status"`
	Latitude        *float64          `json:"latitude"`
	Longitude       *float64          `json:"longitude"`
	LocationNote    string            `json:"location_note"`
	CreatedAt       time.Time         `json:"created_at"`
	ImageURLs       []string          `json:"image_urls"`
}

type CitizenInfo struct {
	ID           uuid.UUID `json:"id"`
	FullName     string    `json:"full_name"`
	MobileNumber string    `json:"mobile_number"`
	Email        string    `json:"email"`
	Address      string    `json:"address"`
	PinCode      string    `json:"pin_code"`
	ZoneName     string    `json:"zone_name"`
}

type ZoneInfo struct {
	ZoneID   *uint  `json:"zone_id"`
	ZoneName string `json:"zone_name"`
}

type LocationInfo struct {
	Latitude     *float64 `json:"latitude"`
	Longitude    *float64 `json:"longitude"`
	LocationNote string   `json:"location_note"`
}

type StatusChange struct {
	OldStatus *ComplaintStatus `json:"old_status"`
	NewStatus ComplaintStatus  `json:"new_status"`
	ChangedBy *uuid.UUID       `json:"changed_by"`
	ChangedAt time.Time        `json:"changed_at"`
}

type ComplaintDetail struct {
	ID              uuid.UUID         `json:"id"`
	ComplaintNumber string            `json:"complaint_number"`
	Title           string            `json:"title"`
	Description     string            `json:"description"`
	Category        ComplaintCategory `json:"category"`
	Status          ComplaintStatus   `json:"status"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
	RaisedBy        *CitizenInfo      `json:"raised_by"`
	Zone            ZoneInfo          `json:"zone"`
	Location        LocationInfo      `json:"location"`
	Attachments     []AttachmentRef   `json:"attachments"`
	History         []StatusChange    `json:"history"`
}

type ComplaintStats struct {
	Total      int64 `json:"total"`
	Pending    int64 `json:"pending"`
	InProgress int64 `json:"in_progress"`
	Resolved   int64 `json:"resolved"`
}

type Page[T any] struct {
	Content       []T   `json:"content"`
	Page          int   `json:"page"`
	Size          int   `json:"size"`
	TotalElements int64 `json:"total_elements"`
	TotalPages    int   `json:"total_pages"`
	Last          bool  `json:"last"`
}

func NewPage[T any](content []T, page, size int, total int64) Page[T] {
	if content == nil {
		content = []T{}
	}
	totalPages := 0
	if size > 0 {
		totalPages = int((total + int64(size) - 1) / int64(size))
	}
	return Page[T]{
		Content:       content,
		Page:          page,
		Size:          size,
		TotalElements: total,
		TotalPages:    totalPages,
		Last:          page+1 >= totalPages,
	}
}
