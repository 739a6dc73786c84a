package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"complaint-service/internal/model"
)

type ComplaintRepository struct {
	db *gorm.DB
}

func NewComplaintRepository(db *gorm.DB) *ComplaintRepository {
	return &ComplaintRepository{db: db}
}

type ComplaintFilter struct {
	Scope  model.Scope
	ZoneID *uint
	Status *model.ComplaintStatus
	Limit  int
	Offset int
}

func (r *ComplaintRepository) filtered(ctx context.Context, filter ComplaintFilter) *gorm.DB {
	query := r.db.WithContext(ctx).
		Model(&model.Complaint{}).
		Joins("JOIN users u ON u.id = complaints.user_id")

	query = applyScopeFilter(query, filter.Scope)

	if filter.ZoneID != nil {
		query = query.Where("u.zone_id = ?", *filter.ZoneID)
	}
	if filter.Status != nil {
		query = query.Where("complaints.status = ?", *filter.Status)
	}
	return query
}

// List returns one page of complaints visible under the filter, newest first, and the total match count.
func (r *ComplaintRepository) List(ctx context.Context, filter ComplaintFilter) ([]model.Complaint, int64, error) {
	var total int64
	if err := r.filtered(ctx, filter).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []model.Complaint{}, 0, nil
	}

	query := r.filtered(ctx, filter).
		Select("complaints.*").
		Order("complaints.created_at DESC").
		Order("complaints.id DESC").
		Preload("Attachments", orderByCreated)

	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	var complaints []model.Complaint
	if err := query.Find(&complaints).Error; err != nil {
		return nil, 0, err
	}
	return complaints, total, nil
}

// GetByID loads a complaint with its owner, the owner's zone, attachments and history. No scope is applied.
func (r *ComplaintRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Complaint, error) {
	var complaint model.Complaint
	err := r.db.WithContext(ctx).
		Preload("Owner").
		Preload("Owner.Zone").
		Preload("Attachments", orderByCreated).
		Preload("History", orderByCreated).
		First(&complaint, "complaints.id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &complaint, nil
}

// Create stores the complaint, its attachment rows and the initial status entry atomically.
func (r *ComplaintRepository) Create(ctx context.Context, complaint *model.Complaint, attachments []model.Attachment, entry *model.ComplaintStatusLog) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Owner", "Attachments", "History").Create(complaint).Error; err != nil {
			return err
		}
		if len(attachments) > 0 {
			for i := range attachments {
				attachments[i].ComplaintID = complaint.ID
			}
			if err := tx.Omit("Complaint").Create(&attachments).Error; err != nil {
				return err
			}
		}
		entry.ComplaintID = complaint.ID
		return tx.Create(entry).Error
	})
}

// UpdateStatus moves the complaint from one status to another and records the change.
// It reports false without writing anything when the stored status is no longer from.
func (r *ComplaintRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to model.ComplaintStatus, changedBy uuid.UUID) (bool, error) {
	applied := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.Complaint{}).
			Where("id = ? AND status = ?", id, from).
			Update("status", to)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}

		old := from
		entry := &model.ComplaintStatusLog{
			ComplaintID: id,
			OldStatus:   &old,
			NewStatus:   to,
			ChangedBy:   &changedBy,
		}
		if err := tx.Create(entry).Error; err != nil {
			return err
		}
		applied = true
		return nil
	})
	return applied, err
}

func (r *ComplaintRepository) AddAttachments(ctx context.Context, complaintID uuid.UUID, attachments []model.Attachment) error {
	if len(attachments) == 0 {
		return nil
	}
	for i := range attachments {
		attachments[i].ComplaintID = complaintID
	}
	return r.db.WithContext(ctx).Omit("Complaint").Create(&attachments).Error
}

// GetAttachment loads attachment metadata with the parent complaint and its owner for scope checks.
func (r *ComplaintRepository) GetAttachment(ctx context.Context, id uuid.UUID) (*model.Attachment, error) {
	var attachment model.Attachment
	if err := r.db.WithContext(ctx).
		Preload("Complaint").
		Preload("Complaint.Owner").
		First(&attachment, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &attachment, nil
}

// CountByStatus groups the complaints visible under scope by status.
func (r *ComplaintRepository) CountByStatus(ctx context.Context, scope model.Scope) (map[model.ComplaintStatus]int64, error) {
	type row struct {
		Status model.ComplaintStatus
		Total  int64
	}

	var rows []row
	if err := r.filtered(ctx, ComplaintFilter{Scope: scope}).
		Select("complaints.status AS status, COUNT(*) AS total").
		Group("complaints.status").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	counts := make(map[model.ComplaintStatus]int64, len(rows))
	for _, rw := range rows {
		counts[rw.Status] = rw.Total
	}
	return counts, nil
}

func orderByCreated(db *gorm.DB) *gorm.DB {
	return db.Order("created_at ASC")
}
