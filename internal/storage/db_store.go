package storage

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"complaint-service/internal/model"
)

type DBStore struct {
	db *gorm.DB
}

func NewDBStore(db *gorm.DB) *DBStore {
	return &DBStore{db: db}
}

func (s *DBStore) Put(ctx context.Context, id uuid.UUID, obj Object) error {
	return s.db.WithContext(ctx).Create(&model.AttachmentContent{
		ID:          id,
		ContentType: obj.ContentType,
		Data:        obj.Data,
	}).Error
}

func (s *DBStore) Get(ctx context.Context, id uuid.UUID) (*Object, error) {
	var row model.AttachmentContent
	if err := s.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrObjectNotFound
		}
		return nil, err
	}
	return &Object{ContentType: row.ContentType, Data: row.Data}, nil
}

func (s *DBStore) Delete(ctx context.Context, id uuid.UUID) error {
	return s.db.WithContext(ctx).Delete(&model.AttachmentContent{}, "id = ?", id).Error
}
