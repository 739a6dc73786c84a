// Package storage keeps attachment payloads apart from their metadata rows.
package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"complaint-service/internal/config"
)

var ErrObjectNotFound = errors.New("object not found")

type Object struct {
	ContentType string
	Data        []byte
}

// ContentStore holds attachment payloads keyed by attachment ID.
type ContentStore interface {
	Put(ctx context.Context, id uuid.UUID, obj Object) error
	Get(ctx context.Context, id uuid.UUID) (*Object, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

func New(cfg config.StorageConfig, db *gorm.DB) (ContentStore, error) {
	switch cfg.Backend {
	case config.StorageDatabase:
		return NewDBStore(db), nil
	case config.StorageS3:
		return NewS3Store(cfg)
	default:
		return nil, fmt.Errorf("unsupported storage backend %q", cfg.Backend)
	}
}
