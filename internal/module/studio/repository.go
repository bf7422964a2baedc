package studio

import (
	"context"

	"gorm.io/gorm"
)

// Repository persists generation records.
type Repository interface {
	Create(ctx context.Context, record *GenerationRecord) error
	ListByUser(ctx context.Context, userKey string, limit int) ([]*GenerationRecord, error)
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates a gorm-backed repository.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

// AutoMigrate creates or updates the generation_records table.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&GenerationRecord{})
}

func (r *gormRepository) Create(ctx context.Context, record *GenerationRecord) error {
	return r.db.WithContext(ctx).Create(record).Error
}

func (r *gormRepository) ListByUser(ctx context.Context, userKey string, limit int) ([]*GenerationRecord, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	var records []*GenerationRecord
	err := r.db.WithContext(ctx).
		Where("user_key = ?", userKey).
		Order("created_at DESC").
		Limit(limit).
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}
