package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/medbook/clinic-platform/internal/model"
)

type DeadLetterRepository interface {
	// Record фиксирует терминальный отказ синхронизации.
	Record(ctx context.Context, item *model.SyncDeadLetter) error
	// ListRecent возвращает последние записи для ручной сверки.
	ListRecent(ctx context.Context, limit int) ([]model.SyncDeadLetter, error)
}

type GormDeadLetterRepository struct {
	db *gorm.DB
}

func NewGormDeadLetterRepository(db *gorm.DB) *GormDeadLetterRepository {
	return &GormDeadLetterRepository{db: db}
}

func (r *GormDeadLetterRepository) Record(ctx context.Context, item *model.SyncDeadLetter) error {
	return r.db.WithContext(ctx).Create(item).Error
}

func (r *GormDeadLetterRepository) ListRecent(
	ctx context.Context,
	limit int,
) ([]model.SyncDeadLetter, error) {
	if limit <= 0 {
		limit = 50
	}
	var items []model.SyncDeadLetter
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}
