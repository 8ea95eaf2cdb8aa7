package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/medbook/clinic-platform/internal/model"
)

var ErrTemplateNoRanges = errors.New("active template must have at least one time range")

type TemplateRepository interface {
	// Все активные шаблоны партиции вместе с диапазонами.
	ListActive(ctx context.Context) ([]model.AvailabilityTemplate, error)
	// Активные шаблоны конкретной пары врач-филиал.
	ListActiveByDoctorBranch(ctx context.Context, doctorBranchID uuid.UUID) ([]model.AvailabilityTemplate, error)
	// Создать шаблон вместе с диапазонами.
	Create(ctx context.Context, tpl *model.AvailabilityTemplate) error
	// Заменить диапазоны шаблона: старые удаляются, новые вставляются
	// одной транзакцией (шаблон «вытесняется», а не редактируется по месту).
	ReplaceRanges(ctx context.Context, templateID uuid.UUID, ranges []model.TemplateTimeRange) error
	// Деактивировать шаблон.
	Deactivate(ctx context.Context, templateID uuid.UUID) error
}

type GormTemplateRepository struct {
	db *gorm.DB
}

func NewGormTemplateRepository(db *gorm.DB) *GormTemplateRepository {
	return &GormTemplateRepository{db: db}
}

func (r *GormTemplateRepository) ListActive(ctx context.Context) ([]model.AvailabilityTemplate, error) {
	var templates []model.AvailabilityTemplate
	err := r.db.WithContext(ctx).
		Preload("TimeRanges").
		Where("is_active = ?", true).
		Order("weekday ASC").
		Find(&templates).Error
	if err != nil {
		return nil, err
	}
	return templates, nil
}

func (r *GormTemplateRepository) ListActiveByDoctorBranch(
	ctx context.Context,
	doctorBranchID uuid.UUID,
) ([]model.AvailabilityTemplate, error) {
	var templates []model.AvailabilityTemplate
	err := r.db.WithContext(ctx).
		Preload("TimeRanges").
		Where("doctor_branch_id = ?", doctorBranchID).
		Where("is_active = ?", true).
		Order("weekday ASC").
		Find(&templates).Error
	if err != nil {
		return nil, err
	}
	return templates, nil
}

func (r *GormTemplateRepository) Create(ctx context.Context, tpl *model.AvailabilityTemplate) error {
	if tpl.IsActive && len(tpl.TimeRanges) == 0 {
		return ErrTemplateNoRanges
	}
	return r.db.WithContext(ctx).Create(tpl).Error
}

func (r *GormTemplateRepository) ReplaceRanges(
	ctx context.Context,
	templateID uuid.UUID,
	ranges []model.TemplateTimeRange,
) error {
	if len(ranges) == 0 {
		return ErrTemplateNoRanges
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("template_id = ?", templateID).
			Delete(&model.TemplateTimeRange{}).Error; err != nil {
			return err
		}
		for i := range ranges {
			ranges[i].TemplateID = templateID
			if ranges[i].ID == uuid.Nil {
				ranges[i].ID = uuid.New()
			}
		}
		return tx.Create(&ranges).Error
	})
}

func (r *GormTemplateRepository) Deactivate(ctx context.Context, templateID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&model.AvailabilityTemplate{}).
		Where("id = ?", templateID).
		Update("is_active", false).
		Error
}
