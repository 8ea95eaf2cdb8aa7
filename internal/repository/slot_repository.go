package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/medbook/clinic-platform/internal/model"
)

type SlotRepository interface {
	// Существует ли слот с таким ключом (врач-филиал, дата, начало).
	Exists(ctx context.Context, doctorBranchID uuid.UUID, date time.Time, startTime string) (bool, error)
	// Создать слот.
	Create(ctx context.Context, slot *model.Slot) error
	// Pending-слоты партиции в окне дат, с владельцем для синхронизации.
	ListPendingInWindow(ctx context.Context, from, to time.Time) ([]model.Slot, error)
	// Обновить статус слота.
	UpdateStatus(ctx context.Context, id uuid.UUID, status model.SlotStatus) error
	// Найти слот по ключу материализации.
	FindByKey(ctx context.Context, doctorBranchID uuid.UUID, date time.Time, startTime string) (*model.Slot, error)
	// Слоты по списку глобальных идентификаторов, с владельцем.
	ListByGlobalIDs(ctx context.Context, globalIDs []uuid.UUID) ([]model.Slot, error)
}

type GormSlotRepository struct {
	db *gorm.DB
}

func NewGormSlotRepository(db *gorm.DB) *GormSlotRepository {
	return &GormSlotRepository{db: db}
}

func (r *GormSlotRepository) Exists(
	ctx context.Context,
	doctorBranchID uuid.UUID,
	date time.Time,
	startTime string,
) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Slot{}).
		Where("doctor_branch_id = ?", doctorBranchID).
		Where("date = ?", date).
		Where("start_time = ?", startTime).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *GormSlotRepository) Create(ctx context.Context, slot *model.Slot) error {
	return r.db.WithContext(ctx).Create(slot).Error
}

func (r *GormSlotRepository) ListPendingInWindow(
	ctx context.Context,
	from, to time.Time,
) ([]model.Slot, error) {
	var slots []model.Slot
	err := r.db.WithContext(ctx).
		Preload("DoctorBranch").
		Where("status = ?", model.SlotStatusPending).
		Where("date >= ? AND date <= ?", from, to).
		Order("date ASC, start_time ASC").
		Find(&slots).Error
	if err != nil {
		return nil, err
	}
	return slots, nil
}

func (r *GormSlotRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.SlotStatus) error {
	return r.db.WithContext(ctx).
		Model(&model.Slot{}).
		Where("id = ?", id).
		Update("status", status).
		Error
}

func (r *GormSlotRepository) FindByKey(
	ctx context.Context,
	doctorBranchID uuid.UUID,
	date time.Time,
	startTime string,
) (*model.Slot, error) {
	var slot model.Slot
	err := r.db.WithContext(ctx).
		Where("doctor_branch_id = ?", doctorBranchID).
		Where("date = ?", date).
		Where("start_time = ?", startTime).
		First(&slot).Error
	if err != nil {
		return nil, err
	}
	return &slot, nil
}

func (r *GormSlotRepository) ListByGlobalIDs(
	ctx context.Context,
	globalIDs []uuid.UUID,
) ([]model.Slot, error) {
	if len(globalIDs) == 0 {
		return []model.Slot{}, nil
	}
	var slots []model.Slot
	err := r.db.WithContext(ctx).
		Preload("DoctorBranch").
		Where("global_id IN ?", globalIDs).
		Find(&slots).Error
	if err != nil {
		return nil, err
	}
	return slots, nil
}
