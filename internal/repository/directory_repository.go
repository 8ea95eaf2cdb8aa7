package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/medbook/clinic-platform/internal/model"
)

// DirectoryRepository — доступ к directory-партиции. Все upsert-операции
// ключуются по GlobalID и выполняются каждая в собственной транзакции,
// независимой от тенантной стороны.
type DirectoryRepository interface {
	FindDoctorBranchByGlobalID(ctx context.Context, globalID uuid.UUID) (*model.DirectoryDoctorBranch, error)
	FindBranchByGlobalID(ctx context.Context, globalID uuid.UUID) (*model.DirectoryBranch, error)
	FindClinicByGlobalID(ctx context.Context, globalID uuid.UUID) (*model.DirectoryClinic, error)

	// Upsert-семейство: если запись с таким GlobalID есть — перезаписать
	// изменяемые поля, иначе вставить новую с тем же GlobalID.
	// Возвращают true при вставке, false при обновлении.
	UpsertClinic(ctx context.Context, clinic *model.DirectoryClinic) (bool, error)
	UpsertBranch(ctx context.Context, branch *model.DirectoryBranch) (bool, error)
	UpsertDoctorBranch(ctx context.Context, db *model.DirectoryDoctorBranch) (bool, error)
	UpsertSlot(ctx context.Context, slot *model.DirectorySlot) (bool, error)
}

type GormDirectoryRepository struct {
	db *gorm.DB
}

func NewGormDirectoryRepository(db *gorm.DB) *GormDirectoryRepository {
	return &GormDirectoryRepository{db: db}
}

func (r *GormDirectoryRepository) FindDoctorBranchByGlobalID(
	ctx context.Context,
	globalID uuid.UUID,
) (*model.DirectoryDoctorBranch, error) {
	var rec model.DirectoryDoctorBranch
	if err := r.db.WithContext(ctx).First(&rec, "global_id = ?", globalID).Error; err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *GormDirectoryRepository) FindBranchByGlobalID(
	ctx context.Context,
	globalID uuid.UUID,
) (*model.DirectoryBranch, error) {
	var rec model.DirectoryBranch
	if err := r.db.WithContext(ctx).First(&rec, "global_id = ?", globalID).Error; err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *GormDirectoryRepository) FindClinicByGlobalID(
	ctx context.Context,
	globalID uuid.UUID,
) (*model.DirectoryClinic, error) {
	var rec model.DirectoryClinic
	if err := r.db.WithContext(ctx).First(&rec, "global_id = ?", globalID).Error; err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *GormDirectoryRepository) UpsertClinic(
	ctx context.Context,
	clinic *model.DirectoryClinic,
) (bool, error) {
	inserted := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing model.DirectoryClinic
		err := tx.First(&existing, "global_id = ?", clinic.GlobalID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			inserted = true
			if clinic.ID == uuid.Nil {
				clinic.ID = uuid.New()
			}
			return tx.Create(clinic).Error
		}
		if err != nil {
			return err
		}
		return tx.Model(&existing).Updates(map[string]any{
			"name":        clinic.Name,
			"description": clinic.Description,
			"is_active":   clinic.IsActive,
		}).Error
	})
	return inserted, err
}

func (r *GormDirectoryRepository) UpsertBranch(
	ctx context.Context,
	branch *model.DirectoryBranch,
) (bool, error) {
	inserted := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing model.DirectoryBranch
		err := tx.First(&existing, "global_id = ?", branch.GlobalID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			inserted = true
			if branch.ID == uuid.Nil {
				branch.ID = uuid.New()
			}
			return tx.Create(branch).Error
		}
		if err != nil {
			return err
		}
		return tx.Model(&existing).Updates(map[string]any{
			"directory_clinic_id": branch.DirectoryClinicID,
			"name":                branch.Name,
			"address":             branch.Address,
			"is_active":           branch.IsActive,
		}).Error
	})
	return inserted, err
}

func (r *GormDirectoryRepository) UpsertDoctorBranch(
	ctx context.Context,
	rec *model.DirectoryDoctorBranch,
) (bool, error) {
	inserted := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing model.DirectoryDoctorBranch
		err := tx.First(&existing, "global_id = ?", rec.GlobalID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			inserted = true
			if rec.ID == uuid.Nil {
				rec.ID = uuid.New()
			}
			return tx.Create(rec).Error
		}
		if err != nil {
			return err
		}
		return tx.Model(&existing).Updates(map[string]any{
			"directory_branch_id": rec.DirectoryBranchID,
			"doctor_name":         rec.DoctorName,
			"speciality":          rec.Speciality,
			"is_active":           rec.IsActive,
		}).Error
	})
	return inserted, err
}

func (r *GormDirectoryRepository) UpsertSlot(
	ctx context.Context,
	slot *model.DirectorySlot,
) (bool, error) {
	inserted := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing model.DirectorySlot
		err := tx.First(&existing, "global_id = ?", slot.GlobalID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			inserted = true
			if slot.ID == uuid.Nil {
				slot.ID = uuid.New()
			}
			return tx.Create(slot).Error
		}
		if err != nil {
			return err
		}
		return tx.Model(&existing).Updates(map[string]any{
			"directory_doctor_branch_id": slot.DirectoryDoctorBranchID,
			"date":                       slot.Date,
			"start_time":                 slot.StartTime,
			"end_time":                   slot.EndTime,
			"duration_min":               slot.DurationMin,
			"total_slots":                slot.TotalSlots,
			"available_slots":            slot.AvailableSlots,
			"status":                     slot.Status,
		}).Error
	})
	return inserted, err
}
