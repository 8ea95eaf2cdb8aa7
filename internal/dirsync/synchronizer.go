package dirsync

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/medbook/clinic-platform/internal/logger"
	"github.com/medbook/clinic-platform/internal/metrics"
	"github.com/medbook/clinic-platform/internal/model"
	"github.com/medbook/clinic-platform/internal/partition"
	"github.com/medbook/clinic-platform/internal/repository"
)

var (
	// Родительская сущность ни разу не синхронизировалась в directory.
	ErrParentNotSynced = errors.New("parent entity has no directory counterpart")
	// У тенантной записи не подгружен владелец.
	ErrOwnerNotLoaded = errors.New("owner navigation field is not loaded")
)

// ItemError — отказ одной записи внутри батча.
type ItemError struct {
	GlobalID uuid.UUID
	Err      error
}

// BatchReport — итог синхронизации одного батча.
type BatchReport struct {
	Inserted int
	Updated  int
	Failed   int

	Errors []ItemError
}

func (r *BatchReport) fail(globalID uuid.UUID, err error) {
	r.Failed++
	r.Errors = append(r.Errors, ItemError{GlobalID: globalID, Err: err})
}

// Synchronizer переносит тенантные записи в directory-партицию.
// Единственный ключ соответствия — GlobalID: кто первым создал сущность,
// тот и назначил его, противоположная сторона никогда не генерирует
// идентификатор заново. Отказ одной записи не прерывает остальные.
type Synchronizer struct {
	dir repository.DirectoryRepository
}

func NewSynchronizer(dir repository.DirectoryRepository) *Synchronizer {
	return &Synchronizer{dir: dir}
}

// SyncSlots синхронизирует слоты тенанта. У каждого слота должен быть
// подгружен DoctorBranch: его GlobalID нужен для поиска directory-владельца.
func (s *Synchronizer) SyncSlots(
	ctx context.Context,
	tenant partition.Key,
	slots []model.Slot,
) BatchReport {
	var report BatchReport

	for i := range slots {
		slot := &slots[i]

		if slot.DoctorBranch == nil {
			report.fail(slot.GlobalID, ErrOwnerNotLoaded)
			continue
		}

		owner, err := s.dir.FindDoctorBranchByGlobalID(ctx, slot.DoctorBranch.GlobalID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				err = fmt.Errorf("%w: doctor branch %s", ErrParentNotSynced, slot.DoctorBranch.GlobalID)
			}
			report.fail(slot.GlobalID, err)
			continue
		}

		inserted, err := s.dir.UpsertSlot(ctx, &model.DirectorySlot{
			GlobalID:                slot.GlobalID,
			TenantKey:               string(tenant),
			DirectoryDoctorBranchID: owner.ID,
			Date:                    slot.Date,
			StartTime:               slot.StartTime,
			EndTime:                 slot.EndTime,
			DurationMin:             slot.DurationMin,
			TotalSlots:              slot.TotalSlots,
			AvailableSlots:          slot.AvailableSlots,
			Status:                  slot.Status,
		})
		if err != nil {
			report.fail(slot.GlobalID, err)
			continue
		}
		if inserted {
			report.Inserted++
		} else {
			report.Updated++
		}
	}

	s.logReport(tenant, "slots", report)
	return report
}

// SyncClinics синхронизирует клиники тенанта.
func (s *Synchronizer) SyncClinics(
	ctx context.Context,
	tenant partition.Key,
	clinics []model.Clinic,
) BatchReport {
	var report BatchReport

	for i := range clinics {
		clinic := &clinics[i]
		inserted, err := s.dir.UpsertClinic(ctx, &model.DirectoryClinic{
			GlobalID:    clinic.GlobalID,
			TenantKey:   string(tenant),
			Name:        clinic.Name,
			Description: clinic.Description,
			IsActive:    clinic.IsActive,
		})
		if err != nil {
			report.fail(clinic.GlobalID, err)
			continue
		}
		if inserted {
			report.Inserted++
		} else {
			report.Updated++
		}
	}

	s.logReport(tenant, "clinics", report)
	return report
}

// SyncBranches синхронизирует филиалы. Родительская клиника обязана
// быть уже синхронизирована; иначе запись падает поштучно.
func (s *Synchronizer) SyncBranches(
	ctx context.Context,
	tenant partition.Key,
	branches []model.Branch,
) BatchReport {
	var report BatchReport

	for i := range branches {
		branch := &branches[i]

		if branch.Clinic == nil {
			report.fail(branch.GlobalID, ErrOwnerNotLoaded)
			continue
		}

		parent, err := s.dir.FindClinicByGlobalID(ctx, branch.Clinic.GlobalID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				err = fmt.Errorf("%w: clinic %s", ErrParentNotSynced, branch.Clinic.GlobalID)
			}
			report.fail(branch.GlobalID, err)
			continue
		}

		inserted, err := s.dir.UpsertBranch(ctx, &model.DirectoryBranch{
			GlobalID:          branch.GlobalID,
			TenantKey:         string(tenant),
			DirectoryClinicID: parent.ID,
			Name:              branch.Name,
			Address:           branch.Address,
			IsActive:          branch.IsActive,
		})
		if err != nil {
			report.fail(branch.GlobalID, err)
			continue
		}
		if inserted {
			report.Inserted++
		} else {
			report.Updated++
		}
	}

	s.logReport(tenant, "branches", report)
	return report
}

// SyncDoctorBranches синхронизирует связки «врач в филиале».
// Требует подгруженных Doctor и Branch.
func (s *Synchronizer) SyncDoctorBranches(
	ctx context.Context,
	tenant partition.Key,
	records []model.DoctorBranch,
) BatchReport {
	var report BatchReport

	for i := range records {
		rec := &records[i]

		if rec.Doctor == nil || rec.Branch == nil {
			report.fail(rec.GlobalID, ErrOwnerNotLoaded)
			continue
		}

		parent, err := s.dir.FindBranchByGlobalID(ctx, rec.Branch.GlobalID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				err = fmt.Errorf("%w: branch %s", ErrParentNotSynced, rec.Branch.GlobalID)
			}
			report.fail(rec.GlobalID, err)
			continue
		}

		inserted, err := s.dir.UpsertDoctorBranch(ctx, &model.DirectoryDoctorBranch{
			GlobalID:          rec.GlobalID,
			TenantKey:         string(tenant),
			DirectoryBranchID: parent.ID,
			DoctorName:        rec.Doctor.DisplayName,
			Speciality:        rec.Doctor.Speciality,
			IsActive:          rec.IsActive,
		})
		if err != nil {
			report.fail(rec.GlobalID, err)
			continue
		}
		if inserted {
			report.Inserted++
		} else {
			report.Updated++
		}
	}

	s.logReport(tenant, "doctor_branches", report)
	return report
}

func (s *Synchronizer) logReport(tenant partition.Key, kind string, report BatchReport) {
	if report.Failed > 0 {
		metrics.SyncItemFailures.WithLabelValues(string(tenant)).Add(float64(report.Failed))
		for _, item := range report.Errors {
			logger.Log.Warn("directory sync item failed",
				zap.String("tenant", string(tenant)),
				zap.String("kind", kind),
				zap.String("global_id", item.GlobalID.String()),
				zap.Error(item.Err),
			)
		}
	}

	logger.Log.Debug("directory sync batch done",
		zap.String("tenant", string(tenant)),
		zap.String("kind", kind),
		zap.Int("inserted", report.Inserted),
		zap.Int("updated", report.Updated),
		zap.Int("failed", report.Failed),
	)
}
