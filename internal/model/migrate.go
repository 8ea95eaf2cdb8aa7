package model

import "gorm.io/gorm"

// AutoMigrateTenant выполняет миграцию сущностей тенантной партиции.
func AutoMigrateTenant(db *gorm.DB) error {
	return db.AutoMigrate(
		&Clinic{},
		&Branch{},
		&Doctor{},
		&DoctorBranch{},
		&AvailabilityTemplate{},
		&TemplateTimeRange{},
		&ReleaseRule{},
		&Slot{},
		&SyncDeadLetter{},
	)
}

// AutoMigrateDirectory выполняет миграцию общей directory-партиции.
func AutoMigrateDirectory(db *gorm.DB) error {
	return db.AutoMigrate(
		&Tenant{},
		&DirectoryClinic{},
		&DirectoryBranch{},
		&DirectoryDoctorBranch{},
		&DirectorySlot{},
	)
}
