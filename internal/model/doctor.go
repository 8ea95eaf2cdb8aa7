package model

import (
	"time"

	"github.com/google/uuid"
)

// doctors — профиль врача внутри тенанта.
type Doctor struct {
	ID uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`

	DisplayName string `gorm:"type:varchar(255);not null"`
	Speciality  string `gorm:"type:varchar(255)"`

	IsActive bool `gorm:"not null;default:true;index"`

	CreatedAt time.Time `gorm:"not null;default:now()"`
	UpdatedAt time.Time `gorm:"not null;default:now()"`

	DoctorBranches []DoctorBranch `gorm:"foreignKey:DoctorID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// doctor_branches — связка «врач в филиале», владелец шаблонов
// доступности, правил публикации и слотов.
type DoctorBranch struct {
	ID       uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	GlobalID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex"`

	DoctorID uuid.UUID `gorm:"type:uuid;not null;index"`
	BranchID uuid.UUID `gorm:"type:uuid;not null;index"`

	IsActive bool `gorm:"not null;default:true;index"`

	CreatedAt time.Time `gorm:"not null;default:now()"`
	UpdatedAt time.Time `gorm:"not null;default:now()"`

	Doctor *Doctor `gorm:"foreignKey:DoctorID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Branch *Branch `gorm:"foreignKey:BranchID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`

	Templates []AvailabilityTemplate `gorm:"foreignKey:DoctorBranchID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Rules     []ReleaseRule          `gorm:"foreignKey:DoctorBranchID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Slots     []Slot                 `gorm:"foreignKey:DoctorBranchID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}
