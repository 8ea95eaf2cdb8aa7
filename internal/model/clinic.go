package model

import (
	"time"

	"github.com/google/uuid"
)

// clinics — клиника внутри тенантной партиции.
// GlobalID назначается один раз при создании и никогда не меняется:
// directory-партиция ищет клинику только по нему.
type Clinic struct {
	ID       uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	GlobalID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex"`

	Name        string `gorm:"type:varchar(255);not null"`
	Description string `gorm:"type:text"`

	IsActive bool `gorm:"not null;default:true;index"`

	CreatedAt time.Time `gorm:"not null;default:now()"`
	UpdatedAt time.Time `gorm:"not null;default:now()"`

	Branches []Branch `gorm:"foreignKey:ClinicID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// branches — филиал клиники.
type Branch struct {
	ID       uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	GlobalID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex"`

	ClinicID uuid.UUID `gorm:"type:uuid;not null;index"`

	Name    string `gorm:"type:varchar(255);not null"`
	Address string `gorm:"type:text"`

	IsActive bool `gorm:"not null;default:true;index"`

	CreatedAt time.Time `gorm:"not null;default:now()"`
	UpdatedAt time.Time `gorm:"not null;default:now()"`

	Clinic *Clinic `gorm:"foreignKey:ClinicID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}
