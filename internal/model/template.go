package model

import (
	"time"

	"github.com/google/uuid"
)

// availability_templates — недельный шаблон доступности врача в филиале.
// Один шаблон = один день недели; активный шаблон обязан иметь
// хотя бы один временной диапазон.
type AvailabilityTemplate struct {
	ID uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`

	DoctorBranchID uuid.UUID `gorm:"type:uuid;not null;index"`

	Weekday time.Weekday `gorm:"type:smallint;not null;index"`

	IsActive bool `gorm:"not null;default:true;index"`

	CreatedAt time.Time `gorm:"not null;default:now()"`
	UpdatedAt time.Time `gorm:"not null;default:now()"`

	DoctorBranch *DoctorBranch `gorm:"foreignKey:DoctorBranchID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`

	TimeRanges []TemplateTimeRange `gorm:"foreignKey:TemplateID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// template_time_ranges — диапазон внутри шаблона.
// Время храним строками "15:04": так его вводит персонал, а разбор
// и валидация выполняются на этапе материализации.
// ID диапазона стабилен и используется правилами с областью time_range.
type TemplateTimeRange struct {
	ID uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`

	TemplateID uuid.UUID `gorm:"type:uuid;not null;index"`

	StartTime string `gorm:"type:varchar(5);not null"`
	EndTime   string `gorm:"type:varchar(5);not null"`

	SlotDurationMin int `gorm:"not null"`

	// Вместимость каждого слота диапазона. По умолчанию один приём.
	Capacity int `gorm:"not null;default:1"`

	CreatedAt time.Time `gorm:"not null;default:now()"`
	UpdatedAt time.Time `gorm:"not null;default:now()"`

	Template *AvailabilityTemplate `gorm:"foreignKey:TemplateID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}
