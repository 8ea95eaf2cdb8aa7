package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Статус слота. pending/available принадлежат этому ядру,
// booked/cancelled выставляет подсистема бронирования.
type SlotStatus string

const (
	SlotStatusPending   SlotStatus = "pending"
	SlotStatusAvailable SlotStatus = "available"
	SlotStatusBooked    SlotStatus = "booked"
	SlotStatusCancelled SlotStatus = "cancelled"
)

// slots — конкретный датированный слот приёма.
// Уникальность по (doctor_branch_id, date, start_time) делает
// материализацию идемпотентной; GlobalID связывает слот с его
// репликой в directory-партиции.
// Ссылку на исходный диапазон шаблона слот не хранит, поэтому на
// этапе публикации правило с областью time_range сматчить нельзя.
type Slot struct {
	ID       uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	GlobalID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex"`

	DoctorBranchID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:ux_slots_key,priority:1;index"`

	Date      datatypes.Date `gorm:"type:date;not null;uniqueIndex:ux_slots_key,priority:2;index"`
	StartTime string         `gorm:"type:varchar(5);not null;uniqueIndex:ux_slots_key,priority:3"`
	EndTime   string         `gorm:"type:varchar(5);not null"`

	DurationMin int `gorm:"not null"`

	TotalSlots     int `gorm:"not null;default:1"`
	AvailableSlots int `gorm:"not null;default:1"`

	Status SlotStatus `gorm:"type:varchar(32);not null;default:'pending';index"`

	CreatedAt time.Time `gorm:"not null;default:now()"`
	UpdatedAt time.Time `gorm:"not null;default:now()"`

	DoctorBranch *DoctorBranch `gorm:"foreignKey:DoctorBranchID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}
