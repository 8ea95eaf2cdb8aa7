package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Сущности общей directory-партиции. Все они полностью принадлежат
// синхронизатору: тенантный код не пишет сюда напрямую, а поиск
// выполняется исключительно по GlobalID.

// tenants — реестр известных тенантов, источник перечисления
// для оркестратора.
type Tenant struct {
	ID uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`

	// Ключ тенанта, используется как ключ партиции и метка метрик.
	Key string `gorm:"type:varchar(64);not null;uniqueIndex"`

	Name       string `gorm:"type:varchar(255);not null"`
	SchemaName string `gorm:"type:varchar(64);not null"`

	IsActive bool `gorm:"not null;default:true;index"`

	CreatedAt time.Time `gorm:"not null;default:now()"`
	UpdatedAt time.Time `gorm:"not null;default:now()"`
}

// directory_clinics — реплика клиники.
type DirectoryClinic struct {
	ID       uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	GlobalID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex"`

	TenantKey string `gorm:"type:varchar(64);not null;index"`

	Name        string `gorm:"type:varchar(255);not null"`
	Description string `gorm:"type:text"`
	IsActive    bool   `gorm:"not null;default:true"`

	CreatedAt time.Time `gorm:"not null;default:now()"`
	UpdatedAt time.Time `gorm:"not null;default:now()"`
}

// directory_branches — реплика филиала.
type DirectoryBranch struct {
	ID       uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	GlobalID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex"`

	TenantKey string `gorm:"type:varchar(64);not null;index"`

	// FK на directory-реплику клиники, разрешается по GlobalID родителя.
	DirectoryClinicID uuid.UUID `gorm:"type:uuid;not null;index"`

	Name     string `gorm:"type:varchar(255);not null"`
	Address  string `gorm:"type:text"`
	IsActive bool   `gorm:"not null;default:true"`

	CreatedAt time.Time `gorm:"not null;default:now()"`
	UpdatedAt time.Time `gorm:"not null;default:now()"`

	DirectoryClinic *DirectoryClinic `gorm:"foreignKey:DirectoryClinicID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// directory_doctor_branches — реплика связки «врач в филиале».
type DirectoryDoctorBranch struct {
	ID       uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	GlobalID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex"`

	TenantKey string `gorm:"type:varchar(64);not null;index"`

	DirectoryBranchID uuid.UUID `gorm:"type:uuid;not null;index"`

	DoctorName string `gorm:"type:varchar(255);not null"`
	Speciality string `gorm:"type:varchar(255)"`
	IsActive   bool   `gorm:"not null;default:true"`

	CreatedAt time.Time `gorm:"not null;default:now()"`
	UpdatedAt time.Time `gorm:"not null;default:now()"`

	DirectoryBranch *DirectoryBranch `gorm:"foreignKey:DirectoryBranchID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// directory_slots — реплика слота для публичного поиска.
// Ключ соответствия — GlobalID слота; тенантный auto-id сюда не попадает.
type DirectorySlot struct {
	ID       uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	GlobalID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex"`

	TenantKey string `gorm:"type:varchar(64);not null;index"`

	DirectoryDoctorBranchID uuid.UUID `gorm:"type:uuid;not null;index"`

	Date      datatypes.Date `gorm:"type:date;not null;index"`
	StartTime string         `gorm:"type:varchar(5);not null"`
	EndTime   string         `gorm:"type:varchar(5);not null"`

	DurationMin    int `gorm:"not null"`
	TotalSlots     int `gorm:"not null"`
	AvailableSlots int `gorm:"not null"`

	Status SlotStatus `gorm:"type:varchar(32);not null;index"`

	CreatedAt time.Time `gorm:"not null;default:now()"`
	UpdatedAt time.Time `gorm:"not null;default:now()"`

	DirectoryDoctorBranch *DirectoryDoctorBranch `gorm:"foreignKey:DirectoryDoctorBranchID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}
