package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// sync_dead_letters — терминальные отказы синхронизации после
// исчерпания ретраев. Записи предназначены для ручной сверки,
// автоматического повторного проигрывания нет.
type SyncDeadLetter struct {
	ID uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`

	TenantKey  string    `gorm:"type:varchar(64);not null;index"`
	EntityKind string    `gorm:"type:varchar(32);not null"`
	GlobalID   uuid.UUID `gorm:"type:uuid;not null;index"`

	Attempts  int    `gorm:"not null"`
	LastError string `gorm:"type:text"`

	// Снимок записи на момент отказа, для сверки без похода в партицию.
	Payload datatypes.JSON `gorm:"type:jsonb"`

	CreatedAt time.Time `gorm:"not null;default:now();index"`
}
