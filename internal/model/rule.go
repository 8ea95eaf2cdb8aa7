package model

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Область действия правила публикации.
type RuleScope string

const (
	RuleScopeDefault   RuleScope = "default"
	RuleScopeWeekday   RuleScope = "weekday"
	RuleScopeTimeRange RuleScope = "time_range"
)

var (
	ErrRuleWeekdayRequired   = errors.New("weekday rule: weekday is required")
	ErrRuleTimeRangeRequired = errors.New("time_range rule: time range id is required")
	ErrRuleScopeUnknown      = errors.New("release rule: unknown scope")
	ErrRuleReleaseDays       = errors.New("release rule: releaseDaysBefore must be >= 0")
	ErrRuleThresholdMissing  = errors.New("release rule: either releaseTime or releaseMinutesBefore is required")
)

// release_rules — правило публикации слотов врача в филиале.
// Правила не удаляются физически, только деактивируются:
// история нужна для аудита.
type ReleaseRule struct {
	ID uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`

	DoctorBranchID uuid.UUID `gorm:"type:uuid;not null;index"`

	Scope RuleScope `gorm:"type:varchar(32);not null;index"`

	// Заполняется только для Scope == weekday.
	Weekday *time.Weekday `gorm:"type:smallint"`
	// Заполняется только для Scope == time_range.
	TimeRangeID *uuid.UUID `gorm:"type:uuid;index"`

	// За сколько дней до даты слота начинается публикация.
	ReleaseDaysBefore int `gorm:"not null;default:1"`

	// Порог времени суток в день публикации: либо абсолютное время "15:04",
	// либо смещение в минутах до начала слота. Задаётся ровно одно из двух.
	ReleaseTime          *string `gorm:"type:varchar(5)"`
	ReleaseMinutesBefore *int

	IsActive      bool       `gorm:"not null;default:true;index"`
	DeactivatedAt *time.Time `gorm:"type:timestamp with time zone"`

	CreatedAt time.Time `gorm:"not null;default:now()"`
	UpdatedAt time.Time `gorm:"not null;default:now()"`

	DoctorBranch *DoctorBranch      `gorm:"foreignKey:DoctorBranchID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	TimeRange    *TemplateTimeRange `gorm:"foreignKey:TimeRangeID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL"`
}

// Конструкторы по областям действия: каждый вариант несёт только свои поля,
// чтобы невалидные комбинации не собирались в принципе.

// NewDefaultRule создаёт правило по умолчанию для пары врач-филиал.
func NewDefaultRule(doctorBranchID uuid.UUID, daysBefore int, releaseTime string) *ReleaseRule {
	rt := releaseTime
	return &ReleaseRule{
		ID:                uuid.New(),
		DoctorBranchID:    doctorBranchID,
		Scope:             RuleScopeDefault,
		ReleaseDaysBefore: daysBefore,
		ReleaseTime:       &rt,
		IsActive:          true,
	}
}

// NewWeekdayRule создаёт правило для конкретного дня недели.
func NewWeekdayRule(doctorBranchID uuid.UUID, weekday time.Weekday, daysBefore int, releaseTime string) *ReleaseRule {
	wd := weekday
	rt := releaseTime
	return &ReleaseRule{
		ID:                uuid.New(),
		DoctorBranchID:    doctorBranchID,
		Scope:             RuleScopeWeekday,
		Weekday:           &wd,
		ReleaseDaysBefore: daysBefore,
		ReleaseTime:       &rt,
		IsActive:          true,
	}
}

// NewTimeRangeRule создаёт правило для конкретного диапазона шаблона.
func NewTimeRangeRule(doctorBranchID, timeRangeID uuid.UUID, daysBefore int, releaseTime string) *ReleaseRule {
	trID := timeRangeID
	rt := releaseTime
	return &ReleaseRule{
		ID:                uuid.New(),
		DoctorBranchID:    doctorBranchID,
		Scope:             RuleScopeTimeRange,
		TimeRangeID:       &trID,
		ReleaseDaysBefore: daysBefore,
		ReleaseTime:       &rt,
		IsActive:          true,
	}
}

// Validate проверяет согласованность полей с областью действия.
// Вызывается перед сохранением; невалидное правило не попадает в БД.
func (r *ReleaseRule) Validate() error {
	switch r.Scope {
	case RuleScopeDefault:
	case RuleScopeWeekday:
		if r.Weekday == nil {
			return ErrRuleWeekdayRequired
		}
	case RuleScopeTimeRange:
		if r.TimeRangeID == nil {
			return ErrRuleTimeRangeRequired
		}
	default:
		return ErrRuleScopeUnknown
	}

	if r.ReleaseDaysBefore < 0 {
		return ErrRuleReleaseDays
	}
	if r.ReleaseTime == nil && r.ReleaseMinutesBefore == nil {
		return ErrRuleThresholdMissing
	}

	return nil
}
