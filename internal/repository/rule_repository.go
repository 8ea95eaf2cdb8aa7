package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/medbook/clinic-platform/internal/model"
)

// Параметры синтезируемого default-правила: публикация за день
// до даты слота, начиная с 06:00.
const (
	DefaultReleaseDaysBefore = 1
	DefaultReleaseTime       = "06:00"
)

type RuleRepository interface {
	// Активные правила пары врач-филиал.
	ListActiveByDoctorBranch(ctx context.Context, doctorBranchID uuid.UUID) ([]model.ReleaseRule, error)
	// Создать правило; невалидное по своей области правило отклоняется.
	Create(ctx context.Context, rule *model.ReleaseRule) error
	// Мягкая деактивация: запись остаётся для аудита.
	Deactivate(ctx context.Context, ruleID uuid.UUID) error
	// Активное default-правило пары врач-филиал.
	FindActiveDefault(ctx context.Context, doctorBranchID uuid.UUID) (*model.ReleaseRule, error)
	// EnsureDefault возвращает default-правило, создавая его при отсутствии:
	// разрешение правил обязано быть тотальным.
	EnsureDefault(ctx context.Context, doctorBranchID uuid.UUID) (*model.ReleaseRule, error)
}

type GormRuleRepository struct {
	db *gorm.DB
}

func NewGormRuleRepository(db *gorm.DB) *GormRuleRepository {
	return &GormRuleRepository{db: db}
}

func (r *GormRuleRepository) ListActiveByDoctorBranch(
	ctx context.Context,
	doctorBranchID uuid.UUID,
) ([]model.ReleaseRule, error) {
	var rules []model.ReleaseRule
	err := r.db.WithContext(ctx).
		Where("doctor_branch_id = ?", doctorBranchID).
		Where("is_active = ?", true).
		Order("created_at ASC").
		Find(&rules).Error
	if err != nil {
		return nil, err
	}
	return rules, nil
}

func (r *GormRuleRepository) Create(ctx context.Context, rule *model.ReleaseRule) error {
	if err := rule.Validate(); err != nil {
		return err
	}
	if rule.ID == uuid.Nil {
		rule.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(rule).Error
}

func (r *GormRuleRepository) Deactivate(ctx context.Context, ruleID uuid.UUID) error {
	now := time.Now().UTC()
	return r.db.WithContext(ctx).
		Model(&model.ReleaseRule{}).
		Where("id = ?", ruleID).
		Updates(map[string]any{
			"is_active":      false,
			"deactivated_at": now,
		}).
		Error
}

func (r *GormRuleRepository) FindActiveDefault(
	ctx context.Context,
	doctorBranchID uuid.UUID,
) (*model.ReleaseRule, error) {
	var rule model.ReleaseRule
	err := r.db.WithContext(ctx).
		Where("doctor_branch_id = ?", doctorBranchID).
		Where("scope = ?", model.RuleScopeDefault).
		Where("is_active = ?", true).
		First(&rule).Error
	if err != nil {
		return nil, err
	}
	return &rule, nil
}

func (r *GormRuleRepository) EnsureDefault(
	ctx context.Context,
	doctorBranchID uuid.UUID,
) (*model.ReleaseRule, error) {
	rule, err := r.FindActiveDefault(ctx, doctorBranchID)
	if err == nil {
		return rule, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	created := model.NewDefaultRule(doctorBranchID, DefaultReleaseDaysBefore, DefaultReleaseTime)
	if err := r.db.WithContext(ctx).Create(created).Error; err != nil {
		return nil, err
	}
	return created, nil
}
