package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/medbook/clinic-platform/internal/model"
)

type TenantRepository interface {
	// ListActive возвращает активных тенантов из directory-партиции.
	ListActive(ctx context.Context) ([]model.Tenant, error)
	// FindByKey возвращает тенанта по ключу.
	FindByKey(ctx context.Context, key string) (*model.Tenant, error)
}

type GormTenantRepository struct {
	db *gorm.DB
}

func NewGormTenantRepository(db *gorm.DB) *GormTenantRepository {
	return &GormTenantRepository{db: db}
}

func (r *GormTenantRepository) ListActive(ctx context.Context) ([]model.Tenant, error) {
	var tenants []model.Tenant
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("key ASC").
		Find(&tenants).Error
	if err != nil {
		return nil, err
	}
	return tenants, nil
}

func (r *GormTenantRepository) FindByKey(ctx context.Context, key string) (*model.Tenant, error) {
	var tenant model.Tenant
	if err := r.db.WithContext(ctx).First(&tenant, "key = ?", key).Error; err != nil {
		return nil, err
	}
	return &tenant, nil
}
