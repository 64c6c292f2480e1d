package repository

import (
	"github.com/ManuelReschke/RentPulse/app/models"
	"gorm.io/gorm"
)

type tenantRepository struct {
	db *gorm.DB
}

func NewTenantRepository(db *gorm.DB) TenantRepository {
	return &tenantRepository{db: db}
}

func (r *tenantRepository) Create(tenant *models.Tenant) error {
	return r.db.Create(tenant).Error
}

func (r *tenantRepository) GetByIDForUser(id, userID uint) (*models.Tenant, error) {
	var tenant models.Tenant
	err := r.db.Where("id = ? AND user_id = ?", id, userID).First(&tenant).Error
	if err != nil {
		return nil, err
	}
	return &tenant, nil
}

func (r *tenantRepository) ListByUser(userID uint, activeOnly bool) ([]models.Tenant, error) {
	var tenants []models.Tenant
	q := r.db.Preload("Property").Where("user_id = ?", userID)
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	err := q.Order("last_name ASC, first_name ASC").Find(&tenants).Error
	return tenants, err
}

// CountActiveByUser counts the tenants that count against the free-tier quota.
func (r *tenantRepository) CountActiveByUser(userID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.Tenant{}).Where("user_id = ? AND is_active = ?", userID, true).Count(&count).Error
	return count, err
}

func (r *tenantRepository) Deactivate(id, userID uint) error {
	res := r.db.Model(&models.Tenant{}).Where("id = ? AND user_id = ?", id, userID).Update("is_active", false)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		// already inactive tenants also land here; distinguish them from missing rows
		if _, err := r.GetByIDForUser(id, userID); err != nil {
			return err
		}
	}
	return nil
}
