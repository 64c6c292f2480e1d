package repository

import (
	"github.com/ManuelReschke/RentPulse/app/models"
	"gorm.io/gorm"
)

type propertyRepository struct {
	db *gorm.DB
}

func NewPropertyRepository(db *gorm.DB) PropertyRepository {
	return &propertyRepository{db: db}
}

func (r *propertyRepository) Create(property *models.Property) error {
	return r.db.Create(property).Error
}

func (r *propertyRepository) GetByIDForUser(id, userID uint) (*models.Property, error) {
	var property models.Property
	err := r.db.Where("id = ? AND user_id = ?", id, userID).First(&property).Error
	if err != nil {
		return nil, err
	}
	return &property, nil
}

func (r *propertyRepository) ListByUser(userID uint) ([]models.Property, error) {
	var properties []models.Property
	err := r.db.Where("user_id = ?", userID).Order("created_at ASC").Find(&properties).Error
	return properties, err
}

// CountByUser counts non-deleted properties.
func (r *propertyRepository) CountByUser(userID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.Property{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}

// Delete soft-deletes the property and deactivates its tenants.
func (r *propertyRepository) Delete(id, userID uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ? AND user_id = ?", id, userID).Delete(&models.Property{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.Model(&models.Tenant{}).
			Where("property_id = ? AND user_id = ?", id, userID).
			Update("is_active", false).Error
	})
}
