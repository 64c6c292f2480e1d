package repository

import (
	"errors"

	"github.com/ManuelReschke/RentPulse/app/models"
	"gorm.io/gorm"
)

type lateFeeRuleRepository struct {
	db *gorm.DB
}

func NewLateFeeRuleRepository(db *gorm.DB) LateFeeRuleRepository {
	return &lateFeeRuleRepository{db: db}
}

func (r *lateFeeRuleRepository) Create(rule *models.LateFeeRule) error {
	return r.db.Create(rule).Error
}

func (r *lateFeeRuleRepository) ListByUser(userID uint) ([]models.LateFeeRule, error) {
	var rules []models.LateFeeRule
	err := r.db.Where("user_id = ?", userID).Order("created_at DESC").Find(&rules).Error
	return rules, err
}

func (r *lateFeeRuleRepository) FindApplicable(userID, propertyID uint) (*models.LateFeeRule, error) {
	var rule models.LateFeeRule
	err := r.db.Where("user_id = ? AND property_id = ? AND is_active = ?", userID, propertyID, true).
		Order("created_at DESC").First(&rule).Error
	if err == nil {
		return &rule, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	err = r.db.Where("user_id = ? AND property_id IS NULL AND is_active = ?", userID, true).
		Order("created_at DESC").First(&rule).Error
	if err != nil {
		return nil, err
	}
	return &rule, nil
}
