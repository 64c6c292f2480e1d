package repository

import (
	"github.com/ManuelReschke/RentPulse/app/models"
	"gorm.io/gorm"
)

type paymentRepository struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) PaymentRepository {
	return &paymentRepository{db: db}
}

func (r *paymentRepository) Create(payment *models.Payment) error {
	return r.db.Create(payment).Error
}

func (r *paymentRepository) ListByUser(userID uint, limit int) ([]models.Payment, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	var payments []models.Payment
	err := r.db.Preload("Tenant").
		Where("user_id = ?", userID).
		Order("payment_date DESC, id DESC").
		Limit(limit).
		Find(&payments).Error
	return payments, err
}
