package repository

import (
	"github.com/ManuelReschke/RentPulse/app/models"
	"gorm.io/gorm"
)

type maintenanceRepository struct {
	db *gorm.DB
}

func NewMaintenanceRepository(db *gorm.DB) MaintenanceRepository {
	return &maintenanceRepository{db: db}
}

func (r *maintenanceRepository) Create(item *models.MaintenanceItem) error {
	return r.db.Create(item).Error
}

func (r *maintenanceRepository) GetByIDForUser(id, userID uint) (*models.MaintenanceItem, error) {
	var item models.MaintenanceItem
	err := r.db.Where("id = ? AND user_id = ?", id, userID).First(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// ListByUser returns items ordered by due date; an empty status lists all.
func (r *maintenanceRepository) ListByUser(userID uint, status string) ([]models.MaintenanceItem, error) {
	var items []models.MaintenanceItem
	q := r.db.Preload("Property").Where("user_id = ?", userID)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	err := q.Order("next_due_date IS NULL, next_due_date ASC").Find(&items).Error
	return items, err
}

func (r *maintenanceRepository) Update(item *models.MaintenanceItem) error {
	return r.db.Save(item).Error
}
