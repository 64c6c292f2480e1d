package reminders

import (
	"time"

	"github.com/ManuelReschke/RentPulse/app/models"
	"gorm.io/gorm"
)

// Repository loads the rows the reminder job scans.
type Repository interface {
	// UsersWithPaidOrGrantedSubscription returns active users whose
	// subscription row is not free, with the Subscription preloaded.
	UsersWithPaidOrGrantedSubscription() ([]models.User, error)
	TenantsWithLeaseEndingOn(userID uint, days []time.Time) ([]models.Tenant, error)
	OpenMaintenanceDueBy(userID uint, by time.Time) ([]models.MaintenanceItem, error)
}

type gormRepository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) UsersWithPaidOrGrantedSubscription() ([]models.User, error) {
	var users []models.User
	err := r.db.
		Joins("JOIN subscriptions ON subscriptions.user_id = users.id").
		Where("users.status = ? AND subscriptions.status <> ?", models.STATUS_ACTIVE, models.SubscriptionStatusFree).
		Preload("Subscription").
		Find(&users).Error
	return users, err
}

func (r *gormRepository) TenantsWithLeaseEndingOn(userID uint, days []time.Time) ([]models.Tenant, error) {
	var tenants []models.Tenant
	if len(days) == 0 {
		return tenants, nil
	}
	dates := make([]string, len(days))
	for i, d := range days {
		dates[i] = d.Format("2006-01-02")
	}
	err := r.db.Preload("Property").
		Where("user_id = ? AND is_active = ? AND DATE(lease_end) IN ?", userID, true, dates).
		Order("lease_end ASC").
		Find(&tenants).Error
	return tenants, err
}

func (r *gormRepository) OpenMaintenanceDueBy(userID uint, by time.Time) ([]models.MaintenanceItem, error) {
	var items []models.MaintenanceItem
	err := r.db.Preload("Property").
		Where("user_id = ? AND status IN ? AND next_due_date IS NOT NULL AND next_due_date <= ?",
			userID,
			[]string{models.MAINTENANCE_STATUS_PENDING, models.MAINTENANCE_STATUS_IN_PROGRESS},
			by.Format("2006-01-02")).
		Order("next_due_date ASC").
		Find(&items).Error
	return items, err
}
