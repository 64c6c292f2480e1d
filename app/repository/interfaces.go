package repository

import (
	"time"

	"github.com/ManuelReschke/RentPulse/app/models"
)

// Lookups return gorm.ErrRecordNotFound when the row does not exist or does
// not belong to the given user.

// UserRepository defines the interface for user-related database operations
type UserRepository interface {
	// CreateWithSubscription stores the user and its free subscription row together.
	CreateWithSubscription(user *models.User) error
	GetByID(id uint) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	UpdateLastLogin(id uint, at time.Time) error
}

// PropertyRepository defines the interface for property operations
type PropertyRepository interface {
	Create(property *models.Property) error
	GetByIDForUser(id, userID uint) (*models.Property, error)
	ListByUser(userID uint) ([]models.Property, error)
	CountByUser(userID uint) (int64, error)
	Delete(id, userID uint) error
}

// TenantRepository defines the interface for tenant operations
type TenantRepository interface {
	Create(tenant *models.Tenant) error
	GetByIDForUser(id, userID uint) (*models.Tenant, error)
	ListByUser(userID uint, activeOnly bool) ([]models.Tenant, error)
	CountActiveByUser(userID uint) (int64, error)
	Deactivate(id, userID uint) error
}

// LateFeeRuleRepository defines the interface for late fee rule operations
type LateFeeRuleRepository interface {
	Create(rule *models.LateFeeRule) error
	ListByUser(userID uint) ([]models.LateFeeRule, error)
	// FindApplicable returns the active rule for the property, falling back
	// to the user's active rule without a property.
	FindApplicable(userID, propertyID uint) (*models.LateFeeRule, error)
}

// PaymentRepository defines the interface for payment operations
type PaymentRepository interface {
	Create(payment *models.Payment) error
	ListByUser(userID uint, limit int) ([]models.Payment, error)
}

// MaintenanceRepository defines the interface for maintenance item operations
type MaintenanceRepository interface {
	Create(item *models.MaintenanceItem) error
	GetByIDForUser(id, userID uint) (*models.MaintenanceItem, error)
	ListByUser(userID uint, status string) ([]models.MaintenanceItem, error)
	Update(item *models.MaintenanceItem) error
}

// AdminUserRepository defines the interface for back-office accounts
type AdminUserRepository interface {
	Create(admin *models.AdminUser) error
	GetByID(id uint) (*models.AdminUser, error)
	GetByEmail(email string) (*models.AdminUser, error)
	UpdateLastLogin(id uint, at time.Time) error
}
