package repository

import (
	"sync"

	"gorm.io/gorm"
)

// Repositories holds all repository instances
type Repositories struct {
	User        UserRepository
	Property    PropertyRepository
	Tenant      TenantRepository
	LateFeeRule LateFeeRuleRepository
	Payment     PaymentRepository
	Maintenance MaintenanceRepository
	AdminUser   AdminUserRepository
}

// NewRepositories creates a new instance of all repositories
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		User:        NewUserRepository(db),
		Property:    NewPropertyRepository(db),
		Tenant:      NewTenantRepository(db),
		LateFeeRule: NewLateFeeRuleRepository(db),
		Payment:     NewPaymentRepository(db),
		Maintenance: NewMaintenanceRepository(db),
		AdminUser:   NewAdminUserRepository(db),
	}
}

// Factory manages repository instances and ensures they are singletons
type Factory struct {
	db    *gorm.DB
	repos *Repositories
	once  sync.Once
}

// NewFactory creates a new repository factory
func NewFactory(db *gorm.DB) *Factory {
	return &Factory{
		db: db,
	}
}

// GetRepositories returns a singleton instance of all repositories
func (f *Factory) GetRepositories() *Repositories {
	f.once.Do(func() {
		f.repos = NewRepositories(f.db)
	})
	return f.repos
}

// GetUserRepository returns the user repository instance
func (f *Factory) GetUserRepository() UserRepository {
	return f.GetRepositories().User
}

func (f *Factory) GetPropertyRepository() PropertyRepository {
	return f.GetRepositories().Property
}

func (f *Factory) GetTenantRepository() TenantRepository {
	return f.GetRepositories().Tenant
}

func (f *Factory) GetLateFeeRuleRepository() LateFeeRuleRepository {
	return f.GetRepositories().LateFeeRule
}

func (f *Factory) GetPaymentRepository() PaymentRepository {
	return f.GetRepositories().Payment
}

func (f *Factory) GetMaintenanceRepository() MaintenanceRepository {
	return f.GetRepositories().Maintenance
}

// GetAdminUserRepository returns the admin user repository instance
func (f *Factory) GetAdminUserRepository() AdminUserRepository {
	return f.GetRepositories().AdminUser
}
