package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Tenant occupies a unit of a property. Only active, non-deleted tenants count
// against the free-tier quota.
type Tenant struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	UserID      uint            `gorm:"not null;index" json:"user_id"`
	PropertyID  uint            `gorm:"not null;index" json:"property_id" validate:"required"`
	FirstName   string          `gorm:"type:varchar(100);not null" json:"first_name" validate:"required,max=100"`
	LastName    string          `gorm:"type:varchar(100);not null" json:"last_name" validate:"required,max=100"`
	Email       string          `gorm:"type:varchar(200)" json:"email" validate:"omitempty,email"`
	Phone       string          `gorm:"type:varchar(50)" json:"phone" validate:"max=50"`
	UnitNumber  string          `gorm:"type:varchar(20)" json:"unit_number" validate:"max=20"`
	LeaseStart  *time.Time      `gorm:"type:date;default:null" json:"lease_start,omitempty"`
	LeaseEnd    *time.Time      `gorm:"type:date;default:null;index" json:"lease_end,omitempty"`
	MonthlyRent decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"monthly_rent"`
	IsActive    bool            `gorm:"not null;default:true;index" json:"is_active"`
	CreatedAt   time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt   gorm.DeletedAt  `gorm:"index" json:"-"`

	Property *Property `gorm:"foreignKey:PropertyID" json:"property,omitempty"`
}

func (t *Tenant) FullName() string {
	return strings.TrimSpace(t.FirstName + " " + t.LastName)
}
