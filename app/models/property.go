package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	PROPERTY_TYPE_SINGLE_FAMILY = "single_family"
	PROPERTY_TYPE_MULTI_FAMILY  = "multi_family"
	PROPERTY_TYPE_CONDO         = "condo"
	PROPERTY_TYPE_APARTMENT     = "apartment"
)

type Property struct {
	ID            uint                `gorm:"primaryKey" json:"id"`
	UserID        uint                `gorm:"not null;index" json:"user_id"`
	Name          string              `gorm:"type:varchar(150);not null" json:"name" validate:"required,max=150"`
	Address       string              `gorm:"type:varchar(255);not null" json:"address" validate:"required,max=255"`
	City          string              `gorm:"type:varchar(100)" json:"city" validate:"max=100"`
	State         string              `gorm:"type:varchar(50)" json:"state" validate:"max=50"`
	ZipCode       string              `gorm:"type:varchar(20)" json:"zip_code" validate:"max=20"`
	PropertyType  string              `gorm:"type:varchar(30);default:'single_family'" json:"property_type" validate:"omitempty,oneof=single_family multi_family condo apartment"`
	Units         int                 `gorm:"not null;default:1" json:"units" validate:"min=1"`
	PurchasePrice decimal.NullDecimal `gorm:"type:decimal(14,2)" json:"purchase_price"`
	CreatedAt     time.Time           `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time           `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt     gorm.DeletedAt      `gorm:"index" json:"-"`
}
