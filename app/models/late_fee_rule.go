package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	FEE_TYPE_FLAT       = "flat"
	FEE_TYPE_PERCENTAGE = "percentage"
)

// LateFeeRule configures how late fees are charged for a user's property, or
// for all of the user's properties when PropertyID is nil.
type LateFeeRule struct {
	ID              uint                `gorm:"primaryKey" json:"id"`
	UserID          uint                `gorm:"not null;index" json:"user_id"`
	PropertyID      *uint               `gorm:"index" json:"property_id,omitempty"`
	GracePeriodDays int                 `gorm:"not null;default:5" json:"grace_period_days" validate:"min=0"`
	FeeType         string              `gorm:"type:varchar(20);not null" json:"fee_type" validate:"required,oneof=flat percentage"`
	FeeAmount       decimal.Decimal     `gorm:"type:decimal(12,2);not null" json:"fee_amount"`
	MaxFee          decimal.NullDecimal `gorm:"type:decimal(12,2)" json:"max_fee"`
	IsActive        bool                `gorm:"not null;default:true" json:"is_active"`
	CreatedAt       time.Time           `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time           `gorm:"autoUpdateTime" json:"updated_at"`
}
