package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	PAYMENT_METHOD_CASH     = "cash"
	PAYMENT_METHOD_CHECK    = "check"
	PAYMENT_METHOD_TRANSFER = "bank_transfer"
	PAYMENT_METHOD_CARD     = "card"
	PAYMENT_METHOD_OTHER    = "other"
)

// Payment is a recorded rent payment with the late fee computed at entry time.
type Payment struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	UserID        uint            `gorm:"not null;index" json:"user_id"`
	TenantID      uint            `gorm:"not null;index" json:"tenant_id"`
	RentAmount    decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"rent_amount"`
	DueDate       time.Time       `gorm:"type:date;not null" json:"due_date"`
	PaymentDate   time.Time       `gorm:"type:date;not null;index" json:"payment_date"`
	DaysLate      int             `gorm:"not null;default:0" json:"days_late"`
	LateFee       decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"late_fee"`
	TotalDue      decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"total_due"`
	PaymentMethod string          `gorm:"type:varchar(20)" json:"payment_method"`
	Notes         string          `gorm:"type:text" json:"notes"`
	CreatedAt     time.Time       `gorm:"autoCreateTime" json:"created_at"`

	Tenant *Tenant `gorm:"foreignKey:TenantID" json:"tenant,omitempty"`
}
