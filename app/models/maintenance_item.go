package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	MAINTENANCE_STATUS_PENDING     = "pending"
	MAINTENANCE_STATUS_IN_PROGRESS = "in_progress"
	MAINTENANCE_STATUS_COMPLETED   = "completed"

	MAINTENANCE_PRIORITY_LOW    = "low"
	MAINTENANCE_PRIORITY_MEDIUM = "medium"
	MAINTENANCE_PRIORITY_HIGH   = "high"
	MAINTENANCE_PRIORITY_URGENT = "urgent"
)

type MaintenanceItem struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	UserID      uint           `gorm:"not null;index" json:"user_id"`
	PropertyID  uint           `gorm:"not null;index" json:"property_id" validate:"required"`
	Title       string         `gorm:"type:varchar(200);not null" json:"title" validate:"required,max=200"`
	Description string         `gorm:"type:text" json:"description"`
	Priority    string         `gorm:"type:varchar(20);default:'medium'" json:"priority" validate:"oneof=low medium high urgent"`
	Status      string         `gorm:"type:varchar(20);default:'pending';index" json:"status" validate:"oneof=pending in_progress completed"`
	NextDueDate *time.Time     `gorm:"type:date;default:null;index" json:"next_due_date,omitempty"`
	CompletedAt *time.Time     `gorm:"type:timestamp;default:null" json:"completed_at,omitempty"`
	CreatedAt   time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`

	Property *Property `gorm:"foreignKey:PropertyID" json:"property,omitempty"`
}

// IsOpen reports whether the item still needs attention.
func (m *MaintenanceItem) IsOpen() bool {
	return m.Status == MAINTENANCE_STATUS_PENDING || m.Status == MAINTENANCE_STATUS_IN_PROGRESS
}
