package models

import (
	"errors"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	AuditActionGrantPremium  = "grant_premium"
	AuditActionRevokePremium = "revoke_premium"
	AuditActionEnableUser    = "enable_user"
	AuditActionDisableUser   = "disable_user"

	AuditTargetUser = "user"
)

var ErrAuditLogImmutable = errors.New("admin audit log entries are immutable")

// AdminAuditLog records one administrative action. Rows are append-only.
type AdminAuditLog struct {
	ID         uint              `gorm:"primaryKey" json:"id"`
	AdminID    uint              `gorm:"not null;index" json:"admin_id"`
	Action     string            `gorm:"type:varchar(50);not null;index" json:"action"`
	TargetType string            `gorm:"type:varchar(50);not null" json:"target_type"`
	TargetID   uint              `gorm:"not null;index" json:"target_id"`
	Details    datatypes.JSONMap `json:"details"`
	CreatedAt  time.Time         `gorm:"autoCreateTime;index" json:"created_at"`

	Admin *AdminUser `gorm:"foreignKey:AdminID" json:"admin,omitempty"`
}

// NewUserAuditLog builds an entry targeting a user with the e-mail and name
// snapshot every entry carries.
func NewUserAuditLog(adminID uint, action string, user *User, extra map[string]interface{}) *AdminAuditLog {
	details := datatypes.JSONMap{
		"userEmail": user.Email,
		"userName":  user.FullName(),
	}
	for k, v := range extra {
		details[k] = v
	}
	return &AdminAuditLog{
		AdminID:    adminID,
		Action:     action,
		TargetType: AuditTargetUser,
		TargetID:   user.ID,
		Details:    details,
	}
}

func (a *AdminAuditLog) BeforeUpdate(tx *gorm.DB) error {
	return ErrAuditLogImmutable
}

func (a *AdminAuditLog) BeforeDelete(tx *gorm.DB) error {
	return ErrAuditLogImmutable
}
